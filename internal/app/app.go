package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/edubite/internal/pkg/clock"
	"github.com/shandysiswandi/edubite/internal/pkg/config"
	"github.com/shandysiswandi/edubite/internal/pkg/goroutine"
	"github.com/shandysiswandi/edubite/internal/pkg/hash"
	"github.com/shandysiswandi/edubite/internal/pkg/instrument"
	"github.com/shandysiswandi/edubite/internal/pkg/jwt"
	"github.com/shandysiswandi/edubite/internal/pkg/kvstore"
	"github.com/shandysiswandi/edubite/internal/pkg/mail"
	"github.com/shandysiswandi/edubite/internal/pkg/messaging"
	"github.com/shandysiswandi/edubite/internal/pkg/ratelimit"
	"github.com/shandysiswandi/edubite/internal/pkg/router"
	"github.com/shandysiswandi/edubite/internal/pkg/sms"
	"github.com/shandysiswandi/edubite/internal/pkg/uid"
	"github.com/shandysiswandi/edubite/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	kv        kvstore.Store
	limiters  map[string]*ratelimit.Limiter
	mail      mail.Mail
	sms       sms.SMS
	messaging messaging.Publisher

	// server
	router     *router.Router
	httpServer *http.Server

	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initKVStore()
	app.initRateLimit()
	app.initMail()
	app.initSMS()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
