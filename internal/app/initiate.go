package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/samber/lo"
	"github.com/sethvargo/go-retry"
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
	"google.golang.org/api/option"
)

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		LogLevel:         a.config.GetString("instrument.log_level"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.hmac = hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake()
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow
}

func (a *App) initJWT() {
	defaultJWT, err := jwt.NewHS512(jwt.Config{
		Secret:     []byte(a.config.GetString("jwt.secret")),
		Issuer:     a.config.GetString("jwt.issuer"),
		Audiences:  a.config.GetArray("jwt.audiences"),
		TTLMinutes: a.config.GetMinute("jwt.ttl_minutes"),
		Clock:      a.clock,
		UUID:       a.uuid,
	})
	if err != nil {
		slog.Error("failed to init jwt token", "error", err)
		os.Exit(1)
	}
	a.jwt = defaultJWT
}

// pingWithRetry retries ping with exponential backoff until it succeeds or
// app.startup.max_retries is spent.
func (a *App) pingWithRetry(name string, ping func(ctx context.Context) error) error {
	maxRetries := a.config.GetInt("app.startup.max_retries")
	if maxRetries < 0 {
		maxRetries = 0
	}

	b := retry.NewExponential(200 * time.Millisecond)
	b = retry.WithCappedDuration(5*time.Second, b)
	b = retry.WithMaxRetries(uint64(maxRetries), b)

	return retry.Do(a.ctx, b, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := ping(pingCtx); err != nil {
			slog.WarnContext(ctx, "startup ping failed, retrying", "component", name, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (a *App) initDatabase() {
	config, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	config.MaxConns = int32(a.config.GetInt("database.pool.max_conns"))
	config.MinConns = int32(a.config.GetInt("database.pool.min_conns"))
	config.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	config.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	if err := a.pingWithRetry("database", pool.Ping); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool
}

func (a *App) initKVStore() {
	driver := strings.TrimSpace(a.config.GetString("kvstore.driver"))

	if driver == kvstore.DriverRedis {
		opt, err := redis.ParseURL(a.config.GetString("redis.url"))
		if err != nil {
			slog.Error("failed to parse redis url", "error", err)
			os.Exit(1)
		}

		rdb := redis.NewClient(opt)
		if err := a.pingWithRetry("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}); err != nil {
			slog.Error("failed to init redis", "error", err)
			os.Exit(1)
		}
		a.cacheConn = rdb
	}

	kv, err := kvstore.NewFromDriver(driver, kvstore.FactoryOptions{
		Clock:            a.clock,
		SweepInterval:    a.config.GetSecond("kvstore.memory.sweep_interval_seconds"),
		Redis:            a.cacheConn,
		MaxUpdateRetries: a.config.GetInt("kvstore.redis.max_update_retries"),
	})
	if err != nil {
		slog.Error("failed to init kvstore", "error", err, "driver", driver)
		os.Exit(1)
	}

	if mem, ok := kv.(*kvstore.Memory); ok {
		slog.Warn("kvstore memory backend selected, state is not shared between replicas")
		a.goroutine.Go(a.ctx, mem.Run)
	}

	a.kv = kv
}

func (a *App) initRateLimit() {
	policies := ratelimit.PoliciesFromConfig(a.config)

	a.limiters = make(map[string]*ratelimit.Limiter, len(policies))
	for name, policy := range policies {
		a.limiters[name] = ratelimit.New(a.kv, policy,
			ratelimit.WithClock(a.clock),
			ratelimit.WithTimeout(a.config.GetSecond("ratelimit.timeout_seconds")),
			ratelimit.WithInstrument(a.ins),
		)
	}
}

func (a *App) initMail() {
	driver := a.config.GetString("mail.driver")
	client, err := mail.NewFromDriver(driver, mail.FactoryOptions{
		SMTP: mail.SMTPConfig{
			Host:     a.config.GetString("mail.smtp.host"),
			Port:     a.config.GetInt("mail.smtp.port"),
			Username: a.config.GetString("mail.smtp.username"),
			Password: a.config.GetString("mail.smtp.password"),
			From:     a.config.GetString("mail.smtp.from"),
		},
		SendGrid: mail.SendGridConfig{
			APIKey:   a.config.GetString("mail.sendgrid.api_key"),
			From:     a.config.GetString("mail.sendgrid.from"),
			FromName: a.config.GetString("mail.sendgrid.from_name"),
			Sandbox:  a.config.GetBool("mail.sendgrid.sandbox"),
		},
	})
	if err != nil {
		slog.Error("failed to init mail", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.mail = client
}

func (a *App) initSMS() {
	driver := a.config.GetString("sms.driver")
	client, err := sms.NewFromDriver(a.ctx, driver, sms.FactoryOptions{
		Twilio: sms.TwilioConfig{
			AccountSID: a.config.GetString("sms.twilio.account_sid"),
			AuthToken:  a.config.GetString("sms.twilio.auth_token"),
			From:       a.config.GetString("sms.twilio.from"),
			Timeout:    a.config.GetSecond("sms.twilio.timeout_seconds"),
		},
		SNS: sms.SNSConfig{
			Region:          a.config.GetString("sms.sns.region"),
			AccessKeyID:     a.config.GetString("sms.sns.access_key_id"),
			SecretAccessKey: a.config.GetString("sms.sns.secret_access_key"),
			SenderID:        a.config.GetString("sms.sns.sender_id"),
			Transactional:   a.config.GetBool("sms.sns.transactional"),
		},
		RatePerSecond: a.config.GetFloat64("sms.rate_per_second"),
		Burst:         a.config.GetInt("sms.burst"),
	})
	if err != nil {
		slog.Error("failed to init sms", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.sms = client
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")

	var pubsubOptions []option.ClientOption
	if v := strings.TrimSpace(a.config.GetString("messaging.pubsub.endpoint")); v != "" {
		pubsubOptions = append(pubsubOptions, option.WithEndpoint(v))
	}
	if a.config.GetBool("messaging.pubsub.without_auth") {
		pubsubOptions = append(pubsubOptions, option.WithoutAuthentication())
	}

	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			Addr: a.config.GetString("messaging.nsq.producer_addr"),
			Config: func() *nsq.Config {
				cfg := nsq.NewConfig()
				cfg.DialTimeout = a.config.GetSecond("messaging.nsq.dial_timeout_seconds")
				cfg.ReadTimeout = a.config.GetSecond("messaging.nsq.read_timeout_seconds")
				cfg.WriteTimeout = a.config.GetSecond("messaging.nsq.write_timeout_seconds")
				return cfg
			}(),
		},
		Kafka: messaging.KafkaConfig{
			Brokers:      a.config.GetArray("messaging.kafka.brokers"),
			BatchTimeout: time.Duration(a.config.GetInt64("messaging.kafka.batch_timeout_ms")) * time.Millisecond,
		},
		NATS: messaging.NATSConfig{
			URL:  a.config.GetString("messaging.nats.url"),
			Name: a.config.GetString("messaging.nats.name"),
			Options: []nats.Option{
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:       a.config.GetString("messaging.pubsub.project_id"),
			CredentialsJSON: a.config.GetBinary("messaging.pubsub.credentials_json"),
			ClientOptions:   pubsubOptions,
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initHTTPServer() {
	skip := []string{"/", "/health"}

	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Instrument: a.ins,
		RateLimits: []router.RateLimitRule{
			{Limiter: a.limiters[ratelimit.PolicyAPIAnonymous], Key: router.AnonymousIP, SkipPaths: skip},
			{Limiter: a.limiters[ratelimit.PolicyAPIAuthenticated], Key: router.AuthenticatedUser, SkipPaths: skip},
		},
	})

	origins := lo.Compact(lo.Map(a.config.GetArray("app.server.cors"), func(o string, _ int) string {
		return strings.TrimSpace(o)
	}))

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{
			router.HeaderRetryAfter,
			router.HeaderRateLimitLimit,
			router.HeaderRateLimitRemaining,
			router.HeaderRateLimitReset,
		},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "SMS",
			fn: func(context.Context) error {
				return a.sms.Close()
			},
		},
		{
			name: "Mail",
			fn: func(context.Context) error {
				return a.mail.Close()
			},
		},
		{
			name: "KVStore",
			fn: func(context.Context) error {
				return a.kv.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				if a.cacheConn == nil {
					return nil
				}
				return a.cacheConn.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				a.dbConn.Close()

				return nil
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
