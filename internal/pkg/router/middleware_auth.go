package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/edubite/internal/pkg/jwt"
)

// middlewareAuthentication attaches claims for a valid bearer token. Requests
// without a token, or with an invalid one, continue anonymously; handlers that
// need a user check jwt.GetAuth themselves.
func middlewareAuthentication(verifier jwt.JWT) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			p := strings.Fields(r.Header.Get("Authorization"))
			if len(p) != 2 || !strings.EqualFold(p[0], "Bearer") {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(p[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}
