package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/farmlink/authcore"
)

// Authorizer is the subset of *authcore.Engine the guards need.
type Authorizer interface {
	Authorize(ctx context.Context, authorizationHeader string, req authcore.Requirement) (*authcore.AuthResult, error)
}

type authResultContextKey struct{}

// AuthResultFromContext returns the result stored by a guard.
func AuthResultFromContext(ctx context.Context) (*authcore.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*authcore.AuthResult)
	return res, ok
}

// WithAuthResult stores res in ctx the way the guards do.
func WithAuthResult(ctx context.Context, res *authcore.AuthResult) context.Context {
	return context.WithValue(ctx, authResultContextKey{}, res)
}

// Guard authorizes each request against the Requirement built by requirement.
func Guard(engine Authorizer, requirement func(*http.Request) authcore.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			var req authcore.Requirement
			if requirement != nil {
				req = requirement(r)
			}

			res, err := engine.Authorize(r.Context(), r.Header.Get("Authorization"), req)
			if err != nil {
				Deny(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuthResult(r.Context(), res)))
		})
	}
}

// RequireAuth admits any authenticated principal.
func RequireAuth(engine Authorizer) func(http.Handler) http.Handler {
	return Guard(engine, nil)
}

// StatusFor maps an Authorize error to 403 for role and ownership denials and
// 401 for everything else.
func StatusFor(err error) int {
	if errors.Is(err, authcore.ErrForbidden) {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

// Deny writes the bare status body for err.
func Deny(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusForbidden {
		http.Error(w, "forbidden", status)
		return
	}
	http.Error(w, "unauthorized", status)
}

// ClientIP records the request's remote host for login throttling and audit.
// Put it after a proxy-aware middleware such as chi's RealIP when the service
// runs behind a load balancer.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ip = host
		}
		next.ServeHTTP(w, r.WithContext(authcore.WithClientIP(r.Context(), ip)))
	})
}
