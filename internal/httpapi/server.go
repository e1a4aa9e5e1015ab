package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/farmlink/authcore"
	"github.com/farmlink/authcore/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Service is the part of *authcore.Engine the HTTP surface drives.
type Service interface {
	middleware.Authorizer
	Register(ctx context.Context, in authcore.RegisterInput) (*authcore.Session, error)
	Login(ctx context.Context, email, password string) (*authcore.Session, error)
	ChangePassword(ctx context.Context, principalID, oldPassword, newPassword string) error
	Principal(ctx context.Context, principalID string) (*authcore.Principal, error)
	Refresh(ctx context.Context, token string) (*authcore.Session, error)
	Logout(ctx context.Context, token string) error
}

// Server holds the handlers and their dependencies.
type Server struct {
	svc     Service
	logger  *zap.Logger
	metrics http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// New returns a Server for svc. A nil logger is replaced with a no-op logger.
func New(svc Service, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{svc: svc, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with every route mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.ClientIP)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.svc))
			r.Get("/me", s.handleMe)
			r.Put("/password", s.handleChangePassword)
		})
	})

	r.With(middleware.RequireOwner(s.svc, func(r *http.Request) string {
		return chi.URLParam(r, "principalID")
	}, true)).Get("/principals/{principalID}", s.handleGetPrincipal)

	r.With(middleware.RequireRole(s.svc, authcore.RoleAdmin)).Get("/admin/ping", s.handleAdminPing)

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
