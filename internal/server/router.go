package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/terraconstructs/authgate/internal/auth"
	"github.com/terraconstructs/authgate/internal/config"
	gatemiddleware "github.com/terraconstructs/authgate/internal/middleware"
	"github.com/terraconstructs/authgate/internal/services/iam"
	"github.com/terraconstructs/authgate/internal/services/validation"
	"github.com/terraconstructs/authgate/internal/telemetry"
)

// RouterOptions controls the construction of the gateway HTTP router.
// IAMService is required; other fields fall back to defaults when unset.
type RouterOptions struct {
	IAMService iam.Service
	Validator  *validation.RequestValidator
	// Routes defaults to gatemiddleware.DefaultRouteRules.
	Routes        *gatemiddleware.RouteTable
	Cfg           *config.Config
	CORSOptions   *cors.Options
	Metrics       *telemetry.ServerMetrics
	Middleware    []func(http.Handler) http.Handler
	HealthHandler http.HandlerFunc
	ExtraRoutes   func(chi.Router)
}

// DefaultCORSOptions returns the shared development CORS policy.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

// NewRouter assembles a chi.Router with shared middleware, the authentication
// pipeline and the gateway handlers mounted.
func NewRouter(opts RouterOptions) (chi.Router, error) {
	if opts.IAMService == nil {
		return nil, errors.New("router requires iam service")
	}

	routes := opts.Routes
	if routes == nil {
		var err error
		routes, err = gatemiddleware.NewRouteTable(gatemiddleware.DefaultRouteRules(), gatemiddleware.DefaultRouteCacheSize)
		if err != nil {
			return nil, fmt.Errorf("build route table: %w", err)
		}
	}

	validator := opts.Validator
	if validator == nil {
		var err error
		validator, err = validation.NewRequestValidator(validation.DefaultCacheSize)
		if err != nil {
			return nil, fmt.Errorf("create request validator: %w", err)
		}
	}

	authn, err := gatemiddleware.NewAuthnMiddleware(gatemiddleware.AuthnDependencies{IAM: opts.IAMService})
	if err != nil {
		return nil, err
	}
	authz, err := gatemiddleware.NewAuthzMiddleware(gatemiddleware.AuthzDependencies{Routes: routes})
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	// Baseline middleware shared across entrypoints.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if opts.Metrics != nil {
		r.Use(requestMetrics(opts.Metrics))
	}

	corsCfg := DefaultCORSOptions()
	if opts.Cfg != nil && len(opts.Cfg.CORS.AllowedOrigins) > 0 {
		corsCfg.AllowedOrigins = opts.Cfg.CORS.AllowedOrigins
	}
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Use(authn)
	r.Use(authz)

	cookies := newSessionCookies(opts.Cfg)

	r.Post("/auth/jwt/login", HandleJWTLogin(opts.IAMService, validator))
	r.Post("/auth/session/login", HandleSessionLogin(opts.IAMService, validator, cookies))
	r.Post("/auth/session/logout", HandleSessionLogout(opts.IAMService, cookies))
	r.Get("/auth/me", HandleMe())

	r.Get("/api/hello", HandleHello("Hello from API endpoint!"))
	r.Get("/admin/hello", HandleHello("Hello from Admin endpoint!"))

	healthHandler := opts.HealthHandler
	if healthHandler == nil {
		healthHandler = HandleHealth(time.Now)
	}
	r.Get("/health", healthHandler)

	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleMethodNotAllowed)

	if opts.ExtraRoutes != nil {
		opts.ExtraRoutes(r)
	}

	return r, nil
}

// NewH2CHandler wraps the router with an h2c server to provide HTTP/2 over
// cleartext.
func NewH2CHandler(opts RouterOptions) (http.Handler, error) {
	router, err := NewRouter(opts)
	if err != nil {
		return nil, err
	}
	return h2c.NewHandler(router, &http2.Server{}), nil
}

// requestMetrics records request count and latency per matched route pattern.
func requestMetrics(metrics *telemetry.ServerMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			metrics.RecordRequest(r.Context(), r.Method, route, strconv.Itoa(status),
				float64(time.Since(start).Microseconds())/1000)
		})
	}
}

// sessionCookies builds the Set-Cookie headers for session login and logout.
type sessionCookies struct {
	name   string
	secure bool
	ttl    time.Duration
}

func newSessionCookies(cfg *config.Config) sessionCookies {
	c := sessionCookies{
		name: auth.DefaultSessionCookieName,
		ttl:  auth.DefaultSessionTTL,
	}
	if cfg != nil {
		if cfg.Session.CookieName != "" {
			c.name = cfg.Session.CookieName
		}
		if cfg.Session.TTL > 0 {
			c.ttl = cfg.Session.TTL
		}
		c.secure = cfg.Session.CookieSecure
	}
	return c
}

func (c sessionCookies) issue(sessionID string) *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (c sessionCookies) clear() *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
