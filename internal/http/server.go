package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Pinger reports whether a dependency can serve requests.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the transport settings of the API server.
type Config struct {
	Addr               string
	RequestsPerMinute  int
	CORSAllowedOrigins []string
	Logger             *log.Logger
}

// Services are the ledger operations the API exposes.
type Services struct {
	Users        *services.UserService
	Budgets      *services.BudgetService
	Transactions *services.TransactionService
	Goals        *services.GoalService
	Reports      *services.ReportService
	Notifier     *services.Notifier
	Recurring    *services.RecurringProcessor
	Tokens       *auth.Issuer
	Store        Pinger
}

type Server struct {
	http.Server

	users        *services.UserService
	budgets      *services.BudgetService
	transactions *services.TransactionService
	goals        *services.GoalService
	reports      *services.ReportService
	notifier     *services.Notifier
	recurring    *services.RecurringProcessor
	tokens       *auth.Issuer
	store        Pinger

	limiter      *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware
	now          func() time.Time
	shutdownOnce sync.Once
}

// NewServer wires middleware and routes, returning a ready-to-run server.
func NewServer(cfg Config, svc Services) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	origins := cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		users:        svc.Users,
		budgets:      svc.Budgets,
		transactions: svc.Transactions,
		goals:        svc.Goals,
		reports:      svc.Reports,
		notifier:     svc.Notifier,
		recurring:    svc.Recurring,
		tokens:       svc.Tokens,
		store:        svc.Store,
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RequestsPerMinute}),
		detector:     security.NewDetector(),
		now:          time.Now,
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	r := chi.NewRouter()
	r.Use(log.Middleware(logger))
	r.Use(s.tracer.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", trace.HeaderRequestID},
		ExposedHeaders: []string{trace.HeaderRequestID},
		MaxAge:         300,
	}))
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusTooManyRequests, "Too many requests, please try again later.")
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.With(log.ComponentMiddleware(log.ComponentAuth)).Route("/auth", s.authRoutes)

	r.Group(func(r chi.Router) {
		r.Use(s.tokens.Middleware)
		r.Route("/users", func(r chi.Router) {
			s.profileRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(core.RoleAdmin))
				s.adminRoutes(r)
			})
		})
		r.With(log.ComponentMiddleware(log.ComponentBudget)).Route("/budgets", s.budgetRoutes)
		r.With(log.ComponentMiddleware(log.ComponentTransaction)).Route("/transaction", s.transactionRoutes)
		r.With(log.ComponentMiddleware(log.ComponentGoal)).Route("/goals", s.goalRoutes)
		r.With(log.ComponentMiddleware(log.ComponentNotification)).Route("/notifications", s.notificationRoutes)
		r.With(log.ComponentMiddleware(log.ComponentReport)).Route("/reports", s.reportRoutes)
	})

	s.Handler = r
	return s
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			log.FromContext(r.Context()).WithComponent(log.ComponentStorage).
				WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			writeFailure(w, http.StatusServiceUnavailable, "Store unavailable")
			return
		}
	}
	writeMessage(w, http.StatusOK, "ready")
}
