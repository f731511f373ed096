// Package http is the display layer: server-rendered pages and htmx
// partials over the per-user ledger, plus a JSON summary.
package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"moneytracker/internal/auth"
	"moneytracker/internal/cache"
	"moneytracker/internal/core"
	"moneytracker/internal/ledger"
	"moneytracker/internal/log"
	"moneytracker/internal/middleware/ratelimit"
	"moneytracker/internal/middleware/security"
	"moneytracker/internal/middleware/trace"
	appweb "moneytracker/web"
)

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the server to the rest of the application.
type Options struct {
	Addr     string
	Sessions *auth.Sessions
	Ledgers  *ledger.Ledgers
	Store    Pinger
	Logger   *log.Logger

	RateLimitPerMinute int
	// CacheSweepInterval is how often idle ledgers are swept; zero disables the janitor.
	CacheSweepInterval time.Duration
	// Clock defaults to time.Now; it decides the default date of new entries.
	Clock core.Clock
}

type Server struct {
	http.Server
	templates *template.Template
	sessions  *auth.Sessions
	ledgers   *ledger.Ledgers
	store     Pinger
	clock     core.Clock

	logger     *log.Logger
	structured *log.StructuredLogger

	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware
	caches      *cache.Manager
	unwatch     func()

	metrics      appMetrics
	shutdownOnce sync.Once
}

// NewServer parses the embedded templates, configures routes and
// middleware, and returns a ready-to-run server.
func NewServer(opts Options) (*Server, error) {
	if opts.Sessions == nil || opts.Ledgers == nil {
		return nil, errors.New("sessions and ledgers are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	rl := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rl.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		templates:   t,
		sessions:    opts.Sessions,
		ledgers:     opts.Ledgers,
		store:       opts.Store,
		clock:       clock,
		logger:      logger,
		structured:  log.NewStructuredLogger(logger),
		rateLimiter: ratelimit.NewLimiter(rl),
		tracer:      trace.NewMiddleware(extractClientIP, logger),
		caches:      cache.NewManager(),
		metrics:     appMetrics{started: time.Now()},
	}

	s.unwatch = s.ledgers.Watch(s.sessions)
	s.caches.Register(s.ledgers.Cleaner())
	if opts.CacheSweepInterval > 0 {
		s.caches.StartCleanup(opts.CacheSweepInterval)
	}

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	mux.HandleFunc("/signin", s.handleSignIn)
	mux.HandleFunc("/signup", s.handleSignUp)
	mux.HandleFunc("/signout", s.handleSignOut)

	private := func(h sessionHandler) http.Handler {
		return security.NoStore(s.requireSession(h))
	}
	mux.Handle("/", private(s.handleDashboard))
	mux.Handle("/savings", private(s.handleSavings))
	mux.Handle("/history", private(s.handleHistory))
	mux.Handle("/income", private(s.handleIncome))
	mux.Handle("/income/delete", private(s.handleDeleteIncome))
	mux.Handle("/expenses", private(s.handleExpenses))
	mux.Handle("/expenses/delete", private(s.handleDeleteExpense))
	mux.Handle("/api/summary", private(s.handleSummaryAPI))

	// UI partials
	mux.Handle("/ui/summary", private(s.handleSummaryPartial))
	mux.Handle("/ui/income/list", private(s.handleIncomeList))
	mux.Handle("/ui/income/preview", private(s.handleIncomePreview))
	mux.Handle("/ui/expenses/list", private(s.handleExpenseList))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr: opts.Addr,
		Handler: chain(mux,
			log.Middleware(logger),
			s.tracer.Middleware,
			log.RequestIDMiddleware(trace.RequestID),
			headers.Middleware,
			security.SameOrigin(s.onCrossOrigin),
			s.rateLimiter.Middleware(extractClientIP, s.onRateLimit),
		),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// chain wraps h so that the first middleware is the outermost.
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, extractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	w.Header().Set("Retry-After", "60")
	ErrorResponse(http.StatusTooManyRequests, "Too many requests, please try again in a minute.").
		TriggerErrorNotification("Too many requests, please try again in a minute.").
		Write(w)
}

func (s *Server) onCrossOrigin(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Cross-origin write rejected",
		log.FieldClientIP, extractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path,
		"origin", r.Header.Get("Origin"))
	ErrorResponse(http.StatusForbidden, "Cross-origin requests are not allowed.").Write(w)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.unwatch != nil {
			s.unwatch()
		}
		s.caches.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"currency": core.FormatCurrency,
		"percent": func(d decimal.Decimal) string {
			return d.Round(0).String()
		},
		"negative": func(d decimal.Decimal) bool {
			return d.IsNegative()
		},
	}
}
