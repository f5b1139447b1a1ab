package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"propledger/internal/auth"
	applog "propledger/internal/log"
	"propledger/internal/middleware/ratelimit"
	"propledger/internal/middleware/security"
	"propledger/internal/middleware/trace"
	"propledger/internal/services"
)

// Services bundles the application services the handlers call.
type Services struct {
	Users        *services.UserService
	Portfolio    *services.PortfolioService
	Transactions *services.TransactionService
	Financial    *services.FinancialService
	Dashboard    *services.DashboardService
	Reports      *services.ReportService
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the server's ambient dependencies.
type Options struct {
	Logger             *applog.Logger
	Issuer             *auth.Issuer
	Store              Pinger
	RateLimitPerMinute int
	// TrustedProxies are CIDRs whose forwarding headers are believed.
	TrustedProxies []string
}

type Server struct {
	http.Server
	svc    Services
	issuer *auth.Issuer
	store  Pinger
	logger *applog.Logger

	securityDetector *security.Detector
	rateLimiter      *ratelimit.Limiter
	traceMiddleware  *trace.Middleware
	startedAt        time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, svc Services, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring invalid trusted proxy", "cidr", cidr, applog.FieldError, err.Error())
		}
	}

	s := &Server{
		svc:              svc,
		issuer:           opts.Issuer,
		store:            opts.Store,
		logger:           logger.WithComponent(applog.ComponentHTTP),
		securityDetector: detector,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
			WritesOnly:        true,
		}),
		startedAt: time.Now(),
	}
	s.traceMiddleware = trace.NewMiddleware(logger, detector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	// Outermost first: headers, logger, trace, detector, rate limit.
	var h http.Handler = mux
	h = s.rateLimiter.Middleware(detector.ExtractClientIP, s.handleRateLimited)(h)
	h = detector.Middleware(s.logSuspicious)(h)
	h = s.traceMiddleware.Middleware(h)
	h = applog.Middleware(logger)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	// Public auth endpoints.
	mux.HandleFunc("POST /api/users/register", s.handleRegister)
	mux.HandleFunc("POST /api/users/login", s.handleLogin)
	mux.HandleFunc("POST /api/users/forgot-password", s.handleForgotPassword)
	mux.HandleFunc("POST /api/users/reset-password/{token}", s.handleResetPassword)

	protected := map[string]http.HandlerFunc{
		"GET /api/users/profile":          s.handleProfile,
		"PUT /api/users/profile":          s.handleUpdateProfile,
		"POST /api/users/change-password": s.handleChangePassword,
		"GET /api/users":                  s.handleListUsers,
		"GET /api/users/{id}":             s.handleGetUser,
		"PUT /api/users/{id}":             s.handleUpdateUser,
		"DELETE /api/users/{id}":          s.handleDeleteUser,

		"GET /api/properties":              s.handleListProperties,
		"POST /api/properties":             s.handleCreateProperty,
		"GET /api/properties/{id}":         s.handleGetProperty,
		"PUT /api/properties/{id}":         s.handleUpdateProperty,
		"DELETE /api/properties/{id}":      s.handleDeleteProperty,
		"GET /api/properties/{id}/summary": s.handlePropertySummary,

		"GET /api/tenants":         s.handleListTenants,
		"POST /api/tenants":        s.handleCreateTenant,
		"GET /api/tenants/{id}":    s.handleGetTenant,
		"PUT /api/tenants/{id}":    s.handleUpdateTenant,
		"DELETE /api/tenants/{id}": s.handleDeleteTenant,

		"GET /api/leases":               s.handleListLeases,
		"POST /api/leases":              s.handleCreateLease,
		"GET /api/leases/{id}":          s.handleGetLease,
		"PUT /api/leases/{id}":          s.handleUpdateLease,
		"DELETE /api/leases/{id}":       s.handleDeleteLease,
		"GET /api/leases/property/{id}": s.handleListPropertyLeases,

		"GET /api/maintenance/requests":                 s.handleListMaintenance,
		"POST /api/maintenance/requests":                s.handleCreateMaintenance,
		"GET /api/maintenance/requests/{id}":            s.handleGetMaintenance,
		"PUT /api/maintenance/requests/{id}":            s.handleUpdateMaintenance,
		"DELETE /api/maintenance/requests/{id}":         s.handleDeleteMaintenance,
		"GET /api/maintenance/requests/property/{id}":   s.handleListPropertyMaintenance,
		"GET /api/maintenance/requests/status/{status}": s.handleListMaintenanceByStatus,

		"GET /api/financial/transactions":                     s.handleListTransactions,
		"POST /api/financial/transactions":                    s.handleCreateTransaction,
		"GET /api/financial/transactions/{id}":                s.handleGetTransaction,
		"PUT /api/financial/transactions/{id}":                s.handleUpdateTransaction,
		"DELETE /api/financial/transactions/{id}":             s.handleDeleteTransaction,
		"GET /api/financial/transactions/property/{id}":       s.handleListPropertyTransactions,
		"GET /api/financial/transactions/category/{category}": s.handleListCategoryTransactions,
		"GET /api/financial/summary":                          s.handleSummary,
		"POST /api/financial/summarize":                       s.handleSummarize,
		"GET /api/financial/chart":                            s.handleChart,

		"GET /api/financial/mortgages":         s.handleListMortgages,
		"POST /api/financial/mortgages":        s.handleCreateMortgage,
		"GET /api/financial/mortgages/{id}":    s.handleGetMortgage,
		"PUT /api/financial/mortgages/{id}":    s.handleUpdateMortgage,
		"DELETE /api/financial/mortgages/{id}": s.handleDeleteMortgage,

		"GET /api/dashboard": s.handleDashboard,

		"GET /api/reports":                    s.handleListReports,
		"GET /api/reports/{id}":               s.handleGetReport,
		"POST /api/reports/monthly-cash-flow": s.handleGenerateMonthlyCashFlow,
	}
	requireAuth := s.issuer.Middleware(s.handleUnauthorized)
	for pattern, h := range protected {
		mux.Handle(pattern, requireAuth(h))
	}

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	})
}

func (s *Server) handleUnauthorized(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusUnauthorized, "Not authorized")
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path,
		applog.FieldComponent, applog.ComponentRateLimit)
	writeMessage(w, http.StatusTooManyRequests, "Too many requests, please try again later")
}

func (s *Server) logSuspicious(r *http.Request, clientIP, reason string) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request blocked",
		applog.FieldClientIP, clientIP,
		"reason", reason,
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path,
		applog.FieldUserAgent, r.Header.Get("User-Agent"),
		applog.FieldComponent, applog.ComponentSecurity)
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
