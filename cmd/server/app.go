package main

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/HalooLaloo/quotesnap-sub000/internal/auth"
	"github.com/HalooLaloo/quotesnap-sub000/internal/config"
	"github.com/HalooLaloo/quotesnap-sub000/internal/handlers"
	"github.com/HalooLaloo/quotesnap-sub000/internal/mailer"
	"github.com/HalooLaloo/quotesnap-sub000/internal/ratelimit"
	"github.com/HalooLaloo/quotesnap-sub000/internal/services"
	"github.com/HalooLaloo/quotesnap-sub000/internal/suggest"
)

// App is the main application handler that wires services, handlers and
// routes.
type App struct {
	mux         *http.ServeMux
	db          *gorm.DB
	cfg         *config.Config
	maintenance *services.MaintenanceService
}

// NewApp creates the application with all routes configured.
func NewApp(db *gorm.DB, cfg *config.Config) *App {
	app := &App{
		mux: http.NewServeMux(),
		db:  db,
		cfg: cfg,
	}

	var m mailer.Mailer = mailer.Disabled{}
	if cfg.Email.APIKey != "" {
		m = mailer.NewResend(cfg.Email.APIKey, cfg.Email.From, time.Duration(cfg.Email.Timeout)*time.Second)
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	suggestLimiter := ratelimit.New(rdb, "rl:suggest", 10, time.Minute)
	intakeLimiter := ratelimit.New(rdb, "rl:intake", 10, time.Hour)

	var sg suggest.Suggester = suggest.Unavailable{}
	if cfg.AI.APIKey != "" {
		sg = suggest.NewOpenAISuggester(cfg.AI.APIKey, cfg.AI.Model)
	}

	quoteSvc := services.NewQuoteService(db, m, cfg.App.BaseURL)
	invoiceSvc := services.NewInvoiceService(db, m, cfg.App.BaseURL)
	assistSvc := services.NewAssistantService(db, sg, suggestLimiter)
	app.maintenance = services.NewMaintenanceService(db, m, cfg.App.BaseURL)

	authH := handlers.NewAuthHandler(db)
	requestH := handlers.NewRequestHandler(db, intakeLimiter, m, cfg.App.BaseURL)
	quoteH := handlers.NewQuoteHandler(db, quoteSvc, assistSvc)
	invoiceH := handlers.NewInvoiceHandler(db, invoiceSvc)
	serviceH := handlers.NewServiceHandler(db)
	publicH := handlers.NewPublicHandler(db, quoteSvc, invoiceSvc)
	cronH := handlers.NewCronHandler(app.maintenance, cfg.App.CronSecret)

	app.setupRoutes(authH, requestH, quoteH, invoiceH, serviceH, publicH, cronH)
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	auth.Middleware(a.mux).ServeHTTP(w, r)
}

func (a *App) setupRoutes(
	authH *handlers.AuthHandler,
	requestH *handlers.RequestHandler,
	quoteH *handlers.QuoteHandler,
	invoiceH *handlers.InvoiceHandler,
	serviceH *handlers.ServiceHandler,
	publicH *handlers.PublicHandler,
	cronH *handlers.CronHandler,
) {
	// ─────────────────────────────────────────────────────────────────────────
	// Public routes (no auth required)
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.HandleFunc("POST /api/auth/signup", authH.Signup)
	a.mux.HandleFunc("POST /api/auth/login", authH.Login)
	a.mux.HandleFunc("POST /api/auth/logout", authH.Logout)

	// Client intake: anyone with a contractor's intake link may submit.
	a.mux.HandleFunc("POST /api/public/requests/{contractorID}", requestH.Intake)

	// Token-gated client surface: the token is the credential.
	a.mux.HandleFunc("GET /api/public/quotes/{token}", publicH.QuoteView)
	a.mux.HandleFunc("POST /api/public/quotes/{token}/decision", publicH.QuoteDecision)
	a.mux.HandleFunc("GET /api/public/quotes/{token}/pdf", publicH.QuotePDF)
	a.mux.HandleFunc("GET /api/public/invoices/{token}", publicH.InvoiceView)
	a.mux.HandleFunc("POST /api/public/invoices/{token}/pay", publicH.InvoicePay)
	a.mux.HandleFunc("GET /api/public/invoices/{token}/pdf", publicH.InvoicePDF)

	// Scheduled maintenance, bearer-gated when CRON_SECRET is set.
	a.mux.HandleFunc("GET /api/cron/maintenance", cronH.Maintenance)

	// ─────────────────────────────────────────────────────────────────────────
	// Authenticated contractor routes
	// ─────────────────────────────────────────────────────────────────────────
	authed := func(h http.HandlerFunc) http.Handler {
		return auth.RequireAuth(h)
	}

	a.mux.Handle("GET /api/me", authed(authH.Me))
	a.mux.Handle("PUT /api/me", authed(authH.UpdateProfile))

	a.mux.Handle("GET /api/requests", authed(requestH.List))
	a.mux.Handle("GET /api/requests/{id}", authed(requestH.View))

	a.mux.Handle("GET /api/quotes", authed(quoteH.List))
	a.mux.Handle("POST /api/quotes", authed(quoteH.Create))
	a.mux.Handle("GET /api/quotes/{id}", authed(quoteH.View))
	a.mux.Handle("PUT /api/quotes/{id}", authed(quoteH.Update))
	a.mux.Handle("DELETE /api/quotes/{id}", authed(quoteH.Delete))
	a.mux.Handle("POST /api/quotes/{id}/send", authed(quoteH.Send))
	a.mux.Handle("POST /api/quotes/{id}/invoice", authed(invoiceH.CreateFromQuote))
	a.mux.Handle("POST /api/suggest-items", authed(quoteH.SuggestItems))

	a.mux.Handle("GET /api/invoices", authed(invoiceH.List))
	a.mux.Handle("POST /api/invoices", authed(invoiceH.Create))
	a.mux.Handle("GET /api/invoices/{id}", authed(invoiceH.View))
	a.mux.Handle("PUT /api/invoices/{id}", authed(invoiceH.Update))
	a.mux.Handle("DELETE /api/invoices/{id}", authed(invoiceH.Delete))
	a.mux.Handle("POST /api/invoices/{id}/send", authed(invoiceH.Send))
	a.mux.Handle("POST /api/invoices/{id}/paid", authed(invoiceH.MarkPaid))

	a.mux.Handle("GET /api/services", authed(serviceH.List))
	a.mux.Handle("POST /api/services", authed(serviceH.Create))
	a.mux.Handle("PUT /api/services/{id}", authed(serviceH.Update))
	a.mux.Handle("DELETE /api/services/{id}", authed(serviceH.Delete))
}
