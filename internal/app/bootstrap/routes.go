// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"

	adminshopfeature "github.com/bsankara/koasa/internal/app/features/adminshop"
	assetsfeature "github.com/bsankara/koasa/internal/app/features/assets"
	cartfeature "github.com/bsankara/koasa/internal/app/features/cart"
	catalogfeature "github.com/bsankara/koasa/internal/app/features/catalog"
	errorsfeature "github.com/bsankara/koasa/internal/app/features/errors"
	healthfeature "github.com/bsankara/koasa/internal/app/features/health"
	loginfeature "github.com/bsankara/koasa/internal/app/features/login"
	logoutfeature "github.com/bsankara/koasa/internal/app/features/logout"
	ordersfeature "github.com/bsankara/koasa/internal/app/features/orders"
	profilefeature "github.com/bsankara/koasa/internal/app/features/profile"
	pwafeature "github.com/bsankara/koasa/internal/app/features/pwa"
	registerfeature "github.com/bsankara/koasa/internal/app/features/register"
	auditstore "github.com/bsankara/koasa/internal/app/store/audit"
	"github.com/bsankara/koasa/internal/app/system/auditlog"
	"github.com/bsankara/koasa/internal/app/system/auth"
	"github.com/bsankara/koasa/internal/app/system/mailer"
	"github.com/bsankara/koasa/internal/app/system/ratelimit"

	// Feature view sets register themselves with the template engine.
	_ "github.com/bsankara/koasa/internal/app/features/adminshop/views"
	_ "github.com/bsankara/koasa/internal/app/features/cart/views"
	_ "github.com/bsankara/koasa/internal/app/features/catalog/views"
	_ "github.com/bsankara/koasa/internal/app/features/login/views"
	_ "github.com/bsankara/koasa/internal/app/features/orders/views"
	_ "github.com/bsankara/koasa/internal/app/features/profile/views"
	_ "github.com/bsankara/koasa/internal/app/features/register/views"
	_ "github.com/bsankara/koasa/internal/app/features/shared/views"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// The router splits in three:
//   - HTML pages, behind the session middleware and CSRF protection
//   - /api/* JSON endpoints, consumed by the storefront JavaScript
//   - infrastructure routes: /health, /static, /cdn, and the PWA files
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)

	// Audit trail for auth and back-office events.
	audit := auditlog.New(auditstore.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)

	loginLimiter := ratelimit.NewLoginLimiter()
	signupLimiter := ratelimit.New(10, time.Minute)

	// Feature handlers.
	catalogHandler := catalogfeature.NewHandler(deps.MongoDatabase, sessionMgr, errLog, logger)
	cartHandler := cartfeature.NewHandler(deps.MongoDatabase, sessionMgr, errLog, logger, appCfg.QuantityStep)
	ordersHandler := ordersfeature.NewHandler(deps.MongoDatabase, sessionMgr, errLog, audit, logger, appCfg.AdminPhone)
	registerHandler := registerfeature.NewHandler(deps.MongoDatabase, sessionMgr, errLog, mail, audit, signupLimiter, logger, appCfg.AdminPhone)
	loginHandler := loginfeature.NewHandler(deps.MongoDatabase, sessionMgr, errLog, audit, loginLimiter, logger)
	logoutHandler := logoutfeature.NewHandler(sessionMgr, audit, logger)
	profileHandler := profilefeature.NewHandler(deps.MongoDatabase, sessionMgr, errLog, audit, logger, appCfg.AdminPhone)
	adminHandler := adminshopfeature.NewHandler(deps.MongoDatabase, sessionMgr, errLog, audit, logger)
	assetsHandler := assetsfeature.NewHandler(deps.AssetPolicy, logger)
	errorsHandler := errorsfeature.NewHandler()

	pwaHandler, err := pwafeature.NewHandler(appCfg.CacheVersion, logger)
	if err != nil {
		logger.Error("service worker build failed", zap.Error(err))
		return nil, err
	}

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Same-origin proxy for the pinned CDN libraries the service worker
	// precaches.
	r.Mount("/cdn", assetsfeature.Routes(assetsHandler))

	// manifest.json and sw.js must live at the root so the worker scope
	// covers the whole site.
	pwafeature.Register(r, pwaHandler)

	// JSON API used by the storefront JavaScript. Mounted outside the
	// CSRF-protected group: same-site session cookies cover these
	// endpoints and the fetch calls carry no CSRF token.
	r.Route("/api", func(r chi.Router) {
		r.Mount("/cart", cartfeature.APIRoutes(cartHandler))
		r.Mount("/products", catalogfeature.APIRoutes(catalogHandler))

		r.Group(func(r chi.Router) {
			r.Use(sessionMgr.RequireSignedIn)
			r.Post("/send-order-whatsapp", ordersHandler.SubmitOrder)
		})

		r.Group(func(r chi.Router) {
			r.Use(sessionMgr.RequireSignedIn)
			r.Use(sessionMgr.RequireRole("admin"))
			r.Mount("/admin", adminshopfeature.APIRoutes(adminHandler))
		})
	})

	// HTML pages.
	csrfProtect := csrf.Protect([]byte(appCfg.SessionKey),
		csrf.Secure(secure),
		csrf.Path("/"),
	)
	r.Group(func(r chi.Router) {
		r.Use(csrfProtect)

		// Storefront
		r.Mount("/", catalogfeature.Routes(catalogHandler))
		r.Mount("/cart", cartfeature.Routes(cartHandler))

		// Accounts
		r.Mount("/register", registerfeature.Routes(registerHandler))
		r.Get("/activate", registerHandler.HandleActivate)
		r.Mount("/login", loginfeature.Routes(loginHandler))
		r.Mount("/logout", logoutfeature.Routes(logoutHandler))

		// Error pages
		r.Get("/forbidden", errorsHandler.Forbidden)
		r.Get("/unauthorized", errorsHandler.Unauthorized)

		r.Group(func(r chi.Router) {
			r.Use(sessionMgr.RequireSignedIn)
			r.Mount("/profile", profilefeature.Routes(profileHandler))
			r.Mount("/orders", ordersfeature.Routes(ordersHandler))
		})

		r.Group(func(r chi.Router) {
			r.Use(sessionMgr.RequireSignedIn)
			r.Use(sessionMgr.RequireRole("admin"))
			r.Mount("/admin", adminshopfeature.Routes(adminHandler))
		})
	})

	return r, nil
}
