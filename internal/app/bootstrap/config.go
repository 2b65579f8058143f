// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for KOASA.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: KOASA_MONGO_URI, KOASA_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "koasa", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "koasa_session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// WhatsApp hand-off
	{Name: "admin_phone", Default: "+22669628477", Desc: "WhatsApp number (E.164) that receives orders"},

	// Base URL for email links (activation links)
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for email links"},

	// Service worker cache version; bump to invalidate installed clients
	{Name: "cache_version", Default: "v1.0.0", Desc: "Static cache version for the service worker"},

	// Cart behavior
	{Name: "quantity_step", Default: "0.5", Desc: "Cart quantity increment in kilograms"},

	// SuperAdmin bootstrap
	{Name: "superadmin_email", Default: "", Desc: "Email of the admin account ensured on startup"},
	{Name: "superadmin_phone", Default: "", Desc: "WhatsApp number of the admin account"},
	{Name: "superadmin_password", Default: "", Desc: "Initial admin password (only used when the account is created)"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank disables outgoing mail)"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@koasa.bf", Desc: "From email address"},
	{Name: "mail_from_name", Default: "KOASA", Desc: "From display name"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Background cleanup of expired verification codes
	{Name: "cleanup_interval", Default: "1h", Desc: "Interval between expired-code cleanup sweeps (e.g., 30m, 1h)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, KOASA_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "KOASA", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	// quantity_step is declared as a string so fractional steps survive
	// every config source; parsed here, validated in ValidateConfig.
	step, err := strconv.ParseFloat(appValues.String("quantity_step"), 64)
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("invalid quantity_step: %w", err)
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),

		AdminPhone: appValues.String("admin_phone"),

		BaseURL:      appValues.String("base_url"),
		CacheVersion: appValues.String("cache_version"),
		QuantityStep: step,

		// SuperAdmin
		SuperAdminEmail:    appValues.String("superadmin_email"),
		SuperAdminPhone:    appValues.String("superadmin_phone"),
		SuperAdminPassword: appValues.String("superadmin_password"),

		// Email/SMTP
		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		// Audit logging
		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		CleanupInterval: appValues.Duration("cleanup_interval", time.Hour),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
//
// KOASA validates the MongoDB URI format, the WhatsApp hand-off number,
// and the cart step, to catch configuration errors before anything
// connects or serves.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.AdminPhone == "" {
		return fmt.Errorf("admin_phone must be set: orders have nowhere to go without it")
	}

	if appCfg.QuantityStep <= 0 {
		return fmt.Errorf("quantity_step must be positive, got %v", appCfg.QuantityStep)
	}

	return nil
}
