// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds the application-specific configuration for KOASA.
//
// Values are loaded by LoadConfig from config files, KOASA_* environment
// variables, and command-line flags, with WAFFLE's usual precedence.
type AppConfig struct {
	// MongoDB connection
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session cookies
	SessionKey    string
	SessionName   string
	SessionDomain string

	// AdminPhone is the WhatsApp number, in E.164 form, that receives
	// order hand-offs and verification messages.
	AdminPhone string

	// BaseURL is used to build absolute links in email (activation links).
	BaseURL string

	// CacheVersion names the service worker's static cache. Bumping it
	// invalidates every installed client's precached assets.
	CacheVersion string

	// QuantityStep is the cart increment in kilograms.
	QuantityStep float64

	// SuperAdmin bootstrap account, created or repaired on startup.
	SuperAdminEmail    string
	SuperAdminPhone    string
	SuperAdminPassword string

	// Email/SMTP
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// Audit logging destinations: "all", "db", "log", or "off".
	AuditLogAuth  string
	AuditLogAdmin string

	// CleanupInterval is how often expired verification codes are purged.
	CleanupInterval time.Duration
}
