// internal/app/system/limits/limits.go
package limits

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBodySize is the maximum size for cart and order API bodies.
	MaxJSONBodySize = 64 << 10 // 64 KB

	// MaxFormSize is the maximum size for account and admin form submissions.
	MaxFormSize = 1 << 20 // 1 MB

	// MaxCSVUploadSize is the maximum size for product CSV imports.
	MaxCSVUploadSize = 5 << 20 // 5 MB
)
