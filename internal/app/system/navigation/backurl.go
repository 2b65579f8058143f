// Package navigation provides helpers for safe URL navigation and redirects.
package navigation

import (
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
)

// BackURLOptions configures the behavior of SafeBackURL.
type BackURLOptions struct {
	// AllowedPrefix is the required URL prefix (e.g. "/admin"). Empty allows
	// any safe same-site URL.
	AllowedPrefix string

	// ExcludedSubpaths are subpath patterns to reject (e.g. "/delete"),
	// preventing redirect loops back to action pages.
	ExcludedSubpaths []string

	// Fallback is the default URL if no valid return URL is found.
	Fallback string
}

// SafeBackURL extracts and validates a return URL from the request, checking
// both the "return" query parameter and form value. Absolute URLs and
// protocol-relative URLs are rejected so login cannot become an open
// redirect.
func SafeBackURL(r *http.Request, opts BackURLOptions) string {
	ret := urlutil.SafeReturn(query.Get(r, "return"), "", "")
	if ret == "" {
		ret = urlutil.SafeReturn(strings.TrimSpace(r.FormValue("return")), "", "")
	}

	if ret != "" {
		valid := true
		if opts.AllowedPrefix != "" && !strings.HasPrefix(ret, opts.AllowedPrefix) {
			valid = false
		}
		for _, excluded := range opts.ExcludedSubpaths {
			if strings.Contains(ret, excluded) {
				valid = false
				break
			}
		}
		if valid {
			return ret
		}
	}

	return opts.Fallback
}

// Common back URL configurations for reuse across packages.
var (
	// LoginBackURL validates the post-login destination.
	LoginBackURL = BackURLOptions{
		ExcludedSubpaths: []string{"/login", "/logout"},
		Fallback:         "/",
	}

	// AdminBackURL returns options for admin pages.
	AdminBackURL = BackURLOptions{
		AllowedPrefix:    "/admin",
		ExcludedSubpaths: []string{"/delete", "/new"},
		Fallback:         "/admin",
	}
)
