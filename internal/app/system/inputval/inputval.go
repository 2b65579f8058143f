// internal/app/system/inputval/inputval.go

// Package inputval validates user-supplied values from forms and the JSON API.
package inputval

import (
	"math"
	"net/mail"
	"regexp"
	"strings"
)

// phoneRe matches an international phone number with optional leading +.
// Separators must be stripped first (see normalize.Phone).
var phoneRe = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

// IsValidEmail reports whether s is a valid bare email address.
// Display-name forms like "Name <a@b>" are rejected; the stored value must
// be exactly the address.
func IsValidEmail(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s
}

// IsValidPhone reports whether s is a usable WhatsApp phone number:
// an optional + followed by 8 to 15 digits.
func IsValidPhone(s string) bool {
	return phoneRe.MatchString(s)
}

// IsValidQuantity reports whether q is a positive multiple of step.
// A non-positive step disables the multiple check.
func IsValidQuantity(q, step float64) bool {
	if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
		return false
	}
	if step <= 0 {
		return true
	}
	ratio := q / step
	return math.Abs(ratio-math.Round(ratio)) < 1e-9
}

// IsValidPrice reports whether p can be stored as a unit price.
func IsValidPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p >= 0
}
