// internal/app/system/viewdata/viewdata.go

// Package viewdata builds the shared view model every page template embeds.
package viewdata

import (
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"

	"github.com/bsankara/koasa/internal/app/system/auth"
	"github.com/bsankara/koasa/internal/app/system/authz"
)

// SiteName is the brand shown in the navbar, titles and emails.
const SiteName = "KOASA"

// BaseVM contains common fields for all view models. Embed it in
// feature-specific view models:
//
//	type cartPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
type BaseVM struct {
	SiteName string

	// User context (from auth middleware)
	IsLoggedIn       bool
	IsAdmin          bool
	Role             string
	UserName         string
	WhatsAppVerified bool

	// Cart badge counters shown in the navbar
	CartCount int
	CartUnits float64

	// Page context
	Title       string
	BackURL     string
	CurrentPath string
	Year        int

	// CSRF token for form submission
	CSRFToken string
}

// NewBaseVM creates a populated BaseVM. Pass a nil SessionManager for pages
// that do not show the cart badge.
func NewBaseVM(r *http.Request, sm *auth.SessionManager, title, backDefault string) BaseVM {
	role, name, _, signedIn := authz.UserCtx(r)

	vm := BaseVM{
		SiteName:    SiteName,
		IsLoggedIn:  signedIn,
		IsAdmin:     signedIn && role == "admin",
		Role:        role,
		UserName:    name,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		Year:        time.Now().Year(),
		CSRFToken:   csrf.Token(r),
	}

	vm.WhatsAppVerified = authz.IsWhatsAppVerified(r)

	if sm != nil {
		c := sm.Cart(r)
		vm.CartCount = c.Len()
		vm.CartUnits = c.UnitCount()
	}

	return vm
}
