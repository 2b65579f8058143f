// internal/app/features/profile/views/views.go
package views

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var files embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "profile",
		FS:       files,
		Patterns: []string{"templates/*.gohtml"},
	})
}
