// internal/app/features/login/views/views.go
package views

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var files embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "login",
		FS:       files,
		Patterns: []string{"templates/*.gohtml"},
	})
}
