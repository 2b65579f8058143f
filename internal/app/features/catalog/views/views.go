// internal/app/features/catalog/views/views.go
package catalog

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "catalog",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
