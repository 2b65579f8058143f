// internal/app/features/adminshop/views/views.go
package adminshop

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "adminshop",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
