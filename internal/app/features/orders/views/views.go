// internal/app/features/orders/views/views.go
package orders

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "orders",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
