package panel

import (
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates
var templateFS embed.FS

// LoadTemplates parses the embedded panel templates.
func LoadTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		// Undefined sub-scores render as n/a rather than 0.
		"formatScore": func(v *float64) string {
			if v == nil {
				return "n/a"
			}
			return fmt.Sprintf("%.2f", *v)
		},
	}
	return template.New("panel").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}
