package html

import (
	"embed"
	"html/template"
	"io/fs"

	"github.com/a-h/templ"

	"proposal/frontend/shared/nav"
)

//go:embed layout.html
var layoutFS embed.FS

// Funcs are available to every page template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"rupees":     FormatRupees,
		"percent":    FormatPercent,
		"csrfScript": CSRFFormScript,
		"add":        func(a, b int) int { return a + b },
	}
}

var layout = template.Must(template.New("layout.html").Funcs(Funcs()).ParseFS(layoutFS, "layout.html"))

// PageData is embedded by every page view model.
type PageData struct {
	Title string
	Nav   nav.TopNavData
}

func NewPageData(title, activePath string) PageData {
	return PageData{Title: title, Nav: nav.BuildTopNavData(activePath)}
}

// MustPage clones the shared layout and adds the page's "content" block.
func MustPage(fsys fs.FS, patterns ...string) *template.Template {
	t := template.Must(layout.Clone())
	return template.Must(t.ParseFS(fsys, patterns...))
}

// Page adapts a parsed page template to a templ component.
func Page(t *template.Template, data any) templ.Component {
	return templ.FromGoHTML(t, data)
}
