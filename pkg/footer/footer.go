// Package footer renders the shared footer of the booking frontend pages.
package footer

import (
	"bytes"
	"html/template"
)

// Link describes a footer navigation entry.
type Link struct {
	Label string
	URL   string
}

// Config captures the markup hooks required to render the footer.
type Config struct {
	ElementID  string
	BaseClass  string
	BrandText  string
	BackendURL string
	Links      []Link
}

var footerTemplate = template.Must(template.New("footer").Parse(`<footer id="{{.ElementID}}" class="{{.BaseClass}}">
  <span class="footer-brand">{{.BrandText}}</span>
  {{if .BackendURL}}<span class="footer-backend">Backend: <code>{{.BackendURL}}</code></span>{{end}}
  <nav class="footer-links">
    {{range .Links}}<a href="{{.URL}}" rel="noopener noreferrer">{{.Label}}</a>
    {{end}}
  </nav>
</footer>`))

// Render returns the footer HTML for the provided configuration.
func Render(config Config) (template.HTML, error) {
	var buffer bytes.Buffer
	if err := footerTemplate.Execute(&buffer, config); err != nil {
		return "", err
	}
	return template.HTML(buffer.String()), nil
}
