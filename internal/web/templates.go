package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.html
var templateFS embed.FS

// markdown renders catalog prose. Raw HTML in the source is dropped
// because goldmark is not configured with html.WithUnsafe.
func markdown(md goldmark.Markdown) func(string) template.HTML {
	return func(src string) template.HTML {
		var buf bytes.Buffer
		if err := md.Convert([]byte(src), &buf); err != nil {
			return template.HTML(template.HTMLEscapeString(src))
		}
		return template.HTML(buf.String())
	}
}

func parseTemplates() (*template.Template, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Typographer))
	funcs := template.FuncMap{
		"markdown":   markdown(md),
		"join":       strings.Join,
		"pathEscape": url.PathEscape,
	}
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}
