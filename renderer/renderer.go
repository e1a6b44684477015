// Package renderer turns a FIFO analysis into markdown reports.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/etnz/fifo"
)

// templates holds the assembly templates and their partials. A partial is
// named after its assembly followed by "_".
//
//go:embed *.md
var templates embed.FS

// SummaryMarkdown renders the analysis summary of r.
func SummaryMarkdown(r *fifo.AnalysisResult) string {
	return RenderSummary(NewSummary(r))
}

// RenderSummary renders the Summary struct to a markdown string.
func RenderSummary(s *Summary) string {
	partials := map[string]string{
		"summary_title":    "summary_title.md",
		"summary_overview": "summary_overview.md",
		"summary_position": "summary_position.md",
		"summary_realized": "summary_realized.md",
		"summary_total":    "summary_total.md",
	}
	return renderTemplate("summary", "summary.md", partials, s)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
