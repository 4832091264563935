package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/kidandcat/todo/internal/db"
	"github.com/kidandcat/todo/internal/flash"
	"github.com/kidandcat/todo/internal/forms"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed content/home.md
var homeMarkdown string

func (s *Server) parseTemplates() *template.Template {
	funcMap := template.FuncMap{
		"markdown": func(content string) template.HTML {
			var buf strings.Builder
			if err := goldmark.Convert([]byte(content), &buf); err != nil {
				return template.HTML("<p>Error rendering markdown</p>")
			}
			return template.HTML(buf.String())
		},
		"dict": func(values ...any) map[string]any {
			d := make(map[string]any)
			for i := 0; i < len(values)-1; i += 2 {
				d[fmt.Sprintf("%v", values[i])] = values[i+1]
			}
			return d
		},
		"pathEscape": url.PathEscape,
		"overdue": func(d db.Date) bool {
			return d.Before(s.today().Time)
		},
		"dueLabel": s.dueLabel,
	}
	return template.Must(template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html"))
}

func (s *Server) today() db.Date {
	now := s.now()
	return db.NewDate(now.Year(), now.Month(), now.Day())
}

func (s *Server) dueLabel(d db.Date) string {
	today := s.today()
	switch {
	case d.Equal(today):
		return "due today"
	case d.Before(today.Time):
		return "due " + humanize.RelTime(d.Time, today.Time, "ago", "from now")
	}
	return "due in " + strings.TrimSpace(humanize.RelTime(today.Time, d.Time, "", ""))
}

// render pops pending flash messages, appends extra ones and executes the
// named template into a buffer so a failing template never sends half a page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data map[string]any, extra ...flash.Message) {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = forms.Errors{}
	}
	data["Flashes"] = append(s.flash.Pop(w, r), extra...)

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.log.Error("render template", zap.String("template", name), zap.Error(err), zap.String("request_id", requestID(r)))
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
