package httpserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/petroslamb/movierama/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutTemplate = "base.html"

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format("Jan 2, 2006")
	},
}

// view is the data handed to every page template.
type view struct {
	Title string
	User  *domain.User
	Data  interface{}
}

// loadTemplates parses every page together with the shared layout.
func loadTemplates() (map[string]*template.Template, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")
		if name+".html" == layoutTemplate {
			continue
		}
		tmpl, err := template.New(layoutTemplate).Funcs(templateFuncs).ParseFS(templateFS, "templates/"+layoutTemplate, file)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// render writes the named page. Output is buffered so a template failure
// becomes a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data interface{}) {
	tmpl, ok := s.templates[name]
	if !ok {
		s.logger.Printf("render error: unknown template %q", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	v := view{Title: title, User: currentUser(r), Data: data}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutTemplate, v); err != nil {
		s.logger.Printf("render %s error: %v", name, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Printf("write response error: %v", err)
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.render(w, r, status, "error", http.StatusText(status), struct {
		Status  int
		Message string
	}{status, message})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound, "The requested page was not found.")
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.Printf("%s error: %v", op, err)
	s.renderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again later.")
}
