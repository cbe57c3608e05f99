package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"
)

//go:embed templates/*
var templateFiles embed.FS

// layoutTemplate holds the shared head, nav and footer blocks.
const layoutTemplate = "layout.html"

var templateFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("2 Jan 2006 15:04")
	},
}

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page together with the shared layout blocks
func ParseTemplate(name string) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(TemplateFilesFS(), layoutTemplate, name)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	return tmpl, nil
}

type pages struct {
	loading    *template.Template
	login      *template.Template
	register   *template.Template
	dashboard  *template.Template
	adminUsers *template.Template
}

func (s *Server) parsePages() (pages, error) {
	var p pages
	for name, dst := range map[string]**template.Template{
		"loading.html":     &p.loading,
		"login.html":       &p.login,
		"register.html":    &p.register,
		"dashboard.html":   &p.dashboard,
		"admin_users.html": &p.adminUsers,
	} {
		tmpl, err := ParseTemplate(name)
		if err != nil {
			return pages{}, err
		}
		*dst = tmpl
	}
	return p, nil
}

// renderPage executes tmpl into a buffer first so a template failure
// still produces a clean 500.
func (s *Server) renderPage(w http.ResponseWriter, tmpl *template.Template, data map[string]any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		s.log.Err(err).Str("template", tmpl.Name()).Msg("Failed to render template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	_, _ = buf.WriteTo(w)
}
