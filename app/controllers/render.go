// Package controllers implements the HTML handlers.
package controllers

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"blogpress/app/auth"
	"blogpress/app/logging"
	"blogpress/app/models"
)

var pages = []string{"index", "post", "author", "make-post", "register", "login", "about", "contact", "error"}

// PageData is passed to every template.
type PageData struct {
	Title      string
	Identity   models.Identity
	Flashes    []string
	Form       map[string]string
	Errors     map[string]string
	FormError  string
	FormAction string
	IsEdit     bool
	Posts      []*models.Post
	Post       *models.Post
	Author     *models.User
	Comments   []*models.Comment
	Avatars    map[int64]string
	Status     int
	Message    string
	Year       int
}

var funcs = template.FuncMap{
	"safeHTML": func(s string) template.HTML { return template.HTML(s) },
}

// loadTemplates parses layout.html together with each page.
func loadTemplates(fsys fs.FS) (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(fsys, "layout.html", page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		templates[page] = tmpl
	}
	return templates, nil
}

// Renderer executes page templates and carries flash messages between requests.
type Renderer struct {
	templates map[string]*template.Template
	flashes   *Flashes
	now       func() time.Time
}

func NewRenderer(fsys fs.FS, flashes *Flashes) (*Renderer, error) {
	templates, err := loadTemplates(fsys)
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: templates, flashes: flashes, now: time.Now}, nil
}

// render fills in the per-request fields and writes the page. Nothing is
// written until the template has executed.
func (rd *Renderer) render(w http.ResponseWriter, r *http.Request, status int, page string, data *PageData) {
	tmpl, ok := rd.templates[page]
	if !ok {
		rd.serverError(w, r, fmt.Errorf("template %q not loaded", page))
		return
	}

	if data == nil {
		data = &PageData{}
	}
	data.Identity = auth.IdentityFrom(r.Context())
	data.Flashes = append(rd.flashes.Pop(w, r), data.Flashes...)
	data.Year = rd.now().Year()

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("template", page).Msg("render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (rd *Renderer) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	rd.render(w, r, status, "error", &PageData{
		Title:   http.StatusText(status),
		Status:  status,
		Message: message,
	})
}

func (rd *Renderer) redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}
