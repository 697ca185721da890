package ui

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/message"

	portal "github.com/pondok-digital/portal"
	"github.com/pondok-digital/portal/internal/apiclient"
	"github.com/pondok-digital/portal/internal/auth"
	"github.com/pondok-digital/portal/internal/helpers"
	"github.com/pondok-digital/portal/internal/logger"
	"github.com/pondok-digital/portal/internal/response"
	"github.com/pondok-digital/portal/internal/version"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFS embed.FS

const (
	homeArticleCount = 3
	articlesPageSize = 6
)

var pageNames = []string{"home", "articles", "article", "login", "dashboard", "error"}

var months = map[string][12]string{
	"id": {"Januari", "Februari", "Maret", "April", "Mei", "Juni", "Juli", "Agustus", "September", "Oktober", "November", "Desember"},
	"en": {"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
}

type pages struct {
	templates map[string]*template.Template
}

func newPages() (*pages, error) {
	p := &pages{templates: make(map[string]*template.Template, len(pageNames))}

	for _, name := range pageNames {
		// date is rebound per render for the request locale
		funcs := template.FuncMap{
			"date":     func(t time.Time) string { return t.Format("2006-01-02") },
			"inc":      func(i int) int { return i + 1 },
			"dec":      func(i int) int { return i - 1 },
			"safeHTML": func(s string) template.HTML { return template.HTML(s) }, // article content is written by admins
		}
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFiles,
			"templates/layout.html",
			"templates/cards.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("could not parse the %s template: %w", name, err)
		}
		p.templates[name] = tmpl
	}
	return p, nil
}

type localeLink struct {
	Code    string
	Href    string
	Current bool
}

// pageData is the value every template renders
type pageData struct {
	Locale  string
	Title   string
	Locales []localeLink
	User    *auth.Claims
	Data    any

	printer *message.Printer
}

// T translates a message key for the page locale
func (d pageData) T(key string) string {
	return d.printer.Sprintf(key)
}

func (s *Server) newPageData(r *http.Request, locale, titleKey string) pageData {
	_, rest, _ := splitLocale(r.URL.Path)

	links := make([]localeLink, 0, len(portal.Locales))
	for _, l := range portal.Locales {
		links = append(links, localeLink{Code: l, Href: "/" + l + rest, Current: l == locale})
	}

	d := pageData{
		Locale:  locale,
		Locales: links,
		printer: printerFor(locale),
	}
	d.Title = d.T(titleKey)
	if claims, ok := sessionClaims(r); ok {
		d.User = claims
	}
	return d
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	tmpl := s.pages.templates[name]
	tmpl = template.Must(tmpl.Clone()).Funcs(template.FuncMap{
		"date": func(t time.Time) string { return formatDate(t, data.Locale) },
	})

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.ContextRequestLogger(r.Context()).Error("Failed to render page",
			slog.String("component", "ui.render"),
			slog.String("page", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderError shows the backend failure to the user and logs the technical detail
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, locale string, err error) {
	status := http.StatusInternalServerError
	msg := apiclient.UserMessage(err)

	var connErr *apiclient.ConnectionError
	if errors.As(err, &connErr) {
		status = http.StatusBadGateway
		msg = printerFor(locale).Sprintf("error.backend_down")
	}

	logger.ContextRequestLogger(r.Context()).Error("Backend call failed",
		slog.String("component", "ui.pages"),
		slog.String("error", err.Error()),
	)

	data := s.newPageData(r, locale, "error.title")
	data.Data = msg
	s.render(w, r, status, "error", data)
}

func formatDate(t time.Time, locale string) string {
	names, ok := months[locale]
	if !ok {
		names = months[portal.DefaultLocale]
	}
	return fmt.Sprintf("%d %s %d", t.Day(), names[t.Month()-1], t.Year())
}

func staticFiles() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}

func (s *Server) pageLocale(w http.ResponseWriter, r *http.Request) (string, bool) {
	locale, ok := localeFrom(r.Context())
	if !ok || locale != chi.URLParam(r, "locale") {
		s.handleNotFound(w, r)
		return "", false
	}
	return locale, true
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	locale, ok := s.pageLocale(w, r)
	if !ok {
		return
	}

	latest, err := s.services.Articles.Page(r.Context(), 1, homeArticleCount)
	if err != nil {
		s.renderError(w, r, locale, err)
		return
	}

	data := s.newPageData(r, locale, "home.title")
	data.Data = latest
	s.render(w, r, http.StatusOK, "home", data)
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	locale, ok := s.pageLocale(w, r)
	if !ok {
		return
	}

	page := helpers.IntQuery(r, "page", 1)
	result, err := s.services.Articles.Page(r.Context(), page, articlesPageSize)
	if err != nil {
		s.renderError(w, r, locale, err)
		return
	}

	data := s.newPageData(r, locale, "articles.title")
	data.Data = result
	s.render(w, r, http.StatusOK, "articles", data)
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	locale, ok := s.pageLocale(w, r)
	if !ok {
		return
	}

	article, err := s.services.Articles.BySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.renderError(w, r, locale, err)
		return
	}
	if article == nil {
		s.handleNotFound(w, r)
		return
	}

	data := s.newPageData(r, locale, "articles.title")
	data.Title = article.Title
	data.Data = article
	s.render(w, r, http.StatusOK, "article", data)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	locale, ok := s.pageLocale(w, r)
	if !ok {
		return
	}
	if _, signedIn := sessionClaims(r); signedIn {
		http.Redirect(w, r, "/"+locale+"/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login", s.newPageData(r, locale, "login.title"))
}

// handleDashboard serves the admin shell. The admin screens call the api from the browser.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	locale, ok := s.pageLocale(w, r)
	if !ok {
		return
	}
	data := s.newPageData(r, locale, "nav.dashboard")
	if data.User == nil {
		http.Redirect(w, r, "/"+locale+portal.LoginPath, http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "dashboard", data)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	locale, ok := localeFrom(r.Context())
	if !ok {
		http.NotFound(w, r)
		return
	}
	data := s.newPageData(r, locale, "error.title")
	data.Data = data.T("error.not_found")
	s.render(w, r, http.StatusNotFound, "error", data)
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	response.RespondWithJSON(w, http.StatusOK, version.Get())
}
