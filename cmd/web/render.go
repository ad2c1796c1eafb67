package main

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"gostore.dev/web/internal/api"
	"gostore.dev/web/internal/format"
	mw "gostore.dev/web/internal/middleware"
	"gostore.dev/web/internal/seo"
)

var (
	templatesDir = "templates"
	publicDir    = "public"
	tmplCache    *template.Template
)

func parseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"now":        time.Now,
		"cents":      format.Cents,
		"centsRange": format.CentsRange,
		"percent":    format.Percent,
		"date":       format.Date,
		"jsonld":     seo.JSON,
		"addressSection": func(section AddressSectionView, saved []api.Address) map[string]any {
			return map[string]any{"Section": section, "Saved": saved}
		},
	}
	// ParseGlob doesn't support **, so walk for .tmpl files.
	var files []string
	if err := filepath.WalkDir(templatesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found under %s", templatesDir)
	}
	return template.New("_root").Funcs(funcMap).ParseFiles(files...)
}

func (a *app) templates(w http.ResponseWriter) *template.Template {
	if a.devMode {
		tc, err := parseTemplates()
		if err != nil {
			a.logger.Error("template parse", zap.Error(err))
			http.Error(w, "template parse error", http.StatusInternalServerError)
			return nil
		}
		return tc
	}
	return tmplCache
}

// renderPage executes the template named "page_<name>". Page templates wrap
// themselves in the shared layout partials.
func (a *app) renderPage(w http.ResponseWriter, r *http.Request, name string, data any) {
	a.renderTemplate(w, r, "page_"+name, data)
}

// renderTemplate executes one named template, fragment or page.
func (a *app) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	t := a.templates(w)
	if t == nil {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, name, data); err != nil {
		a.logger.Error("template exec", zap.String("template", name), zap.Error(err))
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// renderError shows the API failure messages in place of the page body.
// Fragment requests get a compact inline version.
func (a *app) renderError(w http.ResponseWriter, r *http.Request, err error) {
	messages := []string{"Something went wrong :("}
	if apiErr, ok := err.(*api.Error); ok {
		messages = apiErr.UserMessages()
	}
	a.logger.Warn("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	if mw.IsFragment(r.Context()) {
		w.WriteHeader(http.StatusOK)
		a.renderTemplate(w, r, "frag_errors", messages)
		return
	}
	pd := a.pageData(r, "Error", "")
	pd.View = messages
	a.renderPage(w, r, "error", pd)
}

func absoluteURL(r *http.Request) string {
	scheme := "https"
	if r.TLS == nil && !strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "http"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
