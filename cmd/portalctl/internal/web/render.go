package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/terraconstructs/portal/pkg/sdk"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"home",
	"login",
	"signup",
	"reset_request",
	"reset_set",
	"dashboard",
	"pending",
}

// pages holds one template set per page, each the layout plus the page body.
type pages struct {
	sets map[string]*template.Template
}

func loadPages() (*pages, error) {
	layout, err := template.ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	p := &pages{sets: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		set, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := set.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		p.sets[name] = set
	}
	return p, nil
}

// pageData is the model every page renders from.
type pageData struct {
	Title    string
	Identity *sdk.Identity
	Error    string
	Notice   string
	Warning  string
	Fields   map[string]string
	Values   map[string]string

	// dashboard
	Section string

	// password reset
	Email            string
	Code             string
	RedirectSeconds  int
	PasswordChanged  bool
	ResetRequestSent bool
}

func (h *handlers) render(w http.ResponseWriter, status int, page string, data pageData) {
	set, ok := h.pages.sets[page]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		h.logger.Error("failed to render page", h.logger.Args("page", page, "error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
