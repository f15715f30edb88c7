package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/stocker/internal/errors"
	"github.com/hpungsan/stocker/internal/prompt"
	"github.com/hpungsan/stocker/internal/query"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Theme   string
}

// GalleryPageData is the template data for the gallery page.
type GalleryPageData struct {
	PageData
	Categories []string
	Category   string
	Tag        string
	Query      string
	Count      int
	Gallery    template.HTML
}

// DetailPageData is the template data for a single prompt.
type DetailPageData struct {
	PageData
	Record       prompt.Record
	RenderedHTML template.HTML
	ImageURL     string
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// cardData is the template data for one gallery card.
type cardData struct {
	Record   prompt.Record
	Text     template.HTML
	ImageURL string
	Category string
	Query    string
}

// tagCloudData is the template data for the tag cloud.
type tagCloudData struct {
	Tags     []string
	Active   string
	Category string
	Query    string
}

// Renderer renders HTML pages and gallery fragments from templates.
type Renderer struct {
	templates map[string]*template.Template
	fragments *template.Template
	version   string
	logger    *slog.Logger
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	funcMap := template.FuncMap{
		"galleryURL": galleryURL,
		"title":      func(r prompt.Record) string { return r.DisplayTitle() },
	}

	fragments := template.Must(template.New("fragments").Funcs(funcMap).ParseFS(templateFS, "fragments.html"))
	layoutTmpl := template.Must(template.Must(fragments.Clone()).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"gallery": "gallery.html",
		"detail":  "detail.html",
		"error":   "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		fragments: fragments,
		version:   version,
		logger:    logger,
	}
}

// ForView returns a gallery renderer whose links keep the given view selection.
func (r *Renderer) ForView(state query.FilterState) *ViewRenderer {
	return &ViewRenderer{r: r, category: state.Category, query: state.Query}
}

// ViewRenderer renders gallery cards and the tag cloud as HTML fragments.
type ViewRenderer struct {
	r        *Renderer
	category string
	query    string
}

// Card implements gallery.Renderer.
func (v *ViewRenderer) Card(w io.Writer, record prompt.Record, imageURL string) error {
	return v.r.fragments.ExecuteTemplate(w, "card", cardData{
		Record:   record,
		Text:     renderMarkdown(record.Text),
		ImageURL: imageURL,
		Category: v.category,
		Query:    v.query,
	})
}

// TagCloud implements gallery.Renderer.
func (v *ViewRenderer) TagCloud(w io.Writer, tags []string, active *string) error {
	data := tagCloudData{Tags: tags, Category: v.category, Query: v.query}
	if active != nil {
		data.Active = *active
	}
	return v.r.fragments.ExecuteTemplate(w, "tagcloud", data)
}

// galleryURL builds a gallery link. An empty tag or query is omitted.
func galleryURL(category, tag, q string) string {
	values := url.Values{}
	if category != "" && category != query.CategoryAll {
		values.Set("category", category)
	}
	if tag != "" {
		values.Set("tag", tag)
	}
	if q != "" {
		values.Set("q", q)
	}
	if len(values) == 0 {
		return "/"
	}
	return "/?" + values.Encode()
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.logger.Error("template not found", "name", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.logger.Error("template execution error", "name", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	sErr, ok := errors.As(err)
	if !ok {
		sErr = errors.NewInternal(err)
	}

	status := sErr.Status
	// 499 is not a real HTTP status; the client is gone anyway.
	if status < 400 || status > 599 || status == 499 {
		status = http.StatusInternalServerError
	}
	if status >= 500 {
		r.logger.Error("request failed", "path", req.URL.Path, "error", err)
	}

	if strings.Contains(req.Header.Get("Accept"), "application/json") {
		renderJSON(w, status, map[string]any{
			"error": map[string]any{
				"code":    string(sErr.Code),
				"message": sErr.Message,
				"status":  status,
			},
		})
		return
	}

	r.renderPageStatus(w, status, "error", ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Error %d", status),
			Version: r.version,
		},
		StatusCode: status,
		Message:    sErr.Message,
	})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts prompt text to HTML using goldmark. Raw HTML in the
// source is not passed through.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}
