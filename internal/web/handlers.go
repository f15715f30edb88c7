package web

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hpungsan/stocker/internal/config"
	"github.com/hpungsan/stocker/internal/errors"
	"github.com/hpungsan/stocker/internal/gallery"
	"github.com/hpungsan/stocker/internal/query"
	"github.com/hpungsan/stocker/internal/store"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	store    *store.Store
	cfg      *config.Config
	renderer *Renderer
	notifier gallery.Notifier
	logger   *slog.Logger
}

// viewGallery returns a gallery for one request. Each request carries its own
// selection in the URL, so nothing is shared between requests.
func (h *Handlers) viewGallery(state query.FilterState) *gallery.Gallery {
	return gallery.New(h.store, gallery.Options{
		Config:   h.cfg,
		Renderer: h.renderer.ForView(state),
		Notifier: h.notifier,
		Logger:   h.logger,
	})
}

// stateFromRequest reads category, tag and q from the query string.
func stateFromRequest(r *http.Request) query.FilterState {
	q := r.URL.Query()
	state := query.DefaultFilterState()
	if c := strings.TrimSpace(q.Get("category")); c != "" {
		state = state.WithCategory(c)
	}
	if t := q.Get("tag"); t != "" {
		state = state.WithTag(&t)
	}
	return state.WithQuery(q.Get("q"))
}

// HandleGallery handles GET /: the filtered gallery with its tag cloud.
func (h *Handlers) HandleGallery(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)
	g := h.viewGallery(state)
	g.SelectCategory(state.Category)
	if state.Tag != nil {
		g.SelectTag(*state.Tag)
	}
	g.Search(state.Query)

	visible, err := g.Visible(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := g.RenderGallery(r.Context(), &buf); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	tag := ""
	if state.Tag != nil {
		tag = *state.Tag
	}
	h.renderer.renderPage(w, "gallery", GalleryPageData{
		PageData:   h.pageData(r, "Gallery"),
		Categories: query.Categories,
		Category:   state.Category,
		Tag:        tag,
		Query:      state.Query,
		Count:      len(visible),
		Gallery:    safeFragment(buf.String()),
	})
}

// HandleDetail handles GET /prompts/{id}: one prompt as a page or JSON.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	g := h.viewGallery(query.DefaultFilterState())

	record, err := g.Get(r.Context(), id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, record)
		return
	}

	imageURL := ""
	if record.HasImage {
		if blob, err := h.store.GetImage(r.Context(), id); err == nil && blob != nil {
			imageURL = "/images/" + id
		}
	}

	h.renderer.renderPage(w, "detail", DetailPageData{
		PageData:     h.pageData(r, record.DisplayTitle()),
		Record:       record,
		RenderedHTML: renderMarkdown(record.Text),
		ImageURL:     imageURL,
	})
}

// HandleImage handles GET /images/{id}: the raw image bytes.
func (h *Handlers) HandleImage(w http.ResponseWriter, r *http.Request) {
	g := h.viewGallery(query.DefaultFilterState())
	blob, mime, err := g.Image(r.Context(), r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}

// HandleFavorite handles POST /prompts/{id}/favorite.
func (h *Handlers) HandleFavorite(w http.ResponseWriter, r *http.Request) {
	g := h.viewGallery(query.DefaultFilterState())
	record, err := g.ToggleFavorite(r.Context(), r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, record)
		return
	}
	http.Redirect(w, r, backTo(r), http.StatusSeeOther)
}

// HandleDelete handles DELETE /prompts/{id}.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	g := h.viewGallery(query.DefaultFilterState())
	out, err := g.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleTheme handles POST /theme.
func (h *Handlers) HandleTheme(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	if err := h.store.SetTheme(r.Context(), r.FormValue("theme")); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, backTo(r), http.StatusSeeOther)
}

// HandleExport handles GET /export: the whole library as a JSON download.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.store.ExportAll(r.Context(), nil)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInternal(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+gallery.DefaultExportName(timeNow())+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handlers) pageData(r *http.Request, title string) PageData {
	theme, err := h.store.Theme(r.Context())
	if err != nil {
		h.logger.Warn("theme unavailable", "error", err)
		theme = store.ThemeLight
	}
	return PageData{Title: title, Version: h.renderer.version, Theme: theme}
}

// backTo returns the same-origin page to go back to after a form post.
func backTo(r *http.Request) string {
	ref := r.Header.Get("Referer")
	if ref == "" {
		return "/"
	}
	if i := strings.Index(ref, "://"); i >= 0 {
		rest := ref[i+3:]
		if !strings.HasPrefix(rest, r.Host+"/") {
			return "/"
		}
		return rest[len(r.Host):]
	}
	return "/"
}
