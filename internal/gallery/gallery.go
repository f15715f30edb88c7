// Package gallery drives the prompt library: it owns the current view
// selection, applies user actions to the store, and feeds the renderer and
// notifier.
package gallery

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hpungsan/stocker/internal/config"
	"github.com/hpungsan/stocker/internal/errors"
	"github.com/hpungsan/stocker/internal/prompt"
	"github.com/hpungsan/stocker/internal/query"
	"github.com/hpungsan/stocker/internal/store"
)

// Options configures a Gallery. Every field is optional.
type Options struct {
	Config   *config.Config
	Renderer Renderer
	Notifier Notifier
	Logger   *slog.Logger

	// ExportsDir is the default import/export directory. Defaults to ~/.stocker/exports.
	ExportsDir string

	// ImageURL builds image links for rendered cards. Defaults to /images/<id>.
	ImageURL ImageURLFunc

	// Now is the clock used for updatedAt and default export names.
	Now func() time.Time
}

// Gallery is the single owner of the view selection for one surface.
type Gallery struct {
	store    *store.Store
	cfg      *config.Config
	renderer Renderer
	notifier Notifier
	logger   *slog.Logger
	exports  string
	imageURL ImageURLFunc
	now      func() time.Time

	mu    sync.Mutex
	state query.FilterState
}

// New returns a Gallery over s.
func New(s *store.Store, opts Options) *Gallery {
	g := &Gallery{
		store:    s,
		cfg:      opts.Config,
		renderer: opts.Renderer,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		exports:  opts.ExportsDir,
		imageURL: opts.ImageURL,
		now:      opts.Now,
		state:    query.DefaultFilterState(),
	}
	if g.cfg == nil {
		g.cfg = config.DefaultConfig()
	}
	if g.renderer == nil {
		g.renderer = nopRenderer{}
	}
	if g.notifier == nil {
		g.notifier = nopNotifier{}
	}
	if g.logger == nil {
		g.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if g.imageURL == nil {
		g.imageURL = func(id string) string { return "/images/" + id }
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// Store returns the underlying store.
func (g *Gallery) Store() *store.Store {
	return g.store
}

// State returns a copy of the current selection.
func (g *Gallery) State() query.FilterState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return cloneState(g.state)
}

// SelectCategory switches category and clears any selected tag.
func (g *Gallery) SelectCategory(category string) query.FilterState {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = g.state.WithCategory(category).WithTag(nil)
	return cloneState(g.state)
}

// SelectTag selects tag, or clears the selection when tag is already selected.
func (g *Gallery) SelectTag(tag string) query.FilterState {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.Tag != nil && *g.state.Tag == tag {
		g.state = g.state.WithTag(nil)
	} else {
		g.state = g.state.WithTag(&tag)
	}
	return cloneState(g.state)
}

// Search sets the search text.
func (g *Gallery) Search(q string) query.FilterState {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = g.state.WithQuery(q)
	return cloneState(g.state)
}

// Visible returns the records matching the current selection.
func (g *Gallery) Visible(ctx context.Context) ([]prompt.Record, error) {
	return g.VisibleFor(ctx, g.State())
}

// VisibleFor returns the records matching state without touching the
// gallery's own selection.
func (g *Gallery) VisibleFor(ctx context.Context, state query.FilterState) ([]prompt.Record, error) {
	records, err := g.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return query.Filter(records, state), nil
}

// Get returns one record.
func (g *Gallery) Get(ctx context.Context, id string) (prompt.Record, error) {
	if id == "" {
		return prompt.Record{}, errors.NewInvalidRequest("id is required")
	}
	record, ok, err := g.store.Find(ctx, id)
	if err != nil {
		return prompt.Record{}, err
	}
	if !ok {
		return prompt.Record{}, errors.NewNotFound(id)
	}
	return record, nil
}

// Tags returns every tag in the library.
func (g *Gallery) Tags(ctx context.Context) ([]string, error) {
	return g.store.AllTags(ctx)
}

// RenderGallery renders the current selection followed by the tag cloud.
func (g *Gallery) RenderGallery(ctx context.Context, w io.Writer) error {
	return g.RenderView(ctx, w, g.State())
}

// RenderView renders the records matching state followed by the tag cloud.
// A record whose image cannot be read is rendered without one.
func (g *Gallery) RenderView(ctx context.Context, w io.Writer, state query.FilterState) error {
	records, err := g.store.GetAll(ctx)
	if err != nil {
		return err
	}

	for _, r := range query.Filter(records, state) {
		if err := g.renderer.Card(w, r, g.resolveImage(ctx, r)); err != nil {
			return errors.NewInternal(err)
		}
	}

	if err := g.renderer.TagCloud(w, store.CollectTags(records), state.Tag); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// resolveImage returns the image URL for r, or "" when it has none.
func (g *Gallery) resolveImage(ctx context.Context, r prompt.Record) string {
	if !r.HasImage || !g.store.ImagesEnabled() {
		return ""
	}
	blob, err := g.store.GetImage(ctx, r.ID)
	if err != nil {
		g.logger.Warn("image unavailable", "id", r.ID, "error", err)
		return ""
	}
	if blob == nil {
		return ""
	}
	return g.imageURL(r.ID)
}

// Theme returns the saved display theme.
func (g *Gallery) Theme(ctx context.Context) (string, error) {
	return g.store.Theme(ctx)
}

// SetTheme saves the display theme.
func (g *Gallery) SetTheme(ctx context.Context, theme string) error {
	return g.store.SetTheme(ctx, theme)
}

// cloneState copies s so callers cannot reach the gallery's tag pointer.
func cloneState(s query.FilterState) query.FilterState {
	return s.WithTag(s.Tag)
}
