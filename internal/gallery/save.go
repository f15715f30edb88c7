package gallery

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"

	"github.com/hpungsan/stocker/internal/errors"
	"github.com/hpungsan/stocker/internal/prompt"
)

// SaveInput contains parameters for the Save operation.
type SaveInput struct {
	ID       string // optional; empty creates a new record
	Title    string
	Text     string // required
	Category string // defaults to "image"
	Tags     []string
	TagsText string // comma-separated, used when Tags is nil
	Favorite bool

	// Image replaces the attached image when non-nil.
	Image []byte
	// KeepImage retains the existing image when Image is nil.
	KeepImage bool
}

// SaveOutput contains the result of the Save operation.
type SaveOutput struct {
	Record  prompt.Record `json:"prompt"`
	Created bool          `json:"created"`
}

// ParseTags splits a comma-separated tag list, trimming entries and dropping empty ones.
func ParseTags(s string) []string {
	if s == "" {
		return []string{}
	}
	tags := lo.Map(strings.Split(s, ","), func(t string, _ int) string {
		return strings.TrimSpace(t)
	})
	return lo.Compact(tags)
}

// Save creates or replaces a record and its image.
func (g *Gallery) Save(ctx context.Context, input SaveInput) (*SaveOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, errors.NewInvalidRequest("text is required")
	}
	if input.Image != nil {
		if err := g.checkImage(input.Image); err != nil {
			return nil, err
		}
	}

	id := strings.TrimSpace(input.ID)
	var existing prompt.Record
	found := false
	if id != "" {
		var err error
		existing, found, err = g.store.Find(ctx, id)
		if err != nil {
			return nil, g.fail("Save failed", err)
		}
	} else {
		var err error
		if id, err = g.store.GenerateID(); err != nil {
			return nil, g.fail("Save failed", err)
		}
	}

	tags := input.Tags
	if tags == nil {
		tags = ParseTags(input.TagsText)
	}
	category := strings.TrimSpace(input.Category)
	if category == "" && !found {
		category = prompt.CategoryImage
	}

	keep := input.Image == nil && input.KeepImage && found && existing.HasImage
	record := prompt.Record{
		ID:        id,
		Title:     input.Title,
		Text:      input.Text,
		Category:  category,
		Tags:      tags,
		Favorite:  input.Favorite,
		HasImage:  input.Image != nil || keep,
		UpdatedAt: prompt.Timestamp(g.now()),
	}

	if _, err := g.store.Upsert(ctx, record); err != nil {
		return nil, g.fail("Save failed", err)
	}

	switch {
	case input.Image != nil:
		if err := g.store.SaveImage(ctx, id, input.Image); err != nil {
			return nil, g.fail("Save failed", err)
		}
	case found && existing.HasImage && !keep:
		if err := g.store.DeleteImage(ctx, id); err != nil {
			return nil, g.fail("Save failed", err)
		}
	}

	if found {
		g.notifier.Notify(KindSuccess, "Updated")
	} else {
		g.notifier.Notify(KindSuccess, "Saved")
	}
	return &SaveOutput{Record: record, Created: !found}, nil
}

// ToggleFavorite flips the favorite flag of a record.
func (g *Gallery) ToggleFavorite(ctx context.Context, id string) (prompt.Record, error) {
	record, err := g.Get(ctx, id)
	if err != nil {
		return prompt.Record{}, err
	}
	record.Favorite = !record.Favorite
	if _, err := g.store.Upsert(ctx, record); err != nil {
		return prompt.Record{}, g.fail("Update failed", err)
	}
	return record, nil
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// Delete removes a record, and its image first when it has one.
// Unknown ids are not an error.
func (g *Gallery) Delete(ctx context.Context, id string) (*DeleteOutput, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	record, found, err := g.store.Find(ctx, id)
	if err != nil {
		return nil, g.fail("Delete failed", err)
	}
	if found && record.HasImage {
		if err := g.store.DeleteImage(ctx, id); err != nil {
			return nil, g.fail("Delete failed", err)
		}
	}
	if err := g.store.Delete(ctx, id); err != nil {
		return nil, g.fail("Delete failed", err)
	}

	g.notifier.Notify(KindSuccess, "Deleted")
	return &DeleteOutput{Deleted: found, ID: id}, nil
}

// AttachImage stores blob as the image of an existing record.
func (g *Gallery) AttachImage(ctx context.Context, id string, blob []byte) (prompt.Record, error) {
	if err := g.checkImage(blob); err != nil {
		return prompt.Record{}, err
	}
	record, err := g.Get(ctx, id)
	if err != nil {
		return prompt.Record{}, err
	}
	if err := g.store.SaveImage(ctx, id, blob); err != nil {
		return prompt.Record{}, g.fail("Image save failed", err)
	}
	if !record.HasImage {
		record.HasImage = true
		record.UpdatedAt = prompt.Timestamp(g.now())
		if _, err := g.store.Upsert(ctx, record); err != nil {
			return prompt.Record{}, g.fail("Image save failed", err)
		}
	}
	return record, nil
}

// Image returns the image of a record and its media type. A record without an
// image is NOT_FOUND.
func (g *Gallery) Image(ctx context.Context, id string) ([]byte, string, error) {
	blob, err := g.store.GetImage(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if blob == nil {
		return nil, "", errors.NewNotFound(id)
	}
	return blob, prompt.SniffMIME(blob), nil
}

// ImageFileOutput contains the result of WriteImageFile.
type ImageFileOutput struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	MIME  string `json:"mime"`
	Bytes int    `json:"bytes"`
}

// WriteImageFile writes the image of a record to path. A symlink at path is
// refused rather than followed.
func (g *Gallery) WriteImageFile(ctx context.Context, id, path string) (*ImageFileOutput, error) {
	if path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	blob, mime, err := g.Image(ctx, id)
	if err != nil {
		return nil, err
	}

	f, err := openFileNoFollow(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open image file: %w", err))
	}
	if _, err := f.Write(blob); err != nil {
		f.Close()
		return nil, errors.NewInternal(fmt.Errorf("failed to write image file: %w", err))
	}
	if err := f.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close image file: %w", err))
	}
	return &ImageFileOutput{ID: id, Path: path, MIME: mime, Bytes: len(blob)}, nil
}

// DetachImage removes the image of a record.
func (g *Gallery) DetachImage(ctx context.Context, id string) (prompt.Record, error) {
	record, err := g.Get(ctx, id)
	if err != nil {
		return prompt.Record{}, err
	}
	if err := g.store.DeleteImage(ctx, id); err != nil {
		return prompt.Record{}, g.fail("Image removal failed", err)
	}
	if record.HasImage {
		record.HasImage = false
		record.UpdatedAt = prompt.Timestamp(g.now())
		if _, err := g.store.Upsert(ctx, record); err != nil {
			return prompt.Record{}, g.fail("Image removal failed", err)
		}
	}
	return record, nil
}

// PruneImages deletes images that no record refers to and returns their ids.
func (g *Gallery) PruneImages(ctx context.Context) ([]string, error) {
	orphans, err := g.store.OrphanImages(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range orphans {
		if err := g.store.DeleteImage(ctx, id); err != nil {
			return nil, err
		}
	}
	if len(orphans) > 0 {
		g.logger.Info("pruned orphan images", "count", len(orphans))
	}
	return orphans, nil
}

// checkImage enforces the size cap and requires an image media type.
func (g *Gallery) checkImage(blob []byte) error {
	if g.cfg.MaxImageBytes > 0 && len(blob) > g.cfg.MaxImageBytes {
		return errors.NewImageTooLarge(g.cfg.MaxImageBytes, len(blob))
	}
	if mime := prompt.SniffMIME(blob); !strings.HasPrefix(mime, "image/") {
		return errors.NewInvalidRequest("attachment is not an image: " + mime)
	}
	return nil
}

// fail notifies an error and returns err unchanged.
func (g *Gallery) fail(message string, err error) error {
	g.logger.Error(strings.ToLower(message), "error", err)
	g.notifier.Notify(KindError, message)
	return err
}
