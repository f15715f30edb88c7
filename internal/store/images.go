package store

import (
	"context"

	"github.com/samber/lo"

	"github.com/hpungsan/stocker/internal/db"
	"github.com/hpungsan/stocker/internal/prompt"
)

// ImagesEnabled reports whether the blob engine is initialized.
func (s *Store) ImagesEnabled() bool {
	return s.images != nil
}

// SaveImage stores blob under id, replacing any previous image.
func (s *Store) SaveImage(ctx context.Context, id string, blob []byte) error {
	if s.images == nil {
		return nil
	}
	if err := db.PutImage(ctx, s.images, id, blob); err != nil {
		return err
	}
	s.logger.Debug("image saved", "id", id, "bytes", len(blob))
	return nil
}

// GetImage returns the image stored under id, or nil when there is none.
func (s *Store) GetImage(ctx context.Context, id string) ([]byte, error) {
	if s.images == nil {
		return nil, nil
	}
	return db.GetImage(ctx, s.images, id)
}

// DeleteImage removes the image stored under id. Unknown ids are ignored.
func (s *Store) DeleteImage(ctx context.Context, id string) error {
	if s.images == nil {
		return nil
	}
	return db.DeleteImage(ctx, s.images, id)
}

// OrphanImages lists image ids that no record refers to.
func (s *Store) OrphanImages(ctx context.Context) ([]string, error) {
	if s.images == nil {
		return []string{}, nil
	}
	ids, err := db.ListImageIDs(ctx, s.images)
	if err != nil {
		return nil, err
	}
	records, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	known := lo.SliceToMap(records, func(r prompt.Record) (string, struct{}) {
		return r.ID, struct{}{}
	})
	return lo.Reject(ids, func(id string, _ int) bool {
		_, ok := known[id]
		return ok
	}), nil
}
