// Package store persists prompt records and their images.
//
// Records live as one JSON array under a single key of the structured store;
// images live in a separate blob table keyed by record id. The two are written
// independently, so a record may claim an image that is not there (and an image
// may outlive its record). Readers treat a missing image as "no image".
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/hpungsan/stocker/internal/db"
	"github.com/hpungsan/stocker/internal/errors"
	"github.com/hpungsan/stocker/internal/prompt"
)

// Structured store keys.
const (
	PromptsKey = "promptstocker_prompts"
	ThemeKey   = "promptstocker_theme"
)

// Options configures a Store.
type Options struct {
	// DisableImages opens the store without a blob engine. Image writes and
	// deletes become no-ops and reads return nil.
	DisableImages bool

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// Store owns the prompt collection and the image blobs.
type Store struct {
	db     *sql.DB
	images *sql.DB // nil when the blob engine is not initialized
	logger *slog.Logger
}

// New returns a Store backed by database. The caller owns the *sql.DB lifetime.
func New(database *sql.DB, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Store{db: database, logger: logger}
	if !opts.DisableImages {
		s.images = database
	}
	return s
}

// GenerateID returns a random UUID v4 (8-4-4-4-12 hex, version 4, RFC 4122 variant).
// Uniqueness is probabilistic; existing records are not consulted.
func (s *Store) GenerateID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("generate id: %w", err))
	}
	return id.String(), nil
}

// GetAll returns the whole collection in stored order.
// A library that has never been written yields an empty slice.
func (s *Store) GetAll(ctx context.Context) ([]prompt.Record, error) {
	raw, ok, err := db.GetValue(ctx, s.db, PromptsKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []prompt.Record{}, nil
	}

	var records []prompt.Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, errors.NewStorageFailure(fmt.Errorf("decode prompt collection: %w", err))
	}
	if records == nil {
		records = []prompt.Record{}
	}
	return records, nil
}

// ReplaceAll overwrites the whole collection in a single write.
func (s *Store) ReplaceAll(ctx context.Context, records []prompt.Record) error {
	if records == nil {
		records = []prompt.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return errors.NewInternal(err)
	}
	return db.SetValue(ctx, s.db, PromptsKey, string(data))
}

// Upsert replaces the record with the same ID in place, or prepends it when
// the ID is new. The whole collection is rewritten.
func (s *Store) Upsert(ctx context.Context, record prompt.Record) (prompt.Record, error) {
	records, err := s.GetAll(ctx)
	if err != nil {
		return prompt.Record{}, err
	}

	_, index, found := lo.FindIndexOf(records, func(r prompt.Record) bool {
		return r.ID == record.ID
	})
	if found {
		records[index] = record
	} else {
		records = append([]prompt.Record{record}, records...)
	}

	if err := s.ReplaceAll(ctx, records); err != nil {
		return prompt.Record{}, err
	}

	s.logger.Debug("prompt upserted", "id", record.ID, "inserted", !found, "total", len(records))
	return record, nil
}

// Delete removes the record with the given ID. Unknown IDs are ignored.
func (s *Store) Delete(ctx context.Context, id string) error {
	records, err := s.GetAll(ctx)
	if err != nil {
		return err
	}

	kept := lo.Reject(records, func(r prompt.Record, _ int) bool {
		return r.ID == id
	})
	if len(kept) == len(records) {
		return nil
	}

	if err := s.ReplaceAll(ctx, kept); err != nil {
		return err
	}
	s.logger.Debug("prompt deleted", "id", id)
	return nil
}

// Find returns the record with the given ID. The bool is false when absent.
func (s *Store) Find(ctx context.Context, id string) (prompt.Record, bool, error) {
	records, err := s.GetAll(ctx)
	if err != nil {
		return prompt.Record{}, false, err
	}
	record, found := lo.Find(records, func(r prompt.Record) bool {
		return r.ID == id
	})
	return record, found, nil
}

// AllTags returns every distinct tag across the collection, sorted ascending.
func (s *Store) AllTags(ctx context.Context) ([]string, error) {
	records, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return CollectTags(records), nil
}

// CollectTags is the tag union of records, deduplicated and sorted.
func CollectTags(records []prompt.Record) []string {
	tags := lo.Uniq(lo.FlatMap(records, func(r prompt.Record, _ int) []string {
		return r.Tags
	}))
	slices.Sort(tags)
	return tags
}
