package store

import (
	"context"

	"github.com/hpungsan/stocker/internal/errors"
	"github.com/hpungsan/stocker/internal/prompt"
)

// ProgressFunc is called after each record is processed. done counts from 1.
type ProgressFunc func(done, total int, id string)

// ExportAll returns a snapshot of every record in stored order. Records that
// claim an image and have one get it inlined as a data URI; a claimed but
// missing image is silently omitted. Images are read one at a time.
func (s *Store) ExportAll(ctx context.Context, progress ProgressFunc) (*prompt.Snapshot, error) {
	records, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]prompt.ExportRecord, 0, len(records))
	inlined := 0
	for i, r := range records {
		select {
		case <-ctx.Done():
			return nil, errors.NewCancelled("export")
		default:
		}

		er := prompt.RecordToExport(r)
		if r.HasImage {
			blob, err := s.GetImage(ctx, r.ID)
			if err != nil {
				return nil, err
			}
			if blob != nil {
				er.ImageBase64 = prompt.EncodeDataURI(blob)
				inlined++
			}
		}
		out = append(out, er)

		if progress != nil {
			progress(i+1, len(records), r.ID)
		}
	}

	s.logger.Info("library exported", "prompts", len(out), "images", inlined)
	return &prompt.Snapshot{Version: prompt.FormatVersion, Prompts: out}, nil
}
