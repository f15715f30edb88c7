package store

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/hpungsan/stocker/internal/errors"
	"github.com/hpungsan/stocker/internal/prompt"
)

// ImportReport summarizes an ImportAll run.
type ImportReport struct {
	Imported int             `json:"imported"`
	Images   int             `json:"images"`
	Failures []ImportFailure `json:"failures,omitempty"`
}

// ImportFailure describes one snapshot entry that was not fully applied.
type ImportFailure struct {
	Index   int    `json:"index"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Err folds the failures into a single error, or nil when there were none.
func (r *ImportReport) Err() error {
	if r == nil {
		return nil
	}
	var result *multierror.Error
	for _, f := range r.Failures {
		result = multierror.Append(result, fmt.Errorf("prompt %d (%s): %s: %s", f.Index, f.ID, f.Code, f.Message))
	}
	return result.ErrorOrNil()
}

// ImportAll merges snapshot into the library entry by entry. Each record is
// upserted (replacing in place by id, new ids prepended) and its inlined image,
// if any, is decoded and stored afterwards. An entry with a missing id or an
// undecodable image is recorded in the report and the import continues; a
// storage failure aborts with the entries applied so far left in place.
// A nil snapshot or one without prompts is a no-op.
func (s *Store) ImportAll(ctx context.Context, snapshot *prompt.Snapshot, progress ProgressFunc) (*ImportReport, error) {
	report := &ImportReport{}
	if snapshot == nil || len(snapshot.Prompts) == 0 {
		return report, nil
	}

	total := len(snapshot.Prompts)
	for i, entry := range snapshot.Prompts {
		select {
		case <-ctx.Done():
			return report, errors.NewCancelled("import")
		default:
		}

		if entry.ID == "" {
			report.Failures = append(report.Failures, ImportFailure{
				Index:   i,
				Code:    string(errors.ErrInvalidRequest),
				Message: "missing id field",
			})
			if progress != nil {
				progress(i+1, total, "")
			}
			continue
		}

		if _, err := s.Upsert(ctx, entry.ToRecord()); err != nil {
			return report, err
		}
		report.Imported++

		if entry.ImageBase64 != "" {
			blob, _, err := prompt.DecodeDataURI(entry.ImageBase64)
			if err != nil {
				derr := errors.NewDecodeFailed(entry.ID, err)
				report.Failures = append(report.Failures, ImportFailure{
					Index:   i,
					ID:      entry.ID,
					Code:    string(derr.Code),
					Message: derr.Message,
				})
				s.logger.Warn("skipping undecodable image", "id", entry.ID, "error", err)
			} else {
				if err := s.SaveImage(ctx, entry.ID, blob); err != nil {
					return report, err
				}
				if s.ImagesEnabled() {
					report.Images++
				}
			}
		}

		if progress != nil {
			progress(i+1, total, entry.ID)
		}
	}

	s.logger.Info("library imported", "prompts", report.Imported, "images", report.Images, "failures", len(report.Failures))
	return report, nil
}
