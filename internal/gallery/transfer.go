package gallery

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hpungsan/stocker/internal/errors"
	"github.com/hpungsan/stocker/internal/prompt"
	"github.com/hpungsan/stocker/internal/store"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path     string // optional, default: <exports>/prompt-stocker-backup-<date>.json
	Progress store.ProgressFunc
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	Images     int    `json:"images"`
	ExportedAt string `json:"exported_at"`
}

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path     string // required
	Progress store.ProgressFunc
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Path string `json:"path"`
	store.ImportReport
}

// DefaultExportName returns the backup file name for the given day.
func DefaultExportName(now time.Time) string {
	return fmt.Sprintf("prompt-stocker-backup-%s.json", now.UTC().Format("2006-01-02"))
}

// Export writes a snapshot of the library to a JSON file.
func (g *Gallery) Export(ctx context.Context, input ExportInput) (*ExportOutput, error) {
	out, err := g.export(ctx, input)
	if err != nil {
		return nil, g.fail("Export failed", err)
	}
	g.notifier.Notify(KindSuccess, fmt.Sprintf("Exported %d prompts to %s", out.Count, out.Path))
	return out, nil
}

func (g *Gallery) export(ctx context.Context, input ExportInput) (*ExportOutput, error) {
	now := g.now()

	exportPath := input.Path
	if exportPath == "" {
		dir, err := g.exportsDir()
		if err != nil {
			return nil, err
		}
		exportPath = filepath.Join(dir, DefaultExportName(now))
	}

	if err := ValidatePath(exportPath, PathCheckWrite, g.cfg, g.exports); err != nil {
		return nil, err
	}

	snapshot, err := g.store.ExportAll(ctx, input.Progress)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}
	if err := writeFileAtomic(exportPath, data); err != nil {
		return nil, err
	}

	images := 0
	for _, p := range snapshot.Prompts {
		if p.ImageBase64 != "" {
			images++
		}
	}
	return &ExportOutput{
		Path:       exportPath,
		Count:      len(snapshot.Prompts),
		Images:     images,
		ExportedAt: prompt.Timestamp(now),
	}, nil
}

// writeFileAtomic writes data to a temp file next to path and renames it into
// place, so an existing file survives a failed write.
func writeFileAtomic(path string, data []byte) error {
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	// Close before rename (required on Windows).
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlinked destination.
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("export path is a symlink")
	}

	// Windows refuses to rename over an existing file. Fail and keep the old
	// file rather than delete it first.
	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return nil
}

// Import merges a JSON backup into the library. Entries that fail are listed
// in the output; the rest are applied.
func (g *Gallery) Import(ctx context.Context, input ImportInput) (*ImportOutput, error) {
	out, err := g.importFile(ctx, input)
	if err != nil {
		return nil, g.fail("Import failed", err)
	}
	if n := len(out.Failures); n > 0 {
		g.logger.Warn("import finished with failures", "error", out.Err())
		g.notifier.Notify(KindError, fmt.Sprintf("Imported %d prompts, %d failed", out.Imported, n))
	} else {
		g.notifier.Notify(KindSuccess, fmt.Sprintf("Imported %d prompts", out.Imported))
	}
	return out, nil
}

func (g *Gallery) importFile(ctx context.Context, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if err := ValidatePath(input.Path, PathCheckRead, g.cfg, g.exports); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	snapshot, err := ReadSnapshot(file)
	if err != nil {
		return nil, err
	}

	report, err := g.store.ImportAll(ctx, snapshot, input.Progress)
	if err != nil {
		return nil, err
	}
	return &ImportOutput{Path: input.Path, ImportReport: *report}, nil
}

// ReadSnapshot decodes a backup document. A document without "prompts"
// yields a snapshot with no entries.
func ReadSnapshot(r io.Reader) (*prompt.Snapshot, error) {
	var snapshot prompt.Snapshot
	if err := json.NewDecoder(r).Decode(&snapshot); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid backup file: %v", err))
	}
	return &snapshot, nil
}

func (g *Gallery) exportsDir() (string, error) {
	if g.exports != "" {
		return g.exports, nil
	}
	return DefaultExportsDir()
}
