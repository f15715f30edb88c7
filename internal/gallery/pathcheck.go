package gallery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/stocker/internal/config"
	"github.com/hpungsan/stocker/internal/errors"
)

// BackupExt is the only extension accepted for import and export files.
const BackupExt = ".json"

// PathCheckMode indicates whether the path check is for reading or writing.
type PathCheckMode int

const (
	PathCheckRead  PathCheckMode = iota // import
	PathCheckWrite                      // export
)

// ValidatePath checks an import/export path:
// 1. no ".." components
// 2. .json extension
// 3. file DIRECTLY in exportsDir or an allowed_paths entry (no subdirectories)
// 4. neither the parent directory nor the file is a symlink
//
// Requiring the file to sit directly in an allowed directory leaves no
// intermediate component to swap for a symlink between the check and the
// open; O_NOFOLLOW covers the final component.
func ValidatePath(path string, mode PathCheckMode, cfg *config.Config, exportsDir string) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}

	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if !strings.EqualFold(filepath.Ext(cleaned), BackupExt) {
		return errors.NewInvalidRequest("path must have " + BackupExt + " extension")
	}

	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	// Unsafe mode skips the directory allowlist only.
	if cfg == nil || !cfg.AllowUnsafePaths {
		allowedDirs, err := allowedDirs(cfg, exportsDir)
		if err != nil {
			return err
		}

		parentDir := filepath.Dir(absPath)
		if !isDirectlyInAllowedDir(parentDir, allowedDirs) {
			return errors.NewInvalidRequest(
				fmt.Sprintf("file must be directly in an allowed directory (no subdirectories); allowed: %v",
					allowedDirs))
		}

		if info, err := os.Lstat(parentDir); err == nil && info.Mode()&os.ModeSymlink != 0 {
			return errors.NewInvalidRequest("parent directory must not be a symlink")
		}
	}

	if mode == PathCheckRead {
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			return errors.NewFileNotFound(path)
		}
	}

	if info, err := os.Lstat(absPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("path must not be a symlink")
	}

	return nil
}

// allowedDirs returns exportsDir plus the absolute allowed_paths entries,
// cleaned, with symlinked entries resolved to their targets.
func allowedDirs(cfg *config.Config, exportsDir string) ([]string, error) {
	if exportsDir == "" {
		var err error
		if exportsDir, err = DefaultExportsDir(); err != nil {
			return nil, err
		}
	}
	dirs := []string{exportsDir}

	if cfg != nil {
		for _, p := range cfg.AllowedPaths {
			if filepath.IsAbs(p) {
				dirs = append(dirs, filepath.Clean(p))
			}
		}
	}

	result := make([]string, 0, len(dirs))
	for _, d := range dirs {
		abs, err := filepath.Abs(filepath.Clean(d))
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid allowed path: %v", err))
		}

		if info, err := os.Lstat(abs); err == nil && info.Mode()&os.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(abs)
			if err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
			}
			abs = resolved
		}
		result = append(result, abs)
	}

	return result, nil
}

// isDirectlyInAllowedDir reports whether parentDir is exactly one of allowedDirs.
func isDirectlyInAllowedDir(parentDir string, allowedDirs []string) bool {
	parentDir = filepath.Clean(parentDir)
	for _, dir := range allowedDirs {
		if parentDir == filepath.Clean(dir) {
			return true
		}
	}
	return false
}

// DefaultExportsDir returns ~/.stocker/exports.
func DefaultExportsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("failed to get home directory: %w", err))
	}
	return filepath.Join(homeDir, ".stocker", "exports"), nil
}

func containsTraversal(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	// User input may use forward slashes on any platform.
	if filepath.Separator != '/' {
		for _, part := range strings.Split(path, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}
