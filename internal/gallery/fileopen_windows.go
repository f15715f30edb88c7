//go:build windows

package gallery

import (
	"os"

	"github.com/hpungsan/stocker/internal/errors"
)

// openFileNoFollow opens path for writing. Windows has no O_NOFOLLOW, so an
// existing symlink is checked with Lstat first.
func openFileNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInvalidRequest("cannot write to symlink")
	}
	return os.OpenFile(path, flag, perm)
}

func openFileNoFollowRead(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, err
	}
	return f, nil
}
