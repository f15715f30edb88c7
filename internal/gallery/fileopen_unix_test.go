//go:build !windows

package gallery

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/stocker/internal/errors"
)

func TestWriteImageFile_RefusesSymlink(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	out, err := f.g.Save(ctx, SaveInput{Text: "x", Image: pngBlob})
	require.NoError(t, err)

	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	require.NoError(t, os.WriteFile(target, []byte("keep me"), 0600))
	link := filepath.Join(dir, "link.png")
	require.NoError(t, os.Symlink(target, link))

	_, err = f.g.WriteImageFile(ctx, out.Record.ID, link)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))
}
