package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/stocker/internal/errors"
	"github.com/hpungsan/stocker/internal/prompt"
)

var pngBlob = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestExportAll_InlinesClaimedImages(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	withImage := rec("1", "image", "nature")
	withImage.HasImage = true
	missingImage := rec("2", "image")
	missingImage.HasImage = true
	unclaimed := rec("3", "chat")

	require.NoError(t, s.ReplaceAll(ctx, []prompt.Record{withImage, missingImage, unclaimed}))
	require.NoError(t, s.SaveImage(ctx, "1", pngBlob))
	require.NoError(t, s.SaveImage(ctx, "3", []byte("not claimed")))

	var calls []int
	snap, err := s.ExportAll(ctx, func(done, total int, id string) {
		assert.Equal(t, 3, total)
		calls = append(calls, done)
	})
	require.NoError(t, err)

	assert.Equal(t, prompt.FormatVersion, snap.Version)
	require.Len(t, snap.Prompts, 3)
	assert.Equal(t, prompt.EncodeDataURI(pngBlob), snap.Prompts[0].ImageBase64)
	assert.Contains(t, snap.Prompts[0].ImageBase64, "data:image/png;base64,")
	assert.Empty(t, snap.Prompts[1].ImageBase64, "claimed but missing image is omitted")
	assert.Empty(t, snap.Prompts[2].ImageBase64, "image without hasImage is not exported")
	assert.Equal(t, []int{1, 2, 3}, calls)
}

func TestExportAll_Empty(t *testing.T) {
	s := setupTestStore(t)

	snap, err := s.ExportAll(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, snap.Prompts)
	assert.Empty(t, snap.Prompts)
}

func TestExportAll_Cancelled(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.ReplaceAll(context.Background(), []prompt.Record{rec("1", "chat")}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ExportAll(ctx, nil)
	assert.True(t, errors.Is(err, errors.ErrCancelled))
}

func TestExportImport_RoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	original := []prompt.Record{
		{ID: "1", Title: "Sunset", Text: "a sunset", Category: "image", Tags: []string{"nature"}, Favorite: true, HasImage: true, UpdatedAt: "2024-01-01T00:00:00.000Z"},
		{ID: "2", Text: "hello", Category: "chat", Tags: []string{}},
		{ID: "3", Text: "fn main", Category: "code", Tags: []string{"go", "cli"}, HasImage: true},
	}
	require.NoError(t, s.ReplaceAll(ctx, original))
	require.NoError(t, s.SaveImage(ctx, "1", pngBlob))
	require.NoError(t, s.SaveImage(ctx, "3", []byte{0, 1, 2, 255}))

	snap, err := s.ExportAll(ctx, nil)
	require.NoError(t, err)

	report, err := s.ImportAll(ctx, snap, nil)
	require.NoError(t, err)
	assert.NoError(t, report.Err())
	assert.Equal(t, 3, report.Imported)
	assert.Equal(t, 2, report.Images)

	got, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, original, got)

	blob, err := s.GetImage(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 255}, blob)
}

func TestImportAll_IntoFreshLibrary(t *testing.T) {
	src := setupTestStore(t)
	dst := setupTestStore(t)
	ctx := context.Background()

	r := rec("1", "image")
	r.HasImage = true
	require.NoError(t, src.ReplaceAll(ctx, []prompt.Record{r, rec("2", "chat")}))
	require.NoError(t, src.SaveImage(ctx, "1", pngBlob))

	snap, err := src.ExportAll(ctx, nil)
	require.NoError(t, err)

	_, err = dst.ImportAll(ctx, snap, nil)
	require.NoError(t, err)

	got, err := dst.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// New ids are prepended one at a time, so a fresh library ends up reversed.
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "1", got[1].ID)

	blob, err := dst.GetImage(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, pngBlob, blob)
}

func TestImportAll_NilAndEmpty(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceAll(ctx, []prompt.Record{rec("1", "chat")}))

	for _, snap := range []*prompt.Snapshot{nil, {Version: 1}} {
		report, err := s.ImportAll(ctx, snap, nil)
		require.NoError(t, err)
		assert.Zero(t, report.Imported)
	}

	got, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestImportAll_BadImageIsReported(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	bad := prompt.ExportRecord{Record: rec("bad", "image"), ImageBase64: "data:image/png;base64,@@@"}
	bad.HasImage = true
	good := prompt.ExportRecord{Record: rec("good", "image"), ImageBase64: prompt.EncodeDataURI(pngBlob)}
	good.HasImage = true
	noID := prompt.ExportRecord{Record: prompt.Record{Text: "orphan"}}

	report, err := s.ImportAll(ctx, &prompt.Snapshot{Version: 1, Prompts: []prompt.ExportRecord{bad, noID, good}}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 1, report.Images)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, "bad", report.Failures[0].ID)
	assert.Equal(t, string(errors.ErrDecodeFailed), report.Failures[0].Code)
	assert.Equal(t, 1, report.Failures[1].Index)
	assert.Equal(t, string(errors.ErrInvalidRequest), report.Failures[1].Code)
	require.Error(t, report.Err())
	assert.Contains(t, report.Err().Error(), "2 errors occurred")

	// The record whose image failed is still imported.
	_, ok, err := s.Find(ctx, "bad")
	require.NoError(t, err)
	assert.True(t, ok)

	blob, err := s.GetImage(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, pngBlob, blob)
}

func TestImportAll_ProgressCountsSkippedEntries(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	entries := []prompt.ExportRecord{
		{Record: rec("1", "chat")},
		{Record: prompt.Record{Text: "orphan"}},
		{Record: rec("3", "code")},
	}

	var done []int
	var ids []string
	report, err := s.ImportAll(ctx, &prompt.Snapshot{Version: 1, Prompts: entries}, func(d, total int, id string) {
		assert.Equal(t, 3, total)
		done = append(done, d)
		ids = append(ids, id)
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Imported)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, []int{1, 2, 3}, done)
	assert.Equal(t, []string{"1", "", "3"}, ids)
}

func TestImportAll_ImagesDisabled(t *testing.T) {
	s := New(setupTestDB(t), Options{DisableImages: true})
	ctx := context.Background()

	entry := prompt.ExportRecord{Record: rec("1", "image"), ImageBase64: prompt.EncodeDataURI(pngBlob)}
	report, err := s.ImportAll(ctx, &prompt.Snapshot{Version: 1, Prompts: []prompt.ExportRecord{entry}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	assert.Zero(t, report.Images)
}

func TestImportReport_ErrNil(t *testing.T) {
	var report *ImportReport
	assert.NoError(t, report.Err())
	assert.NoError(t, (&ImportReport{}).Err())
}
