package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
)

// pngHeader — сигнатура PNG и начало IHDR.
var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

func newStorage(t *testing.T, maxMB int64) (*ScreenshotStorage, string) {
	t.Helper()
	root := t.TempDir()
	s, err := NewScreenshotStorage(root, "https://forum.example.com/uploads/", maxMB)
	require.NoError(t, err)
	return s, root
}

func TestScreenshotStorage_SavePNG(t *testing.T) {
	s, root := newStorage(t, 1)
	userID := uuid.New()
	content := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{1}, 1024)...)

	shot, err := s.Save(context.Background(), userID, bytes.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, "image/png", shot.Mime)
	assert.EqualValues(t, len(content), shot.Size)
	assert.Equal(t, ".png", filepath.Ext(shot.Path))
	assert.Contains(t, shot.URL, "https://forum.example.com/uploads/"+userID.String()+"/")

	stored, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(shot.Path)))
	require.NoError(t, err)
	assert.Equal(t, content, stored)

	require.NoError(t, s.Delete(context.Background(), shot.Path))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(shot.Path)))
	assert.True(t, os.IsNotExist(err))
}

func TestScreenshotStorage_RejectsNonImage(t *testing.T) {
	s, _ := newStorage(t, 1)
	_, err := s.Save(context.Background(), uuid.New(), bytes.NewReader([]byte("%PDF-1.7 not an image")))
	assert.Contains(t, apperror.ValidationFields(err), "file")

	_, err = s.Save(context.Background(), uuid.New(), bytes.NewReader(nil))
	assert.Contains(t, apperror.ValidationFields(err), "file")
}

func TestScreenshotStorage_SizeLimit(t *testing.T) {
	s, root := newStorage(t, 1)
	userID := uuid.New()
	content := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 1024*1024)...)

	_, err := s.Save(context.Background(), userID, bytes.NewReader(content))
	assert.Contains(t, apperror.ValidationFields(err), "file")

	entries, _ := os.ReadDir(filepath.Join(root, userID.String()))
	assert.Empty(t, entries)
}
