package file

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/geopunch/attendance-backend/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadPunchPhoto(t *testing.T) {
	dir := t.TempDir()
	local, err := storage.NewLocalStorage(dir, "http://localhost:8080/uploads/")
	require.NoError(t, err)
	svc := NewFileService(local)

	date := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	p, err := svc.UploadPunchPhoto(context.Background(), "c1", "e1", date, bytes.NewReader(pngBytes(t, 64, 64)), "proof.PNG", "IN")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(p, filepath.Join("punches", "c1", "2024-03-04", "e1-in-")))
	assert.Equal(t, ".jpg", filepath.Ext(p))

	stored, err := os.ReadFile(filepath.Join(dir, p))
	require.NoError(t, err)
	_, err = jpeg.Decode(bytes.NewReader(stored))
	assert.NoError(t, err, "photos are stored as JPEG")

	require.NoError(t, svc.DeleteFile(context.Background(), p))
	_, err = os.Stat(filepath.Join(dir, p))
	assert.True(t, os.IsNotExist(err))
}

func TestUploadPunchPhoto_RejectsExtension(t *testing.T) {
	local, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080/uploads/")
	require.NoError(t, err)
	svc := NewFileService(local)

	_, err = svc.UploadPunchPhoto(context.Background(), "c1", "e1", time.Now(), strings.NewReader("gif"), "proof.gif", "IN")
	assert.Error(t, err)
}

func TestCompressImage(t *testing.T) {
	t.Run("in range is untouched", func(t *testing.T) {
		buf := bytes.Repeat([]byte{1}, 100*1024)
		out, err := compressImage(buf, maxProofSize, minProofSize)
		require.NoError(t, err)
		assert.Equal(t, buf, out)
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := compressImage([]byte("nope"), maxProofSize, minProofSize)
		assert.Error(t, err)
	})

	t.Run("result fits the maximum", func(t *testing.T) {
		out, err := compressImage(pngBytes(t, 800, 800), maxProofSize, minProofSize)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(out), maxProofSize)
	})
}
