package thumbnail_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-account/pkg/thumbnail"
)

func writeTestImage(t *testing.T, dir, name string, width, height int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
}

func TestRenderFitsToPreset(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, dir, "photo.png", 800, 300)
	svc := thumbnail.NewService(thumbnail.NewLocalStorage(dir))

	tests := []struct {
		preset thumbnail.Preset
		want   thumbnail.Size
	}{
		{thumbnail.PosterSquared, thumbnail.Size{Width: 600, Height: 600}},
		{thumbnail.PosterWide, thumbnail.Size{Width: 1200, Height: 675}},
		{thumbnail.Avatar, thumbnail.Size{Width: 200, Height: 200}},
		{thumbnail.Preset("bogus"), thumbnail.Size{Width: 600, Height: 600}},
	}

	for _, tt := range tests {
		t.Run(string(tt.preset), func(t *testing.T) {
			var out bytes.Buffer
			err := svc.Render(context.Background(), &out, "photo.png", tt.preset)
			require.NoError(t, err)

			decoded, err := jpeg.Decode(&out)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Width, decoded.Bounds().Dx())
			assert.Equal(t, tt.want.Height, decoded.Bounds().Dy())
		})
	}
}

func TestRenderMissingImage(t *testing.T) {
	svc := thumbnail.NewService(thumbnail.NewLocalStorage(t.TempDir()))

	var out bytes.Buffer
	err := svc.Render(context.Background(), &out, "absent.png", thumbnail.Avatar)
	assert.ErrorIs(t, err, thumbnail.ErrImageNotFound)
	assert.Zero(t, out.Len(), "nothing written on error")
}

func TestRenderRejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an image"), 0o644))
	svc := thumbnail.NewService(thumbnail.NewLocalStorage(dir))

	var out bytes.Buffer
	err := svc.Render(context.Background(), &out, "notes.txt", thumbnail.Avatar)
	assert.Error(t, err)
}

func TestLocalStorageIgnoresPathTraversal(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, dir, "photo.png", 10, 10)
	storage := thumbnail.NewLocalStorage(dir)

	// Directory components are stripped; only the base name is looked up.
	rc, err := storage.Open(context.Background(), "../../etc/photo.png")
	require.NoError(t, err)
	rc.Close()

	_, err = storage.Open(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, thumbnail.ErrImageNotFound)
}

func TestCenteredCropViaFit(t *testing.T) {
	// A tall source fitted to a square keeps the full width and the middle of
	// the height.
	src := image.NewRGBA(image.Rect(0, 0, 100, 300))
	dst := thumbnail.Fit(src, thumbnail.Size{Width: 50, Height: 50})
	assert.Equal(t, 50, dst.Bounds().Dx())
	assert.Equal(t, 50, dst.Bounds().Dy())
}
