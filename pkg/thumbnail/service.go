package thumbnail

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

const jpegQuality = 80

// Service crops and scales stored images to preset sizes.
type Service struct {
	storage Storage
}

// NewService creates a new thumbnail service
func NewService(storage Storage) *Service {
	return &Service{storage: storage}
}

// Render fetches the named image, fits it to the preset and writes the result
// as JPEG. Unknown presets fall back to the default.
func (s *Service) Render(ctx context.Context, w io.Writer, name string, preset Preset) error {
	size, ok := PresetChoices[preset]
	if !ok {
		size = PresetChoices[DefaultPreset]
	}

	rc, err := s.storage.Open(ctx, name)
	if err != nil {
		return err
	}
	defer rc.Close()

	src, _, err := image.Decode(rc)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	return jpeg.Encode(w, Fit(src, size), &jpeg.Options{Quality: jpegQuality})
}

// Fit center-crops the source to the target aspect ratio and scales it to the
// exact target size.
func Fit(src image.Image, size Size) image.Image {
	crop := centeredCrop(src.Bounds(), size)
	dst := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	return dst
}

// centeredCrop returns the largest rectangle of the target aspect ratio that
// fits inside bounds, centered.
func centeredCrop(bounds image.Rectangle, size Size) image.Rectangle {
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	cropW := srcW
	cropH := srcW * size.Height / size.Width
	if cropH > srcH {
		cropH = srcH
		cropW = srcH * size.Width / size.Height
	}

	x0 := bounds.Min.X + (srcW-cropW)/2
	y0 := bounds.Min.Y + (srcH-cropH)/2
	return image.Rect(x0, y0, x0+cropW, y0+cropH)
}
