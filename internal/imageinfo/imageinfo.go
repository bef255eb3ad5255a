// Package imageinfo identifies image bytes before they are added to a page.
package imageinfo

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrUnsupported = errors.New("unsupported image format")

// Info is the format and pixel size of an image.
type Info struct {
	// Format is upper case, e.g. "PNG" or "JPEG".
	Format string
	Width  int
	Height int
}

// Detect reads only the image header.
func Detect(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, fmt.Errorf("%w: empty data", ErrUnsupported)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return Info{}, ErrUnsupported
		}
		return Info{}, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, fmt.Errorf("%w: %dx%d image", ErrUnsupported, cfg.Width, cfg.Height)
	}
	return Info{Format: strings.ToUpper(format), Width: cfg.Width, Height: cfg.Height}, nil
}
