package media

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"image-viewer/internal/filesystem"
	"image-viewer/internal/logging"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoder names, used as metric labels.
const (
	DecoderVips    = "vips"
	DecoderImaging = "imaging"
	DecoderStdlib  = "stdlib"
)

// MaxImagePixels is the largest source, in pixels, that is decoded at full
// size. libvips shrinks on load and is not bound by it.
const MaxImagePixels = 40_000_000

var errTooLarge = errors.New("image too large to decode")

// ImageSize reads the width and height from the image header.
func ImageSize(path string) (image.Point, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return image.Point{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(cfg.Width, cfg.Height), nil
}

type decoder struct {
	name   string
	decode func(path string, side int) (image.Image, error)
}

// decoders are tried in order until one succeeds.
var decoders = []decoder{
	{DecoderVips, LoadImageWithVips},
	{DecoderImaging, func(path string, _ int) (image.Image, error) {
		return imaging.Open(path, imaging.AutoOrientation(true))
	}},
	{DecoderStdlib, func(path string, _ int) (image.Image, error) {
		f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		return img, err
	}},
}

// decodeForThumbnail returns path decoded by the first decoder that accepts
// it, and that decoder's name. On failure the name is the last decoder
// tried. Full-size decoders refuse sources over MaxImagePixels.
func decodeForThumbnail(path string, side int) (image.Image, string, error) {
	var errs []error
	name := DecoderVips
	sized := false
	for _, d := range decoders {
		if d.name != DecoderVips && !sized {
			sized = true
			if size, err := ImageSize(path); err == nil && size.X*size.Y > MaxImagePixels {
				return nil, d.name, fmt.Errorf("%s (%dx%d): %w", path, size.X, size.Y, errTooLarge)
			}
		}

		name = d.name
		img, err := d.decode(path, side)
		if err == nil {
			return img, d.name, nil
		}
		if !errors.Is(err, errVipsUnavailable) {
			logging.Debug("%s decoder failed for %s: %v", d.name, path, err)
			errs = append(errs, fmt.Errorf("%s: %w", d.name, err))
		}
	}
	return nil, name, fmt.Errorf("no decoder could read %s: %w", path, errors.Join(errs...))
}
