package fetch

import (
	"context"
	"image"

	"image-viewer/internal/item"
	"image-viewer/internal/links"
)

// ProgressSink tracks how many items are expected and how many are done.
// Implementations must be safe for use from any goroutine.
type ProgressSink interface {
	// AddToTotal adjusts the expected item count by n, which may be
	// negative.
	AddToTotal(n int)
	SetTotal(total uint)
	Advance(n int)
	Total() uint
	HideProgress()
}

// DisplaySink receives completed items.
type DisplaySink interface {
	PresentAsCurrentImage(it *item.Item)
	AddThumbnail(it *item.Item, thumb image.Image)
	// ThumbnailMode reports whether the display shows a thumbnail grid, in
	// which case no item is presented automatically.
	ThumbnailMode() bool
}

// ThumbnailProvider produces thumbnails for completed items.
type ThumbnailProvider interface {
	Thumbnail(ctx context.Context, it *item.Item) (image.Image, error)
}

// Fetcher makes the bytes of an item available locally.
type Fetcher interface {
	Fetch(ctx context.Context, it *item.Item) error
}

// Extractor finds image URLs in a fetched document.
type Extractor interface {
	ExtractFile(path, docURI string) ([]string, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(path, docURI string) ([]string, error)

// ExtractFile calls f(path, docURI).
func (f ExtractorFunc) ExtractFile(path, docURI string) ([]string, error) {
	return f(path, docURI)
}

// HTMLExtractor scans fetched documents for <img> tags.
var HTMLExtractor Extractor = ExtractorFunc(links.ExtractFile)
