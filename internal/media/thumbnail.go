package media

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"image-viewer/internal/database"
	"image-viewer/internal/item"
	"image-viewer/internal/logging"
	"image-viewer/internal/metrics"
)

// Sides of the two cached thumbnail sizes. Thumbnails of any other side are
// generated on every request.
const (
	SideNormal = 128
	SideLarge  = 256
)

// ErrThumbnailsDisabled is returned when thumbnail generation is turned off.
var ErrThumbnailsDisabled = errors.New("thumbnails disabled")

// Index is the part of the thumbnail index the generator uses.
type Index interface {
	Get(ctx context.Context, uri string, side int) (*database.ThumbnailEntry, error)
	Upsert(ctx context.Context, entry *database.ThumbnailEntry) error
	Delete(ctx context.Context, uri string) (int64, error)
}

// ThumbnailGenerator produces thumbnails for completed items and caches the
// standard sizes as PNG files under <cacheDir>/thumbnails.
type ThumbnailGenerator struct {
	cacheDir string
	side     int
	enabled  bool
	index    Index
	log      logging.Component
}

// NewThumbnailGenerator creates a generator for thumbnails fitting a side x
// side square. With a nil index nothing is cached.
func NewThumbnailGenerator(cacheDir string, side int, enabled bool, index Index) *ThumbnailGenerator {
	log := logging.For("thumbnail")
	if side <= 0 {
		side = SideNormal
	}
	t := &ThumbnailGenerator{
		cacheDir: cacheDir,
		side:     side,
		enabled:  enabled,
		index:    index,
		log:      log,
	}

	if !enabled {
		log.Debug("disabled")
		return t
	}
	if t.cacheable() {
		if err := os.MkdirAll(filepath.Dir(t.CachePath("")), 0o755); err != nil {
			log.Warn("failed to create cache dir: %v", err)
		}
	}
	log.Debug("enabled, side %d, cache dir: %s", side, cacheDir)
	return t
}

// IsEnabled reports whether thumbnails are generated at all.
func (t *ThumbnailGenerator) IsEnabled() bool {
	return t.enabled
}

// Side returns the thumbnail bounding side.
func (t *ThumbnailGenerator) Side() int {
	return t.side
}

func (t *ThumbnailGenerator) cacheable() bool {
	return t.index != nil && t.cacheDir != "" && sizeDir(t.side) != ""
}

func sizeDir(side int) string {
	switch side {
	case SideNormal:
		return "normal"
	case SideLarge:
		return "large"
	default:
		return ""
	}
}

// cacheName is the cache file for uri, relative to the cache directory.
func (t *ThumbnailGenerator) cacheName(uri string) string {
	return filepath.Join("thumbnails", sizeDir(t.side), fmt.Sprintf("%x.png", md5.Sum([]byte(uri))))
}

// CachePath returns where the thumbnail of uri is cached.
func (t *ThumbnailGenerator) CachePath(uri string) string {
	return filepath.Join(t.cacheDir, t.cacheName(uri))
}

// Thumbnail returns a thumbnail of it, from the cache when the cached copy
// was made from the current version of the file.
func (t *ThumbnailGenerator) Thumbnail(ctx context.Context, it *item.Item) (image.Image, error) {
	if !t.enabled {
		return nil, ErrThumbnailsDisabled
	}
	if it.NeedsFetch() {
		return nil, item.ErrNotFetched
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	uri := it.URI()
	modTime := it.ModTime()
	cache := t.cacheable() && !modTime.IsZero()

	if cache {
		if img, ok := t.lookup(ctx, uri, modTime); ok {
			return img, nil
		}
	}

	thumb, err := t.generate(it.Path())
	if err != nil {
		return nil, err
	}

	if cache {
		if err := t.store(ctx, uri, modTime, thumb); err != nil {
			t.log.Warn("Failed to cache thumbnail for %s: %v", uri, err)
		}
	}
	return thumb, nil
}

func (t *ThumbnailGenerator) lookup(ctx context.Context, uri string, modTime time.Time) (image.Image, bool) {
	entry, err := t.index.Get(ctx, uri, t.side)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			t.log.Warn("Thumbnail index lookup failed for %s: %v", uri, err)
		}
		metrics.ThumbnailCacheMisses.Inc()
		return nil, false
	}

	if !entry.SourceModTime.Equal(modTime) {
		t.log.Debug("Cached thumbnail for %s is stale", uri)
		metrics.ThumbnailCacheStale.Inc()
		return nil, false
	}

	img, err := imaging.Open(filepath.Join(t.cacheDir, entry.File))
	if err != nil {
		t.log.Debug("Cached thumbnail for %s unreadable: %v", uri, err)
		metrics.ThumbnailCacheMisses.Inc()
		return nil, false
	}

	metrics.ThumbnailCacheHits.Inc()
	t.log.Debug("Thumbnail cache hit: %s", uri)
	return img, true
}

func (t *ThumbnailGenerator) generate(path string) (image.Image, error) {
	start := time.Now()
	img, decoder, err := decodeForThumbnail(path, t.side)

	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusFailed
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues(decoder, status).Inc()
	metrics.ThumbnailGenerationDuration.WithLabelValues(decoder).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, fmt.Errorf("thumbnail generation failed: %w", err)
	}
	return imaging.Fit(img, t.side, t.side, imaging.Lanczos), nil
}

// store writes thumb to the cache and records it in the index. The file is
// renamed into place so readers never see a partial image.
func (t *ThumbnailGenerator) store(ctx context.Context, uri string, modTime time.Time, thumb image.Image) error {
	name := t.cacheName(uri)
	final := filepath.Join(t.cacheDir, name)

	tmp, err := os.CreateTemp(filepath.Dir(final), ".thumb-*.png")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := imaging.Encode(tmp, thumb, imaging.PNG); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return fmt.Errorf("failed to move thumbnail into place: %w", err)
	}

	bounds := thumb.Bounds()
	return t.index.Upsert(ctx, &database.ThumbnailEntry{
		URI:           uri,
		Side:          t.side,
		File:          name,
		SourceModTime: modTime,
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
	})
}

// Invalidate drops the cached thumbnails of uri.
func (t *ThumbnailGenerator) Invalidate(ctx context.Context, uri string) error {
	if t.index == nil || t.cacheDir == "" {
		return nil
	}

	var errs []error
	for _, dir := range []string{"normal", "large"} {
		p := filepath.Join(t.cacheDir, "thumbnails", dir, fmt.Sprintf("%x.png", md5.Sum([]byte(uri))))
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if _, err := t.index.Delete(ctx, uri); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
