package media

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"

	"image-viewer/internal/database"
	"image-viewer/internal/item"
	"image-viewer/internal/logging"
)

func writeTestImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func setupGenerator(t *testing.T, side int) (*ThumbnailGenerator, *database.ThumbnailIndex, string) {
	t.Helper()

	cacheDir := t.TempDir()
	index, err := database.New(context.Background(), filepath.Join(cacheDir, "thumbnails.db"))
	if err != nil {
		t.Fatalf("database.New() error: %v", err)
	}
	t.Cleanup(func() { index.Close() })
	return NewThumbnailGenerator(cacheDir, side, true, index), index, cacheDir
}

func TestThumbnailDisabled(t *testing.T) {
	t.Parallel()

	g := NewThumbnailGenerator(t.TempDir(), SideNormal, false, nil)
	if g.IsEnabled() {
		t.Error("IsEnabled() = true, want false")
	}
	_, err := g.Thumbnail(context.Background(), item.New("a.png"))
	if !errors.Is(err, ErrThumbnailsDisabled) {
		t.Errorf("Thumbnail() error = %v, want ErrThumbnailsDisabled", err)
	}
}

func TestThumbnailNotFetched(t *testing.T) {
	t.Parallel()

	g := NewThumbnailGenerator(t.TempDir(), SideNormal, true, nil)
	_, err := g.Thumbnail(context.Background(), item.New("http://example.com/a.png"))
	if !errors.Is(err, item.ErrNotFetched) {
		t.Errorf("Thumbnail() error = %v, want item.ErrNotFetched", err)
	}
}

func TestThumbnailFitsSide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		side         int
		w, h         int
		wantW, wantH int
	}{
		{"landscape normal", SideNormal, 400, 200, 128, 64},
		{"portrait large", SideLarge, 300, 600, 128, 256},
		{"small source is not enlarged", SideNormal, 40, 30, 40, 30},
		{"uncached side", 100, 200, 200, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g, _, _ := setupGenerator(t, tt.side)
			src := filepath.Join(t.TempDir(), "src.png")
			writeTestImage(t, src, tt.w, tt.h)

			thumb, err := g.Thumbnail(context.Background(), item.New(src))
			if err != nil {
				t.Fatalf("Thumbnail() error: %v", err)
			}
			if b := thumb.Bounds(); b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("thumbnail is %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestThumbnailCached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g, index, _ := setupGenerator(t, SideNormal)
	src := filepath.Join(t.TempDir(), "src.png")
	writeTestImage(t, src, 400, 200)
	it := item.New(src)

	if _, err := g.Thumbnail(ctx, it); err != nil {
		t.Fatalf("Thumbnail() error: %v", err)
	}

	cachePath := g.CachePath(it.URI())
	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("thumbnail not cached at %s: %v", cachePath, err)
	}
	if filepath.Base(filepath.Dir(cachePath)) != "normal" {
		t.Errorf("CachePath() = %s, want a file in thumbnails/normal", cachePath)
	}
	entry, err := index.Get(ctx, it.URI(), SideNormal)
	if err != nil {
		t.Fatalf("index entry missing: %v", err)
	}
	if !entry.SourceModTime.Equal(it.ModTime()) {
		t.Errorf("SourceModTime = %v, want %v", entry.SourceModTime, it.ModTime())
	}

	// Replace the cached file with a marker; a cache hit returns it as is.
	writeTestImage(t, cachePath, 7, 7)
	thumb, err := g.Thumbnail(ctx, item.New(src))
	if err != nil {
		t.Fatal(err)
	}
	if b := thumb.Bounds(); b.Dx() != 7 {
		t.Errorf("second Thumbnail() is %dx%d, want the cached 7x7", b.Dx(), b.Dy())
	}
}

func TestThumbnailStaleSource(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g, _, _ := setupGenerator(t, SideNormal)
	src := filepath.Join(t.TempDir(), "src.png")
	writeTestImage(t, src, 400, 200)

	if _, err := g.Thumbnail(ctx, item.New(src)); err != nil {
		t.Fatal(err)
	}
	cachePath := g.CachePath(item.New(src).URI())
	writeTestImage(t, cachePath, 7, 7)

	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(src, later, later); err != nil {
		t.Fatal(err)
	}

	thumb, err := g.Thumbnail(ctx, item.New(src))
	if err != nil {
		t.Fatal(err)
	}
	if b := thumb.Bounds(); b.Dx() != 128 || b.Dy() != 64 {
		t.Errorf("thumbnail of a changed source is %dx%d, want a fresh 128x64", b.Dx(), b.Dy())
	}
}

func TestThumbnailUncachedSide(t *testing.T) {
	t.Parallel()

	g, _, cacheDir := setupGenerator(t, 100)
	src := filepath.Join(t.TempDir(), "src.png")
	writeTestImage(t, src, 300, 300)

	if _, err := g.Thumbnail(context.Background(), item.New(src)); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(cacheDir, "thumbnails")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("side 100 should not create a cache directory, stat error: %v", err)
	}
}

func TestThumbnailUndecodable(t *testing.T) {
	t.Parallel()

	g, _, _ := setupGenerator(t, SideNormal)
	src := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(src, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := g.Thumbnail(context.Background(), item.New(src)); err == nil {
		t.Error("Thumbnail() of an undecodable file should fail")
	}
}

func TestInvalidate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g, index, _ := setupGenerator(t, SideNormal)
	src := filepath.Join(t.TempDir(), "src.png")
	writeTestImage(t, src, 64, 64)
	it := item.New(src)

	if _, err := g.Thumbnail(ctx, it); err != nil {
		t.Fatal(err)
	}
	if err := g.Invalidate(ctx, it.URI()); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}
	if _, err := os.Stat(g.CachePath(it.URI())); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("cached file should be removed, stat error: %v", err)
	}
	if _, err := index.Get(ctx, it.URI(), SideNormal); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("index entry should be removed, Get() error: %v", err)
	}
}

func TestDecodeFallbacks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name string
		file string
	}{
		{"png", "a.png"},
		{"jpeg", "a.jpg"},
		{"gif", "a.gif"},
		{"bmp", "a.bmp"},
		{"tiff", "a.tiff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(dir, tt.file)
			writeTestImage(t, path, 20, 10)

			img, decoder, err := decodeForThumbnail(path, SideNormal)
			if err != nil {
				t.Fatalf("decodeForThumbnail() error: %v", err)
			}
			if decoder != DecoderImaging {
				t.Errorf("decoder = %q, want %q", decoder, DecoderImaging)
			}
			if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
				t.Errorf("decoded %dx%d, want 20x10", b.Dx(), b.Dy())
			}
		})
	}
}

func TestImageSize(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dims.png")
	writeTestImage(t, path, 33, 17)

	size, err := ImageSize(path)
	if err != nil {
		t.Fatalf("ImageSize() error: %v", err)
	}
	if size != image.Pt(33, 17) {
		t.Errorf("ImageSize() = %v, want (33,17)", size)
	}

	if _, err := ImageSize(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("ImageSize() of a missing file should fail")
	}
}

func TestDecodeUnreadable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "junk.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, decoder, err := decodeForThumbnail(path, SideNormal)
	if err == nil {
		t.Fatal("decodeForThumbnail() of junk should fail")
	}
	if decoder != DecoderStdlib {
		t.Errorf("decoder = %q, want the last one tried", decoder)
	}
}

func TestVipsLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level logging.LogLevel
		want  vips.LogLevel
	}{
		{logging.LevelDebug, vips.LogLevelInfo},
		{logging.LevelInfo, vips.LogLevelWarning},
		{logging.LevelWarn, vips.LogLevelError},
		{logging.LevelError, vips.LogLevelCritical},
	}
	for _, tt := range tests {
		if got := vipsLogLevel(tt.level); got != tt.want {
			t.Errorf("vipsLogLevel(%d) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestLoadImageWithVipsUnavailable(t *testing.T) {
	t.Parallel()

	if IsVipsAvailable() {
		t.Skip("libvips initialized by another test")
	}
	if _, err := LoadImageWithVips("x.png", SideNormal); err == nil {
		t.Error("LoadImageWithVips() without InitVips should fail")
	}
}
