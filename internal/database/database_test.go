package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func setupTestIndex(t *testing.T) *ThumbnailIndex {
	t.Helper()

	x, err := New(context.Background(), filepath.Join(t.TempDir(), "thumbnails.db"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() {
		if err := x.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	})
	return x
}

func TestNewCreatesSchema(t *testing.T) {
	t.Parallel()

	x := setupTestIndex(t)
	if _, err := os.Stat(x.Path()); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
	n, err := x.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
}

func TestNewMissingDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "thumbnails.db")
	if _, err := New(context.Background(), path); err == nil {
		t.Error("New() in a missing directory should fail")
	}
}

func TestGetNotFound(t *testing.T) {
	t.Parallel()

	x := setupTestIndex(t)
	_, err := x.Get(context.Background(), "file:///nope.png", 128)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestUpsertAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	x := setupTestIndex(t)
	mtime := time.Date(2024, 3, 1, 12, 30, 0, 123456789, time.UTC)

	entry := &ThumbnailEntry{
		URI:           "file:///pics/a.png",
		Side:          128,
		File:          "thumbnails/normal/abc.png",
		SourceModTime: mtime,
		Width:         128,
		Height:        96,
	}
	if err := x.Upsert(ctx, entry); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	got, err := x.Get(ctx, entry.URI, 128)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.File != entry.File || got.Width != 128 || got.Height != 96 || got.Side != 128 {
		t.Errorf("Get() = %+v, want %+v", got, entry)
	}
	if !got.SourceModTime.Equal(mtime) {
		t.Errorf("SourceModTime = %v, want %v", got.SourceModTime, mtime)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	// Other sides are separate entries.
	if _, err := x.Get(ctx, entry.URI, 256); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() at another side error = %v, want ErrNotFound", err)
	}

	// Upsert replaces.
	entry.SourceModTime = mtime.Add(time.Hour)
	entry.Height = 80
	if err := x.Upsert(ctx, entry); err != nil {
		t.Fatalf("second Upsert() error: %v", err)
	}
	got, err = x.Get(ctx, entry.URI, 128)
	if err != nil {
		t.Fatal(err)
	}
	if got.Height != 80 || !got.SourceModTime.Equal(entry.SourceModTime) {
		t.Errorf("Get() after update = %+v", got)
	}
	if n, _ := x.Count(ctx); n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	x := setupTestIndex(t)
	for _, side := range []int{128, 256} {
		err := x.Upsert(ctx, &ThumbnailEntry{URI: "http://h/a.png", Side: side, File: "f", SourceModTime: time.Now()})
		if err != nil {
			t.Fatal(err)
		}
	}
	if err := x.Upsert(ctx, &ThumbnailEntry{URI: "http://h/b.png", Side: 128, File: "g", SourceModTime: time.Now()}); err != nil {
		t.Fatal(err)
	}

	n, err := x.Delete(ctx, "http://h/a.png")
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if n != 2 {
		t.Errorf("Delete() = %d, want 2", n)
	}
	if total, _ := x.Count(ctx); total != 1 {
		t.Errorf("Count() = %d, want 1", total)
	}
	if n, _ := x.Delete(ctx, "http://h/a.png"); n != 0 {
		t.Errorf("second Delete() = %d, want 0", n)
	}
}

func TestConcurrentUpserts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	x := setupTestIndex(t)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- x.Upsert(ctx, &ThumbnailEntry{
				URI:           "http://h/same.png",
				Side:          128,
				File:          "f",
				SourceModTime: time.Unix(int64(i), 0),
			})
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Upsert() error: %v", err)
		}
	}
	if n, _ := x.Count(ctx); n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "thumbnails.db")

	x, err := New(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := x.Upsert(ctx, &ThumbnailEntry{URI: "u", Side: 128, File: "f", SourceModTime: time.Unix(5, 0)}); err != nil {
		t.Fatal(err)
	}
	if err := x.Close(); err != nil {
		t.Fatal(err)
	}

	y, err := New(ctx, path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer y.Close()
	if _, err := y.Get(ctx, "u", 128); err != nil {
		t.Errorf("Get() after reopen error: %v", err)
	}
}

func TestRecordQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{"successful query", nil},
		{"failed query", errors.New("test error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Must not panic for either status.
			recordQuery("test_operation", time.Now(), tt.err)
		})
	}
}

func TestListAndClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	x := setupTestIndex(t)
	mtime := time.Unix(0, 1_700_000_000_123_456_789)
	for _, e := range []ThumbnailEntry{
		{URI: "http://h/b.png", Side: 128, File: "b128", SourceModTime: mtime},
		{URI: "http://h/a.png", Side: 256, File: "a256", SourceModTime: mtime},
		{URI: "http://h/a.png", Side: 128, File: "a128", SourceModTime: mtime},
	} {
		if err := x.Upsert(ctx, &e); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := x.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	var files []string
	for _, e := range entries {
		files = append(files, e.File)
	}
	if want := []string{"a128", "a256", "b128"}; strings.Join(files, ",") != strings.Join(want, ",") {
		t.Errorf("List() files = %v, want %v", files, want)
	}
	if !entries[0].SourceModTime.Equal(mtime) {
		t.Errorf("SourceModTime = %v, want %v", entries[0].SourceModTime, mtime)
	}

	n, err := x.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	if entries, _ := x.List(ctx); len(entries) != 0 {
		t.Errorf("List() after Clear() = %v", entries)
	}
}
