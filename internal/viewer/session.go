package viewer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"image-viewer/internal/item"
	"image-viewer/internal/logging"
)

// CacheInvalidator drops cached data for a URI that no longer exists.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, uri string) error
}

// Thumbnail is a thumbnail as it arrived from the pipeline.
type Thumbnail struct {
	Item  *item.Item
	Image image.Image
}

// Snapshot is a copy of the viewer state.
type Snapshot struct {
	Mode            string   `json:"mode"`
	Total           uint     `json:"total"`
	Done            int      `json:"done"`
	ProgressVisible bool     `json:"progressVisible"`
	Current         string   `json:"current,omitempty"`
	Thumbnails      []string `json:"thumbnails"`
}

// Session is the viewer side of a run. It receives progress and completed
// items from the pipeline and keeps them for display; every method is safe
// for concurrent use.
type Session struct {
	mode  Mode
	cache CacheInvalidator
	log   logging.Component

	mu              sync.Mutex
	total           int
	done            int
	progressVisible bool
	current         *item.Item
	thumbnails      []Thumbnail
}

// NewSession creates a session. cache may be nil.
func NewSession(mode Mode, cache CacheInvalidator) *Session {
	return &Session{
		mode:  mode,
		cache: cache,
		log:   logging.For("viewer"),
	}
}

// Mode returns the display mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// AddToTotal adjusts the number of expected items. The total never drops
// below zero.
func (s *Session) AddToTotal(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total += n
	if s.total < 0 {
		s.total = 0
	}
}

// SetTotal sets the number of expected items and shows the progress
// indicator.
func (s *Session) SetTotal(total uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = int(total)
	s.progressVisible = true
}

// Advance records n more finished items.
func (s *Session) Advance(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done += n
}

// Total returns the number of expected items.
func (s *Session) Total() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint(s.total)
}

// Done returns the number of finished items.
func (s *Session) Done() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// HideProgress hides the progress indicator at the end of a run.
func (s *Session) HideProgress() {
	s.mu.Lock()
	total, done := s.total, s.done
	s.progressVisible = false
	s.mu.Unlock()

	s.log.Info("Loaded %d of %d images", done, total)
}

// PresentAsCurrentImage makes it the image on screen.
func (s *Session) PresentAsCurrentImage(it *item.Item) {
	s.mu.Lock()
	s.current = it
	s.mu.Unlock()

	s.log.Info("Showing %s", it.OriginalPath())
}

// AddThumbnail appends a thumbnail in arrival order.
func (s *Session) AddThumbnail(it *item.Item, thumb image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thumbnails = append(s.thumbnails, Thumbnail{Item: it, Image: thumb})
}

// ThumbnailMode reports whether the session shows a thumbnail grid.
func (s *Session) ThumbnailMode() bool {
	return s.mode == ModeThumb
}

// Current returns the image on screen, or nil.
func (s *Session) Current() *item.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Thumbnails returns the thumbnails received so far.
func (s *Session) Thumbnails() []Thumbnail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Thumbnail, len(s.thumbnails))
	copy(out, s.thumbnails)
	return out
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Mode:            s.mode.String(),
		Total:           uint(s.total),
		Done:            s.done,
		ProgressVisible: s.progressVisible,
		Thumbnails:      make([]string, len(s.thumbnails)),
	}
	if s.current != nil {
		snap.Current = s.current.OriginalPath()
	}
	for i, t := range s.thumbnails {
		snap.Thumbnails[i] = t.Item.OriginalPath()
	}
	return snap
}

// Rename gives the file behind it a new name in the same directory and drops
// cached thumbnails of the old name.
func (s *Session) Rename(ctx context.Context, it *item.Item, name string) error {
	oldURI := it.URI()
	if err := it.Rename(name); err != nil {
		return fmt.Errorf("failed to rename %s: %w", it.OriginalPath(), err)
	}
	s.log.Info("Renamed %s to %s", oldURI, it.URI())

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, oldURI); err != nil {
			s.log.Warn("Failed to drop cached thumbnails of %s: %v", oldURI, err)
		}
	}
	return nil
}

// Save copies the content of it to dst.
func (s *Session) Save(it *item.Item, dst string) error {
	if err := it.Save(dst); err != nil {
		return fmt.Errorf("failed to save %s: %w", it.OriginalPath(), err)
	}
	s.log.Info("Saved %s to %s", it.OriginalPath(), dst)
	return nil
}

// Close tears down items and forgets what was displayed. Temporary copies
// of fetched items are removed.
func (s *Session) Close(items []*item.Item) error {
	s.mu.Lock()
	s.current = nil
	s.thumbnails = nil
	s.mu.Unlock()

	var errs []error
	for _, it := range items {
		if err := it.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		s.log.Warn("%d items failed to clean up", len(errs))
	}
	return errors.Join(errs...)
}
