package fetch

import (
	"sync"

	"image-viewer/internal/item"
)

// Session is the set of item keys claimed for fetching during one run.
// It only grows.
type Session struct {
	mu   sync.Mutex
	seen map[string]*item.Item
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{seen: make(map[string]*item.Item)}
}

// Claim records it and reports true if its key was not known yet. A false
// result means another item with the same key has already been claimed.
func (s *Session) Claim(it *item.Item) bool {
	key := it.Key()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = it
	return true
}

// Known reports whether key has been claimed.
func (s *Session) Known(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[key]
	return ok
}

// PushUnknown creates an item for every URL whose key has not been claimed
// and hands it to push, all while holding the session lock so no claim can
// interleave. URLs are not claimed here; that happens when the item comes
// back off the queue. It returns the number of items pushed.
func (s *Session) PushUnknown(urls []string, push func(*item.Item)) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, u := range urls {
		it := item.New(u)
		if _, ok := s.seen[it.Key()]; ok {
			continue
		}
		push(it)
		added++
	}
	return added
}

// Len returns the number of claimed keys.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
