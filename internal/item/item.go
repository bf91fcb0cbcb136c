package item

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ErrNotFetched is returned by operations that need local bytes for an item
// that has not been fetched yet.
var ErrNotFetched = errors.New("item has not been fetched")

// UnknownSize is the Size value before the file has been stat'ed.
const UnknownSize int64 = -1

// memo is a lazily computed string.
type memo struct {
	value string
	ok    bool
}

func (m *memo) get(compute func() string) string {
	if !m.ok {
		m.value = compute()
		m.ok = true
	}
	return m.value
}

// Item is one candidate file or URI to acquire and display.
//
// The acquisition method is fixed when the item is created. Derived names are
// computed on first use and cached until Rename changes the path. An Item is
// handed from goroutine to goroutine as it moves through the pipeline, but
// its accessors are safe to call concurrently.
type Item struct {
	mu sync.Mutex

	path      string
	method    Method
	tempPath  string
	needFetch bool
	closed    bool

	size    int64
	modTime time.Time

	name memo
	ext  memo
	uri  memo
	dir  memo
}

// New creates an item for path.
func New(path string) *Item {
	method := Classify(path)
	return &Item{
		path:      path,
		method:    method,
		needFetch: method.NeedsFetch(),
		size:      UnknownSize,
	}
}

// OriginalPath returns the path or URI the item was created with.
func (it *Item) OriginalPath() string {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.path
}

// Method returns the acquisition method.
func (it *Item) Method() Method {
	return it.method
}

// Path returns the path to read the item from: the temporary copy once one
// exists, otherwise the original path.
func (it *Item) Path() string {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.tempPath != "" {
		return it.tempPath
	}
	return it.path
}

// TempPath returns the temporary copy, or "" if there is none.
func (it *Item) TempPath() string {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.tempPath
}

// NeedsFetch reports whether the item still has to be fetched.
func (it *Item) NeedsFetch() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.needFetch
}

// Name returns the base name of the item, "stdin" for standard input.
func (it *Item) Name() string {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.name.get(func() string { return createName(it.path, it.method) })
}

// Ext returns the extension of Name without the dot, or "".
func (it *Item) Ext() string {
	name := it.Name()
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.ext.get(func() string {
		idx := strings.LastIndexByte(name, '.')
		if idx < 0 {
			return ""
		}
		return name[idx+1:]
	})
}

// URI returns the canonical identifier of the item. Local paths become
// absolute file:// URIs with a leading ~ expanded, remote items are their
// URL, and standard input is "stdin".
func (it *Item) URI() string {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.uri.get(func() string { return createURI(it.path, it.method) })
}

// Key is the deduplication key for the item. Two items with the same Key
// refer to the same content.
func (it *Item) Key() string {
	return it.URI()
}

// Dir returns the directory containing the item.
func (it *Item) Dir() string {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.dir.get(func() string { return createDir(it.path, it.method) })
}

// Size returns the size in bytes of Path, or UnknownSize if it cannot be
// determined. A successful lookup is cached.
func (it *Item) Size() int64 {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.size == UnknownSize {
		it.statLocked()
	}
	return it.size
}

// ModTime returns the modification time of Path, or the zero time if it
// cannot be determined. A successful lookup is cached.
func (it *Item) ModTime() time.Time {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.modTime.IsZero() {
		it.statLocked()
	}
	return it.modTime
}

func (it *Item) statLocked() {
	p := it.path
	if it.tempPath != "" {
		p = it.tempPath
	}
	if it.method.NeedsFetch() && it.tempPath == "" {
		return
	}
	info, err := os.Stat(p)
	if err != nil {
		return
	}
	it.size = info.Size()
	it.modTime = info.ModTime()
}

// AttachTemp associates a freshly allocated temporary file with the item.
func (it *Item) AttachTemp(tempPath string) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.tempPath = tempPath
	it.size = UnknownSize
	it.modTime = time.Time{}
}

// MarkFetched records that the temporary copy holds the complete content.
func (it *Item) MarkFetched() {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.needFetch = false
}

// CloseTemp removes the temporary copy, if any. The item still needs
// fetching afterwards if it was never fetched successfully.
func (it *Item) CloseTemp() error {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.closeTempLocked()
}

func (it *Item) closeTempLocked() error {
	if it.tempPath == "" {
		return nil
	}
	p := it.tempPath
	it.tempPath = ""
	it.size = UnknownSize
	it.modTime = time.Time{}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove temporary file %s: %w", p, err)
	}
	return nil
}

// Close tears the item down, removing any temporary copy. It is safe to call
// more than once; only the first call has an effect.
func (it *Item) Close() error {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.closed {
		return nil
	}
	it.closed = true
	return it.closeTempLocked()
}

// Save copies the item content to dst.
func (it *Item) Save(dst string) error {
	if it.NeedsFetch() {
		return ErrNotFetched
	}

	in, err := os.Open(it.Path())
	if err != nil {
		return fmt.Errorf("failed to open %s for reading: %w", it.Path(), err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to open %s for writing: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy to %s: %w", dst, err)
	}
	return out.Close()
}

// Rename gives the item a new base name in the directory it lives in. Local
// items are renamed next to the original; fetched items have their
// temporary copy renamed and keep it as their temporary copy. Every derived
// name is recomputed on next use.
func (it *Item) Rename(name string) error {
	if name == "" || strings.ContainsRune(name, filepath.Separator) {
		return fmt.Errorf("invalid name %q", name)
	}

	it.mu.Lock()
	defer it.mu.Unlock()

	var src, dir string
	switch {
	case it.tempPath != "":
		src = it.tempPath
		dir = filepath.Dir(it.tempPath)
	case it.method == MethodLocal:
		src = it.path
		dir = filepath.Dir(it.path)
	default:
		return ErrNotFetched
	}

	dst := filepath.Join(dir, name)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", src, name, err)
	}

	it.path = dst
	if it.tempPath != "" {
		it.tempPath = dst
	}
	it.name = memo{}
	it.ext = memo{}
	it.uri = memo{}
	it.dir = memo{}
	return nil
}

func createName(p string, method Method) string {
	switch method {
	case MethodStdin:
		return "stdin"
	case MethodHTTP, MethodFTP:
		if u, err := url.Parse(p); err == nil && u.Path != "" {
			if base := path.Base(u.Path); base != "/" && base != "." {
				return base
			}
		}
		trimmed := strings.TrimRight(p, "/")
		return trimmed[strings.LastIndexByte(trimmed, '/')+1:]
	default:
		return filepath.Base(p)
	}
}

func createDir(p string, method Method) string {
	switch method {
	case MethodStdin:
		return "."
	case MethodHTTP, MethodFTP:
		idx := strings.LastIndexByte(p, '/')
		if idx < 0 {
			return p
		}
		return p[:idx]
	default:
		return filepath.Dir(p)
	}
}

func createURI(p string, method Method) string {
	switch method {
	case MethodStdin:
		return "stdin"
	case MethodHTTP, MethodFTP:
		return p
	}

	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return "file://" + filepath.ToSlash(p)
}
