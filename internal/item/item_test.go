package item

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want Method
	}{
		{"-", MethodStdin},
		{"--", MethodLocal},
		{"http://example.com/a.jpg", MethodHTTP},
		{"HTTP://EXAMPLE.COM/A.JPG", MethodHTTP},
		{"https://example.com/a.jpg", MethodHTTP},
		{"HttpS://example.com", MethodHTTP},
		{"ftp://example.com/a.jpg", MethodFTP},
		{"FTP://example.com/a.jpg", MethodFTP},
		{"mirror-ftp://example.com/a.jpg", MethodLocal},
		{"photos/http://weird", MethodLocal},
		{"/home/user/a.jpg", MethodLocal},
		{"", MethodLocal},
		{"http:/", MethodLocal},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := Classify(tt.path)
			if got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.path, got, tt.want)
			}
			for i := 0; i < 3; i++ {
				if again := Classify(tt.path); again != got {
					t.Fatalf("Classify(%q) not stable: %v then %v", tt.path, got, again)
				}
			}
		})
	}
}

func TestMethodNeedsFetch(t *testing.T) {
	t.Parallel()

	for _, m := range Methods() {
		want := m != MethodLocal
		if got := m.NeedsFetch(); got != want {
			t.Errorf("%v.NeedsFetch() = %v, want %v", m, got, want)
		}
	}
	if Method(42).String() != "unknown" {
		t.Errorf("unexpected name for invalid method: %s", Method(42))
	}
}

func TestNewSetsFetchFlag(t *testing.T) {
	t.Parallel()

	if New("/tmp/a.jpg").NeedsFetch() {
		t.Error("local item should not need fetching")
	}
	if !New("http://example.com/a.jpg").NeedsFetch() {
		t.Error("http item should need fetching")
	}
	if !New("-").NeedsFetch() {
		t.Error("stdin item should need fetching")
	}
}

func TestDerivedNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		wantName string
		wantExt  string
		wantDir  string
		wantURI  string
	}{
		{
			name:     "absolute local",
			path:     "/srv/photos/cat.JPG",
			wantName: "cat.JPG",
			wantExt:  "JPG",
			wantDir:  "/srv/photos",
			wantURI:  "file:///srv/photos/cat.JPG",
		},
		{
			name:     "local without extension",
			path:     "/srv/photos/README",
			wantName: "README",
			wantExt:  "",
			wantDir:  "/srv/photos",
			wantURI:  "file:///srv/photos/README",
		},
		{
			name:     "http with query",
			path:     "http://example.com/gallery/pic.png?size=large",
			wantName: "pic.png",
			wantExt:  "png",
			wantDir:  "http://example.com/gallery",
			wantURI:  "http://example.com/gallery/pic.png?size=large",
		},
		{
			name:     "dotted host without path",
			path:     "http://example.com",
			wantName: "example.com",
			wantExt:  "com",
			wantDir:  "http:/",
			wantURI:  "http://example.com",
		},
		{
			name:     "stdin",
			path:     "-",
			wantName: "stdin",
			wantExt:  "",
			wantDir:  ".",
			wantURI:  "stdin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := New(tt.path)
			if got := it.Name(); got != tt.wantName {
				t.Errorf("Name() = %q, want %q", got, tt.wantName)
			}
			if got := it.Ext(); got != tt.wantExt {
				t.Errorf("Ext() = %q, want %q", got, tt.wantExt)
			}
			if got := it.Dir(); got != tt.wantDir {
				t.Errorf("Dir() = %q, want %q", got, tt.wantDir)
			}
			if got := it.URI(); got != tt.wantURI {
				t.Errorf("URI() = %q, want %q", got, tt.wantURI)
			}
			if it.Key() != it.URI() {
				t.Errorf("Key() = %q, want URI %q", it.Key(), it.URI())
			}
		})
	}
}

func TestRelativeURIIsAbsolute(t *testing.T) {
	t.Parallel()

	it := New("relative/pic.png")
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := "file://" + filepath.ToSlash(filepath.Join(wd, "relative/pic.png"))
	if got := it.URI(); got != want {
		t.Errorf("URI() = %q, want %q", got, want)
	}
}

func TestTildeExpansion(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	it := New("~/pics/a.png")
	want := "file://" + filepath.ToSlash(filepath.Join(home, "pics/a.png"))
	if got := it.URI(); got != want {
		t.Errorf("URI() = %q, want %q", got, want)
	}
}

func TestPathPrefersTemp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tmp := filepath.Join(dir, "fetch-1")
	if err := os.WriteFile(tmp, []byte("data"), 0o600); err != nil {
		t.Fatal(err)
	}

	it := New("http://example.com/a.jpg")
	if it.Path() != "http://example.com/a.jpg" {
		t.Fatalf("Path() before fetch = %q", it.Path())
	}
	if it.Size() != UnknownSize {
		t.Errorf("Size() of an unfetched remote item should be unknown, got %d", it.Size())
	}

	it.AttachTemp(tmp)
	it.MarkFetched()
	if it.Path() != tmp {
		t.Errorf("Path() = %q, want temp %q", it.Path(), tmp)
	}
	if it.NeedsFetch() {
		t.Error("NeedsFetch should be cleared by MarkFetched")
	}
	if it.Size() != 4 {
		t.Errorf("Size() = %d, want 4", it.Size())
	}
	if it.ModTime().IsZero() {
		t.Error("ModTime() should be known once the temp copy exists")
	}
}

func TestCloseRemovesTempOnce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tmp := filepath.Join(dir, "fetch-2")
	if err := os.WriteFile(tmp, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	it := New("-")
	it.AttachTemp(tmp)

	if err := it.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Errorf("temp file should be removed, stat err = %v", err)
	}
	if it.TempPath() != "" {
		t.Errorf("TempPath() = %q after close", it.TempPath())
	}
	if err := it.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}

func TestSizeUnknownForMissingFile(t *testing.T) {
	t.Parallel()

	it := New(filepath.Join(t.TempDir(), "missing.png"))
	if it.Size() != UnknownSize {
		t.Errorf("Size() = %d, want UnknownSize", it.Size())
	}
	if !it.ModTime().IsZero() {
		t.Errorf("ModTime() = %v, want zero", it.ModTime())
	}
}

func TestSave(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	if err := os.WriteFile(src, []byte("image bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(dir, "out.png")
	if err := New(src).Save(dst); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "image bytes" {
		t.Errorf("saved content = %q", data)
	}

	if err := New("http://example.com/a.png").Save(dst); !errors.Is(err, ErrNotFetched) {
		t.Errorf("Save() of unfetched item = %v, want ErrNotFetched", err)
	}
}

func TestRenameLocal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "old.png")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	it := New(src)
	oldURI := it.URI()
	if it.Name() != "old.png" || it.Ext() != "png" {
		t.Fatalf("unexpected names before rename: %q %q", it.Name(), it.Ext())
	}

	if err := it.Rename("new.gif"); err != nil {
		t.Fatalf("Rename() error: %v", err)
	}

	if it.Name() != "new.gif" {
		t.Errorf("Name() = %q after rename", it.Name())
	}
	if it.Ext() != "gif" {
		t.Errorf("Ext() = %q after rename", it.Ext())
	}
	if it.URI() == oldURI || !strings.HasSuffix(it.URI(), "/new.gif") {
		t.Errorf("URI() = %q should reflect the new name", it.URI())
	}
	if it.OriginalPath() != filepath.Join(dir, "new.gif") {
		t.Errorf("OriginalPath() = %q", it.OriginalPath())
	}
	if _, err := os.Stat(filepath.Join(dir, "new.gif")); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}
}

func TestRenameFetchedKeepsTemp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tmp := filepath.Join(dir, "fetch-3")
	if err := os.WriteFile(tmp, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	it := New("http://example.com/a.jpg")
	it.AttachTemp(tmp)
	it.MarkFetched()

	if err := it.Rename("kept.jpg"); err != nil {
		t.Fatalf("Rename() error: %v", err)
	}
	want := filepath.Join(dir, "kept.jpg")
	if it.TempPath() != want || it.Path() != want {
		t.Errorf("TempPath() = %q, Path() = %q, want %q", it.TempPath(), it.Path(), want)
	}
	if it.Name() != "kept.jpg" {
		t.Errorf("Name() = %q", it.Name())
	}
}

func TestRenameErrors(t *testing.T) {
	t.Parallel()

	if err := New("http://example.com/a.jpg").Rename("b.jpg"); !errors.Is(err, ErrNotFetched) {
		t.Errorf("Rename() of unfetched item = %v, want ErrNotFetched", err)
	}

	it := New(filepath.Join(t.TempDir(), "missing.png"))
	if err := it.Rename("other.png"); err == nil {
		t.Error("Rename() of a missing file should fail")
	}
	if it.Name() != "missing.png" {
		t.Errorf("failed rename changed the name to %q", it.Name())
	}

	if err := it.Rename("a/b.png"); err == nil {
		t.Error("Rename() with a separator should fail")
	}
	if err := it.Rename(""); err == nil {
		t.Error("Rename() with an empty name should fail")
	}
}
