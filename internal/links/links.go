package links

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"image-viewer/internal/filesystem"
)

var (
	imgTag  = []byte("img")
	srcAttr = []byte("src=")
)

// Extract scans r for <img> tags and returns the absolute URL of every src
// attribute found, in document order. docURI is the URI the document was
// fetched from and is used to resolve relative references.
//
// The scan is byte oriented and never fails on malformed markup: a tag cut
// off by the end of input is still examined, and a tag without src= is
// ignored. Read errors end the scan early and are returned along with the
// URLs found so far.
func Extract(r io.Reader, docURI string) ([]string, error) {
	site := SiteOf(docURI)
	dir := DirOf(docURI)

	br := bufio.NewReader(r)
	var urls []string
	var tag bytes.Buffer

	for {
		c, err := br.ReadByte()
		if err != nil {
			return urls, ignoreEOF(err)
		}
		if c != '<' {
			continue
		}

		// Peek so that a near miss such as "<<img" does not swallow the
		// second '<'.
		next, err := br.Peek(len(imgTag))
		if err != nil && len(next) < len(imgTag) {
			return urls, ignoreEOF(err)
		}
		if !bytes.EqualFold(next, imgTag) {
			continue
		}
		if _, err := br.Discard(len(imgTag)); err != nil {
			return urls, ignoreEOF(err)
		}

		tag.Reset()
		tag.WriteString("<img")
		rest, err := br.ReadBytes('>')
		tag.Write(rest)

		if src, ok := srcValue(tag.Bytes()); ok {
			urls = append(urls, BuildURL(site, dir, src))
		}
		if err != nil {
			return urls, ignoreEOF(err)
		}
	}
}

// ExtractFile runs Extract over the file at path.
func ExtractFile(path, docURI string) ([]string, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for link extraction: %w", path, err)
	}
	defer f.Close()

	urls, err := Extract(f, docURI)
	if err != nil {
		return urls, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return urls, nil
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// srcValue returns the value of the first src= attribute in tag. The value
// may be single quoted, double quoted or bare; a bare value ends at
// whitespace or at the closing '>'. An unterminated quote runs to the end
// of the tag.
func srcValue(tag []byte) (string, bool) {
	idx := indexFold(tag, srcAttr)
	if idx < 0 {
		return "", false
	}
	value := tag[idx+len(srcAttr):]
	value = bytes.TrimSuffix(value, []byte(">"))

	var end int
	switch {
	case len(value) > 0 && (value[0] == '"' || value[0] == '\''):
		quote := value[0]
		value = value[1:]
		end = bytes.IndexByte(value, quote)
	default:
		end = bytes.IndexFunc(value, isSpace)
	}
	if end < 0 {
		end = len(value)
	}

	src := string(value[:end])
	if src == "" {
		return "", false
	}
	return src, true
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

// indexFold is a case-insensitive bytes.Index for ASCII needles.
func indexFold(s, sep []byte) int {
	n := len(sep)
	for i := 0; i+n <= len(s); i++ {
		if bytes.EqualFold(s[i:i+n], sep) {
			return i
		}
	}
	return -1
}

// BuildURL resolves src against the site and directory of the document it
// appeared in.
//
//	BuildURL("http://h", "gallery", "/abs/a.png")    // http://h/abs/a.png
//	BuildURL("http://h", "gallery", "https://c/b.png") // https://c/b.png
//	BuildURL("http://h", "gallery", "c.png")         // http://h/gallery/c.png
func BuildURL(site, dir, src string) string {
	switch {
	case strings.HasPrefix(src, "/"):
		return site + src
	case hasPrefixFold(src, "http://"), hasPrefixFold(src, "https://"):
		return src
	case dir == "":
		return site + "/" + src
	default:
		return site + "/" + dir + "/" + src
	}
}

// hostStart is the offset of the host in uri, just past "://", or -1 when
// uri has no scheme.
func hostStart(uri string) int {
	idx := strings.Index(uri, "://")
	if idx < 0 {
		return -1
	}
	return idx + len("://")
}

// pathStart is the offset of the '/' that ends the host, or -1.
func pathStart(uri string) int {
	host := hostStart(uri)
	if host < 0 {
		return -1
	}
	idx := strings.IndexByte(uri[host:], '/')
	if idx < 0 {
		return -1
	}
	return host + idx
}

// SiteOf returns the scheme and host of uri, everything before the first
// '/' after the scheme. A uri without a path is returned whole.
func SiteOf(uri string) string {
	if p := pathStart(uri); p >= 0 {
		return uri[:p]
	}
	return uri
}

// DirOf returns the directory part of the path of uri, without leading or
// trailing slashes: "gallery/2024" for "http://h/gallery/2024/page.html",
// "" for a document at the site root.
func DirOf(uri string) string {
	p := pathStart(uri)
	if p < 0 {
		return ""
	}
	path := uri[p+1:]
	end := strings.LastIndexByte(path, '/')
	if end < 0 {
		return ""
	}
	return path[:end]
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
