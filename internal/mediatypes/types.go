package mediatypes

import "strings"

// FileType represents the type of a fetched file.
type FileType string

const (
	// FileTypeImage represents a directly displayable image.
	FileTypeImage FileType = "image"
	// FileTypeDocument represents a markup document that may reference images.
	FileTypeDocument FileType = "document"
	// FileTypeOther represents an unknown or unsupported file type.
	FileTypeOther FileType = "other"
)

// ImageExtensions maps lowercase extensions (without the dot) to whether they
// are displayable images. Anything else that is fetched is scanned for image
// links instead.
var ImageExtensions = map[string]bool{
	"bmp":  true,
	"gif":  true,
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"svg":  true,
	"tiff": true,
	"xpm":  true,
}

// DocumentExtensions maps lowercase extensions to markup documents.
var DocumentExtensions = map[string]bool{
	"htm":   true,
	"html":  true,
	"xhtml": true,
	"php":   true,
}

// MimeTypes maps lowercase extensions to their MIME types.
var MimeTypes = map[string]string{
	"bmp":   "image/bmp",
	"gif":   "image/gif",
	"jpg":   "image/jpeg",
	"jpeg":  "image/jpeg",
	"png":   "image/png",
	"svg":   "image/svg+xml",
	"tiff":  "image/tiff",
	"xpm":   "image/x-xpixmap",
	"htm":   "text/html",
	"html":  "text/html",
	"xhtml": "application/xhtml+xml",
}

// normalize lowercases ext and strips a leading dot so both ".JPG" and "jpg"
// are accepted.
func normalize(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsImage reports whether ext is a recognized image extension. The check is
// case-insensitive and tolerates a leading dot.
func IsImage(ext string) bool {
	return ImageExtensions[normalize(ext)]
}

// GetFileType returns the FileType for a given file extension.
func GetFileType(ext string) FileType {
	ext = normalize(ext)
	if ImageExtensions[ext] {
		return FileTypeImage
	}
	if DocumentExtensions[ext] {
		return FileTypeDocument
	}
	return FileTypeOther
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[normalize(ext)]; ok {
		return mime
	}
	return "application/octet-stream"
}
