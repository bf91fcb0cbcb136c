package item

import "strings"

// Method is how an item's bytes are acquired.
type Method int

const (
	// MethodLocal is a plain file on a local filesystem.
	MethodLocal Method = iota
	// MethodStdin reads the item from standard input.
	MethodStdin
	// MethodHTTP downloads the item over http or https.
	MethodHTTP
	// MethodFTP downloads the item over ftp.
	MethodFTP
)

// StdinPath is the argument that selects standard input.
const StdinPath = "-"

// String returns the lowercase method name used in logs and metric labels.
func (m Method) String() string {
	switch m {
	case MethodLocal:
		return "local"
	case MethodStdin:
		return "stdin"
	case MethodHTTP:
		return "http"
	case MethodFTP:
		return "ftp"
	default:
		return "unknown"
	}
}

// NeedsFetch reports whether items of this method must be copied to a
// temporary file before they can be read.
func (m Method) NeedsFetch() bool {
	return m != MethodLocal
}

// Methods lists every method, for metric label pre-population.
func Methods() []Method {
	return []Method{MethodLocal, MethodStdin, MethodHTTP, MethodFTP}
}

// Classify determines the acquisition method for path without touching the
// filesystem or network. It is total and pure.
//
// Both the http(s) and the ftp checks are case-insensitive prefix tests.
func Classify(path string) Method {
	switch {
	case path == StdinPath:
		return MethodStdin
	case hasPrefixFold(path, "http://"), hasPrefixFold(path, "https://"):
		return MethodHTTP
	case hasPrefixFold(path, "ftp://"):
		return MethodFTP
	default:
		return MethodLocal
	}
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
