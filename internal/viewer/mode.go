package viewer

import (
	"fmt"
	"strings"
)

// Mode is how the viewer lays out the images of a run.
type Mode int

const (
	// ModeFull shows one image at a time, full size.
	ModeFull Mode = iota
	// ModeSlide shows one image at a time with a thumbnail strip.
	ModeSlide
	// ModeThumb shows a thumbnail grid and presents nothing by itself.
	ModeThumb
)

// String returns the mode name accepted by ParseMode.
func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeSlide:
		return "slide"
	case ModeThumb:
		return "thumb"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full":
		return ModeFull, nil
	case "slide":
		return ModeSlide, nil
	case "thumb", "thumbs", "thumbnail":
		return ModeThumb, nil
	default:
		return ModeFull, fmt.Errorf("unknown view mode %q (want full, slide or thumb)", s)
	}
}

// DefaultMode is the mode used when none is configured: a single argument
// opens full size, several open as a slideshow.
func DefaultMode(args int) Mode {
	if args > 1 {
		return ModeSlide
	}
	return ModeFull
}
