package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"sync"

	"image-viewer/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var errVipsUnavailable = errors.New("libvips not initialized")

// vipsState guards the process-wide libvips runtime.
var vipsState struct {
	sync.Mutex
	running bool
}

// vipsLogLevel is the most verbose libvips level forwarded at the given
// application level. libvips is one step quieter than the application.
func vipsLogLevel(level logging.LogLevel) vips.LogLevel {
	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo
	case logging.LevelInfo:
		return vips.LogLevelWarning
	case logging.LevelWarn:
		return vips.LogLevelError
	default:
		return vips.LogLevelCritical
	}
}

var vipsLog = logging.For("vips")

func forwardVipsLog(domain string, level vips.LogLevel, msg string) {
	switch level {
	case vips.LogLevelError, vips.LogLevelCritical:
		vipsLog.Error("%s: %s", domain, msg)
	case vips.LogLevelWarning:
		vipsLog.Warn("%s: %s", domain, msg)
	default:
		vipsLog.Debug("%s: %s", domain, msg)
	}
}

// InitVips starts libvips. Repeated calls are no-ops until ShutdownVips.
func InitVips() error {
	vipsState.Lock()
	defer vipsState.Unlock()
	if vipsState.running {
		return nil
	}

	// Logging must be configured before Startup or its own messages
	// ignore LOG_LEVEL.
	vips.LoggingSettings(forwardVipsLog, vipsLogLevel(logging.GetLevel()))
	vips.Startup(&vips.Config{
		// Thumbnail workers already decode in parallel.
		ConcurrencyLevel: 1,
		MaxCacheMem:      32 << 20,
		MaxCacheSize:     64,
	})

	vipsState.running = true
	vipsLog.Info("libvips %s started", vips.Version)
	return nil
}

func ShutdownVips() {
	vipsState.Lock()
	defer vipsState.Unlock()
	if !vipsState.running {
		return
	}
	vips.Shutdown()
	vipsState.running = false
	vipsLog.Debug("libvips stopped")
}

func IsVipsAvailable() bool {
	vipsState.Lock()
	defer vipsState.Unlock()
	return vipsState.running
}

// LoadImageWithVips decodes path already shrunk to fit a side x side square
// and rotated upright. The full-size image is never held in memory.
func LoadImageWithVips(path string, side int) (image.Image, error) {
	if !IsVipsAvailable() {
		return nil, errVipsUnavailable
	}

	ref, err := vips.NewThumbnailFromFile(path, side, side, vips.InterestingNone)
	if err != nil {
		return nil, fmt.Errorf("vips thumbnail %s: %w", path, err)
	}
	defer ref.Close()

	// PNG keeps the alpha channel of PNG and GIF sources.
	buf, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, fmt.Errorf("vips export %s: %w", path, err)
	}
	return imaging.Decode(bytes.NewReader(buf))
}
