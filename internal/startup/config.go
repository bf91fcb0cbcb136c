package startup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"image-viewer/internal/logging"
	"image-viewer/internal/viewer"
)

// Config holds all application configuration
type Config struct {
	// Args is the list of files, directories and URLs to open.
	Args []string

	CacheDir string
	TempDir  string

	Recursive bool
	Levels    int
	ThumbSide int
	ViewMode  viewer.Mode

	FetchWorkers      int
	FetchHelper       string
	FetchPollInterval time.Duration
	FetchKillWait     time.Duration

	MetricsEnabled bool
	MetricsPort    string
	ViewTimeout    time.Duration
	VipsEnabled    bool

	// Derived paths
	DatabasePath string

	// Feature flags based on directory availability
	ThumbnailsEnabled bool
}

// LoadConfig loads and validates configuration from environment variables.
// args are the positional command line arguments.
func LoadConfig(args []string) (*Config, error) {
	printBanner()
	logSystemInfo()

	section("CONFIGURATION")

	cacheDir := getEnv("CACHE_DIR", defaultCacheDir())
	tempDir := getEnv("TEMP_DIR", os.TempDir())
	recursive := getEnvBool("RECURSIVE", false)
	levels := getEnvInt("LEVELS", -1)
	thumbSide := getEnvInt("THUMB_SIDE", 128)
	viewMode := getEnv("VIEW_MODE", "")
	fetchWorkers := getEnvInt("FETCH_WORKERS", 3)
	fetchHelper := getEnv("FETCH_HELPER", "wget")
	pollInterval := getEnvDuration("FETCH_POLL_INTERVAL", 50*time.Millisecond)
	killWait := getEnvDuration("FETCH_KILL_WAIT", 500*time.Millisecond)
	metricsEnabled := getEnvBool("METRICS_ENABLED", false)
	metricsPort := getEnv("METRICS_PORT", "9090")
	viewTimeout := getEnvDuration("VIEW_TIMEOUT", 0)
	vipsEnabled := getEnvBool("VIPS_ENABLED", true)

	field("CACHE_DIR", cacheDir)
	field("TEMP_DIR", tempDir)
	field("RECURSIVE", recursive)
	field("LEVELS", levels)
	field("THUMB_SIDE", thumbSide)
	field("VIEW_MODE", viewMode)
	field("FETCH_WORKERS", fetchWorkers)
	field("THUMB_WORKERS", getEnv("THUMB_WORKERS", "auto"))
	field("FETCH_HELPER", fetchHelper)
	field("FETCH_POLL_INTERVAL", pollInterval)
	field("FETCH_KILL_WAIT", killWait)
	field("METRICS_ENABLED", metricsEnabled)
	field("METRICS_PORT", metricsPort)
	field("VIEW_TIMEOUT", viewTimeout)
	field("VIPS_ENABLED", vipsEnabled)
	field("LOG_LEVEL", logging.GetLevel())

	if fetchWorkers < 1 {
		logging.Warn("  Invalid FETCH_WORKERS, using default: 3")
		fetchWorkers = 3
	}
	if thumbSide < 1 {
		logging.Warn("  Invalid THUMB_SIDE, using default: 128")
		thumbSide = 128
	}
	if levels < -1 {
		logging.Warn("  Invalid LEVELS, using default: -1 (unlimited)")
		levels = -1
	}

	mode := viewer.DefaultMode(len(args))
	if viewMode != "" {
		parsed, err := viewer.ParseMode(viewMode)
		if err != nil {
			logging.Warn("  %v, using %s", err, mode)
		} else {
			mode = parsed
		}
	}

	config := &Config{
		Args:              args,
		CacheDir:          cacheDir,
		TempDir:           tempDir,
		Recursive:         recursive,
		Levels:            levels,
		ThumbSide:         thumbSide,
		ViewMode:          mode,
		FetchWorkers:      fetchWorkers,
		FetchHelper:       fetchHelper,
		FetchPollInterval: pollInterval,
		FetchKillWait:     killWait,
		MetricsEnabled:    metricsEnabled,
		MetricsPort:       metricsPort,
		ViewTimeout:       viewTimeout,
		VipsEnabled:       vipsEnabled,
	}

	section("DIRECTORIES")

	var err error
	config.TempDir, err = filepath.Abs(tempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve temp directory path: %w", err)
	}
	if err := ensureDirectory(config.TempDir, "temp"); err != nil {
		return nil, fmt.Errorf("temp directory error: %w", err)
	}
	if err := testWriteAccess(config.TempDir); err != nil {
		return nil, fmt.Errorf("temp directory is not writable (required for remote images): %w", err)
	}
	ok("Temp directory is writable: %s", config.TempDir)

	if cacheDir != "" {
		config.CacheDir, err = filepath.Abs(cacheDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
		}
		config.ThumbnailsEnabled = setupOptionalDir(config.CacheDir, "thumbnail cache")
		config.DatabasePath = filepath.Join(config.CacheDir, "thumbnails.db")
	}

	if err := checkHelper(fetchHelper); err != nil {
		logging.Warn("  Download helper check failed: %v", err)
		logging.Warn("  Remote images will fail to load")
	} else {
		ok("Download helper %s found", fetchHelper)
	}

	section("FEATURES")
	field("Thumbnail cache", enabledString(config.ThumbnailsEnabled))
	field("libvips", enabledString(config.VipsEnabled))
	field("Metrics", enabledString(config.MetricsEnabled))
	field("View mode", config.ViewMode)

	return config, nil
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "image-viewer")
}

// setupOptionalDir prepares a directory for a feature that can run without
// it. It reports whether the feature stays on.
func setupOptionalDir(path, name string) bool {
	err := os.MkdirAll(path, 0o755)
	if err == nil {
		err = testWriteAccess(path)
	}
	if err != nil {
		logging.Warn("  %s disabled, %s unusable: %v", name, path, err)
		return false
	}
	logging.Debug("  %s directory ready: %s", name, path)
	return true
}

// ensureDirectory creates path if missing and fails if it names a file.
func ensureDirectory(path, name string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logging.Debug("  Creating %s directory %s", name, path)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("stat %s: %w", path, err)
	case !info.IsDir():
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

func testWriteAccess(dir string) error {
	f, err := os.CreateTemp(dir, ".write-test-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	if err := os.Remove(name); err != nil {
		logging.Warn("leaving write probe %s behind: %v", name, err)
	}
	return nil
}

func checkHelper(helper string) error {
	path, err := exec.LookPath(helper)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", helper)
	}
	logging.Debug("  Download helper: %s", path)
	return nil
}

// envValue reads key through parse. Unset, empty, unparsable and rejected
// values all yield def; the last two are logged.
func envValue[T any](key string, def T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		logging.Warn("Ignoring %s=%q (%v), using %v", key, raw, err, def)
		return def
	}
	return v
}

func getEnv(key, def string) string {
	return envValue(key, def, func(s string) (string, error) { return s, nil })
}

func getEnvBool(key string, def bool) bool {
	return envValue(key, def, strconv.ParseBool)
}

func getEnvInt(key string, def int) int {
	return envValue(key, def, strconv.Atoi)
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	return envValue(key, def, func(s string) (time.Duration, error) {
		d, err := time.ParseDuration(s)
		if err == nil && d < 0 {
			err = errors.New("negative duration")
		}
		return d, err
	})
}
