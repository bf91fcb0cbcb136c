// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is loaded from environment variables via [LoadConfig]; the
// positional command line arguments name the images to open.
//
//   - CACHE_DIR: Thumbnail cache and index directory (default: user cache dir/image-viewer)
//   - TEMP_DIR: Directory for downloaded copies of remote images (default: os.TempDir)
//   - RECURSIVE: Descend into directory arguments (default: false)
//   - LEVELS: Maximum recursion depth, -1 for unlimited (default: -1)
//   - THUMB_SIDE: Thumbnail edge length in pixels (default: 128)
//   - VIEW_MODE: full, slide or thumb (default: slide for several arguments, else full)
//   - FETCH_WORKERS: Concurrent downloads (default: 3)
//   - THUMB_WORKERS: Thumbnail decoders (default: one per CPU, at most 4)
//   - FETCH_HELPER: Download program invoked as HELPER -O file url (default: wget)
//   - FETCH_POLL_INTERVAL: Wait after SIGTERM before the kill grace period (default: 50ms)
//   - FETCH_KILL_WAIT: Grace period before SIGKILL (default: 500ms)
//   - METRICS_ENABLED: Serve /metrics, /status and /healthz (default: false)
//   - METRICS_PORT: Port of the metrics server (default: 9090)
//   - VIEW_TIMEOUT: Stop the run after this long, 0 to disable (default: 0)
//   - VIPS_ENABLED: Decode thumbnails with libvips (default: true)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//
// An unwritable cache directory disables the thumbnail cache. An unwritable
// temp directory is an error.
//
// # Lifecycle Logging
//
//   - [LogDatabaseInit]: Thumbnail index timing
//   - [LogThumbnailInit]: Thumbnail generator configuration
//   - [LogPipelineInit] and [LogPipelineFinished]: Acquisition run
//   - [LogHTTPRoutes]: Routes of the metrics server
//   - [LogServerStarted]: Startup summary
//   - [LogShutdownInitiated], [LogShutdownStep], [LogShutdownComplete]: Shutdown
package startup
