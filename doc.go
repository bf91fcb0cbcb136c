// Package main provides the entry point for the image viewer.
//
// The viewer takes a list of files, directories and URLs as arguments and
// loads every image they name. Local files are listed straight away; remote
// URLs and standard input ("-") are copied into temporary files by a bounded
// pool of download workers. Downloaded pages that are not images are scanned
// for <img> tags, and the images they link to are loaded too.
//
// # Application Lifecycle
//
//  1. Configuration Loading: Reads environment variables (see package startup)
//  2. Metrics: Registers Prometheus collectors and the filesystem observer
//  3. Thumbnails: Initializes libvips and opens the thumbnail index
//  4. Pipeline: Walks the arguments and fetches remote items
//  5. Shutdown: Removes temporary files, stops the metrics server and closes
//     the index
//
// SIGINT and SIGTERM stop the run early; VIEW_TIMEOUT bounds it.
//
// # Metrics Server
//
// With METRICS_ENABLED=true an HTTP server on METRICS_PORT serves:
//
//	/metrics   Prometheus metrics
//	/healthz   Liveness probe
//	/status    JSON snapshot of the run and build information
package main
