// Package indexer expands the command-line argument list into work items.
//
// A Walker holds one producer reservation on the work queue. For every
// argument it either pushes a single item (files, URLs, standard input,
// and paths that do not exist) or, when recursion is enabled, scans the
// directory:
//
//   - subdirectories are descended as they are met, up to Levels deep
//   - regular files are pushed in byte order once the directory is read
//   - the number of files pushed is reported to the FileCounter once per
//     directory, even when it is zero
//
// Unreadable directories are logged and skipped. Stat and readdir go
// through the filesystem retry helpers so stale NFS handles are retried.
//
// The walk runs on its own goroutine with Start, or inline with Run. Stop
// cancels it between entries; whatever was already pushed stays queued, and
// the reservation is released exactly once either way.
package indexer
