/*
Package filesystem provides filesystem operations with retry logic for NFS
stale file handle errors.

The directory walker, the thumbnail cache and the item accessors all read
from paths that may live on network mounts. StatWithRetry, OpenWithRetry
and ReadDirWithRetry wrap the os calls and retry only on ESTALE, with
exponential backoff:

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

Defaults are 3 retries starting at 50ms, capped at 500ms. Any other error
is returned immediately.

Metrics are recorded through an [Observer] installed with SetObserver; the
metrics package provides the Prometheus implementation. Paths are labelled
with the volume returned by the [VolumeResolver] installed at startup;
the deepest configured directory containing the path wins.
*/
package filesystem
