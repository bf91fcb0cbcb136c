// Package fetch turns queued items into local, displayable files.
//
// A Coordinator pops items off the work queue. Local files complete at once;
// remote items and standard input are claimed in a per-run Session so each
// key is fetched only once, then handed to a bounded pool of fetch workers.
//
// RemoteFetcher copies an item into a uniquely named temporary file, either
// by reading standard input or by running an external download helper:
//
//	helper -O <tempfile> <url>
//
// When a run is stopped, running helpers receive SIGTERM and are killed if
// they do not exit within the configured grace period.
//
// Fetched files that are not images are treated as HTML documents. Their
// <img> links are pushed back onto the queue as new items, and the progress
// total is adjusted so the document is replaced by the images it names.
package fetch
