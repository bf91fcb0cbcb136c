// Package pipeline runs one acquisition pass over the command line.
//
// A run owns a work queue with a single producer reservation held by the
// directory walker. The fetch coordinator drains the queue, fetching remote
// items on a bounded worker pool and feeding the viewer session. Run returns
// once the walker has finished and every queued item, including images
// discovered in fetched HTML pages, has reached its final state.
package pipeline
