// Package queue provides the work queue shared by the directory walker, the
// fetch coordinator and the link extractor.
//
// Termination is detected with a reference count rather than by closing a
// channel, because the set of producers grows while the pipeline runs: a
// fetched HTML page can push new items long after the walker has finished.
//
//	q := queue.New(1) // one reservation held by the walker
//	q.Push(it)        // active 2
//	q.Done()          // walker finished, active 1
//	it, _ = q.Pop(ctx)
//	q.Done()          // item finished, active 0: exhausted
//
// Pop never reports exhaustion while the active count is above zero, and
// always does once it is zero and nothing is queued.
package queue
