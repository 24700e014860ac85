// Package dispatch implements the parallel walk dispatcher (spec §4.2):
// an abstraction over "run K walks in parallel" with a local thread-pool
// implementation and a remote-service client implementation. Both
// preserve result ordering identical to job ordering and are fully
// synchronous from the caller's point of view.
package dispatch

import (
	"context"

	"github.com/nsforge/nstool/pkg/nsmodel"
)

// Dispatcher runs a batch of WalkJobs and returns their WalkResults in
// the same order as the input jobs. RunBatch does not return until all
// jobs have completed or one has failed; on any single job failure the
// whole batch fails and partial results are discarded (spec §4.2).
type Dispatcher interface {
	RunBatch(ctx context.Context, jobs []nsmodel.WalkJob) ([]nsmodel.WalkResult, error)

	// Close releases any resources held by the dispatcher (worker pool
	// goroutines, HTTP connections, registered-worker bookkeeping).
	Close() error
}
