// Package wireproto defines the JSON request/response shapes exchanged
// between a nested sampling engine (client), the dispatcher service, and
// remote workers (spec §6: "Remote dispatcher wire protocol (abstract)").
// The protocol itself is transport-agnostic; this repo realizes it as
// JSON-over-HTTP (see pkg/dispatch.RemotePool and pkg/dispatchd.Server).
package wireproto

import "github.com/nsforge/nstool/pkg/nsmodel"

// SubmitRequest carries one batch of walk jobs to the dispatcher service.
// Result order in the response must match Jobs order.
type SubmitRequest struct {
	BatchID string            `json:"batch_id"`
	Jobs    []nsmodel.WalkJob `json:"jobs"`
}

// SubmitResponse carries the results of a submitted batch, or an error
// if the batch failed (partial results are never returned: spec §4.2
// says a single job failure fails the whole batch).
type SubmitResponse struct {
	Results []nsmodel.WalkResult `json:"results,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// RegisterRequest is sent by a worker announcing itself to the dispatcher.
type RegisterRequest struct {
	Addr string `json:"addr"`
}

// RegisterResponse returns the worker ID the dispatcher assigned.
type RegisterResponse struct {
	WorkerID string `json:"worker_id"`
}

// HeartbeatRequest is sent periodically by a registered worker.
type HeartbeatRequest struct {
	WorkerID string `json:"worker_id"`
}

// HeartbeatResponse acknowledges a heartbeat and reports whether the
// dispatcher still considers the worker registered.
type HeartbeatResponse struct {
	OK bool `json:"ok"`
}

// UnregisterRequest is sent by a worker shutting down cleanly.
type UnregisterRequest struct {
	WorkerID string `json:"worker_id"`
}

// WorkerJobRequest is what the dispatcher service forwards to one worker:
// a shard of a submitted batch, indexed so results can be reassembled.
type WorkerJobRequest struct {
	BatchID string            `json:"batch_id"`
	Indices []int             `json:"indices"`
	Jobs    []nsmodel.WalkJob `json:"jobs"`
}

// WorkerJobResponse is a worker's reply to a WorkerJobRequest.
type WorkerJobResponse struct {
	Indices []int                `json:"indices"`
	Results []nsmodel.WalkResult `json:"results,omitempty"`
	Error   string               `json:"error,omitempty"`
}
