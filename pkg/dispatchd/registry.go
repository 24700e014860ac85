// Package dispatchd implements the dispatcher service referenced
// abstractly by spec §4.2/§6: it accepts submitted batches, shards them
// across registered remote workers, reassembles results in input order,
// and tracks each worker through the state machine
// REGISTERING -> IDLE <-> BUSY, terminal DISCONNECTED.
package dispatchd

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// WorkerState is one state in the worker lifecycle state machine.
type WorkerState string

const (
	WorkerRegistering  WorkerState = "REGISTERING"
	WorkerIdle         WorkerState = "IDLE"
	WorkerBusy         WorkerState = "BUSY"
	WorkerDisconnected WorkerState = "DISCONNECTED"
)

// workerRecord is the dispatcher's bookkeeping for one registered worker.
type workerRecord struct {
	ID            string
	Addr          string
	State         WorkerState
	LastHeartbeat time.Time
}

// Registry tracks registered workers and their lifecycle state. It is
// safe for concurrent use.
type Registry struct {
	mu               sync.Mutex
	workers          map[string]*workerRecord
	heartbeatTimeout time.Duration
}

// NewRegistry constructs a Registry. heartbeatTimeout bounds how long a
// worker may go without a heartbeat before being marked DISCONNECTED.
func NewRegistry(heartbeatTimeout time.Duration) *Registry {
	if heartbeatTimeout <= 0 {
		heartbeatTimeout = 30 * time.Second
	}
	return &Registry{
		workers:          make(map[string]*workerRecord),
		heartbeatTimeout: heartbeatTimeout,
	}
}

// Register adds a new worker in state REGISTERING, immediately promoted
// to IDLE once registration completes (there is no asynchronous
// handshake in this transport), and returns its assigned ID.
func (r *Registry) Register(addr string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	r.workers[id] = &workerRecord{
		ID:            id,
		Addr:          addr,
		State:         WorkerIdle,
		LastHeartbeat: time.Now(),
	}
	return id
}

// Heartbeat refreshes a worker's last-seen time and, if it had been
// marked DISCONNECTED, is rejected — a disconnected worker must
// re-register rather than resume.
func (r *Registry) Heartbeat(workerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workers[workerID]
	if !ok || w.State == WorkerDisconnected {
		return false
	}
	w.LastHeartbeat = time.Now()
	return true
}

// Unregister removes a worker from the pool cleanly.
func (r *Registry) Unregister(workerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.workers, workerID)
}

// sweepDisconnectedLocked marks workers whose heartbeat is overdue as
// DISCONNECTED and returns their IDs (idleWorkersLocked, its only caller,
// discards them). Must be called with r.mu held.
func (r *Registry) sweepDisconnectedLocked() []string {
	var disconnected []string
	deadline := time.Now().Add(-r.heartbeatTimeout)
	for id, w := range r.workers {
		if w.State != WorkerDisconnected && w.LastHeartbeat.Before(deadline) {
			w.State = WorkerDisconnected
			disconnected = append(disconnected, id)
		}
	}
	return disconnected
}

// idleWorkersLocked returns the IDs of currently IDLE workers. Must be
// called with r.mu held.
func (r *Registry) idleWorkersLocked() []string {
	r.sweepDisconnectedLocked()
	var idle []string
	for id, w := range r.workers {
		if w.State == WorkerIdle {
			idle = append(idle, id)
		}
	}
	return idle
}

// markBusy transitions a worker IDLE -> BUSY. Returns false if the
// worker is no longer available (disconnected, already busy, unknown).
func (r *Registry) markBusy(workerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[workerID]
	if !ok || w.State != WorkerIdle {
		return false
	}
	w.State = WorkerBusy
	return true
}

// markIdle transitions a worker BUSY -> IDLE once its shard completes.
func (r *Registry) markIdle(workerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.workers[workerID]; ok && w.State == WorkerBusy {
		w.State = WorkerIdle
	}
}

// addr returns a worker's connection string and current state.
func (r *Registry) addr(workerID string) (string, WorkerState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[workerID]
	if !ok {
		return "", "", false
	}
	return w.Addr, w.State, true
}

// IdleCount reports the number of workers currently IDLE.
func (r *Registry) IdleCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.idleWorkersLocked())
}

// idleSnapshot returns a point-in-time copy of currently IDLE worker IDs,
// sweeping disconnected workers first.
func (r *Registry) idleSnapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	idle := r.idleWorkersLocked()
	out := make([]string, len(idle))
	copy(out, idle)
	return out
}
