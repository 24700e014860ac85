// Package nsworker implements the remote worker daemon referenced by
// spec §4.2/§6: it owns one Potential + one MonteCarloWalker instance,
// registers with a dispatcher service, heartbeats on an interval, and
// executes job shards the dispatcher forwards to it.
package nsworker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/nsforge/nstool/pkg/errs"
	"github.com/nsforge/nstool/pkg/nsmodel"
	"github.com/nsforge/nstool/pkg/potential"
	"github.com/nsforge/nstool/pkg/walker"
	"github.com/nsforge/nstool/pkg/wireproto"
)

// Worker is a remote walk executor. It holds its own Walker (and
// therefore its own Potential instance, per spec §5's one-instance-per-
// worker rule) and speaks the dispatcher's registration/heartbeat/job
// protocol over HTTP.
type Worker struct {
	Walker           *walker.Walker
	SelfAddr         string
	DispatcherAddr   string
	HeartbeatPeriod  time.Duration
	HTTPClient       *http.Client

	mu       sync.Mutex
	workerID string
}

// NewWorker constructs a Worker. selfAddr is the address this worker's
// HTTP server is reachable at, used during registration so the
// dispatcher can forward jobs back to it.
func NewWorker(w *walker.Walker, selfAddr, dispatcherAddr string, heartbeatPeriod time.Duration) *Worker {
	if heartbeatPeriod <= 0 {
		heartbeatPeriod = 10 * time.Second
	}
	return &Worker{
		Walker:          w,
		SelfAddr:        selfAddr,
		DispatcherAddr:  dispatcherAddr,
		HeartbeatPeriod: heartbeatPeriod,
		HTTPClient:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Register announces this worker to the dispatcher and records the
// assigned worker ID.
func (w *Worker) Register(ctx context.Context) error {
	body, _ := json.Marshal(wireproto.RegisterRequest{Addr: w.SelfAddr})
	respBody, err := w.post(ctx, "/register", body)
	if err != nil {
		return errs.TransportWrap(err, errs.ErrTransportRequestFailed, "worker registration failed")
	}
	var resp wireproto.RegisterResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return errs.TransportWrap(err, errs.ErrTransportBadResponse, "malformed registration response")
	}
	w.mu.Lock()
	w.workerID = resp.WorkerID
	w.mu.Unlock()
	log.Printf("nsworker: registered as %s at dispatcher %s", resp.WorkerID, w.DispatcherAddr)
	return nil
}

// Unregister tells the dispatcher this worker is shutting down cleanly.
func (w *Worker) Unregister(ctx context.Context) error {
	id := w.ID()
	if id == "" {
		return nil
	}
	body, _ := json.Marshal(wireproto.UnregisterRequest{WorkerID: id})
	_, err := w.post(ctx, "/unregister", body)
	return err
}

// ID returns the worker ID assigned at registration, or "" if not yet
// registered.
func (w *Worker) ID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.workerID
}

// RunHeartbeatLoop sends a heartbeat every HeartbeatPeriod until ctx is
// cancelled. It is meant to run in its own goroutine.
func (w *Worker) RunHeartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(w.HeartbeatPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			body, _ := json.Marshal(wireproto.HeartbeatRequest{WorkerID: w.ID()})
			if _, err := w.post(ctx, "/heartbeat", body); err != nil {
				log.Printf("nsworker: heartbeat failed: %v", err)
			}
		}
	}
}

// Handler returns an http.Handler exposing this worker's /run-jobs
// endpoint, which the dispatcher forwards shards of a batch to.
func (w *Worker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/run-jobs", w.handleRunJobs)
	mux.HandleFunc("/health", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})
	return mux
}

func (w *Worker) handleRunJobs(rw http.ResponseWriter, r *http.Request) {
	var req wireproto.WorkerJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}

	results := make([]nsmodel.WalkResult, len(req.Jobs))
	for i, job := range req.Jobs {
		rng := potential.NewRand(job.SeedRNG)
		result, err := w.Walker.Walk(job.Seed, job.Cutoff, job.Stepsize, rng)
		if err != nil {
			json.NewEncoder(rw).Encode(wireproto.WorkerJobResponse{
				Indices: req.Indices,
				Error:   fmt.Sprintf("job %d failed: %v", i, err),
			})
			return
		}
		results[i] = result
	}

	json.NewEncoder(rw).Encode(wireproto.WorkerJobResponse{
		Indices: req.Indices,
		Results: results,
	})
}

func (w *Worker) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.DispatcherAddr+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := w.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dispatcher returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
