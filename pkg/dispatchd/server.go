package dispatchd

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

	"golang.org/x/sync/errgroup"

	"github.com/nsforge/nstool/pkg/nsmodel"
	"github.com/nsforge/nstool/pkg/wireproto"
)

// Server is the dispatcher service: it accepts submitted batches over
// HTTP, shards them across registered workers, and reassembles results
// in input order (spec §4.2, §6).
type Server struct {
	Registry   *Registry
	HTTPClient *http.Client
	mu         sync.Mutex
}

// NewServer constructs a dispatcher Server.
func NewServer(heartbeatTimeout time.Duration) *Server {
	return &Server{
		Registry:   NewRegistry(heartbeatTimeout),
		HTTPClient: &http.Client{Timeout: 10 * time.Minute},
	}
}

// Handler returns an http.Handler exposing the dispatcher's endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/register", s.handleRegister)
	mux.HandleFunc("/heartbeat", s.handleHeartbeat)
	mux.HandleFunc("/unregister", s.handleUnregister)
	mux.HandleFunc("/submit", s.handleSubmit)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req wireproto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := s.Registry.Register(req.Addr)
	log.Printf("dispatchd: worker %s registered at %s", id, req.Addr)
	json.NewEncoder(w).Encode(wireproto.RegisterResponse{WorkerID: id})
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req wireproto.HeartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ok := s.Registry.Heartbeat(req.WorkerID)
	json.NewEncoder(w).Encode(wireproto.HeartbeatResponse{OK: ok})
}

func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	var req wireproto.UnregisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.Registry.Unregister(req.WorkerID)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req wireproto.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	results, err := s.runBatch(r.Context(), req.BatchID, req.Jobs)
	if err != nil {
		json.NewEncoder(w).Encode(wireproto.SubmitResponse{Error: err.Error()})
		return
	}
	json.NewEncoder(w).Encode(wireproto.SubmitResponse{Results: results})
}

// runBatch shards jobs across IDLE workers and reassembles results in
// input order. If a shard's worker fails, its indices are reissued to
// another IDLE worker up to maxReissues times before the whole batch
// fails (spec §4.2: partial results are discarded on any job failure).
func (s *Server) runBatch(ctx context.Context, batchID string, jobs []nsmodel.WalkJob) ([]nsmodel.WalkResult, error) {
	if len(jobs) == 0 {
		return []nsmodel.WalkResult{}, nil
	}

	results := make([]nsmodel.WalkResult, len(jobs))
	pending := make([]int, len(jobs))
	for i := range jobs {
		pending[i] = i
	}

	const maxReissues = 2
	for attempt := 0; attempt <= maxReissues && len(pending) > 0; attempt++ {
		failed, err := s.dispatchShards(ctx, batchID, jobs, pending, results)
		if err != nil {
			return nil, err
		}
		if len(failed) > 0 && attempt == maxReissues {
			return nil, fmt.Errorf("%d job(s) could not be completed after %d reissue attempts", len(failed), maxReissues)
		}
		pending = failed
	}

	return results, nil
}

// dispatchShards splits pending indices across currently IDLE workers and
// runs each shard concurrently, writing into results by index. It returns
// the indices that must be reissued (worker died mid-shard) or a fatal
// error if there were no IDLE workers at all.
func (s *Server) dispatchShards(ctx context.Context, batchID string, jobs []nsmodel.WalkJob, pending []int, results []nsmodel.WalkResult) ([]int, error) {
	idle := s.Registry.idleSnapshot()
	if len(idle) == 0 {
		return nil, fmt.Errorf("no idle workers available to run batch %s", batchID)
	}

	shards := shardIndices(pending, len(idle))

	var mu sync.Mutex
	var failed []int

	g, gctx := errgroup.WithContext(ctx)
	for i, shard := range shards {
		if len(shard) == 0 {
			continue
		}
		workerID := idle[i]
		shard := shard
		g.Go(func() error {
			if !s.Registry.markBusy(workerID) {
				mu.Lock()
				failed = append(failed, shard...)
				mu.Unlock()
				return nil
			}
			defer s.Registry.markIdle(workerID)

			shardJobs := make([]nsmodel.WalkJob, len(shard))
			for j, idx := range shard {
				shardJobs[j] = jobs[idx]
			}

			resp, err := s.forwardToWorker(gctx, workerID, batchID, shard, shardJobs)
			if err != nil || resp.Error != "" {
				mu.Lock()
				failed = append(failed, shard...)
				mu.Unlock()
				return nil
			}

			mu.Lock()
			for j, idx := range resp.Indices {
				results[idx] = resp.Results[j]
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return failed, nil
}

func (s *Server) forwardToWorker(ctx context.Context, workerID, batchID string, indices []int, jobs []nsmodel.WalkJob) (wireproto.WorkerJobResponse, error) {
	addr, _, ok := s.Registry.addr(workerID)
	if !ok {
		return wireproto.WorkerJobResponse{}, fmt.Errorf("worker %s not found", workerID)
	}

	body, err := json.Marshal(wireproto.WorkerJobRequest{BatchID: batchID, Indices: indices, Jobs: jobs})
	if err != nil {
		return wireproto.WorkerJobResponse{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, addr+"/run-jobs", bytes.NewReader(body))
	if err != nil {
		return wireproto.WorkerJobResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(httpReq)
	if err != nil {
		return wireproto.WorkerJobResponse{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return wireproto.WorkerJobResponse{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return wireproto.WorkerJobResponse{}, fmt.Errorf("worker %s returned status %d: %s", workerID, resp.StatusCode, string(respBody))
	}

	var out wireproto.WorkerJobResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return wireproto.WorkerJobResponse{}, err
	}
	return out, nil
}

// shardIndices splits indices into up to n roughly-equal, order-preserving
// contiguous groups, one per available worker.
func shardIndices(indices []int, n int) [][]int {
	if n <= 0 {
		return nil
	}
	shards := make([][]int, n)
	base := len(indices) / n
	rem := len(indices) % n
	pos := 0
	for i := 0; i < n; i++ {
		size := base
		if i < rem {
			size++
		}
		shards[i] = indices[pos : pos+size]
		pos += size
	}
	return shards
}
