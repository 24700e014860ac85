package dispatchd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nsforge/nstool/pkg/nsmodel"
	"github.com/nsforge/nstool/pkg/wireproto"
)

// newEchoWorker starts a test HTTP worker that returns each job's seed
// back as its result, tagging NAccept with the shard size so tests can
// verify sharding occurred.
func newEchoWorker(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req wireproto.WorkerJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("worker: bad request: %v", err)
		}
		resp := wireproto.WorkerJobResponse{Indices: req.Indices}
		for _, job := range req.Jobs {
			resp.Results = append(resp.Results, nsmodel.WalkResult{Replica: job.Seed, NAccept: uint64(len(req.Jobs))})
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestServerShardsAcrossWorkers(t *testing.T) {
	w1 := newEchoWorker(t)
	defer w1.Close()
	w2 := newEchoWorker(t)
	defer w2.Close()

	s := NewServer(30 * time.Second)
	s.Registry.Register(w1.URL)
	s.Registry.Register(w2.URL)

	jobs := make([]nsmodel.WalkJob, 10)
	for i := range jobs {
		jobs[i] = nsmodel.WalkJob{Seed: nsmodel.NewReplica([]float64{float64(i)}, float64(i))}
	}

	results, err := s.runBatch(context.Background(), "batch-1", jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Replica.E != float64(i) {
			t.Errorf("result %d out of order: got energy %v", i, r.Replica.E)
		}
		if r.NAccept != 5 {
			t.Errorf("result %d: expected a shard of 5 jobs per worker, got shard size %d", i, r.NAccept)
		}
	}
}

func TestServerNoIdleWorkersFails(t *testing.T) {
	s := NewServer(30 * time.Second)
	_, err := s.runBatch(context.Background(), "batch-1", []nsmodel.WalkJob{
		{Seed: nsmodel.NewReplica([]float64{0}, 0)},
	})
	if err == nil {
		t.Fatal("expected error with no registered workers")
	}
}

func TestRegistryHeartbeatAndDisconnect(t *testing.T) {
	r := NewRegistry(10 * time.Millisecond)
	id := r.Register("http://worker:9000")

	if !r.Heartbeat(id) {
		t.Fatal("expected heartbeat on freshly registered worker to succeed")
	}

	time.Sleep(20 * time.Millisecond)
	if r.IdleCount() != 0 {
		t.Fatal("expected worker to be swept to DISCONNECTED after heartbeat timeout")
	}
	if r.Heartbeat(id) {
		t.Fatal("expected heartbeat on disconnected worker to fail")
	}
}

func TestShardIndicesDistributesEvenly(t *testing.T) {
	indices := []int{0, 1, 2, 3, 4, 5, 6}
	shards := shardIndices(indices, 3)
	total := 0
	for _, s := range shards {
		if len(s) < 2 || len(s) > 3 {
			t.Fatalf("expected 7 indices over 3 shards to give sizes 2 or 3, got %d", len(s))
		}
		total += len(s)
	}
	if total != len(indices) {
		t.Fatalf("expected shards to cover all %d indices, got %d", len(indices), total)
	}
}
