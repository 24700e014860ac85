package nsworker

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nsforge/nstool/pkg/nsmodel"
	"github.com/nsforge/nstool/pkg/potential"
	"github.com/nsforge/nstool/pkg/walker"
	"github.com/nsforge/nstool/pkg/wireproto"
)

func newTestWorker(t *testing.T, dispatcherAddr string) *Worker {
	t.Helper()
	pot := potential.NewHarmonic(2, 1.0)
	w := walker.New(pot, potential.UniformStep{}, nil, nil, 10)
	return NewWorker(w, "http://self:0", dispatcherAddr, time.Second)
}

func TestWorkerRegisterSetsID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(wireproto.RegisterResponse{WorkerID: "worker-1"})
	}))
	defer srv.Close()

	w := newTestWorker(t, srv.URL)
	if err := w.Register(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.ID() != "worker-1" {
		t.Fatalf("expected ID worker-1, got %q", w.ID())
	}
}

func TestWorkerRunJobsExecutesAndReturnsResults(t *testing.T) {
	w := newTestWorker(t, "http://unused")

	jobs := []nsmodel.WalkJob{
		{Seed: nsmodel.NewReplica([]float64{0, 0}, 0), Cutoff: 100, Stepsize: 0.1, SeedRNG: 1},
		{Seed: nsmodel.NewReplica([]float64{0.1, 0.1}, 0.01), Cutoff: 100, Stepsize: 0.1, SeedRNG: 2},
	}
	body, _ := json.Marshal(wireproto.WorkerJobRequest{BatchID: "b1", Indices: []int{0, 1}, Jobs: jobs})

	req := httptest.NewRequest(http.MethodPost, "/run-jobs", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	w.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp wireproto.WorkerJobResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error != "" {
		t.Fatalf("unexpected worker error: %s", resp.Error)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if len(resp.Indices) != 2 || resp.Indices[0] != 0 || resp.Indices[1] != 1 {
		t.Fatalf("expected indices preserved, got %v", resp.Indices)
	}
}

func TestWorkerUnregisterNoopWithoutID(t *testing.T) {
	w := newTestWorker(t, "http://unused")
	if err := w.Unregister(context.Background()); err != nil {
		t.Fatalf("expected no-op unregister to succeed, got %v", err)
	}
}
