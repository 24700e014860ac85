package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/nsforge/nstool/pkg/errs"
	"github.com/nsforge/nstool/pkg/nsmodel"
	"github.com/nsforge/nstool/pkg/wireproto"
)

// RemotePool is a Dispatcher that submits batches to a remote dispatcher
// service over HTTP. The service shards the batch across its registered
// workers; this client only cares about the submit/response contract
// (spec §4.2, §6). The walker configured anywhere in the local process is
// ignored in this mode — workers own their own Potential + Walker.
type RemotePool struct {
	Endpoint   string
	HTTPClient *http.Client
	RetryMax   int
}

// RemotePoolConfig configures a RemotePool.
type RemotePoolConfig struct {
	// Endpoint is the dispatcher service's base URL. If empty,
	// EndpointFile is read instead.
	Endpoint string

	// EndpointFile is a path containing the dispatcher's opaque
	// connection string (spec §6: "dispatcher_uri.dat").
	EndpointFile string

	// Timeout bounds each individual HTTP call.
	Timeout time.Duration

	// RetryMax is the number of retries after the first attempt for
	// transport errors (default 0, per spec §6).
	RetryMax int
}

// NewRemotePool constructs a RemotePool, resolving the endpoint from
// either cfg.Endpoint directly or by reading cfg.EndpointFile.
func NewRemotePool(cfg RemotePoolConfig) (*RemotePool, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.EndpointFile == "" {
			return nil, errs.Config(errs.ErrConfigMissingEndpoint, "remote dispatcher mode requires either an endpoint or an endpoint file")
		}
		data, err := os.ReadFile(cfg.EndpointFile)
		if err != nil {
			return nil, errs.ConfigWrap(err, errs.ErrTransportEndpointUnreadable, "failed to read dispatcher endpoint file").
				WithContext("path", cfg.EndpointFile)
		}
		endpoint = strings.TrimSpace(string(data))
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &RemotePool{
		Endpoint:   strings.TrimRight(endpoint, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		RetryMax:   cfg.RetryMax,
	}, nil
}

// RunBatch implements Dispatcher by POSTing the batch to the dispatcher
// service's /submit endpoint, retrying transport errors up to RetryMax
// times before surfacing a fatal transport error (spec §4.2, §7).
func (p *RemotePool) RunBatch(ctx context.Context, jobs []nsmodel.WalkJob) ([]nsmodel.WalkResult, error) {
	req := wireproto.SubmitRequest{
		BatchID: uuid.NewString(),
		Jobs:    jobs,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, errs.InternalWrap(err, errs.ErrInternalUnexpected, "failed to marshal submit request")
	}

	operation := func() (wireproto.SubmitResponse, error) {
		return p.submitOnce(ctx, body)
	}

	maxAttempts := uint(p.RetryMax) + 1
	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxAttempts),
	)
	if err != nil {
		return nil, errs.TransportWrap(err, errs.ErrTransportRetriesExhausted, "submit failed after retries").
			WithContext("retry_max", fmt.Sprintf("%d", p.RetryMax))
	}

	if resp.Error != "" {
		return nil, errs.Transport(errs.ErrTransportBadResponse, resp.Error)
	}
	if len(resp.Results) != len(jobs) {
		return nil, errs.Transport(errs.ErrTransportBadResponse, "dispatcher returned a different number of results than jobs submitted").
			WithContext("jobs", fmt.Sprintf("%d", len(jobs))).
			WithContext("results", fmt.Sprintf("%d", len(resp.Results)))
	}
	if resp.Results == nil {
		// An empty result list is dropped from the JSON body by omitempty.
		return []nsmodel.WalkResult{}, nil
	}
	return resp.Results, nil
}

// submitOnce performs a single HTTP round trip. It returns plain errors,
// not NSErrors, and the retry policy treats every one of them as
// transient; RunBatch wraps the final failure as a transport NSError.
func (p *RemotePool) submitOnce(ctx context.Context, body []byte) (wireproto.SubmitResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint+"/submit", bytes.NewReader(body))
	if err != nil {
		return wireproto.SubmitResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.HTTPClient.Do(httpReq)
	if err != nil {
		return wireproto.SubmitResponse{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return wireproto.SubmitResponse{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return wireproto.SubmitResponse{}, fmt.Errorf("dispatcher returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var out wireproto.SubmitResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return wireproto.SubmitResponse{}, err
	}
	return out, nil
}

// Close releases the HTTP client's idle connections.
func (p *RemotePool) Close() error {
	p.HTTPClient.CloseIdleConnections()
	return nil
}
