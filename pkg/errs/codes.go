// Package errs — error code constants, organized by category.
package errs

// -----------------------------------------------------------------------------
// Configuration error codes
// -----------------------------------------------------------------------------

const (
	// ErrConfigInvalidN indicates N (live-set size) is not a valid population size.
	// engine option validation also reports an out-of-range stepsize,
	// max_stepsize, mciter, etol or target_ratio, and a missing walker,
	// under this code.
	ErrConfigInvalidN = "CONFIG_INVALID_N"

	// ErrConfigInvalidK indicates K does not satisfy 1 <= K < N.
	ErrConfigInvalidK = "CONFIG_INVALID_K"

	// ErrConfigInvalidNproc indicates nproc < 1.
	ErrConfigInvalidNproc = "CONFIG_INVALID_NPROC"

	// ErrConfigMissingEndpoint indicates remote mode was selected with no
	// dispatcher endpoint string available.
	ErrConfigMissingEndpoint = "CONFIG_MISSING_ENDPOINT"

	// ErrConfigParseFailed indicates the YAML configuration could not be parsed.
	ErrConfigParseFailed = "CONFIG_PARSE_FAILED"

	// ErrConfigReadFailed indicates the configuration file could not be read.
	ErrConfigReadFailed = "CONFIG_READ_FAILED"

	// ErrConfigWriteFailed indicates the configuration file could not be written.
	ErrConfigWriteFailed = "CONFIG_WRITE_FAILED"
)

// -----------------------------------------------------------------------------
// Potential error codes
// -----------------------------------------------------------------------------

const (
	// ErrPotentialEvalFailed indicates potential.energy(x) raised.
	ErrPotentialEvalFailed = "POTENTIAL_EVAL_FAILED"

	// ErrPotentialNonFinite indicates potential.energy(x) returned NaN/Inf.
	ErrPotentialNonFinite = "POTENTIAL_NON_FINITE"

	// ErrAcceptTestFailed indicates an accept_test raised rather than returning bool.
	ErrAcceptTestFailed = "ACCEPT_TEST_FAILED"
)

// -----------------------------------------------------------------------------
// Invariant error codes
// -----------------------------------------------------------------------------

const (
	// ErrInvariantCutoffViolated indicates a walk result had e >= cutoff.
	ErrInvariantCutoffViolated = "INVARIANT_CUTOFF_VIOLATED"

	// ErrInvariantLiveSetSize indicates the live set changed cardinality.
	ErrInvariantLiveSetSize = "INVARIANT_LIVE_SET_SIZE"

	// ErrInvariantStepsizeRange indicates stepsize left [stepsize_min, max_stepsize].
	ErrInvariantStepsizeRange = "INVARIANT_STEPSIZE_RANGE"
)

// -----------------------------------------------------------------------------
// Transport error codes
// -----------------------------------------------------------------------------

const (
	// ErrTransportRequestFailed indicates the remote submit/register/heartbeat
	// call failed at the network layer.
	ErrTransportRequestFailed = "TRANSPORT_REQUEST_FAILED"

	// ErrTransportBadResponse indicates the remote dispatcher returned a
	// malformed or unexpected response body.
	ErrTransportBadResponse = "TRANSPORT_BAD_RESPONSE"

	// ErrTransportRetriesExhausted indicates retry_max attempts all failed.
	ErrTransportRetriesExhausted = "TRANSPORT_RETRIES_EXHAUSTED"

	// ErrTransportNoWorkers indicates no IDLE worker was available to shard to.
	ErrTransportNoWorkers = "TRANSPORT_NO_WORKERS"

	// ErrTransportEndpointUnreadable indicates the endpoint file could not be read.
	ErrTransportEndpointUnreadable = "TRANSPORT_ENDPOINT_UNREADABLE"
)

// -----------------------------------------------------------------------------
// Timeout / cancellation error codes
// -----------------------------------------------------------------------------

const (
	// ErrBatchTimeout indicates a batch exceeded its wall-clock budget.
	ErrBatchTimeout = "BATCH_TIMEOUT"

	// ErrRunCancelled indicates a user-signalled cancellation.
	ErrRunCancelled = "RUN_CANCELLED"
)

// -----------------------------------------------------------------------------
// Internal error codes
// -----------------------------------------------------------------------------

const (
	// ErrInternalUnexpected covers programming errors / unreachable states.
	ErrInternalUnexpected = "INTERNAL_UNEXPECTED"
)
