package errs

// Suggestions maps error codes to short remediation hints, the way an
// operator staring at a failed run would want to be pointed at the fix.
// Unlike the teacher's registry this carries no OS/backend conditions or
// priority ordering — nested sampling errors have no platform-dependent
// remediation axis, so a code maps to a flat, ordered list of hints.
var suggestionRegistry = map[string][]string{
	ErrConfigInvalidN: {
		"set nreplicas to an integer >= 2",
		"if the message names another option (stepsize, max_stepsize, mciter, etol, target_ratio, walker), fix that option instead",
	},
	ErrConfigInvalidK: {
		"k must satisfy 1 <= k < nreplicas; lower k or raise nreplicas",
	},
	ErrConfigInvalidNproc: {
		"set nproc to an integer >= 1",
	},
	ErrConfigMissingEndpoint: {
		"set dispatcher_endpoint (or NSTOOL_DISPATCHER_ENDPOINT), or point dispatcher_endpoint_file at dispatcher_uri.dat",
	},
	ErrConfigParseFailed: {
		"check the config file's YAML syntax against pkg/config.Default()'s field names",
	},
	ErrConfigReadFailed: {
		"verify the config file path exists and is readable",
	},
	ErrConfigWriteFailed: {
		"verify the target directory exists and is writable",
	},
	ErrPotentialEvalFailed: {
		"check the potential's energy function for the configuration that triggered this",
	},
	ErrPotentialNonFinite: {
		"the potential returned NaN or Inf; check for a singularity or an overflowing term",
	},
	ErrAcceptTestFailed: {
		"an accept_test implementation panicked or returned an error instead of a bool",
	},
	ErrInvariantCutoffViolated: {
		"the walker accepted a step at or above the cutoff; check MonteCarloWalker.Walk's accept condition",
	},
	ErrTransportRequestFailed: {
		"verify the dispatcher/worker address is reachable and the service is running",
	},
	ErrTransportBadResponse: {
		"the remote dispatcher returned an unexpected response; check for a version mismatch",
	},
	ErrTransportRetriesExhausted: {
		"raise retry_max, or investigate why the dispatcher has been unreachable for repeated attempts",
	},
	ErrTransportNoWorkers: {
		"register at least one worker with the dispatcher before submitting a batch",
	},
	ErrTransportEndpointUnreadable: {
		"verify dispatcher_endpoint_file points at a file the dispatcher has written",
	},
	ErrBatchTimeout: {
		"raise batch_timeout, or investigate why a worker is taking longer than expected",
	},
}

// Suggestions returns the remediation hints registered for e.Code, or nil
// if none are registered.
func (e *NSError) Suggestions() []string {
	return suggestionRegistry[e.Code]
}
