package pipeline

// Status is the shared per-tick status word execute writes and fetch
// reads, replacing a back-pointer from fetch into execute: fetch only
// needs to know whether execute is stalled in order to decide whether it
// is safe to prefetch ahead.
type Status struct {
	ExecuteStalled bool
}
