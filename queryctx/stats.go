package queryctx

import "sync"

// QueryStats accumulates the counters a QueryResponse carries back:
// materialized sample count and result byte size, plus partial-result
// flags. One QueryStats is shared by every node of a plan tree through the
// query's Session, so sibling nodes may write it concurrently and access is
// mutex-guarded rather than assumed single-writer end to end.
type QueryStats struct {
	mu sync.Mutex

	NumResultSamples int64
	ResultBytes      int64

	ResultCouldBePartial bool
	PartialResultsReason string
}

// AddSamples adds n to the running materialized sample count.
func (s *QueryStats) AddSamples(n int64) {
	s.mu.Lock()
	s.NumResultSamples += n
	s.mu.Unlock()
}

// AddBytes adds n to the running result byte count.
func (s *QueryStats) AddBytes(n int64) {
	s.mu.Lock()
	s.ResultBytes += n
	s.mu.Unlock()
}

// MarkPartial flags the result as possibly partial, recording reason unless
// a reason was already recorded (first failure wins, matching "the flag is
// a union, not a replaceable field").
func (s *QueryStats) MarkPartial(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ResultCouldBePartial = true
	if s.PartialResultsReason == "" {
		s.PartialResultsReason = reason
	}
}

// Merge folds other's counters and partial-result flag into s. NonLeaf does
// not call it: its children run under the parent's Session and write into
// the same QueryStats directly.
func (s *QueryStats) Merge(other *QueryStats) {
	if other == nil {
		return
	}
	other.mu.Lock()
	samples, bytes, partial, reason := other.NumResultSamples, other.ResultBytes, other.ResultCouldBePartial, other.PartialResultsReason
	other.mu.Unlock()

	s.mu.Lock()
	s.NumResultSamples += samples
	s.ResultBytes += bytes
	if partial {
		s.ResultCouldBePartial = true
		if s.PartialResultsReason == "" {
			s.PartialResultsReason = reason
		}
	}
	s.mu.Unlock()
}

// Snapshot returns a copy of the current counters, safe to read without
// holding a reference into the live stats.
func (s *QueryStats) Snapshot() QueryStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return QueryStats{
		NumResultSamples:     s.NumResultSamples,
		ResultBytes:          s.ResultBytes,
		ResultCouldBePartial: s.ResultCouldBePartial,
		PartialResultsReason: s.PartialResultsReason,
	}
}
