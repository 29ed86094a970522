package aggregate

import (
	"github.com/caio/go-tdigest/v3"
)

// digestCompression bounds the t-digest's centroid count; ~100 keeps
// quantile error within a fraction of a percent for the data sizes a single
// query group sees, matching the "bounded compression (~100)" note.
const digestCompression = 100

func newDigest() *tdigest.TDigest {
	td, err := tdigest.New(tdigest.Compression(digestCompression))
	if err != nil {
		// Compression is a compile-time constant known to be valid; New
		// only errors on invalid options.
		panic(err)
	}
	return td
}

func mergeDigest(into, other *tdigest.TDigest) {
	if other == nil || other.Count() == 0 {
		return
	}
	if err := into.Merge(other); err != nil {
		panic(err)
	}
}
