package rangevec

import (
	"bytes"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// LabelPair is one (name, value) entry of a RangeVectorKey.
type LabelPair struct {
	Name  []byte
	Value []byte
}

// RangeVectorKey identifies a single output time series by its label set.
// It is kept as a canonicalized (sorted by name) slice rather than a map so
// that hashing and equality are O(n) without per-lookup allocation, per the
// engine's design notes on treating keys as value types.
type RangeVectorKey struct {
	labels []LabelPair
	hash   uint64
	hashed bool
}

// NewRangeVectorKey builds a key from an unordered set of label pairs,
// sorting them by name for canonical comparison and hashing.
func NewRangeVectorKey(labels []LabelPair) RangeVectorKey {
	cp := make([]LabelPair, len(labels))
	copy(cp, labels)
	sort.Slice(cp, func(i, j int) bool {
		return bytes.Compare(cp[i].Name, cp[j].Name) < 0
	})
	return RangeVectorKey{labels: cp}
}

// Get returns the value for name and whether it was present.
func (k RangeVectorKey) Get(name []byte) ([]byte, bool) {
	// labels is small (a handful of tags per series); linear scan over a
	// sorted slice beats a map for this size and avoids the allocation.
	for _, p := range k.labels {
		if bytes.Equal(p.Name, name) {
			return p.Value, true
		}
	}
	return nil, false
}

// Labels returns the canonicalized, sorted label pairs.
func (k RangeVectorKey) Labels() []LabelPair { return k.labels }

// Equals reports content equality: same set of (name, value) pairs.
func (k RangeVectorKey) Equals(other RangeVectorKey) bool {
	if len(k.labels) != len(other.labels) {
		return false
	}
	for i := range k.labels {
		if !bytes.Equal(k.labels[i].Name, other.labels[i].Name) ||
			!bytes.Equal(k.labels[i].Value, other.labels[i].Value) {
			return false
		}
	}
	return true
}

// Hash returns a stable hash of the key's content, memoized on first call.
func (k *RangeVectorKey) Hash() uint64 {
	if k.hashed {
		return k.hash
	}
	d := xxhash.New()
	for _, p := range k.labels {
		_, _ = d.Write(p.Name)
		_, _ = d.Write([]byte{0})
		_, _ = d.Write(p.Value)
		_, _ = d.Write([]byte{0})
	}
	k.hash = d.Sum64()
	k.hashed = true
	return k.hash
}

// MapKey returns a comparable string suitable for use as a Go map key. It is
// a convenience over Hash() for call sites that need exact (not probabilistic)
// equality semantics from a map lookup, at the cost of an allocation.
func (k RangeVectorKey) MapKey() string {
	var buf bytes.Buffer
	for _, p := range k.labels {
		buf.Write(p.Name)
		buf.WriteByte(0)
		buf.Write(p.Value)
		buf.WriteByte(0)
	}
	return buf.String()
}

// WithLabel returns a copy of k with name set to value, replacing any
// existing entry for name.
func (k RangeVectorKey) WithLabel(name, value []byte) RangeVectorKey {
	next := make([]LabelPair, 0, len(k.labels)+1)
	replaced := false
	for _, p := range k.labels {
		if bytes.Equal(p.Name, name) {
			next = append(next, LabelPair{Name: name, Value: value})
			replaced = true
			continue
		}
		next = append(next, p)
	}
	if !replaced {
		next = append(next, LabelPair{Name: name, Value: value})
	}
	return NewRangeVectorKey(next)
}
