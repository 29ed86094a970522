package rangevec

import (
	"go.uber.org/atomic"
)

// Container is one reusable backing buffer that rows get packed into.
// RecordWriter is the out-of-core-scope binary-record encoder (§1): the
// pipeline only demands something that turns a row stream into a bounded
// byte payload, so it is injected rather than implemented here.
type RecordWriter interface {
	// WriteRow appends row to the container, returning the number of bytes
	// it occupied once encoded.
	WriteRow(row Row, schema ResultSchema) (bytesWritten int, err error)
}

// Builder materializes many RangeVectors into SerializedRangeVectors. Each
// Serialize call takes the RecordWriter container newWriter returns; the
// Builder itself keeps no container between calls, so vectors share a
// backing buffer only if newWriter hands out a shared one. It is
// single-writer: callers serialize one RangeVector fully
// before starting the next, matching the "builder is single-writer" resource
// note (§5).
type Builder struct {
	newWriter func() RecordWriter
	planName  string
}

// NewBuilder returns a Builder that constructs a fresh RecordWriter
// container via newWriter for each SerializedRangeVector it produces.
func NewBuilder(newWriter func() RecordWriter) *Builder {
	return &Builder{newWriter: newWriter}
}

// SerializedRangeVector is a RangeVector that has been fully materialized
// into one or more RecordWriter containers. It owns those containers until
// the owning query completes.
type SerializedRangeVector struct {
	Key        RangeVectorKey
	Schema     ResultSchema
	PlanName   string
	writer     RecordWriter
	numRows    atomic.Int64
	bytesTotal atomic.Int64
}

// NumRowsSerialized returns the number of rows written into this vector.
func (s *SerializedRangeVector) NumRowsSerialized() int64 { return s.numRows.Load() }

// Bytes returns the total encoded byte count for this vector's container.
func (s *SerializedRangeVector) Bytes() int64 { return s.bytesTotal.Load() }

// Serialize drains src into a new SerializedRangeVector using the
// RecordWriter container from a fresh newWriter call, bounded by the engine's global sample
// limit which is enforced by the caller (engine/execplan) after summing
// across all vectors in a result — a single call here never aborts on
// overflow so the limit check can see the true total.
func (b *Builder) Serialize(src RangeVector, schema ResultSchema, planName string) (*SerializedRangeVector, error) {
	out := &SerializedRangeVector{
		Key:      src.Key,
		Schema:   schema,
		PlanName: planName,
		writer:   b.newWriter(),
	}
	it := src.Rows()
	for it.Next() {
		n, err := out.writer.WriteRow(it.At(), schema)
		if err != nil {
			return nil, err
		}
		out.numRows.Add(1)
		out.bytesTotal.Add(int64(n))
	}
	return out, nil
}

// KeySize returns the approximate byte size of the vector's key, used for
// result-size accounting alongside container bytes (§4.D).
func (s *SerializedRangeVector) KeySize() int64 {
	var n int64
	for _, p := range s.Key.Labels() {
		n += int64(len(p.Name) + len(p.Value))
	}
	return n
}
