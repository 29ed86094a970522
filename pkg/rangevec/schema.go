package rangevec

import "fmt"

// ColumnType identifies the accessor on Row that a column's values live
// behind.
type ColumnType int

const (
	ColumnTimestamp ColumnType = iota
	ColumnDouble
	ColumnHistogram
	ColumnString
	// ColumnDigest marks a column carrying an opaque intermediate
	// aggregation state rather than a directly presentable value — a
	// t-digest for Quantile, a value-to-count map for CountValues.
	ColumnDigest
)

func (t ColumnType) String() string {
	switch t {
	case ColumnTimestamp:
		return "timestamp"
	case ColumnDouble:
		return "double"
	case ColumnHistogram:
		return "histogram"
	case ColumnString:
		return "string"
	case ColumnDigest:
		return "digest"
	default:
		return "unknown"
	}
}

// ColumnInfo names one column of a ResultSchema.
type ColumnInfo struct {
	Name string
	Type ColumnType
}

// RecordSchema is an opaque handle to a per-column binary-record sub-schema.
// The core treats this as a collaborator detail owned by the serialization
// layer (out of scope, §1); it is carried through so SerializedRangeVector
// can hand it to a pluggable encoder without the aggregation code caring
// about its contents.
type RecordSchema struct {
	Name string
}

// ResultSchema describes the ordered columns shared by every range vector in
// one QueryResult. The zero value, EmptySchema, is the identity element of
// ReduceSchemas.
type ResultSchema struct {
	Columns        []ColumnInfo
	FixedVectorLen *int
	BrSchemas      []*RecordSchema
}

// EmptySchema has no columns and acts as the identity of schema reduction.
var EmptySchema = ResultSchema{}

// IsEmpty reports whether s carries no columns.
func (s ResultSchema) IsEmpty() bool { return len(s.Columns) == 0 }

// Equals reports whether two schemas have the same column names and types
// and the same FixedVectorLen. BrSchemas are not compared: they are a
// serialization-layer detail, not part of the logical shape.
func (s ResultSchema) Equals(other ResultSchema) bool {
	if len(s.Columns) != len(other.Columns) {
		return false
	}
	for i := range s.Columns {
		if s.Columns[i] != other.Columns[i] {
			return false
		}
	}
	return fixedLenEqual(s.FixedVectorLen, other.FixedVectorLen)
}

// EqualColumnTypes reports whether two schemas have the same column types in
// the same order, ignoring column names. Used by the
// IgnoreFixedVectorLenAndColumnNames schema reducer.
func (s ResultSchema) EqualColumnTypes(other ResultSchema) bool {
	if len(s.Columns) != len(other.Columns) {
		return false
	}
	for i := range s.Columns {
		if s.Columns[i].Type != other.Columns[i].Type {
			return false
		}
	}
	return true
}

func fixedLenEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// SchemaMismatchError is returned when two non-empty, non-equal schemas are
// reduced together.
type SchemaMismatchError struct {
	First  ResultSchema
	Second ResultSchema
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: %v vs %v", e.First.Columns, e.Second.Columns)
}

// SchemaReducer combines two result schemas, one of which may be empty.
type SchemaReducer func(a, b ResultSchema) (ResultSchema, error)

// DefaultSchemaReducer implements "first non-empty wins; every later
// non-empty schema must equal it" (spec §4.E). It is associative: reducing
// S1..Sn in any order yields the same schema or the same SchemaMismatchError,
// since the operation is EmptySchema-identity plus strict equality.
func DefaultSchemaReducer(a, b ResultSchema) (ResultSchema, error) {
	if a.IsEmpty() {
		return b, nil
	}
	if b.IsEmpty() {
		return a, nil
	}
	if !a.Equals(b) {
		return ResultSchema{}, &SchemaMismatchError{First: a, Second: b}
	}
	return a, nil
}

// IgnoreFixedVectorLenAndColumnNameSchemaReducer requires only that column
// types line up, and merges FixedVectorLen by summation. Used by composers
// that concatenate shards of the same logical column set (e.g. a sharded
// raw-series selector) rather than validating a grouped aggregation's exact
// output columns.
func IgnoreFixedVectorLenAndColumnNameSchemaReducer(a, b ResultSchema) (ResultSchema, error) {
	if a.IsEmpty() {
		return b, nil
	}
	if b.IsEmpty() {
		return a, nil
	}
	if !a.EqualColumnTypes(b) {
		return ResultSchema{}, &SchemaMismatchError{First: a, Second: b}
	}
	merged := a
	if a.FixedVectorLen != nil && b.FixedVectorLen != nil {
		sum := *a.FixedVectorLen + *b.FixedVectorLen
		merged.FixedVectorLen = &sum
	} else {
		merged.FixedVectorLen = nil
	}
	return merged, nil
}

// ReduceSchemas folds reducer over schemas left to right, starting from
// EmptySchema. It returns EmptySchema for an empty input slice.
func ReduceSchemas(reducer SchemaReducer, schemas ...ResultSchema) (ResultSchema, error) {
	acc := EmptySchema
	for _, s := range schemas {
		var err error
		acc, err = reducer(acc, s)
		if err != nil {
			return ResultSchema{}, err
		}
	}
	return acc, nil
}
