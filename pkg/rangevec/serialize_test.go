package rangevec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeRecordWriter is a bare in-memory RecordWriter used only to exercise
// Builder.Serialize without a real binary-record encoder.
type fakeRecordWriter struct {
	rows []Row
}

func (w *fakeRecordWriter) WriteRow(row Row, _ ResultSchema) (int, error) {
	w.rows = append(w.rows, row)
	return 8, nil
}

func TestBuilderSerialize(t *testing.T) {
	rows := []Row{
		NewTransientRow(1000, 1.0),
		NewTransientRow(2000, 2.0),
		NewTransientRow(3000, 3.0),
	}
	key := NewRangeVectorKey([]LabelPair{{Name: []byte("job"), Value: []byte("a")}})
	src := NewRangeVector(key, rows, nil)

	var writer *fakeRecordWriter
	b := NewBuilder(func() RecordWriter {
		writer = &fakeRecordWriter{}
		return writer
	})

	schema := schemaOf("timestamp", "value")
	out, err := b.Serialize(src, schema, "TestPlan")
	require.NoError(t, err)

	require.Equal(t, int64(3), out.NumRowsSerialized())
	require.Equal(t, int64(24), out.Bytes())
	require.Equal(t, "TestPlan", out.PlanName)
	require.Len(t, writer.rows, 3)
}

func TestSerializedRangeVectorKeySize(t *testing.T) {
	key := NewRangeVectorKey([]LabelPair{{Name: []byte("job"), Value: []byte("abc")}})
	out := &SerializedRangeVector{Key: key}
	require.Equal(t, int64(len("job")+len("abc")), out.KeySize())
}
