package main

import (
	"context"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/rangevector/pkg/rangevec"
)

// inMemoryChunkSource is a ChunkSource backed by a handful of fixed series,
// standing in for the on-disk column store this engine does not implement
// (spec.md §6 Out-of-scope).
type inMemoryChunkSource struct {
	series map[string][]rangevec.RangeVector
}

func newInMemoryChunkSource() *inMemoryChunkSource {
	return &inMemoryChunkSource{
		series: map[string][]rangevec.RangeVector{
			"a": {
				seriesFor("job", "api", map[int64]float64{0: 1, 1000: 2, 2000: 3, 3000: 4}),
				seriesFor("job", "worker", map[int64]float64{0: 5, 1000: 6, 2000: 7, 3000: 8}),
			},
			"b": {
				seriesFor("job", "api", map[int64]float64{0: 10, 1000: 11, 2000: 12, 3000: 13}),
			},
		},
	}
}

func (s *inMemoryChunkSource) ReadRawSeries(_ context.Context, _ string, selector map[string]string, startMs, endMs int64) ([]rangevec.RangeVector, error) {
	shard := selector["shard"]
	out := s.series[shard]
	if out == nil {
		return nil, fmt.Errorf("no series for shard %q", shard)
	}
	return out, nil
}

func seriesFor(labelName, labelValue string, values map[int64]float64) rangevec.RangeVector {
	key := rangevec.NewRangeVectorKey([]rangevec.LabelPair{{Name: []byte(labelName), Value: []byte(labelValue)}})
	rows := make([]rangevec.Row, 0, len(values))
	for ts, v := range values {
		rows = append(rows, rangevec.NewTransientRow(ts, v))
	}
	return rangevec.NewRangeVector(key, rows, nil)
}

// logRowWriter is a RecordWriter that logs each row instead of encoding it
// into a real binary container, standing in for the opaque out-of-scope
// encoder (§1) this demo has no use for.
type logRowWriter struct {
	logger log.Logger
}

func newLogRowWriter(logger log.Logger) *logRowWriter {
	return &logRowWriter{logger: logger}
}

func (w *logRowWriter) WriteRow(row rangevec.Row, _ rangevec.ResultSchema) (int, error) {
	level.Debug(w.logger).Log("msg", "row", "ts", row.GetLong(0), "value", row.GetDouble(1))
	return 16, nil
}

func prometheusRegistryOrNil() prometheus.Registerer {
	return prometheus.NewRegistry()
}
