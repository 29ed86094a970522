package execplan

import (
	"context"
	"fmt"

	"github.com/grafana/rangevector/pkg/rangevec"
	"github.com/grafana/rangevector/queryctx"
)

// ChunkSource is the external collaborator a leaf plan reads raw samples
// from — the on-disk/in-memory column store this engine does not implement
// (spec.md §6 Out-of-scope; represented here as a narrow interface rather
// than a storage SDK stub).
type ChunkSource interface {
	// ReadRawSeries returns every range vector in dataset matching selector
	// within [startMs, endMs], each carrying its own key and a single-shot
	// row cursor over (timestamp, value/histogram) samples.
	ReadRawSeries(ctx context.Context, dataset string, selector map[string]string, startMs, endMs int64) ([]rangevec.RangeVector, error)
}

// HistogramTranslator converts one externally sourced row into the
// internal exponential-bucket Histogram schema, applied at the leaf
// boundary when translate-prom-to-filodb-histogram is enabled.
type HistogramTranslator func(row rangevec.Row) rangevec.Histogram

// SelectRawSeriesPlan is the minimal concrete leaf: it reads raw series
// from a ChunkSource and, when configured with a HistogramTranslator,
// rewrites each row's histogram column before handing rows to the
// transformer chain.
type SelectRawSeriesPlan struct {
	BasePlan

	Source        ChunkSource
	Selector      map[string]string
	StartMs       int64
	EndMs         int64
	Translator    HistogramTranslator
	SchemaForRows rangevec.ResultSchema
}

// NewSelectRawSeriesPlan returns a leaf plan reading dataset/selector over
// [startMs, endMs] via source, presenting rows under schema.
func NewSelectRawSeriesPlan(dataset string, dispatcher Dispatcher, source ChunkSource, selector map[string]string, startMs, endMs int64, schema rangevec.ResultSchema) *SelectRawSeriesPlan {
	return &SelectRawSeriesPlan{
		BasePlan:      NewBasePlan(dataset, dispatcher, nil),
		Source:        source,
		Selector:      selector,
		StartMs:       startMs,
		EndMs:         endMs,
		SchemaForRows: schema,
	}
}

func (p *SelectRawSeriesPlan) PlanClass() string { return "SelectRawSeriesPlan" }

func (p *SelectRawSeriesPlan) Args() string {
	return fmt.Sprintf("dataset=%s, selector=%v, start=%d, end=%d", p.DatasetName, p.Selector, p.StartMs, p.EndMs)
}

func (p *SelectRawSeriesPlan) DoExecute(ctx context.Context, session *queryctx.Session) (ExecResult, error) {
	rvs, err := p.Source.ReadRawSeries(ctx, p.DatasetName, p.Selector, p.StartMs, p.EndMs)
	if err != nil {
		return ExecResult{}, err
	}
	if p.Translator != nil {
		for i, rv := range rvs {
			rvs[i] = translateHistograms(rv, p.Translator)
		}
	}
	return ExecResult{RangeVectors: rvs, Schema: p.SchemaForRows}, nil
}

// translatingRow overrides GetHistogram to run through a HistogramTranslator,
// leaving every other accessor delegated to the wrapped row.
type translatingRow struct {
	rangevec.Row
	translator HistogramTranslator
}

func (r translatingRow) GetHistogram(int) rangevec.Histogram { return r.translator(r.Row) }

type translatingIterator struct {
	inner      rangevec.RowIterator
	translator HistogramTranslator
}

func (it *translatingIterator) Next() bool { return it.inner.Next() }

func (it *translatingIterator) At() rangevec.Row {
	return translatingRow{Row: it.inner.At(), translator: it.translator}
}

func translateHistograms(rv rangevec.RangeVector, translator HistogramTranslator) rangevec.RangeVector {
	return rangevec.RangeVector{
		Key:         rv.Key,
		OutputRange: rv.OutputRange,
		Rows: func() rangevec.RowIterator {
			return &translatingIterator{inner: rv.Rows(), translator: translator}
		},
	}
}
