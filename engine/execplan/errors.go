package execplan

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/grafana/rangevector/pkg/rangevec"
	"github.com/grafana/rangevector/pkg/rangevec/aggregate"
)

// ErrQueryTimeout is raised at a step boundary when the query has already
// exceeded its configured deadline.
var ErrQueryTimeout = errors.New("query timeout exceeded")

// The Kind* constants label QueryError.Kind for metrics and logging; Kind
// values are otherwise opaque strings.
const (
	KindTimeout        = "timeout"
	KindBadQuery       = "bad-query"
	KindSchemaMismatch = "schema-mismatch"
	KindChildFailure   = "child-failure"
	KindSampleLimit    = "sample-limit"
	KindInternal       = "internal"
)

// SampleLimitExceededError reports that materialization produced more
// samples than the query's sampleLimit permits; the query aborts rather
// than returning a truncated result.
type SampleLimitExceededError struct {
	Limit int
	Got   int64
}

func (e *SampleLimitExceededError) Error() string {
	return fmt.Sprintf("materialized %d samples, exceeding limit %d", e.Got, e.Limit)
}

// wrapStage adds plan-tree context to an error surfaced from a pipeline
// stage, matching the teacher's general errors.Wrapf-at-boundaries idiom.
func wrapStage(err error, stage, planClass string) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrapf(err, "%s: %s", stage, planClass)
}

// errKindFor classifies err for metrics/logging purposes.
func errKindFor(err error) string {
	switch {
	case errors.Is(err, ErrQueryTimeout):
		return KindTimeout
	case isBadQuery(err):
		return KindBadQuery
	case isSchemaMismatch(err):
		return KindSchemaMismatch
	case isSampleLimit(err):
		return KindSampleLimit
	default:
		return KindInternal
	}
}

func isBadQuery(err error) bool {
	var e *aggregate.BadQueryException
	return errors.As(err, &e)
}

func isSchemaMismatch(err error) bool {
	var e *rangevec.SchemaMismatchError
	return errors.As(err, &e)
}

func isSampleLimit(err error) bool {
	var e *SampleLimitExceededError
	return errors.As(err, &e)
}
