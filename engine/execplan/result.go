package execplan

import (
	"github.com/grafana/rangevector/pkg/rangevec"
	"github.com/grafana/rangevector/queryctx"
)

// QueryResponse is the union QueryResult | QueryError every top-level
// Execute call returns. Exactly one of Result/Err is meaningful, signaled
// by IsError.
type QueryResponse struct {
	QueryID string
	Stats   queryctx.QueryStats

	IsError bool
	Result  QueryResult
	Err     QueryError
}

// QueryResult carries a successfully materialized (possibly empty, possibly
// partial) result.
type QueryResult struct {
	ResultSchema         rangevec.ResultSchema
	RangeVectors         []*rangevec.SerializedRangeVector
	ResultCouldBePartial bool
	PartialResultsReason string
}

// QueryError carries a fatal failure plus whatever stats were accumulated
// before the failure occurred.
type QueryError struct {
	Kind string
	Err  error
}

func successResponse(queryID string, stats queryctx.QueryStats, result QueryResult) QueryResponse {
	return QueryResponse{QueryID: queryID, Stats: stats, Result: result}
}

func errorResponse(queryID string, stats queryctx.QueryStats, err error) QueryResponse {
	return QueryResponse{
		QueryID: queryID,
		Stats:   stats,
		IsError: true,
		Err:     QueryError{Kind: errKindFor(err), Err: err},
	}
}
