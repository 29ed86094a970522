package aggregate

import "fmt"

// BadQueryException reports an aggregation built with out-of-range
// parameters (k <= 0, q outside [0,1], an oversized CountValues fan-out).
// It is fatal: the query fails rather than silently clamping the parameter.
type BadQueryException struct {
	Message string
}

func (e *BadQueryException) Error() string { return e.Message }

func badQuery(format string, args ...interface{}) error {
	return &BadQueryException{Message: fmt.Sprintf(format, args...)}
}
