package probe

import (
	"slices"

	"github.com/phrazzld/pgfault/internal/fixture"
)

// FaultResult is the outcome of a query that is expected to fail.
type FaultResult struct {
	// Rows holds every row received. When Err is set these are the rows the
	// server delivered before the failure.
	Rows []fixture.Person

	// Err is the query's error, nil if it succeeded.
	Err error
}

// Failed reports whether the query failed.
func (r FaultResult) Failed() bool {
	return r.Err != nil
}

// Snapshot is the content of the control table at one point in the run.
type Snapshot struct {
	Rows []fixture.Product
}

// Count returns the number of rows.
func (s Snapshot) Count() int {
	return len(s.Rows)
}

// Equal reports whether both snapshots hold the same rows in the same order.
func (s Snapshot) Equal(other Snapshot) bool {
	return slices.Equal(s.Rows, other.Rows)
}

// RowProbe is the outcome of the fault predicate applied to one seed row.
type RowProbe struct {
	Person fixture.Person
	Result FaultResult
}
