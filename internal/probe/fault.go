package probe

import (
	"github.com/phrazzld/pgfault/internal/fixture"
	"github.com/phrazzld/pgfault/internal/platform/postgres"
)

// Fault describes the failure a reproduction provokes. What fails, and with
// which SQLSTATE, is engine-defined, so it is data rather than code.
type Fault struct {
	// Name identifies the fault in logs.
	Name string

	// Query reads the whole fault table and returns (name, age) rows.
	// It must fail for at least one seed row.
	Query string

	// RowQuery applies the same predicate to the single row named by $1.
	RowQuery string

	// SQLState is the expected error code. Empty accepts any error.
	SQLState string

	// Triggers reports whether the predicate fails for p.
	Triggers func(p fixture.Person) bool
}

// DivisionByZero is the PostgreSQL fault: 1000 / age raises division_by_zero
// for the row whose age is 0, after earlier rows have already been produced.
var DivisionByZero = Fault{
	Name:  "division_by_zero",
	Query: "SELECT name, age FROM " + fixture.FaultTable + " WHERE 1000 / age > 0",
	// OFFSET 0 stops the planner from merging the name filter into the
	// division predicate, so other rows are never divided.
	RowQuery: "SELECT name, age FROM (SELECT name, age FROM " + fixture.FaultTable +
		" WHERE name = $1 OFFSET 0) AS t WHERE 1000 / age > 0",
	SQLState: postgres.DivisionByZeroCode,
	Triggers: func(p fixture.Person) bool { return p.Age == 0 },
}

// Matches reports whether err is the failure f expects.
func (f Fault) Matches(err error) bool {
	if err == nil {
		return false
	}
	return f.SQLState == "" || postgres.SQLState(err) == f.SQLState
}
