package probe

import (
	"database/sql"
	"errors"
	"fmt"
)

// Verification errors.
var (
	// ErrFaultNotTriggered means the faulting query succeeded, which only
	// happens if the seed data no longer contains the triggering row.
	ErrFaultNotTriggered = errors.New("faulting query did not fail")

	// ErrUnexpectedFault means the faulting query failed, but not with the
	// expected error.
	ErrUnexpectedFault = errors.New("faulting query failed with an unexpected error")

	// ErrControlDrift means the control table changed across the fault.
	ErrControlDrift = errors.New("control table changed across the fault")

	// ErrProbeMismatch means a single-row probe failed when it should have
	// succeeded, or the reverse.
	ErrProbeMismatch = errors.New("per-row probe disagrees with seed data")

	// ErrConnectionUnusable means the pool rejected queries after the fault.
	ErrConnectionUnusable = errors.New("connection unusable after fault")
)

// PoolStats are the pool counters captured at one phase of the run.
type PoolStats struct {
	Phase Phase
	Stats sql.DBStats
}

// Report collects everything observed during one reproduction.
type Report struct {
	Fault     Fault
	Before    Snapshot
	Result    FaultResult
	RowProbes []RowProbe
	After     Snapshot
	Pool      []PoolStats
}

// Verify checks the observations against the expected outcome: the fault
// happened and was the expected one, each row probe failed exactly when the
// fault predicts, and the control table is unchanged.
func (r *Report) Verify() error {
	if !r.Result.Failed() {
		return fmt.Errorf("%w: %d rows returned", ErrFaultNotTriggered, len(r.Result.Rows))
	}
	if !r.Fault.Matches(r.Result.Err) {
		return fmt.Errorf("%w: %w", ErrUnexpectedFault, r.Result.Err)
	}

	for _, p := range r.RowProbes {
		want := r.Fault.Triggers != nil && r.Fault.Triggers(p.Person)
		if p.Result.Failed() != want {
			return fmt.Errorf("%w: row %q failed=%t, expected failed=%t (error: %v)",
				ErrProbeMismatch, p.Person.Name, p.Result.Failed(), want, p.Result.Err)
		}
		if want && !r.Fault.Matches(p.Result.Err) {
			return fmt.Errorf("%w: row %q: %w", ErrUnexpectedFault, p.Person.Name, p.Result.Err)
		}
	}

	if !r.Before.Equal(r.After) {
		return fmt.Errorf("%w: %d rows before, %d rows after",
			ErrControlDrift, r.Before.Count(), r.After.Count())
	}
	return nil
}
