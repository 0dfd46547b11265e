package probe

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/pgfault/internal/fixture"
	"github.com/phrazzld/pgfault/internal/platform/postgres"
	"github.com/phrazzld/pgfault/internal/store"
)

const controlQuery = "SELECT title, amount FROM " + fixture.ControlTable + " ORDER BY title"

// Phase names a step of Run.
type Phase string

// Run phases in execution order.
const (
	PhasePreFault  Phase = "pre_fault"
	PhaseFault     Phase = "fault"
	PhasePostFault Phase = "post_fault"
)

// Pool is a statement executor that also reports connection pool counters.
// Both *sql.DB and *postgres.DB satisfy it.
type Pool interface {
	store.DBTX
	Stats() sql.DBStats
}

// Runner issues the reproduction's queries over one connection pool.
type Runner struct {
	db      Pool
	fault   Fault
	logger  *slog.Logger
	onPhase func(Phase, *Report)
}

// Option configures a Runner.
type Option func(*Runner)

// WithPhaseHook registers fn to be called as Run enters each phase, with the
// report filled in as far as the previous phases got.
func WithPhaseHook(fn func(Phase, *Report)) Option {
	return func(r *Runner) {
		r.onPhase = fn
	}
}

// NewRunner returns a Runner that provokes fault through db.
func NewRunner(db Pool, fault Fault, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		db:     db,
		fault:  fault,
		logger: logger.With("component", "probe", "fault", fault.Name),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads the control table, runs the faulting query, probes each of
// people, then reads the control table again. The fault itself never makes
// Run fail; a failing control read does. A post-fault read failure is
// reported as ErrConnectionUnusable.
func (r *Runner) Run(ctx context.Context, people []fixture.Person) (*Report, error) {
	report := &Report{Fault: r.fault}

	r.enter(PhasePreFault, report)
	before, err := r.ReadControl(ctx)
	if err != nil {
		return report, err
	}
	report.Before = before

	r.enter(PhaseFault, report)
	report.Result = r.RunFault(ctx)
	report.RowProbes = r.ProbeEachRow(ctx, people)

	r.enter(PhasePostFault, report)
	after, err := r.ReadControl(ctx)
	if err != nil {
		r.logger.Error("control read failed after fault",
			"error", err.Error(),
			"connection_error", postgres.IsConnectionError(err))
		return report, fmt.Errorf("%w: %w", ErrConnectionUnusable, err)
	}
	report.After = after
	return report, nil
}

func (r *Runner) enter(phase Phase, report *Report) {
	stats := r.db.Stats()
	report.Pool = append(report.Pool, PoolStats{Phase: phase, Stats: stats})
	r.logger.Debug("entering phase",
		"phase", string(phase),
		"open_connections", stats.OpenConnections,
		"in_use", stats.InUse,
		"idle", stats.Idle)
	if r.onPhase != nil {
		r.onPhase(phase, report)
	}
}

// ReadControl reads every row of the control table.
func (r *Runner) ReadControl(ctx context.Context) (Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, controlQuery)
	if err != nil {
		return Snapshot{}, controlError(err)
	}
	defer func() { _ = rows.Close() }()

	var snap Snapshot
	for rows.Next() {
		var p fixture.Product
		if err := rows.Scan(&p.Title, &p.Amount); err != nil {
			return Snapshot{}, controlError(err)
		}
		snap.Rows = append(snap.Rows, p)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, controlError(err)
	}

	r.logger.Debug("read control table", "rows", snap.Count())
	return snap, nil
}

// RunFault runs the faulting query over the whole fault table. Failures are
// captured in the result whether the driver reports them when the query is
// sent or while its rows are being read.
func (r *Runner) RunFault(ctx context.Context) FaultResult {
	res := r.queryPeople(ctx, r.fault.Query)
	if res.Failed() {
		r.logger.Info("faulting query failed",
			"error", res.Err.Error(),
			"expected", r.fault.Matches(res.Err),
			"sqlstate", postgres.SQLState(res.Err),
			"rows_before_error", len(res.Rows))
	} else {
		r.logger.Warn("faulting query succeeded", "rows", len(res.Rows))
	}
	return res
}

// ProbeEachRow applies the fault predicate to each person on its own.
func (r *Runner) ProbeEachRow(ctx context.Context, people []fixture.Person) []RowProbe {
	probes := make([]RowProbe, 0, len(people))
	for _, p := range people {
		res := r.queryPeople(ctx, r.fault.RowQuery, p.Name)
		r.logger.Debug("probed row",
			"name", p.Name,
			"age", p.Age,
			"failed", res.Failed(),
			"sqlstate", postgres.SQLState(res.Err))
		probes = append(probes, RowProbe{Person: p, Result: res})
	}
	return probes
}

func (r *Runner) queryPeople(ctx context.Context, query string, args ...any) FaultResult {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return FaultResult{Err: err}
	}
	defer func() { _ = rows.Close() }()

	var res FaultResult
	for rows.Next() {
		var p fixture.Person
		if err := rows.Scan(&p.Name, &p.Age); err != nil {
			res.Err = err
			return res
		}
		res.Rows = append(res.Rows, p)
	}
	res.Err = rows.Err()
	return res
}

func controlError(err error) error {
	return fmt.Errorf("%w: %w", store.ErrQueryFailed,
		store.NewStoreError(fixture.ControlTable, "select", "reading control rows", postgres.MapError(err)))
}
