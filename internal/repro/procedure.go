package repro

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/phrazzld/pgfault/internal/config"
	"github.com/phrazzld/pgfault/internal/fixture"
	"github.com/phrazzld/pgfault/internal/platform/logger"
	"github.com/phrazzld/pgfault/internal/platform/postgres"
	"github.com/phrazzld/pgfault/internal/probe"
	"github.com/phrazzld/pgfault/internal/store"
)

// ErrInvalidTransition is returned when a run would skip or repeat a state.
var ErrInvalidTransition = errors.New("invalid state transition")

// Opener opens the single-connection pool. postgres.Open is the default.
type Opener func(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*postgres.DB, error)

// Initializer rebuilds and seeds the fixture tables.
type Initializer interface {
	Initialize(ctx context.Context, db *sql.DB) error
}

// Procedure runs the reproduction once.
type Procedure struct {
	cfg    *config.Config
	out    io.Writer
	log    *slog.Logger
	open   Opener
	setup  Initializer
	fault  probe.Fault
	people []fixture.Person

	state   State
	visited []State
}

// Option configures a Procedure.
type Option func(*Procedure)

// WithOpener replaces postgres.Open.
func WithOpener(open Opener) Option {
	return func(p *Procedure) { p.open = open }
}

// WithInitializer replaces the fixture initializer.
func WithInitializer(setup Initializer) Option {
	return func(p *Procedure) { p.setup = setup }
}

// WithFault replaces probe.DivisionByZero.
func WithFault(f probe.Fault) Option {
	return func(p *Procedure) { p.fault = f }
}

// New returns a Procedure that reports progress to out.
func New(cfg *config.Config, out io.Writer, log *slog.Logger, opts ...Option) *Procedure {
	if log == nil {
		log = slog.Default()
	}
	p := &Procedure{
		cfg:    cfg,
		out:    out,
		log:    log,
		open:   postgres.Open,
		setup:  fixture.NewInitializer(),
		fault:  probe.DivisionByZero,
		people: fixture.People,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the state the last run ended in.
func (p *Procedure) State() State {
	return p.state
}

// Visited returns every state the last run entered, in order.
func (p *Procedure) Visited() []State {
	return append([]State(nil), p.visited...)
}

// Run performs the reproduction. It returns the collected report, which may
// be partial or nil when setup fails, and an error when setup fails or the
// observations do not match the expected outcome. The pool is closed exactly
// once before Run returns, whatever happened after connecting.
func (p *Procedure) Run(ctx context.Context) (report *probe.Report, err error) {
	p.state = StateIdle
	p.visited = nil

	log := p.log.With("run_id", uuid.NewString())
	ctx = logger.WithLogger(ctx, log)
	log.Info("starting reproduction", "fault", p.fault.Name)

	db, err := p.open(ctx, p.cfg.Database, log)
	if err != nil {
		log.Error("failed to connect", "error", err)
		return nil, fmt.Errorf("%w: connect: %w", store.ErrSetupFailed, err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database", "error", closeErr)
			err = errors.Join(err, fmt.Errorf("close: %w", closeErr))
		}
		if tErr := p.transition(log, StateClosed); tErr != nil {
			err = errors.Join(err, tErr)
		}
		p.printf("Database connection closed.\n")
	}()

	if err := p.transition(log, StateConnected); err != nil {
		return nil, err
	}

	version, err := db.ServerVersion(ctx)
	if err != nil {
		log.Error("failed to read server version", "error", err)
		return nil, fmt.Errorf("%w: %w", store.ErrSetupFailed, err)
	}
	p.printf("Database version: %s\n", version)

	if err := p.setup.Initialize(ctx, db.SQL()); err != nil {
		log.Error("failed to initialize tables", "error", err)
		return nil, err
	}
	if err := p.transition(log, StateInitialized); err != nil {
		return nil, err
	}

	var hookErr error
	runner := probe.NewRunner(db, p.fault, log, probe.WithPhaseHook(func(ph probe.Phase, r *probe.Report) {
		if hookErr != nil {
			return
		}
		switch ph {
		case probe.PhasePreFault:
			hookErr = p.transition(log, StatePreFaultQuery)
		case probe.PhaseFault:
			p.printCount(r.Before)
			hookErr = p.transition(log, StateFaultingQuery)
		case probe.PhasePostFault:
			p.printResult(r.Result)
			hookErr = p.transition(log, StatePostFaultQuery)
		}
	}))

	report, err = runner.Run(ctx, p.people)
	if err != nil {
		log.Error("reproduction aborted", "error", err)
		return report, errors.Join(err, hookErr)
	}
	if hookErr != nil {
		return report, hookErr
	}

	p.printCount(report.After)
	p.printRows("Data in "+fixture.ControlTable+":", report.After.Rows)

	if err := report.Verify(); err != nil {
		log.Error("reproduction not verified", "error", err)
		return report, err
	}

	log.Info("reproduction verified",
		"rows_before_error", len(report.Result.Rows),
		"control_rows", report.After.Count())
	return report, nil
}

func (p *Procedure) transition(log *slog.Logger, next State) error {
	if !p.state.canTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.state, next)
	}
	log.Debug("state transition", "from", p.state.String(), "to", next.String())
	p.state = next
	p.visited = append(p.visited, next)
	return nil
}

func (p *Procedure) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

func (p *Procedure) printCount(s probe.Snapshot) {
	p.printf("Number of items in %s: %d\n", fixture.ControlTable, s.Count())
}

func (p *Procedure) printResult(res probe.FaultResult) {
	if res.Failed() {
		p.printf("Error: %s\n", res.Err)
		return
	}
	p.printf("Data in %s:\n", fixture.FaultTable)
	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	for _, r := range res.Rows {
		_, _ = fmt.Fprintf(tw, "  %s\t%d\n", r.Name, r.Age)
	}
	_ = tw.Flush()
}

func (p *Procedure) printRows(title string, rows []fixture.Product) {
	p.printf("%s\n", title)
	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	for _, r := range rows {
		_, _ = fmt.Fprintf(tw, "  %s\t%d\n", r.Title, r.Amount)
	}
	_ = tw.Flush()
}
