package probe

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/pgfault/internal/fixture"
	"github.com/phrazzld/pgfault/internal/platform/logger"
	"github.com/phrazzld/pgfault/internal/store"
)

const (
	faultQuery = "SELECT name, age FROM table_causing_error WHERE 1000 / age > 0"
	rowQuery   = "SELECT name, age FROM (SELECT name, age FROM table_causing_error WHERE name = $1 OFFSET 0) AS t WHERE 1000 / age > 0"
	readQuery  = "SELECT title, amount FROM some_other_table ORDER BY title"
)

func divisionByZero() error {
	return &pgconn.PgError{Severity: "ERROR", Code: "22012", Message: "division by zero"}
}

func controlRows() *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"title", "amount"})
	for _, p := range fixture.Products {
		rows.AddRow(p.Title, p.Amount)
	}
	return rows
}

func newMock(t *testing.T) (*Runner, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	l, _ := logger.NewTestLogger(t)
	return NewRunner(db, DivisionByZero, l), mock
}

func TestDivisionByZeroQueries(t *testing.T) {
	assert.Equal(t, faultQuery, DivisionByZero.Query)
	assert.Equal(t, rowQuery, DivisionByZero.RowQuery)
	assert.Equal(t, "22012", DivisionByZero.SQLState)

	var triggering []string
	for _, p := range fixture.People {
		if DivisionByZero.Triggers(p) {
			triggering = append(triggering, p.Name)
		}
	}
	assert.Equal(t, []string{"Charlie"}, triggering)
}

func TestFaultMatches(t *testing.T) {
	assert.False(t, DivisionByZero.Matches(nil))
	assert.True(t, DivisionByZero.Matches(divisionByZero()))
	assert.False(t, DivisionByZero.Matches(errors.New("boom")))
	assert.False(t, DivisionByZero.Matches(&pgconn.PgError{Code: "42P01"}))

	anyError := Fault{Name: "any"}
	assert.True(t, anyError.Matches(errors.New("boom")))
}

func TestReadControl(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectQuery(readQuery).WillReturnRows(controlRows())

	snap, err := r.ReadControl(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Count())
	assert.Equal(t, fixture.Products, snap.Rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadControlError(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectQuery(readQuery).WillReturnError(&pgconn.PgError{Code: "42P01", Message: "relation does not exist"})

	_, err := r.ReadControl(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrQueryFailed)
	assert.ErrorIs(t, err, store.ErrNotFound)

	var storeErr *store.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "some_other_table", storeErr.Table)
}

func TestRunFault(t *testing.T) {
	t.Run("error while reading rows", func(t *testing.T) {
		r, mock := newMock(t)
		mock.ExpectQuery(faultQuery).WillReturnRows(
			sqlmock.NewRows([]string{"name", "age"}).
				AddRow("Alice", 25).
				AddRow("Bob", 30).
				AddRow("Charlie", 0).
				RowError(2, divisionByZero()))

		res := r.RunFault(context.Background())
		require.True(t, res.Failed())
		assert.True(t, DivisionByZero.Matches(res.Err))
		assert.Equal(t, []fixture.Person{{Name: "Alice", Age: 25}, {Name: "Bob", Age: 30}}, res.Rows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error when query is sent", func(t *testing.T) {
		r, mock := newMock(t)
		mock.ExpectQuery(faultQuery).WillReturnError(divisionByZero())

		res := r.RunFault(context.Background())
		require.True(t, res.Failed())
		assert.Contains(t, res.Err.Error(), "division by zero")
		assert.Empty(t, res.Rows)
	})

	t.Run("no error", func(t *testing.T) {
		r, mock := newMock(t)
		mock.ExpectQuery(faultQuery).WillReturnRows(
			sqlmock.NewRows([]string{"name", "age"}).AddRow("Alice", 25))

		res := r.RunFault(context.Background())
		assert.False(t, res.Failed())
		assert.Len(t, res.Rows, 1)
	})
}

func TestProbeEachRow(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectQuery(rowQuery).WithArgs("Alice").
		WillReturnRows(sqlmock.NewRows([]string{"name", "age"}).AddRow("Alice", 25))
	mock.ExpectQuery(rowQuery).WithArgs("Bob").
		WillReturnRows(sqlmock.NewRows([]string{"name", "age"}).AddRow("Bob", 30))
	mock.ExpectQuery(rowQuery).WithArgs("Charlie").WillReturnError(divisionByZero())

	probes := r.ProbeEachRow(context.Background(), fixture.People)
	require.Len(t, probes, 3)
	for _, p := range probes {
		assert.Equal(t, p.Person.Age == 0, p.Result.Failed(), p.Person.Name)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func expectRun(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(readQuery).WillReturnRows(controlRows())
	mock.ExpectQuery(faultQuery).WillReturnRows(
		sqlmock.NewRows([]string{"name", "age"}).
			AddRow("Alice", 25).
			AddRow("Bob", 30).
			AddRow("Charlie", 0).
			RowError(2, divisionByZero()))
	mock.ExpectQuery(rowQuery).WithArgs("Alice").
		WillReturnRows(sqlmock.NewRows([]string{"name", "age"}).AddRow("Alice", 25))
	mock.ExpectQuery(rowQuery).WithArgs("Bob").
		WillReturnRows(sqlmock.NewRows([]string{"name", "age"}).AddRow("Bob", 30))
	mock.ExpectQuery(rowQuery).WithArgs("Charlie").WillReturnError(divisionByZero())
}

func TestRun(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	expectRun(mock)
	mock.ExpectQuery(readQuery).WillReturnRows(controlRows())

	var phases []Phase
	l, _ := logger.NewTestLogger(t)
	r := NewRunner(db, DivisionByZero, l, WithPhaseHook(func(p Phase, _ *Report) { phases = append(phases, p) }))

	report, err := r.Run(context.Background(), fixture.People)
	require.NoError(t, err)
	assert.Equal(t, []Phase{PhasePreFault, PhaseFault, PhasePostFault}, phases)
	require.Len(t, report.Pool, 3)
	assert.Equal(t, PhasePostFault, report.Pool[2].Phase)
	assert.Equal(t, 5, report.Before.Count())
	assert.Equal(t, 5, report.After.Count())
	assert.NoError(t, report.Verify())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunConnectionUnusableAfterFault(t *testing.T) {
	r, mock := newMock(t)
	expectRun(mock)
	mock.ExpectQuery(readQuery).WillReturnError(errors.New("conn busy"))

	report, err := r.Run(context.Background(), fixture.People)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectionUnusable)
	require.NotNil(t, report)
	assert.True(t, report.Result.Failed())
}
