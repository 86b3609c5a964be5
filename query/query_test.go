package query

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/donseok/pbtm-project/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListObjectsAppliesTypeFilterAndLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "type", "name", "source_path"}).
		AddRow(1, "Screen", "w_main", "w_main.win")
	mock.ExpectQuery("SELECT id, type, name, source_path FROM objects").
		WithArgs("run-1", "Screen", 200).
		WillReturnRows(rows)

	s := New(db, config.Default())
	out, err := s.ListObjects(context.Background(), "run-1", "Screen", 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "w_main", out[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListObjectsClampsRequestedLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, type, name, source_path FROM objects").
		WithArgs("run-1", 2000).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "name", "source_path"}))

	s := New(db, config.Default())
	_, err = s.ListObjects(context.Background(), "run-1", "", 999999)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunsOrdersByStartedAtDescending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"run_id", "started_at", "finished_at", "status", "source_version"}).
		AddRow("run-2", 200, 201, "ok", "v2").
		AddRow("run-1", 100, 101, "ok", "v1")
	mock.ExpectQuery("SELECT run_id, started_at, finished_at, status, source_version FROM runs").
		WithArgs(200).
		WillReturnRows(rows)

	s := New(db, config.Default())
	out, err := s.Runs(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "run-2", string(out[0].RunID))
	require.NoError(t, mock.ExpectationsWereMet())
}
