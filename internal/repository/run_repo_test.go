package repository

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"electrometer_acquisition/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestRunAppend_Success_WithDefaults(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewRunSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta(`
			INSERT INTO acquisition_runs (id, started_at, finished_at, state, samples, message)
			VALUES (?, ?, ?, ?, ?, ?)
		`)).
		// RunID and FinishedAt are generated when empty
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"DONE", 1500, "",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(ctx(t), models.RunRecord{
		StartedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		State:     "DONE",
		Samples:   1500,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestRunAppend_ExplicitFields(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewRunSQLite(db)

	started := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	finished := started.Add(150 * time.Second)

	mock.ExpectExec(regexp.QuoteMeta(`
			INSERT INTO acquisition_runs (id, started_at, finished_at, state, samples, message)
			VALUES (?, ?, ?, ?, ?, ?)
		`)).
		WithArgs("run-1",
			"2026-08-01 10:00:00", "2026-08-01 10:02:30",
			"ERROR", 20, "query: timeout",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(ctx(t), models.RunRecord{
		RunID:      "run-1",
		StartedAt:  started,
		FinishedAt: finished,
		State:      "ERROR",
		Samples:    20,
		Message:    "query: timeout",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestRunAppend_DBError(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewRunSQLite(db)

	mock.ExpectExec("INSERT INTO acquisition_runs").
		WillReturnError(errors.New("down"))

	err := repo.Append(ctx(t), models.RunRecord{State: "DONE"})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestRunList_MostRecentFirst(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewRunSQLite(db)

	older := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	rows := sqlmock.NewRows([]string{"id", "started_at", "finished_at", "state", "samples", "message"}).
		AddRow("r2", newer, newer.Add(time.Minute), "DONE", 600, "").
		AddRow("r1", older, older.Add(time.Minute), "ERROR", 30, "bus fault")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, started_at, finished_at, state, samples, message
			FROM acquisition_runs ORDER BY started_at DESC`)).
		WillReturnRows(rows)

	got, err := repo.List(ctx(t))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].RunID != "r2" || got[1].RunID != "r1" {
		t.Fatalf("unexpected results: %+v", got)
	}
	if got[1].Message != "bus fault" || got[1].Samples != 30 {
		t.Fatalf("unexpected record: %+v", got[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestRunList_ScanError(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewRunSQLite(db)

	rows := sqlmock.NewRows([]string{"id", "started_at", "finished_at", "state", "samples", "message"}).
		// samples wrong type to force scan error
		AddRow("r1", time.Now(), time.Now(), "DONE", "not-a-number", "")

	mock.ExpectQuery("SELECT id, started_at, finished_at, state, samples, message").
		WillReturnRows(rows)

	_, err := repo.List(ctx(t))
	if err == nil {
		t.Fatalf("expected scan error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}
