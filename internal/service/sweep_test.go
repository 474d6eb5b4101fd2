package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hemanto/magazine-backend/internal/repository"
)

func newSweeper(t *testing.T) (*Sweeper, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	s := &Sweeper{
		Links:            repository.NewLinkRepo(db),
		Fdcs:             repository.NewFdcRepo(db),
		Sdcs:             repository.NewSdcRepo(db),
		Contents:         repository.NewContentRepo(db),
		Employees:        repository.NewEmployeeRepo(db),
		Departments:      []string{"goddo"},
		PlaceholderFdcID: "fdc_000000000000",
		PlaceholderSdcID: "sdc_000000000000",
		Interval:         time.Hour,
	}
	return s, mock, func() { db.Close() }
}

func idRows(col string, ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{col})
	for _, id := range ids {
		rows.AddRow(id)
	}
	return rows
}

func TestRunOnceCollectsOrphans(t *testing.T) {
	s, mock, done := newSweeper(t)
	defer done()

	// FDC step: one orphan, the placeholder is unreferenced but exempt.
	mock.ExpectQuery("SELECT DISTINCT fdc_id FROM links").
		WillReturnRows(idRows("fdc_id", "fdc_aaaaaaaaaaaa"))
	mock.ExpectQuery("SELECT creator_id FROM first_degree_creators").
		WillReturnRows(idRows("creator_id", "fdc_aaaaaaaaaaaa", "fdc_bbbbbbbbbbbb", "fdc_000000000000"))
	mock.ExpectExec("DELETE FROM first_degree_creators WHERE creator_id IN").
		WithArgs("fdc_bbbbbbbbbbbb").
		WillReturnResult(sqlmock.NewResult(0, 1))

	// SDC step: nothing to do; the bulk delete is skipped entirely.
	mock.ExpectQuery("SELECT DISTINCT sdc_id FROM links").
		WillReturnRows(idRows("sdc_id", "sdc_aaaaaaaaaaaa"))
	mock.ExpectQuery("SELECT creator_id FROM second_degree_creators").
		WillReturnRows(idRows("creator_id", "sdc_aaaaaaaaaaaa", "sdc_000000000000"))

	// Content step for goddo: one orphan with its sections.
	mock.ExpectQuery("SELECT DISTINCT content_id FROM links").
		WillReturnRows(idRows("content_id", "god_aaaaaaaaaaaa"))
	mock.ExpectQuery("SELECT content_id FROM contents WHERE department").
		WithArgs("goddo").
		WillReturnRows(idRows("content_id", "god_aaaaaaaaaaaa", "god_cccccccccccc"))
	mock.ExpectExec("DELETE FROM sections WHERE content_id IN").
		WithArgs("god_cccccccccccc").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM contents WHERE content_id IN").
		WithArgs("god_cccccccccccc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Rehash step: nothing stored in plaintext.
	mock.ExpectQuery("FROM employees WHERE password_hash NOT LIKE").
		WillReturnRows(sqlmock.NewRows([]string{"employee_id", "password_hash"}))

	report := s.RunOnce(context.Background())
	if len(report.Steps) != 4 {
		t.Fatalf("got %d steps, want 4", len(report.Steps))
	}
	if report.Steps[0].Removed != 1 || report.Steps[0].Error != "" {
		t.Fatalf("fdc step = %+v", report.Steps[0])
	}
	if report.Steps[1].Removed != 0 {
		t.Fatalf("sdc step should find no drift, got %+v", report.Steps[1])
	}
	if report.Steps[2].Removed != 1 {
		t.Fatalf("content step = %+v", report.Steps[2])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRunOnceIsolatesStepFailures(t *testing.T) {
	s, mock, done := newSweeper(t)
	defer done()

	// The FDC snapshot fails; the remaining steps still run.
	mock.ExpectQuery("SELECT DISTINCT fdc_id FROM links").
		WillReturnError(context.DeadlineExceeded)

	mock.ExpectQuery("SELECT DISTINCT sdc_id FROM links").
		WillReturnRows(idRows("sdc_id"))
	mock.ExpectQuery("SELECT creator_id FROM second_degree_creators").
		WillReturnRows(idRows("creator_id"))

	mock.ExpectQuery("SELECT DISTINCT content_id FROM links").
		WillReturnRows(idRows("content_id"))
	mock.ExpectQuery("SELECT content_id FROM contents WHERE department").
		WillReturnRows(idRows("content_id"))

	mock.ExpectQuery("FROM employees WHERE password_hash NOT LIKE").
		WillReturnRows(sqlmock.NewRows([]string{"employee_id", "password_hash"}))

	report := s.RunOnce(context.Background())
	if report.Steps[0].Error == "" {
		t.Fatal("failed step must report its error")
	}
	for i, st := range report.Steps[1:] {
		if st.Error != "" {
			t.Fatalf("step %d should have run cleanly: %+v", i+1, st)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRunOnceRehashesPlaintextPasswords(t *testing.T) {
	s, mock, done := newSweeper(t)
	defer done()
	s.BcryptCost = 4 // keep the test fast

	mock.ExpectQuery("SELECT DISTINCT fdc_id FROM links").WillReturnRows(idRows("fdc_id"))
	mock.ExpectQuery("SELECT creator_id FROM first_degree_creators").WillReturnRows(idRows("creator_id"))
	mock.ExpectQuery("SELECT DISTINCT sdc_id FROM links").WillReturnRows(idRows("sdc_id"))
	mock.ExpectQuery("SELECT creator_id FROM second_degree_creators").WillReturnRows(idRows("creator_id"))
	mock.ExpectQuery("SELECT DISTINCT content_id FROM links").WillReturnRows(idRows("content_id"))
	mock.ExpectQuery("SELECT content_id FROM contents WHERE department").WillReturnRows(idRows("content_id"))

	mock.ExpectQuery("FROM employees WHERE password_hash NOT LIKE").
		WillReturnRows(sqlmock.NewRows([]string{"employee_id", "password_hash"}).
			AddRow("emp_aaaaaaaaaaaa", "hunter2"))
	mock.ExpectExec("UPDATE employees SET password_hash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	report := s.RunOnce(context.Background())
	last := report.Steps[len(report.Steps)-1]
	if last.Removed != 1 || last.Error != "" {
		t.Fatalf("rehash step = %+v", last)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
