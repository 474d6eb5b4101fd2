package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hemanto/magazine-backend/internal/model"
	"github.com/hemanto/magazine-backend/internal/repository"
)

func newLinkService(t *testing.T) (*LinkService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	svc := NewLinkService(db,
		repository.NewLinkRepo(db),
		repository.NewFdcRepo(db),
		repository.NewSdcRepo(db),
		repository.NewEmployeeRepo(db))
	return svc, mock, func() { db.Close() }
}

func linkRows(employeeID, contentID, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"link_id", "employee_id", "content_id", "fdc_id",
		"sdc_id", "content_status", "created_at", "updated_at"}).
		AddRow("lin_aaaaaaaaaaaa", employeeID, contentID, "fdc_aaaaaaaaaaaa", nil, status, now, now)
}

func str(s string) *string { return &s }

func TestUpdateLinkOwnerSubmission(t *testing.T) {
	svc, mock, done := newLinkService(t)
	defer done()

	owner := model.Principal{EmployeeID: "emp_aaaaaaaaaaaa", Role: "na", Departments: []string{"goddo"}}

	mock.ExpectQuery("FROM links l").
		WithArgs("god_aaaaaaaaaaaa", "goddo").
		WillReturnRows(linkRows(owner.EmployeeID, "god_aaaaaaaaaaaa", model.StatusEditing))
	mock.ExpectExec("UPDATE links SET content_status").
		WithArgs(model.StatusPending, "god_aaaaaaaaaaaa").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM links WHERE content_id").
		WithArgs("god_aaaaaaaaaaaa").
		WillReturnRows(linkRows(owner.EmployeeID, "god_aaaaaaaaaaaa", model.StatusPending))

	link, err := svc.UpdateLink(context.Background(), owner, "goddo", "god_aaaaaaaaaaaa",
		model.LinkPatch{ContentStatus: str(model.StatusPending)})
	if err != nil {
		t.Fatalf("UpdateLink: %v", err)
	}
	if link.ContentStatus != model.StatusPending {
		t.Fatalf("status = %q, want pending", link.ContentStatus)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateLinkRejectsNonStatusPatchFromRegular(t *testing.T) {
	svc, mock, done := newLinkService(t)
	defer done()

	owner := model.Principal{EmployeeID: "emp_aaaaaaaaaaaa", Role: "na", Departments: []string{"goddo"}}

	mock.ExpectQuery("FROM links l").
		WillReturnRows(linkRows(owner.EmployeeID, "god_aaaaaaaaaaaa", model.StatusEditing))

	_, err := svc.UpdateLink(context.Background(), owner, "goddo", "god_aaaaaaaaaaaa",
		model.LinkPatch{FdcID: str("fdc_bbbbbbbbbbbb")})
	if !errors.Is(err, ErrStatusChangeNotAllowed) {
		t.Fatalf("want ErrStatusChangeNotAllowed, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateLinkValidatesReferences(t *testing.T) {
	svc, mock, done := newLinkService(t)
	defer done()

	admin := model.Principal{EmployeeID: "emp_cccccccccccc", Role: "da", Departments: []string{"goddo"}}

	mock.ExpectQuery("FROM links l").
		WillReturnRows(linkRows("emp_aaaaaaaaaaaa", "god_aaaaaaaaaaaa", model.StatusPending))
	mock.ExpectQuery("FROM first_degree_creators").
		WithArgs("fdc_eeeeeeeeeeee").
		WillReturnRows(sqlmock.NewRows([]string{"creator_id", "creator_name",
			"creator_bio", "creator_image", "uploader_employee_id", "created_at", "updated_at"}))

	_, err := svc.UpdateLink(context.Background(), admin, "goddo", "god_aaaaaaaaaaaa",
		model.LinkPatch{FdcID: str("fdc_eeeeeeeeeeee")})
	if !errors.Is(err, ErrReferenceNotFound) {
		t.Fatalf("want ErrReferenceNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateLinkScopedToDepartment(t *testing.T) {
	svc, mock, done := newLinkService(t)
	defer done()

	admin := model.Principal{EmployeeID: "emp_cccccccccccc", Role: "da", Departments: []string{"shongit"}}

	// The lookup joins on the contents row, so a content ID that belongs to
	// another department resolves to nothing under these routes.
	mock.ExpectQuery("FROM links l").
		WithArgs("god_aaaaaaaaaaaa", "shongit").
		WillReturnRows(sqlmock.NewRows([]string{"link_id", "employee_id", "content_id",
			"fdc_id", "sdc_id", "content_status", "created_at", "updated_at"}))

	_, err := svc.UpdateLink(context.Background(), admin, "shongit", "god_aaaaaaaaaaaa",
		model.LinkPatch{ContentStatus: str(model.StatusReady)})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound for foreign department, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestReassignCreatorLinks(t *testing.T) {
	svc, mock, done := newLinkService(t)
	defer done()

	mock.ExpectExec("UPDATE links SET fdc_id").
		WithArgs("fdc_placeholder0", "fdc_aaaaaaaaaaaa").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := svc.ReassignCreatorLinks(context.Background(), "fdc_aaaaaaaaaaaa", "fdc_placeholder0")
	if err != nil {
		t.Fatalf("ReassignCreatorLinks: %v", err)
	}
	if n != 3 {
		t.Fatalf("reassigned %d links, want 3", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestReassignCreatorLinksNoMatches(t *testing.T) {
	svc, mock, done := newLinkService(t)
	defer done()

	// Zero modified rows is a failure even when the creator has links: every
	// one of them carrying a secondary creator leaves nothing to reassign.
	mock.ExpectExec("UPDATE links SET fdc_id").
		WithArgs("fdc_placeholder0", "fdc_bbbbbbbbbbbb").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := svc.ReassignCreatorLinks(context.Background(), "fdc_bbbbbbbbbbbb", "fdc_placeholder0")
	if !errors.Is(err, ErrNoMatchingLinks) {
		t.Fatalf("want ErrNoMatchingLinks, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteCreatorAndLinks(t *testing.T) {
	t.Run("deletes creator and links in one transaction", func(t *testing.T) {
		svc, mock, done := newLinkService(t)
		defer done()

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM links WHERE fdc_id").
			WithArgs("fdc_aaaaaaaaaaaa").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("DELETE FROM first_degree_creators").
			WithArgs("fdc_aaaaaaaaaaaa").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		links, creators, err := svc.DeleteCreatorAndLinks(context.Background(), "fdc_aaaaaaaaaaaa")
		if err != nil {
			t.Fatalf("DeleteCreatorAndLinks: %v", err)
		}
		if links != 2 || creators != 1 {
			t.Fatalf("deleted %d links %d creators, want 2 and 1", links, creators)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("rolls back when the creator does not exist", func(t *testing.T) {
		svc, mock, done := newLinkService(t)
		defer done()

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM links WHERE fdc_id").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM first_degree_creators").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, _, err := svc.DeleteCreatorAndLinks(context.Background(), "fdc_gggggggggggg")
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("want ErrNotFound, got %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatal(err)
		}
	})
}
