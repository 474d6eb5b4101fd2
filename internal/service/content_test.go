package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hemanto/magazine-backend/internal/model"
	"github.com/hemanto/magazine-backend/internal/repository"
)

func newContentService(t *testing.T) (*ContentService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	svc := NewContentService(db,
		repository.NewContentRepo(db),
		repository.NewLinkRepo(db),
		repository.NewFdcRepo(db),
		repository.NewSdcRepo(db),
		repository.NewEmployeeRepo(db),
		nil)
	return svc, mock, func() { db.Close() }
}

func creatorRows(id string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"creator_id", "creator_name", "creator_bio",
		"creator_image", "uploader_employee_id", "created_at", "updated_at"}).
		AddRow(id, "Name", "Bio", "", "emp_aaaaaaaaaaaa", now, now)
}

func TestCreateContentRejectsSectionlessPayload(t *testing.T) {
	svc, mock, done := newContentService(t)
	defer done()

	in := ContentInput{ArticleName: "x"}
	_, _, err := svc.CreateContent(context.Background(), "goddo", "god_sub_aaaaaaaaaaaa",
		CreatorSpec{CreatorID: "fdc_aaaaaaaaaaaa"}, nil, in, "emp_aaaaaaaaaaaa")
	if !errors.Is(err, ErrMissingRequiredSection) {
		t.Fatalf("want ErrMissingRequiredSection, got %v", err)
	}

	in.Sections = []SectionInput{{SectionArticle: "   "}}
	_, _, err = svc.CreateContent(context.Background(), "goddo", "god_sub_aaaaaaaaaaaa",
		CreatorSpec{CreatorID: "fdc_aaaaaaaaaaaa"}, nil, in, "emp_aaaaaaaaaaaa")
	if !errors.Is(err, ErrMissingRequiredSection) {
		t.Fatalf("want ErrMissingRequiredSection for blank article, got %v", err)
	}

	// Validation runs before the transaction; no row may have been written.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("database was touched by a rejected payload: %v", err)
	}
}

func TestCreateContentUnknownSubcategoryRollsBack(t *testing.T) {
	svc, mock, done := newContentService(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM subcategories").
		WithArgs("god_sub_aaaaaaaaaaaa", "goddo").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectRollback()

	in := ContentInput{Sections: []SectionInput{{SectionArticle: "body"}}}
	_, _, err := svc.CreateContent(context.Background(), "goddo", "god_sub_aaaaaaaaaaaa",
		CreatorSpec{CreatorID: "fdc_aaaaaaaaaaaa"}, nil, in, "emp_aaaaaaaaaaaa")
	if !errors.Is(err, ErrSubcategoryNotFound) {
		t.Fatalf("want ErrSubcategoryNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateContentCommitsContentSectionsAndLink(t *testing.T) {
	svc, mock, done := newContentService(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM subcategories").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("FROM first_degree_creators").
		WithArgs("fdc_aaaaaaaaaaaa").
		WillReturnRows(creatorRows("fdc_aaaaaaaaaaaa"))
	mock.ExpectExec("INSERT INTO contents").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO sections").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO sections").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO links").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	in := ContentInput{
		ArticleName: "On Rivers",
		Sections: []SectionInput{
			{SectionArticle: "first"},
			{SectionArticle: "second", SectionImages: []string{"a.jpg"}},
		},
	}
	link, item, err := svc.CreateContent(context.Background(), "goddo", "god_sub_aaaaaaaaaaaa",
		CreatorSpec{CreatorID: "fdc_aaaaaaaaaaaa"}, nil, in, "emp_aaaaaaaaaaaa")
	if err != nil {
		t.Fatalf("CreateContent: %v", err)
	}
	if link.ContentStatus != model.StatusEditing {
		t.Fatalf("new link status = %q, want editing", link.ContentStatus)
	}
	if !strings.HasPrefix(link.ContentID, "god_") || !strings.HasPrefix(link.LinkID, "lin_") {
		t.Fatalf("generated IDs have wrong prefixes: %q %q", link.ContentID, link.LinkID)
	}
	if len(item.Article.MainContent) != 2 {
		t.Fatalf("assembled item has %d sections, want 2", len(item.Article.MainContent))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateContentUnknownCreatorRollsBack(t *testing.T) {
	svc, mock, done := newContentService(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM subcategories").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("FROM first_degree_creators").
		WithArgs("fdc_eeeeeeeeeeee").
		WillReturnRows(sqlmock.NewRows([]string{"creator_id", "creator_name",
			"creator_bio", "creator_image", "uploader_employee_id", "created_at", "updated_at"}))
	mock.ExpectRollback()

	in := ContentInput{Sections: []SectionInput{{SectionArticle: "body"}}}
	_, _, err := svc.CreateContent(context.Background(), "goddo", "god_sub_aaaaaaaaaaaa",
		CreatorSpec{CreatorID: "fdc_eeeeeeeeeeee"}, nil, in, "emp_aaaaaaaaaaaa")
	if !errors.Is(err, ErrReferenceNotFound) {
		t.Fatalf("want ErrReferenceNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateSectionRequiresExactChain(t *testing.T) {
	svc, mock, done := newContentService(t)
	defer done()

	body := "updated body"

	// Matching chain updates one row.
	mock.ExpectExec("UPDATE sections s").
		WithArgs(body, "sec_aaaaaaaaaaaa", "god_aaaaaaaaaaaa", "god_sub_aaaaaaaaaaaa", "goddo").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := svc.UpdateSection(context.Background(), "goddo", "god_sub_aaaaaaaaaaaa",
		"god_aaaaaaaaaaaa", "sec_aaaaaaaaaaaa", SectionPatch{SectionArticle: &body}); err != nil {
		t.Fatalf("UpdateSection: %v", err)
	}

	// Same section through the wrong subcategory resolves zero rows.
	mock.ExpectExec("UPDATE sections s").
		WithArgs(body, "sec_aaaaaaaaaaaa", "god_aaaaaaaaaaaa", "god_sub_bbbbbbbbbbbb", "goddo").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := svc.UpdateSection(context.Background(), "goddo", "god_sub_bbbbbbbbbbbb",
		"god_aaaaaaaaaaaa", "sec_aaaaaaaaaaaa", SectionPatch{SectionArticle: &body})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound for broken chain, got %v", err)
	}

	// Same section through the wrong department resolves zero rows too.
	mock.ExpectExec("UPDATE sections s").
		WithArgs(body, "sec_aaaaaaaaaaaa", "god_aaaaaaaaaaaa", "god_sub_aaaaaaaaaaaa", "shongit").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = svc.UpdateSection(context.Background(), "shongit", "god_sub_aaaaaaaaaaaa",
		"god_aaaaaaaaaaaa", "sec_aaaaaaaaaaaa", SectionPatch{SectionArticle: &body})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound for wrong department, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteSectionRefusesLastSection(t *testing.T) {
	svc, mock, done := newContentService(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM sections").
		WithArgs("god_aaaaaaaaaaaa").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectExec("DELETE s FROM sections s").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := svc.DeleteSection(context.Background(), "goddo", "god_sub_aaaaaaaaaaaa",
		"god_aaaaaaaaaaaa", "sec_aaaaaaaaaaaa")
	if !errors.Is(err, ErrLastSection) {
		t.Fatalf("want ErrLastSection, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteContentAtomicity(t *testing.T) {
	t.Run("commits when both halves apply", func(t *testing.T) {
		svc, mock, done := newContentService(t)
		defer done()

		mock.ExpectBegin()
		mock.ExpectExec("DELETE l FROM links l").
			WithArgs("god_aaaaaaaaaaaa", "goddo").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM sections").WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec("DELETE FROM contents").
			WithArgs("god_aaaaaaaaaaaa", "god_sub_aaaaaaaaaaaa", "goddo").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		if err := svc.DeleteContent(context.Background(), "goddo",
			"god_sub_aaaaaaaaaaaa", "god_aaaaaaaaaaaa"); err != nil {
			t.Fatalf("DeleteContent: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("rolls back on half application", func(t *testing.T) {
		svc, mock, done := newContentService(t)
		defer done()

		mock.ExpectBegin()
		mock.ExpectExec("DELETE l FROM links l").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM sections").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM contents").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := svc.DeleteContent(context.Background(), "goddo",
			"god_sub_aaaaaaaaaaaa", "god_aaaaaaaaaaaa")
		if !errors.Is(err, ErrConsistency) {
			t.Fatalf("want ErrConsistency, got %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("not found when nothing matched", func(t *testing.T) {
		svc, mock, done := newContentService(t)
		defer done()

		mock.ExpectBegin()
		mock.ExpectExec("DELETE l FROM links l").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM sections").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM contents").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := svc.DeleteContent(context.Background(), "goddo",
			"god_sub_aaaaaaaaaaaa", "god_aaaaaaaaaaaa")
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("want ErrNotFound, got %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatal(err)
		}
	})
}

func TestDeleteContentScopedToDepartment(t *testing.T) {
	svc, mock, done := newContentService(t)
	defer done()

	// A content ID addressed through another department's routes must match
	// nothing: both the link and the content delete carry the department.
	mock.ExpectBegin()
	mock.ExpectExec("DELETE l FROM links l").
		WithArgs("god_aaaaaaaaaaaa", "shongit").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM sections").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM contents").
		WithArgs("god_aaaaaaaaaaaa", "god_sub_aaaaaaaaaaaa", "shongit").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := svc.DeleteContent(context.Background(), "shongit",
		"god_sub_aaaaaaaaaaaa", "god_aaaaaaaaaaaa")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound for foreign department, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListContentKeyedOnDepartmentColumn(t *testing.T) {
	svc, mock, done := newContentService(t)
	defer done()

	p := model.Principal{EmployeeID: "emp_aaaaaaaaaaaa", Role: "na",
		Departments: []string{"shongit", "shomajodorshon"}}

	// "shongit" and "shomajodorshon" share a derived ID prefix, so the listing
	// must key on the contents.department column, never on the ID shape.
	emptyLinks := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"link_id", "employee_id", "content_id",
			"fdc_id", "sdc_id", "content_status", "created_at", "updated_at"})
	}
	mock.ExpectQuery("JOIN contents c").
		WithArgs("shongit", p.EmployeeID).
		WillReturnRows(emptyLinks())
	if _, err := svc.ListContent(context.Background(), p, "shongit"); err != nil {
		t.Fatalf("ListContent(shongit): %v", err)
	}
	mock.ExpectQuery("JOIN contents c").
		WithArgs("shomajodorshon", p.EmployeeID).
		WillReturnRows(emptyLinks())
	if _, err := svc.ListContent(context.Background(), p, "shomajodorshon"); err != nil {
		t.Fatalf("ListContent(shomajodorshon): %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestContentPrefix(t *testing.T) {
	if got := ContentPrefix("goddo"); got != "god_" {
		t.Fatalf("ContentPrefix(goddo) = %q", got)
	}
	if got := SubcategoryPrefix("goddo"); got != "god_sub_" {
		t.Fatalf("SubcategoryPrefix(goddo) = %q", got)
	}
	if got := ContentPrefix("Shongit"); got != "sho_" {
		t.Fatalf("ContentPrefix(Shongit) = %q", got)
	}
}
