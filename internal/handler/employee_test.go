package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/hemanto/magazine-backend/internal/config"
	"github.com/hemanto/magazine-backend/internal/repository"
)

func TestRootAdminWildcardPair(t *testing.T) {
	cases := []struct {
		name  string
		role  string
		depts []string
		ok    bool
	}{
		{"root admin with wildcard only", "ra", []string{"*"}, true},
		{"root admin with named department", "ra", []string{"goddo"}, false},
		{"root admin with wildcard plus extras", "ra", []string{"*", "goddo"}, false},
		{"root admin with empty list", "ra", nil, false},
		{"department admin with wildcard", "da", []string{"*"}, true},
		{"regular with departments", "na", []string{"goddo", "shongit"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := rootPairError(tc.role, tc.depts)
			if (msg == "") != tc.ok {
				t.Fatalf("rootPairError(%q, %v) = %q, want ok=%v", tc.role, tc.depts, msg, tc.ok)
			}
		})
	}
}

func TestValidateEmployeeFieldsRejectsUnpairedRoot(t *testing.T) {
	req := employeeCreateReq{
		Email:        "new@example.com",
		Phone:        "+8801711111111",
		Password:     "longenough",
		EmployeeType: "ra",
		Department:   []string{"goddo"},
		FirstName:    "First",
		LastName:     "Last",
	}
	if msg := validateEmployeeFields(req); msg == "" {
		t.Fatal("root admin without the wildcard list must be rejected")
	}
	req.Department = []string{"*"}
	if msg := validateEmployeeFields(req); msg != "" {
		t.Fatalf("valid root admin rejected: %s", msg)
	}
}

func employeeRows(id, role, depts string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"employee_id", "email", "phone", "employee_type",
		"department", "denied_department", "temporary_approval", "is_active_account",
		"date_joined", "last_login", "first_name", "last_name", "gender", "date_of_birth"}).
		AddRow(id, "a@example.com", "+8801711111111", role, []byte(depts), []byte(`[]`),
			false, true, now, nil, "First", "Last", "", nil)
}

func patchEmployee(t *testing.T, h *EmployeeHandler, id, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("employeeId")
	c.SetParamValues(id)
	if err := h.Update(c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	return rec
}

func TestUpdateEnforcesRootPairAgainstCurrentRecord(t *testing.T) {
	t.Run("root admin cannot lose the wildcard", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("sqlmock: %v", err)
		}
		defer db.Close()
		h := NewEmployeeHandler(config.Config{}, repository.NewEmployeeRepo(db))

		// The patch is checked against the record as it would look afterwards,
		// so only the read runs; no UPDATE may be issued.
		mock.ExpectQuery("FROM employees WHERE employee_id").
			WithArgs("emp_aaaaaaaaaaaa").
			WillReturnRows(employeeRows("emp_aaaaaaaaaaaa", "ra", `["*"]`))

		rec := patchEmployee(t, h, "emp_aaaaaaaaaaaa", `{"department":["goddo"]}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("promotion requires the wildcard list", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("sqlmock: %v", err)
		}
		defer db.Close()
		h := NewEmployeeHandler(config.Config{}, repository.NewEmployeeRepo(db))

		mock.ExpectQuery("FROM employees WHERE employee_id").
			WithArgs("emp_bbbbbbbbbbbb").
			WillReturnRows(employeeRows("emp_bbbbbbbbbbbb", "da", `["goddo"]`))

		rec := patchEmployee(t, h, "emp_bbbbbbbbbbbb", `{"employeeType":"ra"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("promotion with the wildcard passes", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("sqlmock: %v", err)
		}
		defer db.Close()
		h := NewEmployeeHandler(config.Config{}, repository.NewEmployeeRepo(db))

		mock.ExpectQuery("FROM employees WHERE employee_id").
			WithArgs("emp_bbbbbbbbbbbb").
			WillReturnRows(employeeRows("emp_bbbbbbbbbbbb", "da", `["goddo"]`))
		mock.ExpectExec("UPDATE employees SET").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("FROM employees WHERE employee_id").
			WithArgs("emp_bbbbbbbbbbbb").
			WillReturnRows(employeeRows("emp_bbbbbbbbbbbb", "ra", `["*"]`))

		rec := patchEmployee(t, h, "emp_bbbbbbbbbbbb",
			`{"employeeType":"ra","department":["*"]}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatal(err)
		}
	})
}
