package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/hemanto/magazine-backend/internal/model"
)

// EmployeeRepo provides CRUD operations over the employees table.  The
// department and denied_department columns hold JSON string arrays; password
// hashes are only loaded by the WithPassword variants.
type EmployeeRepo struct{ DB *sql.DB }

// NewEmployeeRepo returns an EmployeeRepo bound to the given database.
func NewEmployeeRepo(db *sql.DB) *EmployeeRepo { return &EmployeeRepo{DB: db} }

const employeeCols = `employee_id, email, phone, employee_type, department,
	denied_department, temporary_approval, is_active_account, date_joined,
	last_login, first_name, last_name, gender, date_of_birth`

func scanEmployee(row interface{ Scan(...any) error }) (model.Employee, error) {
	var e model.Employee
	var dept, denied []byte
	var lastLogin, dob sql.NullTime
	err := row.Scan(&e.EmployeeID, &e.Email, &e.Phone, &e.EmployeeType,
		&dept, &denied, &e.TemporaryApproval, &e.IsActiveAccount, &e.DateJoined,
		&lastLogin, &e.FirstName, &e.LastName, &e.Gender, &dob)
	if err != nil {
		return model.Employee{}, err
	}
	if err := json.Unmarshal(dept, &e.Department); err != nil {
		return model.Employee{}, err
	}
	if err := json.Unmarshal(denied, &e.DeniedDepartment); err != nil {
		return model.Employee{}, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		e.LastLogin = &t
	}
	if dob.Valid {
		t := dob.Time
		e.DateOfBirth = &t
	}
	return e, nil
}

// GetByID fetches an employee by its generated employeeID.
func (r *EmployeeRepo) GetByID(ctx context.Context, employeeID string) (model.Employee, error) {
	const q = `SELECT ` + employeeCols + ` FROM employees WHERE employee_id = ?`
	e, err := scanEmployee(r.DB.QueryRowContext(ctx, q, employeeID))
	if err == sql.ErrNoRows {
		return model.Employee{}, ErrNotFound
	}
	return e, err
}

// GetByEmailWithPassword fetches an employee by normalized email, including
// the stored password hash. Used by the login flow only.
func (r *EmployeeRepo) GetByEmailWithPassword(ctx context.Context, email string) (model.Employee, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	const q = `SELECT password_hash, ` + employeeCols + ` FROM employees WHERE email = ?`
	var e model.Employee
	var dept, denied []byte
	var lastLogin, dob sql.NullTime
	err := r.DB.QueryRowContext(ctx, q, email).Scan(&e.PasswordHash,
		&e.EmployeeID, &e.Email, &e.Phone, &e.EmployeeType,
		&dept, &denied, &e.TemporaryApproval, &e.IsActiveAccount, &e.DateJoined,
		&lastLogin, &e.FirstName, &e.LastName, &e.Gender, &dob)
	if err == sql.ErrNoRows {
		return model.Employee{}, ErrNotFound
	}
	if err != nil {
		return model.Employee{}, err
	}
	if err := json.Unmarshal(dept, &e.Department); err != nil {
		return model.Employee{}, err
	}
	if err := json.Unmarshal(denied, &e.DeniedDepartment); err != nil {
		return model.Employee{}, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		e.LastLogin = &t
	}
	if dob.Valid {
		t := dob.Time
		e.DateOfBirth = &t
	}
	return e, nil
}

// List returns all employees ordered by join date.
func (r *EmployeeRepo) List(ctx context.Context) ([]model.Employee, error) {
	const q = `SELECT ` + employeeCols + ` FROM employees ORDER BY date_joined`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Create inserts a new employee. Duplicate email or phone yields ErrConflict.
func (r *EmployeeRepo) Create(ctx context.Context, e model.Employee) error {
	dept, err := json.Marshal(e.Department)
	if err != nil {
		return err
	}
	denied, err := json.Marshal(e.DeniedDepartment)
	if err != nil {
		return err
	}
	const q = `INSERT INTO employees (employee_id, email, phone, password_hash,
		employee_type, department, denied_department, temporary_approval,
		is_active_account, date_joined, first_name, last_name, gender, date_of_birth)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	_, err = r.DB.ExecContext(ctx, q, e.EmployeeID, strings.ToLower(e.Email), e.Phone,
		e.PasswordHash, e.EmployeeType, dept, denied, e.TemporaryApproval,
		e.IsActiveAccount, e.DateJoined, e.FirstName, e.LastName, e.Gender, e.DateOfBirth)
	if err != nil && isDuplicateKey(err) {
		return ErrConflict
	}
	return err
}

// Update applies a column/value map built by the handler. Duplicate email or
// phone yields ErrConflict; an unknown employeeID yields ErrNotFound.
func (r *EmployeeRepo) Update(ctx context.Context, employeeID string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	set := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for col, v := range fields {
		set = append(set, col+" = ?")
		args = append(args, v)
	}
	args = append(args, employeeID)
	q := "UPDATE employees SET " + strings.Join(set, ", ") + " WHERE employee_id = ?"
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Could also mean identical values; check existence to be precise.
		if _, err := r.GetByID(ctx, employeeID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes an employee by ID.
func (r *EmployeeRepo) Delete(ctx context.Context, employeeID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM employees WHERE employee_id = ?`, employeeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTemporaryApproval flips the one-shot allowance flag. Writes are
// last-writer-wins; only the allowance coordinator calls this.
func (r *EmployeeRepo) SetTemporaryApproval(ctx context.Context, employeeID string, approved bool) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE employees SET temporary_approval = ? WHERE employee_id = ?`,
		approved, employeeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, employeeID); err != nil {
			return err
		}
	}
	return nil
}

// SetDeniedDepartments replaces the explicit-deny list.
func (r *EmployeeRepo) SetDeniedDepartments(ctx context.Context, employeeID string, departments []string) error {
	denied, err := json.Marshal(departments)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE employees SET denied_department = ? WHERE employee_id = ?`,
		denied, employeeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, employeeID); err != nil {
			return err
		}
	}
	return nil
}

// TouchLastLogin stamps last_login with the current UTC time.
func (r *EmployeeRepo) TouchLastLogin(ctx context.Context, employeeID string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE employees SET last_login = ? WHERE employee_id = ?`,
		time.Now().UTC(), employeeID)
	return err
}

// ListPlaintextPasswords returns IDs and raw values of employees whose stored
// password is not a bcrypt hash. Used by the startup rehash maintenance step.
func (r *EmployeeRepo) ListPlaintextPasswords(ctx context.Context) (map[string]string, error) {
	const q = `SELECT employee_id, password_hash FROM employees WHERE password_hash NOT LIKE '$2%'`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, pw string
		if err := rows.Scan(&id, &pw); err != nil {
			return nil, err
		}
		out[id] = pw
	}
	return out, rows.Err()
}

// SetPasswordHash stores a new password hash for an employee.
func (r *EmployeeRepo) SetPasswordHash(ctx context.Context, employeeID, hash string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE employees SET password_hash = ? WHERE employee_id = ?`, hash, employeeID)
	return err
}

// isDuplicateKey detects MySQL error 1062 (duplicate entry).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
