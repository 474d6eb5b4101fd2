package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hemanto/magazine-backend/internal/model"
)

// LinkRepo provides access to the links table.  Link rows are the system's
// only cross-collection references: every write that accompanies a content
// write happens through the Tx variants inside the caller's transaction,
// while reads are never transactional.
type LinkRepo struct{ DB *sql.DB }

// NewLinkRepo returns a LinkRepo bound to the given database.
func NewLinkRepo(db *sql.DB) *LinkRepo { return &LinkRepo{DB: db} }

const linkCols = `link_id, employee_id, content_id, fdc_id, sdc_id, content_status,
	created_at, updated_at`

// linkColsL is the same column list qualified for joins aliasing links as l.
const linkColsL = `l.link_id, l.employee_id, l.content_id, l.fdc_id, l.sdc_id,
	l.content_status, l.created_at, l.updated_at`

// LinkFilter selects links by any combination of its ID fields.  Only
// non-empty fields participate; all present fields must match (AND).
type LinkFilter struct {
	LinkID     string
	EmployeeID string
	ContentID  string
	FdcID      string
	SdcID      string
}

func scanLink(row interface{ Scan(...any) error }) (model.Link, error) {
	var l model.Link
	var sdc sql.NullString
	err := row.Scan(&l.LinkID, &l.EmployeeID, &l.ContentID, &l.FdcID, &sdc,
		&l.ContentStatus, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return model.Link{}, err
	}
	if sdc.Valid {
		s := sdc.String
		l.SdcID = &s
	}
	return l, nil
}

// GetByContentID fetches the unique link for a content item.
func (r *LinkRepo) GetByContentID(ctx context.Context, contentID string) (model.Link, error) {
	const q = `SELECT ` + linkCols + ` FROM links WHERE content_id = ?`
	l, err := scanLink(r.DB.QueryRowContext(ctx, q, contentID))
	if err == sql.ErrNoRows {
		return model.Link{}, ErrNotFound
	}
	return l, err
}

// GetByContentIDInDepartment fetches the link for a content item, verifying
// through the contents table that the item belongs to the given department.
// A content ID reached through another department's routes is ErrNotFound.
func (r *LinkRepo) GetByContentIDInDepartment(ctx context.Context, contentID, department string) (model.Link, error) {
	const q = `SELECT ` + linkColsL + ` FROM links l
		JOIN contents c ON c.content_id = l.content_id
		WHERE l.content_id = ? AND c.department = ?`
	l, err := scanLink(r.DB.QueryRowContext(ctx, q, contentID, department))
	if err == sql.ErrNoRows {
		return model.Link{}, ErrNotFound
	}
	return l, err
}

// Find returns all links matching the filter.  An empty filter matches
// nothing rather than everything; use ListByDepartment for listing.
func (r *LinkRepo) Find(ctx context.Context, f LinkFilter) ([]model.Link, error) {
	var cond []string
	var args []any
	if f.LinkID != "" {
		cond, args = append(cond, "link_id = ?"), append(args, f.LinkID)
	}
	if f.EmployeeID != "" {
		cond, args = append(cond, "employee_id = ?"), append(args, f.EmployeeID)
	}
	if f.ContentID != "" {
		cond, args = append(cond, "content_id = ?"), append(args, f.ContentID)
	}
	if f.FdcID != "" {
		cond, args = append(cond, "fdc_id = ?"), append(args, f.FdcID)
	}
	if f.SdcID != "" {
		cond, args = append(cond, "sdc_id = ?"), append(args, f.SdcID)
	}
	if len(cond) == 0 {
		return []model.Link{}, nil
	}
	q := `SELECT ` + linkCols + ` FROM links WHERE ` + strings.Join(cond, " AND ")
	return r.queryLinks(ctx, q, args...)
}

// ListByDepartment returns links whose content belongs to the department,
// optionally restricted to one uploader. The department lives on the contents
// row, so the listing joins rather than trusting any shape of the content ID.
func (r *LinkRepo) ListByDepartment(ctx context.Context, department, employeeID string) ([]model.Link, error) {
	q := `SELECT ` + linkColsL + ` FROM links l
		JOIN contents c ON c.content_id = l.content_id
		WHERE c.department = ?`
	args := []any{department}
	if employeeID != "" {
		q += ` AND l.employee_id = ?`
		args = append(args, employeeID)
	}
	q += ` ORDER BY l.created_at DESC`
	return r.queryLinks(ctx, q, args...)
}

func (r *LinkRepo) queryLinks(ctx context.Context, q string, args ...any) ([]model.Link, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Link, 0)
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// CreateTx inserts a link inside the caller's transaction.  The unique index
// on content_id turns a second link for the same content into ErrConflict.
func (r *LinkRepo) CreateTx(ctx context.Context, tx *sql.Tx, l model.Link) error {
	const q = `INSERT INTO links (link_id, employee_id, content_id, fdc_id, sdc_id,
		content_status) VALUES (?,?,?,?,?,?)`
	_, err := tx.ExecContext(ctx, q, l.LinkID, l.EmployeeID, l.ContentID, l.FdcID,
		l.SdcID, l.ContentStatus)
	if err != nil && isDuplicateKey(err) {
		return ErrConflict
	}
	return err
}

// DeleteByContentIDTx removes the link for a content item inside the caller's
// transaction and reports how many rows went away. The join keeps the delete
// inside the department: a link whose content lives elsewhere is untouched.
func (r *LinkRepo) DeleteByContentIDTx(ctx context.Context, tx *sql.Tx, department, contentID string) (int64, error) {
	const q = `DELETE l FROM links l
		JOIN contents c ON c.content_id = l.content_id
		WHERE l.content_id = ? AND c.department = ?`
	res, err := tx.ExecContext(ctx, q, contentID, department)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByFdcIDTx removes every link referencing a first-degree creator, as
// part of deleting the creator itself. Orphaned content is left to the sweep.
func (r *LinkRepo) DeleteByFdcIDTx(ctx context.Context, tx *sql.Tx, fdcID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM links WHERE fdc_id = ?`, fdcID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Update applies a validated link patch.
func (r *LinkRepo) Update(ctx context.Context, contentID string, patch model.LinkPatch) error {
	var set []string
	var args []any
	if patch.EmployeeID != nil {
		set, args = append(set, "employee_id = ?"), append(args, *patch.EmployeeID)
	}
	if patch.FdcID != nil {
		set, args = append(set, "fdc_id = ?"), append(args, *patch.FdcID)
	}
	if patch.SdcID != nil {
		set, args = append(set, "sdc_id = ?"), append(args, *patch.SdcID)
	} else if patch.SetSdcNil {
		set = append(set, "sdc_id = NULL")
	}
	if patch.ContentStatus != nil {
		set, args = append(set, "content_status = ?"), append(args, *patch.ContentStatus)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, contentID)
	q := "UPDATE links SET " + strings.Join(set, ", ") + " WHERE content_id = ?"
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByContentID(ctx, contentID); err != nil {
			return err
		}
	}
	return nil
}

// ReassignFdcWhereSdcNull points every link with the source creator and no
// secondary creator at the target creator, returning the modified count.
func (r *LinkRepo) ReassignFdcWhereSdcNull(ctx context.Context, fromFdcID, toFdcID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE links SET fdc_id = ? WHERE fdc_id = ? AND sdc_id IS NULL`,
		toFdcID, fromFdcID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReferencedIDs snapshots the distinct values of one reference column
// (fdc_id, sdc_id or content_id). Used by the sweep; NULLs are skipped.
func (r *LinkRepo) ReferencedIDs(ctx context.Context, column string) ([]string, error) {
	switch column {
	case "fdc_id", "sdc_id", "content_id":
	default:
		return nil, ErrNotFound
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT DISTINCT `+column+` FROM links WHERE `+column+` IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
