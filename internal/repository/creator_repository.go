package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hemanto/magazine-backend/internal/model"
)

// CreatorRepo provides CRUD operations for one creator tier.  First-degree
// and second-degree creators share the same schema in separate tables, so one
// repo type serves both, parameterized by table name at construction.
type CreatorRepo struct {
	DB    *sql.DB
	table string
}

// NewFdcRepo returns a CreatorRepo over the first_degree_creators table.
func NewFdcRepo(db *sql.DB) *CreatorRepo {
	return &CreatorRepo{DB: db, table: "first_degree_creators"}
}

// NewSdcRepo returns a CreatorRepo over the second_degree_creators table.
func NewSdcRepo(db *sql.DB) *CreatorRepo {
	return &CreatorRepo{DB: db, table: "second_degree_creators"}
}

const creatorCols = `creator_id, creator_name, creator_bio, creator_image,
	uploader_employee_id, created_at, updated_at`

func (r *CreatorRepo) scan(row interface{ Scan(...any) error }) (model.Creator, error) {
	var c model.Creator
	err := row.Scan(&c.CreatorID, &c.CreatorName, &c.CreatorBio, &c.CreatorImage,
		&c.UploaderEmployeeID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// GetByID fetches one creator.
func (r *CreatorRepo) GetByID(ctx context.Context, creatorID string) (model.Creator, error) {
	q := `SELECT ` + creatorCols + ` FROM ` + r.table + ` WHERE creator_id = ?`
	c, err := r.scan(r.DB.QueryRowContext(ctx, q, creatorID))
	if err == sql.ErrNoRows {
		return model.Creator{}, ErrNotFound
	}
	return c, err
}

// List returns every creator in this tier.
func (r *CreatorRepo) List(ctx context.Context) ([]model.Creator, error) {
	q := `SELECT ` + creatorCols + ` FROM ` + r.table + ` ORDER BY created_at`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Creator, 0)
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateTx inserts a creator within an existing transaction, as part of a
// content creation that introduces a new creator.
func (r *CreatorRepo) CreateTx(ctx context.Context, tx *sql.Tx, c model.Creator) error {
	q := `INSERT INTO ` + r.table + ` (creator_id, creator_name, creator_bio,
		creator_image, uploader_employee_id) VALUES (?,?,?,?,?)`
	_, err := tx.ExecContext(ctx, q, c.CreatorID, c.CreatorName, c.CreatorBio,
		c.CreatorImage, c.UploaderEmployeeID)
	if err != nil && isDuplicateKey(err) {
		return ErrConflict
	}
	return err
}

// Update patches name/bio/image fields.  Only declared keys reach this point;
// the handler has already run the key-set check.
func (r *CreatorRepo) Update(ctx context.Context, creatorID string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	set := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for col, v := range fields {
		set = append(set, col+" = ?")
		args = append(args, v)
	}
	args = append(args, creatorID)
	q := "UPDATE " + r.table + " SET " + strings.Join(set, ", ") + " WHERE creator_id = ?"
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, creatorID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteTx removes one creator within a transaction (paired with the deletion
// of its links).
func (r *CreatorRepo) DeleteTx(ctx context.Context, tx *sql.Tx, creatorID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM `+r.table+` WHERE creator_id = ?`, creatorID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// IDs snapshots every creator ID in this tier. Used by the sweep.
func (r *CreatorRepo) IDs(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT creator_id FROM `+r.table)
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

// DeleteByIDs bulk-deletes creators and returns the number of rows removed.
func (r *CreatorRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM `+r.table+` WHERE creator_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
