package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/hemanto/magazine-backend/internal/model"
)

// ContentRepo provides access to the subcategories, contents and sections
// tables that together hold every department's nested content. The nesting of
// the served shape (subcategory → content → sections) is reassembled here;
// on disk the tree is flat, and the exact-triple updates verify the whole
// chain in a single statement so a section can never be patched through the
// wrong content or subcategory.
type ContentRepo struct{ DB *sql.DB }

// NewContentRepo returns a ContentRepo bound to the given database.
func NewContentRepo(db *sql.DB) *ContentRepo { return &ContentRepo{DB: db} }

// GetSubcategory fetches one subcategory within a department.
func (r *ContentRepo) GetSubcategory(ctx context.Context, department, subcategoryID string) (model.Subcategory, error) {
	const q = `SELECT subcategory_id, department, subcategory_name, created_at, updated_at
		FROM subcategories WHERE subcategory_id = ? AND department = ?`
	var s model.Subcategory
	err := r.DB.QueryRowContext(ctx, q, subcategoryID, department).Scan(
		&s.SubcategoryID, &s.Department, &s.SubcategoryName, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Subcategory{}, ErrNotFound
	}
	return s, err
}

// SubcategoryExistsTx checks a subcategory inside a transaction before
// content is attached to it.
func (r *ContentRepo) SubcategoryExistsTx(ctx context.Context, tx *sql.Tx, department, subcategoryID string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM subcategories WHERE subcategory_id = ? AND department = ?`,
		subcategoryID, department).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// CreateSubcategory inserts a subcategory.
func (r *ContentRepo) CreateSubcategory(ctx context.Context, s model.Subcategory) error {
	const q = `INSERT INTO subcategories (subcategory_id, department, subcategory_name)
		VALUES (?,?,?)`
	_, err := r.DB.ExecContext(ctx, q, s.SubcategoryID, s.Department, s.SubcategoryName)
	if err != nil && isDuplicateKey(err) {
		return ErrConflict
	}
	return err
}

// ListSubcategories returns a department's subcategories.
func (r *ContentRepo) ListSubcategories(ctx context.Context, department string) ([]model.Subcategory, error) {
	const q = `SELECT subcategory_id, department, subcategory_name, created_at, updated_at
		FROM subcategories WHERE department = ? ORDER BY created_at`
	rows, err := r.DB.QueryContext(ctx, q, department)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Subcategory, 0)
	for rows.Next() {
		var s model.Subcategory
		if err := rows.Scan(&s.SubcategoryID, &s.Department, &s.SubcategoryName,
			&s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// InsertContentTx inserts the content row inside the caller's transaction.
func (r *ContentRepo) InsertContentTx(ctx context.Context, tx *sql.Tx, item model.ContentItem) error {
	const q = `INSERT INTO contents (content_id, subcategory_id, department,
		content_added_date, original_writing_date, article_cover, article_name,
		article_trailer, about_article) VALUES (?,?,?,?,?,?,?,?,?)`
	_, err := tx.ExecContext(ctx, q, item.Metadata.ContentID, item.SubcategoryID,
		item.Department, item.Metadata.ContentAddedDate, item.Metadata.OriginalWritingDate,
		item.Article.ArticleCover, item.Article.ArticleName, item.Article.ArticleTrailer,
		item.Article.AboutArticle)
	if err != nil && isDuplicateKey(err) {
		return ErrConflict
	}
	return err
}

// InsertSectionTx inserts one section row inside the caller's transaction.
func (r *ContentRepo) InsertSectionTx(ctx context.Context, tx *sql.Tx, contentID string, sec model.Section) error {
	images, err := json.Marshal(sec.SectionImages)
	if err != nil {
		return err
	}
	const q = `INSERT INTO sections (section_id, content_id, section_added_date,
		section_article, section_images) VALUES (?,?,?,?,?)`
	_, err = tx.ExecContext(ctx, q, sec.SectionID, contentID, sec.SectionAddedDate,
		sec.SectionArticle, images)
	return err
}

// GetContent assembles the nested view of one content item with its sections,
// ordered by section insertion date. The department is part of the row's
// identity: an ID reached through another department resolves to nothing.
func (r *ContentRepo) GetContent(ctx context.Context, department, contentID string) (model.ContentItem, error) {
	const q = `SELECT c.content_id, c.subcategory_id, c.department, c.content_added_date,
		c.original_writing_date, c.article_cover, c.article_name, c.article_trailer,
		c.about_article, s.subcategory_name
		FROM contents c JOIN subcategories s ON s.subcategory_id = c.subcategory_id
		WHERE c.content_id = ? AND c.department = ?`
	var item model.ContentItem
	var owd sql.NullTime
	err := r.DB.QueryRowContext(ctx, q, contentID, department).Scan(
		&item.Metadata.ContentID, &item.SubcategoryID, &item.Department,
		&item.Metadata.ContentAddedDate, &owd, &item.Article.ArticleCover,
		&item.Article.ArticleName, &item.Article.ArticleTrailer,
		&item.Article.AboutArticle, &item.SubcategoryName)
	if err == sql.ErrNoRows {
		return model.ContentItem{}, ErrNotFound
	}
	if err != nil {
		return model.ContentItem{}, err
	}
	if owd.Valid {
		t := owd.Time
		item.Metadata.OriginalWritingDate = &t
	}
	const sq = `SELECT section_id, section_added_date, section_article, section_images
		FROM sections WHERE content_id = ? ORDER BY section_added_date, section_id`
	rows, err := r.DB.QueryContext(ctx, sq, contentID)
	if err != nil {
		return model.ContentItem{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var sec model.Section
		var images []byte
		if err := rows.Scan(&sec.SectionID, &sec.SectionAddedDate,
			&sec.SectionArticle, &images); err != nil {
			return model.ContentItem{}, err
		}
		if err := json.Unmarshal(images, &sec.SectionImages); err != nil {
			return model.ContentItem{}, err
		}
		item.Article.MainContent = append(item.Article.MainContent, sec)
	}
	return item, rows.Err()
}

// UpdateSection merges patch fields into the section identified by the exact
// department+subcategory+content+section chain.  The joins make the match an
// AND across all nesting levels: zero rows means the chain did not resolve as
// a unit.
func (r *ContentRepo) UpdateSection(ctx context.Context, department, subcategoryID, contentID, sectionID string, article *string, images []string) (int64, error) {
	var set []string
	var args []any
	if article != nil {
		set, args = append(set, "s.section_article = ?"), append(args, *article)
	}
	if images != nil {
		raw, err := json.Marshal(images)
		if err != nil {
			return 0, err
		}
		set, args = append(set, "s.section_images = ?"), append(args, raw)
	}
	if len(set) == 0 {
		return 0, nil
	}
	q := `UPDATE sections s
		JOIN contents c ON c.content_id = s.content_id
		SET ` + strings.Join(set, ", ") + `
		WHERE s.section_id = ? AND s.content_id = ? AND c.subcategory_id = ? AND c.department = ?`
	args = append(args, sectionID, contentID, subcategoryID, department)
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateMetadata merges metadata fields for the exact subcategory+content pair.
func (r *ContentRepo) UpdateMetadata(ctx context.Context, department, subcategoryID, contentID string, fields map[string]any) (int64, error) {
	return r.updateContentRow(ctx, department, subcategoryID, contentID, fields)
}

// UpdateArticle merges article fields for the exact subcategory+content pair.
// mainContent never reaches here; sections are only mutable through the
// section operations.
func (r *ContentRepo) UpdateArticle(ctx context.Context, department, subcategoryID, contentID string, fields map[string]any) (int64, error) {
	return r.updateContentRow(ctx, department, subcategoryID, contentID, fields)
}

func (r *ContentRepo) updateContentRow(ctx context.Context, department, subcategoryID, contentID string, fields map[string]any) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	set := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+3)
	for col, v := range fields {
		set = append(set, col+" = ?")
		args = append(args, v)
	}
	args = append(args, contentID, subcategoryID, department)
	q := "UPDATE contents SET " + strings.Join(set, ", ") +
		" WHERE content_id = ? AND subcategory_id = ? AND department = ?"
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountSectionsTx counts a content item's sections inside a transaction,
// locking the rows so a concurrent delete cannot slip past the last-section
// guard.
func (r *ContentRepo) CountSectionsTx(ctx context.Context, tx *sql.Tx, contentID string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sections WHERE content_id = ? FOR UPDATE`, contentID).Scan(&n)
	return n, err
}

// DeleteSectionTx removes one section, verifying the full chain via join.
func (r *ContentRepo) DeleteSectionTx(ctx context.Context, tx *sql.Tx, department, subcategoryID, contentID, sectionID string) (int64, error) {
	const q = `DELETE s FROM sections s
		JOIN contents c ON c.content_id = s.content_id
		WHERE s.section_id = ? AND s.content_id = ? AND c.subcategory_id = ? AND c.department = ?`
	res, err := tx.ExecContext(ctx, q, sectionID, contentID, subcategoryID, department)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteContentTx removes the content row for the exact
// department+subcategory+content chain along with all of its sections, inside
// the caller's transaction.  It returns how many content rows were removed;
// the caller treats zero as an inconsistency when the link half succeeded.
func (r *ContentRepo) DeleteContentTx(ctx context.Context, tx *sql.Tx, department, subcategoryID, contentID string) (int64, error) {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM sections WHERE content_id = ?`, contentID); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM contents WHERE content_id = ? AND subcategory_id = ? AND department = ?`,
		contentID, subcategoryID, department)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ContentIDs snapshots every content ID in one department. Used by the sweep.
func (r *ContentRepo) ContentIDs(ctx context.Context, department string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT content_id FROM contents WHERE department = ?`, department)
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

// DeleteContentsByIDs bulk-deletes content rows and their sections outside any
// transaction. Used by the sweep, which tolerates partial progress.
func (r *ContentRepo) DeleteContentsByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := r.DB.ExecContext(ctx,
		`DELETE FROM sections WHERE content_id IN (`+placeholders+`)`, args...); err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM contents WHERE content_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
