package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/centilliongw/portal-api/internal/model"
)

// DocumentRepo implements DocumentStore over MySQL.  File content lives
// inline in the file_data column as base64 text; every query except Get and
// the admin download path leaves it unselected.
type DocumentRepo struct{ DB *sql.DB }

func NewDocumentRepo(db *sql.DB) *DocumentRepo { return &DocumentRepo{DB: db} }

// Upsert stores a document, replacing any previous upload in the same
// (account, category) slot.  The unique index on (account_id, category)
// backs the replacement semantics: list size never grows for a re-upload.
func (r *DocumentRepo) Upsert(ctx context.Context, d *model.Document) error {
	d.UploadedAt = time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO documents
		 (account_id, name, original_name, size, mime_type, category, file_data, uploaded_at)
		 VALUES (?,?,?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE
		   name=VALUES(name), original_name=VALUES(original_name), size=VALUES(size),
		   mime_type=VALUES(mime_type), file_data=VALUES(file_data), uploaded_at=VALUES(uploaded_at)`,
		d.AccountID, d.Name, d.OriginalName, d.Size, d.MimeType, d.Category, d.FileData, d.UploadedAt)
	if err != nil {
		return err
	}
	// LastInsertId is 0 when the row was updated in place; re-read the id in
	// that case so the response always carries the stored document's id.
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		d.ID = uint64(id)
		return nil
	}
	return r.DB.QueryRowContext(ctx,
		`SELECT id FROM documents WHERE account_id=? AND category=? LIMIT 1`,
		d.AccountID, d.Category).Scan(&d.ID)
}

// ListByAccount returns metadata only, newest upload first.
func (r *DocumentRepo) ListByAccount(ctx context.Context, accountID string) ([]model.Document, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, account_id, name, original_name, size, mime_type, category, uploaded_at
		 FROM documents WHERE account_id=? ORDER BY uploaded_at DESC, id DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.AccountID, &d.Name, &d.OriginalName,
			&d.Size, &d.MimeType, &d.Category, &d.UploadedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Get returns a single document including file data, scoped to its owner.
func (r *DocumentRepo) Get(ctx context.Context, id uint64, accountID string) (model.Document, error) {
	var d model.Document
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, account_id, name, original_name, size, mime_type, category, file_data, uploaded_at
		 FROM documents WHERE id=? AND account_id=? LIMIT 1`, id, accountID).
		Scan(&d.ID, &d.AccountID, &d.Name, &d.OriginalName, &d.Size, &d.MimeType,
			&d.Category, &d.FileData, &d.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Document{}, ErrNotFound
	}
	return d, err
}

// Delete removes a document owned by the account.
func (r *DocumentRepo) Delete(ctx context.Context, id uint64, accountID string) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM documents WHERE id=? AND account_id=?`, id, accountID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Categories returns the distinct categories the account has uploaded.
func (r *DocumentRepo) Categories(ctx context.Context, accountID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT DISTINCT category FROM documents WHERE account_id=?`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListGrouped pages accounts that have documents, newest upload first, and
// computes completeness stats over the whole population with a single
// aggregate query rather than loading every document into memory.
func (r *DocumentRepo) ListGrouped(ctx context.Context, search string, page, limit int) ([]AccountDocuments, int, CompletenessStats, error) {
	where := "1=1"
	args := []any{}
	if s := strings.TrimSpace(search); s != "" {
		where = "(a.full_name LIKE ? OR a.email LIKE ?)"
		like := "%" + s + "%"
		args = append(args, like, like)
	}

	// Completeness over every matching account with at least one document.
	var stats CompletenessStats
	var total int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(required_cats = 3), 0),
		        COALESCE(SUM(required_cats BETWEEN 1 AND 2), 0),
		        COALESCE(SUM(required_cats = 0), 0)
		 FROM (
		   SELECT d.account_id,
		          COUNT(DISTINCT CASE WHEN d.category IN ('consent_form','medical_history','id_proof')
		                              THEN d.category END) AS required_cats
		   FROM documents d
		   JOIN accounts a ON a.id = d.account_id
		   WHERE `+where+`
		   GROUP BY d.account_id
		 ) t`, args...).Scan(&total, &stats.Complete, &stats.Partial, &stats.None)
	if err != nil {
		return nil, 0, CompletenessStats{}, err
	}

	page, limit = normalizePage(page, limit)
	pageArgs := append(append([]any{}, args...), limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx,
		`SELECT d.account_id, a.full_name, a.email, a.phone, a.country,
		        d.id, d.name, d.original_name, d.size, d.mime_type, d.category, d.uploaded_at
		 FROM documents d
		 JOIN accounts a ON a.id = d.account_id
		 JOIN (
		   SELECT d2.account_id, MAX(d2.uploaded_at) AS latest
		   FROM documents d2
		   JOIN accounts a ON a.id = d2.account_id
		   WHERE `+where+`
		   GROUP BY d2.account_id
		   ORDER BY latest DESC, d2.account_id
		   LIMIT ? OFFSET ?
		 ) pg ON pg.account_id = d.account_id
		 ORDER BY pg.latest DESC, d.account_id, d.uploaded_at DESC, d.id DESC`, pageArgs...)
	if err != nil {
		return nil, 0, CompletenessStats{}, err
	}
	defer rows.Close()

	var out []AccountDocuments
	index := map[string]int{}
	for rows.Next() {
		var accountID, name, email, phone, country string
		var d model.Document
		if err := rows.Scan(&accountID, &name, &email, &phone, &country,
			&d.ID, &d.Name, &d.OriginalName, &d.Size, &d.MimeType, &d.Category, &d.UploadedAt); err != nil {
			return nil, 0, CompletenessStats{}, err
		}
		d.AccountID = accountID
		i, ok := index[accountID]
		if !ok {
			out = append(out, AccountDocuments{
				AccountID:    accountID,
				OwnerName:    name,
				OwnerEmail:   email,
				OwnerPhone:   phone,
				OwnerCountry: country,
			})
			i = len(out) - 1
			index[accountID] = i
		}
		out[i].Documents = append(out[i].Documents, d)
	}
	return out, total, stats, rows.Err()
}
