package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/centilliongw/portal-api/internal/model"
)

// FormRepo implements FormStore over MySQL.  Multi-select questionnaire
// fields are stored as JSON arrays in TEXT columns and decoded on read.
type FormRepo struct{ DB *sql.DB }

func NewFormRepo(db *sql.DB) *FormRepo { return &FormRepo{DB: db} }

const formColumns = `id, account_id, date_of_birth, gender, occupation,
	purpose_of_visit, facial_surgeries, body_contouring, breast_chest, buttocks_hips,
	facial_skin, body_shape, hair_anti_aging, transgender_treatments,
	previous_procedures, previous_procedures_details, medical_conditions,
	preferred_month, include_sightseeing, status, submitted_at, last_modified_at,
	created_at, updated_at`

// encodeList marshals a string slice for a JSON TEXT column.  nil encodes as
// an empty array so reads never produce null.
func encodeList(vs []string) string {
	if len(vs) == 0 {
		return "[]"
	}
	b, err := json.Marshal(vs)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeList(s string) []string {
	var vs []string
	if err := json.Unmarshal([]byte(s), &vs); err != nil || vs == nil {
		return []string{}
	}
	return vs
}

func scanForm(scan func(dest ...any) error) (model.TreatmentForm, error) {
	var f model.TreatmentForm
	var purpose, facial, contouring, breast, buttocks, skin, shape, hair, trans string
	err := scan(&f.ID, &f.AccountID, &f.DateOfBirth, &f.Gender, &f.Occupation,
		&purpose, &facial, &contouring, &breast, &buttocks,
		&skin, &shape, &hair, &trans,
		&f.PreviousProcedures, &f.PreviousProceduresDetails, &f.MedicalConditions,
		&f.PreferredMonth, &f.IncludeSightseeing, &f.Status, &f.SubmittedAt,
		&f.LastModifiedAt, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TreatmentForm{}, ErrNotFound
	}
	if err != nil {
		return model.TreatmentForm{}, err
	}
	f.PurposeOfVisit = decodeList(purpose)
	f.FacialSurgeries = decodeList(facial)
	f.BodyContouring = decodeList(contouring)
	f.BreastChest = decodeList(breast)
	f.ButtocksHips = decodeList(buttocks)
	f.FacialSkin = decodeList(skin)
	f.BodyShape = decodeList(shape)
	f.HairAntiAging = decodeList(hair)
	f.TransgenderTreatments = decodeList(trans)
	return f, nil
}

// GetByAccount fetches the single form belonging to an account.
func (r *FormRepo) GetByAccount(ctx context.Context, accountID string) (model.TreatmentForm, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+formColumns+` FROM treatment_forms WHERE account_id=? LIMIT 1`, accountID)
	return scanForm(row.Scan)
}

// GetByID fetches a form by primary key (admin review path).
func (r *FormRepo) GetByID(ctx context.Context, id uint64) (model.TreatmentForm, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+formColumns+` FROM treatment_forms WHERE id=? LIMIT 1`, id)
	return scanForm(row.Scan)
}

// Create inserts a fresh draft.  The unique index on account_id enforces the
// one-form-per-account invariant.
func (r *FormRepo) Create(ctx context.Context, f *model.TreatmentForm) error {
	now := time.Now().UTC()
	f.LastModifiedAt = now
	if f.Status == "" {
		f.Status = model.FormStatusDraft
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO treatment_forms
		 (account_id, date_of_birth, gender, occupation,
		  purpose_of_visit, facial_surgeries, body_contouring, breast_chest, buttocks_hips,
		  facial_skin, body_shape, hair_anti_aging, transgender_treatments,
		  previous_procedures, previous_procedures_details, medical_conditions,
		  preferred_month, include_sightseeing, status, last_modified_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		f.AccountID, f.DateOfBirth, f.Gender, f.Occupation,
		encodeList(f.PurposeOfVisit), encodeList(f.FacialSurgeries), encodeList(f.BodyContouring),
		encodeList(f.BreastChest), encodeList(f.ButtocksHips),
		encodeList(f.FacialSkin), encodeList(f.BodyShape), encodeList(f.HairAntiAging),
		encodeList(f.TransgenderTreatments),
		f.PreviousProcedures, f.PreviousProceduresDetails, f.MedicalConditions,
		f.PreferredMonth, f.IncludeSightseeing, f.Status, f.LastModifiedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return nil
}

// Update overwrites the questionnaire fields of an existing form and stamps
// last_modified_at.  Status is not touched here; SetStatus owns transitions.
func (r *FormRepo) Update(ctx context.Context, f *model.TreatmentForm) error {
	f.LastModifiedAt = time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		`UPDATE treatment_forms SET
		 date_of_birth=?, gender=?, occupation=?,
		 purpose_of_visit=?, facial_surgeries=?, body_contouring=?, breast_chest=?, buttocks_hips=?,
		 facial_skin=?, body_shape=?, hair_anti_aging=?, transgender_treatments=?,
		 previous_procedures=?, previous_procedures_details=?, medical_conditions=?,
		 preferred_month=?, include_sightseeing=?, last_modified_at=?
		 WHERE id=?`,
		f.DateOfBirth, f.Gender, f.Occupation,
		encodeList(f.PurposeOfVisit), encodeList(f.FacialSurgeries), encodeList(f.BodyContouring),
		encodeList(f.BreastChest), encodeList(f.ButtocksHips),
		encodeList(f.FacialSkin), encodeList(f.BodyShape), encodeList(f.HairAntiAging),
		encodeList(f.TransgenderTreatments),
		f.PreviousProcedures, f.PreviousProceduresDetails, f.MedicalConditions,
		f.PreferredMonth, f.IncludeSightseeing, f.LastModifiedAt,
		f.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus moves a form through its lifecycle.  submittedAt is stamped only
// when provided (user submission); admin transitions leave it untouched.
func (r *FormRepo) SetStatus(ctx context.Context, id uint64, status string, submittedAt *time.Time) error {
	var res sql.Result
	var err error
	now := time.Now().UTC()
	if submittedAt != nil {
		res, err = r.DB.ExecContext(ctx,
			`UPDATE treatment_forms SET status=?, submitted_at=?, last_modified_at=? WHERE id=?`,
			status, submittedAt.UTC(), now, id)
	} else {
		res, err = r.DB.ExecContext(ctx,
			`UPDATE treatment_forms SET status=?, last_modified_at=? WHERE id=?`,
			status, now, id)
	}
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the form owned by an account.
func (r *FormRepo) Delete(ctx context.Context, accountID string) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM treatment_forms WHERE account_id=?`, accountID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// List pages forms for the admin review screen, joined with owner contact
// details, most recently modified first.
func (r *FormRepo) List(ctx context.Context, f FormFilter) ([]FormWithOwner, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.Status != "" {
		where = append(where, "tf.status=?")
		args = append(args, f.Status)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "(a.full_name LIKE ? OR a.email LIKE ?)")
		like := "%" + s + "%"
		args = append(args, like, like)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM treatment_forms tf
		 JOIN accounts a ON a.id = tf.account_id WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(f.Page, f.Limit)
	args = append(args, limit, (page-1)*limit)
	rows, err := r.DB.QueryContext(ctx,
		`SELECT tf.id, tf.account_id, tf.date_of_birth, tf.gender, tf.occupation,
		        tf.purpose_of_visit, tf.facial_surgeries, tf.body_contouring, tf.breast_chest, tf.buttocks_hips,
		        tf.facial_skin, tf.body_shape, tf.hair_anti_aging, tf.transgender_treatments,
		        tf.previous_procedures, tf.previous_procedures_details, tf.medical_conditions,
		        tf.preferred_month, tf.include_sightseeing, tf.status, tf.submitted_at, tf.last_modified_at,
		        tf.created_at, tf.updated_at,
		        a.full_name, a.email, a.phone, a.country
		 FROM treatment_forms tf
		 JOIN accounts a ON a.id = tf.account_id
		 WHERE `+cond+`
		 ORDER BY tf.last_modified_at DESC, tf.id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []FormWithOwner
	for rows.Next() {
		var fw FormWithOwner
		var purpose, facial, contouring, breast, buttocks, skin, shape, hair, trans string
		if err := rows.Scan(&fw.ID, &fw.AccountID, &fw.DateOfBirth, &fw.Gender, &fw.Occupation,
			&purpose, &facial, &contouring, &breast, &buttocks,
			&skin, &shape, &hair, &trans,
			&fw.PreviousProcedures, &fw.PreviousProceduresDetails, &fw.MedicalConditions,
			&fw.PreferredMonth, &fw.IncludeSightseeing, &fw.Status, &fw.SubmittedAt,
			&fw.LastModifiedAt, &fw.CreatedAt, &fw.UpdatedAt,
			&fw.OwnerName, &fw.OwnerEmail, &fw.OwnerPhone, &fw.OwnerCountry); err != nil {
			return nil, 0, err
		}
		fw.PurposeOfVisit = decodeList(purpose)
		fw.FacialSurgeries = decodeList(facial)
		fw.BodyContouring = decodeList(contouring)
		fw.BreastChest = decodeList(breast)
		fw.ButtocksHips = decodeList(buttocks)
		fw.FacialSkin = decodeList(skin)
		fw.BodyShape = decodeList(shape)
		fw.HairAntiAging = decodeList(hair)
		fw.TransgenderTreatments = decodeList(trans)
		out = append(out, fw)
	}
	return out, total, rows.Err()
}

// StatusCounts groups form totals by status.
func (r *FormRepo) StatusCounts(ctx context.Context) (map[string]int, int, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM treatment_forms GROUP BY status`)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	counts := map[string]int{}
	total := 0
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, 0, err
		}
		counts[status] = n
		total += n
	}
	return counts, total, rows.Err()
}

// Stats aggregates the dashboard counters over forms.
func (r *FormRepo) Stats(ctx context.Context, since time.Time) (FormStats, error) {
	var s FormStats
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(status='submitted'), 0),
		        COALESCE(SUM(status='under_review'), 0),
		        COALESCE(SUM(status='approved'), 0),
		        COALESCE(SUM(status='rejected'), 0),
		        COALESCE(SUM(created_at >= ?), 0)
		 FROM treatment_forms`, since.UTC()).
		Scan(&s.Total, &s.Submitted, &s.UnderReview, &s.Approved, &s.Rejected, &s.Recent)
	return s, err
}
