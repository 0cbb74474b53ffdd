package repository

import (
	"context"
	"time"

	"github.com/centilliongw/portal-api/internal/model"
)

// AccountFilter narrows admin account listings.  Page is 1-based; Verified
// and HasForm are tri-state (nil = no filter); Search matches a substring of
// the full name or email.
type AccountFilter struct {
	Page     int
	Limit    int
	Verified *bool
	HasForm  *bool
	Search   string
}

// AccountView is an account joined with its derived treatment-form status.
// FormStatus is "draft" when no form exists; FormSubmitted is true once the
// form has left the draft state.  The form's status column is the single
// source of truth; nothing is denormalized onto the account row.
type AccountView struct {
	model.Account
	FormStatus    string
	FormSubmitted bool
}

// AccountStats are the dashboard counters over accounts.
type AccountStats struct {
	Total     int
	Verified  int
	WithForms int
	Recent    int
}

// AccountStore persists accounts.
type AccountStore interface {
	Create(ctx context.Context, a model.Account) error
	GetByID(ctx context.Context, id string) (model.Account, error)
	GetByEmail(ctx context.Context, email string) (model.Account, error)
	// GetByVerificationToken resolves an account whose verification token
	// matches and has not expired as of now.
	GetByVerificationToken(ctx context.Context, token string, now time.Time) (model.Account, error)
	// MarkVerified flips is_verified and clears the token pair.
	MarkVerified(ctx context.Context, id string) error
	// SetPassword stores a new hash and records that a real password is set.
	SetPassword(ctx context.Context, id, hash string) error
	// ClearFirstLogin records that the account has logged in at least once.
	ClearFirstLogin(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, id, fullName, age, phone, country string, completed bool) error
	UpdateRole(ctx context.Context, id, role string) error
	// View returns the account joined with its derived form status.
	View(ctx context.Context, id string) (AccountView, error)
	List(ctx context.Context, f AccountFilter) ([]AccountView, int, error)
	Stats(ctx context.Context, since time.Time) (AccountStats, error)
}

// FormFilter narrows admin form listings.
type FormFilter struct {
	Page   int
	Limit  int
	Status string
	Search string
}

// FormWithOwner is a treatment form joined with contact details of the
// owning account for the admin review screens.
type FormWithOwner struct {
	model.TreatmentForm
	OwnerName    string
	OwnerEmail   string
	OwnerPhone   string
	OwnerCountry string
}

// FormStats are the dashboard counters over treatment forms.
type FormStats struct {
	Total       int
	Submitted   int
	UnderReview int
	Approved    int
	Rejected    int
	Recent      int
}

// FormStore persists treatment forms (at most one per account).
type FormStore interface {
	GetByAccount(ctx context.Context, accountID string) (model.TreatmentForm, error)
	GetByID(ctx context.Context, id uint64) (model.TreatmentForm, error)
	Create(ctx context.Context, f *model.TreatmentForm) error
	Update(ctx context.Context, f *model.TreatmentForm) error
	// SetStatus updates the lifecycle status and last_modified_at; a non-nil
	// submittedAt also stamps the submission time.
	SetStatus(ctx context.Context, id uint64, status string, submittedAt *time.Time) error
	Delete(ctx context.Context, accountID string) error
	List(ctx context.Context, f FormFilter) ([]FormWithOwner, int, error)
	// StatusCounts returns the number of forms per status plus the total.
	StatusCounts(ctx context.Context) (map[string]int, int, error)
	Stats(ctx context.Context, since time.Time) (FormStats, error)
}

// AccountDocuments groups one account's uploaded documents for the admin
// listing.  Documents carry metadata only.
type AccountDocuments struct {
	AccountID    string
	OwnerName    string
	OwnerEmail   string
	OwnerPhone   string
	OwnerCountry string
	Documents    []model.Document
}

// CompletenessStats classifies accounts against the required document
// categories: complete (all three), partial (some) or none.
type CompletenessStats struct {
	Complete int
	Partial  int
	None     int
}

// DocumentStore persists uploaded documents.
type DocumentStore interface {
	// Upsert stores the document, replacing any existing one in the same
	// (account, category) slot, and fills in the assigned ID.
	Upsert(ctx context.Context, d *model.Document) error
	// ListByAccount returns metadata (no file data), newest upload first.
	ListByAccount(ctx context.Context, accountID string) ([]model.Document, error)
	// Get returns a single document including file data, scoped to owner.
	Get(ctx context.Context, id uint64, accountID string) (model.Document, error)
	Delete(ctx context.Context, id uint64, accountID string) error
	// Categories returns the set of categories the account has uploaded.
	Categories(ctx context.Context, accountID string) ([]string, error)
	// ListGrouped pages accounts that have documents (newest upload first)
	// together with completeness stats over the whole population.
	ListGrouped(ctx context.Context, search string, page, limit int) ([]AccountDocuments, int, CompletenessStats, error)
}
