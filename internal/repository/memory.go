package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/centilliongw/portal-api/internal/model"
)

// MemoryStore is an in-process implementation of the three store interfaces
// backed by maps.  Handler tests run against it instead of MySQL; the
// semantics (unique email, one form per account, one document per category,
// derived form status) mirror the SQL implementations.  The interfaces share
// method names with different signatures, so each is exposed as a view over
// the shared state: Accounts(), Forms() and Documents().
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]model.Account       // account id -> account
	emails   map[string]string              // lowercased email -> account id
	forms    map[string]model.TreatmentForm // account id -> form
	docs     map[uint64]model.Document      // document id -> document
	nextForm uint64
	nextDoc  uint64
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]model.Account),
		emails:   make(map[string]string),
		forms:    make(map[string]model.TreatmentForm),
		docs:     make(map[uint64]model.Document),
	}
}

// ExpireVerification backdates an account's verification token expiry.  Test
// hook for exercising the expired-token path.
func (m *MemoryStore) ExpireVerification(id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.VerificationExpires = &at
	m.accounts[id] = a
	return nil
}

// Accounts returns the AccountStore view.
func (m *MemoryStore) Accounts() AccountStore { return &memoryAccounts{m} }

// Forms returns the FormStore view.
func (m *MemoryStore) Forms() FormStore { return &memoryForms{m} }

// Documents returns the DocumentStore view.
func (m *MemoryStore) Documents() DocumentStore { return &memoryDocuments{m} }

// view derives the API-facing form status for an account.  Callers must hold
// at least the read lock.
func (m *MemoryStore) view(a model.Account) AccountView {
	status := model.FormStatusDraft
	if f, ok := m.forms[a.ID]; ok {
		status = f.Status
	}
	return AccountView{
		Account:       a,
		FormStatus:    status,
		FormSubmitted: status != model.FormStatusDraft,
	}
}

// docsOf lists one account's documents newest first.  Callers must hold at
// least the read lock.
func (m *MemoryStore) docsOf(accountID string, withData bool) []model.Document {
	var out []model.Document
	for _, d := range m.docs {
		if d.AccountID != accountID {
			continue
		}
		if !withData {
			d.FileData = ""
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// clampPage slices [lo:hi] bounds for an in-memory page.
func clampPage(total, page, limit int) (int, int) {
	lo := (page - 1) * limit
	if lo > total {
		lo = total
	}
	hi := lo + limit
	if hi > total {
		hi = total
	}
	return lo, hi
}

// ----- AccountStore view -----

type memoryAccounts struct{ *MemoryStore }

func (m *memoryAccounts) Create(_ context.Context, a model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(a.Email))
	if _, exists := m.emails[email]; exists {
		return ErrEmailExists
	}
	a.Email = email
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	m.accounts[a.ID] = a
	m.emails[email] = a.ID
	return nil
}

func (m *memoryAccounts) GetByID(_ context.Context, id string) (model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return model.Account{}, ErrNotFound
	}
	return a, nil
}

func (m *memoryAccounts) GetByEmail(_ context.Context, email string) (model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.emails[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return model.Account{}, ErrNotFound
	}
	return m.accounts[id], nil
}

func (m *memoryAccounts) GetByVerificationToken(_ context.Context, token string, now time.Time) (model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.accounts {
		if a.VerificationToken != nil && *a.VerificationToken == token &&
			a.VerificationExpires != nil && a.VerificationExpires.After(now) {
			return a, nil
		}
	}
	return model.Account{}, ErrNotFound
}

// mutate applies fn to an account under the write lock.
func (m *memoryAccounts) mutate(id string, fn func(*model.Account)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return ErrNotFound
	}
	fn(&a)
	a.UpdatedAt = time.Now().UTC()
	m.accounts[id] = a
	return nil
}

func (m *memoryAccounts) MarkVerified(_ context.Context, id string) error {
	return m.mutate(id, func(a *model.Account) {
		a.IsVerified = true
		a.VerificationToken = nil
		a.VerificationExpires = nil
	})
}

func (m *memoryAccounts) SetPassword(_ context.Context, id, hash string) error {
	return m.mutate(id, func(a *model.Account) {
		a.PasswordHash = hash
		a.PasswordSet = true
		a.IsFirstLogin = false
	})
}

func (m *memoryAccounts) ClearFirstLogin(_ context.Context, id string) error {
	return m.mutate(id, func(a *model.Account) { a.IsFirstLogin = false })
}

func (m *memoryAccounts) UpdateProfile(_ context.Context, id, fullName, age, phone, country string, completed bool) error {
	return m.mutate(id, func(a *model.Account) {
		a.FullName, a.Age, a.Phone, a.Country = fullName, age, phone, country
		a.ProfileCompleted = completed
	})
}

func (m *memoryAccounts) UpdateRole(_ context.Context, id, role string) error {
	return m.mutate(id, func(a *model.Account) { a.Role = role })
}

func (m *memoryAccounts) View(_ context.Context, id string) (AccountView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return AccountView{}, ErrNotFound
	}
	return m.view(a), nil
}

func (m *memoryAccounts) List(_ context.Context, f AccountFilter) ([]AccountView, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []AccountView
	for _, a := range m.accounts {
		v := m.view(a)
		if f.Verified != nil && v.IsVerified != *f.Verified {
			continue
		}
		if f.HasForm != nil && v.FormSubmitted != *f.HasForm {
			continue
		}
		if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
			if !strings.Contains(strings.ToLower(v.FullName), s) &&
				!strings.Contains(strings.ToLower(v.Email), s) {
				continue
			}
		}
		all = append(all, v)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	total := len(all)
	page, limit := normalizePage(f.Page, f.Limit)
	lo, hi := clampPage(total, page, limit)
	return all[lo:hi], total, nil
}

func (m *memoryAccounts) Stats(_ context.Context, since time.Time) (AccountStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var s AccountStats
	for _, a := range m.accounts {
		s.Total++
		if a.IsVerified {
			s.Verified++
		}
		if m.view(a).FormSubmitted {
			s.WithForms++
		}
		if !a.CreatedAt.Before(since) {
			s.Recent++
		}
	}
	return s, nil
}

// ----- FormStore view -----

type memoryForms struct{ *MemoryStore }

func (m *memoryForms) GetByAccount(_ context.Context, accountID string) (model.TreatmentForm, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.forms[accountID]
	if !ok {
		return model.TreatmentForm{}, ErrNotFound
	}
	return f, nil
}

func (m *memoryForms) GetByID(_ context.Context, id uint64) (model.TreatmentForm, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.forms {
		if f.ID == id {
			return f, nil
		}
	}
	return model.TreatmentForm{}, ErrNotFound
}

func (m *memoryForms) Create(_ context.Context, f *model.TreatmentForm) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextForm++
	f.ID = m.nextForm
	now := time.Now().UTC()
	if f.Status == "" {
		f.Status = model.FormStatusDraft
	}
	f.LastModifiedAt = now
	f.CreatedAt, f.UpdatedAt = now, now
	m.forms[f.AccountID] = *f
	return nil
}

func (m *memoryForms) Update(_ context.Context, f *model.TreatmentForm) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.forms[f.AccountID]
	if !ok || cur.ID != f.ID {
		return ErrNotFound
	}
	// Status transitions belong to SetStatus.
	f.Status = cur.Status
	f.SubmittedAt = cur.SubmittedAt
	f.CreatedAt = cur.CreatedAt
	now := time.Now().UTC()
	f.LastModifiedAt, f.UpdatedAt = now, now
	m.forms[f.AccountID] = *f
	return nil
}

func (m *memoryForms) SetStatus(_ context.Context, id uint64, status string, submittedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, f := range m.forms {
		if f.ID != id {
			continue
		}
		f.Status = status
		if submittedAt != nil {
			t := submittedAt.UTC()
			f.SubmittedAt = &t
		}
		now := time.Now().UTC()
		f.LastModifiedAt, f.UpdatedAt = now, now
		m.forms[key] = f
		return nil
	}
	return ErrNotFound
}

func (m *memoryForms) Delete(_ context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.forms[accountID]; !ok {
		return ErrNotFound
	}
	delete(m.forms, accountID)
	return nil
}

func (m *memoryForms) List(_ context.Context, filter FormFilter) ([]FormWithOwner, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []FormWithOwner
	for accountID, f := range m.forms {
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		owner := m.accounts[accountID]
		if s := strings.ToLower(strings.TrimSpace(filter.Search)); s != "" {
			if !strings.Contains(strings.ToLower(owner.FullName), s) &&
				!strings.Contains(strings.ToLower(owner.Email), s) {
				continue
			}
		}
		all = append(all, FormWithOwner{
			TreatmentForm: f,
			OwnerName:     owner.FullName,
			OwnerEmail:    owner.Email,
			OwnerPhone:    owner.Phone,
			OwnerCountry:  owner.Country,
		})
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].LastModifiedAt.Equal(all[j].LastModifiedAt) {
			return all[i].LastModifiedAt.After(all[j].LastModifiedAt)
		}
		return all[i].ID > all[j].ID
	})

	total := len(all)
	page, limit := normalizePage(filter.Page, filter.Limit)
	lo, hi := clampPage(total, page, limit)
	return all[lo:hi], total, nil
}

func (m *memoryForms) StatusCounts(_ context.Context) (map[string]int, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := map[string]int{}
	for _, f := range m.forms {
		counts[f.Status]++
	}
	return counts, len(m.forms), nil
}

func (m *memoryForms) Stats(_ context.Context, since time.Time) (FormStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var s FormStats
	for _, f := range m.forms {
		s.Total++
		switch f.Status {
		case model.FormStatusSubmitted:
			s.Submitted++
		case model.FormStatusUnderReview:
			s.UnderReview++
		case model.FormStatusApproved:
			s.Approved++
		case model.FormStatusRejected:
			s.Rejected++
		}
		if !f.CreatedAt.Before(since) {
			s.Recent++
		}
	}
	return s, nil
}

// ----- DocumentStore view -----

type memoryDocuments struct{ *MemoryStore }

func (m *memoryDocuments) Upsert(_ context.Context, d *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.UploadedAt = time.Now().UTC()
	for id, existing := range m.docs {
		if existing.AccountID == d.AccountID && existing.Category == d.Category {
			d.ID = id
			m.docs[id] = *d
			return nil
		}
	}
	m.nextDoc++
	d.ID = m.nextDoc
	m.docs[d.ID] = *d
	return nil
}

func (m *memoryDocuments) ListByAccount(_ context.Context, accountID string) ([]model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.docsOf(accountID, false), nil
}

func (m *memoryDocuments) Get(_ context.Context, id uint64, accountID string) (model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	if !ok || d.AccountID != accountID {
		return model.Document{}, ErrNotFound
	}
	return d, nil
}

func (m *memoryDocuments) Delete(_ context.Context, id uint64, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok || d.AccountID != accountID {
		return ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *memoryDocuments) Categories(_ context.Context, accountID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for _, d := range m.docs {
		if d.AccountID == accountID && !seen[d.Category] {
			seen[d.Category] = true
			out = append(out, d.Category)
		}
	}
	return out, nil
}

func (m *memoryDocuments) ListGrouped(_ context.Context, search string, page, limit int) ([]AccountDocuments, int, CompletenessStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byAccount := map[string]bool{}
	for _, d := range m.docs {
		byAccount[d.AccountID] = true
	}

	var groups []AccountDocuments
	var stats CompletenessStats
	s := strings.ToLower(strings.TrimSpace(search))
	for accountID := range byAccount {
		owner := m.accounts[accountID]
		if s != "" && !strings.Contains(strings.ToLower(owner.FullName), s) &&
			!strings.Contains(strings.ToLower(owner.Email), s) {
			continue
		}
		docs := m.docsOf(accountID, false)
		required := 0
		for _, cat := range model.RequiredDocumentCategories {
			for _, d := range docs {
				if d.Category == cat {
					required++
					break
				}
			}
		}
		switch {
		case required == len(model.RequiredDocumentCategories):
			stats.Complete++
		case required > 0:
			stats.Partial++
		default:
			stats.None++
		}
		groups = append(groups, AccountDocuments{
			AccountID:    accountID,
			OwnerName:    owner.FullName,
			OwnerEmail:   owner.Email,
			OwnerPhone:   owner.Phone,
			OwnerCountry: owner.Country,
			Documents:    docs,
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Documents[0].UploadedAt.After(groups[j].Documents[0].UploadedAt)
	})

	total := len(groups)
	page, limit = normalizePage(page, limit)
	lo, hi := clampPage(total, page, limit)
	return groups[lo:hi], total, stats, nil
}
