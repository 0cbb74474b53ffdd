package repository

import (
	"context"
	"testing"
	"time"

	"github.com/centilliongw/portal-api/internal/model"
)

func seedAccount(t *testing.T, s AccountStore, id, email string) {
	t.Helper()
	err := s.Create(context.Background(), model.Account{
		ID:       id,
		FullName: "Account " + id,
		Email:    email,
		Age:      "30",
		Phone:    "+100000",
		Country:  "Thailand",
		Role:     model.RoleUser,
	})
	if err != nil {
		t.Fatalf("seed account %s: %v", id, err)
	}
}

func TestMemoryAccountsUniqueEmail(t *testing.T) {
	store := NewMemoryStore()
	accounts := store.Accounts()
	ctx := context.Background()

	seedAccount(t, accounts, "u1", "alice@example.com")

	err := accounts.Create(ctx, model.Account{ID: "u2", Email: "ALICE@example.com"})
	if err != ErrEmailExists {
		t.Fatalf("duplicate email: got %v, want ErrEmailExists", err)
	}

	if _, err := accounts.GetByEmail(ctx, "Alice@Example.COM"); err != nil {
		t.Fatalf("case-insensitive lookup failed: %v", err)
	}
}

func TestMemoryVerificationTokenExpiry(t *testing.T) {
	store := NewMemoryStore()
	accounts := store.Accounts()
	ctx := context.Background()

	token := "tok-123"
	expires := time.Now().Add(24 * time.Hour)
	if err := accounts.Create(ctx, model.Account{
		ID: "u1", Email: "a@b.c",
		VerificationToken: &token, VerificationExpires: &expires,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := accounts.GetByVerificationToken(ctx, token, time.Now()); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}
	if _, err := accounts.GetByVerificationToken(ctx, token, time.Now().Add(25*time.Hour)); err != ErrNotFound {
		t.Fatalf("expired token: got %v, want ErrNotFound", err)
	}

	if err := accounts.MarkVerified(ctx, "u1"); err != nil {
		t.Fatalf("mark verified: %v", err)
	}
	if _, err := accounts.GetByVerificationToken(ctx, token, time.Now()); err != ErrNotFound {
		t.Fatalf("consumed token: got %v, want ErrNotFound", err)
	}

	a, err := accounts.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !a.IsVerified || a.VerificationToken != nil || a.VerificationExpires != nil {
		t.Fatalf("verified account still carries token state: %+v", a)
	}
}

func TestMemoryDerivedFormStatus(t *testing.T) {
	store := NewMemoryStore()
	accounts := store.Accounts()
	forms := store.Forms()
	ctx := context.Background()

	seedAccount(t, accounts, "u1", "a@b.c")

	v, err := accounts.View(ctx, "u1")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if v.FormStatus != model.FormStatusDraft || v.FormSubmitted {
		t.Fatalf("no form: status=%q submitted=%v, want draft/false", v.FormStatus, v.FormSubmitted)
	}

	f := model.TreatmentForm{AccountID: "u1", Status: model.FormStatusDraft}
	if err := forms.Create(ctx, &f); err != nil {
		t.Fatalf("create form: %v", err)
	}

	now := time.Now().UTC()
	if err := forms.SetStatus(ctx, f.ID, model.FormStatusSubmitted, &now); err != nil {
		t.Fatalf("set status: %v", err)
	}
	v, _ = accounts.View(ctx, "u1")
	if v.FormStatus != model.FormStatusSubmitted || !v.FormSubmitted {
		t.Fatalf("submitted form: status=%q submitted=%v", v.FormStatus, v.FormSubmitted)
	}

	if err := forms.SetStatus(ctx, f.ID, model.FormStatusApproved, nil); err != nil {
		t.Fatalf("approve: %v", err)
	}
	v, _ = accounts.View(ctx, "u1")
	if v.FormStatus != model.FormStatusApproved {
		t.Fatalf("approved form: status=%q", v.FormStatus)
	}

	// Deleting the form reverts the derived status to draft.
	if err := forms.Delete(ctx, "u1"); err != nil {
		t.Fatalf("delete form: %v", err)
	}
	v, _ = accounts.View(ctx, "u1")
	if v.FormStatus != model.FormStatusDraft || v.FormSubmitted {
		t.Fatalf("after delete: status=%q submitted=%v, want draft/false", v.FormStatus, v.FormSubmitted)
	}
}

func TestMemoryFormUpdateKeepsStatus(t *testing.T) {
	store := NewMemoryStore()
	forms := store.Forms()
	ctx := context.Background()

	f := model.TreatmentForm{AccountID: "u1"}
	if err := forms.Create(ctx, &f); err != nil {
		t.Fatalf("create: %v", err)
	}
	now := time.Now().UTC()
	if err := forms.SetStatus(ctx, f.ID, model.FormStatusApproved, &now); err != nil {
		t.Fatalf("set status: %v", err)
	}

	f.Occupation = "Engineer"
	f.Status = model.FormStatusDraft // content updates must not touch status
	if err := forms.Update(ctx, &f); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := forms.GetByAccount(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.FormStatusApproved {
		t.Fatalf("status after content update = %q, want approved", got.Status)
	}
	if got.Occupation != "Engineer" {
		t.Fatalf("content update lost: occupation = %q", got.Occupation)
	}
	if got.SubmittedAt == nil {
		t.Fatal("submittedAt cleared by content update")
	}
}

func TestMemoryDocumentCategoryReplacement(t *testing.T) {
	store := NewMemoryStore()
	docs := store.Documents()
	ctx := context.Background()

	d1 := model.Document{AccountID: "u1", Name: "a.pdf", Category: model.CategoryIDProof, FileData: "QQ=="}
	if err := docs.Upsert(ctx, &d1); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	d2 := model.Document{AccountID: "u1", Name: "b.pdf", Category: model.CategoryIDProof, FileData: "Qg=="}
	if err := docs.Upsert(ctx, &d2); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if d2.ID != d1.ID {
		t.Fatalf("replacement allocated a new id: %d vs %d", d2.ID, d1.ID)
	}

	list, err := docs.ListByAccount(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "b.pdf" {
		t.Fatalf("list after replacement = %+v, want single b.pdf", list)
	}
	if list[0].FileData != "" {
		t.Fatal("list leaked file data")
	}

	got, err := docs.Get(ctx, d2.ID, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FileData != "Qg==" {
		t.Fatalf("get file data = %q", got.FileData)
	}

	// Owner scoping: another account cannot read or delete the document.
	if _, err := docs.Get(ctx, d2.ID, "u2"); err != ErrNotFound {
		t.Fatalf("cross-account get: got %v, want ErrNotFound", err)
	}
	if err := docs.Delete(ctx, d2.ID, "u2"); err != ErrNotFound {
		t.Fatalf("cross-account delete: got %v, want ErrNotFound", err)
	}
}

func TestMemoryAccountListFilters(t *testing.T) {
	store := NewMemoryStore()
	accounts := store.Accounts()
	forms := store.Forms()
	ctx := context.Background()

	seedAccount(t, accounts, "u1", "alice@example.com")
	seedAccount(t, accounts, "u2", "bob@example.com")
	seedAccount(t, accounts, "u3", "carol@example.com")
	_ = accounts.MarkVerified(ctx, "u1")
	_ = accounts.MarkVerified(ctx, "u2")

	f := model.TreatmentForm{AccountID: "u1"}
	_ = forms.Create(ctx, &f)
	now := time.Now().UTC()
	_ = forms.SetStatus(ctx, f.ID, model.FormStatusSubmitted, &now)

	verified := true
	got, total, err := accounts.List(ctx, AccountFilter{Verified: &verified})
	if err != nil {
		t.Fatalf("list verified: %v", err)
	}
	if total != 2 || len(got) != 2 {
		t.Fatalf("verified filter: total=%d len=%d, want 2/2", total, len(got))
	}

	hasForm := true
	got, total, _ = accounts.List(ctx, AccountFilter{HasForm: &hasForm})
	if total != 1 || got[0].ID != "u1" {
		t.Fatalf("hasForm filter: total=%d, want just u1", total)
	}

	_, total, _ = accounts.List(ctx, AccountFilter{Search: "bob"})
	if total != 1 {
		t.Fatalf("search filter total = %d, want 1", total)
	}

	// Pagination clamps.
	got, total, _ = accounts.List(ctx, AccountFilter{Page: 2, Limit: 2})
	if total != 3 || len(got) != 1 {
		t.Fatalf("page 2 of 3 with limit 2: total=%d len=%d, want 3/1", total, len(got))
	}
}

func TestMemoryListGroupedCompleteness(t *testing.T) {
	store := NewMemoryStore()
	accounts := store.Accounts()
	docs := store.Documents()
	ctx := context.Background()

	seedAccount(t, accounts, "u1", "alice@example.com")
	seedAccount(t, accounts, "u2", "bob@example.com")

	for _, cat := range model.RequiredDocumentCategories {
		d := model.Document{AccountID: "u1", Name: cat + ".pdf", Category: cat, FileData: "QQ=="}
		if err := docs.Upsert(ctx, &d); err != nil {
			t.Fatalf("upsert %s: %v", cat, err)
		}
	}
	d := model.Document{AccountID: "u2", Name: "c.pdf", Category: model.CategoryConsentForm, FileData: "QQ=="}
	_ = docs.Upsert(ctx, &d)

	groups, total, stats, err := docs.ListGrouped(ctx, "", 1, 10)
	if err != nil {
		t.Fatalf("list grouped: %v", err)
	}
	if total != 2 || len(groups) != 2 {
		t.Fatalf("grouped total=%d len=%d, want 2/2", total, len(groups))
	}
	if stats.Complete != 1 || stats.Partial != 1 || stats.None != 0 {
		t.Fatalf("completeness = %+v, want 1 complete / 1 partial", stats)
	}

	groups, total, _, _ = docs.ListGrouped(ctx, "alice", 1, 10)
	if total != 1 || groups[0].AccountID != "u1" {
		t.Fatalf("search filter returned %v entries", total)
	}
}

func TestMemoryFormStatusCounts(t *testing.T) {
	store := NewMemoryStore()
	forms := store.Forms()
	ctx := context.Background()

	for i, status := range []string{
		model.FormStatusDraft,
		model.FormStatusSubmitted,
		model.FormStatusSubmitted,
		model.FormStatusApproved,
	} {
		f := model.TreatmentForm{AccountID: string(rune('a' + i))}
		if err := forms.Create(ctx, &f); err != nil {
			t.Fatalf("create: %v", err)
		}
		if status != model.FormStatusDraft {
			if err := forms.SetStatus(ctx, f.ID, status, nil); err != nil {
				t.Fatalf("set status: %v", err)
			}
		}
	}

	counts, total, err := forms.StatusCounts(ctx)
	if err != nil {
		t.Fatalf("status counts: %v", err)
	}
	if total != 4 {
		t.Fatalf("total = %d, want 4", total)
	}
	if counts[model.FormStatusSubmitted] != 2 || counts[model.FormStatusApproved] != 1 || counts[model.FormStatusDraft] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}
