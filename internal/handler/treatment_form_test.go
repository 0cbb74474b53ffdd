package handler_test

import (
	"net/http"
	"testing"
)

func TestSaveFormCreatesDraft(t *testing.T) {
	en := newEnv(t)
	_, tok := en.onboard(t, "Alice Doe", "alice@example.com", "correct-horse")

	// No form yet.
	rec := en.do(t, http.MethodGet, "/api/treatment-form", tok, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get before save: status %d, want 404", rec.Code)
	}

	rec = en.do(t, http.MethodPost, "/api/treatment-form", tok, map[string]any{
		"dateOfBirth": "1992-04-15",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("first save: status %d body %s", rec.Code, rec.Body.String())
	}
	data := decode(t, rec)["data"].(map[string]any)
	if data["status"] != "draft" {
		t.Fatalf("new form status = %v, want draft", data["status"])
	}
	if data["dateOfBirth"] != "1992-04-15" {
		t.Fatalf("dateOfBirth = %v", data["dateOfBirth"])
	}
}

func TestSaveFormMergesPartialUpdates(t *testing.T) {
	en := newEnv(t)
	_, tok := en.onboard(t, "Alice Doe", "alice@example.com", "correct-horse")

	en.do(t, http.MethodPost, "/api/treatment-form", tok, map[string]any{
		"dateOfBirth": "1992-04-15",
		"gender":      "Female",
	})
	// Second save omits dateOfBirth and gender; they must survive.
	rec := en.do(t, http.MethodPost, "/api/treatment-form", tok, map[string]any{
		"occupation": "Architect",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("second save: status %d", rec.Code)
	}
	data := decode(t, rec)["data"].(map[string]any)
	if data["dateOfBirth"] != "1992-04-15" || data["gender"] != "Female" || data["occupation"] != "Architect" {
		t.Fatalf("merge lost fields: %v", data)
	}
}

func TestSaveFormRejectsUnknownOptions(t *testing.T) {
	en := newEnv(t)
	_, tok := en.onboard(t, "Alice Doe", "alice@example.com", "correct-horse")

	cases := []map[string]any{
		{"gender": "Other"},
		{"purposeOfVisit": []string{"Dental Work"}},
		{"facialSurgeries": []string{"Facelift", "Made Up Procedure"}},
		{"transgenderTreatments": []string{"nope"}},
	}
	for i, body := range cases {
		rec := en.do(t, http.MethodPost, "/api/treatment-form", tok, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("case %d: status %d, want 400 (body %s)", i, rec.Code, rec.Body.String())
		}
	}
}

func TestSubmitRequiresSavedForm(t *testing.T) {
	en := newEnv(t)
	_, tok := en.onboard(t, "Alice Doe", "alice@example.com", "correct-horse")

	rec := en.do(t, http.MethodPost, "/api/treatment-form/submit", tok, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("submit without form: status %d, want 404", rec.Code)
	}
}

func TestSubmitRequiresCompleteFields(t *testing.T) {
	en := newEnv(t)
	_, tok := en.onboard(t, "Alice Doe", "alice@example.com", "correct-horse")

	en.do(t, http.MethodPost, "/api/treatment-form", tok, map[string]any{
		"dateOfBirth": "1992-04-15",
		// gender, occupation, purposeOfVisit missing
	})
	rec := en.do(t, http.MethodPost, "/api/treatment-form/submit", tok, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("incomplete submit: status %d, want 400", rec.Code)
	}
	body := decode(t, rec)
	missing, ok := body["missing"].([]any)
	if !ok || len(missing) == 0 {
		t.Fatalf("missing fields not reported: %v", body)
	}
}

func TestSubmitSucceedsWithoutDocuments(t *testing.T) {
	en := newEnv(t)
	_, tok := en.onboard(t, "Alice Doe", "alice@example.com", "correct-horse")
	en.completeForm(t, tok)

	// The upload checklist is advisory; missing documents never block a
	// submit whose required fields are complete.
	rec := en.do(t, http.MethodPost, "/api/treatment-form/submit", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit without documents: status %d body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if data := body["data"].(map[string]any); data["status"] != "submitted" {
		t.Fatalf("status = %v, want submitted", data["status"])
	}
	missing, ok := body["missingDocuments"].([]any)
	if !ok || len(missing) != 3 {
		t.Fatalf("missingDocuments = %v, want all 3 reported", body["missingDocuments"])
	}
}

func TestSubmitHappyPathMirrorsIntoMe(t *testing.T) {
	en := newEnv(t)
	_, tok := en.onboard(t, "Alice Doe", "alice@example.com", "correct-horse")
	en.completeForm(t, tok)
	en.uploadRequiredDocuments(t, tok)

	rec := en.do(t, http.MethodPost, "/api/treatment-form/submit", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: status %d body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	data := body["data"].(map[string]any)
	if data["status"] != "submitted" || data["submittedAt"] == nil {
		t.Fatalf("submitted form = %v", data)
	}
	if missing := body["missingDocuments"].([]any); len(missing) != 0 {
		t.Fatalf("missingDocuments = %v, want none", missing)
	}

	// The account payload derives its form state from the form row.
	me := en.do(t, http.MethodGet, "/api/auth/me", tok, nil)
	user := decode(t, me)["user"].(map[string]any)
	if user["beautyFormStatus"] != "submitted" || user["beautyFormSubmitted"] != true {
		t.Fatalf("/me form state = %v/%v", user["beautyFormStatus"], user["beautyFormSubmitted"])
	}
}

func TestDeleteFormRevertsDerivedStatus(t *testing.T) {
	en := newEnv(t)
	_, tok := en.onboard(t, "Alice Doe", "alice@example.com", "correct-horse")
	en.completeForm(t, tok)
	en.uploadRequiredDocuments(t, tok)
	en.do(t, http.MethodPost, "/api/treatment-form/submit", tok, nil)

	rec := en.do(t, http.MethodDelete, "/api/treatment-form", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete form: status %d", rec.Code)
	}

	me := en.do(t, http.MethodGet, "/api/auth/me", tok, nil)
	user := decode(t, me)["user"].(map[string]any)
	if user["beautyFormStatus"] != "draft" || user["beautyFormSubmitted"] != false {
		t.Fatalf("after delete /me form state = %v/%v, want draft/false",
			user["beautyFormStatus"], user["beautyFormSubmitted"])
	}

	// Deleting again is a 404.
	rec = en.do(t, http.MethodDelete, "/api/treatment-form", tok, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("double delete: status %d, want 404", rec.Code)
	}
}

func TestStepsRevealTreatmentPages(t *testing.T) {
	en := newEnv(t)
	_, tok := en.onboard(t, "Alice Doe", "alice@example.com", "correct-horse")

	// Before any save the wizard still answers, with the base steps.
	rec := en.do(t, http.MethodGet, "/api/treatment-form/steps", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("steps without form: status %d", rec.Code)
	}
	data := decode(t, rec)["data"].(map[string]any)
	if n := len(data["steps"].([]any)); n != 3 {
		t.Fatalf("base steps = %d, want 3", n)
	}

	en.do(t, http.MethodPost, "/api/treatment-form", tok, map[string]any{
		"purposeOfVisit": []string{"Gender-Affirming or Transgender Transformation"},
	})
	rec = en.do(t, http.MethodGet, "/api/treatment-form/steps", tok, nil)
	data = decode(t, rec)["data"].(map[string]any)
	found := false
	for _, s := range data["steps"].([]any) {
		if s.(map[string]any)["id"] == "transgender_treatments" {
			found = true
		}
	}
	if !found {
		t.Fatal("transgender_treatments step not revealed by chosen purpose")
	}
	if n := len(data["missingDocuments"].([]any)); n != 3 {
		t.Fatalf("missingDocuments = %d, want 3", n)
	}
}

func TestFormRoutesRequireAuth(t *testing.T) {
	en := newEnv(t)
	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/treatment-form"},
		{http.MethodPost, "/api/treatment-form"},
		{http.MethodPost, "/api/treatment-form/submit"},
		{http.MethodDelete, "/api/treatment-form"},
		{http.MethodGet, "/api/treatment-form/steps"},
	} {
		rec := en.do(t, route.method, route.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status %d, want 401", route.method, route.path, rec.Code)
		}
	}
}
