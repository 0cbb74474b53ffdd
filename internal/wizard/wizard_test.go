package wizard

import (
	"reflect"
	"testing"

	"github.com/centilliongw/portal-api/internal/model"
)

func TestVisibleStepsBlankForm(t *testing.T) {
	steps := VisibleSteps(model.TreatmentForm{})

	ids := make([]string, 0, len(steps))
	for _, s := range steps {
		ids = append(ids, s.ID)
	}
	want := []string{"personal_info", "purpose_of_visit", "additional_info"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("blank form visible steps = %v, want %v", ids, want)
	}

	if steps[0].Complete {
		t.Fatalf("personal_info should be incomplete on a blank form")
	}
	if got := steps[0].Missing; len(got) != 3 {
		t.Fatalf("personal_info missing = %v, want 3 fields", got)
	}
}

func TestTreatmentStepsGateOnPurpose(t *testing.T) {
	cases := []struct {
		purpose string
		stepID  string
	}{
		{"Cosmetic Surgery", "surgical_treatments"},
		{"Non-Surgical Beauty Treatment", "non_surgical_treatments"},
		{"Gender-Affirming or Transgender Transformation", "transgender_treatments"},
	}
	for _, tc := range cases {
		f := model.TreatmentForm{PurposeOfVisit: []string{tc.purpose}}
		found := false
		for _, s := range VisibleSteps(f) {
			if s.ID == tc.stepID {
				found = true
			}
		}
		if !found {
			t.Errorf("purpose %q should reveal step %q", tc.purpose, tc.stepID)
		}
	}

	// Wellness and rejuvenation purposes reveal no treatment step.
	for _, purpose := range []string{"Wellness & Detox Program", "Rejuvenation / Anti-Aging Package"} {
		f := model.TreatmentForm{PurposeOfVisit: []string{purpose}}
		for _, s := range VisibleSteps(f) {
			switch s.ID {
			case "surgical_treatments", "non_surgical_treatments", "transgender_treatments":
				t.Errorf("purpose %q unexpectedly revealed %q", purpose, s.ID)
			}
		}
	}
}

func TestMissingFields(t *testing.T) {
	f := model.TreatmentForm{
		DateOfBirth:    "1990-05-01",
		Gender:         "Female",
		Occupation:     "Designer",
		PurposeOfVisit: []string{"Cosmetic Surgery"},
	}
	if missing := MissingFields(f); len(missing) != 0 {
		t.Fatalf("complete form reported missing fields: %v", missing)
	}

	f.Occupation = ""
	missing := MissingFields(f)
	if len(missing) != 1 || missing[0] != "occupation" {
		t.Fatalf("missing = %v, want [occupation]", missing)
	}
}

func TestMissingDocuments(t *testing.T) {
	if missing := MissingDocuments(nil); len(missing) != 3 {
		t.Fatalf("no uploads should miss all 3 required categories, got %v", missing)
	}

	uploaded := []string{model.CategoryConsentForm, model.CategoryPassportCopy}
	missing := MissingDocuments(uploaded)
	want := []string{model.CategoryMedicalHistory, model.CategoryIDProof}
	if !reflect.DeepEqual(missing, want) {
		t.Fatalf("missing = %v, want %v", missing, want)
	}

	all := []string{model.CategoryConsentForm, model.CategoryMedicalHistory, model.CategoryIDProof}
	if missing := MissingDocuments(all); len(missing) != 0 {
		t.Fatalf("all required uploaded, still missing %v", missing)
	}
}
