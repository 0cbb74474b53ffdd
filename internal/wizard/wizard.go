// Package wizard models the treatment questionnaire as an explicit ordered
// list of predicate-gated steps.  Which steps are visible depends only on the
// purposes of visit already selected on the form, so the whole wizard can be
// evaluated in one pass per request: the server tells the client exactly
// which steps apply and which required fields are still missing.
package wizard

import "github.com/centilliongw/portal-api/internal/model"

// Step is one page of the questionnaire.  Visible decides whether the step
// applies to a given form; Missing reports the required fields the form has
// not filled in yet.  A nil Visible means the step always applies.
type Step struct {
	ID       string
	Title    string
	Visible  func(f model.TreatmentForm) bool
	Required []string
	Missing  func(f model.TreatmentForm) []string
}

// purposeChosen reports whether any of the given purposes was selected.
func purposeChosen(f model.TreatmentForm, purposes ...string) bool {
	for _, want := range purposes {
		for _, p := range f.PurposeOfVisit {
			if p == want {
				return true
			}
		}
	}
	return false
}

// Steps is the full wizard in presentation order.  Only the personal-info and
// purpose steps carry hard requirements; the treatment steps gate on the
// chosen purposes and the additional-info step is always optional.
var Steps = []Step{
	{
		ID:       "personal_info",
		Title:    "Personal Information",
		Required: []string{"dateOfBirth", "gender", "occupation"},
		Missing: func(f model.TreatmentForm) []string {
			var missing []string
			if f.DateOfBirth == "" {
				missing = append(missing, "dateOfBirth")
			}
			if f.Gender == "" {
				missing = append(missing, "gender")
			}
			if f.Occupation == "" {
				missing = append(missing, "occupation")
			}
			return missing
		},
	},
	{
		ID:       "purpose_of_visit",
		Title:    "Purpose of Visit",
		Required: []string{"purposeOfVisit"},
		Missing: func(f model.TreatmentForm) []string {
			if len(f.PurposeOfVisit) == 0 {
				return []string{"purposeOfVisit"}
			}
			return nil
		},
	},
	{
		ID:    "surgical_treatments",
		Title: "Surgical Treatments",
		Visible: func(f model.TreatmentForm) bool {
			return purposeChosen(f, "Cosmetic Surgery")
		},
	},
	{
		ID:    "non_surgical_treatments",
		Title: "Non-Surgical Treatments",
		Visible: func(f model.TreatmentForm) bool {
			return purposeChosen(f, "Non-Surgical Beauty Treatment")
		},
	},
	{
		ID:    "transgender_treatments",
		Title: "Transgender Treatments",
		Visible: func(f model.TreatmentForm) bool {
			return purposeChosen(f, "Gender-Affirming or Transgender Transformation")
		},
	},
	{
		ID:    "additional_info",
		Title: "Additional Information",
	},
}

// StepState is the evaluated view of one visible step.
type StepState struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Required []string `json:"required"`
	Missing  []string `json:"missing"`
	Complete bool     `json:"complete"`
}

// VisibleSteps evaluates the wizard against a form and returns the visible
// steps in order with their completion state.
func VisibleSteps(f model.TreatmentForm) []StepState {
	var out []StepState
	for _, s := range Steps {
		if s.Visible != nil && !s.Visible(f) {
			continue
		}
		st := StepState{ID: s.ID, Title: s.Title, Required: s.Required}
		if st.Required == nil {
			st.Required = []string{}
		}
		if s.Missing != nil {
			st.Missing = s.Missing(f)
		}
		if st.Missing == nil {
			st.Missing = []string{}
		}
		st.Complete = len(st.Missing) == 0
		out = append(out, st)
	}
	return out
}

// MissingFields collects every missing required field across the visible
// steps.  Submission is allowed only when this is empty.
func MissingFields(f model.TreatmentForm) []string {
	var missing []string
	for _, st := range VisibleSteps(f) {
		missing = append(missing, st.Missing...)
	}
	return missing
}

// MissingDocuments reports which of the required upload categories are not
// present in the given set.  This is the server-side half of the pre-submit
// checklist the client shows.
func MissingDocuments(uploaded []string) []string {
	var missing []string
	for _, cat := range model.RequiredDocumentCategories {
		found := false
		for _, u := range uploaded {
			if u == cat {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, cat)
		}
	}
	return missing
}
