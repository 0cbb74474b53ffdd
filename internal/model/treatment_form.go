package model

import "time"

// Treatment form lifecycle.  Draft and submitted are user-driven; the
// remaining transitions are performed by admins reviewing the form.
const (
	FormStatusDraft       = "draft"
	FormStatusSubmitted   = "submitted"
	FormStatusUnderReview = "under_review"
	FormStatusApproved    = "approved"
	FormStatusRejected    = "rejected"
)

// FormStatuses lists every valid form status in lifecycle order.
var FormStatuses = []string{
	FormStatusDraft,
	FormStatusSubmitted,
	FormStatusUnderReview,
	FormStatusApproved,
	FormStatusRejected,
}

// ValidFormStatus reports whether s is a known form status.
func ValidFormStatus(s string) bool {
	for _, v := range FormStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// TreatmentForm holds the per-account beauty treatment questionnaire.  At most
// one form exists per account (unique account_id).  The multi-select fields
// are stored as JSON arrays in the database; values are constrained to the
// option sets below.
type TreatmentForm struct {
	ID        uint64
	AccountID string

	// Personal info
	DateOfBirth string
	Gender      string
	Occupation  string

	// Purpose of visit
	PurposeOfVisit []string

	// Surgical treatments
	FacialSurgeries []string
	BodyContouring  []string
	BreastChest     []string
	ButtocksHips    []string

	// Non-surgical treatments
	FacialSkin    []string
	BodyShape     []string
	HairAntiAging []string

	// Transgender treatments
	TransgenderTreatments []string

	// Additional information
	PreviousProcedures        bool
	PreviousProceduresDetails string
	MedicalConditions         string
	PreferredMonth            string
	IncludeSightseeing        bool

	Status         string
	SubmittedAt    *time.Time
	LastModifiedAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Questionnaire option sets.  The strings are the exact labels presented to
// the client; anything outside these sets is rejected on save.
var (
	Genders = []string{"Female", "Male", "Transgender", "Prefer not to say"}

	Purposes = []string{
		"Cosmetic Surgery",
		"Non-Surgical Beauty Treatment",
		"Wellness & Detox Program",
		"Gender-Affirming or Transgender Transformation",
		"Rejuvenation / Anti-Aging Package",
	}

	FacialSurgeryOptions = []string{
		"Facelift",
		"Eyelid Surgery (Blepharoplasty)",
		"Brow Lift",
		"Rhinoplasty (Nose Reshaping)",
		"Chin or Jawline Contouring",
		"Neck Lift",
		"Ear Correction (Otoplasty)",
	}

	BodyContouringOptions = []string{
		"Liposuction",
		"Tummy Tuck (Abdominoplasty)",
		"Arm Lift",
		"Thigh Lift",
		"Body Sculpting / Fat Transfer",
	}

	BreastChestOptions = []string{
		"Breast Augmentation",
		"Breast Lift / Firming",
		"Breast Reduction",
		"Male Chest Sculpting / Gynecomastia Surgery",
	}

	ButtocksHipsOptions = []string{
		"Buttock Lift / Firming",
		"Brazilian Butt Lift (BBL)",
		"Fat Transfer to Hips",
	}

	FacialSkinOptions = []string{
		"Botox",
		"Dermal Fillers",
		"PRP (Platelet Rich Plasma) Therapy",
		"Thread Lift",
		"Laser Skin Rejuvenation",
		"Chemical Peel",
		"Acne / Scar Treatment",
		"Pigmentation / Whitening Treatment",
	}

	BodyShapeOptions = []string{
		"Cryolipolysis (Fat Freeze)",
		"Body Sculpting (Ultrasound / RF)",
		"Skin Tightening & Firming",
		"Stretch Mark Removal",
		"Cellulite Reduction",
	}

	HairAntiAgingOptions = []string{
		"Hair Transplant / Hair PRP",
		"Anti-Aging Injection / IV Therapy",
		"Mesotherapy",
		"Wellness Detox & Recovery Retreat",
	}

	TransgenderOptions = []string{
		"Facial Feminisation / Masculinisation Surgery",
		"Breast / Chest Enhancement",
		"Body Sculpting / Liposuction",
		"Voice or Adam's Apple Surgery",
		"Hairline / Hair Transplant Treatment",
		"Hormonal or Skin-Feminising Treatments",
	}
)

// InOptionSet reports whether every value appears in the given option set.
func InOptionSet(set []string, values []string) bool {
	for _, v := range values {
		found := false
		for _, o := range set {
			if o == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
