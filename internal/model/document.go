package model

import "time"

// Fixed upload categories.  Each account holds at most one document per
// category; uploading into an occupied category replaces the stored file.
const (
	CategoryConsentForm    = "consent_form"
	CategoryMedicalHistory = "medical_history"
	CategoryIDProof        = "id_proof"
	CategoryPassportCopy   = "passport_copy"
)

// DocumentCategories lists every accepted category.
var DocumentCategories = []string{
	CategoryConsentForm,
	CategoryMedicalHistory,
	CategoryIDProof,
	CategoryPassportCopy,
}

// RequiredDocumentCategories are the categories an account must have uploaded
// before a treatment form can be submitted, and the set admin completeness
// stats are computed against.
var RequiredDocumentCategories = []string{
	CategoryConsentForm,
	CategoryMedicalHistory,
	CategoryIDProof,
}

// ValidDocumentCategory reports whether s is an accepted upload category.
func ValidDocumentCategory(s string) bool {
	for _, c := range DocumentCategories {
		if c == s {
			return true
		}
	}
	return false
}

// Document is an uploaded file attached to an account.  The file content is
// stored inline as base64 text in documents.file_data; list endpoints omit it.
type Document struct {
	ID           uint64
	AccountID    string
	Name         string
	OriginalName string
	Size         int64
	MimeType     string
	Category     string
	FileData     string
	UploadedAt   time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
