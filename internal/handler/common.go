package handler // handler defines http handlers

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/centilliongw/portal-api/internal/model"
	"github.com/centilliongw/portal-api/internal/repository"
)

// dbTimeout bounds every datastore call made from a handler.
const dbTimeout = 5 * time.Second

// accountID extracts the authenticated account's ID placed in the context by
// the JWTAuth middleware.
func accountID(c echo.Context) (string, error) {
	if id, ok := c.Get("account_id").(string); ok && id != "" {
		return id, nil
	}
	return "", errors.New("invalid account_id in context")
}

// fail writes the error envelope every failure response uses.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "error": msg})
}

// userJSON shapes an account for client consumption.  The password hash and
// verification token never leave the server; beautyFormStatus and
// beautyFormSubmitted are derived from the treatment form at read time.
func userJSON(v repository.AccountView) echo.Map {
	return echo.Map{
		"id":                  v.ID,
		"fullName":            v.FullName,
		"email":               v.Email,
		"age":                 v.Age,
		"phone":               v.Phone,
		"country":             v.Country,
		"isVerified":          v.IsVerified,
		"isFirstLogin":        v.IsFirstLogin,
		"passwordSet":         v.PasswordSet,
		"profileCompleted":    v.ProfileCompleted,
		"beautyFormSubmitted": v.FormSubmitted,
		"beautyFormStatus":    v.FormStatus,
		"role":                v.Role,
		"createdAt":           v.CreatedAt,
	}
}

// formJSON shapes a treatment form for client consumption.
func formJSON(f model.TreatmentForm) echo.Map {
	return echo.Map{
		"id":                        f.ID,
		"userId":                    f.AccountID,
		"dateOfBirth":               f.DateOfBirth,
		"gender":                    f.Gender,
		"occupation":                f.Occupation,
		"purposeOfVisit":            f.PurposeOfVisit,
		"facialSurgeries":           f.FacialSurgeries,
		"bodyContouring":            f.BodyContouring,
		"breastChest":               f.BreastChest,
		"buttocksHips":              f.ButtocksHips,
		"facialSkin":                f.FacialSkin,
		"bodyShape":                 f.BodyShape,
		"hairAntiAging":             f.HairAntiAging,
		"transgenderTreatments":     f.TransgenderTreatments,
		"previousProcedures":        f.PreviousProcedures,
		"previousProceduresDetails": f.PreviousProceduresDetails,
		"medicalConditions":         f.MedicalConditions,
		"preferredMonth":            f.PreferredMonth,
		"includeSightseeing":        f.IncludeSightseeing,
		"status":                    f.Status,
		"submittedAt":               f.SubmittedAt,
		"lastModifiedAt":            f.LastModifiedAt,
		"createdAt":                 f.CreatedAt,
		"updatedAt":                 f.UpdatedAt,
	}
}

// documentJSON shapes a document's metadata; file data is attached only by
// the single-document endpoints.
func documentJSON(d model.Document, withData bool) echo.Map {
	out := echo.Map{
		"id":           d.ID,
		"name":         d.Name,
		"originalName": d.OriginalName,
		"size":         d.Size,
		"mimeType":     d.MimeType,
		"category":     d.Category,
		"uploadedAt":   d.UploadedAt,
	}
	if withData {
		out["fileData"] = d.FileData
	}
	return out
}

// paginationJSON is the pagination block attached to admin listings.
func paginationJSON(page, limit, total int) echo.Map {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return echo.Map{"page": page, "limit": limit, "total": total, "pages": pages}
}
