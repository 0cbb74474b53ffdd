package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/centilliongw/portal-api/internal/model"
	"github.com/centilliongw/portal-api/internal/repository"
	"github.com/centilliongw/portal-api/internal/wizard"
)

// FormHandler owns the treatment questionnaire routes.  Every route operates
// on the caller's own form; the admin review endpoints live in AdminHandler.
type FormHandler struct {
	Forms     repository.FormStore
	Accounts  repository.AccountStore
	Documents repository.DocumentStore
}

func NewFormHandler(forms repository.FormStore, accounts repository.AccountStore,
	documents repository.DocumentStore) *FormHandler {
	return &FormHandler{Forms: forms, Accounts: accounts, Documents: documents}
}

// saveFormRequest is a partial update: nil fields are left untouched so the
// client can save one wizard page at a time.
type saveFormRequest struct {
	DateOfBirth               *string   `json:"dateOfBirth"`
	Gender                    *string   `json:"gender"`
	Occupation                *string   `json:"occupation"`
	PurposeOfVisit            *[]string `json:"purposeOfVisit"`
	FacialSurgeries           *[]string `json:"facialSurgeries"`
	BodyContouring            *[]string `json:"bodyContouring"`
	BreastChest               *[]string `json:"breastChest"`
	ButtocksHips              *[]string `json:"buttocksHips"`
	FacialSkin                *[]string `json:"facialSkin"`
	BodyShape                 *[]string `json:"bodyShape"`
	HairAntiAging             *[]string `json:"hairAntiAging"`
	TransgenderTreatments     *[]string `json:"transgenderTreatments"`
	PreviousProcedures        *bool     `json:"previousProcedures"`
	PreviousProceduresDetails *string   `json:"previousProceduresDetails"`
	MedicalConditions         *string   `json:"medicalConditions"`
	PreferredMonth            *string   `json:"preferredMonth"`
	IncludeSightseeing        *bool     `json:"includeSightseeing"`
}

// applySave merges the provided fields onto f and reports the first
// validation problem, if any.  Multi-select values outside their option set
// are rejected rather than silently dropped.
func applySave(req *saveFormRequest, f *model.TreatmentForm) string {
	if req.DateOfBirth != nil {
		f.DateOfBirth = *req.DateOfBirth
	}
	if req.Gender != nil {
		if *req.Gender != "" && !model.InOptionSet(model.Genders, []string{*req.Gender}) {
			return "invalid value for gender"
		}
		f.Gender = *req.Gender
	}
	if req.Occupation != nil {
		f.Occupation = *req.Occupation
	}

	lists := []struct {
		src  *[]string
		dst  *[]string
		set  []string
		name string
	}{
		{req.PurposeOfVisit, &f.PurposeOfVisit, model.Purposes, "purposeOfVisit"},
		{req.FacialSurgeries, &f.FacialSurgeries, model.FacialSurgeryOptions, "facialSurgeries"},
		{req.BodyContouring, &f.BodyContouring, model.BodyContouringOptions, "bodyContouring"},
		{req.BreastChest, &f.BreastChest, model.BreastChestOptions, "breastChest"},
		{req.ButtocksHips, &f.ButtocksHips, model.ButtocksHipsOptions, "buttocksHips"},
		{req.FacialSkin, &f.FacialSkin, model.FacialSkinOptions, "facialSkin"},
		{req.BodyShape, &f.BodyShape, model.BodyShapeOptions, "bodyShape"},
		{req.HairAntiAging, &f.HairAntiAging, model.HairAntiAgingOptions, "hairAntiAging"},
		{req.TransgenderTreatments, &f.TransgenderTreatments, model.TransgenderOptions, "transgenderTreatments"},
	}
	for _, l := range lists {
		if l.src == nil {
			continue
		}
		if !model.InOptionSet(l.set, *l.src) {
			return "invalid value for " + l.name
		}
		*l.dst = *l.src
	}

	if req.PreviousProcedures != nil {
		f.PreviousProcedures = *req.PreviousProcedures
	}
	if req.PreviousProceduresDetails != nil {
		f.PreviousProceduresDetails = *req.PreviousProceduresDetails
	}
	if req.MedicalConditions != nil {
		f.MedicalConditions = *req.MedicalConditions
	}
	if req.PreferredMonth != nil {
		f.PreferredMonth = *req.PreferredMonth
	}
	if req.IncludeSightseeing != nil {
		f.IncludeSightseeing = *req.IncludeSightseeing
	}
	return ""
}

// Get returns the caller's form, or 404 if none was saved yet.
func (h *FormHandler) Get(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "not authorized to access this route")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	f, err := h.Forms.GetByAccount(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return fail(c, http.StatusNotFound, "treatment form not found")
		}
		return fail(c, http.StatusInternalServerError, "server error")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": formJSON(f)})
}

// Save merges the posted fields into the caller's form, creating it on first
// save.  Saving never changes a reviewed status back to draft; it only
// touches the content and last-modified time.
func (h *FormHandler) Save(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "not authorized to access this route")
	}

	var req saveFormRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	f, err := h.Forms.GetByAccount(ctx, id)
	creating := false
	if err != nil {
		if err != repository.ErrNotFound {
			return fail(c, http.StatusInternalServerError, "server error")
		}
		creating = true
		f = model.TreatmentForm{AccountID: id, Status: model.FormStatusDraft}
	}

	if msg := applySave(&req, &f); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	f.LastModifiedAt = time.Now().UTC()

	if creating {
		err = h.Forms.Create(ctx, &f)
	} else {
		err = h.Forms.Update(ctx, &f)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "could not save treatment form")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "treatment form saved",
		"data":    formJSON(f),
	})
}

// Submit finalizes the caller's form.  Submission requires every required
// field of the visible wizard steps; the document checklist is a client-side
// concern, so outstanding uploads are reported back but never block here.
func (h *FormHandler) Submit(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "not authorized to access this route")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	f, err := h.Forms.GetByAccount(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return fail(c, http.StatusNotFound, "treatment form not found. please save your form first")
		}
		return fail(c, http.StatusInternalServerError, "server error")
	}

	if missing := wizard.MissingFields(f); len(missing) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"error":   "please complete all required fields before submitting",
			"missing": missing,
		})
	}

	uploaded, err := h.Documents.Categories(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}
	missingDocs := wizard.MissingDocuments(uploaded)
	if missingDocs == nil {
		missingDocs = []string{}
	}

	now := time.Now().UTC()
	if err := h.Forms.SetStatus(ctx, f.ID, model.FormStatusSubmitted, &now); err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}

	f.Status = model.FormStatusSubmitted
	f.SubmittedAt = &now
	f.LastModifiedAt = now

	return c.JSON(http.StatusOK, echo.Map{
		"success":          true,
		"message":          "treatment form submitted successfully",
		"missingDocuments": missingDocs,
		"data":             formJSON(f),
	})
}

// Delete removes the caller's form.  The derived account status reverts to
// draft since no form row remains.
func (h *FormHandler) Delete(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "not authorized to access this route")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Forms.Delete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return fail(c, http.StatusNotFound, "treatment form not found")
		}
		return fail(c, http.StatusInternalServerError, "server error")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "treatment form deleted"})
}

// Steps evaluates the wizard for the caller: visible steps, missing fields
// and the document checklist.  Works against a blank form when none exists.
func (h *FormHandler) Steps(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "not authorized to access this route")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	f, err := h.Forms.GetByAccount(ctx, id)
	if err != nil {
		if err != repository.ErrNotFound {
			return fail(c, http.StatusInternalServerError, "server error")
		}
		f = model.TreatmentForm{AccountID: id, Status: model.FormStatusDraft}
	}

	uploaded, err := h.Documents.Categories(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}

	steps := wizard.VisibleSteps(f)
	missingDocs := wizard.MissingDocuments(uploaded)
	if missingDocs == nil {
		missingDocs = []string{}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"steps":             steps,
			"missingDocuments":  missingDocs,
			"requiredDocuments": model.RequiredDocumentCategories,
			"status":            f.Status,
		},
	})
}

// Stats reports form counts per status.  Admin only.
func (h *FormHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	byStatus, total, err := h.Forms.StatusCounts(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"total": total, "byStatus": byStatus},
	})
}
