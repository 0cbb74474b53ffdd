package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/centilliongw/portal-api/internal/model"
	"github.com/centilliongw/portal-api/internal/repository"
)

// AdminHandler owns the /api/admin routes.  All of them sit behind JWTAuth
// plus RequireAdmin, so handlers can assume the caller is a live admin.
type AdminHandler struct {
	Accounts  repository.AccountStore
	Forms     repository.FormStore
	Documents repository.DocumentStore
}

func NewAdminHandler(accounts repository.AccountStore, forms repository.FormStore,
	documents repository.DocumentStore) *AdminHandler {
	return &AdminHandler{Accounts: accounts, Forms: forms, Documents: documents}
}

// pageParams reads page/limit query parameters with the usual clamps.
func pageParams(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// DashboardStats aggregates account and form counters for the admin
// dashboard.  "Recent" covers the last 30 days.
func (h *AdminHandler) DashboardStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	since := time.Now().AddDate(0, 0, -30)

	ua, err := h.Accounts.Stats(ctx, since)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}
	fs, err := h.Forms.Stats(ctx, since)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"users": echo.Map{
				"total":               ua.Total,
				"verified":            ua.Verified,
				"withForms":           ua.WithForms,
				"recentRegistrations": ua.Recent,
			},
			"forms": echo.Map{
				"total":       fs.Total,
				"submitted":   fs.Submitted,
				"underReview": fs.UnderReview,
				"approved":    fs.Approved,
				"rejected":    fs.Rejected,
				"recent":      fs.Recent,
			},
		},
	})
}

// ListUsers pages accounts with optional verified/hasForm/search filters.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	page, limit := pageParams(c)
	filter := repository.AccountFilter{
		Page:   page,
		Limit:  limit,
		Search: strings.TrimSpace(c.QueryParam("search")),
	}
	if v := c.QueryParam("verified"); v != "" {
		b := v == "true"
		filter.Verified = &b
	}
	if v := c.QueryParam("hasForm"); v != "" {
		b := v == "true"
		filter.HasForm = &b
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	views, total, err := h.Accounts.List(ctx, filter)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}

	users := make([]echo.Map, 0, len(views))
	for _, v := range views {
		users = append(users, userJSON(v))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"data":       users,
		"pagination": paginationJSON(page, limit, total),
	})
}

// GetUser returns one account together with its treatment form, if any.
func (h *AdminHandler) GetUser(c echo.Context) error {
	userID := c.Param("userId")

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	v, err := h.Accounts.View(ctx, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "server error")
	}

	var form interface{}
	if f, err := h.Forms.GetByAccount(ctx, userID); err == nil {
		form = formJSON(f)
	} else if err != repository.ErrNotFound {
		return fail(c, http.StatusInternalServerError, "server error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"user": userJSON(v), "treatmentForm": form},
	})
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateUserRole promotes or demotes an account.  The change takes effect on
// the target's next request through RequireAdmin regardless of token age.
func (h *AdminHandler) UpdateUserRole(c echo.Context) error {
	userID := c.Param("userId")

	var req updateRoleRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if !model.ValidRole(req.Role) {
		return fail(c, http.StatusBadRequest, "role must be either user or admin")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Accounts.UpdateRole(ctx, userID, req.Role); err != nil {
		if err == repository.ErrNotFound {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "server error")
	}

	v, err := h.Accounts.View(ctx, userID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": userJSON(v)})
}

// formWithOwnerJSON extends the form payload with contact details of the
// owning account for the review table.
func formWithOwnerJSON(f repository.FormWithOwner) echo.Map {
	out := formJSON(f.TreatmentForm)
	out["user"] = echo.Map{
		"id":       f.AccountID,
		"fullName": f.OwnerName,
		"email":    f.OwnerEmail,
		"phone":    f.OwnerPhone,
		"country":  f.OwnerCountry,
	}
	return out
}

// ListForms pages treatment forms with optional status/search filters.
func (h *AdminHandler) ListForms(c echo.Context) error {
	page, limit := pageParams(c)
	status := c.QueryParam("status")
	if status != "" && !model.ValidFormStatus(status) {
		return fail(c, http.StatusBadRequest, "invalid status filter")
	}
	filter := repository.FormFilter{
		Page:   page,
		Limit:  limit,
		Status: status,
		Search: strings.TrimSpace(c.QueryParam("search")),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	forms, total, err := h.Forms.List(ctx, filter)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}

	out := make([]echo.Map, 0, len(forms))
	for _, f := range forms {
		out = append(out, formWithOwnerJSON(f))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"data":       out,
		"pagination": paginationJSON(page, limit, total),
	})
}

type updateFormStatusRequest struct {
	Status string `json:"status"`
}

// UpdateFormStatus moves a form through the review lifecycle.  Only the
// review outcomes are assignable here; draft and submitted are user-driven.
func (h *AdminHandler) UpdateFormStatus(c echo.Context) error {
	formID, err := strconv.ParseUint(c.Param("formId"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid form id")
	}

	var req updateFormStatusRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	switch req.Status {
	case model.FormStatusUnderReview, model.FormStatusApproved, model.FormStatusRejected:
	default:
		return fail(c, http.StatusBadRequest, "status must be under_review, approved or rejected")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	f, err := h.Forms.GetByID(ctx, formID)
	if err != nil {
		if err == repository.ErrNotFound {
			return fail(c, http.StatusNotFound, "treatment form not found")
		}
		return fail(c, http.StatusInternalServerError, "server error")
	}

	if err := h.Forms.SetStatus(ctx, f.ID, req.Status, nil); err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}
	f.Status = req.Status
	f.LastModifiedAt = time.Now().UTC()

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "form status updated",
		"data":    formJSON(f),
	})
}

// ListDocuments pages accounts with uploads, each with its document metadata,
// plus completeness stats over the whole population.
func (h *AdminHandler) ListDocuments(c echo.Context) error {
	page, limit := pageParams(c)
	search := strings.TrimSpace(c.QueryParam("search"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	groups, total, stats, err := h.Documents.ListGrouped(ctx, search, page, limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}

	out := make([]echo.Map, 0, len(groups))
	for _, g := range groups {
		docs := make([]echo.Map, 0, len(g.Documents))
		for _, d := range g.Documents {
			docs = append(docs, documentJSON(d, false))
		}
		out = append(out, echo.Map{
			"user": echo.Map{
				"id":       g.AccountID,
				"fullName": g.OwnerName,
				"email":    g.OwnerEmail,
				"phone":    g.OwnerPhone,
				"country":  g.OwnerCountry,
			},
			"documents": docs,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    out,
		"stats": echo.Map{
			"complete": stats.Complete,
			"partial":  stats.Partial,
			"none":     stats.None,
		},
		"pagination": paginationJSON(page, limit, total),
	})
}

// ListUserDocuments returns one account's document metadata.
func (h *AdminHandler) ListUserDocuments(c echo.Context) error {
	userID := c.Param("userId")

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, err := h.Accounts.GetByID(ctx, userID); err != nil {
		if err == repository.ErrNotFound {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "server error")
	}

	docs, err := h.Documents.ListByAccount(ctx, userID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}
	out := make([]echo.Map, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentJSON(d, false))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": out})
}

// GetUserDocument returns one document of one account including file data.
func (h *AdminHandler) GetUserDocument(c echo.Context) error {
	userID := c.Param("userId")
	docID, err := strconv.ParseUint(c.Param("documentId"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid document id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	d, err := h.Documents.Get(ctx, docID, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return fail(c, http.StatusNotFound, "document not found")
		}
		return fail(c, http.StatusInternalServerError, "server error")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": documentJSON(d, true)})
}
