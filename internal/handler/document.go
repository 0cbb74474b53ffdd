package handler

import (
	"context"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/centilliongw/portal-api/internal/model"
	"github.com/centilliongw/portal-api/internal/repository"
)

// maxDocumentBytes caps the decoded upload size at 10 MiB.
const maxDocumentBytes = 10 << 20

// DocumentHandler owns the per-account document upload routes.
type DocumentHandler struct {
	Documents repository.DocumentStore
	Accounts  repository.AccountStore
}

func NewDocumentHandler(documents repository.DocumentStore, accounts repository.AccountStore) *DocumentHandler {
	return &DocumentHandler{Documents: documents, Accounts: accounts}
}

type uploadDocumentRequest struct {
	Name         string `json:"name"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mimeType"`
	Category     string `json:"category"`
	FileData     string `json:"fileData"`
}

// Upload stores a document in the caller's category slot, replacing whatever
// was there.  The file arrives base64 encoded in the JSON body.
func (h *DocumentHandler) Upload(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "not authorized to access this route")
	}

	var req uploadDocumentRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.OriginalName = strings.TrimSpace(req.OriginalName)
	if req.OriginalName == "" {
		req.OriginalName = req.Name
	}
	if req.Name == "" || req.MimeType == "" || req.Category == "" || req.FileData == "" {
		return fail(c, http.StatusBadRequest, "please provide all required fields")
	}
	if !model.ValidDocumentCategory(req.Category) {
		return fail(c, http.StatusBadRequest, "invalid document category")
	}

	// Reject payloads that are not valid base64 or exceed the size cap
	// before they reach storage.
	decoded, err := base64.StdEncoding.DecodeString(req.FileData)
	if err != nil {
		return fail(c, http.StatusBadRequest, "file data must be base64 encoded")
	}
	if len(decoded) == 0 {
		return fail(c, http.StatusBadRequest, "file data is empty")
	}
	if len(decoded) > maxDocumentBytes {
		return fail(c, http.StatusBadRequest, "file exceeds the maximum allowed size")
	}
	if req.Size <= 0 {
		req.Size = int64(len(decoded))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, err := h.Accounts.GetByID(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "server error")
	}

	d := model.Document{
		AccountID:    id,
		Name:         req.Name,
		OriginalName: req.OriginalName,
		Size:         req.Size,
		MimeType:     req.MimeType,
		Category:     req.Category,
		FileData:     req.FileData,
		UploadedAt:   time.Now().UTC(),
	}
	if err := h.Documents.Upsert(ctx, &d); err != nil {
		return fail(c, http.StatusInternalServerError, "could not store document")
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "document uploaded successfully",
		"data":    documentJSON(d, false),
	})
}

// List returns the caller's document metadata, newest upload first.
func (h *DocumentHandler) List(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "not authorized to access this route")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	docs, err := h.Documents.ListByAccount(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "server error")
	}

	out := make([]echo.Map, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentJSON(d, false))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": out})
}

// Get returns one of the caller's documents including the file data.
func (h *DocumentHandler) Get(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "not authorized to access this route")
	}
	docID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid document id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	d, err := h.Documents.Get(ctx, docID, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return fail(c, http.StatusNotFound, "document not found")
		}
		return fail(c, http.StatusInternalServerError, "server error")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": documentJSON(d, true)})
}

// Delete removes one of the caller's documents.
func (h *DocumentHandler) Delete(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "not authorized to access this route")
	}
	docID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid document id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Documents.Delete(ctx, docID, id); err != nil {
		if err == repository.ErrNotFound {
			return fail(c, http.StatusNotFound, "document not found")
		}
		return fail(c, http.StatusInternalServerError, "server error")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "document deleted"})
}
