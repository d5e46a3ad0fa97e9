package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"docportal/internal/http/middleware"
	"docportal/internal/model"
	"docportal/internal/service"
)

// parseID reads a positive integer path parameter.
func parseID(c *fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// ListDocuments returns one page of documents.
//
// @Summary List documents
// @Tags documents
// @Produce json
// @Param page query int false "zero-based page" default(0)
// @Param size query int false "page size" default(10)
// @Param title query string false "case-insensitive title substring"
// @Param status query string false "DRAFT, PUBLISHED or ARCHIVED"
// @Param sortBy query string false "createdAt, updatedAt, title or status" default(createdAt)
// @Param sortDirection query string false "ASC or DESC" default(DESC)
// @Success 200 {object} model.ApiResponse[model.PageResponse[model.Document]]
// @Failure 400 {object} model.ApiResponse[any]
// @Security BearerAuth
// @Router /api/documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := queryInt(c, "page", 0)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_QUERY", "invalid page")
		}
		size, err := queryInt(c, "size", service.DefaultPageSize)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_QUERY", "invalid size")
		}

		res, err := svc.List(c.UserContext(), service.ListQuery{
			Page:          page,
			Size:          size,
			Title:         c.Query("title"),
			Status:        c.Query("status"),
			SortBy:        c.Query("sortBy"),
			SortDirection: c.Query("sortDirection"),
		})
		if err != nil {
			return serviceError(c, err)
		}
		return writeOK(c, fiber.StatusOK, res, "")
	}
}

// CreateDocument stores a new document owned by the caller.
//
// @Summary Create document
// @Tags documents
// @Accept json
// @Produce json
// @Param body body model.DocumentCreateRequest true "document"
// @Success 201 {object} model.ApiResponse[model.Document]
// @Failure 400 {object} model.ApiResponse[any]
// @Security BearerAuth
// @Router /api/documents [post]
func CreateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req model.DocumentCreateRequest
		if ok, err := validateBody(c, &req); !ok {
			return err
		}
		doc, err := svc.Create(c.UserContext(), middleware.CurrentUsername(c), req)
		if err != nil {
			return serviceError(c, err)
		}
		return writeOK(c, fiber.StatusCreated, doc, "document created")
	}
}

// GetDocument returns a document by ID.
//
// @Summary Get document
// @Tags documents
// @Produce json
// @Param id path int true "document id"
// @Success 200 {object} model.ApiResponse[model.Document]
// @Failure 404 {object} model.ApiResponse[any]
// @Security BearerAuth
// @Router /api/documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return writeOK(c, fiber.StatusOK, doc, "")
	}
}

// UpdateDocument applies a partial metadata update.
//
// @Summary Update document
// @Tags documents
// @Accept json
// @Produce json
// @Param id path int true "document id"
// @Param body body model.DocumentUpdateRequest true "fields to change"
// @Success 200 {object} model.ApiResponse[model.Document]
// @Failure 404 {object} model.ApiResponse[any]
// @Security BearerAuth
// @Router /api/documents/{id} [put]
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req model.DocumentUpdateRequest
		if ok, err := validateBody(c, &req); !ok {
			return err
		}
		doc, err := svc.Update(c.UserContext(), id, req)
		if err != nil {
			return serviceError(c, err)
		}
		return writeOK(c, fiber.StatusOK, doc, "document updated")
	}
}

// UpdateDocumentStatus changes the lifecycle status of a document.
//
// @Summary Change document status
// @Tags documents
// @Accept json
// @Produce json
// @Param id path int true "document id"
// @Param body body model.DocumentStatusRequest true "new status"
// @Success 200 {object} model.ApiResponse[model.Document]
// @Security BearerAuth
// @Router /api/documents/{id}/status [patch]
func UpdateDocumentStatus(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req model.DocumentStatusRequest
		if ok, err := validateBody(c, &req); !ok {
			return err
		}
		doc, err := svc.UpdateStatus(c.UserContext(), id, req.Status)
		if err != nil {
			return serviceError(c, err)
		}
		return writeOK(c, fiber.StatusOK, doc, "status updated")
	}
}

// DeleteDocument removes a document and every stored version. ADMIN only.
//
// @Summary Delete document
// @Tags documents
// @Param id path int true "document id"
// @Success 200 {object} model.ApiResponse[any]
// @Failure 403 {object} model.ApiResponse[any]
// @Failure 404 {object} model.ApiResponse[any]
// @Security BearerAuth
// @Router /api/documents/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return serviceError(c, err)
		}
		return writeOK[any](c, fiber.StatusOK, nil, "document deleted")
	}
}
