package handler

import (
	"mime"

	"github.com/gofiber/fiber/v2"

	"docportal/internal/http/middleware"
	"docportal/internal/service"
)

// UploadVersion stores the multipart "file" field as the next version.
//
// @Summary Upload version
// @Tags versions
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "document id"
// @Param file formData file true "payload"
// @Success 201 {object} model.ApiResponse[model.DocumentVersion]
// @Failure 400 {object} model.ApiResponse[any]
// @Failure 404 {object} model.ApiResponse[any]
// @Security BearerAuth
// @Router /api/documents/{id}/versions [post]
func UploadVersion(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		v, err := svc.UploadVersion(c.UserContext(), id, middleware.CurrentUsername(c), service.FileUpload{
			Reader:      f,
			FileName:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Size:        fh.Size,
		})
		if err != nil {
			return serviceError(c, err)
		}
		return writeOK(c, fiber.StatusCreated, v, "version uploaded")
	}
}

// ListVersions returns the versions of a document, oldest first.
//
// @Summary List versions
// @Tags versions
// @Produce json
// @Param id path int true "document id"
// @Success 200 {object} model.ApiResponse[[]model.DocumentVersion]
// @Failure 404 {object} model.ApiResponse[any]
// @Security BearerAuth
// @Router /api/documents/{id}/versions [get]
func ListVersions(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c, "id")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		items, err := svc.ListVersions(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return writeOK(c, fiber.StatusOK, items, "")
	}
}

// DownloadFile streams the raw payload of a version as an attachment.
//
// @Summary Download version payload
// @Tags versions
// @Produce octet-stream
// @Param versionId path int true "version id"
// @Success 200 {file} binary
// @Failure 404 {object} model.ApiResponse[any]
// @Security BearerAuth
// @Router /api/files/{versionId} [get]
func DownloadFile(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c, "versionId")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		v, rc, err := svc.OpenVersion(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}

		contentType := v.MimeType
		if contentType == "" {
			contentType = fiber.MIMEOctetStream
		}
		c.Set(fiber.HeaderContentType, contentType)
		c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": v.FileName}))
		size := int(v.FileSize)
		if size <= 0 {
			size = -1
		}
		// fasthttp closes rc once the body is written.
		return c.Status(fiber.StatusOK).SendStream(rc, size)
	}
}
