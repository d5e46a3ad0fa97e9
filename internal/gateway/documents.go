package gateway

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"docportal/internal/model"
	"docportal/internal/validate"
)

const (
	DefaultSortBy        = "createdAt"
	DefaultSortDirection = "DESC"
)

// ListParams selects one page of documents. Empty filters are not sent.
type ListParams struct {
	Page          int
	Size          int
	Title         string
	Status        model.DocumentStatus
	SortBy        string
	SortDirection string
}

// Query encodes the parameters. Page, size and sort are always present.
func (p ListParams) Query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("size", strconv.Itoa(p.Size))

	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = DefaultSortBy
	}
	dir := strings.ToUpper(p.SortDirection)
	if dir == "" {
		dir = DefaultSortDirection
	}
	q.Set("sortBy", sortBy)
	q.Set("sortDirection", dir)

	if t := strings.TrimSpace(p.Title); t != "" {
		q.Set("title", t)
	}
	if p.Status != "" {
		q.Set("status", string(p.Status))
	}
	return q
}

// Download is an open version payload. The caller closes Body.
type Download struct {
	Body        io.ReadCloser
	ContentType string
	FileName    string
	Size        int64
}

// DocumentGateway is the typed view of the document endpoints.
type DocumentGateway interface {
	List(ctx context.Context, p ListParams) (*model.PageResponse[model.Document], error)
	Get(ctx context.Context, id int64) (*model.Document, error)
	Create(ctx context.Context, req model.DocumentCreateRequest) (*model.Document, error)
	Update(ctx context.Context, id int64, req model.DocumentUpdateRequest) (*model.Document, error)
	UpdateStatus(ctx context.Context, id int64, status model.DocumentStatus) (*model.Document, error)
	Delete(ctx context.Context, id int64) error
	UploadVersion(ctx context.Context, documentID int64, fileName string, r io.Reader) (*model.DocumentVersion, error)
	ListVersions(ctx context.Context, documentID int64) ([]model.DocumentVersion, error)
	DownloadVersion(ctx context.Context, versionID int64) (*Download, error)
}

var _ DocumentGateway = (*Client)(nil)

func documentPath(id int64) string {
	return "/documents/" + strconv.FormatInt(id, 10)
}

func (c *Client) List(ctx context.Context, p ListParams) (*model.PageResponse[model.Document], error) {
	if p.Page < 0 || p.Size < 1 {
		return nil, &validate.Error{Fields: map[string]string{"page": "page must be >= 0 and size >= 1"}}
	}
	if p.Status != "" && !p.Status.Valid() {
		return nil, &validate.Error{Fields: map[string]string{"status": "must be one of DRAFT PUBLISHED ARCHIVED"}}
	}
	page, err := call[model.PageResponse[model.Document]](ctx, c, http.MethodGet, "/documents", p.Query(), nil)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return &page, nil
}

func (c *Client) Get(ctx context.Context, id int64) (*model.Document, error) {
	doc, err := call[model.Document](ctx, c, http.MethodGet, documentPath(id), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get document %d: %w", id, err)
	}
	return &doc, nil
}

func (c *Client) Create(ctx context.Context, req model.DocumentCreateRequest) (*model.Document, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}
	doc, err := call[model.Document](ctx, c, http.MethodPost, "/documents", nil, req)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return &doc, nil
}

func (c *Client) Update(ctx context.Context, id int64, req model.DocumentUpdateRequest) (*model.Document, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	doc, err := call[model.Document](ctx, c, http.MethodPut, documentPath(id), nil, req)
	if err != nil {
		return nil, fmt.Errorf("update document %d: %w", id, err)
	}
	return &doc, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id int64, status model.DocumentStatus) (*model.Document, error) {
	req := model.DocumentStatusRequest{Status: status}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	doc, err := call[model.Document](ctx, c, http.MethodPatch, documentPath(id)+"/status", nil, req)
	if err != nil {
		return nil, fmt.Errorf("update status of document %d: %w", id, err)
	}
	return &doc, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	if _, err := call[any](ctx, c, http.MethodDelete, documentPath(id), nil, nil); err != nil {
		return fmt.Errorf("delete document %d: %w", id, err)
	}
	return nil
}

// UploadVersion streams r as the multipart field "file".
func (c *Client) UploadVersion(ctx context.Context, documentID int64, fileName string, r io.Reader) (*model.DocumentVersion, error) {
	fileName = filepath.Base(strings.TrimSpace(fileName))
	if r == nil || fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		return nil, &validate.Error{Fields: map[string]string{"file": "is required"}}
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeFilePart(mw, fileName, r))
	}()

	resp, err := c.doRequest(ctx, http.MethodPost, documentPath(documentID)+"/versions", nil, pr, mw.FormDataContentType())
	// Unblocks the writer when the request ended before draining the pipe.
	pr.Close()
	if err != nil {
		return nil, fmt.Errorf("upload version of document %d: %w", documentID, err)
	}
	v, err := decode[model.DocumentVersion](resp)
	if err != nil {
		return nil, fmt.Errorf("upload version of document %d: %w", documentID, err)
	}
	return &v, nil
}

func writeFilePart(mw *multipart.Writer, fileName string, r io.Reader) error {
	ct := mime.TypeByExtension(filepath.Ext(fileName))
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     "file",
		"filename": fileName,
	}))
	h.Set("Content-Type", ct)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return err
	}
	return mw.Close()
}

func (c *Client) ListVersions(ctx context.Context, documentID int64) ([]model.DocumentVersion, error) {
	items, err := call[[]model.DocumentVersion](ctx, c, http.MethodGet, documentPath(documentID)+"/versions", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list versions of document %d: %w", documentID, err)
	}
	if items == nil {
		items = []model.DocumentVersion{}
	}
	return items, nil
}

// DownloadVersion opens the raw payload of a version.
func (c *Client) DownloadVersion(ctx context.Context, versionID int64) (*Download, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/files/"+strconv.FormatInt(versionID, 10), nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("download version %d: %w", versionID, err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, fmt.Errorf("download version %d: %w", versionID, responseError(resp))
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &Download{
		Body:        resp.Body,
		ContentType: ct,
		FileName:    attachmentName(resp.Header.Get("Content-Disposition"), versionID),
		Size:        resp.ContentLength,
	}, nil
}

// attachmentName extracts a safe base filename from a Content-Disposition header.
func attachmentName(header string, versionID int64) string {
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := filepath.Base(params["filename"]); name != "" && name != "." && name != "/" {
			return name
		}
	}
	return "version-" + strconv.FormatInt(versionID, 10)
}
