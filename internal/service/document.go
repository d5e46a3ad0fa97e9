package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"docportal/internal/model"
	"docportal/internal/repository"
	"docportal/internal/storage"
	"docportal/internal/validate"
)

var tracer = otel.Tracer("docportal/internal/service")

var (
	ErrNotFound        = errors.New("document not found")
	ErrVersionNotFound = errors.New("version not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrReaderNil       = errors.New("reader is nil")
	ErrFileRequired    = errors.New("file is required")
	ErrInvalidStatus   = errors.New("invalid document status")
	ErrInvalidQuery    = errors.New("invalid list query")
	// ErrVersionConflict is returned when two uploads race for the same version number.
	ErrVersionConflict = errors.New("concurrent version upload, retry")
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListQuery carries raw list parameters as received from a caller.
type ListQuery struct {
	Page          int
	Size          int
	Title         string
	Status        string
	SortBy        string
	SortDirection string
}

// DocumentService defines the use cases for documents and their versions.
type DocumentService interface {
	// Create stores a new document owned by username. Status defaults to DRAFT.
	Create(ctx context.Context, username string, req model.DocumentCreateRequest) (*model.Document, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id int64) (*model.Document, error)

	// List returns one page of documents filtered by title substring and status.
	List(ctx context.Context, q ListQuery) (*model.PageResponse[model.Document], error)

	// Update applies the non-nil fields of req.
	Update(ctx context.Context, id int64, req model.DocumentUpdateRequest) (*model.Document, error)

	UpdateStatus(ctx context.Context, id int64, status model.DocumentStatus) (*model.Document, error)

	// Delete removes every version payload from storage, then the document row.
	Delete(ctx context.Context, id int64) error

	// UploadVersion stores r as the next version of the document.
	// The payload is removed from storage again if the metadata cannot be saved.
	UploadVersion(ctx context.Context, documentID int64, username string, f FileUpload) (*model.DocumentVersion, error)

	// ListVersions returns the versions of a document, oldest first.
	ListVersions(ctx context.Context, documentID int64) ([]model.DocumentVersion, error)

	// OpenVersion returns the version metadata and a stream of its payload. Callers close the stream.
	OpenVersion(ctx context.Context, versionID int64) (*model.DocumentVersion, io.ReadCloser, error)
}

// FileUpload describes an uploaded payload.
type FileUpload struct {
	Reader      io.Reader
	FileName    string
	ContentType string
	Size        int64
}

type documentService struct {
	store    storage.Storage
	docs     repository.DocumentRepository
	versions repository.VersionRepository
	users    repository.UserRepository
	log      zerolog.Logger
	now      func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(
	store storage.Storage,
	docs repository.DocumentRepository,
	versions repository.VersionRepository,
	users repository.UserRepository,
	log zerolog.Logger,
) DocumentService {
	return &documentService{
		store:    store,
		docs:     docs,
		versions: versions,
		users:    users,
		log:      log.With().Str("component", "document_service").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// blankTitle reports a title that is empty once trimmed.
func blankTitle() error {
	return &validate.Error{Fields: map[string]string{"title": "must not be blank"}}
}

func (s *documentService) Create(ctx context.Context, username string, req model.DocumentCreateRequest) (*model.Document, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, blankTitle()
	}
	owner, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = model.StatusDraft
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	doc, err := s.docs.Create(ctx, &model.Document{
		Title:       title,
		Description: req.Description,
		Tags:        tags,
		OwnerID:     owner.ID,
		TenantID:    req.TenantID,
		Status:      status,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	s.log.Info().Int64("document_id", doc.ID).Str("status", string(doc.Status)).Msg("document_created")
	return doc, nil
}

func (s *documentService) Get(ctx context.Context, id int64) (*model.Document, error) {
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) List(ctx context.Context, q ListQuery) (*model.PageResponse[model.Document], error) {
	dq, err := buildDocumentQuery(q)
	if err != nil {
		return nil, err
	}
	res, err := s.docs.List(ctx, dq)
	if err != nil {
		return nil, err
	}
	page := model.NewPageResponse(res.Items, q.Page, dq.Limit, res.Total)
	return &page, nil
}

// buildDocumentQuery validates q and converts page coordinates into limit/offset.
func buildDocumentQuery(q ListQuery) (repository.DocumentQuery, error) {
	if q.Page < 0 {
		return repository.DocumentQuery{}, fmt.Errorf("%w: page must not be negative", ErrInvalidQuery)
	}
	size := q.Size
	if size == 0 {
		size = DefaultPageSize
	}
	if size < 1 || size > MaxPageSize {
		return repository.DocumentQuery{}, fmt.Errorf("%w: size must be between 1 and %d", ErrInvalidQuery, MaxPageSize)
	}

	dq := repository.DocumentQuery{
		Title:     strings.TrimSpace(q.Title),
		SortBy:    repository.SortCreatedAt,
		PageQuery: repository.PageQuery{Limit: size, Offset: q.Page * size},
	}
	if q.Status != "" {
		st, ok := model.ParseStatus(q.Status)
		if !ok {
			return repository.DocumentQuery{}, fmt.Errorf("%w: unknown status %q", ErrInvalidQuery, q.Status)
		}
		dq.Status = st
	}
	if q.SortBy != "" {
		switch f := repository.SortField(q.SortBy); f {
		case repository.SortCreatedAt, repository.SortUpdatedAt, repository.SortTitle, repository.SortStatus:
			dq.SortBy = f
		default:
			return repository.DocumentQuery{}, fmt.Errorf("%w: cannot sort by %q", ErrInvalidQuery, q.SortBy)
		}
	}
	switch strings.ToUpper(q.SortDirection) {
	case "", "DESC":
	case "ASC":
		dq.Ascending = true
	default:
		return repository.DocumentQuery{}, fmt.Errorf("%w: sort direction must be ASC or DESC", ErrInvalidQuery)
	}
	return dq, nil
}

func (s *documentService) Update(ctx context.Context, id int64, req model.DocumentUpdateRequest) (*model.Document, error) {
	var title string
	if req.Title != nil {
		if title = strings.TrimSpace(*req.Title); title == "" {
			return nil, blankTitle()
		}
	}
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		doc.Title = title
	}
	if req.Description != nil {
		doc.Description = *req.Description
	}
	if req.Tags != nil {
		doc.Tags = req.Tags
	}
	if req.TenantID != nil {
		doc.TenantID = *req.TenantID
	}

	updated, err := s.docs.Update(ctx, doc)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.log.Info().Int64("document_id", id).Msg("document_updated")
	return updated, nil
}

func (s *documentService) UpdateStatus(ctx context.Context, id int64, status model.DocumentStatus) (*model.Document, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	doc, err := s.docs.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.log.Info().Int64("document_id", id).Str("status", string(status)).Msg("document_status_updated")
	return doc, nil
}

func (s *documentService) Delete(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "DocumentService.Delete",
		trace.WithAttributes(attribute.Int64("document.id", id)))
	defer span.End()

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	versions, err := s.versions.ListByDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("list versions: %w", err)
	}
	// Payloads go first; a failure keeps the row so the keys are not lost.
	for _, v := range versions {
		if err := s.store.Delete(ctx, v.FileKey); err != nil {
			span.RecordError(err)
			return fmt.Errorf("delete storage: %w", err)
		}
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("document_id", id).Int("versions", len(versions)).Msg("document_deleted")
	return nil
}

func (s *documentService) UploadVersion(ctx context.Context, documentID int64, username string, f FileUpload) (*model.DocumentVersion, error) {
	ctx, span := tracer.Start(ctx, "DocumentService.UploadVersion",
		trace.WithAttributes(attribute.Int64("document.id", documentID), attribute.Int64("file.size", f.Size)))
	defer span.End()

	if f.Reader == nil {
		return nil, ErrReaderNil
	}
	if strings.TrimSpace(f.FileName) == "" {
		return nil, ErrFileRequired
	}
	exists, err := s.docs.Exists(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	uploader, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := storage.VersionKey(documentID, uuid.NewString()+filepath.Ext(f.FileName))

	obj, err := s.store.Put(ctx, key, f.Reader, storage.PutObjectOptions{
		Size:        f.Size,
		ContentType: contentType,
		Metadata:    map[string]string{"original-filename": f.FileName},
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	v, err := s.versions.Append(ctx, &model.DocumentVersion{
		DocumentID:   documentID,
		FileKey:      obj.Key,
		FileName:     f.FileName,
		FileSize:     obj.Size,
		MimeType:     contentType,
		UploadedByID: uploader.ID,
		UploadedAt:   s.now(),
	})
	if err != nil {
		span.RecordError(err)
		if delErr := s.store.Delete(ctx, obj.Key); delErr != nil {
			s.log.Error().Err(delErr).Str("key", obj.Key).Msg("rollback_delete_failed")
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	s.log.Info().
		Int64("document_id", documentID).
		Int("version", v.VersionNumber).
		Int64("size", v.FileSize).
		Msg("version_uploaded")
	return v, nil
}

func (s *documentService) ListVersions(ctx context.Context, documentID int64) ([]model.DocumentVersion, error) {
	exists, err := s.docs.Exists(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	return s.versions.ListByDocument(ctx, documentID)
}

func (s *documentService) OpenVersion(ctx context.Context, versionID int64) (*model.DocumentVersion, io.ReadCloser, error) {
	ctx, span := tracer.Start(ctx, "DocumentService.OpenVersion",
		trace.WithAttributes(attribute.Int64("version.id", versionID)))
	defer span.End()

	v, err := s.versions.FindByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrVersionNotFound
		}
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, v.FileKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, ErrVersionNotFound
		}
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	return v, rc, nil
}
