package repository

import (
	"context"

	"docportal/internal/model"
)

// DocumentRepository defines data access for documents using SQL queries only.
// Persistence only; business rules live in the service layer.
type DocumentRepository interface {
	// Create inserts a new document and returns it with server-populated fields (ID, timestamps, owner name).
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID, or ErrNotFound.
	FindByID(ctx context.Context, id int64) (*model.Document, error)

	// List returns one page of documents matching the query, plus the total match count.
	List(ctx context.Context, q DocumentQuery) (*PageResult[model.Document], error)

	// Update overwrites title, description, tags and tenant of an existing document.
	Update(ctx context.Context, doc *model.Document) (*model.Document, error)

	// UpdateStatus sets the status of a document.
	UpdateStatus(ctx context.Context, id int64, status model.DocumentStatus) (*model.Document, error)

	// Delete removes a document by ID; its versions cascade. Missing rows are not an error.
	Delete(ctx context.Context, id int64) error

	// Exists reports whether a document with the ID exists.
	Exists(ctx context.Context, id int64) (bool, error)
}

// VersionRepository persists the append-only version history of documents.
type VersionRepository interface {
	// Append stores v as the next version of its document; VersionNumber is assigned atomically.
	Append(ctx context.Context, v *model.DocumentVersion) (*model.DocumentVersion, error)

	// FindByID returns a version by its ID, or ErrNotFound.
	FindByID(ctx context.Context, id int64) (*model.DocumentVersion, error)

	// ListByDocument returns the versions of a document ordered by version number ascending.
	ListByDocument(ctx context.Context, documentID int64) ([]model.DocumentVersion, error)
}

// SortField is a whitelisted sortable column.
type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
	SortTitle     SortField = "title"
	SortStatus    SortField = "status"
)

// DocumentQuery holds filter, sort and limit/offset pagination parameters.
type DocumentQuery struct {
	// Title matches as a case-insensitive substring when non-empty.
	Title string
	// Status matches exactly when non-empty.
	Status    model.DocumentStatus
	SortBy    SortField
	Ascending bool
	PageQuery
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int64
}
