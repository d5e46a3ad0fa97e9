package model

import (
	"encoding/json"
	"strings"
	"time"
)

// DocumentStatus is the lifecycle state of a document.
// Transitions are validated by the server, never by the client.
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "DRAFT"
	StatusPublished DocumentStatus = "PUBLISHED"
	StatusArchived  DocumentStatus = "ARCHIVED"
)

// Statuses lists every known status in display order.
var Statuses = []DocumentStatus{StatusDraft, StatusPublished, StatusArchived}

// Valid reports whether s is one of the known statuses.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// ParseStatus converts user input (any case) to a DocumentStatus.
func ParseStatus(v string) (DocumentStatus, bool) {
	s := DocumentStatus(strings.ToUpper(strings.TrimSpace(v)))
	return s, s.Valid()
}

// Document is the metadata record of a managed document.
// Binary content lives in its versions.
type Document struct {
	ID             int64          `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Tags           []string       `json:"tags"`
	OwnerUsername  string         `json:"ownerUsername"`
	TenantID       string         `json:"tenantId,omitempty"`
	Status         DocumentStatus `json:"status"`
	CurrentVersion *int           `json:"currentVersion,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`

	// OwnerID is resolved server-side and never serialized.
	OwnerID int64 `json:"-"`
}

// DocumentVersion is an immutable uploaded revision of a document.
// Version numbers are unique per document and only ever grow.
type DocumentVersion struct {
	ID            int64     `json:"id"`
	VersionNumber int       `json:"versionNumber"`
	FileName      string    `json:"fileName"`
	FileSize      int64     `json:"fileSize"`
	MimeType      string    `json:"mimeType"`
	UploadedBy    string    `json:"uploadedBy"`
	UploadedAt    time.Time `json:"uploadedAt"`

	DocumentID   int64  `json:"-"`
	FileKey      string `json:"-"`
	UploadedByID int64  `json:"-"`
}

// DocumentCreateRequest is the payload for creating a document.
// Status defaults to DRAFT when empty.
type DocumentCreateRequest struct {
	Title       string         `json:"title" validate:"required,notblank,max=255"`
	Description string         `json:"description,omitempty"`
	Tags        []string       `json:"tags"`
	TenantID    string         `json:"tenantId,omitempty" validate:"max=100"`
	Status      DocumentStatus `json:"status,omitempty" validate:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
}

// DocumentUpdateRequest is a partial update; nil fields are left untouched.
// An empty, non-nil Tags clears the tags.
type DocumentUpdateRequest struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,notblank,max=255"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	TenantID    *string  `json:"tenantId,omitempty" validate:"omitempty,max=100"`
}

// MarshalJSON omits tags only when nil, so an empty list is still sent.
func (r DocumentUpdateRequest) MarshalJSON() ([]byte, error) {
	type plain DocumentUpdateRequest
	if r.Tags == nil {
		return json.Marshal(plain(r))
	}
	return json.Marshal(struct {
		plain
		Tags []string `json:"tags"`
	}{plain(r), r.Tags})
}

// DocumentStatusRequest changes only the status of a document.
type DocumentStatusRequest struct {
	Status DocumentStatus `json:"status" validate:"required,oneof=DRAFT PUBLISHED ARCHIVED"`
}

// ParseTags splits comma-separated tag input, trimming blanks and keeping order.
func ParseTags(raw string) []string {
	tags := make([]string, 0)
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
