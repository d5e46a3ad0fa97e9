package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"docportal/internal/model"
	"docportal/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

var _ service.DocumentService = (*MockDocumentService)(nil)

func (m *MockDocumentService) Create(ctx context.Context, username string, req model.DocumentCreateRequest) (*model.Document, error) {
	args := m.Called(ctx, username, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, id int64) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, q service.ListQuery) (*model.PageResponse[model.Document], error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PageResponse[model.Document]), args.Error(1)
}

func (m *MockDocumentService) Update(ctx context.Context, id int64, req model.DocumentUpdateRequest) (*model.Document, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) UpdateStatus(ctx context.Context, id int64, status model.DocumentStatus) (*model.Document, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentService) UploadVersion(ctx context.Context, documentID int64, username string, f service.FileUpload) (*model.DocumentVersion, error) {
	args := m.Called(ctx, documentID, username, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentVersion), args.Error(1)
}

func (m *MockDocumentService) ListVersions(ctx context.Context, documentID int64) ([]model.DocumentVersion, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentVersion), args.Error(1)
}

func (m *MockDocumentService) OpenVersion(ctx context.Context, versionID int64) (*model.DocumentVersion, io.ReadCloser, error) {
	args := m.Called(ctx, versionID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.DocumentVersion), args.Get(1).(io.ReadCloser), args.Error(2)
}
