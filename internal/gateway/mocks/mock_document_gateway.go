package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"docportal/internal/gateway"
	"docportal/internal/model"
)

type MockDocumentGateway struct {
	mock.Mock
}

var _ gateway.DocumentGateway = (*MockDocumentGateway)(nil)

func (m *MockDocumentGateway) List(ctx context.Context, p gateway.ListParams) (*model.PageResponse[model.Document], error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PageResponse[model.Document]), args.Error(1)
}

func (m *MockDocumentGateway) Get(ctx context.Context, id int64) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentGateway) Create(ctx context.Context, req model.DocumentCreateRequest) (*model.Document, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentGateway) Update(ctx context.Context, id int64, req model.DocumentUpdateRequest) (*model.Document, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentGateway) UpdateStatus(ctx context.Context, id int64, status model.DocumentStatus) (*model.Document, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentGateway) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentGateway) UploadVersion(ctx context.Context, documentID int64, fileName string, r io.Reader) (*model.DocumentVersion, error) {
	args := m.Called(ctx, documentID, fileName, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentVersion), args.Error(1)
}

func (m *MockDocumentGateway) ListVersions(ctx context.Context, documentID int64) ([]model.DocumentVersion, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentVersion), args.Error(1)
}

func (m *MockDocumentGateway) DownloadVersion(ctx context.Context, versionID int64) (*gateway.Download, error) {
	args := m.Called(ctx, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Download), args.Error(1)
}
