package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docportal/internal/model"
	"docportal/internal/repository"
)

type MockVersionRepository struct {
	mock.Mock
}

var _ repository.VersionRepository = (*MockVersionRepository)(nil)

func (m *MockVersionRepository) Append(ctx context.Context, v *model.DocumentVersion) (*model.DocumentVersion, error) {
	args := m.Called(ctx, v)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentVersion), args.Error(1)
}

func (m *MockVersionRepository) FindByID(ctx context.Context, id int64) (*model.DocumentVersion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentVersion), args.Error(1)
}

func (m *MockVersionRepository) ListByDocument(ctx context.Context, documentID int64) ([]model.DocumentVersion, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentVersion), args.Error(1)
}
