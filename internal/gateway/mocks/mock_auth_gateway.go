package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docportal/internal/gateway"
	"docportal/internal/model"
)

type MockAuthGateway struct {
	mock.Mock
}

var _ gateway.AuthGateway = (*MockAuthGateway)(nil)

func (m *MockAuthGateway) Login(ctx context.Context, req model.LoginRequest) (*model.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockAuthGateway) Register(ctx context.Context, req model.RegisterRequest) (*model.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockAuthGateway) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuthGateway) EmailAvailable(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}
