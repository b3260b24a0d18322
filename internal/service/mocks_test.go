package service

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockMediaStore struct {
	mock.Mock
}

func (m *MockMediaStore) Store(ctx context.Context, data []byte, suggestedName, mimeType string) (string, error) {
	args := m.Called(ctx, data, suggestedName, mimeType)
	return args.String(0), args.Error(1)
}

func (m *MockMediaStore) Delete(ctx context.Context, locator string) error {
	args := m.Called(ctx, locator)
	return args.Error(0)
}
