package testutil

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/mock"
)

// Assert the expectations of all mocks.
func VerifyAllMocks(t *testing.T, mocks ...any) {
	t.Helper()

	for _, m := range mocks {
		if mockObj, ok := m.(interface{ AssertExpectations(mock.TestingT) bool }); ok {
			mockObj.AssertExpectations(t)
		}
	}
}

// MockObjectStore is a bucket mock. The uploaded bodies are kept by key.
type MockObjectStore struct {
	mock.Mock
	Uploaded map[string][]byte
}

func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{Uploaded: map[string][]byte{}}
}

func (m *MockObjectStore) PutObject(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.Uploaded[key] = data

	args := m.Called(ctx, bucket, key, contentType)
	return args.Error(0)
}

func (m *MockObjectStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	args := m.Called(ctx, bucket, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}
