package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"finsync/internal/port"
)

// MockTextExtractor is a mock implementation of port.TextExtractor.
type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) Extract(ctx context.Context, input port.ExtractInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

// MockDocumentTextReader is a mock implementation of port.DocumentTextReader.
type MockDocumentTextReader struct {
	mock.Mock
}

func (m *MockDocumentTextReader) ReadText(ctx context.Context, document []byte) (string, error) {
	args := m.Called(ctx, document)
	return args.String(0), args.Error(1)
}
