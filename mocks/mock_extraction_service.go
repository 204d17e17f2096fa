package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"finsync/internal/domain"
	"finsync/internal/service"
)

// MockExtractionService is a mock implementation of service.ExtractionService.
type MockExtractionService struct {
	mock.Mock
}

func (m *MockExtractionService) ProcessBatch(ctx context.Context, files []service.UploadedFile) (*service.BatchSummary, error) {
	args := m.Called(ctx, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BatchSummary), args.Error(1)
}

func (m *MockExtractionService) Download(ctx context.Context, tokenString string, format domain.ArtifactFormat) (*service.Artifact, error) {
	args := m.Called(ctx, tokenString, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Artifact), args.Error(1)
}

func (m *MockExtractionService) ListRuns(ctx context.Context, offset, limit int) ([]domain.BatchRun, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.BatchRun), args.Int(1), args.Error(2)
}

func (m *MockExtractionService) GetRun(ctx context.Context, id uuid.UUID) (*service.RunDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RunDetail), args.Error(1)
}

func (m *MockExtractionService) Ready(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
