package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"finsync/internal/domain"
)

// MockBatchRepo is a mock implementation of port.BatchRepository.
type MockBatchRepo struct {
	mock.Mock
}

func (m *MockBatchRepo) Create(ctx context.Context, run *domain.BatchRun, docs []domain.BatchDocument) error {
	args := m.Called(ctx, run, docs)
	return args.Error(0)
}

func (m *MockBatchRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.BatchRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchRun), args.Error(1)
}

func (m *MockBatchRepo) List(ctx context.Context, offset, limit int) ([]domain.BatchRun, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.BatchRun), args.Int(1), args.Error(2)
}

func (m *MockBatchRepo) ListDocuments(ctx context.Context, batchID uuid.UUID) ([]domain.BatchDocument, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BatchDocument), args.Error(1)
}

func (m *MockBatchRepo) RecordDownload(ctx context.Context, event *domain.DownloadEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockBatchRepo) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
