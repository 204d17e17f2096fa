package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"finsync/internal/port"
)

// MockReportNotifier is a mock implementation of port.ReportNotifier.
type MockReportNotifier struct {
	mock.Mock
}

func (m *MockReportNotifier) SendReportReady(ctx context.Context, notice port.ReportNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}
