package email

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsync/internal/config"
	"finsync/internal/port"
)

func TestNewNotifier_Noop(t *testing.T) {
	n, err := NewNotifier(&config.NotifyConfig{Provider: "noop"})
	require.NoError(t, err)
	assert.NoError(t, n.SendReportReady(context.Background(), port.ReportNotice{BatchID: uuid.New()}))
}

func TestNewNotifier_Unknown(t *testing.T) {
	_, err := NewNotifier(&config.NotifyConfig{Provider: "pigeon"})
	assert.ErrorContains(t, err, "unknown notify provider")
}
