package ses_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsync/internal/config"
	"finsync/internal/email/ses"
	"finsync/internal/port"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	return &sesv2.SendEmailOutput{}, f.err
}

func notifyConfig(recipients ...string) *config.NotifyConfig {
	return &config.NotifyConfig{FromAddress: "reports@finsync.local", FromName: "FinSync", Recipients: recipients}
}

func TestSESSender_SendReportReady(t *testing.T) {
	client := &fakeSES{}
	sender := ses.NewSESSenderWithClient(client, notifyConfig("ops@example.com"))

	err := sender.SendReportReady(context.Background(), port.ReportNotice{
		BatchID: uuid.New(), InvoicesCount: 3, DocumentCount: 2,
		DownloadURL: "http://localhost/api/v1/reports/download?token=a&format=xlsx",
	})
	require.NoError(t, err)
	require.NotNil(t, client.input)
	assert.Equal(t, "FinSync <reports@finsync.local>", *client.input.FromEmailAddress)
	assert.Equal(t, []string{"ops@example.com"}, client.input.Destination.ToAddresses)
	assert.Contains(t, *client.input.Content.Simple.Subject.Data, "3 invoice(s)")
	assert.Contains(t, *client.input.Content.Simple.Body.Html.Data, "token=a&amp;format=xlsx")
	assert.Contains(t, *client.input.Content.Simple.Body.Text.Data, "Documents: 2")
}

func TestSESSender_NoRecipients(t *testing.T) {
	client := &fakeSES{}
	sender := ses.NewSESSenderWithClient(client, notifyConfig())

	require.NoError(t, sender.SendReportReady(context.Background(), port.ReportNotice{}))
	assert.Nil(t, client.input)
}

func TestSESSender_Error(t *testing.T) {
	client := &fakeSES{err: errors.New("throttled")}
	sender := ses.NewSESSenderWithClient(client, notifyConfig("ops@example.com"))

	err := sender.SendReportReady(context.Background(), port.ReportNotice{})
	assert.ErrorContains(t, err, "throttled")
}
