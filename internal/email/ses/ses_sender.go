package ses

import (
	"context"
	"fmt"
	"html"
	"log"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"finsync/internal/config"
	"finsync/internal/port"
)

// SendEmailAPI is the subset of the SES v2 client used by the sender.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type sesSender struct {
	client     SendEmailAPI
	from       string
	recipients []string
}

// NewSESSender creates an SES-backed ReportNotifier.
func NewSESSender(cfg *config.NotifyConfig) (port.ReportNotifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return NewSESSenderWithClient(sesv2.NewFromConfig(awsCfg), cfg), nil
}

// NewSESSenderWithClient creates a ReportNotifier around an existing client.
func NewSESSenderWithClient(client SendEmailAPI, cfg *config.NotifyConfig) port.ReportNotifier {
	return &sesSender{
		client:     client,
		from:       fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress),
		recipients: cfg.Recipients,
	}
}

func (s *sesSender) SendReportReady(ctx context.Context, notice port.ReportNotice) error {
	if len(s.recipients) == 0 {
		log.Printf("ses.SendReportReady: no recipients configured, skipping batch %s", notice.BatchID)
		return nil
	}

	subject := fmt.Sprintf("GST extraction ready: %d invoice(s)", notice.InvoicesCount)
	htmlBody := buildReportHTML(notice)
	textBody := fmt.Sprintf("Your GST invoice extraction has finished.\n\n"+
		"Documents: %d\nInvoices: %d\n\nDownload the report:\n%s\n\nFinSync",
		notice.DocumentCount, notice.InvoicesCount, notice.DownloadURL)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &s.from,
		Destination: &types.Destination{
			ToAddresses: s.recipients,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildReportHTML(n port.ReportNotice) string {
	link := html.EscapeString(n.DownloadURL)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Your GST report is ready</h2>
  <p>%d document(s) were processed and %d invoice(s) extracted.</p>
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Download Report</a>
  </p>
  <p>Or copy and paste this link into your browser:</p>
  <p style="word-break: break-all; color: #666;">%s</p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">FinSync - GST Invoice Extraction</p>
</body>
</html>`, n.DocumentCount, n.InvoicesCount, link, link)
}
