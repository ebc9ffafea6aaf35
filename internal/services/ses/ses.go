// Package ses provides email notification services via AWS SES
package ses

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"property-valuation-engine/internal/models"
	"property-valuation-engine/internal/utils"
)

// EmailAPI is the subset of the SES client the notifier uses.
type EmailAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Service handles SES email operations
type Service struct {
	client    EmailAPI
	fromEmail string
}

// EmailParams represents parameters for sending an email
type EmailParams struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	ReplyTo  string
}

// ReportNotificationParams contains data for a valuation report email
type ReportNotificationParams struct {
	Recipient          string
	AccountNumber      string
	StreetAddress      string
	FinalAdjustedValue float64
	MedianPricePerSqft float64
	ComparableCount    int
	ExpansionLevel     string
	ReportURL          string
}

// SendEmailResult contains the result of sending an email
type SendEmailResult struct {
	MessageID string
	SentAt    time.Time
}

// NewService creates a new SES service
func NewService(ctx context.Context, fromEmail string) (*Service, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewServiceWithClient(ses.NewFromConfig(cfg), fromEmail), nil
}

// NewServiceWithClient creates a notifier over an existing client
func NewServiceWithClient(client EmailAPI, fromEmail string) *Service {
	return &Service{client: client, fromEmail: fromEmail}
}

// SendEmail sends a basic email
func (s *Service) SendEmail(ctx context.Context, params EmailParams) (*SendEmailResult, error) {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{params.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(params.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}

	if params.HTMLBody != "" {
		input.Message.Body.Html = &types.Content{
			Data:    aws.String(params.HTMLBody),
			Charset: aws.String("UTF-8"),
		}
	}

	if params.TextBody != "" {
		input.Message.Body.Text = &types.Content{
			Data:    aws.String(params.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}

	if params.ReplyTo != "" {
		input.ReplyToAddresses = []string{params.ReplyTo}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		utils.GetLogger().Error("Failed to send email",
			zap.String("to", params.To),
			zap.String("subject", params.Subject),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	messageID := aws.ToString(result.MessageId)
	utils.GetLogger().Info("Email sent successfully",
		zap.String("to", params.To),
		zap.String("subject", params.Subject),
		zap.String("messageId", messageID),
	)

	return &SendEmailResult{
		MessageID: messageID,
		SentAt:    time.Now(),
	}, nil
}

// SendValuationReport emails a valuation summary with the report link
func (s *Service) SendValuationReport(ctx context.Context, params ReportNotificationParams) (*SendEmailResult, error) {
	htmlBody, err := renderReportHTML(params)
	if err != nil {
		return nil, fmt.Errorf("failed to render email template: %w", err)
	}

	return s.SendEmail(ctx, EmailParams{
		To:       params.Recipient,
		Subject:  fmt.Sprintf("Valuation report for %s", reportTitle(params)),
		HTMLBody: htmlBody,
		TextBody: renderReportText(params),
	})
}

// BuildReportNotificationParams creates notification params from an analysis
func BuildReportNotificationParams(recipient string, analysis *models.PropertyAnalysis, reportURL string) ReportNotificationParams {
	params := ReportNotificationParams{
		Recipient:       recipient,
		ComparableCount: analysis.NumCompsFound,
		ExpansionLevel:  analysis.SearchExpansionLevel,
		ReportURL:       reportURL,
	}
	if analysis.ReferenceProperty != nil {
		params.AccountNumber = analysis.ReferenceProperty.AccountNumber
		params.StreetAddress = analysis.ReferenceProperty.StreetAddress
	}
	if analysis.ValueAnalysis != nil {
		params.FinalAdjustedValue = analysis.ValueAnalysis.FinalAdjustedValue
		params.MedianPricePerSqft = analysis.ValueAnalysis.MedianPricePerSqft
	}
	return params
}

func reportTitle(params ReportNotificationParams) string {
	if params.StreetAddress != "" {
		return params.StreetAddress
	}
	return params.AccountNumber
}

var reportTemplate = template.Must(template.New("valuation_report").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #2f4858; color: white; padding: 24px; border-radius: 10px 10px 0 0; }
        .content { background: #f9f9f9; padding: 24px; border-radius: 0 0 10px 10px; }
        .value { font-size: 28px; font-weight: bold; color: #2f4858; }
        .label { font-size: 12px; color: #999; }
        .cta-button { display: inline-block; background: #2f4858; color: white; padding: 12px 24px; text-decoration: none; border-radius: 8px; margin-top: 20px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Valuation Report</h1>
        <p>{{.StreetAddress}} ({{.AccountNumber}})</p>
    </div>
    <div class="content">
        <div class="label">Estimated Value</div>
        <div class="value">${{printf "%.2f" .FinalAdjustedValue}}</div>
        <p>Median adjusted price: ${{printf "%.2f" .MedianPricePerSqft}} per sq ft</p>
        <p>Based on {{.ComparableCount}} comparable properties ({{.ExpansionLevel}} search).</p>
        {{if .ReportURL}}
        <a href="{{.ReportURL}}" class="cta-button">Download Full Report</a>
        {{end}}
    </div>
</body>
</html>`))

func renderReportHTML(params ReportNotificationParams) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, params); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderReportText(params ReportNotificationParams) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Valuation report for %s (%s)\n\n", params.StreetAddress, params.AccountNumber)
	fmt.Fprintf(&buf, "Estimated value: $%.2f\n", params.FinalAdjustedValue)
	fmt.Fprintf(&buf, "Median adjusted price: $%.2f per sq ft\n", params.MedianPricePerSqft)
	fmt.Fprintf(&buf, "Comparables used: %d (%s search)\n\n", params.ComparableCount, params.ExpansionLevel)

	if params.ReportURL != "" {
		fmt.Fprintf(&buf, "Full report: %s\n", params.ReportURL)
	}

	return buf.String()
}
