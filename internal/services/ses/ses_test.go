package ses

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-valuation-engine/internal/models"
)

type fakeSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &ses.SendEmailOutput{MessageId: aws.String("0100018c-msg")}, nil
}

func reportParams() ReportNotificationParams {
	return ReportNotificationParams{
		Recipient:          "owner@example.com",
		AccountNumber:      "0000000000001",
		StreetAddress:      "100 HEIGHTS BLVD",
		FinalAdjustedValue: 280000,
		MedianPricePerSqft: 110,
		ComparableCount:    6,
		ExpansionLevel:     "initial",
		ReportURL:          "https://reports.example.com/r.json",
	}
}

func TestSendValuationReport(t *testing.T) {
	client := &fakeSES{}
	svc := NewServiceWithClient(client, "reports@example.com")

	result, err := svc.SendValuationReport(context.Background(), reportParams())
	require.NoError(t, err)
	assert.Equal(t, "0100018c-msg", result.MessageID)

	require.Len(t, client.inputs, 1)
	input := client.inputs[0]
	assert.Equal(t, "reports@example.com", aws.ToString(input.Source))
	assert.Equal(t, []string{"owner@example.com"}, input.Destination.ToAddresses)
	assert.Equal(t, "Valuation report for 100 HEIGHTS BLVD", aws.ToString(input.Message.Subject.Data))

	html := aws.ToString(input.Message.Body.Html.Data)
	assert.Contains(t, html, "$280000.00")
	assert.Contains(t, html, "https://reports.example.com/r.json")

	text := aws.ToString(input.Message.Body.Text.Data)
	assert.Contains(t, text, "Estimated value: $280000.00")
	assert.Contains(t, text, "Comparables used: 6 (initial search)")
	assert.Contains(t, text, "Full report: https://reports.example.com/r.json")
}

func TestSendValuationReport_FallsBackToAccountTitle(t *testing.T) {
	client := &fakeSES{}
	svc := NewServiceWithClient(client, "reports@example.com")

	params := reportParams()
	params.StreetAddress = ""
	params.ReportURL = ""

	_, err := svc.SendValuationReport(context.Background(), params)
	require.NoError(t, err)

	input := client.inputs[0]
	assert.Equal(t, "Valuation report for 0000000000001", aws.ToString(input.Message.Subject.Data))
	assert.NotContains(t, aws.ToString(input.Message.Body.Text.Data), "Full report")
}

func TestSendEmail(t *testing.T) {
	client := &fakeSES{}
	svc := NewServiceWithClient(client, "reports@example.com")

	_, err := svc.SendEmail(context.Background(), EmailParams{
		To:       "owner@example.com",
		Subject:  "Hello",
		TextBody: "plain",
		ReplyTo:  "support@example.com",
	})
	require.NoError(t, err)

	input := client.inputs[0]
	assert.Nil(t, input.Message.Body.Html)
	assert.Equal(t, "plain", aws.ToString(input.Message.Body.Text.Data))
	assert.Equal(t, []string{"support@example.com"}, input.ReplyToAddresses)
}

func TestSendEmail_Error(t *testing.T) {
	svc := NewServiceWithClient(&fakeSES{err: errors.New("MessageRejected")}, "reports@example.com")

	result, err := svc.SendEmail(context.Background(), EmailParams{To: "owner@example.com", Subject: "x"})
	assert.Nil(t, result)
	assert.ErrorContains(t, err, "MessageRejected")
}

func TestBuildReportNotificationParams(t *testing.T) {
	analysis := &models.PropertyAnalysis{
		ReferenceProperty: &models.Property{
			AccountNumber: "0000000000001",
			StreetAddress: "100 HEIGHTS BLVD",
		},
		NumCompsFound:        3,
		SearchExpansionLevel: models.ExpansionLevelFinal,
		ValueAnalysis: &models.ValuationResult{
			FinalAdjustedValue: 123456.5,
			MedianPricePerSqft: 98.25,
		},
	}

	params := BuildReportNotificationParams("owner@example.com", analysis, "https://r")

	assert.Equal(t, ReportNotificationParams{
		Recipient:          "owner@example.com",
		AccountNumber:      "0000000000001",
		StreetAddress:      "100 HEIGHTS BLVD",
		FinalAdjustedValue: 123456.5,
		MedianPricePerSqft: 98.25,
		ComparableCount:    3,
		ExpansionLevel:     models.ExpansionLevelFinal,
		ReportURL:          "https://r",
	}, params)
}
