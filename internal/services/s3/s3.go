// Package s3service archives valuation reports in S3
package s3service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"property-valuation-engine/internal/models"
	"property-valuation-engine/internal/utils"
)

// DefaultReportURLExpiry is how long a report download link stays valid.
const DefaultReportURLExpiry = 24 * time.Hour

const (
	reportContentType = "application/json"
	reportPrefix      = "reports/"
	reportExtension   = ".json"
)

// ObjectAPI is the subset of the S3 client the archive uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Presigner signs report download URLs.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Service handles report archival
type Service struct {
	client     ObjectAPI
	presigner  Presigner
	bucketName string
	urlExpiry  time.Duration
	now        func() time.Time
}

// PresignedURLResult contains the presigned URL details
type PresignedURLResult struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewService creates a report archive for the given bucket
func NewService(ctx context.Context, bucketName string) (*Service, error) {
	if bucketName == "" {
		return nil, models.ErrReportsDisabled
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return NewServiceWithClient(client, s3.NewPresignClient(client), bucketName), nil
}

// NewServiceWithClient creates a report archive over existing clients
func NewServiceWithClient(client ObjectAPI, presigner Presigner, bucketName string) *Service {
	return &Service{
		client:     client,
		presigner:  presigner,
		bucketName: bucketName,
		urlExpiry:  DefaultReportURLExpiry,
		now:        time.Now,
	}
}

// ReportKey returns the object key for an analysis:
// reports/YYYY/MM/DD/<account>_<analysis id>.json
func ReportKey(analysis *models.PropertyAnalysis) string {
	account := ""
	if analysis.ReferenceProperty != nil {
		account = analysis.ReferenceProperty.AccountNumber
	}
	day := analysis.GeneratedAt.UTC()
	return fmt.Sprintf("%s%04d/%02d/%02d/%s_%s%s",
		reportPrefix, day.Year(), int(day.Month()), day.Day(), account, analysis.AnalysisID, reportExtension)
}

// ReportKeyFromPath turns the part of a report key below "reports/" into the
// full object key. Anything that does not name a JSON report under the
// prefix yields models.ErrInvalidReportKey.
func ReportKeyFromPath(p string) (string, error) {
	p = strings.TrimPrefix(strings.TrimSpace(p), "/")
	if p == "" || strings.Contains(p, "..") || !strings.HasSuffix(p, reportExtension) {
		return "", models.ErrInvalidReportKey
	}
	key := path.Clean(reportPrefix + strings.TrimPrefix(p, reportPrefix))
	if !strings.HasPrefix(key, reportPrefix) {
		return "", models.ErrInvalidReportKey
	}
	return key, nil
}

// ArchiveReport stores the analysis as JSON and returns a download link
func (s *Service) ArchiveReport(ctx context.Context, analysis *models.PropertyAnalysis) (*PresignedURLResult, error) {
	if analysis == nil {
		return nil, fmt.Errorf("failed to archive report: nil analysis")
	}

	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	key := ReportKey(analysis)
	if err := s.UploadFile(ctx, key, data, reportContentType); err != nil {
		return nil, err
	}

	return s.GeneratePresignedDownloadURL(ctx, key, s.urlExpiry)
}

// GeneratePresignedDownloadURL creates a presigned URL for downloading a report
func (s *Service) GeneratePresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (*PresignedURLResult, error) {
	if expiry <= 0 {
		expiry = DefaultReportURLExpiry
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}

	presignedReq, err := s.presigner.PresignGetObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		utils.GetLogger().Error("Failed to generate presigned URL",
			zap.String("bucket", s.bucketName),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to generate presigned download URL: %w", err)
	}

	return &PresignedURLResult{
		URL:       presignedReq.URL,
		Key:       key,
		ExpiresAt: s.now().Add(expiry),
	}, nil
}

// DownloadReport fetches an archived report
func (s *Service) DownloadReport(ctx context.Context, key string) (*models.PropertyAnalysis, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: %s", models.ErrReportNotFound, key)
		}
		utils.GetLogger().Error("Failed to download report from S3",
			zap.String("bucket", s.bucketName),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to download report: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read report content: %w", err)
	}

	var analysis models.PropertyAnalysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &analysis, nil
}

// UploadFile uploads a file to S3
func (s *Service) UploadFile(ctx context.Context, key string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		utils.GetLogger().Error("Failed to upload report to S3",
			zap.String("bucket", s.bucketName),
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("failed to upload report: %w", err)
	}

	utils.GetLogger().Info("Uploaded report to S3",
		zap.String("bucket", s.bucketName),
		zap.String("key", key),
		zap.Int("size", len(data)),
	)

	return nil
}
