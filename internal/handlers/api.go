package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"property-valuation-engine/internal/models"
	"property-valuation-engine/internal/services/database"
	s3service "property-valuation-engine/internal/services/s3"
	"property-valuation-engine/internal/services/ses"
	"property-valuation-engine/internal/utils"
)

// Analyzer produces property analyses and address lookups.
type Analyzer interface {
	Analyze(ctx context.Context, accountNumber string) (*models.PropertyAnalysis, error)
	SearchByAddress(ctx context.Context, query string, limit int) ([]*models.Property, error)
}

// HealthChecker reports store connectivity.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ReportArchiver stores an analysis and returns a download link. It also
// reads archived analyses back.
type ReportArchiver interface {
	ArchiveReport(ctx context.Context, analysis *models.PropertyAnalysis) (*s3service.PresignedURLResult, error)
	DownloadReport(ctx context.Context, key string) (*models.PropertyAnalysis, error)
}

// ReportNotifier e-mails a report summary.
type ReportNotifier interface {
	SendValuationReport(ctx context.Context, params ses.ReportNotificationParams) (*ses.SendEmailResult, error)
}

// RouterConfig controls the HTTP middleware stack.
type RouterConfig struct {
	RateLimitRPS   int
	RateLimitBurst int
	AllowedOrigins []string
}

// API serves the valuation endpoints.
type API struct {
	analyzer Analyzer
	health   HealthChecker
	archive  ReportArchiver
	notifier ReportNotifier
	version  string
	stage    string
}

// APIOption configures an API.
type APIOption func(*API)

// WithReports enables the report endpoint.
func WithReports(archive ReportArchiver, notifier ReportNotifier) APIOption {
	return func(a *API) {
		a.archive = archive
		a.notifier = notifier
	}
}

// WithStage sets the deployment stage reported by health checks.
func WithStage(stage string) APIOption {
	return func(a *API) { a.stage = stage }
}

// NewAPI creates the HTTP API.
func NewAPI(analyzer Analyzer, health HealthChecker, opts ...APIOption) *API {
	a := &API{
		analyzer: analyzer,
		health:   health,
		version:  getEnvOrDefault("SERVICE_VERSION", "1.0.0"),
		stage:    "dev",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ReportRequest is the optional body of a report request.
type ReportRequest struct {
	Email string `json:"email"`
}

// ReportResponse describes an archived report.
type ReportResponse struct {
	AnalysisID string                        `json:"analysis_id"`
	Report     *s3service.PresignedURLResult `json:"report"`
	EmailSent  bool                          `json:"email_sent"`
}

// Router builds the chi router with the full middleware stack.
func (a *API) Router(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	if cfg.RateLimitRPS > 0 {
		burst := max(cfg.RateLimitBurst, 1)
		r.Use(RateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)))
	}

	r.Get("/health", a.Health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", a.Health)
		r.Get("/search", a.SearchProperties)
		r.Get("/property/{accountNumber}", a.GetPropertyAnalysis)
		r.Post("/property/{accountNumber}/report", a.CreateReport)
		r.Get("/reports/*", a.GetReport)
	})

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	return c.Handler(r)
}

// Health reports service and store status.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   serviceName,
		Version:   a.version,
		Stage:     a.stage,
		Database:  checkDatabase(r.Context(), a.health),
	}
	if response.Database == "disconnected" {
		response.Status = "degraded"
	}

	status := http.StatusOK
	if response.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, Response{
		Success: status == http.StatusOK,
		Message: "Property valuation API is running",
		Data:    response,
	})
}

// GetPropertyAnalysis values the property in the URL.
func (a *API) GetPropertyAnalysis(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "accountNumber")

	analysis, err := a.analyzer.Analyze(r.Context(), account)
	if err != nil {
		logFailure(r, "Property analysis failed", err, zap.String("account_number", account))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    analysis,
	})
}

// SearchProperties finds properties by street address.
func (a *API) SearchProperties(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))

	properties, err := a.analyzer.SearchByAddress(r.Context(), query, database.DefaultSearchLimit)
	if err != nil {
		logFailure(r, "Address search failed", err, zap.String("query", query))
		writeError(w, err)
		return
	}

	if len(properties) == 0 {
		writeJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   fmt.Sprintf("No properties found matching '%s'", query),
		})
		return
	}

	summaries := make([]models.PropertySummary, len(properties))
	for i, p := range properties {
		summaries[i] = p.ToSummary()
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    summaries,
	})
}

// CreateReport values the property, archives the analysis and optionally
// e-mails a summary.
func (a *API) CreateReport(w http.ResponseWriter, r *http.Request) {
	if a.archive == nil {
		writeError(w, models.ErrReportsDisabled)
		return
	}

	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	ctx := r.Context()
	account := chi.URLParam(r, "accountNumber")

	analysis, err := a.analyzer.Analyze(ctx, account)
	if err != nil {
		logFailure(r, "Property analysis failed", err, zap.String("account_number", account))
		writeError(w, err)
		return
	}

	report, err := a.archive.ArchiveReport(ctx, analysis)
	if err != nil {
		logFailure(r, "Report archive failed", err, zap.String("analysis_id", analysis.AnalysisID))
		writeError(w, err)
		return
	}

	response := ReportResponse{
		AnalysisID: analysis.AnalysisID,
		Report:     report,
	}

	message := "Report archived"
	if req.Email != "" && a.notifier != nil {
		params := ses.BuildReportNotificationParams(req.Email, analysis, report.URL)
		if _, err := a.notifier.SendValuationReport(ctx, params); err != nil {
			logFailure(r, "Report e-mail failed", err, zap.String("analysis_id", analysis.AnalysisID))
			message = "Report archived, e-mail delivery failed"
		} else {
			response.EmailSent = true
		}
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    response,
	})
}

// GetReport returns an archived analysis. The path below /api/reports/ is
// the date-partitioned part of the object key.
func (a *API) GetReport(w http.ResponseWriter, r *http.Request) {
	if a.archive == nil {
		writeError(w, models.ErrReportsDisabled)
		return
	}

	key, err := s3service.ReportKeyFromPath(chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, err)
		return
	}

	analysis, err := a.archive.DownloadReport(r.Context(), key)
	if err != nil {
		logFailure(r, "Report download failed", err, zap.String("key", key))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    analysis,
	})
}

func logFailure(r *http.Request, msg string, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Int("status", StatusForError(err)),
		zap.Error(err),
	)
	utils.GetLogger().Error(msg, fields...)
}
