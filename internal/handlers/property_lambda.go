package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"property-valuation-engine/internal/utils"
)

// PropertyHandler serves property analyses behind API Gateway.
type PropertyHandler struct {
	analyzer Analyzer
}

// NewPropertyHandler creates a new property analysis handler.
func NewPropertyHandler(analyzer Analyzer) *PropertyHandler {
	return &PropertyHandler{analyzer: analyzer}
}

// Handle processes GET /api/property/{accountNumber}.
func (h *PropertyHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := utils.GetLogger()
	headers := lambdaHeaders()

	// Handle CORS preflight
	if request.HTTPMethod == http.MethodOptions {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    headers,
		}, nil
	}

	account := request.PathParameters["accountNumber"]

	analysis, err := h.analyzer.Analyze(ctx, account)
	if err != nil {
		status, message := classifyError(err)
		logger.Error("Property analysis failed",
			utils.String("account_number", account),
			utils.String("request_id", request.RequestContext.RequestID),
			utils.Int("status", status),
			utils.Error(err))
		return errorResponse(headers, status, message)
	}

	body, err := json.Marshal(Response{Success: true, Data: analysis})
	if err != nil {
		logger.Error("Failed to encode analysis", utils.Error(err))
		return errorResponse(headers, http.StatusInternalServerError, "Failed to encode analysis")
	}

	logger.Info("Served property analysis",
		utils.String("account_number", analysis.ReferenceProperty.AccountNumber),
		utils.String("analysis_id", analysis.AnalysisID))

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    headers,
		Body:       string(body),
	}, nil
}

func lambdaHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,Authorization",
		"Access-Control-Allow-Methods": "GET,POST,OPTIONS",
		"Content-Type":                 "application/json",
	}
}

// errorResponse creates an error response.
func errorResponse(headers map[string]string, statusCode int, message string) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(Response{
		Success: false,
		Error:   message,
	})

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       string(body),
	}, nil
}
