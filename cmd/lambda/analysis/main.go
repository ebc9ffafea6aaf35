// Property Analysis Lambda entry point
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"property-valuation-engine/internal/config"
	"property-valuation-engine/internal/handlers"
	"property-valuation-engine/internal/services/analysis"
	"property-valuation-engine/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	_ = utils.InitLogger(cfg.LogLevel)
	defer utils.Sync()

	svc, store, err := analysis.Open(context.Background(), cfg)
	if err != nil {
		panic("Failed to create handler: " + err.Error())
	}
	defer store.Close()

	lambda.Start(handlers.NewPropertyHandler(svc).Handle)
}
