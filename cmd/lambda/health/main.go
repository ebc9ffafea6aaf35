// Health Check Lambda entry point
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"property-valuation-engine/internal/config"
	"property-valuation-engine/internal/handlers"
	"property-valuation-engine/internal/services/database"
	"property-valuation-engine/internal/utils"
)

func main() {
	// Initialize logger
	_ = utils.InitLogger("info")
	defer utils.Sync()

	// Health checks still answer without a store
	var store handlers.HealthChecker
	if cfg, err := config.Load(); err != nil {
		utils.GetLogger().Warn("Config unavailable, reporting database as not configured", utils.Error(err))
	} else if s, err := database.Open(context.Background(), cfg); err != nil {
		utils.GetLogger().Warn("Property store unavailable", utils.Error(err))
	} else {
		defer s.Close()
		store = s
	}

	lambda.Start(handlers.NewHealthHandler(store).Handle)
}
