//go:build ignore
// +build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"property-valuation-engine/internal/config"
	"property-valuation-engine/internal/services/analysis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Config failed to load: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("🔍 Checking property store...")
	fmt.Println()

	fmt.Println("1️⃣  Environment:")
	checkEnvVar("STORE_DRIVER")
	checkEnvVar("DATABASE_URL")
	checkEnvVar("SQLITE_PATH")
	checkEnvVar("REPORTS_BUCKET")
	checkEnvVar("SES_SENDER_EMAIL")
	fmt.Printf("   ladder rungs: %d, minimum comparables: %d\n", len(cfg.Search.ToleranceLadder), cfg.Search.MinComparables)
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("2️⃣  Store connection:")
	svc, store, err := analysis.Open(ctx, cfg)
	if err != nil {
		fmt.Printf("   ❌ %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.HealthCheck(ctx); err != nil {
		fmt.Printf("   ❌ Health check failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("   ✅ %s store reachable\n", cfg.StoreDriver)
	fmt.Println()

	// Optional sample valuation: go run scripts/check_store.go <account>
	if len(os.Args) < 2 {
		return
	}

	fmt.Println("3️⃣  Sample valuation:")
	result, err := svc.Analyze(ctx, os.Args[1])
	if err != nil {
		fmt.Printf("   ❌ %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("   ✅ %s: $%.2f from %d comparables (%s)\n",
		result.ReferenceProperty.AccountNumber,
		result.ValueAnalysis.FinalAdjustedValue,
		result.NumCompsFound,
		result.SearchExpansionLevel,
	)
}

func checkEnvVar(name string) {
	value := os.Getenv(name)
	if value == "" {
		fmt.Printf("   ➖ %s: not set\n", name)
		return
	}
	masked := value
	if len(value) > 12 && name == "DATABASE_URL" {
		masked = value[:8] + "..." + value[len(value)-4:]
	}
	fmt.Printf("   ✅ %s: %s\n", name, masked)
}
