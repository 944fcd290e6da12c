package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	apiconfig "github.com/blueboyrocks/business-valuation-app-sub003/pkg/api/config"
	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/api/reports"
	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/agent"
	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/pipeline"
	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/store"
)

func main() {
	// Load environment variables
	godotenv.Load()

	ctx := context.Background()

	// Database is required for job records.
	if err := store.InitDB(ctx); err != nil {
		fmt.Printf("[FATAL] Database initialization failed: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	// Redis progress cache is optional; status polling falls back to
	// Postgres when it is absent.
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	cache := store.NewProgressCache(ctx, os.Getenv("REDIS_ADDR"), os.Getenv("REDIS_PASSWORD"), redisDB)
	defer cache.Close()

	// Initialize manager from config
	agentCfg := agent.LoadConfig("config/models.yaml")
	agentMgr := agent.NewManager(agentCfg)
	fmt.Printf("[CONFIG] Active provider: %s\n", agentMgr.GetActiveProvider())

	repo := store.NewReportJobRepo(cache)

	// Config endpoints
	configHandler := apiconfig.NewHandler(agentMgr)
	http.HandleFunc("/api/config", configHandler.HandleConfig)
	http.HandleFunc("/api/config/switch", configHandler.HandleSwitch)

	// Report pipeline endpoints
	reportsHandler := reports.NewHandler(agentMgr, repo, cache, pipeline.DefaultConfig())
	http.HandleFunc("/api/reports/generate", reportsHandler.HandleGenerate)
	http.HandleFunc("/api/reports/status", reportsHandler.HandleStatus)
	http.HandleFunc("/api/reports/result", reportsHandler.HandleResult)
	http.HandleFunc("/api/reports/stream", reportsHandler.HandleStream)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Printf("API server starting on :%s...\n", port)
	fmt.Println("  - GET  /api/config")
	fmt.Println("  - POST /api/config/switch")
	fmt.Println("  - POST /api/reports/generate  (multipart: company_name + documents)")
	fmt.Println("  - GET  /api/reports/status?id=...")
	fmt.Println("  - GET  /api/reports/result?id=...")
	fmt.Println("  - GET  /api/reports/stream?id=...  (SSE)")

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
