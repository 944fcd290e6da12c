package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/agent"
	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/ingest"
	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/pipeline"
)

// CLI runner: executes one valuation end to end without the API server or
// database. Useful for local runs against a folder of financials.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, assuming environment variables are set.")
	}

	company := flag.String("company", "", "Company name (required)")
	configPath := flag.String("config", "config/models.yaml", "Model config path")
	outPath := flag.String("out", "", "Write the full result JSON to this file instead of stdout")
	flag.Parse()

	if *company == "" || flag.NArg() == 0 {
		fmt.Println("Usage: pipeline -company \"Acme Plumbing LLC\" [-out result.json] <document> [document...]")
		os.Exit(2)
	}

	var raw []ingest.RawDocument
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", path, err)
		}
		raw = append(raw, ingest.RawDocument{Filename: path, Data: data})
	}
	documents := ingest.Prepare(raw)
	if len(documents) == 0 {
		log.Fatal("No readable documents provided.")
	}

	manager := agent.NewManager(agent.LoadConfig(*configPath))

	// Ctrl+C stops the run at the next stage boundary.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := pipeline.NewDriver(manager.GetProvider("pipeline"), pipeline.DefaultConfig())
	driver.SetProgressFunc(func(stage int, message string, percent int) {
		fmt.Printf("[%3d%%] %s\n", percent, message)
	})

	job := &pipeline.Job{
		ReportID:    uuid.New().String(),
		CompanyName: *company,
		Documents:   documents,
	}

	result := driver.Run(ctx, job)

	if !result.Completed {
		fmt.Printf("\nRun failed at stage %d (%s): %s\n", result.FailedStage, result.FailedStageName, result.Error)
		fmt.Printf("Completed passes: %d/12\n", result.CompletedPasses)
	} else {
		fmt.Printf("\nConcluded value: $%.0f (range $%.0f - $%.0f)\n",
			result.Report.ConcludedValue, result.Report.ValueLow, result.Report.ValueHigh)
		if result.Validation != nil && !result.Validation.Valid() {
			for _, issue := range result.Validation.Errors {
				fmt.Printf("  VALIDATION ERROR [%s]: %s\n", issue.Code, issue.Message)
			}
		}
		if result.Validation != nil {
			for _, issue := range result.Validation.Warnings {
				fmt.Printf("  warning [%s]: %s\n", issue.Code, issue.Message)
			}
		}
	}

	fmt.Printf("Tokens: %d in / %d out, total cost $%.4f\n",
		result.Metrics.TotalInputTokens, result.Metrics.TotalOutputTokens, result.Metrics.TotalCost)

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
	if *outPath != "" {
		if err := os.WriteFile(*outPath, payload, 0644); err != nil {
			log.Fatalf("Failed to write %s: %v", *outPath, err)
		}
		fmt.Printf("Result written to %s\n", *outPath)
	} else {
		fmt.Println(string(payload))
	}

	if !result.Completed {
		os.Exit(1)
	}
}
