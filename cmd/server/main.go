package main

import (
	"fmt"
	"log"
	"os"

	"github.com/exportlens/backend/config"
	httpDelivery "github.com/exportlens/backend/internal/delivery/http"
	"github.com/exportlens/backend/internal/infrastructure/fetch"
	"github.com/exportlens/backend/internal/infrastructure/gemini"
	"github.com/exportlens/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting ExportLens Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	// Initialize infrastructure dependencies
	fetchClient := fetch.NewClient(cfg.Fetch.Timeout, cfg.Fetch.MaxBodyBytes, cfg.Fetch.UserAgent)

	geminiClient := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.Model, cfg.Gemini.Timeout)

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		geminiClient.SetDebug(true)
		log.Printf("Gemini client debug mode enabled")
	}

	if cfg.Gemini.APIKey != "" {
		log.Printf("Gemini API configured: %s model=%s (server key present)", cfg.Gemini.BaseURL, cfg.Gemini.Model)
	} else {
		log.Printf("Gemini API configured: %s model=%s (no server key - callers must supply their own)", cfg.Gemini.BaseURL, cfg.Gemini.Model)
	}

	// Initialize usecase layer
	extractionService := usecase.NewExtractionService(fetchClient)
	analysisService := usecase.NewAnalysisService(geminiClient)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(extractionService, analysisService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
