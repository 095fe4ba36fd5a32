// triage-backend ingests bug-bounty reports, classifies and deduplicates
// them with hosted models and routes them to engineers by team and workload.
package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/bughive/triage-backend/database"
	reportevents "github.com/bughive/triage-backend/events/modules/reports"
	"github.com/bughive/triage-backend/internal/ai"
	"github.com/bughive/triage-backend/internal/api"
	"github.com/bughive/triage-backend/internal/assign"
	"github.com/bughive/triage-backend/internal/config"
	"github.com/bughive/triage-backend/internal/kafka"
	"github.com/bughive/triage-backend/internal/services"
	"github.com/bughive/triage-backend/internal/triage"
	"github.com/bughive/triage-backend/restapi"
	"github.com/bughive/triage-backend/restapi/modules/auth"
)

func main() {
	logger := database.InitLogger().Sugar()

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		auth.SetJWTSecret(secret)
	} else {
		logger.Warn("JWT_SECRET not set, using the default development secret")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Fatalf("Failed to load triage config: %v", err)
	}

	// Initialize database connection
	db := database.InitializeDatabase()

	store := services.NewReportStore(db)
	directory := services.NewUserDirectory(db)

	aiClient, err := ai.NewOpenAIClient()
	if err != nil {
		logger.Fatalf("Failed to initialize model client: %v", err)
	}

	classifier := ai.NewClassifier(aiClient, cfg.ChatModel, logger)
	embedder := ai.NewEmbedder(aiClient, cfg.EmbeddingModel, logger)
	detector := ai.NewDetector(store, cfg.MaxMatches, logger)
	engine := assign.NewEngine(cfg, directory, store, logger)

	brokers := strings.Split(database.GetEnvDefault("KAFKA_BROKERS", "localhost:9092"), ",")
	reportTopic := database.GetEnvDefault("KAFKA_REPORT_TOPIC", "report-events")
	notifyTopic := database.GetEnvDefault("KAFKA_NOTIFY_TOPIC", "notification-events")
	producer := reportevents.NewReportProducer(brokers, reportTopic, notifyTopic)
	defer producer.Close()

	orchestrator := triage.NewOrchestrator(cfg, store, classifier, embedder, detector, engine, producer, logger)

	// Background consumer for report.submitted events
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := kafka.RunEventProcessor(ctx, orchestrator); err != nil {
		logger.Warnf("Kafka unavailable, intake falls back to direct triage: %v", err)
	}

	app := api.NewFiberApp(restapi.Deps{
		Config:    cfg,
		Store:     store,
		Directory: directory,
		Engine:    engine,
		Publisher: producer,
		Runner:    orchestrator,
	})

	// Get port from environment or default to 3000
	port := os.Getenv("MS_PORT")
	if port == "" {
		port = "3000"
	}

	// Start server
	log.Printf("Starting server on port %s", port)
	log.Printf("GraphQL endpoint available at /api/v1/graphql")
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
