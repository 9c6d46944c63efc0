package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"college-helpdesk-backend/internal/admissions"
	"college-helpdesk-backend/internal/ai"
	"college-helpdesk-backend/internal/chat"
	"college-helpdesk-backend/internal/config"
	"college-helpdesk-backend/internal/ingest"
	"college-helpdesk-backend/internal/logger"
	"college-helpdesk-backend/internal/session"
	"college-helpdesk-backend/internal/telemetry"
	"college-helpdesk-backend/internal/vectorindex"
	"college-helpdesk-backend/middleware"
	"college-helpdesk-backend/routes"
	"college-helpdesk-backend/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		log.Fatal("Failed to create data directories:", err)
	}

	logger.InitLogger(cfg)

	// Telemetry
	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("college-helpdesk-backend", cfg.OTLPEndpoint)
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			defer shutdown()
		}
	}
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		slog.Warn("metrics disabled", "error", err)
		metrics = nil
	}

	// AI clients. A missing API key is tolerated: the chat endpoint
	// degrades to an apology instead of refusing to start.
	var (
		embedder  vectorindex.Embedder
		generator chat.Generator
	)
	if cfg.GeminiAPIKey == "" {
		slog.Warn("GEMINI_API_KEY not set; chat and ingestion are disabled")
	} else {
		emb, err := ai.NewGeminiEmbedder(cfg.GeminiAPIKey, cfg.EmbeddingsModel)
		if err != nil {
			log.Fatal("Failed to create embeddings client:", err)
		}
		defer emb.Close()
		embedder = emb

		client, err := ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTier)
		if err != nil {
			slog.Error("failed to create LLM client", "error", err)
		} else {
			defer client.Close()
			generator = client
		}
	}

	// Core services
	index := vectorindex.New(cfg.IndexDir, embedder)
	processor := ingest.NewProcessor(index, cfg.ChunkSize, cfg.ChunkOverlap)
	sessions := session.NewStore(
		time.Duration(cfg.SessionTimeout)*time.Second,
		cfg.TranscriptCap,
	)
	orchestrator := chat.NewOrchestrator(
		generator, index, sessions,
		cfg.GeminiAPIKey != "",
		cfg.SearchTopK, cfg.RelevanceThreshold, cfg.HistoryWindow,
		time.Duration(cfg.ChatTimeout)*time.Second,
	)

	admissionStore, err := admissions.NewStore(cfg.DatabaseDir)
	if err != nil {
		log.Fatal("Failed to open admissions store:", err)
	}
	mailer := services.NewSMTPConfirmationSender(*cfg)

	// Background session sweep
	sweeper, err := services.NewSweepScheduler(sessions,
		time.Duration(cfg.SweepInterval)*time.Second, metrics)
	if err != nil {
		log.Fatal("Failed to start session sweeper:", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	// HTTP server
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RateLimitMiddleware(cfg))
	if cfg.TracingEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}
	if metrics != nil {
		router.Use(middleware.MetricsMiddleware(metrics))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	routes.SetupKnowledgeRoutes(router, cfg, processor, index, metrics)
	routes.SetupChatRoutes(router, cfg, orchestrator, sessions, index, metrics)
	routes.SetupAdmissionRoutes(router, admissionStore, mailer)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	slog.Info("server exited")
}
