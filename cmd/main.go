package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"douyin_youtube_tool/config"
	"douyin_youtube_tool/internal/delivery/cron"
	"douyin_youtube_tool/internal/delivery/httpapi"
	"douyin_youtube_tool/internal/infrastructure/douyin"
	"douyin_youtube_tool/internal/infrastructure/downloader"
	httpclient "douyin_youtube_tool/internal/infrastructure/http"
	"douyin_youtube_tool/internal/infrastructure/media"
	"douyin_youtube_tool/internal/infrastructure/youtube"
	"douyin_youtube_tool/internal/logger"
	sqliterepo "douyin_youtube_tool/internal/repository/sqlite"
	"douyin_youtube_tool/internal/usecase"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to the YAML configuration file")
	loginMode := flag.Bool("login", false, "Run the interactive OAuth consent flow and exit")
	logoutMode := flag.Bool("logout", false, "Clear the cached OAuth token and exit")
	flag.Parse()

	// Load configuration from YAML file
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.NewManager(*configPath).Load()
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if _, err := logger.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer func() {
		if err := logger.Close(); err != nil {
			log.Printf("Failed to close log files: %v", err)
		}
	}()

	// Initialize HTTP client
	httpClient := httpclient.NewHTTPClient(cfg)
	authenticator := youtube.NewAuthenticator(cfg, httpClient)

	// Handle one-shot auth modes
	if *loginMode {
		handleLoginMode(authenticator)
		return
	}
	if *logoutMode {
		if err := authenticator.Logout(); err != nil {
			logger.Errorf("logout failed: %v", err)
			os.Exit(1)
		}
		logger.Infof("cached token cleared")
		return
	}

	// Initialize persistent repositories
	db, err := sqliterepo.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	videoRepo := sqliterepo.NewVideoRepository(db)
	uploadRepo := sqliterepo.NewUploadRepository(db)

	// Initialize services
	feedFetcher := douyin.NewFeedFetcher(cfg)
	downloadService, err := downloader.NewService(cfg, httpClient)
	if err != nil {
		log.Fatalf("Failed to create download service: %v", err)
	}
	analyzer := media.NewAnalyzer(cfg)
	optimizer := media.NewOptimizer(cfg, analyzer)
	presets := config.NewPresetStore("")

	// Initialize use cases
	session := usecase.NewSession(downloadService.Dir())
	authManager := usecase.NewAuthManager(cfg, authenticator, httpClient, analyzer, optimizer, session)
	downloadProcessor := usecase.NewDownloadProcessor(cfg, feedFetcher, downloadService, videoRepo, session)
	uploadProcessor := usecase.NewUploadProcessor(cfg, session, videoRepo, uploadRepo, presets)
	reporter := usecase.NewStatusReporter(session, uploadRepo)
	tasks := usecase.NewTaskRegistry()

	// Initialize and start cron scheduler
	scheduler := cron.NewScheduler(cfg, reporter, downloadService)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Start HTTP API server
	apiServer := httpapi.NewServer(cfg, session, authManager, downloadProcessor,
		uploadProcessor, reporter, videoRepo, uploadRepo, tasks, presets)
	if err := apiServer.Start(); err != nil {
		log.Fatalf("Failed to start HTTP API server: %v", err)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Infof("Application started. Press Ctrl+C to stop.")
	<-sigChan

	// Graceful shutdown
	logger.Infof("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	scheduler.Stop()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP API shutdown error: %v", err)
	}
	logger.Infof("Application stopped.")
}

func handleLoginMode(authenticator *youtube.Authenticator) {
	logger.Infof("Starting interactive login mode...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cred, err := authenticator.LoginOAuth(ctx)
	if err != nil {
		logger.Errorf("Login failed: %v", err)
		os.Exit(1)
	}

	logger.Infof("Login successful via %s with %s access. You can now run the tool normally.",
		cred.Method(), cred.Access())
}
