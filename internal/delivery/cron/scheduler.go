package cron

import (
	"context"
	"fmt"
	"strings"
	"time"

	cron "github.com/robfig/cron/v3"

	"douyin_youtube_tool/config"
	"douyin_youtube_tool/internal/infrastructure/downloader"
	"douyin_youtube_tool/internal/logger"
	"douyin_youtube_tool/internal/usecase"
)

// refreshBatchSize bounds how many recent uploads a single refresh touches
const refreshBatchSize = 20

// Scheduler manages cron jobs for the application
type Scheduler struct {
	cron       *cron.Cron
	config     *config.Config
	reporter   *usecase.StatusReporter
	downloader *downloader.Service
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewScheduler creates a new cron scheduler
func NewScheduler(
	cfg *config.Config,
	reporter *usecase.StatusReporter,
	dl *downloader.Service,
) *Scheduler {
	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	// Create cron with seconds support
	c := cron.New(cron.WithSeconds())

	return &Scheduler{
		cron:       c,
		config:     cfg,
		reporter:   reporter,
		downloader: dl,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start starts the cron scheduler
func (s *Scheduler) Start() error {
	// Schedule the processing-status refresh job
	refreshSchedule := normalizeSchedule(s.config.CronSchedule)
	refreshJobID, err := s.cron.AddFunc(refreshSchedule, s.refreshStatusJob)
	if err != nil {
		return fmt.Errorf("failed to schedule status refresh job: %w", err)
	}
	logger.Infof("scheduled status refresh job with ID: %d, schedule: %s", refreshJobID, refreshSchedule)

	// Schedule the download folder cleanup job, daily
	cleanupSchedule := normalizeSchedule("0 3 * * *")
	cleanupJobID, err := s.cron.AddFunc(cleanupSchedule, s.cleanupJob)
	if err != nil {
		return fmt.Errorf("failed to schedule cleanup job: %w", err)
	}
	logger.Infof("scheduled cleanup job with ID: %d, schedule: %s", cleanupJobID, cleanupSchedule)

	s.cron.Start()
	logger.Infof("cron scheduler started")
	return nil
}

// Stop stops the cron scheduler gracefully
func (s *Scheduler) Stop() {
	logger.Infof("stopping cron scheduler...")
	s.cancel()
	s.cron.Stop()
	logger.Infof("cron scheduler stopped")
}

// refreshStatusJob re-checks recent uploads that were still processing
func (s *Scheduler) refreshStatusJob() {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	if err := s.reporter.RefreshProcessingStatuses(ctx, refreshBatchSize); err != nil {
		logger.Errorf("status refresh job failed: %v", err)
		return
	}

	logger.Debugf("status refresh job completed in %v", time.Since(startTime))
}

// cleanupJob removes stale files from the download folder
func (s *Scheduler) cleanupJob() {
	startTime := time.Now()

	if err := s.downloader.CleanupOldDownloads(7 * 24 * time.Hour); err != nil {
		logger.Errorf("cleanup job failed: %v", err)
		return
	}

	logger.Infof("cleanup job completed in %v", time.Since(startTime))
}

// normalizeSchedule ensures cron expressions are compatible with cron.WithSeconds
func normalizeSchedule(expr string) string {
	fields := strings.Fields(expr)
	if len(fields) == 5 {
		return "0 " + expr
	}
	return expr
}
