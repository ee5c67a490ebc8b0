package usecase

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"douyin_youtube_tool/internal/domain"
	"douyin_youtube_tool/internal/logger"
)

const (
	// statusCacheTTL bounds how stale a repeated single-video check may be
	statusCacheTTL = 30 * time.Second

	// todaysUploadsMaxEntries caps the playlist walk for the daily report
	todaysUploadsMaxEntries = 50
)

// StatusReporter answers status questions over the session's read client.
// Repeated checks of the same video within the TTL are served from cache;
// list traversals always go to the source.
type StatusReporter struct {
	session    *Session
	uploadRepo domain.UploadRepository
	cache      *gocache.Cache
}

// NewStatusReporter creates a reporter for the session.
func NewStatusReporter(session *Session, uploadRepo domain.UploadRepository) *StatusReporter {
	return &StatusReporter{
		session:    session,
		uploadRepo: uploadRepo,
		cache:      gocache.New(statusCacheTTL, time.Minute),
	}
}

// CheckVideo fetches the authoritative state of one video. A video that does
// not exist reports Found=false, not an error.
func (r *StatusReporter) CheckVideo(ctx context.Context, videoID string) (*domain.VideoStatusSnapshot, error) {
	api := r.session.API()
	if api == nil {
		return nil, domain.NewFault(domain.FaultAuth, "video status",
			fmt.Errorf("not authenticated, log in first"))
	}

	cacheKey := "video:" + videoID
	if cached, ok := r.cache.Get(cacheKey); ok {
		return cached.(*domain.VideoStatusSnapshot), nil
	}

	snapshot, err := api.VideoStatus(ctx, videoID)
	if err != nil {
		return nil, err
	}
	r.cache.Set(cacheKey, snapshot, gocache.DefaultExpiration)
	return snapshot, nil
}

// RecentUploads resolves the channel's newest uploads, newest first. A video
// that fails to resolve is skipped so one bad entry never empties the report.
func (r *StatusReporter) RecentUploads(ctx context.Context, limit int) ([]*domain.VideoStatusSnapshot, error) {
	api := r.session.API()
	if api == nil {
		return nil, domain.NewFault(domain.FaultAuth, "recent uploads",
			fmt.Errorf("not authenticated, log in first"))
	}
	if limit <= 0 {
		limit = 10
	}

	playlistID, err := api.UploadsPlaylistID(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := api.PlaylistEntries(ctx, playlistID, limit)
	if err != nil {
		return nil, err
	}

	snapshots := make([]*domain.VideoStatusSnapshot, 0, len(entries))
	for _, entry := range entries {
		snapshot, err := api.VideoStatus(ctx, entry.VideoID)
		if err != nil {
			logger.Warnf("skipping %s in recent uploads: %v", entry.VideoID, err)
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

// TodaysUploads walks the uploads playlist newest first and stops at the
// first entry published before UTC midnight, so the per-video resolution cost
// is bounded by today's actual upload count.
func (r *StatusReporter) TodaysUploads(ctx context.Context) ([]*domain.VideoStatusSnapshot, error) {
	api := r.session.API()
	if api == nil {
		return nil, domain.NewFault(domain.FaultAuth, "todays uploads",
			fmt.Errorf("not authenticated, log in first"))
	}

	playlistID, err := api.UploadsPlaylistID(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := api.PlaylistEntries(ctx, playlistID, todaysUploadsMaxEntries)
	if err != nil {
		return nil, err
	}

	dayStart := time.Now().UTC().Truncate(24 * time.Hour)
	snapshots := make([]*domain.VideoStatusSnapshot, 0, len(entries))
	for _, entry := range entries {
		if entry.PublishedAt.Before(dayStart) {
			break
		}
		snapshot, err := api.VideoStatus(ctx, entry.VideoID)
		if err != nil {
			logger.Warnf("skipping %s in todays uploads: %v", entry.VideoID, err)
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

// RefreshProcessingStatuses re-checks recent successful uploads that were
// still processing and records the new state. Used by the scheduler.
func (r *StatusReporter) RefreshProcessingStatuses(ctx context.Context, limit int) error {
	api := r.session.API()
	if api == nil {
		// nothing to refresh before login
		return nil
	}

	records, err := r.uploadRepo.GetRecent(limit)
	if err != nil {
		return err
	}

	for _, record := range records {
		if !record.Success || record.YouTubeVideoID == "" {
			continue
		}
		if record.ProcessingStatus == domain.ProcessingSucceeded ||
			record.ProcessingStatus == domain.ProcessingFailed ||
			record.ProcessingStatus == domain.ProcessingTerminated {
			continue
		}

		snapshot, err := api.VideoStatus(ctx, record.YouTubeVideoID)
		if err != nil {
			logger.Warnf("could not refresh %s: %v", record.YouTubeVideoID, err)
			continue
		}
		if !snapshot.Found {
			continue
		}
		if snapshot.ProcessingStatus != record.ProcessingStatus {
			if err := r.uploadRepo.UpdateProcessingStatus(record.YouTubeVideoID, snapshot.ProcessingStatus); err != nil {
				logger.Warnf("could not record processing state of %s: %v", record.YouTubeVideoID, err)
			} else {
				logger.Infof("video %s processing state is now %s", record.YouTubeVideoID, snapshot.ProcessingStatus)
			}
		}
	}
	return nil
}
