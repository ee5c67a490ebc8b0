package youtube

import (
	"context"
	"time"

	"douyin_youtube_tool/internal/domain"
)

const demoUploadsPlaylistID = "UU_demo_uploads"

// DemoClient implements VideoAPI with fixed sample data and no network
// access at all. It backs the demo credential for evaluation without real
// API access.
type DemoClient struct{}

// NewDemoClient creates the stub read client.
func NewDemoClient() *DemoClient {
	return &DemoClient{}
}

func demoVideos() []*domain.VideoStatusSnapshot {
	now := time.Now().UTC()
	return []*domain.VideoStatusSnapshot{
		{
			Found:            true,
			VideoID:          "demo_video_1",
			Title:            "Amazing Douyin Video - Demo 1 🔥",
			Privacy:          domain.PrivacyPublic,
			UploadStatus:     domain.UploadStatusProcessed,
			ProcessingStatus: domain.ProcessingSucceeded,
			Embeddable:       true,
			License:          "youtube",
			Duration:         "PT45S",
			PublishedAt:      now,
			ChannelID:        "demo_channel",
		},
		{
			Found:            true,
			VideoID:          "demo_video_2",
			Title:            "Amazing Douyin Video - Demo 2 🔥",
			Privacy:          domain.PrivacyUnlisted,
			UploadStatus:     domain.UploadStatusUploaded,
			ProcessingStatus: domain.ProcessingPending,
			PartsProcessed:   500,
			PartsTotal:       1000,
			Embeddable:       true,
			License:          "youtube",
			Duration:         "PT58S",
			PublishedAt:      now.Add(-30 * time.Second),
			ChannelID:        "demo_channel",
		},
	}
}

// VideoStatus implements VideoAPI from the fixed sample set.
func (c *DemoClient) VideoStatus(ctx context.Context, videoID string) (*domain.VideoStatusSnapshot, error) {
	for _, v := range demoVideos() {
		if v.VideoID == videoID {
			return v, nil
		}
	}
	return &domain.VideoStatusSnapshot{Found: false, VideoID: videoID}, nil
}

// UploadsPlaylistID implements VideoAPI.
func (c *DemoClient) UploadsPlaylistID(ctx context.Context) (string, error) {
	return demoUploadsPlaylistID, nil
}

// PlaylistEntries implements VideoAPI, newest first.
func (c *DemoClient) PlaylistEntries(ctx context.Context, playlistID string, maxResults int) ([]PlaylistEntry, error) {
	videos := demoVideos()
	entries := make([]PlaylistEntry, 0, len(videos))
	for _, v := range videos {
		entries = append(entries, PlaylistEntry{
			VideoID:     v.VideoID,
			Title:       v.Title,
			PublishedAt: v.PublishedAt,
		})
	}
	if len(entries) > maxResults {
		entries = entries[:maxResults]
	}
	return entries, nil
}
