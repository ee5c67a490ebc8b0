package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"douyin_youtube_tool/config"
	"douyin_youtube_tool/internal/domain"
	httpclient "douyin_youtube_tool/internal/infrastructure/http"
	"douyin_youtube_tool/internal/infrastructure/youtube"
	"douyin_youtube_tool/internal/repository/memory"
)

// countingAPI serves a fixed playlist and counts per-video resolutions
type countingAPI struct {
	entries     []youtube.PlaylistEntry
	statusCalls int
}

func (c *countingAPI) VideoStatus(ctx context.Context, videoID string) (*domain.VideoStatusSnapshot, error) {
	c.statusCalls++
	return &domain.VideoStatusSnapshot{
		Found:            true,
		VideoID:          videoID,
		UploadStatus:     domain.UploadStatusProcessed,
		ProcessingStatus: domain.ProcessingSucceeded,
	}, nil
}

func (c *countingAPI) UploadsPlaylistID(ctx context.Context) (string, error) {
	return "UU_counting", nil
}

func (c *countingAPI) PlaylistEntries(ctx context.Context, playlistID string, maxResults int) ([]youtube.PlaylistEntry, error) {
	entries := c.entries
	if len(entries) > maxResults {
		entries = entries[:maxResults]
	}
	return entries, nil
}

func authenticatedSession(t *testing.T, api youtube.VideoAPI) *Session {
	t.Helper()
	cfg := &config.Config{HTTPClientTimeout: time.Second}
	cred := youtube.NewAuthenticator(cfg, httpclient.NewHTTPClient(cfg)).Demo()

	session := NewSession(t.TempDir())
	session.SetAuthenticated(cred, api, nil)
	return session
}

func TestTodaysUploadsStopsAtFirstOlderEntry(t *testing.T) {
	now := time.Now().UTC()
	api := &countingAPI{
		entries: []youtube.PlaylistEntry{
			{VideoID: "v1", PublishedAt: now},
			{VideoID: "v2", PublishedAt: now.Add(-time.Hour)},
			{VideoID: "old1", PublishedAt: now.Add(-48 * time.Hour)},
			{VideoID: "old2", PublishedAt: now.Add(-72 * time.Hour)},
		},
	}

	reporter := NewStatusReporter(authenticatedSession(t, api), memory.NewUploadRepository())
	snapshots, err := reporter.TodaysUploads(context.Background())
	require.NoError(t, err)

	require.Len(t, snapshots, 2)
	assert.Equal(t, "v1", snapshots[0].VideoID)
	assert.Equal(t, "v2", snapshots[1].VideoID)

	// entries published before today must never be resolved
	assert.Equal(t, 2, api.statusCalls)
}

func TestRecentUploadsResolvesRequestedCount(t *testing.T) {
	now := time.Now().UTC()
	api := &countingAPI{
		entries: []youtube.PlaylistEntry{
			{VideoID: "v1", PublishedAt: now},
			{VideoID: "v2", PublishedAt: now.Add(-time.Hour)},
			{VideoID: "v3", PublishedAt: now.Add(-2 * time.Hour)},
		},
	}

	reporter := NewStatusReporter(authenticatedSession(t, api), memory.NewUploadRepository())
	snapshots, err := reporter.RecentUploads(context.Background(), 2)
	require.NoError(t, err)

	assert.Len(t, snapshots, 2)
	assert.Equal(t, 2, api.statusCalls)
}

func TestCheckVideoServesRepeatsFromCache(t *testing.T) {
	api := &countingAPI{}
	reporter := NewStatusReporter(authenticatedSession(t, api), memory.NewUploadRepository())

	first, err := reporter.CheckVideo(context.Background(), "v1")
	require.NoError(t, err)
	second, err := reporter.CheckVideo(context.Background(), "v1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, api.statusCalls)
}

func TestStatusRequiresAuthentication(t *testing.T) {
	reporter := NewStatusReporter(NewSession(t.TempDir()), memory.NewUploadRepository())

	_, err := reporter.CheckVideo(context.Background(), "v1")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.FaultAuth))

	_, err = reporter.TodaysUploads(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.FaultAuth))
}

func TestTodaysUploadsDemoModeWorksOffline(t *testing.T) {
	// the demo client is pure fixture data; nothing listens on any port
	reporter := NewStatusReporter(authenticatedSession(t, youtube.NewDemoClient()), memory.NewUploadRepository())

	snapshots, err := reporter.TodaysUploads(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, snapshots)
	for _, snapshot := range snapshots {
		assert.True(t, snapshot.Found)
	}
}

func TestRefreshProcessingStatuses(t *testing.T) {
	repo := memory.NewUploadRepository()
	require.NoError(t, repo.Save(&domain.UploadRecord{
		FilePath:         "/tmp/video_001.mp4",
		YouTubeVideoID:   "v1",
		Success:          true,
		ProcessingStatus: domain.ProcessingPending,
	}))

	api := &countingAPI{}
	reporter := NewStatusReporter(authenticatedSession(t, api), repo)
	require.NoError(t, reporter.RefreshProcessingStatuses(context.Background(), 10))

	record, err := repo.GetByYouTubeID("v1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, domain.ProcessingSucceeded, record.ProcessingStatus)
}
