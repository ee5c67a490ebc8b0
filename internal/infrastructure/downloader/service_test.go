package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"douyin_youtube_tool/config"
	"douyin_youtube_tool/internal/domain"
	httpclient "douyin_youtube_tool/internal/infrastructure/http"
)

// mp4Header is a minimal ftyp box that sniffs as a video container
var mp4Header = []byte{
	0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
	'm', 'p', '4', '2', 0x00, 0x00, 0x00, 0x00,
	'i', 's', 'o', 'm', 'm', 'p', '4', '2',
}

func testService(t *testing.T) (*Service, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		DownloadDir:       t.TempDir(),
		DownloadTimeout:   5 * time.Second,
		HTTPClientTimeout: 5 * time.Second,
	}
	svc, err := NewService(cfg, httpclient.NewHTTPClient(cfg))
	require.NoError(t, err)
	return svc, cfg
}

func TestFileNameFor(t *testing.T) {
	assert.Equal(t, "video_001.mp4", FileNameFor(1))
	assert.Equal(t, "video_012.mp4", FileNameFor(12))
	assert.Equal(t, "video_123.mp4", FileNameFor(123))
}

func TestDownloadOneWritesNumberedFile(t *testing.T) {
	payload := append(append([]byte{}, mp4Header...), make([]byte, 1024)...)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.Equal(t, "https://www.douyin.com/", r.Header.Get("Referer"))
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	svc, _ := testService(t)
	file, err := svc.DownloadOne(context.Background(), domain.VideoReference{URL: server.URL, Index: 3})
	require.NoError(t, err)

	assert.Equal(t, "video_003.mp4", file.Name)
	assert.Equal(t, int64(len(payload)), file.Size)
	assert.NotEmpty(t, file.SizeLabel)

	written, err := os.ReadFile(file.Path)
	require.NoError(t, err)
	assert.Equal(t, payload, written)
}

func TestDownloadOneSurvivesSlowTransfers(t *testing.T) {
	rest := make([]byte, 4096)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(mp4Header)
		w.(http.Flusher).Flush()
		// dribble the body out well past the API budget
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write(rest)
	}))
	defer server.Close()

	cfg := &config.Config{
		DownloadDir:       t.TempDir(),
		DownloadTimeout:   5 * time.Second,
		HTTPClientTimeout: 50 * time.Millisecond,
	}
	svc, err := NewService(cfg, httpclient.NewHTTPClient(cfg))
	require.NoError(t, err)

	file, downloadErr := svc.DownloadOne(context.Background(), domain.VideoReference{URL: server.URL, Index: 1})
	require.NoError(t, downloadErr)
	assert.Equal(t, int64(len(mp4Header)+len(rest)), file.Size)
}

func TestDownloadOneRejectsNonVideoPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// expired CDN links answer with an HTML block page and a 200
		_, _ = w.Write([]byte("<html><body>link expired</body></html>"))
	}))
	defer server.Close()

	svc, cfg := testService(t)
	_, err := svc.DownloadOne(context.Background(), domain.VideoReference{URL: server.URL, Index: 1})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.FaultStructural))

	// neither the final file nor the partial may survive
	_, statErr := os.Stat(filepath.Join(cfg.DownloadDir, "video_001.mp4"))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(cfg.DownloadDir, "video_001.mp4.part"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDownloadAllIsolatesFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(mp4Header)
	}))
	defer server.Close()

	svc, _ := testService(t)
	refs := []domain.VideoReference{
		{URL: server.URL + "/a", Index: 1},
		{URL: server.URL + "/bad", Index: 2},
		{URL: server.URL + "/c", Index: 3},
	}

	var outcomes []ItemOutcome
	summary := svc.DownloadAll(context.Background(), refs, func(o ItemOutcome) {
		outcomes = append(outcomes, o)
	})

	assert.Equal(t, 3, summary.Attempted)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Files, 2)
	assert.Equal(t, "video_001.mp4", summary.Files[0].Name)
	assert.Equal(t, "video_003.mp4", summary.Files[1].Name)

	require.Len(t, outcomes, 3)
	assert.NoError(t, outcomes[0].Err)
	assert.Error(t, outcomes[1].Err)
	assert.NoError(t, outcomes[2].Err)
}

func TestDownloadAllHonorsCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(mp4Header)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	svc, _ := testService(t)
	refs := []domain.VideoReference{
		{URL: server.URL, Index: 1},
		{URL: server.URL, Index: 2},
		{URL: server.URL, Index: 3},
	}

	summary := svc.DownloadAll(ctx, refs, func(o ItemOutcome) {
		cancel()
	})

	assert.Equal(t, 1, summary.Attempted)
	assert.Equal(t, 1, summary.Succeeded)
}
