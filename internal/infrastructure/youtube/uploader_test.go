package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"douyin_youtube_tool/config"
	"douyin_youtube_tool/internal/domain"
	httpclient "douyin_youtube_tool/internal/infrastructure/http"
	"douyin_youtube_tool/internal/infrastructure/media"
)

// staticCred is a writable credential that signs nothing
type staticCred struct{}

func (staticCred) Method() domain.AuthMethod  { return domain.AuthMethodOAuth }
func (staticCred) Access() domain.AccessLevel { return domain.AccessReadWrite }
func (staticCred) Apply(*http.Request) error  { return nil }

// fakeAPI answers every status query with a processed video
type fakeAPI struct {
	calls int
}

func (f *fakeAPI) VideoStatus(ctx context.Context, videoID string) (*domain.VideoStatusSnapshot, error) {
	f.calls++
	return &domain.VideoStatusSnapshot{
		Found:            true,
		VideoID:          videoID,
		UploadStatus:     domain.UploadStatusUploaded,
		ProcessingStatus: domain.ProcessingPending,
	}, nil
}

func (f *fakeAPI) UploadsPlaylistID(ctx context.Context) (string, error) {
	return "UU_fake", nil
}

func (f *fakeAPI) PlaylistEntries(ctx context.Context, playlistID string, maxResults int) ([]PlaylistEntry, error) {
	return nil, nil
}

func testUploader(t *testing.T, baseURL string, api VideoAPI) *Uploader {
	t.Helper()
	cfg := &config.Config{
		UploadChunkSize:   8,
		HTTPClientTimeout: 5 * time.Second,
	}
	u := NewUploader(cfg, httpclient.NewHTTPClient(cfg), staticCred{}, api, nil, nil)
	u.uploadBaseURL = baseURL
	return u
}

func writeTestFile(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "video_001.mp4")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
	return path
}

// isFinalChunk reports whether the Content-Range header closes the transfer
func isFinalChunk(r *http.Request) bool {
	var start, end, total int64
	if _, err := fmt.Sscanf(r.Header.Get("Content-Range"), "bytes %d-%d/%d", &start, &end, &total); err != nil {
		return false
	}
	return end+1 == total
}

func TestUploadRecoversFromTransientServerErrors(t *testing.T) {
	putCalls := 0
	failures := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Header().Set("Location", "http://"+r.Host+"/session")
			w.WriteHeader(http.StatusOK)
			return
		}

		putCalls++
		if failures < 2 {
			failures++
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if isFinalChunk(r) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"id":"vid123"}`))
			return
		}
		w.WriteHeader(308)
	}))
	defer server.Close()

	api := &fakeAPI{}
	u := testUploader(t, server.URL, api)

	result := u.Upload(context.Background(), writeTestFile(t, 20), Metadata{Title: "t", Privacy: domain.PrivacyPrivate})

	require.NoError(t, result.Err)
	assert.True(t, result.Success)
	assert.Equal(t, "vid123", result.VideoID)
	assert.Equal(t, "https://www.youtube.com/watch?v=vid123", result.WatchURL)
	assert.True(t, result.Verified)
	assert.Equal(t, domain.UploadStatusUploaded, result.UploadStatus)
	assert.Equal(t, 1, api.calls)

	// 2 failed attempts for the first chunk, then 3 chunks of 8/8/4 bytes
	assert.Equal(t, 5, putCalls)
}

func TestUploadGivesUpAfterMaxAttempts(t *testing.T) {
	putCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Header().Set("Location", "http://"+r.Host+"/session")
			w.WriteHeader(http.StatusOK)
			return
		}
		putCalls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	u := testUploader(t, server.URL, &fakeAPI{})
	result := u.Upload(context.Background(), writeTestFile(t, 4), Metadata{Title: "t", Privacy: domain.PrivacyPrivate})

	assert.False(t, result.Success)
	require.Error(t, result.Err)
	assert.True(t, domain.IsKind(result.Err, domain.FaultRetryable))
	assert.Equal(t, maxUploadAttempts, putCalls)
}

func TestUploadAbortsImmediatelyOnClientError(t *testing.T) {
	putCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Header().Set("Location", "http://"+r.Host+"/session")
			w.WriteHeader(http.StatusOK)
			return
		}
		putCalls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	u := testUploader(t, server.URL, &fakeAPI{})
	result := u.Upload(context.Background(), writeTestFile(t, 4), Metadata{Title: "t"})

	assert.False(t, result.Success)
	require.Error(t, result.Err)
	assert.Equal(t, 1, putCalls, "non-retryable status must not be retried")
}

func TestUploadUnverifiableStatusIsAWarningNotAFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Header().Set("Location", "http://"+r.Host+"/session")
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"vid456"}`))
	}))
	defer server.Close()

	// the demo read client reports unknown IDs as not found
	u := testUploader(t, server.URL, NewDemoClient())
	result := u.Upload(context.Background(), writeTestFile(t, 4), Metadata{Title: "t"})

	require.NoError(t, result.Err)
	assert.True(t, result.Success)
	assert.Equal(t, "vid456", result.VideoID)
	assert.False(t, result.Verified)
	assert.Contains(t, result.Warning, "could not be verified")
}

func TestUploadChunksOutliveAPIBudget(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Header().Set("Location", "http://"+r.Host+"/session")
			w.WriteHeader(http.StatusOK)
			return
		}
		// a chunk transfer slower than the API budget must still finish
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"vid789"}`))
	}))
	defer server.Close()

	cfg := &config.Config{
		UploadChunkSize:   8,
		HTTPClientTimeout: 50 * time.Millisecond,
	}
	u := NewUploader(cfg, httpclient.NewHTTPClient(cfg), staticCred{}, &fakeAPI{}, nil, nil)
	u.uploadBaseURL = server.URL

	result := u.Upload(context.Background(), writeTestFile(t, 4), Metadata{Title: "t"})
	require.NoError(t, result.Err)
	assert.True(t, result.Success)
	assert.Equal(t, "vid789", result.VideoID)
}

func TestUploadChunksHonorUploadBudget(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Header().Set("Location", "http://"+r.Host+"/session")
			w.WriteHeader(http.StatusOK)
			return
		}
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"vid789"}`))
	}))
	defer server.Close()

	cfg := &config.Config{
		UploadChunkSize:   8,
		UploadTimeout:     50 * time.Millisecond,
		HTTPClientTimeout: 5 * time.Second,
	}
	u := NewUploader(cfg, httpclient.NewHTTPClient(cfg), staticCred{}, &fakeAPI{}, nil, nil)
	u.uploadBaseURL = server.URL

	result := u.Upload(context.Background(), writeTestFile(t, 4), Metadata{Title: "t"})
	assert.False(t, result.Success)
	require.Error(t, result.Err)
}

// sessionBody decodes the metadata payload of the session-opening POST
type sessionBody struct {
	Status struct {
		SelfDeclaredMadeForKids bool   `json:"selfDeclaredMadeForKids"`
		PrivacyStatus           string `json:"privacyStatus"`
	} `json:"status"`
	Snippet struct {
		CategoryID string `json:"categoryId"`
	} `json:"snippet"`
}

func TestUploadDeclaresKidsAudienceFromMetadata(t *testing.T) {
	var captured sessionBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			w.Header().Set("Location", "http://"+r.Host+"/session")
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"vid1"}`))
	}))
	defer server.Close()

	u := testUploader(t, server.URL, &fakeAPI{})
	result := u.Upload(context.Background(), writeTestFile(t, 4), Metadata{Title: "t", MadeForKids: true})

	require.NoError(t, result.Err)
	assert.True(t, captured.Status.SelfDeclaredMadeForKids)
}

func TestUploadShortsNeverDeclaredForKids(t *testing.T) {
	var captured sessionBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			w.Header().Set("Location", "http://"+r.Host+"/session")
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"vid1"}`))
	}))
	defer server.Close()

	cfg := &config.Config{
		UploadChunkSize:   8,
		HTTPClientTimeout: 5 * time.Second,
	}
	u := NewUploader(cfg, httpclient.NewHTTPClient(cfg), staticCred{}, &fakeAPI{},
		media.NewAnalyzer(cfg), nil)
	u.uploadBaseURL = server.URL

	result := u.UploadShorts(context.Background(), writeTestFile(t, 4), Metadata{Title: "t", MadeForKids: true})

	require.NoError(t, result.Err)
	assert.False(t, captured.Status.SelfDeclaredMadeForKids)
	assert.Equal(t, shortsCategoryID, captured.Snippet.CategoryID)
}

func TestUploadRejectsMissingFile(t *testing.T) {
	u := testUploader(t, "http://127.0.0.1:0", &fakeAPI{})
	result := u.Upload(context.Background(), "/nonexistent/video.mp4", Metadata{Title: "t"})

	assert.False(t, result.Success)
	assert.True(t, domain.IsKind(result.Err, domain.FaultValidation))
}

func TestUploadReadOnlyCredentialRefused(t *testing.T) {
	cfg := &config.Config{HTTPClientTimeout: time.Second}
	u := NewUploader(cfg, httpclient.NewHTTPClient(cfg), &apiKeyCredential{key: "k"}, &fakeAPI{}, nil, nil)

	result := u.Upload(context.Background(), writeTestFile(t, 4), Metadata{Title: "t"})

	assert.False(t, result.Success)
	assert.True(t, domain.IsKind(result.Err, domain.FaultAuth))
}

func TestDemoUploadNeverTouchesTheNetwork(t *testing.T) {
	// no server at all; any network call would fail loudly
	cfg := &config.Config{HTTPClientTimeout: time.Second}
	u := NewUploader(cfg, httpclient.NewHTTPClient(cfg), demoCredential{}, NewDemoClient(), nil, nil)

	result := u.Upload(context.Background(), "/nonexistent/video.mp4", Metadata{Title: "demo run"})

	require.NoError(t, result.Err)
	assert.True(t, result.Success)
	assert.True(t, result.Verified)
	assert.True(t, strings.HasPrefix(result.VideoID, "demo_"))
}
