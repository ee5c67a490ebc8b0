package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"douyin_youtube_tool/config"
	"douyin_youtube_tool/internal/domain"
	httpclient "douyin_youtube_tool/internal/infrastructure/http"
	"douyin_youtube_tool/internal/infrastructure/media"
	"douyin_youtube_tool/internal/logger"
)

const (
	defaultUploadBaseURL = "https://www.googleapis.com/upload/youtube/v3/videos"
	watchURLFormat       = "https://www.youtube.com/watch?v=%s"

	// maxUploadSize is the remote size ceiling
	maxUploadSize = 256 << 30

	// maxUploadAttempts bounds per-chunk retries on 5xx responses
	maxUploadAttempts = 5
)

// Uploader sends local files to the remote video service via the chunked
// resumable protocol.
type Uploader struct {
	config    *config.Config
	client    *httpclient.HTTPClient
	cred      Credential
	api       VideoAPI
	analyzer  *media.Analyzer
	optimizer *media.Optimizer

	// uploadBaseURL is swapped out in tests
	uploadBaseURL string
}

// NewUploader creates an uploader bound to one credential.
func NewUploader(cfg *config.Config, httpClient *httpclient.HTTPClient, cred Credential, api VideoAPI,
	analyzer *media.Analyzer, optimizer *media.Optimizer) *Uploader {
	return &Uploader{
		config:        cfg,
		client:        httpClient,
		cred:          cred,
		api:           api,
		analyzer:      analyzer,
		optimizer:     optimizer,
		uploadBaseURL: defaultUploadBaseURL,
	}
}

// uploadBody is the metadata payload of the insert call
type uploadBody struct {
	Snippet struct {
		Title                string   `json:"title"`
		Description          string   `json:"description"`
		Tags                 []string `json:"tags,omitempty"`
		CategoryID           string   `json:"categoryId"`
		DefaultLanguage      string   `json:"defaultLanguage"`
		DefaultAudioLanguage string   `json:"defaultAudioLanguage"`
	} `json:"snippet"`
	Status struct {
		PrivacyStatus           string `json:"privacyStatus"`
		Embeddable              bool   `json:"embeddable"`
		License                 string `json:"license"`
		PublicStatsViewable     bool   `json:"publicStatsViewable"`
		SelfDeclaredMadeForKids bool   `json:"selfDeclaredMadeForKids"`
	} `json:"status"`
}

// Upload sends the file with caller-supplied metadata, unchanged beyond the
// documented truncation limits. The returned result always states success or
// failure; an unverifiable post-upload status becomes a warning, never a
// silent unknown.
func (u *Uploader) Upload(ctx context.Context, filePath string, meta Metadata) *domain.UploadResult {
	return u.upload(ctx, filePath, meta.normalized())
}

// UploadOptimized re-encodes the source first when analysis says it is worth
// it. A failed or unavailable re-encode degrades to uploading the original;
// the temporary re-encoded file is removed after a successful upload.
func (u *Uploader) UploadOptimized(ctx context.Context, filePath string, meta Metadata, preset media.Preset) *domain.UploadResult {
	uploadPath := filePath
	optimized := false

	if u.cred.Method() != domain.AuthMethodDemo {
		analysis, err := u.analyzer.Analyze(ctx, filePath)
		switch {
		case err != nil:
			logger.Warnf("analysis unavailable, uploading original: %v", err)
		case !media.ShouldOptimize(analysis):
			logger.Infof("quality level %s needs no re-encode", analysis.Video.Quality)
		default:
			candidate := media.OptimizedFileName(filePath)
			if err := u.optimizer.Optimize(ctx, filePath, candidate, preset); err != nil {
				logger.Warnf("re-encode failed, uploading original: %v", err)
			} else {
				uploadPath = candidate
				optimized = true
			}
		}
	}

	result := u.upload(ctx, uploadPath, meta.normalized())
	result.Optimized = optimized

	if optimized && result.Success {
		if err := os.Remove(uploadPath); err != nil {
			logger.Warnf("could not remove temporary file %s: %v", uploadPath, err)
		}
	}
	return result
}

// UploadShorts reshapes the metadata for short-form discovery. The
// compatibility heuristic only affects the description and the result flag;
// it never blocks the upload.
func (u *Uploader) UploadShorts(ctx context.Context, filePath string, meta Metadata) *domain.UploadResult {
	check := media.ShortsCheck{}
	if u.cred.Method() != domain.AuthMethodDemo {
		check = u.analyzer.DetectShorts(ctx, filePath)
	}

	if meta.Privacy == "" {
		meta.Privacy = domain.PrivacyPublic
	}
	// Short-form uploads are never declared as made for kids
	meta.MadeForKids = false
	shaped := ShapeForShorts(meta, check).normalized()

	result := u.upload(ctx, filePath, shaped)
	result.ShortsReady = check.Compatible
	return result
}

func (u *Uploader) upload(ctx context.Context, filePath string, meta Metadata) *domain.UploadResult {
	if u.cred.Method() == domain.AuthMethodDemo {
		return u.demoUpload(meta)
	}

	if !u.cred.Access().CanUpload() {
		return failedResult(meta, domain.NewFault(domain.FaultAuth, "upload video",
			fmt.Errorf("%s credential is read-only; authenticate with OAuth to upload", u.cred.Method())))
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return failedResult(meta, domain.NewFault(domain.FaultValidation, "upload video",
			fmt.Errorf("file not found: %s", filePath)))
	}
	if info.Size() > maxUploadSize {
		return failedResult(meta, domain.NewFault(domain.FaultValidation, "upload video",
			fmt.Errorf("file is %d bytes, over the 256 GiB ceiling", info.Size())))
	}

	session, err := u.initiateSession(ctx, meta, info.Size())
	if err != nil {
		return failedResult(meta, err)
	}

	videoID, err := u.sendFile(ctx, session, filePath, info.Size())
	if err != nil {
		return failedResult(meta, err)
	}

	logger.Infof("upload finished, video id %s, verifying status", videoID)
	result := &domain.UploadResult{
		Success:  true,
		VideoID:  videoID,
		WatchURL: fmt.Sprintf(watchURLFormat, videoID),
		Title:    meta.Title,
		Privacy:  meta.Privacy,
	}

	snapshot, err := u.api.VideoStatus(ctx, videoID)
	if err != nil || snapshot == nil || !snapshot.Found {
		result.Verified = false
		result.Warning = "upload succeeded but its status could not be verified"
		if err != nil {
			result.Warning += ": " + err.Error()
		}
		return result
	}

	result.Verified = true
	result.UploadStatus = snapshot.UploadStatus
	result.ProcessingStatus = snapshot.ProcessingStatus
	return result
}

// initiateSession opens a resumable session and returns its upload URL.
func (u *Uploader) initiateSession(ctx context.Context, meta Metadata, size int64) (string, error) {
	var body uploadBody
	body.Snippet.Title = meta.Title
	body.Snippet.Description = meta.Description
	body.Snippet.Tags = meta.Tags
	body.Snippet.CategoryID = meta.CategoryID
	body.Snippet.DefaultLanguage = meta.Language
	body.Snippet.DefaultAudioLanguage = meta.Language
	body.Status.PrivacyStatus = string(meta.Privacy)
	body.Status.Embeddable = true
	body.Status.License = "youtube"
	body.Status.PublicStatsViewable = true
	body.Status.SelfDeclaredMadeForKids = meta.MadeForKids

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		u.uploadBaseURL+"?uploadType=resumable&part=snippet,status", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Type", "video/*")
	req.Header.Set("X-Upload-Content-Length", fmt.Sprintf("%d", size))
	if err := u.cred.Apply(req); err != nil {
		return "", err
	}

	resp, err := u.client.DoAPI(req)
	if err != nil {
		return "", domain.NewFault(domain.FaultTransport, "initiate upload", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", domain.NewFault(faultKindForStatus(resp.StatusCode), "initiate upload",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", domain.NewFault(domain.FaultStructural, "initiate upload",
			fmt.Errorf("no session URL in response"))
	}
	return location, nil
}

// sendFile streams the file chunk by chunk. Each chunk retries on 5xx with
// exponential backoff up to maxUploadAttempts; any other failure aborts
// immediately with the original error preserved. Cancellation is honored
// between chunks.
func (u *Uploader) sendFile(ctx context.Context, session, filePath string, size int64) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", domain.NewFault(domain.FaultValidation, "upload video", err)
	}
	defer file.Close()

	chunkSize := int64(u.config.UploadChunkSize)
	if chunkSize <= 0 {
		chunkSize = 8 * 1024 * 1024
	}

	var videoID string
	for offset := int64(0); offset < size; {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		end := offset + chunkSize
		if end > size {
			end = size
		}

		id, done, err := u.sendChunkWithRetry(ctx, session, file, offset, end, size)
		if err != nil {
			return "", err
		}
		if done {
			videoID = id
			break
		}
		offset = end
	}

	if videoID == "" {
		return "", domain.NewFault(domain.FaultStructural, "upload video",
			fmt.Errorf("transfer ended without a video id"))
	}
	return videoID, nil
}

func (u *Uploader) sendChunkWithRetry(ctx context.Context, session string, file *os.File, start, end, total int64) (string, bool, error) {
	var videoID string
	var done bool

	err := retry.Do(
		func() error {
			id, complete, err := u.sendChunk(ctx, session, file, start, end, total)
			if err != nil {
				return err
			}
			videoID, done = id, complete
			return nil
		},
		retry.Attempts(maxUploadAttempts),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(func(err error) bool {
			return domain.IsKind(err, domain.FaultRetryable)
		}),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	return videoID, done, err
}

func (u *Uploader) sendChunk(ctx context.Context, session string, file *os.File, start, end, total int64) (string, bool, error) {
	reader := io.NewSectionReader(file, start, end-start)

	// Each chunk gets the full upload budget; the short API budget never
	// applies to chunk transfers.
	if u.config.UploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.config.UploadTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, session, reader)
	if err != nil {
		return "", false, err
	}
	req.ContentLength = end - start
	req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end-1, total))
	if err := u.cred.Apply(req); err != nil {
		return "", false, err
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", false, domain.NewFault(domain.FaultTransport, "upload chunk", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var result struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil || result.ID == "" {
			return "", false, domain.NewFault(domain.FaultStructural, "upload chunk",
				fmt.Errorf("completed transfer carried no video id"))
		}
		return result.ID, true, nil

	case resp.StatusCode == 308:
		// Resume Incomplete: the chunk was accepted
		return "", false, nil

	case resp.StatusCode >= 500:
		return "", false, domain.NewFault(domain.FaultRetryable, "upload chunk",
			fmt.Errorf("server error %d", resp.StatusCode))

	default:
		return "", false, domain.NewFault(faultKindForStatus(resp.StatusCode), "upload chunk",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
}

// demoUpload fabricates a successful result without touching the network.
func (u *Uploader) demoUpload(meta Metadata) *domain.UploadResult {
	videoID := "demo_" + uuid.NewString()[:8]
	return &domain.UploadResult{
		Success:          true,
		VideoID:          videoID,
		WatchURL:         fmt.Sprintf(watchURLFormat, videoID),
		Title:            meta.Title,
		Privacy:          meta.Privacy,
		UploadStatus:     domain.UploadStatusUploaded,
		ProcessingStatus: domain.ProcessingSucceeded,
		Verified:         true,
	}
}

func failedResult(meta Metadata, err error) *domain.UploadResult {
	return &domain.UploadResult{
		Success: false,
		Title:   meta.Title,
		Privacy: meta.Privacy,
		Err:     err,
	}
}

func faultKindForStatus(status int) domain.FaultKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.FaultAuth
	case status >= 500:
		return domain.FaultRetryable
	default:
		return domain.FaultTransport
	}
}
