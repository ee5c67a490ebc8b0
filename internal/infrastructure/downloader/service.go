package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/h2non/filetype"
	"github.com/pkg/errors"

	"douyin_youtube_tool/config"
	"douyin_youtube_tool/internal/domain"
	httpclient "douyin_youtube_tool/internal/infrastructure/http"
	"douyin_youtube_tool/internal/logger"
)

const (
	// itemDelay is the politeness pause after every attempt, success or not
	itemDelay = 1 * time.Second

	// sniffLength is how many leading bytes are inspected to confirm the
	// payload is actually a video and not an HTML block page
	sniffLength = 262

	// browserUserAgent and feedReferer make the CDN treat requests as a browser
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	feedReferer      = "https://www.douyin.com/"
)

// Service persists discovered video references to disk, strictly one at a
// time in discovery order. Sequential order is required for the positional
// filename scheme, not a throughput choice.
type Service struct {
	config      *config.Config
	httpClient  *httpclient.HTTPClient
	downloadDir string
}

// NewService creates a new download service
func NewService(cfg *config.Config, httpClient *httpclient.HTTPClient) (*Service, error) {
	if err := os.MkdirAll(cfg.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	return &Service{
		config:      cfg,
		httpClient:  httpClient,
		downloadDir: cfg.DownloadDir,
	}, nil
}

// Dir returns the directory files are written to.
func (s *Service) Dir() string {
	return s.downloadDir
}

// FileNameFor maps a 1-based discovery index to its local filename.
func FileNameFor(index int) string {
	return fmt.Sprintf("video_%03d.mp4", index)
}

// ItemOutcome reports the result of one download attempt
type ItemOutcome struct {
	Ref  domain.VideoReference
	File *domain.DownloadedFile
	Err  error
}

// DownloadAll drains the whole queue. Per-item failures are logged and
// counted, never aborting the remaining items; only cancellation stops the
// loop early. onItem, when set, observes every outcome in order.
func (s *Service) DownloadAll(ctx context.Context, refs []domain.VideoReference, onItem func(ItemOutcome)) domain.DownloadSummary {
	summary := domain.DownloadSummary{}

	for _, ref := range refs {
		if ctx.Err() != nil {
			logger.Warnf("download queue cancelled after %d of %d items", summary.Attempted, len(refs))
			break
		}

		summary.Attempted++
		file, err := s.DownloadOne(ctx, ref)
		if err != nil {
			summary.Failed++
			logger.Errorf("download %d/%d failed: %v", ref.Index, len(refs), err)
		} else {
			summary.Succeeded++
			summary.Files = append(summary.Files, *file)
			logger.Infof("download %d/%d finished: %s (%s)", ref.Index, len(refs), file.Name, file.SizeLabel)
		}

		if onItem != nil {
			onItem(ItemOutcome{Ref: ref, File: file, Err: err})
		}

		select {
		case <-time.After(itemDelay):
		case <-ctx.Done():
		}
	}

	logger.Infof("download queue drained: %d succeeded, %d failed", summary.Succeeded, summary.Failed)
	return summary
}

// DownloadOne streams a single reference to disk. The file is written to a
// temporary name and only renamed into place after the full body arrived and
// the payload sniffed as video, so a partial file is never observable.
func (s *Service) DownloadOne(ctx context.Context, ref domain.VideoReference) (*domain.DownloadedFile, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.config.DownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, ref.URL, nil)
	if err != nil {
		return nil, domain.NewFault(domain.FaultValidation, "download video", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Referer", feedReferer)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewFault(domain.FaultTransport, "download video", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewFault(domain.FaultTransport, "download video",
			errors.Errorf("unexpected status %d", resp.StatusCode))
	}

	name := FileNameFor(ref.Index)
	finalPath := filepath.Join(s.downloadDir, name)
	tempPath := finalPath + ".part"

	size, err := s.writeStream(tempPath, resp.Body)
	if err != nil {
		os.Remove(tempPath)
		return nil, domain.NewFault(domain.FaultTransport, "download video", err)
	}

	if err := s.sniffVideo(tempPath); err != nil {
		os.Remove(tempPath)
		return nil, err
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return nil, domain.NewFault(domain.FaultTransport, "download video",
			errors.Wrap(err, "finalize file"))
	}

	return &domain.DownloadedFile{
		Path:      finalPath,
		Name:      name,
		Size:      size,
		SizeLabel: humanize.Bytes(uint64(size)),
	}, nil
}

func (s *Service) writeStream(path string, body io.Reader) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(err, "create file")
	}
	defer file.Close()

	bufferSize := s.config.DownloadBufferSize
	if bufferSize <= 0 {
		bufferSize = 1024 * 1024
	}
	buffer := make([]byte, bufferSize)

	written, err := io.CopyBuffer(file, body, buffer)
	if err != nil {
		return written, errors.Wrap(err, "stream body")
	}
	return written, nil
}

// sniffVideo rejects payloads that are not video containers. CDNs answer
// expired links with HTML error pages and a 200 status.
func (s *Service) sniffVideo(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return domain.NewFault(domain.FaultTransport, "download video", err)
	}
	defer file.Close()

	head := make([]byte, sniffLength)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return domain.NewFault(domain.FaultStructural, "download video",
			errors.Wrap(err, "read file header"))
	}

	if !filetype.IsVideo(head[:n]) {
		return domain.NewFault(domain.FaultStructural, "download video",
			errors.New("payload is not a video"))
	}
	return nil
}

// CleanupOldDownloads removes downloaded files older than maxAge.
func (s *Service) CleanupOldDownloads(maxAge time.Duration) error {
	entries, err := os.ReadDir(s.downloadDir)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if now.Sub(info.ModTime()) > maxAge {
			if err := os.Remove(filepath.Join(s.downloadDir, entry.Name())); err != nil {
				continue
			}
		}
	}

	return nil
}
