package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"douyin_youtube_tool/config"
	"douyin_youtube_tool/internal/domain"
	"douyin_youtube_tool/internal/infrastructure/douyin"
	"douyin_youtube_tool/internal/infrastructure/downloader"
	"douyin_youtube_tool/internal/logger"
)

// DownloadProcessor runs the discovery and download pipeline: cURL text in,
// numbered files on disk out, with every reference tracked in the repository.
type DownloadProcessor struct {
	config     *config.Config
	fetcher    *douyin.FeedFetcher
	downloader *downloader.Service
	videoRepo  domain.VideoRepository
	session    *Session
}

// NewDownloadProcessor wires the pipeline.
func NewDownloadProcessor(
	cfg *config.Config,
	fetcher *douyin.FeedFetcher,
	dl *downloader.Service,
	videoRepo domain.VideoRepository,
	session *Session,
) *DownloadProcessor {
	return &DownloadProcessor{
		config:     cfg,
		fetcher:    fetcher,
		downloader: dl,
		videoRepo:  videoRepo,
		session:    session,
	}
}

// AnalyzeFeed parses the pasted cURL command, walks the feed and replaces the
// session's reference list with what it found. Every discovered reference is
// persisted as a pending video; re-analyzing the same feed reuses existing
// rows instead of duplicating them.
func (p *DownloadProcessor) AnalyzeFeed(ctx context.Context, curlText string) ([]domain.VideoReference, error) {
	tmpl, err := douyin.ParseCurl(curlText)
	if err != nil {
		return nil, err
	}

	refs, err := p.fetcher.FetchAll(ctx, tmpl)
	if err != nil {
		return nil, err
	}

	for _, ref := range refs {
		existing, err := p.videoRepo.GetBySourceURL(ref.URL)
		if err != nil {
			logger.Warnf("lookup for %s failed: %v", ref.URL, err)
			continue
		}
		if existing != nil {
			continue
		}
		now := time.Now()
		video := &domain.Video{
			ID:        uuid.NewString(),
			SourceURL: ref.URL,
			FeedIndex: ref.Index,
			Status:    domain.VideoStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := p.videoRepo.Save(video); err != nil {
			logger.Warnf("could not persist reference %d: %v", ref.Index, err)
		}
	}

	p.session.SetReferences(refs)
	logger.Infof("feed analysis finished: %d video references", len(refs))
	return refs, nil
}

// DownloadAll downloads every reference discovered by the last AnalyzeFeed.
// One failing item never stops the rest; per-item status lands in the
// repository and the resulting files land in the session for upload.
func (p *DownloadProcessor) DownloadAll(ctx context.Context, task *Task) (domain.DownloadSummary, error) {
	refs := p.session.Snapshot().References
	if len(refs) == 0 {
		return domain.DownloadSummary{}, domain.NewFault(domain.FaultValidation, "download",
			fmt.Errorf("no video references, analyze a feed first"))
	}

	for _, ref := range refs {
		if video, err := p.videoRepo.GetBySourceURL(ref.URL); err == nil && video != nil {
			_ = p.videoRepo.UpdateStatus(video.ID, domain.VideoStatusDownloading, "")
		}
	}

	onItem := func(outcome downloader.ItemOutcome) {
		if task != nil {
			task.SetProgress(outcome.Ref.Index, len(refs), downloader.FileNameFor(outcome.Ref.Index))
		}
		video, err := p.videoRepo.GetBySourceURL(outcome.Ref.URL)
		if err != nil || video == nil {
			return
		}
		if outcome.Err != nil {
			if err := p.videoRepo.UpdateStatus(video.ID, domain.VideoStatusFailed, outcome.Err.Error()); err != nil {
				logger.Warnf("could not mark video %s failed: %v", video.ID, err)
			}
			return
		}
		if err := p.videoRepo.UpdateFile(video.ID, outcome.File.Path, outcome.File.Size, outcome.File.SizeLabel); err != nil {
			logger.Warnf("could not record file for video %s: %v", video.ID, err)
		}
		if err := p.videoRepo.UpdateStatus(video.ID, domain.VideoStatusDownloaded, ""); err != nil {
			logger.Warnf("could not mark video %s downloaded: %v", video.ID, err)
		}
	}

	summary := p.downloader.DownloadAll(ctx, refs, onItem)
	p.session.SetDownloads(summary.Files)

	logger.Infof("download batch finished: %d succeeded, %d failed of %d",
		summary.Succeeded, summary.Failed, summary.Attempted)
	return summary, nil
}
