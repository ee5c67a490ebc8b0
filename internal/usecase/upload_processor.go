package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"douyin_youtube_tool/config"
	"douyin_youtube_tool/internal/domain"
	"douyin_youtube_tool/internal/infrastructure/media"
	"douyin_youtube_tool/internal/infrastructure/youtube"
	"douyin_youtube_tool/internal/logger"
)

// UploadMode selects the upload variant for a batch
type UploadMode string

const (
	UploadModeStandard  UploadMode = "standard"
	UploadModeOptimized UploadMode = "optimized"
	UploadModeShorts    UploadMode = "shorts"
)

// UploadRequest describes one upload batch
type UploadRequest struct {
	// Files are bare names or paths; resolution happens against Folder,
	// then the session download folder, then the path as given
	Files []string

	// Folder overrides the session download folder for resolution and
	// per-folder settings
	Folder string

	// Preset names a stored preset to use instead of the folder settings
	Preset string

	// Settings, when non-nil, overrides both preset and folder settings
	Settings *config.UploadSettings

	// Mode selects standard, optimized or shorts upload
	Mode UploadMode
}

// BatchSummary aggregates one upload batch
type BatchSummary struct {
	Attempted int
	Succeeded int
	Failed    int

	// NonPublic counts successful uploads whose privacy keeps them
	// invisible to viewers, surfaced so a "successful" batch of private
	// videos is never mistaken for published ones
	NonPublic int

	Results []*domain.UploadResult
}

// UploadProcessor runs upload batches over the session's credential.
type UploadProcessor struct {
	config     *config.Config
	session    *Session
	videoRepo  domain.VideoRepository
	uploadRepo domain.UploadRepository
	presets    *config.PresetStore
}

// NewUploadProcessor wires the upload pipeline.
func NewUploadProcessor(
	cfg *config.Config,
	session *Session,
	videoRepo domain.VideoRepository,
	uploadRepo domain.UploadRepository,
	presets *config.PresetStore,
) *UploadProcessor {
	return &UploadProcessor{
		config:     cfg,
		session:    session,
		videoRepo:  videoRepo,
		uploadRepo: uploadRepo,
		presets:    presets,
	}
}

// ResolveCandidates maps requested names to files on disk. Resolution order is
// the explicit folder, then the session download folder, then the name taken
// as a path. Unresolvable names are skipped with a log line, never fatal.
func (p *UploadProcessor) ResolveCandidates(folder string, names []string) []domain.UploadCandidate {
	dirs := make([]string, 0, 2)
	if folder != "" {
		dirs = append(dirs, folder)
	}
	if dir := p.session.DownloadDir(); dir != "" && dir != folder {
		dirs = append(dirs, dir)
	}

	candidates := make([]domain.UploadCandidate, 0, len(names))
	for _, name := range names {
		resolved := ""
		for _, dir := range dirs {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				resolved = path
				break
			}
		}
		if resolved == "" {
			if info, err := os.Stat(name); err == nil && !info.IsDir() {
				resolved = name
			}
		}
		if resolved == "" {
			logger.Warnf("upload candidate %q not found, skipping", name)
			continue
		}
		candidates = append(candidates, domain.UploadCandidate{
			Name:     filepath.Base(resolved),
			Path:     resolved,
			Included: true,
		})
	}
	return candidates
}

// UploadBatch uploads the requested files sequentially. A failing file never
// stops the rest; every attempt lands in the upload history.
func (p *UploadProcessor) UploadBatch(ctx context.Context, req UploadRequest, task *Task) (*BatchSummary, error) {
	uploader := p.session.Uploader()
	if uploader == nil {
		return nil, domain.NewFault(domain.FaultAuth, "upload batch",
			fmt.Errorf("not authenticated, log in first"))
	}
	if !p.session.Snapshot().Access.CanUpload() {
		return nil, domain.NewFault(domain.FaultAuth, "upload batch",
			fmt.Errorf("current credential is read-only; authenticate with OAuth to upload"))
	}

	settings, err := p.resolveSettings(req)
	if err != nil {
		return nil, err
	}

	candidates := p.ResolveCandidates(req.Folder, req.Files)
	if len(candidates) == 0 {
		return nil, domain.NewFault(domain.FaultValidation, "upload batch",
			fmt.Errorf("no uploadable files among %d requested", len(req.Files)))
	}

	mode := req.Mode
	if mode == "" {
		mode = UploadModeStandard
		if settings.ShortsMode {
			mode = UploadModeShorts
		}
	}

	summary := &BatchSummary{Results: make([]*domain.UploadResult, 0, len(candidates))}
	for i, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if task != nil {
			task.SetProgress(i, len(candidates), candidate.Name)
		}

		meta := p.metadataFor(candidate, settings)
		var result *domain.UploadResult
		switch mode {
		case UploadModeOptimized:
			result = uploader.UploadOptimized(ctx, candidate.Path, meta, media.Preset(settings.QualityPreset))
		case UploadModeShorts:
			result = uploader.UploadShorts(ctx, candidate.Path, meta)
		default:
			result = uploader.Upload(ctx, candidate.Path, meta)
		}

		summary.Attempted++
		summary.Results = append(summary.Results, result)
		p.recordAttempt(candidate, result)

		if result.Success {
			summary.Succeeded++
			if result.Privacy != domain.PrivacyPublic {
				summary.NonPublic++
			}
			logger.Infof("uploaded %s as %s (%s)", candidate.Name, result.VideoID, result.Privacy)
			if result.Warning != "" {
				logger.Warnf("%s: %s", candidate.Name, result.Warning)
			}
		} else {
			summary.Failed++
			logger.Errorf("upload of %s failed: %v", candidate.Name, result.Err)
		}

		if task != nil {
			task.SetProgress(i+1, len(candidates), candidate.Name)
		}
	}

	logger.Infof("upload batch finished: %d succeeded, %d failed of %d",
		summary.Succeeded, summary.Failed, summary.Attempted)
	if summary.NonPublic > 0 {
		logger.Infof("%d uploaded video(s) are not public; adjust privacy to publish them", summary.NonPublic)
	}
	return summary, nil
}

// resolveSettings picks the effective settings: explicit, named preset, or
// the folder's settings file.
func (p *UploadProcessor) resolveSettings(req UploadRequest) (config.UploadSettings, error) {
	if req.Settings != nil {
		return *req.Settings, nil
	}

	if req.Preset != "" {
		settings, ok, err := p.presets.Get(req.Preset)
		if err != nil {
			return config.UploadSettings{}, err
		}
		if !ok {
			return config.UploadSettings{}, domain.NewFault(domain.FaultValidation, "upload batch",
				fmt.Errorf("unknown preset %q", req.Preset))
		}
		return settings, nil
	}

	folder := req.Folder
	if folder == "" {
		folder = p.session.DownloadDir()
	}
	return config.LoadUploadSettings(folder)
}

func (p *UploadProcessor) metadataFor(candidate domain.UploadCandidate, settings config.UploadSettings) youtube.Metadata {
	privacy := domain.PrivacyStatus(strings.ToLower(settings.Privacy))
	return youtube.Metadata{
		Title:       settings.RenderTitle(candidate.Name),
		Description: settings.Description,
		Tags:        settings.TagList(),
		CategoryID:  settings.CategoryID,
		Privacy:     privacy,
		Language:    settings.Language,
		MadeForKids: settings.MadeForKids,
	}
}

// recordAttempt persists the attempt and links it back to the pipeline video
// when the file came from a download.
func (p *UploadProcessor) recordAttempt(candidate domain.UploadCandidate, result *domain.UploadResult) {
	now := time.Now()
	record := &domain.UploadRecord{
		ID:               uuid.NewString(),
		FilePath:         candidate.Path,
		YouTubeVideoID:   result.VideoID,
		Title:            result.Title,
		Privacy:          result.Privacy,
		Success:          result.Success,
		Verified:         result.Verified,
		ProcessingStatus: result.ProcessingStatus,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if result.Err != nil {
		record.ErrorMessage = result.Err.Error()
	}
	if err := p.uploadRepo.Save(record); err != nil {
		logger.Warnf("could not persist upload record for %s: %v", candidate.Name, err)
	}

	if !result.Success {
		return
	}
	videos, err := p.videoRepo.GetDownloadedVideos(0)
	if err != nil {
		return
	}
	for _, video := range videos {
		if video.LocalFilePath == candidate.Path {
			record.VideoID = video.ID
			_ = p.uploadRepo.Save(record)
			_ = p.videoRepo.UpdateYouTubeID(video.ID, result.VideoID)
			_ = p.videoRepo.UpdateStatus(video.ID, domain.VideoStatusCompleted, "")
			break
		}
	}
}
