package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"douyin_youtube_tool/internal/domain"
)

// VideoRepository is an in-memory implementation of VideoRepository
type VideoRepository struct {
	mu     sync.RWMutex
	videos map[string]*domain.Video
}

// NewVideoRepository creates a new in-memory video repository
func NewVideoRepository() *VideoRepository {
	return &VideoRepository{
		videos: make(map[string]*domain.Video),
	}
}

// GetByID returns a video by its internal ID
func (r *VideoRepository) GetByID(id string) (*domain.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	video, exists := r.videos[id]
	if !exists {
		return nil, nil
	}
	return video, nil
}

// GetBySourceURL returns a video by its feed source URL
func (r *VideoRepository) GetBySourceURL(sourceURL string) (*domain.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, video := range r.videos {
		if video.SourceURL == sourceURL {
			return video, nil
		}
	}

	return nil, nil
}

// GetPendingVideos returns videos waiting for download, oldest first
func (r *VideoRepository) GetPendingVideos(limit int) ([]*domain.Video, error) {
	return r.filter(limit, func(v *domain.Video) bool {
		return v.Status == domain.VideoStatusPending
	}, func(a, b *domain.Video) bool {
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

// GetDownloadedVideos returns videos with a local file on disk
func (r *VideoRepository) GetDownloadedVideos(limit int) ([]*domain.Video, error) {
	return r.filter(limit, func(v *domain.Video) bool {
		return v.Status == domain.VideoStatusDownloaded
	}, func(a, b *domain.Video) bool {
		return a.FeedIndex < b.FeedIndex
	})
}

// GetAll returns all known videos, newest first
func (r *VideoRepository) GetAll(limit int) ([]*domain.Video, error) {
	return r.filter(limit, func(v *domain.Video) bool {
		return true
	}, func(a, b *domain.Video) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func (r *VideoRepository) filter(limit int, keep func(*domain.Video) bool, less func(a, b *domain.Video) bool) ([]*domain.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var videos []*domain.Video
	for _, video := range r.videos {
		if keep(video) {
			videos = append(videos, video)
		}
	}
	sort.Slice(videos, func(i, j int) bool {
		return less(videos[i], videos[j])
	})

	if limit > 0 && len(videos) > limit {
		videos = videos[:limit]
	}
	return videos, nil
}

// Save creates or updates a video
func (r *VideoRepository) Save(video *domain.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if video.ID == "" {
		video.ID = uuid.NewString()
		video.CreatedAt = time.Now()
	}
	if video.Status == "" {
		video.Status = domain.VideoStatusPending
	}
	video.UpdatedAt = time.Now()

	r.videos[video.ID] = video
	return nil
}

// UpdateStatus updates the video status
func (r *VideoRepository) UpdateStatus(id string, status domain.VideoStatus, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	video, exists := r.videos[id]
	if !exists {
		return nil
	}

	video.Status = status
	video.ErrorMessage = errorMsg
	video.UpdatedAt = time.Now()

	return nil
}

// UpdateFile records the downloaded file location and size
func (r *VideoRepository) UpdateFile(id string, filePath string, size int64, sizeLabel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	video, exists := r.videos[id]
	if !exists {
		return nil
	}

	video.LocalFilePath = filePath
	video.FileSize = size
	video.FileSizeLabel = sizeLabel
	video.UpdatedAt = time.Now()

	return nil
}

// UpdateYouTubeID updates the YouTube video ID after upload
func (r *VideoRepository) UpdateYouTubeID(id string, youtubeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	video, exists := r.videos[id]
	if !exists {
		return nil
	}

	video.YouTubeVideoID = youtubeID
	video.UpdatedAt = time.Now()

	return nil
}
