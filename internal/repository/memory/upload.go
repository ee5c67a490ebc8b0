package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"douyin_youtube_tool/internal/domain"
)

// UploadRepository is an in-memory implementation of UploadRepository
type UploadRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.UploadRecord
}

// NewUploadRepository creates a new in-memory upload repository
func NewUploadRepository() *UploadRepository {
	return &UploadRepository{
		records: make(map[string]*domain.UploadRecord),
	}
}

// Save creates or updates an upload record
func (r *UploadRepository) Save(record *domain.UploadRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.NewString()
		record.CreatedAt = time.Now()
	}
	record.UpdatedAt = time.Now()

	r.records[record.ID] = record
	return nil
}

// GetByYouTubeID returns a record by its remote video ID
func (r *UploadRepository) GetByYouTubeID(youtubeID string) (*domain.UploadRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, record := range r.records {
		if record.YouTubeVideoID == youtubeID {
			return record, nil
		}
	}

	return nil, nil
}

// GetRecent returns the most recent records, newest first
func (r *UploadRepository) GetRecent(limit int) ([]*domain.UploadRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*domain.UploadRecord, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// UpdateProcessingStatus refreshes the observed processing state
func (r *UploadRepository) UpdateProcessingStatus(youtubeID string, status domain.ProcessingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, record := range r.records {
		if record.YouTubeVideoID == youtubeID {
			record.ProcessingStatus = status
			record.UpdatedAt = time.Now()
			return nil
		}
	}

	return nil
}
