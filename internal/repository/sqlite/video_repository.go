package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"douyin_youtube_tool/internal/domain"
)

const videoColumns = `id, source_url, feed_index, local_file_path, file_size, file_size_label,
	status, error_message, youtube_video_id, created_at, updated_at`

// VideoRepository is a SQLite implementation of domain.VideoRepository.
type VideoRepository struct {
	db *sql.DB
}

// NewVideoRepository creates a new VideoRepository backed by SQLite.
func NewVideoRepository(db *sql.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// GetByID returns a video by its internal ID.
func (r *VideoRepository) GetByID(id string) (*domain.Video, error) {
	row := r.db.QueryRow(`SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	return scanVideo(row)
}

// GetBySourceURL returns a video by its feed source URL.
func (r *VideoRepository) GetBySourceURL(sourceURL string) (*domain.Video, error) {
	row := r.db.QueryRow(`SELECT `+videoColumns+` FROM videos WHERE source_url = ?`, sourceURL)
	return scanVideo(row)
}

// GetPendingVideos returns pending videos up to limit ordered by oldest first.
func (r *VideoRepository) GetPendingVideos(limit int) ([]*domain.Video, error) {
	return r.queryVideos(`SELECT `+videoColumns+` FROM videos
		WHERE status = ? ORDER BY created_at ASC LIMIT ?`, domain.VideoStatusPending, normalizeLimit(limit))
}

// GetDownloadedVideos returns videos with a local file on disk.
func (r *VideoRepository) GetDownloadedVideos(limit int) ([]*domain.Video, error) {
	return r.queryVideos(`SELECT `+videoColumns+` FROM videos
		WHERE status = ? ORDER BY feed_index ASC LIMIT ?`, domain.VideoStatusDownloaded, normalizeLimit(limit))
}

// GetAll returns all known videos, newest first.
func (r *VideoRepository) GetAll(limit int) ([]*domain.Video, error) {
	return r.queryVideos(`SELECT `+videoColumns+` FROM videos
		ORDER BY created_at DESC LIMIT ?`, normalizeLimit(limit))
}

func (r *VideoRepository) queryVideos(query string, args ...any) ([]*domain.Video, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []*domain.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}

	return videos, rows.Err()
}

// Save inserts or updates a video.
func (r *VideoRepository) Save(video *domain.Video) error {
	now := time.Now().UTC()
	if video.ID == "" {
		video.ID = uuid.NewString()
		video.CreatedAt = now
	}
	if video.Status == "" {
		video.Status = domain.VideoStatusPending
	}
	video.UpdatedAt = now

	_, err := r.db.Exec(`INSERT INTO videos
		(id, source_url, feed_index, local_file_path, file_size, file_size_label,
			status, error_message, youtube_video_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_url = excluded.source_url,
			feed_index = excluded.feed_index,
			local_file_path = excluded.local_file_path,
			file_size = excluded.file_size,
			file_size_label = excluded.file_size_label,
			status = excluded.status,
			error_message = excluded.error_message,
			youtube_video_id = excluded.youtube_video_id,
			updated_at = excluded.updated_at`,
		video.ID, video.SourceURL, video.FeedIndex, video.LocalFilePath, video.FileSize,
		video.FileSizeLabel, string(video.Status), video.ErrorMessage, video.YouTubeVideoID,
		video.CreatedAt.UTC(), video.UpdatedAt.UTC())
	return err
}

// UpdateStatus updates the status and optional error message.
func (r *VideoRepository) UpdateStatus(id string, status domain.VideoStatus, errorMsg string) error {
	_, err := r.db.Exec(`UPDATE videos SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(status), errorMsg, time.Now().UTC(), id)
	return err
}

// UpdateFile records the downloaded file location and size.
func (r *VideoRepository) UpdateFile(id string, filePath string, size int64, sizeLabel string) error {
	_, err := r.db.Exec(`UPDATE videos SET local_file_path = ?, file_size = ?, file_size_label = ?, updated_at = ? WHERE id = ?`,
		filePath, size, sizeLabel, time.Now().UTC(), id)
	return err
}

// UpdateYouTubeID updates the YouTube video ID after upload.
func (r *VideoRepository) UpdateYouTubeID(id string, youtubeID string) error {
	_, err := r.db.Exec(`UPDATE videos SET youtube_video_id = ?, updated_at = ? WHERE id = ?`,
		youtubeID, time.Now().UTC(), id)
	return err
}

// normalizeLimit turns a non-positive limit into an effectively unbounded one.
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return -1 // SQLite treats a negative LIMIT as no limit
	}
	return limit
}

func scanVideo(scanner interface {
	Scan(dest ...any) error
}) (*domain.Video, error) {
	var video domain.Video
	var (
		localPath sql.NullString
		sizeLabel sql.NullString
		errorMsg  sql.NullString
		youtubeID sql.NullString
	)

	if err := scanner.Scan(
		&video.ID,
		&video.SourceURL,
		&video.FeedIndex,
		&localPath,
		&video.FileSize,
		&sizeLabel,
		&video.Status,
		&errorMsg,
		&youtubeID,
		&video.CreatedAt,
		&video.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if localPath.Valid {
		video.LocalFilePath = localPath.String
	}
	if sizeLabel.Valid {
		video.FileSizeLabel = sizeLabel.String
	}
	if errorMsg.Valid {
		video.ErrorMessage = errorMsg.String
	}
	if youtubeID.Valid {
		video.YouTubeVideoID = youtubeID.String
	}

	return &video, nil
}
