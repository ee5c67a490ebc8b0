package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"douyin_youtube_tool/internal/domain"
)

const uploadColumns = `id, video_id, file_path, youtube_video_id, title, privacy,
	success, verified, processing_status, error_message, created_at, updated_at`

// UploadRepository is a SQLite implementation of domain.UploadRepository.
type UploadRepository struct {
	db *sql.DB
}

// NewUploadRepository creates a new UploadRepository backed by SQLite.
func NewUploadRepository(db *sql.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

// Save inserts or updates an upload record.
func (r *UploadRepository) Save(record *domain.UploadRecord) error {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	_, err := r.db.Exec(`INSERT INTO uploads
		(id, video_id, file_path, youtube_video_id, title, privacy,
			success, verified, processing_status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			video_id = excluded.video_id,
			file_path = excluded.file_path,
			youtube_video_id = excluded.youtube_video_id,
			title = excluded.title,
			privacy = excluded.privacy,
			success = excluded.success,
			verified = excluded.verified,
			processing_status = excluded.processing_status,
			error_message = excluded.error_message,
			updated_at = excluded.updated_at`,
		record.ID, record.VideoID, record.FilePath, record.YouTubeVideoID, record.Title,
		string(record.Privacy), record.Success, record.Verified, string(record.ProcessingStatus),
		record.ErrorMessage, record.CreatedAt.UTC(), record.UpdatedAt.UTC())
	return err
}

// GetByYouTubeID returns a record by its remote video ID.
func (r *UploadRepository) GetByYouTubeID(youtubeID string) (*domain.UploadRecord, error) {
	row := r.db.QueryRow(`SELECT `+uploadColumns+` FROM uploads WHERE youtube_video_id = ?`, youtubeID)
	return scanUpload(row)
}

// GetRecent returns the most recent records, newest first.
func (r *UploadRepository) GetRecent(limit int) ([]*domain.UploadRecord, error) {
	rows, err := r.db.Query(`SELECT `+uploadColumns+` FROM uploads
		ORDER BY created_at DESC LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.UploadRecord
	for rows.Next() {
		record, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// UpdateProcessingStatus refreshes the observed processing state.
func (r *UploadRepository) UpdateProcessingStatus(youtubeID string, status domain.ProcessingStatus) error {
	_, err := r.db.Exec(`UPDATE uploads SET processing_status = ?, updated_at = ? WHERE youtube_video_id = ?`,
		string(status), time.Now().UTC(), youtubeID)
	return err
}

func scanUpload(scanner interface {
	Scan(dest ...any) error
}) (*domain.UploadRecord, error) {
	var record domain.UploadRecord
	var (
		videoID    sql.NullString
		youtubeID  sql.NullString
		title      sql.NullString
		privacy    sql.NullString
		processing sql.NullString
		errorMsg   sql.NullString
	)

	if err := scanner.Scan(
		&record.ID,
		&videoID,
		&record.FilePath,
		&youtubeID,
		&title,
		&privacy,
		&record.Success,
		&record.Verified,
		&processing,
		&errorMsg,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if videoID.Valid {
		record.VideoID = videoID.String
	}
	if youtubeID.Valid {
		record.YouTubeVideoID = youtubeID.String
	}
	if title.Valid {
		record.Title = title.String
	}
	if privacy.Valid {
		record.Privacy = domain.PrivacyStatus(privacy.String)
	}
	if processing.Valid {
		record.ProcessingStatus = domain.ProcessingStatus(processing.String)
	}
	if errorMsg.Valid {
		record.ErrorMessage = errorMsg.String
	}

	return &record, nil
}
