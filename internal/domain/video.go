package domain

import "time"

// VideoStatus represents the processing status of a video
type VideoStatus string

const (
	// VideoStatusPending indicates the video was discovered and is waiting for download
	VideoStatusPending VideoStatus = "pending"

	// VideoStatusDownloading indicates the video is currently being downloaded
	VideoStatusDownloading VideoStatus = "downloading"

	// VideoStatusDownloaded indicates the video file is fully written to disk
	VideoStatusDownloaded VideoStatus = "downloaded"

	// VideoStatusUploading indicates the video is currently being uploaded
	VideoStatusUploading VideoStatus = "uploading"

	// VideoStatusCompleted indicates the video has been successfully uploaded
	VideoStatusCompleted VideoStatus = "completed"

	// VideoStatusFailed indicates the video processing failed
	VideoStatusFailed VideoStatus = "failed"
)

// Video represents one discovered feed video through its whole lifecycle
type Video struct {
	// ID is the unique identifier for the video
	ID string

	// SourceURL is the playable media URL extracted from the feed
	SourceURL string

	// FeedIndex is the 1-based position within the discovery session
	FeedIndex int

	// LocalFilePath is the local path where the video is downloaded
	LocalFilePath string

	// FileSize is the size of the downloaded file in bytes
	FileSize int64

	// FileSizeLabel is the human-readable size string
	FileSizeLabel string

	// Status is the current processing status
	Status VideoStatus

	// ErrorMessage contains error details if processing failed
	ErrorMessage string

	// YouTubeVideoID is the YouTube video ID after upload
	YouTubeVideoID string

	// CreatedAt is the timestamp when the video was discovered
	CreatedAt time.Time

	// UpdatedAt is the timestamp when the video was last updated
	UpdatedAt time.Time
}

// VideoRepository defines the interface for video data operations
type VideoRepository interface {
	// GetByID returns a video by its internal ID
	GetByID(id string) (*Video, error)

	// GetBySourceURL returns a video by its feed source URL
	GetBySourceURL(sourceURL string) (*Video, error)

	// GetPendingVideos returns videos waiting for download, oldest first
	GetPendingVideos(limit int) ([]*Video, error)

	// GetDownloadedVideos returns videos with a local file on disk
	GetDownloadedVideos(limit int) ([]*Video, error)

	// GetAll returns all known videos, newest first
	GetAll(limit int) ([]*Video, error)

	// Save creates or updates a video
	Save(video *Video) error

	// UpdateStatus updates the video status
	UpdateStatus(id string, status VideoStatus, errorMsg string) error

	// UpdateFile records the downloaded file location and size
	UpdateFile(id string, filePath string, size int64, sizeLabel string) error

	// UpdateYouTubeID updates the YouTube video ID after upload
	UpdateYouTubeID(id string, youtubeID string) error
}
