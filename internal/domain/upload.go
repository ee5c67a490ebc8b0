package domain

import "time"

// PrivacyStatus represents the visibility of an uploaded video
type PrivacyStatus string

const (
	PrivacyPublic   PrivacyStatus = "public"
	PrivacyUnlisted PrivacyStatus = "unlisted"
	PrivacyPrivate  PrivacyStatus = "private"
)

// Valid reports whether the value is one of the accepted privacy statuses.
func (p PrivacyStatus) Valid() bool {
	switch p {
	case PrivacyPublic, PrivacyUnlisted, PrivacyPrivate:
		return true
	}
	return false
}

// UploadStatus is the remote service's upload state for a video
type UploadStatus string

const (
	UploadStatusUploaded  UploadStatus = "uploaded"
	UploadStatusProcessed UploadStatus = "processed"
	UploadStatusFailed    UploadStatus = "failed"
	UploadStatusRejected  UploadStatus = "rejected"
	UploadStatusDeleted   UploadStatus = "deleted"
	UploadStatusUnknown   UploadStatus = "unknown"
)

// ProcessingStatus is the remote service's processing state for a video
type ProcessingStatus string

const (
	ProcessingPending    ProcessingStatus = "processing"
	ProcessingSucceeded  ProcessingStatus = "succeeded"
	ProcessingFailed     ProcessingStatus = "failed"
	ProcessingTerminated ProcessingStatus = "terminated"
	ProcessingUnknown    ProcessingStatus = "unknown"
)

// UploadCandidate is a local file chosen for upload
type UploadCandidate struct {
	// Name is the bare filename
	Name string

	// Path is the resolved absolute path
	Path string

	// Included reports whether the candidate takes part in the next batch
	Included bool
}

// UploadResult is the immutable outcome of one upload attempt. A later status
// check produces a fresh snapshot; it never mutates an earlier result.
type UploadResult struct {
	// Success reports whether a remote video ID was obtained
	Success bool

	// VideoID is the remote video ID
	VideoID string

	// WatchURL is the canonical watch page URL
	WatchURL string

	// Title is the title the video was uploaded with
	Title string

	// Privacy is the privacy status requested for the upload
	Privacy PrivacyStatus

	// UploadStatus is the verified post-upload state, when verification ran
	UploadStatus UploadStatus

	// ProcessingStatus is the verified processing state, when verification ran
	ProcessingStatus ProcessingStatus

	// Verified reports whether the post-upload status query succeeded
	Verified bool

	// Warning carries a non-fatal message, e.g. when verification failed
	Warning string

	// ShortsReady reports whether the file met the short-form heuristic
	ShortsReady bool

	// Optimized reports whether a re-encoded file was uploaded instead of the original
	Optimized bool

	// Err is the failure, nil on success
	Err error
}

// VideoStatusSnapshot is the authoritative remote state of one video
type VideoStatusSnapshot struct {
	// Found is false when the video does not exist or was removed
	Found bool

	// VideoID is the remote video ID
	VideoID string

	// Title is the video title
	Title string

	// Privacy is the current privacy status
	Privacy PrivacyStatus

	// UploadStatus is the remote upload state
	UploadStatus UploadStatus

	// ProcessingStatus is the remote processing state
	ProcessingStatus ProcessingStatus

	// PartsProcessed and PartsTotal describe processing progress when available
	PartsProcessed int64
	PartsTotal     int64

	// FailureReason is set when the upload failed remotely
	FailureReason string

	// RejectionReason is set when the video was rejected
	RejectionReason string

	// Embeddable reports whether the video may be embedded
	Embeddable bool

	// License is the video license
	License string

	// Duration is the ISO-8601 content duration
	Duration string

	// PublishedAt is the publish timestamp
	PublishedAt time.Time

	// ChannelID is the owning channel
	ChannelID string
}

// UploadRecord persists one upload attempt
type UploadRecord struct {
	// ID is the unique identifier for the record
	ID string

	// VideoID is the internal video ID, when the upload came from the pipeline
	VideoID string

	// FilePath is the local file that was uploaded
	FilePath string

	// YouTubeVideoID is the remote video ID on success
	YouTubeVideoID string

	// Title is the final title after truncation
	Title string

	// Privacy is the requested privacy status
	Privacy PrivacyStatus

	// Success reports whether the upload obtained a remote ID
	Success bool

	// Verified reports whether post-upload verification succeeded
	Verified bool

	// ProcessingStatus is the last observed processing state
	ProcessingStatus ProcessingStatus

	// ErrorMessage contains the failure text, if any
	ErrorMessage string

	// CreatedAt is the timestamp of the attempt
	CreatedAt time.Time

	// UpdatedAt is the timestamp of the last status refresh
	UpdatedAt time.Time
}

// UploadRepository defines the interface for upload history operations
type UploadRepository interface {
	// Save creates or updates an upload record
	Save(record *UploadRecord) error

	// GetByYouTubeID returns a record by its remote video ID
	GetByYouTubeID(youtubeID string) (*UploadRecord, error)

	// GetRecent returns the most recent records, newest first
	GetRecent(limit int) ([]*UploadRecord, error)

	// UpdateProcessingStatus refreshes the observed processing state
	UpdateProcessingStatus(youtubeID string, status ProcessingStatus) error
}
