package domain

// RequestTemplate is a reusable HTTP request derived from a pasted cURL command.
// Header keys are case-sensitive; duplicate flags follow last-write-wins.
type RequestTemplate struct {
	// URL is the request URL exactly as pasted
	URL string

	// Headers maps header name to value
	Headers map[string]string
}

// CookieHeader returns the Cookie header value, if any.
func (t *RequestTemplate) CookieHeader() string {
	return t.Headers["Cookie"]
}

// FeedCursor tracks pagination position for the feed endpoint
type FeedCursor struct {
	// MaxCursor is the opaque server-provided pagination token
	MaxCursor int64

	// Page is the 1-based page index
	Page int

	// HasMore reports whether the server claims more pages exist
	HasMore bool
}

// VideoReference is one discovered remote video awaiting download.
// Index is dense and 1-based within a single fetch session.
type VideoReference struct {
	// URL is the playable media URL, normalized to https
	URL string

	// Index is the 1-based discovery position, used for the local filename
	Index int
}

// DownloadedFile is a video fully persisted to local disk. It is only ever
// created after the complete response body was written.
type DownloadedFile struct {
	// Path is the absolute path of the written file
	Path string

	// Name is the generated filename (video_NNN.mp4)
	Name string

	// Size is the file size in bytes
	Size int64

	// SizeLabel is the human-readable size string
	SizeLabel string
}

// DownloadSummary accumulates per-item outcomes of one download batch
type DownloadSummary struct {
	// Attempted is the total number of references processed
	Attempted int

	// Succeeded is the number of fully written files
	Succeeded int

	// Failed is the number of per-item failures
	Failed int

	// Files lists the successfully downloaded files in discovery order
	Files []DownloadedFile
}
