package usecase

import (
	"sync"

	"douyin_youtube_tool/internal/domain"
	"douyin_youtube_tool/internal/infrastructure/youtube"
)

// Session is the single source of truth for interactive state: which
// credential is in effect, the chosen download folder, and the discovery ->
// download handoff lists. All mutation goes through methods; readers get
// copied snapshots, so no two operations race on shared fields.
type Session struct {
	mu sync.RWMutex

	cred     youtube.Credential
	api      youtube.VideoAPI
	uploader *youtube.Uploader

	downloadDir string
	references  []domain.VideoReference
	downloads   []domain.DownloadedFile
}

// Snapshot is an immutable view of the session
type Snapshot struct {
	AuthMethod  domain.AuthMethod
	Access      domain.AccessLevel
	DownloadDir string
	References  []domain.VideoReference
	Downloads   []domain.DownloadedFile
}

// NewSession creates an unauthenticated session rooted at the download folder.
func NewSession(downloadDir string) *Session {
	return &Session{downloadDir: downloadDir}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		AuthMethod:  domain.AuthMethodNone,
		DownloadDir: s.downloadDir,
		References:  append([]domain.VideoReference(nil), s.references...),
		Downloads:   append([]domain.DownloadedFile(nil), s.downloads...),
	}
	if s.cred != nil {
		snap.AuthMethod = s.cred.Method()
		snap.Access = s.cred.Access()
	}
	return snap
}

// SetAuthenticated installs the credential and the clients built from it.
// Exactly one authentication method is in effect per session.
func (s *Session) SetAuthenticated(cred youtube.Credential, api youtube.VideoAPI, uploader *youtube.Uploader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = cred
	s.api = api
	s.uploader = uploader
}

// ClearAuth returns the session to the unauthenticated state.
func (s *Session) ClearAuth() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	s.api = nil
	s.uploader = nil
}

// Authenticated reports whether a credential is in effect.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred != nil
}

// Credential returns the active credential, nil when unauthenticated.
func (s *Session) Credential() youtube.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred
}

// API returns the active read client, nil when unauthenticated.
func (s *Session) API() youtube.VideoAPI {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.api
}

// Uploader returns the active uploader, nil when unauthenticated.
func (s *Session) Uploader() *youtube.Uploader {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uploader
}

// DownloadDir returns the session's download folder.
func (s *Session) DownloadDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.downloadDir
}

// SetDownloadDir replaces the session's download folder.
func (s *Session) SetDownloadDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloadDir = dir
}

// SetReferences atomically replaces the discovered reference list.
func (s *Session) SetReferences(refs []domain.VideoReference) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.references = append([]domain.VideoReference(nil), refs...)
}

// SetDownloads atomically replaces the downloaded-file handoff list.
func (s *Session) SetDownloads(files []domain.DownloadedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloads = append([]domain.DownloadedFile(nil), files...)
}
