package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"douyin_youtube_tool/config"
	"douyin_youtube_tool/internal/domain"
	"douyin_youtube_tool/internal/logger"
	"douyin_youtube_tool/internal/usecase"
)

// Server exposes a lightweight REST API over the download and upload
// pipelines.
type Server struct {
	cfg         *config.Config
	session     *usecase.Session
	authManager *usecase.AuthManager
	downloads   *usecase.DownloadProcessor
	uploads     *usecase.UploadProcessor
	reporter    *usecase.StatusReporter
	videoRepo   domain.VideoRepository
	uploadRepo  domain.UploadRepository
	tasks       *usecase.TaskRegistry
	presets     *config.PresetStore
	server      *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(
	cfg *config.Config,
	session *usecase.Session,
	authManager *usecase.AuthManager,
	downloads *usecase.DownloadProcessor,
	uploads *usecase.UploadProcessor,
	reporter *usecase.StatusReporter,
	videoRepo domain.VideoRepository,
	uploadRepo domain.UploadRepository,
	tasks *usecase.TaskRegistry,
	presets *config.PresetStore,
) *Server {
	mux := http.NewServeMux()
	s := &Server{
		cfg:         cfg,
		session:     session,
		authManager: authManager,
		downloads:   downloads,
		uploads:     uploads,
		reporter:    reporter,
		videoRepo:   videoRepo,
		uploadRepo:  uploadRepo,
		tasks:       tasks,
		presets:     presets,
	}

	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/auth/logout", s.handleLogout)
	mux.HandleFunc("/api/auth/status", s.handleAuthStatus)
	mux.HandleFunc("/api/feed/analyze", s.handleAnalyzeFeed)
	mux.HandleFunc("/api/downloads", s.handleDownloads)
	mux.HandleFunc("/api/videos", s.handleVideos)
	mux.HandleFunc("/api/uploads", s.handleUploads)
	mux.HandleFunc("/api/uploads/recent", s.handleRecentUploadRecords)
	mux.HandleFunc("/api/status/videos/", s.handleVideoStatus)
	mux.HandleFunc("/api/status/recent", s.handleRecentStatus)
	mux.HandleFunc("/api/status/today", s.handleTodayStatus)
	mux.HandleFunc("/api/settings", s.handleSettings)
	mux.HandleFunc("/api/presets", s.handlePresets)
	mux.HandleFunc("/api/presets/", s.handlePresetActions)
	mux.HandleFunc("/api/tasks", s.handleTasks)
	mux.HandleFunc("/api/tasks/", s.handleTaskActions)

	s.server = &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: loggingMiddleware(mux),
	}
	return s
}

// Start begins serving HTTP requests in a separate goroutine.
func (s *Server) Start() error {
	if s.cfg.ServerPort == "" {
		return fmt.Errorf("server port is not configured")
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("http api server stopped with error: %v", err)
		}
	}()
	logger.Infof("HTTP API server listening on %s", s.server.Addr)
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var payload struct {
		Method string `json:"method"`
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		snap usecase.Snapshot
		err  error
	)
	switch payload.Method {
	case "oauth":
		snap, err = s.authManager.LoginOAuth(r.Context())
	case "api_key":
		snap, err = s.authManager.LoginAPIKey(r.Context(), payload.APIKey)
	case "demo":
		snap = s.authManager.LoginDemo()
	default:
		respondError(w, http.StatusBadRequest, "method must be oauth, api_key or demo")
		return
	}
	if err != nil {
		respondError(w, statusForFault(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, toAuthResponse(snap))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := s.authManager.Logout(); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	respondJSON(w, http.StatusOK, toAuthResponse(s.session.Snapshot()))
}

func (s *Server) handleAnalyzeFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var payload struct {
		Curl string `json:"curl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	refs, err := s.downloads.AnalyzeFeed(r.Context(), payload.Curl)
	if err != nil {
		respondError(w, statusForFault(err), err.Error())
		return
	}

	resp := make([]*referenceResponse, 0, len(refs))
	for _, ref := range refs {
		resp = append(resp, &referenceResponse{Index: ref.Index, URL: ref.URL})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"references": resp,
		"count":      len(resp),
	})
}

func (s *Server) handleDownloads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	task, taskCtx := s.tasks.Start(context.Background(), usecase.TaskDownload)
	go func() {
		summary, err := s.downloads.DownloadAll(taskCtx, task)
		if err != nil {
			task.Fail(err)
			return
		}
		task.SetProgress(summary.Attempted, summary.Attempted,
			fmt.Sprintf("%d succeeded, %d failed", summary.Succeeded, summary.Failed))
		task.Complete()
	}()

	respondJSON(w, http.StatusAccepted, task.Snapshot())
}

func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	videos, err := s.videoRepo.GetAll(queryLimit(r, 50))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]*videoResponse, 0, len(videos))
	for _, video := range videos {
		resp = append(resp, toVideoResponse(video))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"videos": resp,
		"count":  len(resp),
	})
}

func (s *Server) handleUploads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var payload struct {
		Files    []string               `json:"files"`
		Folder   string                 `json:"folder"`
		Preset   string                 `json:"preset"`
		Mode     string                 `json:"mode"`
		Settings *config.UploadSettings `json:"settings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(payload.Files) == 0 {
		respondError(w, http.StatusBadRequest, "files is required")
		return
	}

	req := usecase.UploadRequest{
		Files:    payload.Files,
		Folder:   payload.Folder,
		Preset:   payload.Preset,
		Settings: payload.Settings,
		Mode:     usecase.UploadMode(payload.Mode),
	}

	task, taskCtx := s.tasks.Start(context.Background(), usecase.TaskUpload)
	go func() {
		summary, err := s.uploads.UploadBatch(taskCtx, req, task)
		if err != nil {
			task.Fail(err)
			return
		}
		task.SetProgress(summary.Attempted, summary.Attempted,
			fmt.Sprintf("%d succeeded, %d failed", summary.Succeeded, summary.Failed))
		task.Complete()
	}()

	respondJSON(w, http.StatusAccepted, task.Snapshot())
}

func (s *Server) handleRecentUploadRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	records, err := s.uploadRepo.GetRecent(queryLimit(r, 20))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]*uploadRecordResponse, 0, len(records))
	for _, record := range records {
		resp = append(resp, toUploadRecordResponse(record))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"uploads": resp,
		"count":   len(resp),
	})
}

func (s *Server) handleVideoStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	videoID := strings.TrimPrefix(r.URL.Path, "/api/status/videos/")
	if videoID == "" || strings.Contains(videoID, "/") {
		http.NotFound(w, r)
		return
	}

	snapshot, err := s.reporter.CheckVideo(r.Context(), videoID)
	if err != nil {
		respondError(w, statusForFault(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, toStatusResponse(snapshot))
}

func (s *Server) handleRecentStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	snapshots, err := s.reporter.RecentUploads(r.Context(), queryLimit(r, 10))
	if err != nil {
		respondError(w, statusForFault(err), err.Error())
		return
	}
	respondStatusList(w, snapshots)
}

func (s *Server) handleTodayStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	snapshots, err := s.reporter.TodaysUploads(r.Context())
	if err != nil {
		respondError(w, statusForFault(err), err.Error())
		return
	}
	respondStatusList(w, snapshots)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	folder := r.URL.Query().Get("folder")
	if folder == "" {
		folder = s.session.DownloadDir()
	}

	switch r.Method {
	case http.MethodGet:
		settings, err := config.LoadUploadSettings(folder)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, settings)

	case http.MethodPut:
		var settings config.UploadSettings
		if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if settings.Privacy != "" && !domain.PrivacyStatus(settings.Privacy).Valid() {
			respondError(w, http.StatusBadRequest, "privacy must be public, unlisted or private")
			return
		}
		if err := config.SaveUploadSettings(folder, settings); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, settings)

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	presets, err := s.presets.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, presets)
}

func (s *Server) handlePresetActions(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/presets/")
	if name == "" || strings.Contains(name, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		settings, ok, err := s.presets.Get(name)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		respondJSON(w, http.StatusOK, settings)

	case http.MethodPut:
		var settings config.UploadSettings
		if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.presets.Save(name, settings); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, settings)

	case http.MethodDelete:
		if err := s.presets.Delete(name); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	respondJSON(w, http.StatusOK, s.tasks.List())
}

func (s *Server) handleTaskActions(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	if path == "" {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(path, "/")
	id := parts[0]

	if len(parts) == 1 && r.Method == http.MethodGet {
		task, ok := s.tasks.Get(id)
		if !ok {
			http.NotFound(w, r)
			return
		}
		respondJSON(w, http.StatusOK, task.Snapshot())
		return
	}

	if len(parts) == 2 && parts[1] == "cancel" && r.Method == http.MethodPost {
		if !s.tasks.Cancel(id) {
			http.NotFound(w, r)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
		return
	}

	http.NotFound(w, r)
}

func queryLimit(r *http.Request, fallback int) int {
	limit := fallback
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			if parsed > 100 {
				parsed = 100
			}
			limit = parsed
		}
	}
	return limit
}

// statusForFault maps fault kinds to HTTP status codes.
func statusForFault(err error) int {
	switch domain.KindOf(err) {
	case domain.FaultValidation:
		return http.StatusBadRequest
	case domain.FaultAuth:
		return http.StatusUnauthorized
	case domain.FaultStructural:
		return http.StatusBadGateway
	case domain.FaultTransport, domain.FaultRetryable:
		return http.StatusBadGateway
	case domain.FaultTooling:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondStatusList(w http.ResponseWriter, snapshots []*domain.VideoStatusSnapshot) {
	resp := make([]*statusResponse, 0, len(snapshots))
	for _, snapshot := range snapshots {
		resp = append(resp, toStatusResponse(snapshot))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"videos": resp,
		"count":  len(resp),
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Infof("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

type authResponse struct {
	Authenticated bool   `json:"authenticated"`
	Method        string `json:"method"`
	Access        string `json:"access,omitempty"`
	DownloadDir   string `json:"download_dir"`
	References    int    `json:"references"`
	Downloads     int    `json:"downloads"`
}

func toAuthResponse(snap usecase.Snapshot) *authResponse {
	return &authResponse{
		Authenticated: snap.AuthMethod != domain.AuthMethodNone,
		Method:        string(snap.AuthMethod),
		Access:        string(snap.Access),
		DownloadDir:   snap.DownloadDir,
		References:    len(snap.References),
		Downloads:     len(snap.Downloads),
	}
}

type referenceResponse struct {
	Index int    `json:"index"`
	URL   string `json:"url"`
}

type videoResponse struct {
	ID             string    `json:"id"`
	SourceURL      string    `json:"source_url"`
	FeedIndex      int       `json:"feed_index"`
	LocalFilePath  string    `json:"local_file_path,omitempty"`
	FileSize       int64     `json:"file_size,omitempty"`
	FileSizeLabel  string    `json:"file_size_label,omitempty"`
	Status         string    `json:"status"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	YouTubeVideoID string    `json:"youtube_video_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toVideoResponse(video *domain.Video) *videoResponse {
	return &videoResponse{
		ID:             video.ID,
		SourceURL:      video.SourceURL,
		FeedIndex:      video.FeedIndex,
		LocalFilePath:  video.LocalFilePath,
		FileSize:       video.FileSize,
		FileSizeLabel:  video.FileSizeLabel,
		Status:         string(video.Status),
		ErrorMessage:   video.ErrorMessage,
		YouTubeVideoID: video.YouTubeVideoID,
		CreatedAt:      video.CreatedAt,
		UpdatedAt:      video.UpdatedAt,
	}
}

type uploadRecordResponse struct {
	ID               string    `json:"id"`
	FilePath         string    `json:"file_path"`
	YouTubeVideoID   string    `json:"youtube_video_id,omitempty"`
	Title            string    `json:"title"`
	Privacy          string    `json:"privacy"`
	Success          bool      `json:"success"`
	Verified         bool      `json:"verified"`
	ProcessingStatus string    `json:"processing_status,omitempty"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toUploadRecordResponse(record *domain.UploadRecord) *uploadRecordResponse {
	return &uploadRecordResponse{
		ID:               record.ID,
		FilePath:         record.FilePath,
		YouTubeVideoID:   record.YouTubeVideoID,
		Title:            record.Title,
		Privacy:          string(record.Privacy),
		Success:          record.Success,
		Verified:         record.Verified,
		ProcessingStatus: string(record.ProcessingStatus),
		ErrorMessage:     record.ErrorMessage,
		CreatedAt:        record.CreatedAt,
		UpdatedAt:        record.UpdatedAt,
	}
}

type statusResponse struct {
	Found            bool      `json:"found"`
	VideoID          string    `json:"video_id"`
	Title            string    `json:"title,omitempty"`
	Privacy          string    `json:"privacy,omitempty"`
	UploadStatus     string    `json:"upload_status,omitempty"`
	ProcessingStatus string    `json:"processing_status,omitempty"`
	PartsProcessed   int64     `json:"parts_processed,omitempty"`
	PartsTotal       int64     `json:"parts_total,omitempty"`
	FailureReason    string    `json:"failure_reason,omitempty"`
	RejectionReason  string    `json:"rejection_reason,omitempty"`
	Duration         string    `json:"duration,omitempty"`
	PublishedAt      time.Time `json:"published_at,omitempty"`
}

func toStatusResponse(snapshot *domain.VideoStatusSnapshot) *statusResponse {
	return &statusResponse{
		Found:            snapshot.Found,
		VideoID:          snapshot.VideoID,
		Title:            snapshot.Title,
		Privacy:          string(snapshot.Privacy),
		UploadStatus:     string(snapshot.UploadStatus),
		ProcessingStatus: string(snapshot.ProcessingStatus),
		PartsProcessed:   snapshot.PartsProcessed,
		PartsTotal:       snapshot.PartsTotal,
		FailureReason:    snapshot.FailureReason,
		RejectionReason:  snapshot.RejectionReason,
		Duration:         snapshot.Duration,
		PublishedAt:      snapshot.PublishedAt,
	}
}
