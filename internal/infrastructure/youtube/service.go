package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"douyin_youtube_tool/internal/domain"
	httpclient "douyin_youtube_tool/internal/infrastructure/http"
)

const defaultAPIBaseURL = "https://www.googleapis.com/youtube/v3"

// PlaylistEntry is one entry of the channel's uploads playlist
type PlaylistEntry struct {
	VideoID     string
	Title       string
	PublishedAt time.Time
}

// VideoAPI is the read surface of the remote video service. The demo client
// implements it without network access.
type VideoAPI interface {
	// VideoStatus fetches the authoritative state of one video. A removed
	// or never-existing video reports Found=false, not an error.
	VideoStatus(ctx context.Context, videoID string) (*domain.VideoStatusSnapshot, error)

	// UploadsPlaylistID resolves the authenticated channel's uploads playlist
	UploadsPlaylistID(ctx context.Context) (string, error)

	// PlaylistEntries lists playlist entries, newest first
	PlaylistEntries(ctx context.Context, playlistID string, maxResults int) ([]PlaylistEntry, error)
}

// Service talks to the YouTube Data API v3
type Service struct {
	client  *httpclient.HTTPClient
	cred    Credential
	baseURL string
}

// NewService creates a new YouTube read-API service for one credential.
func NewService(httpClient *httpclient.HTTPClient, cred Credential) *Service {
	return &Service{
		client:  httpClient,
		cred:    cred,
		baseURL: defaultAPIBaseURL,
	}
}

// videoListItem is the subset of a videos.list response item we consume
type videoListItem struct {
	ID      string `json:"id"`
	Snippet struct {
		Title       string    `json:"title"`
		PublishedAt time.Time `json:"publishedAt"`
		ChannelID   string    `json:"channelId"`
	} `json:"snippet"`
	Status struct {
		UploadStatus    string `json:"uploadStatus"`
		PrivacyStatus   string `json:"privacyStatus"`
		FailureReason   string `json:"failureReason"`
		RejectionReason string `json:"rejectionReason"`
		Embeddable      bool   `json:"embeddable"`
		License         string `json:"license"`
	} `json:"status"`
	ProcessingDetails struct {
		ProcessingStatus   string `json:"processingStatus"`
		ProcessingProgress struct {
			PartsProcessed string `json:"partsProcessed"`
			PartsTotal     string `json:"partsTotal"`
		} `json:"processingProgress"`
	} `json:"processingDetails"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
}

// VideoStatus implements VideoAPI.
func (s *Service) VideoStatus(ctx context.Context, videoID string) (*domain.VideoStatusSnapshot, error) {
	params := url.Values{}
	params.Set("part", "snippet,status,processingDetails,contentDetails")
	params.Set("id", videoID)

	var result struct {
		Items []videoListItem `json:"items"`
	}
	if err := s.doGet(ctx, "/videos", params, &result); err != nil {
		return nil, err
	}

	if len(result.Items) == 0 {
		return &domain.VideoStatusSnapshot{Found: false, VideoID: videoID}, nil
	}

	return snapshotFromItem(result.Items[0]), nil
}

func snapshotFromItem(item videoListItem) *domain.VideoStatusSnapshot {
	processed, _ := strconv.ParseInt(item.ProcessingDetails.ProcessingProgress.PartsProcessed, 10, 64)
	total, _ := strconv.ParseInt(item.ProcessingDetails.ProcessingProgress.PartsTotal, 10, 64)

	return &domain.VideoStatusSnapshot{
		Found:            true,
		VideoID:          item.ID,
		Title:            item.Snippet.Title,
		Privacy:          domain.PrivacyStatus(item.Status.PrivacyStatus),
		UploadStatus:     mapUploadStatus(item.Status.UploadStatus),
		ProcessingStatus: mapProcessingStatus(item.ProcessingDetails.ProcessingStatus),
		PartsProcessed:   processed,
		PartsTotal:       total,
		FailureReason:    item.Status.FailureReason,
		RejectionReason:  item.Status.RejectionReason,
		Embeddable:       item.Status.Embeddable,
		License:          item.Status.License,
		Duration:         item.ContentDetails.Duration,
		PublishedAt:      item.Snippet.PublishedAt,
		ChannelID:        item.Snippet.ChannelID,
	}
}

// UploadsPlaylistID implements VideoAPI for the authenticated channel.
func (s *Service) UploadsPlaylistID(ctx context.Context) (string, error) {
	params := url.Values{}
	params.Set("part", "contentDetails")
	params.Set("mine", "true")

	var result struct {
		Items []struct {
			ContentDetails struct {
				RelatedPlaylists struct {
					Uploads string `json:"uploads"`
				} `json:"relatedPlaylists"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := s.doGet(ctx, "/channels", params, &result); err != nil {
		return "", err
	}

	if len(result.Items) == 0 {
		return "", domain.NewFault(domain.FaultStructural, "resolve uploads playlist",
			fmt.Errorf("channel not found"))
	}
	return result.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

// PlaylistEntries implements VideoAPI.
func (s *Service) PlaylistEntries(ctx context.Context, playlistID string, maxResults int) ([]PlaylistEntry, error) {
	params := url.Values{}
	params.Set("part", "snippet,contentDetails")
	params.Set("playlistId", playlistID)
	params.Set("maxResults", strconv.Itoa(maxResults))

	var result struct {
		Items []struct {
			Snippet struct {
				Title       string    `json:"title"`
				PublishedAt time.Time `json:"publishedAt"`
			} `json:"snippet"`
			ContentDetails struct {
				VideoID          string    `json:"videoId"`
				VideoPublishedAt time.Time `json:"videoPublishedAt"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := s.doGet(ctx, "/playlistItems", params, &result); err != nil {
		return nil, err
	}

	entries := make([]PlaylistEntry, 0, len(result.Items))
	for _, item := range result.Items {
		publishedAt := item.ContentDetails.VideoPublishedAt
		if publishedAt.IsZero() {
			publishedAt = item.Snippet.PublishedAt
		}
		entries = append(entries, PlaylistEntry{
			VideoID:     item.ContentDetails.VideoID,
			Title:       item.Snippet.Title,
			PublishedAt: publishedAt,
		})
	}
	return entries, nil
}

// doGet issues an authorized GET and decodes the JSON response.
func (s *Service) doGet(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s%s?%s", s.baseURL, path, params.Encode()), nil)
	if err != nil {
		return err
	}
	if err := s.cred.Apply(req); err != nil {
		return err
	}

	resp, err := s.client.DoAPI(req)
	if err != nil {
		return domain.NewFault(domain.FaultTransport, "youtube api", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		kind := domain.FaultTransport
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			kind = domain.FaultAuth
		}
		return domain.NewFault(kind, "youtube api",
			fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewFault(domain.FaultStructural, "youtube api",
			fmt.Errorf("malformed response from %s: %w", path, err))
	}
	return nil
}

func mapUploadStatus(raw string) domain.UploadStatus {
	switch raw {
	case "uploaded":
		return domain.UploadStatusUploaded
	case "processed":
		return domain.UploadStatusProcessed
	case "failed":
		return domain.UploadStatusFailed
	case "rejected":
		return domain.UploadStatusRejected
	case "deleted":
		return domain.UploadStatusDeleted
	default:
		return domain.UploadStatusUnknown
	}
}

func mapProcessingStatus(raw string) domain.ProcessingStatus {
	switch raw {
	case "processing":
		return domain.ProcessingPending
	case "succeeded":
		return domain.ProcessingSucceeded
	case "failed":
		return domain.ProcessingFailed
	case "terminated":
		return domain.ProcessingTerminated
	default:
		return domain.ProcessingUnknown
	}
}
