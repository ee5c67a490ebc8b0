package douyin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"douyin_youtube_tool/config"
	"douyin_youtube_tool/internal/domain"
	"douyin_youtube_tool/internal/logger"
)

const (
	// maxFeedPages caps pagination regardless of what the server claims
	maxFeedPages = 5

	// pageDelay is a politeness pause between page fetches, not a backoff
	pageDelay = 1 * time.Second

	// feedPathMarker must appear in the endpoint path of a pasted command
	feedPathMarker = "aweme/v1/web/aweme/post"
)

// FeedFetcher pages through the aweme post endpoint and extracts playable
// video URLs.
type FeedFetcher struct {
	config *config.Config
	client *resty.Client
}

// NewFeedFetcher creates a feed fetcher with a cookie-aware client.
func NewFeedFetcher(cfg *config.Config) *FeedFetcher {
	jar, _ := cookiejar.New(nil)

	client := resty.New()
	client.SetTimeout(cfg.DouyinRequestTimeout)
	client.SetCookieJar(jar)

	return &FeedFetcher{
		config: cfg,
		client: client,
	}
}

// feedPage is the subset of the endpoint response the fetcher consumes
type feedPage struct {
	AwemeList []feedItem `json:"aweme_list"`
	HasMore   bool       `json:"has_more"`
	MaxCursor int64      `json:"max_cursor"`
}

type feedItem struct {
	Video struct {
		PlayAddr struct {
			URLList []string `json:"url_list"`
		} `json:"play_addr"`
	} `json:"video"`
}

// FetchAll walks the feed from cursor 0 and returns discovered references in
// discovery order. Transport and structural problems end the walk with the
// partial result rather than an error; only precondition violations fail.
func (f *FeedFetcher) FetchAll(ctx context.Context, tmpl *domain.RequestTemplate) ([]domain.VideoReference, error) {
	secUserID, err := validateFeedURL(tmpl.URL)
	if err != nil {
		return nil, err
	}

	var refs []domain.VideoReference
	cursor := domain.FeedCursor{HasMore: true}

	for page := 1; page <= maxFeedPages; page++ {
		if err := ctx.Err(); err != nil {
			return refs, err
		}

		pageURL, err := rewriteFeedURL(tmpl.URL, secUserID, cursor.MaxCursor)
		if err != nil {
			return nil, domain.NewFault(domain.FaultValidation, "fetch feed", err)
		}

		resp, err := f.client.R().
			SetContext(ctx).
			SetHeaders(tmpl.Headers).
			Get(pageURL)
		if err != nil {
			logger.Warnf("feed page %d request failed, stopping: %v", page, err)
			break
		}
		if resp.StatusCode() != http.StatusOK {
			logger.Warnf("feed page %d returned HTTP %d, stopping", page, resp.StatusCode())
			break
		}

		var body feedPage
		if err := json.Unmarshal(resp.Body(), &body); err != nil {
			logger.Warnf("feed page %d had an unexpected shape, treating as end of feed: %v", page, err)
			break
		}
		if len(body.AwemeList) == 0 {
			logger.Infof("feed page %d carried no items, end of feed", page)
			break
		}

		found := 0
		for _, item := range body.AwemeList {
			playURL, ok := extractPlayURL(item)
			if !ok {
				continue
			}
			refs = append(refs, domain.VideoReference{
				URL:   playURL,
				Index: len(refs) + 1,
			})
			found++
		}
		logger.WithFields(map[string]any{
			"page":  page,
			"items": len(body.AwemeList),
			"found": found,
		}).Info("feed page processed")

		cursor = domain.FeedCursor{
			MaxCursor: body.MaxCursor,
			Page:      page,
			HasMore:   body.HasMore,
		}
		if !cursor.HasMore {
			break
		}

		if page < maxFeedPages {
			select {
			case <-time.After(pageDelay):
			case <-ctx.Done():
				return refs, ctx.Err()
			}
		}
	}

	logger.Infof("feed walk finished with %d video references", len(refs))
	return refs, nil
}

// validateFeedURL checks the endpoint path and extracts the sec_user_id
// query parameter. Both are hard preconditions, not retryable conditions.
func validateFeedURL(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", domain.NewFault(domain.FaultValidation, "fetch feed",
			errors.Wrap(err, "invalid feed URL"))
	}
	if !strings.Contains(parsed.Path, feedPathMarker) {
		return "", domain.NewFault(domain.FaultValidation, "fetch feed",
			errors.Errorf("URL does not target the %s endpoint", feedPathMarker))
	}
	secUserID := parsed.Query().Get("sec_user_id")
	if secUserID == "" {
		return "", domain.NewFault(domain.FaultValidation, "fetch feed",
			errors.New("missing sec_user_id query parameter"))
	}
	return secUserID, nil
}

func rewriteFeedURL(raw, secUserID string, maxCursor int64) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set("sec_user_id", secUserID)
	query.Set("max_cursor", strconv.FormatInt(maxCursor, 10))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// extractPlayURL digs out the first playable URL of one feed item. Any
// structural miss skips the item without aborting the page.
func extractPlayURL(item feedItem) (string, bool) {
	list := item.Video.PlayAddr.URLList
	if len(list) == 0 {
		return "", false
	}
	return forceHTTPS(list[0]), true
}

func forceHTTPS(raw string) string {
	if strings.HasPrefix(raw, "http://") {
		return "https://" + strings.TrimPrefix(raw, "http://")
	}
	return raw
}
