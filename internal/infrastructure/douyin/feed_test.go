package douyin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"douyin_youtube_tool/config"
	"douyin_youtube_tool/internal/domain"
)

func testFetcher() *FeedFetcher {
	return NewFeedFetcher(&config.Config{DouyinRequestTimeout: 5 * time.Second})
}

func feedURL(server *httptest.Server) string {
	return server.URL + "/aweme/v1/web/aweme/post/?sec_user_id=ABC123"
}

func pageResponse(urls []string, hasMore bool, maxCursor int64) map[string]any {
	items := make([]map[string]any, 0, len(urls))
	for _, u := range urls {
		items = append(items, map[string]any{
			"video": map[string]any{
				"play_addr": map[string]any{
					"url_list": []string{u},
				},
			},
		})
	}
	return map[string]any{
		"aweme_list": items,
		"has_more":   hasMore,
		"max_cursor": maxCursor,
	}
}

func TestFetchAllStopsAtPageCap(t *testing.T) {
	pages := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		// server always claims there is more
		url := fmt.Sprintf("https://cdn.example.com/video%d.mp4", pages)
		_ = json.NewEncoder(w).Encode(pageResponse([]string{url}, true, int64(pages)))
	}))
	defer server.Close()

	tmpl := &domain.RequestTemplate{URL: feedURL(server), Headers: map[string]string{}}
	refs, err := testFetcher().FetchAll(context.Background(), tmpl)
	require.NoError(t, err)

	assert.Equal(t, 5, pages)
	assert.Len(t, refs, 5)
}

func TestFetchAllSkipsMalformedItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{
			"aweme_list": []map[string]any{
				{"video": map[string]any{"play_addr": map[string]any{"url_list": []string{"http://cdn.example.com/a.mp4"}}}},
				{"video": map[string]any{"play_addr": map[string]any{"url_list": []string{}}}},
				{"video": map[string]any{}},
				{"video": map[string]any{"play_addr": map[string]any{"url_list": []string{"https://cdn.example.com/b.mp4"}}}},
			},
			"has_more":   false,
			"max_cursor": int64(0),
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer server.Close()

	tmpl := &domain.RequestTemplate{URL: feedURL(server), Headers: map[string]string{}}
	refs, err := testFetcher().FetchAll(context.Background(), tmpl)
	require.NoError(t, err)

	require.Len(t, refs, 2)
	assert.Equal(t, 1, refs[0].Index)
	assert.Equal(t, "https://cdn.example.com/a.mp4", refs[0].URL, "play URL is upgraded to https")
	assert.Equal(t, 2, refs[1].Index)
	assert.Equal(t, "https://cdn.example.com/b.mp4", refs[1].URL)
}

func TestFetchAllForwardsTemplateHeaders(t *testing.T) {
	var gotAuth, gotCookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCookie = r.Header.Get("Cookie")
		_ = json.NewEncoder(w).Encode(pageResponse([]string{"https://cdn.example.com/a.mp4"}, false, 0))
	}))
	defer server.Close()

	tmpl := &domain.RequestTemplate{
		URL: feedURL(server),
		Headers: map[string]string{
			"Authorization": "Bearer xyz",
			"Cookie":        "session=1",
		},
	}
	_, err := testFetcher().FetchAll(context.Background(), tmpl)
	require.NoError(t, err)

	assert.Equal(t, "Bearer xyz", gotAuth)
	assert.Equal(t, "session=1", gotCookie)
}

func TestFetchAllTreatsServerErrorAsEndOfFeed(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_ = json.NewEncoder(w).Encode(pageResponse([]string{"https://cdn.example.com/a.mp4"}, true, 100))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	tmpl := &domain.RequestTemplate{URL: feedURL(server), Headers: map[string]string{}}
	refs, err := testFetcher().FetchAll(context.Background(), tmpl)

	// partial result, no error
	require.NoError(t, err)
	assert.Len(t, refs, 1)
}

func TestFetchAllRejectsWrongEndpoint(t *testing.T) {
	tmpl := &domain.RequestTemplate{URL: "https://www.douyin.com/some/other/path?sec_user_id=ABC"}
	_, err := testFetcher().FetchAll(context.Background(), tmpl)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.FaultValidation))
}

func TestFetchAllRejectsMissingSecUserID(t *testing.T) {
	tmpl := &domain.RequestTemplate{URL: "https://www.douyin.com/aweme/v1/web/aweme/post/"}
	_, err := testFetcher().FetchAll(context.Background(), tmpl)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.FaultValidation))
}

func TestFetchAllEndToEndSinglePage(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body := map[string]any{
			"aweme_list": []map[string]any{
				{"video": map[string]any{"play_addr": map[string]any{"url_list": []string{"https://cdn.example.com/play.mp4"}}}},
				{"video": map[string]any{"play_addr": map[string]any{}}},
			},
			"has_more":   false,
			"max_cursor": int64(0),
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer server.Close()

	command := fmt.Sprintf("curl '%s' -H 'Authorization: Bearer xyz'", feedURL(server))
	tmpl, err := ParseCurl(command)
	require.NoError(t, err)

	refs, err := testFetcher().FetchAll(context.Background(), tmpl)
	require.NoError(t, err)

	assert.Equal(t, "Bearer xyz", gotAuth)
	require.Len(t, refs, 1)
	assert.Equal(t, 1, refs[0].Index)
	assert.Equal(t, "https://cdn.example.com/play.mp4", refs[0].URL)
}
