package youtube

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"douyin_youtube_tool/internal/domain"
	"douyin_youtube_tool/internal/infrastructure/media"
)

func TestTruncateTitleAtLimitUnchanged(t *testing.T) {
	title := strings.Repeat("a", maxTitleLength)
	assert.Equal(t, title, TruncateTitle(title))
}

func TestTruncateTitleOneOverLimit(t *testing.T) {
	title := strings.Repeat("a", maxTitleLength+1)
	got := TruncateTitle(title)

	assert.LessOrEqual(t, len([]rune(got)), maxTitleLength)
	assert.True(t, strings.HasSuffix(got, truncationMarker))

	// truncation is idempotent
	assert.Equal(t, got, TruncateTitle(got))
}

func TestTruncateDescription(t *testing.T) {
	desc := strings.Repeat("b", maxDescriptionLength+50)
	got := TruncateDescription(desc)

	assert.Equal(t, maxDescriptionLength, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, truncationMarker))
	assert.Equal(t, got, TruncateDescription(got))
}

func TestTruncateTitleCountsRunes(t *testing.T) {
	title := strings.Repeat("🔥", maxTitleLength+1)
	got := TruncateTitle(title)
	assert.LessOrEqual(t, len([]rune(got)), maxTitleLength)
}

func TestLimitTags(t *testing.T) {
	tags := make([]string, maxTags+10)
	for i := range tags {
		tags[i] = fmt.Sprintf("tag%d", i)
	}
	assert.Len(t, LimitTags(tags), maxTags)

	short := []string{"a", "b"}
	assert.Equal(t, short, LimitTags(short))
}

func TestNormalizedFillsDefaults(t *testing.T) {
	meta := Metadata{Title: "hello"}.normalized()

	assert.Equal(t, defaultCategoryID, meta.CategoryID)
	assert.Equal(t, defaultLanguage, meta.Language)
	assert.Equal(t, domain.PrivacyPrivate, meta.Privacy)
}

func TestShapeForShortsAddsTitleSuffix(t *testing.T) {
	shaped := ShapeForShorts(Metadata{Title: "My Video"}, media.ShortsCheck{Compatible: true})
	assert.Equal(t, "My Video #Shorts", shaped.Title)
}

func TestShapeForShortsKeepsExistingKeyword(t *testing.T) {
	shaped := ShapeForShorts(Metadata{Title: "Daily Shorts compilation"}, media.ShortsCheck{Compatible: true})
	assert.Equal(t, "Daily Shorts compilation", shaped.Title)
}

func TestShapeForShortsCategoryAndTags(t *testing.T) {
	shaped := ShapeForShorts(Metadata{Title: "x", Tags: []string{"Shorts", "mine"}}, media.ShortsCheck{Compatible: true})

	assert.Equal(t, shortsCategoryID, shaped.CategoryID)
	assert.Equal(t, domain.PrivacyPublic, shaped.Privacy)

	// discovery tags are appended without duplicates
	counts := map[string]int{}
	for _, tag := range shaped.Tags {
		counts[tag]++
	}
	assert.Equal(t, 1, counts["Shorts"])
	assert.Equal(t, 1, counts["mine"])
	assert.Equal(t, 1, counts["Vertical"])
	assert.LessOrEqual(t, len(shaped.Tags), maxTags)
}

func TestShapeForShortsDescriptionCompatible(t *testing.T) {
	shaped := ShapeForShorts(Metadata{Title: "x", Description: "original"}, media.ShortsCheck{Compatible: true})

	assert.True(t, strings.HasPrefix(shaped.Description, "original\n\n"))
	assert.Contains(t, shaped.Description, "#Shorts #YouTubeShorts #Vertical")
	assert.Contains(t, shaped.Description, "Optimized for YouTube Shorts")
}

func TestShapeForShortsDescriptionIncompatible(t *testing.T) {
	check := media.ShortsCheck{
		Compatible:      false,
		Recommendations: []string{"crop to a vertical aspect ratio"},
	}
	shaped := ShapeForShorts(Metadata{Title: "x"}, check)

	assert.Contains(t, shaped.Description, "Best viewed on mobile")
	assert.Contains(t, shaped.Description, "crop to a vertical aspect ratio")
	assert.NotContains(t, shaped.Description, "Optimized for YouTube Shorts")
}
