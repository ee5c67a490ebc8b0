package youtube

import (
	"strings"

	"douyin_youtube_tool/internal/domain"
	"douyin_youtube_tool/internal/infrastructure/media"
)

const (
	// Remote metadata limits
	maxTitleLength       = 100
	maxDescriptionLength = 5000
	maxTags              = 30

	truncationMarker = "..."

	defaultCategoryID = "22"
	shortsCategoryID  = "24"
	defaultLanguage   = "en"
)

// shortsTags are appended to every short-form upload before the tag cap
var shortsTags = []string{"Shorts", "YouTubeShorts", "Short", "Vertical", "QuickVideo", "Mobile"}

// Metadata is the caller-facing description of one upload
type Metadata struct {
	Title       string
	Description string
	Tags        []string
	CategoryID  string
	Privacy     domain.PrivacyStatus
	Language    string
	MadeForKids bool
}

// normalized returns a copy with limits applied and defaults filled.
func (m Metadata) normalized() Metadata {
	m.Title = TruncateTitle(m.Title)
	m.Description = TruncateDescription(m.Description)
	m.Tags = LimitTags(m.Tags)
	if m.CategoryID == "" {
		m.CategoryID = defaultCategoryID
	}
	if m.Language == "" {
		m.Language = defaultLanguage
	}
	if !m.Privacy.Valid() {
		m.Privacy = domain.PrivacyPrivate
	}
	return m
}

// TruncateTitle enforces the title limit. Truncation is idempotent: strings
// at or under the limit come back unchanged.
func TruncateTitle(title string) string {
	return truncate(title, maxTitleLength)
}

// TruncateDescription enforces the description limit.
func TruncateDescription(description string) string {
	return truncate(description, maxDescriptionLength)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-len(truncationMarker)]) + truncationMarker
}

// LimitTags keeps the first 30 tags.
func LimitTags(tags []string) []string {
	if len(tags) <= maxTags {
		return tags
	}
	return tags[:maxTags]
}

// ShapeForShorts rewrites metadata for a short-form upload: discovery tags,
// a #Shorts title suffix when missing, the promo description block and the
// short-form category. The compatibility verdict only changes result text,
// never the upload itself.
func ShapeForShorts(m Metadata, check media.ShortsCheck) Metadata {
	m.Tags = dedupeTags(append(m.Tags, shortsTags...))
	m.CategoryID = shortsCategoryID
	if m.Privacy == "" {
		m.Privacy = domain.PrivacyPublic
	}

	if !hasShortsKeyword(m.Title) {
		m.Title = m.Title + " #Shorts"
	}

	var b strings.Builder
	if m.Description != "" {
		b.WriteString(m.Description)
		b.WriteString("\n\n")
	}
	b.WriteString("📱 #Shorts #YouTubeShorts #Vertical\n")
	b.WriteString("🎬 Quick entertainment for mobile viewing\n")
	if check.Compatible {
		b.WriteString("✅ Optimized for YouTube Shorts\n")
	} else {
		b.WriteString("💡 Best viewed on mobile\n")
		if len(check.Recommendations) > 0 {
			b.WriteString("📝 Note: " + check.Recommendations[0] + "\n")
		}
	}
	m.Description = b.String()

	return m
}

func hasShortsKeyword(title string) bool {
	lower := strings.ToLower(title)
	for _, keyword := range []string{"shorts", "short", "#shorts"} {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func dedupeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return LimitTags(out)
}
