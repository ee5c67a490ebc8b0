package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGradeQuality(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		height  int
		fps     float64
		bitrate int64
		want    QualityLevel
	}{
		{"4k high bitrate", 3840, 2160, 60, 50_000_000, QualityExcellent},
		{"1080p well encoded", 1920, 1080, 30, 8_000_000, QualityHigh},
		{"vertical 1080p typical feed bitrate", 1080, 1920, 30, 2_500_000, QualityMedium},
		{"720p mid bitrate", 1280, 720, 30, 2_000_000, QualityMedium},
		{"480p low bitrate", 854, 480, 24, 800_000, QualityLow},
		{"tiny old clip", 320, 240, 15, 300_000, QualityPoor},
		{"no bitrate reported", 1920, 1080, 30, 0, QualityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gradeQuality(tt.width, tt.height, tt.fps, tt.bitrate))
		})
	}
}

func TestParseFPS(t *testing.T) {
	assert.Equal(t, 30.0, parseFPS("30/1"))
	assert.InDelta(t, 29.97, parseFPS("30000/1001"), 0.01)
	assert.Equal(t, 25.0, parseFPS("25"))
	assert.Equal(t, 0.0, parseFPS(""))
	assert.Equal(t, 0.0, parseFPS("30/0"))
	assert.Equal(t, 0.0, parseFPS("abc"))
}

func TestCheckShortsCompatible(t *testing.T) {
	check := CheckShorts(VideoInfo{Width: 1080, Height: 1920, Duration: 45})

	assert.True(t, check.Compatible)
	assert.True(t, check.Vertical)
	assert.True(t, check.ShortDuration)
	assert.True(t, check.ValidResolution)
	assert.Empty(t, check.Recommendations)
}

func TestCheckShortsTooLong(t *testing.T) {
	check := CheckShorts(VideoInfo{Width: 1080, Height: 1920, Duration: 75})

	assert.False(t, check.Compatible)
	assert.True(t, check.Vertical)
	assert.False(t, check.ShortDuration)
	require := check.Recommendations
	assert.Len(t, require, 1)
	assert.Contains(t, require[0], "exceeds 60s")
}

func TestCheckShortsHorizontal(t *testing.T) {
	check := CheckShorts(VideoInfo{Width: 1920, Height: 1080, Duration: 30})

	assert.False(t, check.Compatible)
	assert.Contains(t, check.Recommendations[0], "vertical")
}

func TestCheckShortsLowResolution(t *testing.T) {
	check := CheckShorts(VideoInfo{Width: 360, Height: 640, Duration: 30})

	assert.False(t, check.Compatible)
	assert.Contains(t, check.Recommendations[0], "720p")
}
