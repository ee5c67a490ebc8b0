package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func analysisWith(v VideoInfo) *Analysis {
	return &Analysis{Video: v}
}

func TestShouldOptimize(t *testing.T) {
	tests := []struct {
		name string
		in   *Analysis
		want bool
	}{
		{"nil analysis", nil, false},
		{"excellent source untouched",
			analysisWith(VideoInfo{Quality: QualityExcellent, Codec: "vp9", Width: 999, Height: 777}), false},
		{"poor grade", analysisWith(VideoInfo{Quality: QualityPoor, Codec: "h264", Width: 1920, Height: 1080}), true},
		{"medium grade", analysisWith(VideoInfo{Quality: QualityMedium, Codec: "h264", Width: 1920, Height: 1080}), true},
		{"foreign codec", analysisWith(VideoInfo{Quality: QualityHigh, Codec: "vp9", Width: 1920, Height: 1080}), true},
		{"odd resolution", analysisWith(VideoInfo{Quality: QualityHigh, Codec: "h264", Width: 1440, Height: 1080}), true},
		{"vertical standard resolution",
			analysisWith(VideoInfo{Quality: QualityHigh, Codec: "h264", Width: 1080, Height: 1920}), false},
		{"good h265 1080p", analysisWith(VideoInfo{Quality: QualityHigh, Codec: "h265", Width: 1920, Height: 1080}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldOptimize(tt.in))
		})
	}
}

func TestOptimizedFileName(t *testing.T) {
	assert.Equal(t, "/tmp/video_001_optimized_yt.mp4", OptimizedFileName("/tmp/video_001.mp4"))
	assert.Equal(t, "clip_optimized_yt", OptimizedFileName("clip"))
}

func TestOptimalBitrate(t *testing.T) {
	assert.Equal(t, 8_000_000, optimalBitrate(1920, 1080, 30, 1.0))
	assert.Equal(t, 5_000_000, optimalBitrate(1280, 720, 24, 1.0))
	assert.Equal(t, 2_500_000, optimalBitrate(854, 480, 24, 1.0))
	assert.Equal(t, 1_000_000, optimalBitrate(640, 360, 24, 1.0))
	assert.Equal(t, 45_000_000, optimalBitrate(3840, 2160, 30, 1.0))

	// high frame rate scales the ladder entry by 1.5
	assert.Equal(t, 12_000_000, optimalBitrate(1920, 1080, 60, 1.0))

	// preset factor applies last
	assert.Equal(t, 9_600_000, optimalBitrate(1920, 1080, 30, 1.2))

	// vertical resolutions use the same pixel ladder
	assert.Equal(t, 8_000_000, optimalBitrate(1080, 1920, 30, 1.0))
}

func TestSettingsForFallsBackToYouTubeOptimized(t *testing.T) {
	assert.Equal(t, presets[PresetYouTubeOptimized], settingsFor(Preset("no_such_preset")))
	assert.Equal(t, presets[PresetHighQuality], settingsFor(PresetHighQuality))
}

func TestBuildFfmpegArgs(t *testing.T) {
	analysis := &Analysis{
		Video: VideoInfo{Width: 1920, Height: 1080, FPS: 30},
		Audio: &AudioInfo{Channels: 1},
	}
	args := buildFfmpegArgs("in.mp4", "out.mp4", settingsFor(PresetFastUpload), analysis)

	joined := ""
	for _, a := range args {
		joined += a + " "
	}
	assert.Contains(t, joined, "-i in.mp4")
	assert.Contains(t, joined, "-c:v h264")
	assert.Contains(t, joined, "-crf 23")
	assert.Contains(t, joined, "-preset fast")
	assert.Contains(t, joined, "-b:a 64000")
	assert.Contains(t, joined, "-b:v 8000000")
	assert.Contains(t, joined, "-movflags +faststart")
	assert.Equal(t, "out.mp4", args[len(args)-1])
}
