package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"douyin_youtube_tool/config"
	"douyin_youtube_tool/internal/domain"
	"douyin_youtube_tool/internal/logger"
)

// Preset names a fixed encoder-parameter bundle
type Preset string

const (
	PresetHighQuality      Preset = "high_quality"
	PresetYouTubeOptimized Preset = "youtube_optimized"
	PresetFastUpload       Preset = "fast_upload"
)

type presetSettings struct {
	crf           int
	speed         string
	bitrateFactor float64
}

var presets = map[Preset]presetSettings{
	PresetHighQuality:      {crf: 18, speed: "slow", bitrateFactor: 1.5},
	PresetYouTubeOptimized: {crf: 20, speed: "medium", bitrateFactor: 1.2},
	PresetFastUpload:       {crf: 23, speed: "fast", bitrateFactor: 1.0},
}

// settingsFor falls back to the youtube_optimized preset for unknown names.
func settingsFor(preset Preset) presetSettings {
	if s, ok := presets[preset]; ok {
		return s
	}
	return presets[PresetYouTubeOptimized]
}

// standardResolutions lists the resolutions that skip re-encoding, vertical
// formats included.
var standardResolutions = map[[2]int]bool{
	{1920, 1080}: true,
	{1280, 720}:  true,
	{854, 480}:   true,
	{640, 360}:   true,
	{1080, 1920}: true,
	{720, 1280}:  true,
}

// Optimizer re-encodes files for upload through ffmpeg.
type Optimizer struct {
	config   *config.Config
	analyzer *Analyzer
}

// NewOptimizer creates a new optimizer sharing the given analyzer.
func NewOptimizer(cfg *config.Config, analyzer *Analyzer) *Optimizer {
	return &Optimizer{config: cfg, analyzer: analyzer}
}

// ShouldOptimize decides whether a re-encode is worth running. Excellent
// sources are never re-encoded; poor-to-medium grades, non-h264/h265 codecs
// and non-standard resolutions are.
func ShouldOptimize(analysis *Analysis) bool {
	if analysis == nil {
		return false
	}
	v := analysis.Video

	if v.Quality == QualityExcellent {
		return false
	}
	switch v.Quality {
	case QualityPoor, QualityLow, QualityMedium:
		return true
	}

	if v.Codec != "h264" && v.Codec != "h265" {
		return true
	}
	if !standardResolutions[[2]int{v.Width, v.Height}] {
		return true
	}
	return false
}

// OptimizedFileName derives the temporary output name for a source file.
func OptimizedFileName(original string) string {
	ext := filepath.Ext(original)
	return strings.TrimSuffix(original, ext) + "_optimized_yt" + ext
}

// Optimize re-encodes input into output with the named preset. The input is
// left untouched. Failures surface as tooling faults so callers can degrade
// to uploading the original.
func (o *Optimizer) Optimize(ctx context.Context, input, output string, preset Preset) error {
	ffmpeg, err := resolveBinary(o.config.FfmpegPath, "ffmpeg")
	if err != nil {
		return domain.NewFault(domain.FaultTooling, "optimize video", err)
	}

	analysis, err := o.analyzer.Analyze(ctx, input)
	if err != nil {
		return err
	}

	args := buildFfmpegArgs(input, output, settingsFor(preset), analysis)
	logger.Infof("optimizing %s with preset %s", filepath.Base(input), preset)
	logger.Debugf("ffmpeg args: %s", strings.Join(args, " "))

	encodeCtx, cancel := context.WithTimeout(ctx, o.config.OptimizeTimeout)
	defer cancel()

	cmd := exec.CommandContext(encodeCtx, ffmpeg, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(output)
		if encodeCtx.Err() == context.DeadlineExceeded {
			return domain.NewFault(domain.FaultTooling, "optimize video",
				fmt.Errorf("re-encode exceeded %s", o.config.OptimizeTimeout))
		}
		return domain.NewFault(domain.FaultTooling, "optimize video",
			fmt.Errorf("ffmpeg failed: %w: %s", err, tail(stderr.String(), 512)))
	}

	if _, err := os.Stat(output); err != nil {
		return domain.NewFault(domain.FaultTooling, "optimize video",
			fmt.Errorf("output file was not created"))
	}
	return nil
}

func buildFfmpegArgs(input, output string, s presetSettings, analysis *Analysis) []string {
	args := []string{"-y", "-i", input}

	args = append(args,
		"-c:v", "h264",
		"-preset", s.speed,
		"-crf", strconv.Itoa(s.crf),
		"-profile:v", "high",
		"-level", "4.0",
		"-pix_fmt", "yuv420p",
	)

	// Audio bitrate scales with the channel layout
	channels := 2
	if analysis.Audio != nil && analysis.Audio.Channels > 0 {
		channels = analysis.Audio.Channels
	}
	audioBitrate := 128_000
	switch {
	case channels == 1:
		audioBitrate = 64_000
	case channels > 2:
		audioBitrate = 256_000
	}
	args = append(args,
		"-c:a", "aac",
		"-b:a", strconv.Itoa(int(float64(audioBitrate)*s.bitrateFactor)),
		"-ar", "48000",
	)

	target := optimalBitrate(analysis.Video.Width, analysis.Video.Height, analysis.Video.FPS, s.bitrateFactor)
	args = append(args,
		"-b:v", strconv.Itoa(target),
		"-maxrate", strconv.Itoa(int(float64(target)*1.2)),
		"-bufsize", strconv.Itoa(target*2),
	)

	args = append(args,
		"-movflags", "+faststart",
		"-avoid_negative_ts", "make_zero",
		output,
	)
	return args
}

// optimalBitrate picks a resolution-based bitrate ladder entry, scaled for
// high frame rates and the preset factor.
func optimalBitrate(width, height int, fps, factor float64) int {
	pixels := width * height

	var base int
	switch {
	case pixels >= 3840*2160:
		base = 45_000_000
	case pixels >= 1920*1080:
		base = 8_000_000
	case pixels >= 1280*720:
		base = 5_000_000
	case pixels >= 854*480:
		base = 2_500_000
	default:
		base = 1_000_000
	}

	if fps > 30 {
		base = int(float64(base) * 1.5)
	}
	return int(float64(base) * factor)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
