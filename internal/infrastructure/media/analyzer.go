package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"douyin_youtube_tool/config"
	"douyin_youtube_tool/internal/domain"
)

// QualityLevel is the overall technical quality bucket of a video file
type QualityLevel string

const (
	QualityPoor      QualityLevel = "poor"
	QualityLow       QualityLevel = "low"
	QualityMedium    QualityLevel = "medium"
	QualityHigh      QualityLevel = "high"
	QualityExcellent QualityLevel = "excellent"
)

const (
	// Short-form compatibility thresholds. These are policy values carried
	// over unchanged, not protocol requirements.
	shortsMaxDuration = 60.0
	shortsMinHeight   = 720

	probeTimeout = 30 * time.Second
)

// VideoInfo describes the primary video stream
type VideoInfo struct {
	Width    int
	Height   int
	FPS      float64
	Duration float64
	Bitrate  int64
	Codec    string
	Profile  string
	Quality  QualityLevel
}

// IsVertical reports portrait orientation.
func (v VideoInfo) IsVertical() bool {
	return v.Height > v.Width
}

// AudioInfo describes the primary audio stream
type AudioInfo struct {
	SampleRate int
	Channels   int
	Bitrate    int64
	Codec      string
}

// Analysis is the full probe result for one file
type Analysis struct {
	Video VideoInfo
	Audio *AudioInfo
}

// ShortsCheck is the short-form suitability verdict for one file. The
// verdict never blocks an upload; it only shapes result text.
type ShortsCheck struct {
	Compatible      bool
	Width           int
	Height          int
	Duration        float64
	Vertical        bool
	ShortDuration   bool
	ValidResolution bool
	Recommendations []string
}

// Analyzer inspects video files through ffprobe.
type Analyzer struct {
	config *config.Config
}

// NewAnalyzer creates a new media analyzer.
func NewAnalyzer(cfg *config.Config) *Analyzer {
	return &Analyzer{config: cfg}
}

// ffprobe JSON output subset
type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Profile    string `json:"profile"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
	BitRate    string `json:"bit_rate"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Analyze probes the file and grades its technical quality.
func (a *Analyzer) Analyze(ctx context.Context, path string) (*Analysis, error) {
	ffprobe, err := resolveBinary(a.config.FfprobePath, "ffprobe")
	if err != nil {
		return nil, domain.NewFault(domain.FaultTooling, "analyze video", err)
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, ffprobe,
		"-v", "quiet", "-print_format", "json",
		"-show_format", "-show_streams", path)

	out, err := cmd.Output()
	if err != nil {
		return nil, domain.NewFault(domain.FaultTooling, "analyze video",
			fmt.Errorf("ffprobe failed: %w", err))
	}

	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, domain.NewFault(domain.FaultStructural, "analyze video",
			fmt.Errorf("unexpected ffprobe output: %w", err))
	}

	var videoStream, audioStream *probeStream
	for i := range probe.Streams {
		s := &probe.Streams[i]
		switch s.CodecType {
		case "video":
			if videoStream == nil {
				videoStream = s
			}
		case "audio":
			if audioStream == nil {
				audioStream = s
			}
		}
	}
	if videoStream == nil {
		return nil, domain.NewFault(domain.FaultStructural, "analyze video",
			fmt.Errorf("no video stream found"))
	}

	duration, _ := strconv.ParseFloat(probe.Format.Duration, 64)
	bitrate, _ := strconv.ParseInt(videoStream.BitRate, 10, 64)
	fps := parseFPS(videoStream.RFrameRate)

	analysis := &Analysis{
		Video: VideoInfo{
			Width:    videoStream.Width,
			Height:   videoStream.Height,
			FPS:      fps,
			Duration: duration,
			Bitrate:  bitrate,
			Codec:    videoStream.CodecName,
			Profile:  videoStream.Profile,
			Quality:  gradeQuality(videoStream.Width, videoStream.Height, fps, bitrate),
		},
	}

	if audioStream != nil {
		sampleRate, _ := strconv.Atoi(audioStream.SampleRate)
		audioBitrate, _ := strconv.ParseInt(audioStream.BitRate, 10, 64)
		analysis.Audio = &AudioInfo{
			SampleRate: sampleRate,
			Channels:   audioStream.Channels,
			Bitrate:    audioBitrate,
			Codec:      audioStream.CodecName,
		}
	}

	return analysis, nil
}

// DetectShorts checks short-form suitability. Probe failures degrade to an
// incompatible verdict instead of an error.
func (a *Analyzer) DetectShorts(ctx context.Context, path string) ShortsCheck {
	analysis, err := a.Analyze(ctx, path)
	if err != nil {
		return ShortsCheck{
			Recommendations: []string{"could not analyze video properties"},
		}
	}
	return CheckShorts(analysis.Video)
}

// CheckShorts applies the short-form heuristic to known stream properties.
func CheckShorts(v VideoInfo) ShortsCheck {
	check := ShortsCheck{
		Width:           v.Width,
		Height:          v.Height,
		Duration:        v.Duration,
		Vertical:        v.IsVertical(),
		ShortDuration:   v.Duration <= shortsMaxDuration,
		ValidResolution: v.Height >= shortsMinHeight,
	}
	check.Compatible = check.Vertical && check.ShortDuration && check.ValidResolution

	if !check.Compatible {
		if !check.Vertical {
			check.Recommendations = append(check.Recommendations,
				"consider rotating to vertical (9:16)")
		}
		if !check.ShortDuration {
			check.Recommendations = append(check.Recommendations,
				fmt.Sprintf("duration %.1fs exceeds 60s, trim for short-form", v.Duration))
		}
		if !check.ValidResolution {
			check.Recommendations = append(check.Recommendations,
				"increase resolution to at least 720p")
		}
	}
	return check
}

func parseFPS(raw string) float64 {
	if raw == "" {
		return 0
	}
	if num, den, ok := strings.Cut(raw, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0
		}
		return n / d
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

// gradeQuality scores resolution, frame rate and bitrate into one bucket.
func gradeQuality(width, height int, fps float64, bitrate int64) QualityLevel {
	pixels := width * height

	var resScore int
	switch {
	case pixels >= 3840*2160:
		resScore = 5
	case pixels >= 1920*1080:
		resScore = 4
	case pixels >= 1280*720:
		resScore = 3
	case pixels >= 854*480:
		resScore = 2
	default:
		resScore = 1
	}

	var fpsScore int
	switch {
	case fps >= 60:
		fpsScore = 4
	case fps >= 30:
		fpsScore = 3
	case fps >= 24:
		fpsScore = 2
	default:
		fpsScore = 1
	}

	scores := []int{resScore, fpsScore}

	if bitrate > 0 {
		var bitrateScore int
		switch {
		case resScore == 5 && bitrate >= 45_000_000,
			resScore == 4 && bitrate >= 8_000_000,
			resScore == 3 && bitrate >= 5_000_000:
			bitrateScore = 5
		case bitrate >= 2_000_000:
			bitrateScore = 3
		case bitrate >= 1_000_000:
			bitrateScore = 2
		default:
			bitrateScore = 1
		}
		scores = append(scores, bitrateScore)
	}

	total := 0
	for _, s := range scores {
		total += s
	}
	avg := float64(total) / float64(len(scores))

	switch {
	case avg >= 4.5:
		return QualityExcellent
	case avg >= 3.5:
		return QualityHigh
	case avg >= 2.5:
		return QualityMedium
	case avg >= 1.5:
		return QualityLow
	default:
		return QualityPoor
	}
}
