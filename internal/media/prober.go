// Package media wraps the ffmpeg command-line tools for audio inspection
// and normalization. All real work happens in the external binaries.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Prober extracts metadata from audio files via ffprobe and can transcode
// them for speech recognition via ffmpeg.
type Prober struct {
	ffprobePath string
	ffmpegPath  string
}

func NewProber(ffprobePath, ffmpegPath string) *Prober {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Prober{ffprobePath: ffprobePath, ffmpegPath: ffmpegPath}
}

// Duration returns the audio duration in seconds. A missing binary or an
// unparseable file degrades to 0 with a warning, matching the pipeline's
// tolerance for unknown durations.
func (p *Prober) Duration(ctx context.Context, path string) float64 {
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		slog.Warn("ffprobe failed, duration unknown", "path", path, "error", err)
		return 0
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		slog.Warn("Could not parse ffprobe output", "path", path, "output", string(out))
		return 0
	}
	return duration
}

// Normalize transcodes the input to 16kHz mono mp3, the profile speech
// models expect, and returns the output path.
func (p *Prober) Normalize(ctx context.Context, inputPath string) (string, error) {
	ext := filepath.Ext(inputPath)
	outputPath := strings.TrimSuffix(inputPath, ext) + "_processed.mp3"

	cmd := exec.CommandContext(ctx, p.ffmpegPath,
		"-y",
		"-i", inputPath,
		"-ac", "1",
		"-ar", "16000",
		"-b:a", "64k",
		"-f", "mp3",
		outputPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg transcode failed: %w: %s", err, string(out))
	}
	return outputPath, nil
}
