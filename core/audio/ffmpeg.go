package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/we-kode/mml.media/logger"
)

// FFmpegTranscoder implements the Transcoder interface using ffmpeg/ffprobe.
type FFmpegTranscoder struct {
	ffmpegPath string
}

// NewFFmpegTranscoder creates a new FFmpegTranscoder.
func NewFFmpegTranscoder(ffmpegPath string) *FFmpegTranscoder {
	return &FFmpegTranscoder{ffmpegPath: ffmpegPath}
}

// ffprobeOutput defines the structure for ffprobe JSON output.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
}

// Probe returns bitrate (kbps) and duration (seconds) of an audio file.
func (t *FFmpegTranscoder) Probe(ctx context.Context, path string) (ProbeResult, error) {
	ffprobePath := strings.Replace(t.ffmpegPath, "ffmpeg", "ffprobe", 1)

	args := []string{
		"-v", "error",
		"-show_entries", "format=duration,bit_rate",
		"-of", "json",
		path,
	}

	cmd := exec.CommandContext(ctx, ffprobePath, args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe execution failed for %s: %w: %s", path, err, stderr.String())
	}

	var probeData ffprobeOutput
	if err := json.Unmarshal(out.Bytes(), &probeData); err != nil {
		return ProbeResult{}, fmt.Errorf("failed to unmarshal ffprobe output: %w", err)
	}

	var result ProbeResult
	if probeData.Format.BitRate != "" {
		bitsPerSecond, err := strconv.Atoi(probeData.Format.BitRate)
		if err != nil {
			return ProbeResult{}, fmt.Errorf("unexpected ffprobe bit_rate %q: %w", probeData.Format.BitRate, err)
		}
		result.BitrateKbps = bitsPerSecond / 1000
	}
	if probeData.Format.Duration != "" {
		duration, err := strconv.ParseFloat(probeData.Format.Duration, 64)
		if err != nil {
			return ProbeResult{}, fmt.Errorf("unexpected ffprobe duration %q: %w", probeData.Format.Duration, err)
		}
		result.Duration = duration
	}

	return result, nil
}

// Transcode compresses inputPath to outputPath at the target bitrate with a
// forced mp3 output format.
func (t *FFmpegTranscoder) Transcode(ctx context.Context, inputPath, outputPath string, bitrateKbps int) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	args := []string{
		"-i", inputPath,
		"-b:a", fmt.Sprintf("%dk", bitrateKbps),
		"-f", "mp3",
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debug("Executing ffmpeg",
		logger.String("input", inputPath),
		logger.String("output", outputPath),
		logger.Int("bitrateKbps", bitrateKbps),
	)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg execution failed for %s: %w: %s", inputPath, err, stderr.String())
	}

	return nil
}

// Copy writes the source bytes verbatim to outputPath.
func (t *FFmpegTranscoder) Copy(inputPath, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", inputPath, err)
	}
	defer in.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outputPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", inputPath, outputPath, err)
	}

	return out.Sync()
}
