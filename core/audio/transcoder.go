// Package audio wraps the external ffmpeg toolchain behind a narrow
// transcoder contract.
package audio

import "context"

// ProbeResult describes the audio stream of a source file.
type ProbeResult struct {
	BitrateKbps int
	Duration    float64 // seconds
}

// Transcoder is the contract the ingestion pipeline compresses and copies
// files through. Implementations block until the external process returns;
// callers bound the call with a context deadline.
type Transcoder interface {
	// Probe returns bitrate and duration of the file at path.
	Probe(ctx context.Context, path string) (ProbeResult, error)
	// Transcode compresses inputPath to outputPath at the target bitrate.
	// The output container format is forced to mp3.
	Transcode(ctx context.Context, inputPath, outputPath string, bitrateKbps int) error
	// Copy writes the source bytes verbatim to outputPath.
	Copy(inputPath, outputPath string) error
}
