// Package ffprobe inspects audio files through the ffprobe command so the
// queue can record source metadata and the runner can scale progress output.
package ffprobe
