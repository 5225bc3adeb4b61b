// Package ffmpeg resolves the external FFmpeg binary, translates conversion
// settings into argument lists, and runs the tool while streaming progress.
// FFmpeg is treated as an opaque executable; exit status and captured output
// are the only feedback channels.
package ffmpeg
