// Command forge converts batches of audio files through ffmpeg.
package main
