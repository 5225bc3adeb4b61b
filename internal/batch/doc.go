// Package batch drains the job queue through ffmpeg with a bounded worker
// pool, persisting per-job outcomes and reporting progress to a sink.
package batch
