package queue

import (
	"database/sql"
	"errors"
	"time"
)

const jobColumns = "id, run_id, source_path, output_dir, output_path, preset_name, settings_json, status, exit_code, error_message, log_tail, progress_percent, progress_message, source_size, source_duration_ms, created_at, updated_at, started_at, finished_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id              int64
		runID           sql.NullString
		sourcePath      string
		outputDir       string
		outputPath      sql.NullString
		presetName      sql.NullString
		settingsJSON    string
		statusStr       string
		exitCode        sql.NullInt64
		errorMessage    sql.NullString
		logTail         sql.NullString
		progressPercent sql.NullFloat64
		progressMessage sql.NullString
		sourceSize      sql.NullInt64
		durationMS      sql.NullInt64
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
		startedRaw      sql.NullString
		finishedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&runID,
		&sourcePath,
		&outputDir,
		&outputPath,
		&presetName,
		&settingsJSON,
		&statusStr,
		&exitCode,
		&errorMessage,
		&logTail,
		&progressPercent,
		&progressMessage,
		&sourceSize,
		&durationMS,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:               id,
		RunID:            runID.String,
		SourcePath:       sourcePath,
		OutputDir:        outputDir,
		OutputPath:       outputPath.String,
		PresetName:       presetName.String,
		SettingsJSON:     settingsJSON,
		Status:           Status(statusStr),
		ExitCode:         int(exitCode.Int64),
		ErrorMessage:     errorMessage.String,
		LogTail:          logTail.String,
		ProgressPercent:  progressPercent.Float64,
		ProgressMessage:  progressMessage.String,
		SourceSize:       sourceSize.Int64,
		SourceDurationMS: durationMS.Int64,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	if startedRaw.Valid {
		if started, err := parseTimeString(startedRaw.String); err == nil {
			job.StartedAt = &started
		}
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			job.FinishedAt = &finished
		}
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
