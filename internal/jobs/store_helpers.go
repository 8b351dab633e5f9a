package jobs

import (
	"database/sql"
	"errors"
	"time"
)

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job             Job
		status          string
		progressMessage sql.NullString
		style           sql.NullString
		available       int
		errorMessage    sql.NullString
		createdRaw      string
		updatedRaw      string
		finishedRaw     sql.NullString
	)
	if err := scanner.Scan(
		&job.ID,
		&job.SourceName,
		&status,
		&progressMessage,
		&style,
		&job.CueCount,
		&job.DroppedCount,
		&job.ClippedCount,
		&available,
		&job.FPS,
		&job.DurationFrames,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	job.Status = Status(status)
	job.ProgressMessage = progressMessage.String
	job.Style = style.String
	job.CaptionsAvailable = available != 0
	job.ErrorMessage = errorMessage.String
	if t, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = t
	}
	if t, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = t
	}
	if finishedRaw.Valid {
		if t, err := parseTimeString(finishedRaw.String); err == nil {
			job.FinishedAt = &t
		}
	}
	return &job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
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

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
