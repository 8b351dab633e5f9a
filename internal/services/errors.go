package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"captionsync/internal/jobs"
)

// Markers classify failures; test with errors.Is.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap returns "<marker>: <stage>: <operation>: <message>: <err>", skipping
// blank parts, with both marker and err reachable through errors.Is. A nil
// marker is treated as ErrTransient.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	detail := joinNonEmpty(stage, operation, message)
	if detail == "" {
		detail = "service failure"
	}
	if err == nil {
		return fmt.Errorf("%w: %s", marker, detail)
	}
	return fmt.Errorf("%w: %s: %w", marker, detail, err)
}

// FailureStatus picks the terminal ledger status for a job that stopped with
// err. Bad input is "rejected" so it is not confused with tool failures.
func FailureStatus(err error) jobs.Status {
	switch {
	case errors.Is(err, context.Canceled):
		return jobs.StatusCanceled
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound):
		return jobs.StatusRejected
	default:
		return jobs.StatusFailed
	}
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, ": ")
}
