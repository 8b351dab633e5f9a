package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"captionsync/internal/jobs"
	"captionsync/internal/logging"
	"captionsync/internal/services"
)

// stage records the processing status, runs fn with stage-scoped context and
// logs the transition.
func (p *Pipeline) stage(ctx context.Context, jobID string, status jobs.Status, fn func(context.Context) error) error {
	name := string(status)
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, p.logger)

	if err := p.store.UpdateStage(stageCtx, jobID, status, fmt.Sprintf("%s started", stageLabel(status))); err != nil {
		return services.Wrap(services.ErrTransient, name, "persist stage", "", err)
	}
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	started := time.Now()
	if err := fn(stageCtx); err != nil {
		logger.Debug("stage returned error", logging.Error(err))
		return err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)
	return nil
}

// stageLabel turns a status such as "no_captions" into "No Captions".
func stageLabel(status jobs.Status) string {
	parts := strings.Fields(strings.ReplaceAll(string(status), "_", " "))
	for i, part := range parts {
		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
