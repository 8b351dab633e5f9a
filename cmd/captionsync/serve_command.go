package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"captionsync/internal/deps"
	"captionsync/internal/logging"
	"captionsync/internal/pipeline"
	"captionsync/internal/preflight"
	"captionsync/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the transcription HTTP server in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("bind") {
				cfg.Paths.APIBind = bind
			}

			logger, err := ctx.serverLogger(cfg, uuid.NewString())
			if err != nil {
				return err
			}
			logger.Info("captionsync server starting",
				logging.String("config", ctx.configPath),
				logging.String("work_dir", cfg.Paths.WorkDir),
				logging.String("log_dir", cfg.Paths.LogDir),
			)
			if missing := deps.MissingRequired(preflight.CheckSystemDeps(cfg)); len(missing) > 0 {
				logging.WarnWithContext(logger, "required tools missing", "dependencies_missing",
					logging.Any("missing", missing),
					logging.String(logging.FieldErrorHint, "install ffmpeg and whisper.cpp or set their paths in [transcription]"),
					logging.String(logging.FieldImpact, "uploads will fail until the tools are available"),
				)
			}
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				if !result.Passed {
					logger.Warn("preflight check failed",
						logging.String("check", result.Name),
						logging.String("detail", result.Detail),
					)
				}
			}

			store, err := ctx.openJobs()
			if err != nil {
				return err
			}
			pipe := pipeline.New(cfg, store, logger)
			srv, err := server.New(cfg, store, pipe, logger)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			if err := srv.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", srv.Addr())
			srv.Wait()
			logger.Info("captionsync server shutting down")
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override paths.api_bind")
	return cmd
}
