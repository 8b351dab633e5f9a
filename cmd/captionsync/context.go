package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"captionsync/internal/config"
	"captionsync/internal/jobs"
	"captionsync/internal/logging"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	logFileFlag  *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	closers []func() error
}

func newCommandContext(configFlag, logLevelFlag, logFileFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		logFileFlag:  logFileFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(c.configFlagValue())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) logLevel(cfg *config.Config) string {
	if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
		return strings.TrimSpace(*c.logLevelFlag)
	}
	if cfg != nil {
		return cfg.Logging.Level
	}
	return "info"
}

// logger builds the console logger for one-shot commands. Diagnostics go to
// stderr so stdout stays parseable.
func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, _ := c.ensureConfig()
	format := "console"
	if cfg != nil {
		format = cfg.Logging.Format
	}
	logger, err := logging.New(logging.Options{
		Level:            c.logLevel(cfg),
		Format:           format,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return c.teeLogFile(logger, cfg)
}

// serverLogger writes to stdout and the log directory, stamping every record
// with sessionID.
func (c *commandContext) serverLogger(cfg *config.Config, sessionID string) (*slog.Logger, error) {
	if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
		cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
	}
	logger, err := logging.NewFromConfig(cfg, sessionID)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return c.teeLogFile(logger, cfg)
}

// teeLogFile mirrors logger into the --log-file path as JSON, if set.
func (c *commandContext) teeLogFile(logger *slog.Logger, cfg *config.Config) (*slog.Logger, error) {
	if c.logFileFlag == nil || strings.TrimSpace(*c.logFileFlag) == "" {
		return logger, nil
	}
	path, err := config.ExpandPath(strings.TrimSpace(*c.logFileFlag))
	if err != nil {
		return nil, fmt.Errorf("resolve log file: %w", err)
	}
	handler, closeFn, err := logging.NewFileHandler(path, c.logLevel(cfg))
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, closeFn)
	return logging.TeeLogger(logger, handler), nil
}

func (c *commandContext) openJobs() (*jobs.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := jobs.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open job ledger: %w", err)
	}
	c.closers = append(c.closers, store.Close)
	return store, nil
}

func (c *commandContext) close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
