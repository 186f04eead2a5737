package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"sitedrift/internal/config"
	"sitedrift/internal/logging"
	"sitedrift/internal/notifications"
	"sitedrift/internal/pipeline"
	"sitedrift/internal/tasks"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		var level string
		if c.logLevelFlag != nil {
			level = *c.logLevelFlag
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg, level)
	})
	return c.logger, c.loggerErr
}

// withStore opens the state store for the duration of fn.
func (c *commandContext) withStore(fn func(*tasks.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := tasks.Open(cfg)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer store.Close()
	return fn(store)
}

// withRunner builds a pipeline runner backed by the state store and the
// configured notification sink.
func (c *commandContext) withRunner(fn func(*pipeline.Runner) error) error {
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	return c.withStore(func(store *tasks.Store) error {
		runner, err := pipeline.New(c.configValue(), store, notifications.NewService(c.configValue(), store), logger)
		if err != nil {
			return err
		}
		return fn(runner)
	})
}

func wrapRunError(err error) error {
	if errors.Is(err, pipeline.ErrRunLocked) {
		return fmt.Errorf("%w; wait for it to finish or check `sitedrift status`", err)
	}
	return err
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
