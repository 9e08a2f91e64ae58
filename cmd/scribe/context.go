package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"scribe/internal/catalog"
	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/pipeline"
	"scribe/internal/services/whisper"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
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

// withPipeline wires the catalog store, engine client, and pipeline, runs fn,
// and tears everything down afterwards.
func (c *commandContext) withPipeline(ctx context.Context, fn func(context.Context, *pipeline.Pipeline, *slog.Logger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	store, err := catalog.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	engine := whisper.NewClientFromConfig(cfg)
	p, err := pipeline.New(cfg, store, engine, logger)
	if err != nil {
		return err
	}
	return fn(ctx, p, logger)
}
