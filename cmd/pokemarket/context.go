package main

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/codyseavey/pokemarket/internal/client/collection"
	"github.com/codyseavey/pokemarket/internal/client/vision"
	"github.com/codyseavey/pokemarket/internal/config"
	"github.com/codyseavey/pokemarket/internal/logging"
)

type rootFlags struct {
	config string
	apiURL string
	output string
}

type commandContext struct {
	flags *rootFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error

	// stderr receives log output; nil means os.Stderr.
	stderr io.Writer
}

func newCommandContext(flags *rootFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if u := strings.TrimRight(strings.TrimSpace(c.flags.apiURL), "/"); u != "" {
			cfg.Backend.URL = u
		}
		if c.stderr != nil {
			slog.SetDefault(logging.New(c.stderr, cfg.Log))
		} else {
			logging.NewLogger(cfg.Log)
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) outputFormat() outputFormat {
	f, _ := parseOutputFormat(c.flags.output)
	return f
}

func (c *commandContext) collectionClient() (*collection.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return collection.NewClient(cfg.Backend.URL), nil
}

func (c *commandContext) visionClient() (*vision.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return vision.NewClient(vision.ConfigFrom(cfg.Vision), nil), nil
}
