package main

import (
	"strings"

	"visionpipe/internal/config"
)

// commandContext carries lazily resolved configuration shared by all
// commands.
type commandContext struct {
	serverFlag *string
	configFlag *string

	cfg     *config.Config
	cfgPath string
}

func newCommandContext(serverFlag, configFlag *string) *commandContext {
	return &commandContext{serverFlag: serverFlag, configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := ""
	if c.configFlag != nil {
		path = *c.configFlag
	}
	cfg, resolved, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.cfgPath = resolved
	return cfg, nil
}

// client resolves the daemon API base URL, preferring the --server flag over
// the configured bind address.
func (c *commandContext) client() (*apiClient, error) {
	base := ""
	if c.serverFlag != nil {
		base = strings.TrimSpace(*c.serverFlag)
	}
	if base == "" {
		cfg, err := c.ensureConfig()
		if err != nil {
			return nil, err
		}
		base = cfg.Paths.APIBind
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return newAPIClient(strings.TrimRight(base, "/")), nil
}
