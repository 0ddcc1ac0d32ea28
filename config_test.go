/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*Config) {}, ok: true},
		{name: "cert without key", mutate: func(c *Config) { c.tlsCert = "cert.pem" }},
		{name: "port zero", mutate: func(c *Config) { c.port = 0 }},
		{name: "port too high", mutate: func(c *Config) { c.port = 70000 }},
		{name: "one player", mutate: func(c *Config) { c.minPlayers = 1 }},
		{name: "max below min", mutate: func(c *Config) { c.maxPlayers = 1 }},
		{name: "negative timeout", mutate: func(c *Config) { c.taskTimeout = -time.Second }},
		{name: "negative rate", mutate: func(c *Config) { c.rateLimit = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestFlagDefaults(t *testing.T) {
	cfg := &Config{}
	newCmd(cfg)

	assert.Equal(t, 4, cfg.maxPlayers)
	assert.Equal(t, 2, cfg.minPlayers)
	assert.Equal(t, 30*time.Second, cfg.playerTimeout)
	assert.Equal(t, 2*time.Minute, cfg.taskTimeout)
	assert.Equal(t, 8080, cfg.port)
	assert.NoError(t, cfg.validate())
}

func TestFlagsFromEnvironment(t *testing.T) {
	t.Setenv("LADDERS_MAX_PLAYERS", "6")
	t.Setenv("LADDERS_AUTO_START", "true")
	t.Setenv("LADDERS_TASK_TIMEOUT", "45s")

	cfg := &Config{}
	newCmd(cfg)

	assert.Equal(t, 6, cfg.maxPlayers)
	assert.True(t, cfg.autoStart)
	assert.Equal(t, 45*time.Second, cfg.taskTimeout)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("LADDERS_PORT", "9000")

	cfg := &Config{}
	cmd := newCmd(cfg)
	require.NoError(t, cmd.Flags().Parse([]string{"--port", "9100"}))

	assert.Equal(t, 9100, cfg.port)
}

func TestGameOptions(t *testing.T) {
	cfg := testConfig()
	cfg.prefix = "/play"
	cfg.randomTasks = true

	opts := cfg.gameOptions()
	assert.Equal(t, "/play", opts.Prefix)
	assert.True(t, opts.RandomTasks)
	assert.Equal(t, cfg.maxPlayers, opts.MaxPlayers)
}

func TestHumanReadableSize(t *testing.T) {
	assert.Equal(t, "999 B", humanReadableSize(999))
	assert.Equal(t, "1.5 kB", humanReadableSize(1500))
	assert.Equal(t, "2.0 MB", humanReadableSize(2_000_000))
}
