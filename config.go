/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Seednode/ladders/game"
)

type Config struct {
	autoStart      bool
	bind           string
	maxPlayers     int
	minPlayers     int
	playerTimeout  time.Duration
	port           int
	prefix         string
	profile        bool
	randomTasks    bool
	rateBurst      int
	rateLimit      float64
	sessionTimeout time.Duration
	taskTimeout    time.Duration
	tlsCert        string
	tlsKey         string
	tokenSecret    string
	tokenTTL       time.Duration
	verbose        bool
	version        bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.minPlayers < 2 {
		return fmt.Errorf("invalid minimum player count (must be at least 2): %d", c.minPlayers)
	}
	if c.maxPlayers < c.minPlayers {
		return fmt.Errorf("invalid maximum player count (must be at least %d): %d", c.minPlayers, c.maxPlayers)
	}
	if c.playerTimeout < 0 || c.taskTimeout < 0 || c.sessionTimeout < 0 || c.tokenTTL < 0 {
		return errors.New("timeouts must not be negative")
	}
	if c.rateLimit < 0 || c.rateBurst < 0 {
		return errors.New("--rate-limit and --rate-burst must not be negative")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func (c *Config) gameOptions() game.Options {
	return game.Options{
		MaxPlayers:     c.maxPlayers,
		MinPlayers:     c.minPlayers,
		AutoStart:      c.autoStart,
		PlayerTimeout:  c.playerTimeout,
		TaskTimeout:    c.taskTimeout,
		SessionTimeout: c.sessionTimeout,
		RandomTasks:    c.randomTasks,
		Prefix:         c.prefix,
	}
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("LADDERS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "ladders",
		Short:         "A real-time snakes and ladders party game, played from your phone.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.BoolVar(&cfg.autoStart, "auto-start", false, "start a game as soon as the lobby is full (env: LADDERS_AUTO_START)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: LADDERS_BIND)")
	fs.IntVar(&cfg.maxPlayers, "max-players", 4, "maximum players per game (env: LADDERS_MAX_PLAYERS)")
	fs.IntVar(&cfg.minPlayers, "min-players", 2, "minimum players needed to start a game (env: LADDERS_MIN_PLAYERS)")
	fs.DurationVar(&cfg.playerTimeout, "player-timeout", 30*time.Second, "time before disconnected players are removed from a game (env: LADDERS_PLAYER_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: LADDERS_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: LADDERS_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: LADDERS_PROFILE)")
	fs.BoolVar(&cfg.randomTasks, "random-tasks", false, "ask a random question on every special tile (env: LADDERS_RANDOM_TASKS)")
	fs.IntVar(&cfg.rateBurst, "rate-burst", 10, "messages a client may send in a burst (env: LADDERS_RATE_BURST)")
	fs.Float64Var(&cfg.rateLimit, "rate-limit", 5, "messages per second allowed per client, 0 to disable (env: LADDERS_RATE_LIMIT)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle games are ended (env: LADDERS_SESSION_TIMEOUT)")
	fs.DurationVar(&cfg.taskTimeout, "task-timeout", 2*time.Minute, "time a player has to answer a question, 0 to wait forever (env: LADDERS_TASK_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: LADDERS_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: LADDERS_TLS_KEY)")
	fs.StringVar(&cfg.tokenSecret, "token-secret", "", "key used to sign rejoin tokens, random if unset (env: LADDERS_TOKEN_SECRET)")
	fs.DurationVar(&cfg.tokenTTL, "token-ttl", 12*time.Hour, "lifetime of rejoin tokens (env: LADDERS_TOKEN_TTL)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: LADDERS_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: LADDERS_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("ladders v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
