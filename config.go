/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Seednode/pokenator/game"
	"github.com/Seednode/pokenator/pokeapi"
)

type Config struct {
	backendURL     string
	bind           string
	confetti       bool
	lang           string
	maxLabels      int
	metrics        bool
	pokeapiURL     string
	port           int
	prefix         string
	profile        bool
	repeatGuard    bool
	requestTimeout time.Duration
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
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
	if err := validateURL("--backend-url", c.backendURL); err != nil {
		return err
	}
	if err := validateURL("--pokeapi-url", c.pokeapiURL); err != nil {
		return err
	}
	if c.maxLabels < 1 {
		return fmt.Errorf("invalid label budget (must be at least 1): %d", c.maxLabels)
	}
	if c.requestTimeout <= 0 {
		return fmt.Errorf("invalid request timeout (must be positive): %s", c.requestTimeout)
	}
	if _, err := game.CopyFor(c.lang); err != nil {
		return err
	}
	return nil
}

func validateURL(flag, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", flag, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s (must be an absolute http or https url): %q", flag, raw)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("POKENATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "pokenator",
		Short:         "Guess the Pokémon in twenty questions, with a live cloud of the remaining candidates.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			setupLogging(cfg)
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.backendURL, "backend-url", "http://localhost:8081", "base url of the game backend (env: POKENATOR_BACKEND_URL)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: POKENATOR_BIND)")
	fs.BoolVar(&cfg.confetti, "confetti", true, "celebrate wins and lockouts with confetti (env: POKENATOR_CONFETTI)")
	fs.StringVar(&cfg.lang, "lang", "en", "language of the game screen, en or pt (env: POKENATOR_LANG)")
	fs.IntVar(&cfg.maxLabels, "max-labels", 90, "maximum number of labelled candidates in the cloud (env: POKENATOR_MAX_LABELS)")
	fs.BoolVar(&cfg.metrics, "metrics", false, "expose prometheus metrics at /metrics (env: POKENATOR_METRICS)")
	fs.StringVar(&cfg.pokeapiURL, "pokeapi-url", pokeapi.DefaultBaseURL, "base url of PokeAPI (env: POKENATOR_POKEAPI_URL)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: POKENATOR_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: POKENATOR_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: POKENATOR_PROFILE)")
	fs.BoolVar(&cfg.repeatGuard, "repeat-guard", true, "lock the game when the backend repeats its previous guess (env: POKENATOR_REPEAT_GUARD)")
	fs.DurationVar(&cfg.requestTimeout, "request-timeout", 10*time.Second, "timeout for backend and PokeAPI requests (env: POKENATOR_REQUEST_TIMEOUT)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle widgets are disconnected (env: POKENATOR_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: POKENATOR_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: POKENATOR_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: POKENATOR_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: POKENATOR_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("pokenator v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func (c *Config) screenOptions() game.Options {
	text, _ := game.CopyFor(c.lang)

	return game.Options{
		Copy:        text,
		RepeatGuard: c.repeatGuard,
		Confetti:    c.confetti,
	}
}
