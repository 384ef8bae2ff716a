package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mohammad-safakhou/toxscore/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	var cfgPath string
	var root = &cobra.Command{
		Use:           "toxscore",
		Short:         "Score the text of web pages for toxicity",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches ./config and .)")

	root.AddCommand(serveCMD(&cfgPath), analyzeCMD(&cfgPath))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("toxscore failed")
		stop()
		os.Exit(1)
	}
}

// loadConfig reads configuration and installs the global logger.
func loadConfig(path string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, log.Logger, err
	}
	logger := newLogger(cfg.General, os.Stderr)
	log.Logger = logger
	return cfg, logger, nil
}

func newLogger(cfg config.GeneralConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	w := out
	if cfg.Debug {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		if level > zerolog.DebugLevel {
			level = zerolog.DebugLevel
		}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "toxscore").Logger()
}
