package main

import (
	srv "github.com/mohammad-safakhou/toxscore/internal/server"
	"github.com/spf13/cobra"
)

func serveCMD(cfgPath *string) *cobra.Command {
	var port int
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
				if err := cfg.Server.Validate(); err != nil {
					return err
				}
			}

			a, closeFn, err := buildAnalyzer(cfg, logger)
			if err != nil {
				return err
			}
			defer closeFn()

			return srv.Run(cmd.Context(), srv.Options{
				Server:    cfg.Server,
				Telemetry: cfg.Telemetry,
				Analyzer:  a,
				Logger:    logger.With().Str("component", "http").Logger(),
			})
		},
	}
	serve.Flags().IntVarP(&port, "port", "p", 5000, "listen port (overrides server.port and PORT)")
	return serve
}
