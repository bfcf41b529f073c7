// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/funding-tagger/internal/logging"
	"github.com/pdiddy/funding-tagger/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the classification API over HTTP",
	Long: `Serve exposes the engine as a JSON API:

  POST /v1/classify         {"title": "...", "description": "..."}
  POST /v1/classify/batch   {"items": [...]}
  GET  /v1/rules            active rule tables
  GET  /health              liveness
  GET  /metrics             Prometheus metrics

The server stops gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		engine, err := buildEngine(cfg)
		if err != nil {
			return err
		}

		if cfg.Log.Development {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(engine, cfg.Serve, version, logger.With(logging.String("stage", "serve")))
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().Int("max-batch", 0, "maximum items per batch request (default 500)")
	viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("serve.max_batch", serveCmd.Flags().Lookup("max-batch"))

	rootCmd.AddCommand(serveCmd)
}
