// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/symptomatch/internal/server"
	"github.com/pdiddy/symptomatch/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve diagnosis over HTTP",
	Long: `Serve starts the HTTP API: POST /api/diagnose, GET /api/diseases,
GET /api/diseases/:name, GET /api/history, /healthz and /readyz. It stops
gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := appConfig
	kb, err := loadKnowledgeBase(ctx, cfg.KnowledgeBase)
	if err != nil {
		return err
	}
	d, err := newDiagnoser(ctx, cfg, kb, 0)
	if err != nil {
		return err
	}

	s, err := store.NewStore(cfg.KnowledgeBase)
	if err != nil {
		return err
	}
	defer s.Close()

	srv := server.New(cfg.Server, kb, d,
		server.WithHistory(s),
		server.WithClassifierName(string(cfg.Classifier.Backend)),
		server.WithLogger(logger),
	)
	return srv.ListenAndServe(ctx)
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().Bool("record-history", false, "store every served diagnosis")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("server.record_history", serveCmd.Flags().Lookup("record-history"))

	rootCmd.AddCommand(serveCmd)
}
