package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanpawarit/chative-support/api"
	configx "github.com/tanpawarit/chative-support/pkg/config"
	"golang.org/x/sync/errgroup"
)

var (
	serveMigrate bool
	serveSeed    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "create missing tables before serving")
	serveCmd.Flags().BoolVar(&serveSeed, "seed", false, "replace all records with the demo fixtures before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	httpCfg, err := configx.New[api.Config]("HTTP")
	if err != nil {
		return fmt.Errorf("load http config: %w", err)
	}

	be, err := openBackend(ctx, *appCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.close(); err != nil {
			log.Warn().Err(err).Msg("close record store")
		}
	}()

	if serveMigrate {
		if err := be.migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	if serveSeed {
		if err := be.seed(ctx); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	orch, err := newOrchestrator(ctx, be.store, reg)
	if err != nil {
		return err
	}

	srv, err := api.NewServer(*httpCfg, orch, api.WithLogger(log.Logger), api.WithGatherer(reg))
	if err != nil {
		return err
	}

	log.Info().
		Str("store", appCfg.Store).
		Str("addr", httpCfg.Addr).
		Strs("cors_origins", httpCfg.CORSOrigins).
		Msg("starting chative-support")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("stopped")
	return nil
}
