package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/upland-labs/storefront/internal/api"
	"github.com/upland-labs/storefront/internal/app/ledger"
	"github.com/upland-labs/storefront/internal/app/lifecycle"
	"github.com/upland-labs/storefront/internal/app/workflow"
	"github.com/upland-labs/storefront/internal/daemon"
	"github.com/upland-labs/storefront/internal/infra/sqlite"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("config", "c", "storefront.toml", "Path to TOML config file")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storefront API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// .env is optional; env vars win over the config file either way.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment as-is")
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := daemon.Load(configPath)
	if err != nil {
		return err
	}

	store, err := sqlite.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.Shop.Seed {
		n, err := store.SeedDefaultCatalog(cmd.Context())
		if err != nil {
			return err
		}
		if n > 0 {
			log.Printf("seeded %d catalog products", n)
		}
	}

	lgr := ledger.New(store)
	lc := lifecycle.New(store, lgr)
	wf := workflow.New(store, workflow.MockExtractor{}, cfg.Workflow.Strict)

	server := api.NewServer(store, lgr, lc, wf)
	if cfg.API.Metrics {
		server.EnableMetrics()
	}
	if cfg.API.RateLimit {
		server.EnableRateLimit(cfg.API.RateLimitRPS, cfg.API.RateLimitBurst)
	}

	httpServer := &http.Server{
		Addr:    cfg.API.Addr(),
		Handler: server.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("storefront API listening on %s (db=%s, strict_workflow=%v)",
			cfg.API.Addr(), cfg.Store.Path, cfg.Workflow.Strict)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Println("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
