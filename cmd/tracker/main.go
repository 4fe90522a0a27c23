package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/portfel/tracker/internal/account"
	"github.com/portfel/tracker/internal/api"
	"github.com/portfel/tracker/internal/config"
	"github.com/portfel/tracker/internal/database"
	"github.com/portfel/tracker/internal/engine"
	"github.com/portfel/tracker/internal/export"
	"github.com/portfel/tracker/internal/external"
	"github.com/portfel/tracker/internal/ledger"
	"github.com/portfel/tracker/internal/marketdata"
	"github.com/portfel/tracker/internal/snapshot"
	"github.com/portfel/tracker/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	app := &cli.App{
		Name:  "tracker",
		Usage: "personal portfolio tracker",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the API server with background refresh and snapshot workers",
				Action: runServe,
			},
			{
				Name:   "report",
				Usage:  "print current positions and the portfolio summary",
				Action: runReport,
			},
			{
				Name:  "export",
				Usage: "write an XLSX portfolio report",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Value: "portfolio.xlsx",
						Usage: "output file path",
					},
				},
				Action: runExport,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// setup connects to the database, applies migrations, and wires the engine.
func setup(ctx context.Context, cfg config.Config) (*pgxpool.Pool, *engine.Service, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	ledgerRepo := ledger.NewPgRepository(pool)
	marketRepo := marketdata.NewPgRepository(pool)
	accountRepo := account.NewPgRepository(pool)
	engineSvc := engine.NewService(ledgerRepo, marketRepo, marketRepo, accountRepo, cfg.ReportingCurrency)

	return pool, engineSvc, nil
}

func newExternalService(cfg config.Config, holdings external.HoldingSource, store external.MarketStore) *external.Service {
	nbp := external.NewNBPClient(cfg.NBPURL, cfg.ExternalRetryBase, cfg.ExternalRetryMax)
	coingecko := external.NewCoinGeckoClient(cfg.CoinGeckoURL, cfg.ExternalRetryBase, cfg.ExternalRetryMax)
	yahoo := external.NewYahooClient(cfg.YahooURL, cfg.ExternalRetryBase, cfg.ExternalRetryMax)
	return external.NewService(holdings, store, nbp, coingecko, yahoo)
}

func runServe(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	pool, engineSvc, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	ledgerRepo := ledger.NewPgRepository(pool)
	marketRepo := marketdata.NewPgRepository(pool)
	externalSvc := newExternalService(cfg, ledgerRepo, marketRepo)

	snapshotRepo := snapshot.NewPgRepository(pool)
	snapshotSvc := snapshot.NewService(engineSvc, snapshotRepo, slog.Default())

	// Optional spreadsheet hook: every snapshot also lands one row in the sheet.
	var hook worker.AfterSnapshotHook
	if cfg.SheetsID != "" && cfg.SheetsCredentials != "" {
		writer, err := export.NewSheetsWriter(ctx, cfg.SheetsID, cfg.SheetsCredentials)
		if err != nil {
			return fmt.Errorf("configuring sheets export: %w", err)
		}
		hook = export.NewService(writer)
	}

	refreshWorker := worker.NewRefreshWorker(externalSvc, cfg.RefreshInterval)
	go refreshWorker.Run(ctx)

	snapshotWorker := worker.NewSnapshotWorker(snapshotSvc, cfg.SnapshotInterval, hook)
	go snapshotWorker.Run(ctx)

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, write endpoints are unprotected")
	}

	handler := api.NewHandler(engineSvc, snapshotSvc, ledgerRepo, externalSvc)
	srv := api.NewServer(cfg.HTTPPort, handler, cfg.AdminAPIKey)

	go func() {
		log.Printf("HTTP server listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
	return nil
}

func runReport(c *cli.Context) error {
	cfg := config.Load()

	pool, engineSvc, err := setup(c.Context, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	positions, err := engineSvc.Positions(c.Context)
	if err != nil {
		return fmt.Errorf("computing positions: %w", err)
	}
	summary, err := engineSvc.Summary(c.Context)
	if err != nil {
		return fmt.Errorf("computing summary: %w", err)
	}

	fmt.Printf("%-8s %-10s %16s %16s %16s %16s\n",
		"TYPE", "SYMBOL", "QTY", "PRICE", "VALUE "+summary.Currency, "UNREAL P/L")
	for _, p := range positions {
		fmt.Printf("%-8s %-10s %16s %16s %16s %16s\n",
			p.Holding.Type, p.Holding.Symbol,
			p.Qty.String(), p.CurrentPrice.String(),
			p.ValueReporting.StringFixed(2), p.UnrealizedPL.StringFixed(2))
	}
	fmt.Println()
	fmt.Printf("Holdings:       %s %s\n", summary.HoldingsValue.StringFixed(2), summary.Currency)
	fmt.Printf("Cash:           %s %s\n", summary.Cash.StringFixed(2), summary.Currency)
	fmt.Printf("Net worth:      %s %s\n", summary.NetWorth.StringFixed(2), summary.Currency)
	fmt.Printf("Unrealized P/L: %s %s\n", summary.UnrealizedPL.StringFixed(2), summary.Currency)
	fmt.Printf("Realized P/L:   %s %s\n", summary.RealizedPL.StringFixed(2), summary.Currency)
	for _, w := range summary.Warnings {
		fmt.Printf("WARNING: %s\n", w)
	}
	return nil
}

func runExport(c *cli.Context) error {
	cfg := config.Load()

	pool, engineSvc, err := setup(c.Context, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	positions, err := engineSvc.Positions(c.Context)
	if err != nil {
		return fmt.Errorf("computing positions: %w", err)
	}
	summary, err := engineSvc.Summary(c.Context)
	if err != nil {
		return fmt.Errorf("computing summary: %w", err)
	}

	out := c.String("out")
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	defer f.Close()

	if err := export.WriteXLSX(f, positions, summary); err != nil {
		return err
	}
	log.Printf("report written to %s", out)
	return nil
}
