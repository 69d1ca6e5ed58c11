package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"chcrawler/internal/components/chrono"
	"chcrawler/internal/components/telemetry"
	"chcrawler/internal/crawler"
	"chcrawler/internal/report"
	"chcrawler/internal/session"
	"chcrawler/pkg/serviceutil"

	"github.com/spf13/cobra"
)

func newCrawlCmd() *cobra.Command {
	var flags crawlFlags
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Search the registry for every query and write the results.",
		Example: `  chcrawler crawl -q "acme,globex" -o out --limit 0 --pages 3
  chcrawler crawl --config crawls/weekly.json5 --db out/chcrawler.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := loadFileConfig(cmd.Flags(), flags.config)
			if err != nil {
				return err
			}
			resolved, err := resolveSettings(cmd.Flags(), flags, file)
			if err != nil {
				return err
			}
			runCrawl(cmd, resolved)
			return nil
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func runCrawl(cmd *cobra.Command, resolved settings) {
	ctx := cmd.Context()

	otelSetup, err := telemetry.SetupFromEnv(ctx, "chcrawler")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer func() {
		// ctx may already be cancelled by an interrupt, flushing still needs time
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelSetup.Shutdown(shutdownCtx); err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	}()
	if otelSetup.MeterProvider != nil {
		telemetry.InstrumentPerfStats(ctx)
	}

	tel := telemetry.NewSlogAPI()
	provider := session.NewHTTPProvider(session.HTTPOptions{
		RequestsPerSecond: resolved.Rate,
		Burst:             2,
		RetryCount:        2,
		BrowserTransport:  resolved.Browser,
	}, tel)

	c, err := crawler.New(resolved.Options, provider, chrono.NewStandardTime(), tel)
	if err != nil {
		serviceutil.Fatal("invalid configuration", err)
	}
	options := c.Options()
	slog.Info(
		"crawling",
		"queries", len(options.Queries),
		"workers", options.Workers,
		"output", options.Output,
	)

	result, err := c.Run(ctx)
	if errors.Is(err, context.Canceled) {
		slog.Warn("crawl interrupted, writing the partial results")
	} else if err != nil {
		serviceutil.Fatal("crawl failed", err)
	}

	// outputs are written even after an interrupt so nothing crawled is lost
	outputCtx := context.WithoutCancel(ctx)

	jsonPath, err := report.WriteJSON(options.Output, result)
	if err != nil {
		serviceutil.Fatal("failed to write json results", err)
	}
	sheetPath, err := report.WriteSpreadsheet(options.Output, result)
	if err != nil {
		serviceutil.Fatal("failed to write spreadsheet", err)
	}
	slog.Info("results written", "json", jsonPath, "spreadsheet", sheetPath)

	if resolved.Database != nil {
		err = saveRun(outputCtx, *resolved.Database, result)
		if err != nil {
			serviceutil.Fatal("failed to save run", err)
		}
	}

	if resolved.Smtp.Enabled() {
		err = report.NewMailer(resolved.Smtp).Send(outputCtx, result, jsonPath, sheetPath)
		if err != nil {
			serviceutil.Fatal("failed to mail results", err)
		}
		slog.Info("results mailed", "to", resolved.Smtp.To)
	}

	report.PrintSummary(cmd.OutOrStdout(), result)
}

func saveRun(ctx context.Context, config report.DatabaseConfig, result crawler.Report) error {
	db, err := config.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := report.NewStore(ctx, db)
	if err != nil {
		return err
	}
	return store.Save(ctx, result)
}
