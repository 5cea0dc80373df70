package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"presale-tracker/config"
	"presale-tracker/models"
	"presale-tracker/report"
	"presale-tracker/scraper/taipei"
	"presale-tracker/server"
	"presale-tracker/services"
	"presale-tracker/storage"
	"presale-tracker/utils"
)

func main() {
	var (
		filePath = flag.String("file", "", "process a local CSV file instead of fetching the open-data feed")
		serve    = flag.Bool("serve", false, "run the HTTP server")
		outDir   = flag.String("out", "", "export CSV, XLSX and HTML reports to this directory")
		png      = flag.Bool("png", false, "render the market report as PNG (headless Chrome)")
	)
	flag.Parse()

	logger := utils.NewLogger()
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		os.Exit(1)
	}
	logger.SetLevel(utils.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== Taipei Pre-sale Tracker starting ===")

	if *serve {
		if err := runServer(ctx, cfg, logger); err != nil {
			logger.Error("Server failed: %v", err)
			os.Exit(1)
		}
		return
	}

	res, err := ingest(ctx, cfg, logger, *filePath)
	var empty *services.EmptyResultError
	if errors.As(err, &empty) {
		logger.Error("%v", err)
		os.Exit(1)
	}
	if err != nil {
		logger.Error("Ingestion failed: %v", err)
		os.Exit(1)
	}

	market := services.NewMarketService(logger)
	overview := market.Overview(res.Projects)
	market.Print(os.Stdout, overview, res.Stats)

	if *outDir != "" {
		if err := export(*outDir, res, overview, logger); err != nil {
			logger.Error("Export failed: %v", err)
			os.Exit(1)
		}
	}

	if *png {
		dir := *outDir
		if dir == "" {
			dir = cfg.OutputDir
		}
		if err := snapshot(ctx, cfg, logger, dir, res, overview); err != nil {
			logger.Error("Snapshot failed: %v", err)
			os.Exit(1)
		}
	}

	fmt.Printf("  Done. %d projects from %d pre-sale transactions (run %s)\n\n",
		len(res.Projects), res.Stats.Presale, res.RunID)
}

func runServer(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	snap := report.NewSnapshotter(logger, cfg.ChromeBin, cfg.SnapshotWidth)
	srv := server.New(cfg, logger, taipei.New(cfg, logger), snap)

	if cfg.AutoRefresh {
		go func() {
			if _, err := srv.Refresh(ctx); err != nil {
				logger.Warn("Initial refresh failed: %v (upload a CSV instead)", err)
			}
		}()
	}
	return srv.ListenAndServe(ctx)
}

func ingest(ctx context.Context, cfg *config.Config, logger *utils.Logger, path string) (*models.AggregationResult, error) {
	pipeline := services.NewPipeline(logger)

	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", path, err)
		}
		return pipeline.RunBytes(buf, "file:"+filepath.Base(path))
	}

	batch, err := taipei.New(cfg, logger).Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if len(batch.Records) == 0 {
		return nil, server.ErrNoData
	}
	return pipeline.RunRecords(batch.Records, server.SourceAPI)
}

func export(dir string, res *models.AggregationResult, overview *models.MarketOverview, logger *utils.Logger) error {
	csvWriter, err := storage.NewCSVWriter(dir)
	if err != nil {
		return err
	}
	defer csvWriter.Close()

	xlsxWriter, err := storage.NewXLSXWriter(dir)
	if err != nil {
		return err
	}
	defer xlsxWriter.Close()

	for _, w := range []storage.ResultWriter{csvWriter, xlsxWriter} {
		if err := w.Write(res); err != nil {
			return err
		}
	}

	f, err := os.Create(filepath.Join(dir, "report.html"))
	if err != nil {
		return fmt.Errorf("create report.html: %w", err)
	}
	defer f.Close()
	if err := report.Render(f, reportData(res, overview)); err != nil {
		return err
	}

	logger.Info("Reports written to %s", dir)
	return f.Close()
}

func snapshot(ctx context.Context, cfg *config.Config, logger *utils.Logger, dir string, res *models.AggregationResult, overview *models.MarketOverview) error {
	html, err := report.RenderString(reportData(res, overview))
	if err != nil {
		return err
	}

	img, err := report.NewSnapshotter(logger, cfg.ChromeBin, cfg.SnapshotWidth).PNG(ctx, html)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("market-report-%s.png", time.Now().Format("2006-01-02")))
	if err := os.WriteFile(path, img, 0644); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	logger.Info("Report image saved to %s", path)
	return nil
}

func reportData(res *models.AggregationResult, overview *models.MarketOverview) report.Data {
	return report.Data{
		GeneratedAt: res.GeneratedAt,
		Stats:       res.Stats,
		Overview:    overview,
		Projects:    res.Projects,
	}
}
