package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Amanshivhare1/jobmon/internal/models"
	"github.com/Amanshivhare1/jobmon/internal/service"
	"github.com/Amanshivhare1/jobmon/internal/source"
	"github.com/Amanshivhare1/jobmon/internal/store"
	"github.com/Amanshivhare1/jobmon/internal/watcher"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		fatal(logger, "load config", err)
	}

	sourceKind := flag.String("source", cfg.SourceKind, "data source: excel or sqlite")
	excelPath := flag.String("excel", cfg.ExcelPath, "path to the jobs workbook")
	dbPath := flag.String("db", cfg.DBPath, "path to the SQLite job store")
	watch := flag.Bool("watch", cfg.Watch, "reload when the workbook changes")
	exportPath := flag.String("export", "", "write a CSV export to this path")
	flag.Parse()

	excelSrc := source.NewExcelSource(*excelPath)
	sqliteSrc, err := source.NewSQLiteSource(*dbPath)
	if err != nil {
		fatal(logger, "open job store", err, "db", *dbPath)
	}
	defer sqliteSrc.Close()

	sources := map[source.Kind]source.Source{
		source.KindExcel:  excelSrc,
		source.KindSQLite: sqliteSrc,
	}

	svc, err := service.NewJobService(store.New(), sources, source.Kind(*sourceKind), logger)
	if err != nil {
		fatal(logger, "configure service", err, "source", *sourceKind)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snap, err := svc.Refresh(ctx)
	if err != nil {
		fatal(logger, "initial load", err, "source", svc.Source())
	}
	logger.Info("engine ready", "source", svc.Source(), "jobs", len(snap.Jobs), "last_updated", snap.LastUpdated)

	m, err := svc.GetMetrics(ctx)
	if err != nil {
		logger.Error("aggregate metrics", "err", err)
	} else {
		logger.Info("metrics",
			"total", m.Total,
			"completed", m.Completed,
			"running", m.Running,
			"failed", m.Failed,
			"delayed", m.Delayed,
			"avg_run_minutes", m.AvgRunTimeMinutes,
		)
	}

	for _, alert := range svc.GetAlerts() {
		logger.Warn("alert", "type", alert.Type, "severity", alert.Severity, "message", alert.Message, "jobs", alert.Jobs)
	}

	if *exportPath != "" {
		if err := exportCSV(ctx, svc, *exportPath, logger); err != nil {
			fatal(logger, "export jobs", err, "path", *exportPath)
		}
	}

	if !*watch {
		return
	}

	w, err := watcher.New(*excelPath, reloadOnWorkbookChange(svc, logger), logger)
	if err != nil {
		fatal(logger, "start watcher", err, "path", *excelPath)
	}
	defer w.Close()

	logger.Info("watching workbook", "path", *excelPath)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fatal(logger, "watcher stopped", err)
	}
	logger.Info("shutting down")
}

// reloadOnWorkbookChange builds the watcher callback. A workbook touch
// only matters while the spreadsheet source is active; with the
// relational store active the change is ignored.
func reloadOnWorkbookChange(svc *service.JobService, logger *slog.Logger) func() {
	return func() {
		if svc.Source() != source.KindExcel {
			return
		}
		if _, err := svc.Refresh(context.Background()); err != nil {
			logger.Error("reload after change failed", "err", err)
		}
	}
}

func exportCSV(ctx context.Context, svc *service.JobService, path string, logger *slog.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	rows, err := svc.ExportCSV(ctx, f, models.Filter{})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	logger.Info("exported jobs", "path", path, "rows", rows)
	return nil
}

func fatal(logger *slog.Logger, msg string, err error, attrs ...any) {
	attrs = append(attrs, "err", err)
	logger.Error(msg, attrs...)
	os.Exit(1)
}
