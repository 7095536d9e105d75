package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/cargo-allocator/internal/allocator"
	"github.com/eugenenazirov/cargo-allocator/internal/application"
	"github.com/eugenenazirov/cargo-allocator/internal/config"
	"github.com/eugenenazirov/cargo-allocator/internal/dataset"
	"github.com/eugenenazirov/cargo-allocator/internal/knapsack"
	"github.com/eugenenazirov/cargo-allocator/internal/logging"
	"github.com/eugenenazirov/cargo-allocator/internal/report"
	"github.com/eugenenazirov/cargo-allocator/internal/storage"
)

const (
	exitOK         = 0
	exitError      = 1
	exitInfeasible = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	kingpinApp := kingpin.New("allocate", "Splits an item catalog across two containers and prints the plan")
	kingpinApp.UsageWriter(stderr)
	kingpinApp.ErrorWriter(stderr)
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	itemsFile := kingpinApp.Flag("items", "CSV or XLSX file with the item catalog (default: built-in catalog)").String()
	itemsSheet := kingpinApp.Flag("sheet", "Worksheet to read when --items is an XLSX workbook").String()
	containersStr := kingpinApp.Flag("containers", "Two containers as name:capacity[:tare],name:capacity[:tare]").String()
	pdfPath := kingpinApp.Flag("pdf", "Also write the plan as PDF to this path").String()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()
	progress := kingpinApp.Flag("progress", "Log sweep progress every N capacity steps (0 disables)").Default("0").Int()

	if _, err := kingpinApp.Parse(args); err != nil {
		fmt.Fprintf(stderr, "allocate: %v\n", err)
		return exitError
	}

	overrides := &config.CLIOverrides{
		ConfigFile:    *configFile,
		ItemsFile:     itemsFile,
		ItemsSheet:    itemsSheet,
		ContainersStr: containersStr,
		LogLevel:      logLevel,
	}
	cfg, err := config.Load(overrides)
	if err != nil {
		fmt.Fprintf(stderr, "allocate: failed to load configuration: %v\n", err)
		return exitError
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "allocate: failed to initialize logger: %v\n", err)
		return exitError
	}
	defer func() {
		_ = logger.Sync()
	}()

	items, err := loadItems(cfg)
	if err != nil {
		logger.Error("failed to load items", zap.Error(err))
		return exitError
	}

	alloc := allocator.New(newSolver(cfg, *progress, logger), logger)
	containers := application.Containers(cfg)

	plan, err := alloc.Allocate(items, containers[0], containers[1])
	switch {
	case errors.Is(err, allocator.ErrNoFeasibleSplit):
		if err := report.WriteInfeasible(stdout, plan); err != nil {
			logger.Error("failed to write report", zap.Error(err))
			return exitError
		}
		return exitInfeasible
	case err != nil:
		logger.Error("allocation failed", zap.Error(err))
		return exitError
	}

	if err := report.WriteText(stdout, plan, items); err != nil {
		logger.Error("failed to write report", zap.Error(err))
		return exitError
	}

	if *pdfPath != "" {
		if err := writePDF(*pdfPath, plan, items); err != nil {
			logger.Error("failed to write PDF", zap.String("path", *pdfPath), zap.Error(err))
			return exitError
		}
		logger.Info("PDF written", zap.String("path", *pdfPath))
	}

	return exitOK
}

func loadItems(cfg config.Config) ([]knapsack.Item, error) {
	var source dataset.Source = dataset.StaticSource(storage.DefaultItems())
	if cfg.ItemsFile != "" {
		source = dataset.FileSource{Path: cfg.ItemsFile, Sheet: cfg.ItemsSheet}
	}
	return source.Load()
}

func newSolver(cfg config.Config, every int, logger *zap.Logger) knapsack.Solver {
	if every <= 0 {
		return application.NewSolver(cfg, logger)
	}
	return knapsack.New(
		knapsack.WithCapacityLimit(cfg.MaxCapacity),
		knapsack.WithProgress(every, func(done, total int) {
			logger.Info("sweep progress", zap.Int("done", done), zap.Int("total", total))
		}),
	)
}

func writePDF(path string, plan allocator.Plan, items []knapsack.Item) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	return report.WritePDF(f, plan, items)
}
