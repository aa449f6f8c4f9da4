package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go-invoice-service/internal/config"
	"go-invoice-service/internal/logger"
	"go-invoice-service/internal/repository"
	"go-invoice-service/internal/services"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "invoicer",
		Short:         "Invoice calculation, rendering and analytics",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.json", "path to the JSON config file")

	cmd.AddCommand(
		newServeCmd(opts),
		newRenderCmd(opts),
		newExportCmd(opts),
		newAnalyticsCmd(opts),
	)
	return cmd
}

// app is what every command works with once config and storage are open
type app struct {
	cfg      *config.Config
	log      *logger.StructuredLogger
	provider services.InvoiceProvider
	barcodes *services.BarcodeService
	invoices *services.InvoiceService
	closers  []func() error
}

// openApp loads config, the logger and the invoice provider. A non-empty input file
// overrides the configured storage backend. Commands that print data pass logToStderr.
func openApp(ctx context.Context, opts *rootOptions, input string, logToStderr bool) (*app, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	logOutput := cfg.Logging.File
	if logToStderr && (logOutput == "" || strings.EqualFold(logOutput, "stdout")) {
		// stdout carries the command's data
		logOutput = "stderr"
	}
	log, err := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       logger.ParseLevel(cfg.Logging.Level),
		Format:      cfg.Logging.Format,
		Service:     "invoice-service",
		Version:     version,
		Environment: cfg.Server.Mode,
		OutputPath:  logOutput,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg, log: log, barcodes: services.NewBarcodeService()}
	a.closers = append(a.closers, log.Close)

	if err := a.openProvider(ctx, input); err != nil {
		_ = a.Close()
		return nil, err
	}

	pdf := services.NewPDFService(cfg.PDF, a.barcodes, log)
	a.invoices = services.NewInvoiceService(a.provider, pdf, log)
	return a, nil
}

func (a *app) openProvider(ctx context.Context, input string) error {
	path := input
	if path == "" && a.cfg.Storage.Backend == "file" {
		path = a.cfg.Storage.DataFile
	}

	if path != "" {
		source, err := repository.LoadStaticSource(path)
		if err != nil {
			return err
		}
		a.provider = source
		a.log.Info("Loaded invoices from file", map[string]interface{}{"path": path})
		return nil
	}

	db, err := repository.NewDatabase(&a.cfg.Database, a.log)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, db.Close)

	repo := repository.NewInvoiceRepository(db, a.cfg.Invoice.InvoiceNumberPrefix)
	if err := repo.SeedDefaultTemplates(ctx); err != nil {
		return err
	}
	a.provider = repo
	a.log.Info("Database connected", map[string]interface{}{"driver": a.cfg.Database.Driver})
	return nil
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
