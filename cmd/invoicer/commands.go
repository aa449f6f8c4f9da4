package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go-invoice-service/internal/models"
	"go-invoice-service/internal/services"

	"github.com/spf13/cobra"
)

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var (
		input    string
		number   string
		template string
		outDir   string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one invoice to PDF or HTML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format = strings.ToLower(format)
			if format != "pdf" && format != "html" {
				return fmt.Errorf("unsupported render format %q", format)
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, opts, input, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if template == "" {
				template = a.cfg.Invoice.DefaultTemplate
			}

			var (
				data     []byte
				filename string
			)
			if format == "pdf" {
				data, filename, err = a.invoices.InvoicePDF(ctx, number, template)
			} else {
				var html string
				html, err = a.invoices.InvoiceHTML(ctx, number, template)
				data = []byte(html)
				filename = strings.TrimSuffix(services.InvoiceFileName(number), ".pdf") + ".html"
			}
			if err != nil {
				return err
			}

			path, err := writeOutput(outDir, filename, data)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "JSON file with invoices (defaults to the configured storage)")
	cmd.Flags().StringVarP(&number, "number", "n", "", "invoice number")
	cmd.Flags().StringVarP(&template, "template", "t", "", "template ID or layout (modern, classic, minimal, professional)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "pdf or html")
	_ = cmd.MarkFlagRequired("number")

	// --layout reads better when picking one of the built-in templates
	cmd.Flags().StringVar(&template, "layout", "", "alias for --template")
	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		input   string
		format  string
		outFile string
		filter  models.InvoiceFilter
		status  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export invoices as JSON or CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts, input, true)
			if err != nil {
				return err
			}
			defer a.Close()

			filter.Status = models.InvoiceStatus(strings.ToLower(status))
			data, _, err := a.invoices.Export(ctx, filter, services.ExportFormat(strings.ToLower(format)))
			if err != nil {
				return err
			}

			if outFile == "" {
				fmt.Fprintln(cmd.OutOrStdout(), data)
				return nil
			}
			if err := os.WriteFile(outFile, []byte(data), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outFile, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), outFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "JSON file with invoices (defaults to the configured storage)")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json or csv")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (defaults to stdout)")
	cmd.Flags().StringVar(&status, "status", "", "only invoices with this status")
	cmd.Flags().StringVar(&filter.CustomerKey, "customer", "", "only invoices of this customer email or name")
	cmd.Flags().BoolVar(&filter.OverdueOnly, "overdue", false, "only overdue invoices")
	cmd.Flags().StringVar(&filter.SearchTerm, "search", "", "search invoice numbers and customer names")
	return cmd
}

func newAnalyticsCmd(opts *rootOptions) *cobra.Command {
	var (
		input    string
		period   string
		pdfDir   string
		currency string
	)

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Summarize invoices over a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts, input, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if pdfDir != "" {
				if currency == "" {
					currency = a.cfg.Invoice.CurrencyCode
				}
				data, filename, err := a.invoices.AnalyticsPDF(ctx, period, currency)
				if err != nil {
					return err
				}
				path, err := writeOutput(pdfDir, filename, data)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}

			analytics, r, err := a.invoices.Analytics(ctx, period)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]interface{}{
				"period":    r.Period,
				"label":     r.Label(),
				"analytics": analytics,
			})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "JSON file with invoices (defaults to the configured storage)")
	cmd.Flags().StringVarP(&period, "period", "p", "30days", "7days, 30days, 90days, 1year or all")
	cmd.Flags().StringVar(&pdfDir, "pdf", "", "write a PDF report into this directory instead of printing JSON")
	cmd.Flags().StringVar(&currency, "currency", "", "currency for the PDF report")
	return cmd
}

func writeOutput(dir, filename string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
