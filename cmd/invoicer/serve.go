package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-invoice-service/internal/routes"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the invoice HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, opts, "", false)
			if err != nil {
				return err
			}
			defer a.Close()

			gin.SetMode(a.cfg.Server.Mode)
			router := routes.SetupRoutes(routes.Dependencies{
				Config:   a.cfg,
				Invoices: a.invoices,
				Barcodes: a.barcodes,
				Logger:   a.log,
			})

			srv := &http.Server{
				Addr:         a.cfg.Server.Addr(),
				Handler:      router,
				ReadTimeout:  a.cfg.Server.ReadTimeout,
				WriteTimeout: a.cfg.Server.WriteTimeout,
			}

			serveErr := make(chan error, 1)
			go func() {
				a.log.LogSystemEvent("Server starting", map[string]interface{}{
					"addr":    srv.Addr,
					"mode":    a.cfg.Server.Mode,
					"storage": a.cfg.Storage.Backend,
				})
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case err := <-serveErr:
				if err != nil {
					a.log.Error("Failed to start server", err)
					return err
				}
				return nil
			case <-ctx.Done():
			}

			a.log.LogSystemEvent("Shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.log.Error("Server forced to shutdown", err)
				return err
			}
			a.log.LogSystemEvent("Server exited gracefully")
			return nil
		},
	}
}
