package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/delegationapp/delegate/internal/handler"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the localhost gateway the UI process consumes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := buildEngine(ctx, true)
			if err != nil {
				return err
			}
			defer e.close()

			// Seed the list before the UI asks for it; a cold failure is
			// fine, the error slot carries it.
			if err := e.reconciler.Reload(ctx); err != nil {
				e.logger.Warn("initial reload failed", zap.Error(err))
			}

			router := handler.NewRouter(handler.RouterDeps{
				Config:  e.cfg,
				Logger:  e.logger,
				Metrics: e.metrics,
				Session: e.session,
				MyAds:   handler.NewMyAdsHandler(e.reconciler, e.exporter),
				Drafts:  handler.NewDraftHandler(e.drafts, e.pipeline, e.reconciler),
				Feed:    handler.NewFeedHandler(e.feed),
			})

			srv := &http.Server{
				Addr:    fmt.Sprintf(":%d", e.cfg.Port),
				Handler: router,
			}
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()
			e.logger.Sugar().Infow("gateway starting", "addr", srv.Addr, "env", e.cfg.Env)

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}
}
