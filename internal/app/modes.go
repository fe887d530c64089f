package app

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/updownlabs/updown/internal/server"
	"github.com/updownlabs/updown/internal/server/handler"
)

// shutdownGrace is how long in-flight requests get to finish after the
// run context is cancelled.
const shutdownGrace = 10 * time.Second

// Serve runs the HTTP API and the WebSocket event fan-out until the context
// is cancelled.
func (a *App) Serve(ctx context.Context, deps *Dependencies) error {
	g, ctx := errgroup.WithContext(ctx)

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			APIKey:      a.cfg.Server.APIKey,
		},
		server.Handlers{
			Markets:   handler.NewMarketHandler(deps.Engine, a.logger),
			Positions: handler.NewPositionHandler(deps.Engine, a.logger),
			Admin:     handler.NewAdminHandler(deps.Engine, deps.Audit, a.logger),
			Blocks:    deps.Blocks,
		},
		deps.Hub,
		a.logger,
	)

	g.Go(func() error {
		err := deps.Hub.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
