package app

import (
	"context"
	"log/slog"

	s3blob "github.com/updownlabs/updown/internal/blob/s3"
	"github.com/updownlabs/updown/internal/domain"
)

// archiveSink writes a settlement report to object storage whenever a market
// resolves. Other event kinds pass through untouched.
type archiveSink struct {
	reporter  *s3blob.Reporter
	markets   domain.MarketStore
	positions domain.PositionStore
	logger    *slog.Logger
}

func newArchiveSink(reporter *s3blob.Reporter, markets domain.MarketStore, positions domain.PositionStore, logger *slog.Logger) *archiveSink {
	return &archiveSink{
		reporter:  reporter,
		markets:   markets,
		positions: positions,
		logger:    logger,
	}
}

func (a *archiveSink) Publish(ctx context.Context, ev domain.Event) error {
	if ev.Kind != domain.EventMarketResolved {
		return nil
	}

	m, err := a.markets.Get(ctx, ev.MarketID)
	if err != nil {
		return err
	}
	positions, err := a.positions.ListByMarket(ctx, ev.MarketID)
	if err != nil {
		return err
	}

	if err := a.reporter.Archive(ctx, m, positions); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "archive: settlement report stored",
		slog.Uint64("market_id", ev.MarketID),
	)
	return nil
}
