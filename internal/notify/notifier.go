// Package notify turns settlement events into operator notifications. The
// notifier implements domain.EventSink so it can be fanned into the engine's
// event pipeline alongside the other sinks.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/updownlabs/updown/internal/domain"
)

// Sender is a single delivery channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier formats settlement events and dispatches them to every registered
// sender. Only event kinds in the allowed set are forwarded; an empty set
// allows everything.
type Notifier struct {
	senders []Sender
	kinds   map[domain.EventKind]bool
	logger  *slog.Logger
}

// New creates a Notifier delivering the given event kinds to senders.
func New(senders []Sender, kinds []string, logger *slog.Logger) *Notifier {
	allowed := make(map[domain.EventKind]bool, len(kinds))
	for _, k := range kinds {
		allowed[domain.EventKind(strings.TrimSpace(k))] = true
	}
	return &Notifier{
		senders: senders,
		kinds:   allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Publish implements domain.EventSink.
func (n *Notifier) Publish(ctx context.Context, ev domain.Event) error {
	if len(n.senders) == 0 {
		return nil
	}
	if len(n.kinds) > 0 && !n.kinds[ev.Kind] {
		return nil
	}

	title, message := format(ev)

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// format renders an event as a short human-readable title and body.
func format(ev domain.Event) (title, message string) {
	switch ev.Kind {
	case domain.EventMarketCreated:
		return "Market created",
			fmt.Sprintf("Market %d opened at start price %d.", ev.MarketID, ev.Amount)
	case domain.EventStakePlaced:
		return "Stake placed",
			fmt.Sprintf("Market %d: %s staked %d on %s.", ev.MarketID, ev.Account.Hex(), ev.Amount, ev.Side)
	case domain.EventMarketResolved:
		return "Market resolved",
			fmt.Sprintf("Market %d resolved at %d; %s wins.", ev.MarketID, ev.Amount, ev.Side)
	case domain.EventWinningsClaimed:
		return "Winnings claimed",
			fmt.Sprintf("Market %d: %s claimed %d (fee %d).", ev.MarketID, ev.Account.Hex(), ev.Payout, ev.Fee)
	case domain.EventFeesWithdrawn:
		return "Fees withdrawn",
			fmt.Sprintf("Administrator withdrew %d from escrow.", ev.Amount)
	default:
		return string(ev.Kind), fmt.Sprintf("Market %d.", ev.MarketID)
	}
}
