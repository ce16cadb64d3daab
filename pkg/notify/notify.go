// Package notify delivers best-effort notifications. Callers treat a failed
// Send as a warning; it never rolls back the action that triggered it.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/cakeshop-backend/pkg/config"
	"github.com/angelmondragon/cakeshop-backend/pkg/logger"
)

const KindNewsletterConfirmation = "newsletter.confirmation"

// Message is a single outbound notification.
type Message struct {
	Kind    string
	To      string
	Subject string
	Body    string
}

// Sink delivers messages.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}

var ErrNoRecipient = errors.New("notification recipient is required")

// Dependencies carries the optional clients a driver may need.
type Dependencies struct {
	Publisher Publisher
	Logger    *logger.Logger
}

// NewFromConfig returns the sink selected by the notify driver. Delivery
// drivers are paired with a LogSink so every dispatch is logged.
func NewFromConfig(cfg *config.Config, deps Dependencies) (Sink, error) {
	switch cfg.Notify.NormalizedDriver() {
	case config.NotifyDriverLog:
		return NewLogSink(deps.Logger), nil
	case config.NotifyDriverSMTP:
		sink, err := NewSMTPSink(cfg.SMTP, cfg.Notify.FromAddress)
		if err != nil {
			return nil, err
		}
		return MultiSink{NewLogSink(deps.Logger), sink}, nil
	case config.NotifyDriverPubSub:
		if deps.Publisher == nil {
			return nil, fmt.Errorf("pubsub publisher required for %s driver", config.NotifyDriverPubSub)
		}
		sink, err := NewPubSubSink(deps.Publisher, cfg.PubSub.NewsletterTopic, cfg.Notify.FromAddress)
		if err != nil {
			return nil, err
		}
		return MultiSink{NewLogSink(deps.Logger), sink}, nil
	default:
		return nil, fmt.Errorf("unsupported notify driver %q", cfg.Notify.Driver)
	}
}

func validate(msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	return nil
}
