// Package notify hands reminders to an outbound transport. Without a
// publisher the dispatcher runs in mock mode and only acknowledges.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventsphere/event-service/internal/clock"
	"github.com/eventsphere/event-service/internal/domain"
	"github.com/eventsphere/event-service/internal/metrics"
)

const (
	ModeMock = "mock"
	ModeLive = "live"
)

type Reminder struct {
	Subject     string
	Message     string
	PhoneNumber string
	TopicArn    string
}

func (r Reminder) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return domain.ErrMessageRequired
	}
	if strings.TrimSpace(r.PhoneNumber) == "" && strings.TrimSpace(r.TopicArn) == "" {
		return domain.ErrRecipientRequired
	}
	return nil
}

// destination is where a live publish goes. A topic wins over a phone number.
func (r Reminder) destination() string {
	if r.TopicArn != "" {
		return r.TopicArn
	}
	return r.PhoneNumber
}

// Receipt acknowledges a dispatch.
type Receipt struct {
	Mode        string    `json:"mode"`
	Mock        bool      `json:"mock"`
	MessageID   string    `json:"messageId,omitempty"`
	Destination string    `json:"destination"`
	AcceptedAt  time.Time `json:"acceptedAt"`
}

// Publisher delivers one reminder and returns the transport's message id.
type Publisher interface {
	Publish(ctx context.Context, r Reminder) (string, error)
}

type Dispatcher struct {
	publisher Publisher
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	clock     clock.Clock
}

type Option func(*Dispatcher)

// WithPublisher switches the dispatcher to live mode.
func WithPublisher(p Publisher) Option {
	return func(d *Dispatcher) {
		d.publisher = p
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

func WithClock(c clock.Clock) Option {
	return func(d *Dispatcher) {
		d.clock = c
	}
}

func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger: zerolog.Nop(),
		clock:  clock.NewSystem(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Mode() string {
	if d.publisher == nil {
		return ModeMock
	}
	return ModeLive
}

// Send validates and dispatches r. Transport failures wrap domain.ErrDispatch.
func (d *Dispatcher) Send(ctx context.Context, r Reminder) (Receipt, error) {
	r = Reminder{
		Subject:     strings.TrimSpace(r.Subject),
		Message:     strings.TrimSpace(r.Message),
		PhoneNumber: strings.TrimSpace(r.PhoneNumber),
		TopicArn:    strings.TrimSpace(r.TopicArn),
	}
	if err := r.Validate(); err != nil {
		return Receipt{}, err
	}

	mode := d.Mode()
	receipt := Receipt{
		Mode:        mode,
		Mock:        mode == ModeMock,
		Destination: r.destination(),
		AcceptedAt:  d.clock.Now(),
	}

	if d.publisher == nil {
		d.logger.Info().
			Str("destination", receipt.Destination).
			Str("subject", r.Subject).
			Msg("mock mode, skipping publish")
		d.metrics.Dispatch(mode, nil)
		return receipt, nil
	}

	id, err := d.publisher.Publish(ctx, r)
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrDispatch, err)
		d.metrics.Dispatch(mode, err)
		d.logger.Error().Err(err).Str("destination", receipt.Destination).Msg("publish failed")
		return Receipt{}, err
	}
	receipt.MessageID = id
	d.metrics.Dispatch(mode, nil)
	d.logger.Info().
		Str("destination", receipt.Destination).
		Str("message_id", id).
		Msg("notification published")
	return receipt, nil
}
