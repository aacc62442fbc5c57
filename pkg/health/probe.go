package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/notifyrelay/pkg/logger"
	"github.com/dmitrymomot/notifyrelay/pkg/rabbitmq"
)

// Broker is the read-only view of the broker connection used by the probe.
// *rabbitmq.Connection implements it.
type Broker interface {
	IsHealthy() bool
	Inspect(queue string) (rabbitmq.QueueState, error)
}

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// QueueStatus is the depth and consumer count of one queue.
type QueueStatus struct {
	Depth         int `json:"depth"`
	ConsumerCount int `json:"consumerCount"`
}

// Report is a point-in-time readiness snapshot.
type Report struct {
	RabbitHealthy bool                   `json:"rabbitHealthy"`
	StoreHealthy  bool                   `json:"storeHealthy"`
	Queues        map[string]QueueStatus `json:"queues"`
}

// Ready reports whether both the broker and the store are healthy.
func (r Report) Ready() bool {
	return r.RabbitHealthy && r.StoreHealthy
}

// Probe aggregates broker liveness, store liveness and queue statistics.
// It never mutates broker or store state.
type Probe struct {
	broker  Broker
	store   Check
	queues  []string
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Probe.
type Option func(*Probe)

// WithTimeout bounds the store check.
func WithTimeout(d time.Duration) Option {
	return func(p *Probe) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the logger used for failed checks.
func WithLogger(l *slog.Logger) Option {
	return func(p *Probe) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProbe creates a probe over broker, the store check and the named queues.
// Queues must already be declared.
func NewProbe(broker Broker, store Check, queues []string, opts ...Option) *Probe {
	p := &Probe{
		broker:  broker,
		store:   store,
		queues:  queues,
		timeout: 2 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe collects a Report. Queue statistics are gathered only while the broker
// is healthy; a queue that cannot be inspected is logged and left out.
func (p *Probe) Probe(ctx context.Context) Report {
	report := Report{
		RabbitHealthy: p.broker != nil && p.broker.IsHealthy(),
		StoreHealthy:  p.checkStore(ctx),
		Queues:        map[string]QueueStatus{},
	}

	if !report.RabbitHealthy {
		return report
	}

	for _, name := range p.queues {
		state, err := p.broker.Inspect(name)
		if err != nil {
			p.logger.WarnContext(ctx, "queue inspection failed",
				logger.Component("health"),
				logger.Queue(name),
				logger.Error(err))
			continue
		}
		report.Queues[name] = QueueStatus{Depth: state.Messages, ConsumerCount: state.Consumers}
	}

	return report
}

func (p *Probe) checkStore(ctx context.Context) bool {
	if p.store == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.store(ctx); err != nil {
		p.logger.WarnContext(ctx, "status store check failed",
			logger.Component("health"),
			logger.Error(err))
		return false
	}
	return true
}
