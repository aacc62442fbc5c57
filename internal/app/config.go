package app

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/notifyrelay/pkg/config"
	"github.com/dmitrymomot/notifyrelay/pkg/email"
	"github.com/dmitrymomot/notifyrelay/pkg/httpserver"
	"github.com/dmitrymomot/notifyrelay/pkg/logger"
	"github.com/dmitrymomot/notifyrelay/pkg/notifications"
	"github.com/dmitrymomot/notifyrelay/pkg/queue"
	"github.com/dmitrymomot/notifyrelay/pkg/rabbitmq"
)

// Status store drivers accepted by STATUS_STORE.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

// QueuesConfig names the main and dead-letter queue of each channel.
type QueuesConfig struct {
	Email        string `env:"QUEUE_EMAIL"         envDefault:"email_notifications"`
	EmailDLQ     string `env:"QUEUE_EMAIL_DLQ"     envDefault:"email_notifications_dlq"`
	WebSocket    string `env:"QUEUE_WEBSOCKET"     envDefault:"websocket_notifications"`
	WebSocketDLQ string `env:"QUEUE_WEBSOCKET_DLQ" envDefault:"websocket_notifications_dlq"`
}

// Pairs returns the broker topology for both channels, email first.
func (q QueuesConfig) Pairs() []rabbitmq.QueuePair {
	return []rabbitmq.QueuePair{
		{Name: q.Email, DeadLetter: q.EmailDLQ},
		{Name: q.WebSocket, DeadLetter: q.WebSocketDLQ},
	}
}

// Main returns the main queue names in the form the manager expects.
func (q QueuesConfig) Main() notifications.Queues {
	return notifications.Queues{Email: q.Email, WebSocket: q.WebSocket}
}

// Config is the process configuration. Driver-specific store settings
// (MONGODB_*, PG_*, REDIS_*) are loaded only for the selected driver.
type Config struct {
	Log      logger.Config
	HTTP     httpserver.Config
	RabbitMQ rabbitmq.Config
	Queue    queue.Config
	Queues   QueuesConfig
	Email    email.Config

	StatusStore    string `env:"STATUS_STORE"         envDefault:"mongo"`
	RoomBuffer     int    `env:"EVENTS_ROOM_BUFFER"   envDefault:"16"`
	RoomCapacity   int    `env:"EVENTS_ROOM_CAPACITY" envDefault:"1024"`
	MaxRequestBody int64  `env:"HTTP_MAX_BODY_BYTES"  envDefault:"1048576"`
}

// LoadConfig reads Config from the environment and an optional .env file.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that have no safe fallback.
func (c Config) Validate() error {
	var errs []error

	switch c.StatusStore {
	case StoreMongo, StorePostgres, StoreRedis, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownStore, c.StatusStore))
	}

	for _, p := range c.Queues.Pairs() {
		if p.Name == "" || p.DeadLetter == "" {
			errs = append(errs, fmt.Errorf("%w: %+v", ErrQueueNameRequired, p))
		}
		if p.Name == p.DeadLetter {
			errs = append(errs, fmt.Errorf("%w: %q", ErrQueueNameConflict, p.Name))
		}
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}
