package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/notifyrelay/pkg/broadcast"
	"github.com/dmitrymomot/notifyrelay/pkg/email"
	"github.com/dmitrymomot/notifyrelay/pkg/environment"
	"github.com/dmitrymomot/notifyrelay/pkg/health"
	"github.com/dmitrymomot/notifyrelay/pkg/httpserver"
	"github.com/dmitrymomot/notifyrelay/pkg/logger"
	"github.com/dmitrymomot/notifyrelay/pkg/notifications"
	"github.com/dmitrymomot/notifyrelay/pkg/queue"
	"github.com/dmitrymomot/notifyrelay/pkg/rabbitmq"
)

// Consumer tags registered with the broker.
const (
	EmailConsumerTag     = "notifyrelay-email"
	WebSocketConsumerTag = "notifyrelay-websocket"
)

// App is the assembled relay: HTTP API, both queue consumers and the
// connections they share.
type App struct {
	log       *slog.Logger
	broker    *rabbitmq.Connection
	store     *Store
	rooms     *broadcast.Rooms[broadcast.Event]
	server    *httpserver.Server
	router    http.Handler
	consumers []*queue.Consumer
}

// New connects the broker and the status store and wires every component.
// Any failure aborts startup and releases what was already opened.
func New(ctx context.Context, cfg Config, log *slog.Logger) (_ *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	a := &App{log: log}
	defer func() {
		if err != nil {
			_ = a.Close(context.WithoutCancel(ctx))
		}
	}()

	pairs := cfg.Queues.Pairs()
	if a.broker, err = rabbitmq.Connect(ctx, cfg.RabbitMQ, pairs, rabbitmq.WithLogger(log)); err != nil {
		return nil, err
	}
	if a.store, err = OpenStore(ctx, cfg.StatusStore, log); err != nil {
		return nil, err
	}

	publisher, err := queue.NewPublisher(a.broker, queue.WithPublisherLogger(log))
	if err != nil {
		return nil, err
	}
	sender, err := email.NewSender(cfg.Email, log)
	if err != nil {
		return nil, err
	}
	renderer, err := email.NewRendererFromConfig(cfg.Email, DefaultTemplates())
	if err != nil {
		return nil, err
	}

	a.rooms = broadcast.NewRooms[broadcast.Event](
		broadcast.WithRoomCapacity(cfg.RoomCapacity),
		broadcast.WithRoomBuffer(cfg.RoomBuffer),
		broadcast.WithRoomsLogger(log))

	manager := notifications.NewManager(a.store, publisher,
		notifications.WithManagerLogger(log),
		notifications.WithQueues(cfg.Queues.Main()))

	emailConsumer, err := queue.NewConsumer(a.broker, publisher, cfg.Queues.Email,
		notifications.NewEmailHandler(sender, renderer, a.store, notifications.WithHandlerLogger(log)),
		queue.FromConfig(cfg.Queue),
		queue.WithConsumerTag(EmailConsumerTag),
		queue.WithDeadLetterHook(notifications.DeadLetterRecorder(a.store, notifications.ChannelEmail, log)),
		queue.WithConsumerLogger(log))
	if err != nil {
		return nil, err
	}

	wsConsumer, err := queue.NewConsumer(a.broker, publisher, cfg.Queues.WebSocket,
		notifications.NewWebSocketHandler(a.rooms, a.store, notifications.WithHandlerLogger(log)),
		queue.FromConfig(cfg.Queue),
		queue.WithConsumerTag(WebSocketConsumerTag),
		queue.WithDeadLetterHook(notifications.DeadLetterRecorder(a.store, notifications.ChannelWebSocket, log)),
		queue.WithConsumerLogger(log))
	if err != nil {
		return nil, err
	}
	a.consumers = []*queue.Consumer{emailConsumer, wsConsumer}

	probe := health.NewProbe(a.broker, a.store.Ping, rabbitmq.QueueNames(pairs...), health.WithLogger(log))

	streamsDone := make(chan struct{})
	a.router = NewRouter(RouterDeps{
		Notifier:     manager,
		Events:       a.rooms,
		Templates:    renderer,
		Probe:        probe,
		Env:          environment.Parse(cfg.Log.Env),
		Logger:       log,
		MaxBodyBytes: cfg.MaxRequestBody,
		StreamsDone:  streamsDone,
	})
	a.server = httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithOnShutdown(sync.OnceFunc(func() { close(streamsDone) })))

	return a, nil
}

// Handler returns the HTTP router.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run serves HTTP and consumes both queues until ctx is cancelled or one of
// them fails. Pending retries are dropped on the way out.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(a.server.Start(ctx, a.router))
	for _, c := range a.consumers {
		g.Go(c.Run(ctx))
	}

	return g.Wait()
}

// Close releases the event rooms, the broker connection and the status store.
func (a *App) Close(ctx context.Context) error {
	var errs []error

	if a.rooms != nil {
		errs = append(errs, a.rooms.Close())
	}
	if a.broker != nil {
		errs = append(errs, a.broker.Close())
	}
	errs = append(errs, a.store.Close(ctx))

	if err := errors.Join(errs...); err != nil {
		a.log.ErrorContext(ctx, "shutdown finished with errors", logger.Component("app"), logger.Error(err))
		return err
	}
	a.log.InfoContext(ctx, "shutdown complete", logger.Component("app"))
	return nil
}
