package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/teamrsvp/internal/model"
	"github.com/sakif/teamrsvp/internal/slack"
)

// Notifier accepts RSVP notifications for delivery. Notify must never block
// on, or report, the delivery itself.
type Notifier interface {
	Notify(n model.Notification)
}

// MessagePoster sends a formatted message to the chat platform.
// *slack.Client implements it.
type MessagePoster interface {
	PostMessage(ctx context.Context, msg slack.Message) error
}

// DispatcherConfig sizes the notification queue.
type DispatcherConfig struct {
	QueueSize int           // pending notifications before new ones are dropped
	Timeout   time.Duration // per-message delivery deadline
}

// DefaultDispatcherConfig provides sensible defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		QueueSize: 64,
		Timeout:   10 * time.Second,
	}
}

// Dispatcher delivers notifications on a background goroutine.
//
// Callers only ever enqueue. Delivery happens on the worker started by Start,
// under its own context and deadline. Delivery failures are logged and
// dropped.
type Dispatcher struct {
	poster MessagePoster
	config DispatcherConfig
	logger *slog.Logger
	queue  chan model.Notification
	done   chan struct{}
	wg     sync.WaitGroup

	// mu orders Notify's enqueue against Stop: once stopped is set nothing
	// new reaches the queue, so the worker's final drain sees every accepted
	// notification.
	mu      sync.RWMutex
	stopped bool

	start  sync.Once
	stop   sync.Once
}

// compile-time check
var _ Notifier = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher. Call Start before notifications are
// expected to flow and Stop on shutdown.
func NewDispatcher(poster MessagePoster, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	def := DefaultDispatcherConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Dispatcher{
		poster: poster,
		config: cfg,
		logger: logger,
		queue:  make(chan model.Notification, cfg.QueueSize),
		done:   make(chan struct{}),
	}
}

// Start launches the delivery worker. Calling it more than once is a no-op.
func (d *Dispatcher) Start() {
	d.start.Do(func() {
		d.logger.Info("starting notification dispatcher", slog.Int("queueSize", d.config.QueueSize))
		d.wg.Add(1)
		go d.run()
	})
}

// Stop delivers whatever is already queued, then stops the worker.
func (d *Dispatcher) Stop() {
	d.stop.Do(func() {
		d.logger.Info("stopping notification dispatcher")
		d.mu.Lock()
		d.stopped = true
		close(d.done)
		d.mu.Unlock()
	})
	d.wg.Wait()
}

// Notify enqueues n without blocking. When the queue is full or the
// dispatcher is stopping, n is dropped and logged.
func (d *Dispatcher) Notify(n model.Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		d.logger.Warn("dispatcher stopped, dropping notification",
			slog.String("kind", string(n.Kind)),
			slog.String("event", n.Event.ID),
		)
		return
	}

	select {
	case d.queue <- n:
	default:
		d.logger.Warn("notification queue full, dropping notification",
			slog.String("kind", string(n.Kind)),
			slog.String("event", n.Event.ID),
		)
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case n := <-d.queue:
			d.deliver(n)
		case <-d.done:
			for {
				select {
				case n := <-d.queue:
					d.deliver(n)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(n model.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.config.Timeout)
	defer cancel()

	if err := d.poster.PostMessage(ctx, slack.NewEventMessage(n)); err != nil {
		d.logger.Error("failed to post notification",
			slog.String("kind", string(n.Kind)),
			slog.String("event", n.Event.ID),
			slog.String("channel", n.Event.Channel),
			slog.String("error", err.Error()),
		)
		return
	}
	d.logger.Debug("notification posted",
		slog.String("kind", string(n.Kind)),
		slog.String("event", n.Event.ID),
	)
}
