package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/consoleauth/internal/console/store"
)

// SessionWatchdog keeps the controller in step with the persisted session
// when other processes share the storage. Drivers that can report changes
// are watched; the rest are polled.
type SessionWatchdog struct {
	Store      store.Store
	Controller *FlowController
	Logger     *slog.Logger
	Interval   time.Duration

	cancel context.CancelFunc
	doneCh chan struct{}
}

// NewSessionWatchdog creates a watchdog. If interval is 0 or negative the
// poll interval defaults to one second.
func NewSessionWatchdog(st store.Store, c *FlowController, logger *slog.Logger, interval time.Duration) *SessionWatchdog {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionWatchdog{
		Store:      st,
		Controller: c,
		Logger:     logger,
		Interval:   interval,
		doneCh:     make(chan struct{}),
	}
}

// Start begins watching in the background. Call Stop to shut it down.
func (w *SessionWatchdog) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	go w.run(ctx)
}

// Stop blocks until the background worker has exited.
func (w *SessionWatchdog) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.doneCh
	w.Logger.Info("session watchdog stopped")
}

func (w *SessionWatchdog) run(ctx context.Context) {
	defer close(w.doneCh)

	if watcher, ok := w.Store.(store.Watcher); ok {
		w.Logger.Info("session watchdog started", "mode", "watch")
		err := watcher.Watch(ctx, func(key string) {
			if key == SessionKey {
				w.sync(ctx)
			}
		})
		if ctx.Err() != nil {
			return
		}
		w.Logger.Warn("storage watch failed, falling back to polling", "error", err)
	}

	w.Logger.Info("session watchdog started", "mode", "poll", "interval", w.Interval)

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sync(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *SessionWatchdog) sync(ctx context.Context) {
	if err := w.Controller.SyncFromStore(ctx); err != nil && ctx.Err() == nil {
		w.Logger.Error("failed to sync persisted session", "error", err)
	}
}
