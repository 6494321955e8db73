// Package notify subscribes to the backend push channel for the logged-in
// account and maps inbound events onto engine state transitions: trigger a
// reconciliation, force a logout, or surface a payment-resolution view.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	ws "github.com/coder/websocket"

	"github.com/vidgate/vidgate/internal/model"
	"github.com/vidgate/vidgate/internal/provider"
)

const pingInterval = 30 * time.Second

// SessionController is the logout hook for account.logout events.
type SessionController interface {
	ForceLogout(ctx context.Context)
}

// Reconciler re-fetches subscription state on access events.
type Reconciler interface {
	Reconcile(ctx context.Context, delay time.Duration) error
	HasSubscription() bool
}

// Sink is the UI boundary. Implementations render; the dispatcher only
// decides what to surface.
type Sink interface {
	PaymentError(message string)
	Welcome()
	RequiresAction(redirectURL string)
	SimultaneousLogins()
}

// Dispatcher owns at most one push channel at a time. Subscribing for a new
// account replaces the previous channel; Close tears it down on logout.
type Dispatcher struct {
	logger     *slog.Logger
	resolver   *provider.Resolver
	session    SessionController
	reconciler Reconciler
	sink       Sink

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	welcomed bool
}

func NewDispatcher(resolver *provider.Resolver, session SessionController, rec Reconciler, sink Sink, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		logger:     logger,
		resolver:   resolver,
		session:    session,
		reconciler: rec,
		sink:       sink,
	}
}

// Subscribe opens the push channel for accountID. Best-effort: a channel
// that cannot be opened is logged and login proceeds without it.
func (d *Dispatcher) Subscribe(accountID string) {
	d.Close()

	url := d.resolver.Identity().NotificationsURL(accountID)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	d.mu.Lock()
	d.cancel = cancel
	d.done = done
	d.welcomed = false
	d.mu.Unlock()

	go d.run(ctx, url, done)
}

// Close tears down the active channel, if any. Safe to call repeatedly.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	cancel := d.cancel
	done := d.done
	d.cancel = nil
	d.done = nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (d *Dispatcher) run(ctx context.Context, url string, done chan struct{}) {
	defer close(done)

	conn, _, err := ws.Dial(ctx, url, nil)
	if err != nil {
		d.logger.Warn("open push channel", "error", err)
		return
	}
	defer conn.Close(ws.StatusNormalClosure, "")

	go d.keepalive(ctx, conn)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			// Connection closed or context cancelled. At-most-once channel:
			// no replay on reconnect.
			return
		}
		d.handle(ctx, data)
	}
}

func (d *Dispatcher) keepalive(ctx context.Context, conn *ws.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// handle decodes one frame and dispatches it. Malformed frames are dropped
// silently; a broken producer must not crash the client.
func (d *Dispatcher) handle(ctx context.Context, data []byte) {
	var event model.NotificationEvent
	if err := json.Unmarshal(data, &event); err != nil {
		d.logger.Debug("drop malformed notification", "error", err)
		return
	}
	d.dispatch(ctx, event)
}

func (d *Dispatcher) dispatch(ctx context.Context, event model.NotificationEvent) {
	switch event.Type {
	case model.NotifPaymentFailed, model.NotifSubscribeFailed:
		d.sink.PaymentError(event.Resource.Message)

	case model.NotifAccessGranted:
		d.mu.Lock()
		first := !d.welcomed && !d.reconciler.HasSubscription()
		if first {
			d.welcomed = true
		}
		d.mu.Unlock()
		if first {
			d.sink.Welcome()
		}
		d.reconcile(ctx)

	case model.NotifAccessRevoked:
		d.reconcile(ctx)

	case model.NotifCardRequiresAction, model.NotifSubscribeRequiresAction:
		d.sink.RequiresAction(event.Resource.RedirectURL)

	case model.NotifAccountLogout:
		if event.Resource.Reason == model.LogoutReasonSessionLimit {
			d.sink.SimultaneousLogins()
		}
		// Detached: logout closes this channel, and Close waits for the read
		// loop we are currently on.
		go d.session.ForceLogout(context.Background())

	default:
		d.logger.Debug("unhandled notification", "type", event.Type)
	}
}

// reconcile runs without delay. Handlers are idempotent, so a redundant
// reconciliation racing an in-flight one is harmless (last write wins).
func (d *Dispatcher) reconcile(ctx context.Context) {
	if err := d.reconciler.Reconcile(ctx, 0); err != nil {
		d.logger.Warn("push-triggered reconcile", "error", err)
	}
}
