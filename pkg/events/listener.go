package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
)

// CancelListener LISTENs on CancelChannel and invokes a handler for every
// cancel(run_id) broadcast, so every worker process — not just the one
// that owns the run's WorkerPool — observes the cancellation. Grounded on
// the teacher's NotifyListener (pkg/events/listener.go): a dedicated pgx
// connection, a single receive-loop goroutine, and reconnect-with-backoff
// on connection loss. Trimmed to one fixed channel with one handler, since
// ACM has no WebSocket fan-out and no dynamic per-session subscriptions.
type CancelListener struct {
	connString string
	conn       *pgx.Conn
	connMu     sync.Mutex
	handler    func(runID string)
	running    atomic.Bool
	cancelLoop context.CancelFunc
	loopDone   chan struct{}
}

// NewCancelListener creates a CancelListener that invokes handler for every
// run id broadcast on CancelChannel.
func NewCancelListener(connString string, handler func(runID string)) *CancelListener {
	return &CancelListener{connString: connString, handler: handler}
}

// Start establishes the dedicated LISTEN connection and begins receiving notifications.
func (l *CancelListener) Start(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.connString)
	if err != nil {
		return err
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{CancelChannel}.Sanitize()); err != nil {
		_ = conn.Close(ctx)
		return err
	}

	l.connMu.Lock()
	l.conn = conn
	l.connMu.Unlock()
	l.running.Store(true)

	loopCtx, cancel := context.WithCancel(ctx)
	l.cancelLoop = cancel
	l.loopDone = make(chan struct{})
	go func() {
		defer close(l.loopDone)
		l.receiveLoop(loopCtx)
	}()

	slog.Info("cancel listener started", "channel", CancelChannel)
	return nil
}

func (l *CancelListener) receiveLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		l.connMu.Lock()
		conn := l.conn
		l.connMu.Unlock()

		if conn == nil {
			l.reconnect(ctx)
			continue
		}

		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("cancel listener receive error", "error", err)
			l.reconnect(ctx)
			continue
		}

		l.handler(notification.Payload)
	}
}

func (l *CancelListener) reconnect(ctx context.Context) {
	l.connMu.Lock()
	defer l.connMu.Unlock()

	if l.conn != nil {
		_ = l.conn.Close(ctx)
		l.conn = nil
	}

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		conn, err := pgx.Connect(ctx, l.connString)
		if err != nil {
			slog.Error("cancel listener reconnect failed", "error", err, "backoff", backoff)
			backoff = min(backoff*2, 30*time.Second)
			continue
		}
		if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{CancelChannel}.Sanitize()); err != nil {
			slog.Error("cancel listener re-listen failed", "error", err)
			_ = conn.Close(ctx)
			continue
		}

		l.conn = conn
		slog.Info("cancel listener reconnected")
		return
	}
}

// Stop signals the receive loop to exit, waits for it to finish, then
// closes the LISTEN connection.
func (l *CancelListener) Stop(ctx context.Context) {
	l.running.Store(false)
	if l.cancelLoop != nil {
		l.cancelLoop()
	}
	if l.loopDone != nil {
		<-l.loopDone
	}

	l.connMu.Lock()
	defer l.connMu.Unlock()
	if l.conn != nil {
		_ = l.conn.Close(ctx)
		l.conn = nil
	}
}
