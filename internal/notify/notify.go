// Package notify publishes run outcome events to NATS JetStream so
// downstream tooling (chat bots, dashboards) can react to publishes and
// failures without polling the run log.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/confpress/confpress/internal/config"
	"github.com/confpress/confpress/internal/logfields"
)

// RunEvent is the payload published for every finished pipeline run.
type RunEvent struct {
	RunID     string    `json:"run_id"`
	Trigger   string    `json:"trigger"`
	Outcome   string    `json:"outcome"`
	Commit    string    `json:"commit,omitempty"`
	Duration  string    `json:"duration"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier publishes run events. The zero-value-like disabled notifier
// returned when config is off publishes nothing.
type Notifier struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
	logger  *slog.Logger
}

// NewNotifier connects to NATS when notifications are enabled; otherwise it
// returns a disabled notifier and no error.
func NewNotifier(cfg config.NotifyConfig, logger *slog.Logger) (*Notifier, error) {
	if !cfg.Enabled {
		return &Notifier{logger: logger}, nil
	}

	conn, err := nats.Connect(cfg.NATSURL,
		nats.Name("confpress"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	logger.Info("run notifications enabled",
		logfields.URL(cfg.NATSURL), logfields.Name(cfg.Subject))

	return &Notifier{conn: conn, js: js, subject: cfg.Subject, logger: logger}, nil
}

// Enabled reports whether events will actually be published.
func (n *Notifier) Enabled() bool { return n != nil && n.js != nil }

// PublishRun publishes one run event. Failures are returned, not fatal; the
// caller decides whether a missed notification matters.
func (n *Notifier) PublishRun(ctx context.Context, event RunEvent) error {
	if !n.Enabled() {
		return nil
	}

	event.Timestamp = time.Now().UTC()
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := n.js.Publish(ctx, n.subject, data); err != nil {
		return fmt.Errorf("publish run event: %w", err)
	}

	n.logger.Debug("published run event",
		logfields.RunID(event.RunID), slog.String("outcome", event.Outcome))
	return nil
}

// Close closes the NATS connection.
func (n *Notifier) Close() {
	if n != nil && n.conn != nil {
		n.conn.Close()
	}
}
