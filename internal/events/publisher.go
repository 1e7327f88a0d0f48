// Package events publishes workspace lifecycle events over NATS. The
// subjects are observability-only; no state is read back from them.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yuki-ai/chat-workspace/internal/model"
	"github.com/yuki-ai/chat-workspace/pkg/logger"
)

// SubjectPrefix is the prefix for all workspace event subjects.
const SubjectPrefix = "workspace"

// Config holds NATS connection configuration.
type Config struct {
	URL   string
	Token string
}

// Publisher emits workspace events. A nil Publisher is valid and drops
// everything, so event publication can never break the core.
type Publisher struct {
	conn   *nats.Conn
	logger *logger.Logger
}

// Connect establishes a connection to the NATS server.
func Connect(cfg Config, log *logger.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Publisher{conn: nc, logger: log}, nil
}

// EventSubject returns the subject for a workspace event.
func EventSubject(sessionID string, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, sessionID, eventType)
}

// Publish emits one event. Failures are logged and swallowed.
func (p *Publisher) Publish(ev *model.WorkspaceEvent) {
	if p == nil || p.conn == nil {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("failed to marshal workspace event")
		return
	}

	if err := p.conn.Publish(EventSubject(ev.SessionID, ev.Type), data); err != nil {
		p.logger.Warn("failed to publish workspace event")
	}
}

// IsConnected returns true if connected to NATS.
func (p *Publisher) IsConnected() bool {
	return p != nil && p.conn != nil && p.conn.IsConnected()
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}
