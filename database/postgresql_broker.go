// Copyright (C) 2025 VeriSkill GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"github.com/veriskill/integrity-engine/monitoring"
)

type postgreSQLMessage struct {
	ID        string         `json:"id"`
	Channel   Channel        `json:"topic"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
	SenderID  string         `json:"sender_id,omitempty"`
}

type listeningConnection struct {
	Conn        *pgxpool.Conn
	Subscribers []chan map[string]any
}

// PostgreSQLBroker implements the Broker interface using PostgreSQL
// LISTEN/NOTIFY. The ingest path and the background daemons run in the same
// process today, so the broker delivers its own messages back to itself.
type PostgreSQLBroker struct {
	db           *pgxpool.Pool
	subscribers  map[Channel]listeningConnection
	subscribeMux sync.RWMutex
	wg           sync.WaitGroup
	ID           string
}

func NewPostgreSQLBroker(db *pgxpool.Pool) (*PostgreSQLBroker, error) {
	return &PostgreSQLBroker{
		db:          db,
		subscribers: make(map[Channel]listeningConnection),
		ID:          uuid.New().String(),
	}, nil
}

func (b *PostgreSQLBroker) Publish(ctx context.Context, message Message) error {
	pgMessage := postgreSQLMessage{
		ID:        uuid.New().String(),
		Channel:   message.GetChannel(),
		Payload:   message.GetPayload(),
		Timestamp: time.Now(),
		SenderID:  b.ID,
	}

	messageJSON, err := json.Marshal(pgMessage)
	if err != nil {
		return fmt.Errorf("failed to marshal broker message: %w", err)
	}

	query := fmt.Sprintf("NOTIFY %s, '%s'", pq.QuoteIdentifier(string(pgMessage.Channel)), string(messageJSON))
	if _, err := b.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	slog.Debug("message published", "topic", pgMessage.Channel, "messageID", pgMessage.ID)
	return nil
}

func (b *PostgreSQLBroker) Subscribe(topic Channel) (<-chan map[string]any, error) {
	b.subscribeMux.Lock()
	defer b.subscribeMux.Unlock()

	ch := make(chan map[string]any, 100)

	if _, exists := b.subscribers[topic]; !exists {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		conn, err := b.db.Acquire(ctx)
		if err != nil {
			close(ch)
			return nil, fmt.Errorf("failed to acquire connection for listening: %w", err)
		}
		if _, err := conn.Exec(context.Background(), "LISTEN "+pq.QuoteIdentifier(string(topic))); err != nil {
			conn.Release()
			close(ch)
			return nil, fmt.Errorf("failed to listen on topic %s: %w", topic, err)
		}
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.processMessages(topic, conn)
		}()

		b.subscribers[topic] = listeningConnection{Conn: conn}
	}

	b.subscribers[topic] = listeningConnection{
		Conn:        b.subscribers[topic].Conn,
		Subscribers: append(b.subscribers[topic].Subscribers, ch),
	}

	return ch, nil
}

func (b *PostgreSQLBroker) processMessages(topic Channel, conn *pgxpool.Conn) {
	for {
		notification, err := conn.Conn().WaitForNotification(context.TODO())
		if err != nil {
			conn.Release()
			monitoring.Alert("could not listen for notifications from PostgreSQL broker", err)
			return
		}
		if notification == nil || notification.Channel != string(topic) {
			continue
		}

		var message postgreSQLMessage
		if err := json.Unmarshal([]byte(notification.Payload), &message); err != nil {
			slog.Error("failed to unmarshal broker message", "err", err, "payload", notification.Payload)
			continue
		}

		b.subscribeMux.RLock()
		subscribers, exists := b.subscribers[topic]
		b.subscribeMux.RUnlock()

		if !exists {
			continue
		}

		for _, subscriber := range subscribers.Subscribers {
			select {
			case subscriber <- message.Payload:
			default:
				slog.Warn("subscriber channel full, dropping message", "topic", topic, "messageID", message.ID)
			}
		}
	}
}

// IsHealthy checks that all listening connections are still alive.
func (b *PostgreSQLBroker) IsHealthy() bool {
	b.subscribeMux.RLock()
	defer b.subscribeMux.RUnlock()

	for topic, listeningConn := range b.subscribers {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := listeningConn.Conn.Ping(ctx)
		cancel()
		if err != nil {
			slog.Error("listening connection is not healthy", "topic", topic, "err", err)
			return false
		}
	}
	return true
}
