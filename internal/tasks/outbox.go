package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is one pending hand-off to the external notification channel.
type Message struct {
	ID          string     `json:"id"`
	Destination string     `json:"destination"`
	Body        string     `json:"body"`
	CreatedAt   time.Time  `json:"created_at"`
	AckedAt     *time.Time `json:"acked_at,omitempty"`
}

// EnqueueMessage stores a message for an external delivery process.
func (s *Store) EnqueueMessage(ctx context.Context, destination, body string) (*Message, error) {
	if strings.TrimSpace(destination) == "" {
		return nil, errors.New("message destination is required")
	}
	msg := &Message{
		ID:          uuid.NewString(),
		Destination: destination,
		Body:        body,
		CreatedAt:   s.now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outbox (id, destination, body, created_at) VALUES (?, ?, ?, ?)`,
		msg.ID, msg.Destination, msg.Body, msg.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("enqueue message: %w", err)
	}
	return msg, nil
}

// PendingMessages returns unacknowledged messages, oldest first.
func (s *Store) PendingMessages(ctx context.Context) ([]*Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, destination, body, created_at, acked_at FROM outbox WHERE acked_at IS NULL ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		var (
			msg        Message
			createdRaw string
			ackedRaw   sql.NullString
		)
		if err := rows.Scan(&msg.ID, &msg.Destination, &msg.Body, &createdRaw, &ackedRaw); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			msg.CreatedAt = created
		}
		msg.AckedAt = parseNullableTime(ackedRaw)
		out = append(out, &msg)
	}
	return out, rows.Err()
}

// AckMessage marks a message delivered.
func (s *Store) AckMessage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE outbox SET acked_at = ? WHERE id = ? AND acked_at IS NULL`, s.timestamp(), id)
	if err != nil {
		return fmt.Errorf("ack message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("message %s: %w", id, ErrNotFound)
	}
	return nil
}
