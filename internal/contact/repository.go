package contact

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, sub Submission) (Message, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO contact_messages (name, email, message, delivered, created_at)
		VALUES (?, ?, ?, 0, ?)
	`, sub.Name, sub.Email, sub.Message, now)
	if err != nil {
		return Message{}, fmt.Errorf("insert contact message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Message{}, fmt.Errorf("contact message id: %w", err)
	}
	return Message{
		ID:        id,
		Name:      sub.Name,
		Email:     sub.Email,
		Message:   sub.Message,
		CreatedAt: now,
	}, nil
}

func (r *Repository) MarkDelivered(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE contact_messages SET delivered = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark contact message %d delivered: %w", id, err)
	}
	return nil
}

// List returns the newest messages first.
func (r *Repository) List(ctx context.Context, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, message, delivered, created_at
		FROM contact_messages
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	defer rows.Close()

	msgs := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.Delivered, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contact message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Counts returns the total number of messages and how many were never sent.
func (r *Repository) Counts(ctx context.Context) (total, undelivered int64, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN delivered = 0 THEN 1 ELSE 0 END), 0)
		FROM contact_messages
	`).Scan(&total, &undelivered)
	if err != nil {
		return 0, 0, fmt.Errorf("count contact messages: %w", err)
	}
	return total, undelivered, nil
}
