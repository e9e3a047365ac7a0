package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// MessageRepository manages per-ticket chat messages and read tracking.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Message, error)
	MarkReadForOthers(ctx context.Context, ticketID, readerID string) error
	UnreadCountForOwner(ctx context.Context, userID string) (int64, error)
	UnreadCountForAssignee(ctx context.Context, adminID string) (int64, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository builds repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO messages (ticket_id, user_id, message)
        VALUES ($1,$2,$3)
        RETURNING id, is_read, created_at`
	return r.pool.QueryRow(ctx, query,
		msg.TicketID,
		msg.UserID,
		msg.Message,
	).Scan(&msg.ID, &msg.IsRead, &msg.CreatedAt)
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	const query = `
        SELECT m.id, m.ticket_id, m.user_id, m.message, m.is_read, m.created_at,
               u.name, u.email, u.role
        FROM messages m JOIN users u ON u.id = m.user_id
        WHERE m.id=$1`
	var msg domain.Message
	var sender domain.User
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID,
		&msg.TicketID,
		&msg.UserID,
		&msg.Message,
		&msg.IsRead,
		&msg.CreatedAt,
		&sender.Name,
		&sender.Email,
		&sender.Role,
	); err != nil {
		return nil, err
	}
	sender.ID = msg.UserID
	msg.User = &sender
	return &msg, nil
}

func (r *messageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Message, error) {
	const query = `
        SELECT m.id, m.ticket_id, m.user_id, m.message, m.is_read, m.created_at,
               u.name, u.email, u.role
        FROM messages m JOIN users u ON u.id = m.user_id
        WHERE m.ticket_id=$1 ORDER BY m.created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		var sender domain.User
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.UserID,
			&msg.Message,
			&msg.IsRead,
			&msg.CreatedAt,
			&sender.Name,
			&sender.Email,
			&sender.Role,
		); err != nil {
			return nil, err
		}
		sender.ID = msg.UserID
		msg.User = &sender
		result = append(result, msg)
	}
	return result, rows.Err()
}

// MarkReadForOthers flips every unread message on the ticket not authored by
// readerID to read, in one statement.
func (r *messageRepository) MarkReadForOthers(ctx context.Context, ticketID, readerID string) error {
	const query = `
        UPDATE messages SET is_read=TRUE
        WHERE ticket_id=$1 AND user_id <> $2 AND is_read=FALSE`
	_, err := r.pool.Exec(ctx, query, ticketID, readerID)
	return err
}

func (r *messageRepository) UnreadCountForOwner(ctx context.Context, userID string) (int64, error) {
	const query = `
        SELECT COUNT(*)
        FROM messages m JOIN tickets t ON t.id = m.ticket_id
        WHERE t.user_id=$1 AND m.user_id <> $1 AND m.is_read=FALSE`
	var count int64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *messageRepository) UnreadCountForAssignee(ctx context.Context, adminID string) (int64, error) {
	const query = `
        SELECT COUNT(*)
        FROM messages m JOIN tickets t ON t.id = m.ticket_id
        WHERE t.assigned_to=$1 AND m.user_id <> $1 AND m.is_read=FALSE`
	var count int64
	if err := r.pool.QueryRow(ctx, query, adminID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
