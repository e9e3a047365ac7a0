package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CommentOrder controls thread direction. The interactive surface reads
// oldest-first, the programmatic surface newest-first.
type CommentOrder string

const (
	CommentOrderOldestFirst CommentOrder = "ASC"
	CommentOrderNewestFirst CommentOrder = "DESC"
)

// CommentRepository manages ticket comments with authors attached.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	Update(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	ListByTicket(ctx context.Context, ticketID string, order CommentOrder) ([]domain.Comment, error)
	Delete(ctx context.Context, id string) error
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (ticket_id, user_id, content)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.UserID,
		comment.Content,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
}

func (r *commentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	const query = `UPDATE comments SET content=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, comment.Content, comment.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	const query = `
        SELECT cm.id, cm.ticket_id, cm.user_id, cm.content, cm.created_at, cm.updated_at,
               u.name, u.email, u.role
        FROM comments cm JOIN users u ON u.id = cm.user_id
        WHERE cm.id=$1`
	var comment domain.Comment
	var author domain.User
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&comment.ID,
		&comment.TicketID,
		&comment.UserID,
		&comment.Content,
		&comment.CreatedAt,
		&comment.UpdatedAt,
		&author.Name,
		&author.Email,
		&author.Role,
	); err != nil {
		return nil, err
	}
	author.ID = comment.UserID
	comment.User = &author
	return &comment, nil
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string, order CommentOrder) ([]domain.Comment, error) {
	direction := "ASC"
	if order == CommentOrderNewestFirst {
		direction = "DESC"
	}
	query := `
        SELECT cm.id, cm.ticket_id, cm.user_id, cm.content, cm.created_at, cm.updated_at,
               u.name, u.email, u.role
        FROM comments cm JOIN users u ON u.id = cm.user_id
        WHERE cm.ticket_id=$1 ORDER BY cm.created_at ` + direction
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		var author domain.User
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.UserID,
			&comment.Content,
			&comment.CreatedAt,
			&comment.UpdatedAt,
			&author.Name,
			&author.Email,
			&author.Role,
		); err != nil {
			return nil, err
		}
		author.ID = comment.UserID
		comment.User = &author
		result = append(result, comment)
	}
	return result, rows.Err()
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
