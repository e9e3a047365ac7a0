package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketFilter captures listing predicates. All present filters are
// conjunctive equality checks; a nil field is unconstrained.
type TicketFilter struct {
	UserID     *string
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	CategoryID *string
	Limit      int
	Offset     int
}

// StatusCounts summarizes tickets per lifecycle state for the dashboard.
type StatusCounts struct {
	Total      int64
	Open       int64
	InProgress int64
	Resolved   int64
}

// TicketRepository encapsulates ticket persistence. List entries come back
// denormalized with creator, category and assigned admin attached.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetDetail(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int64, error)
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context, userID *string) (StatusCounts, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (user_id, category_id, assigned_to, subject, description, priority, status, attachment)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.UserID,
		ticket.CategoryID,
		ticket.AssignedTo,
		ticket.Subject,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.Attachment,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	// user_id is immutable after creation and deliberately absent here.
	const query = `
        UPDATE tickets SET category_id=$1, assigned_to=$2, subject=$3, description=$4,
            priority=$5, status=$6, attachment=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.CategoryID,
		ticket.AssignedTo,
		ticket.Subject,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.Attachment,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, user_id, category_id, assigned_to, subject, description, priority, status,
               attachment, created_at, updated_at
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.UserID,
		&ticket.CategoryID,
		&ticket.AssignedTo,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Status,
		&ticket.Attachment,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

const ticketJoinedSelect = `
    SELECT t.id, t.user_id, t.category_id, t.assigned_to, t.subject, t.description,
           t.priority, t.status, t.attachment, t.created_at, t.updated_at,
           u.name, u.email, u.role,
           c.name, c.slug,
           a.id, a.name, a.email
    FROM tickets t
    JOIN users u ON u.id = t.user_id
    JOIN categories c ON c.id = t.category_id
    LEFT JOIN users a ON a.id = t.assigned_to`

func (r *ticketRepository) GetDetail(ctx context.Context, id string) (*domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, ticketJoinedSelect+` WHERE t.id=$1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets, err := scanJoinedTickets(rows)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &tickets[0], nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses, args := filterClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 15
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC LIMIT %d OFFSET %d`,
		ticketJoinedSelect, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJoinedTickets(rows)
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int64, error) {
	clauses, args := filterClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM tickets t WHERE %s`, strings.Join(clauses, " AND "))
	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) CountByStatus(ctx context.Context, userID *string) (StatusCounts, error) {
	query := `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status='open'),
               COUNT(*) FILTER (WHERE status='in_progress'),
               COUNT(*) FILTER (WHERE status='resolved')
        FROM tickets`
	args := []any{}
	if userID != nil {
		query += ` WHERE user_id=$1`
		args = append(args, *userID)
	}
	var counts StatusCounts
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&counts.Total,
		&counts.Open,
		&counts.InProgress,
		&counts.Resolved,
	); err != nil {
		return StatusCounts{}, err
	}
	return counts, nil
}

func filterClauses(filter TicketFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("t.user_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("t.status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("t.priority=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("t.category_id=$%d", len(args)))
	}
	return clauses, args
}

func scanJoinedTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var (
			ticket        domain.Ticket
			creator       domain.User
			category      domain.Category
			assigneeID    *string
			assigneeName  *string
			assigneeEmail *string
		)
		if err := rows.Scan(
			&ticket.ID,
			&ticket.UserID,
			&ticket.CategoryID,
			&ticket.AssignedTo,
			&ticket.Subject,
			&ticket.Description,
			&ticket.Priority,
			&ticket.Status,
			&ticket.Attachment,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&creator.Name,
			&creator.Email,
			&creator.Role,
			&category.Name,
			&category.Slug,
			&assigneeID,
			&assigneeName,
			&assigneeEmail,
		); err != nil {
			return nil, err
		}
		creator.ID = ticket.UserID
		category.ID = ticket.CategoryID
		ticket.User = &creator
		ticket.Category = &category
		if assigneeID != nil {
			ticket.AssignedAdmin = &domain.User{
				ID:    *assigneeID,
				Name:  derefString(assigneeName),
				Email: derefString(assigneeEmail),
				Role:  domain.RoleAdmin,
			}
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
