package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-manager/internal/domain"
)

// CommentRepository stores ticket discussion entries.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error)
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
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.UserID,
		comment.Content,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	const query = `
        SELECT c.id, c.ticket_id, c.user_id, c.content, c.created_at,
               u.id, u.username, u.email, u.name, u.surnames, u.permission_level, u.is_active
        FROM comments c
        JOIN users u ON u.id = c.user_id
        WHERE c.ticket_id=$1 ORDER BY c.created_at ASC, c.id ASC`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		var user domain.User
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.UserID,
			&comment.Content,
			&comment.CreatedAt,
			&user.ID,
			&user.Username,
			&user.Email,
			&user.Name,
			&user.Surnames,
			&user.PermissionLevel,
			&user.IsActive,
		); err != nil {
			return nil, err
		}
		comment.User = &user
		result = append(result, comment)
	}
	return result, rows.Err()
}
