package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-manager/internal/domain"
)

// ErrEmptyBatch rejects ledger writes with no entries.
var ErrEmptyBatch = errors.New("modification batch is empty")

// ModificationRepository stores the append-only audit ledger.
type ModificationRepository interface {
	// CreateBatch persists all entries atomically with one shared
	// server-assigned timestamp, so they group into a single audit row.
	CreateBatch(ctx context.Context, mods []*domain.Modification) error
	ListByTicket(ctx context.Context, ticketID string, order domain.ModificationOrder) ([]domain.Modification, error)
}

type modificationRepository struct {
	pool *pgxpool.Pool
}

// NewModificationRepository builds repository.
func NewModificationRepository(pool *pgxpool.Pool) ModificationRepository {
	return &modificationRepository{pool: pool}
}

// rowQuerier is satisfied by both pgxpool.Pool and pgx.Tx, letting the
// ticket update transaction reuse the same insert path.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertModifications(ctx context.Context, q rowQuerier, ts time.Time, mods []*domain.Modification) error {
	const query = `
        INSERT INTO modifications (ticket_id, user_id, date, reason, field_name, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
	for _, mod := range mods {
		mod.Date = ts
		if err := q.QueryRow(ctx, query,
			mod.TicketID,
			mod.UserID,
			mod.Date,
			mod.Reason,
			mod.FieldName,
			mod.OldValue,
			mod.NewValue,
		).Scan(&mod.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *modificationRepository) CreateBatch(ctx context.Context, mods []*domain.Modification) error {
	if len(mods) == 0 {
		return ErrEmptyBatch
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := insertModifications(ctx, tx, time.Now().UTC(), mods); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *modificationRepository) ListByTicket(ctx context.Context, ticketID string, order domain.ModificationOrder) ([]domain.Modification, error) {
	direction := "DESC"
	if order == domain.OrderChronological {
		direction = "ASC"
	}
	query := `
        SELECT id, ticket_id, user_id, date, reason, field_name, old_value, new_value
        FROM modifications WHERE ticket_id=$1 ORDER BY date ` + direction + `, id ` + direction

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Modification
	for rows.Next() {
		var mod domain.Modification
		if err := rows.Scan(
			&mod.ID,
			&mod.TicketID,
			&mod.UserID,
			&mod.Date,
			&mod.Reason,
			&mod.FieldName,
			&mod.OldValue,
			&mod.NewValue,
		); err != nil {
			return nil, err
		}
		result = append(result, mod)
	}
	return result, rows.Err()
}
