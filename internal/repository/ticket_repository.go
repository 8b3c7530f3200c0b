package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-manager/internal/domain"
)

// hiddenStatusValues are excluded from listings unless show_hidden is set.
var hiddenStatusValues = []string{
	string(domain.StatusSolved),
	string(domain.StatusClosed),
	string(domain.StatusDeleted),
}

// TicketFilter captures listing parameters.
type TicketFilter struct {
	StatusID   *int64
	Type       *domain.TicketType
	CritID     *int64
	ToolID     *int64
	CenterID   *int64
	DateFrom   *time.Time
	DateTo     *time.Time
	Search     *string
	ShowHidden bool
	SortBy     string
	SortOrder  string
	Limit      int
	Offset     int
}

// MonthCount is one month of ticket creation volume.
type MonthCount struct {
	Month time.Time
	Count int64
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int64, error)
	// ApplyUpdate runs read, mutation and ledger append in one
	// transaction holding a row lock on the ticket, so concurrent
	// updates to the same ticket serialize and re-read fresh state.
	ApplyUpdate(ctx context.Context, id string, apply func(*domain.Ticket) ([]*domain.Modification, error)) (*domain.Ticket, error)
	CountByColumn(ctx context.Context, column string) (map[int64]int64, error)
	MonthlyCreated(ctx context.Context, months int) ([]MonthCount, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_num, type, title, description, url, status_id, crit_id, center_id, tool_id,
               notifier_id, people, pathway, creator_id, creation_date, modify_date, resolution_date, delete_date, attached`

func marshalAttached(attached []domain.AttachmentMeta) (any, error) {
	if attached == nil {
		return nil, nil
	}
	raw, err := json.Marshal(attached)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var attached []byte
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNum,
		&ticket.Type,
		&ticket.Title,
		&ticket.Description,
		&ticket.URL,
		&ticket.StatusID,
		&ticket.CritID,
		&ticket.CenterID,
		&ticket.ToolID,
		&ticket.NotifierID,
		&ticket.People,
		&ticket.Pathway,
		&ticket.CreatorID,
		&ticket.CreationDate,
		&ticket.ModifyDate,
		&ticket.ResolutionDate,
		&ticket.DeleteDate,
		&attached,
	); err != nil {
		return nil, err
	}
	if len(attached) > 0 {
		if err := json.Unmarshal(attached, &ticket.Attached); err != nil {
			return nil, err
		}
	}
	return &ticket, nil
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, ticket_num, type, title, description, url, status_id, crit_id, center_id, tool_id,
                             notifier_id, people, pathway, creator_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING creation_date`
	return r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.TicketNum,
		ticket.Type,
		ticket.Title,
		ticket.Description,
		ticket.URL,
		ticket.StatusID,
		ticket.CritID,
		ticket.CenterID,
		ticket.ToolID,
		ticket.NotifierID,
		ticket.People,
		ticket.Pathway,
		ticket.CreatorID,
	).Scan(&ticket.CreationDate)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return scanTicket(r.pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id))
}

func (r *ticketRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *ticketRepository) buildFilter(filter TicketFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.StatusID != nil {
		args = append(args, *filter.StatusID)
		clauses = append(clauses, fmt.Sprintf("t.status_id=$%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("t.type=$%d", len(args)))
	}
	if filter.CritID != nil {
		args = append(args, *filter.CritID)
		clauses = append(clauses, fmt.Sprintf("t.crit_id=$%d", len(args)))
	}
	if filter.ToolID != nil {
		args = append(args, *filter.ToolID)
		clauses = append(clauses, fmt.Sprintf("t.tool_id=$%d", len(args)))
	}
	if filter.CenterID != nil {
		args = append(args, *filter.CenterID)
		clauses = append(clauses, fmt.Sprintf("t.center_id=$%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		clauses = append(clauses, fmt.Sprintf("t.creation_date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		clauses = append(clauses, fmt.Sprintf("t.creation_date <= $%d", len(args)))
	}
	if !filter.ShowHidden {
		args = append(args, hiddenStatusValues)
		clauses = append(clauses, fmt.Sprintf(
			"t.status_id NOT IN (SELECT id FROM statuses WHERE value = ANY($%d))", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(`(
            LOWER(t.title) LIKE %[1]s OR LOWER(t.description) LIKE %[1]s OR LOWER(t.id) LIKE %[1]s
            OR (t.ticket_num IS NOT NULL AND LOWER(t.ticket_num) LIKE %[1]s)
            OR EXISTS (SELECT 1 FROM tools tl WHERE tl.id=t.tool_id AND LOWER(tl."desc") LIKE %[1]s)
            OR EXISTS (SELECT 1 FROM users cu WHERE cu.id=t.creator_id AND LOWER(cu.username) LIKE %[1]s)
            OR EXISTS (SELECT 1 FROM users nu WHERE nu.id=t.notifier_id AND LOWER(nu.username) LIKE %[1]s)
        )`, placeholder))
	}

	return strings.Join(clauses, " AND "), args
}

// sortColumns whitelists user-supplied sort keys.
var sortColumns = map[string]string{
	"creation_date": "t.creation_date",
	"modify_date":   "t.modify_date",
	"title":         "t.title",
	"status_id":     "t.status_id",
	"crit_id":       "t.crit_id",
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int64, error) {
	where, args := r.buildFilter(filter)

	var total int64
	countQuery := `SELECT COUNT(*) FROM tickets t WHERE ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy, ok := sortColumns[filter.SortBy]
	if !ok {
		orderBy = "t.creation_date"
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "ASC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets t WHERE %s ORDER BY %s %s, t.id ASC LIMIT %d OFFSET %d`,
		ticketColumns, where, orderBy, direction, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *ticket)
	}
	return result, total, rows.Err()
}

func (r *ticketRepository) ApplyUpdate(ctx context.Context, id string, apply func(*domain.Ticket) ([]*domain.Modification, error)) (*domain.Ticket, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ticket, err := scanTicket(tx.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	mods, err := apply(ticket)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ticket.ModifyDate = &now

	attached, err := marshalAttached(ticket.Attached)
	if err != nil {
		return nil, err
	}
	const update = `
        UPDATE tickets SET ticket_num=$1, type=$2, title=$3, description=$4, url=$5, status_id=$6,
            crit_id=$7, center_id=$8, tool_id=$9, notifier_id=$10, people=$11, pathway=$12,
            modify_date=$13, resolution_date=$14, delete_date=$15, attached=$16
        WHERE id=$17`
	cmd, err := tx.Exec(ctx, update,
		ticket.TicketNum,
		ticket.Type,
		ticket.Title,
		ticket.Description,
		ticket.URL,
		ticket.StatusID,
		ticket.CritID,
		ticket.CenterID,
		ticket.ToolID,
		ticket.NotifierID,
		ticket.People,
		ticket.Pathway,
		ticket.ModifyDate,
		ticket.ResolutionDate,
		ticket.DeleteDate,
		attached,
		ticket.ID,
	)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, pgx.ErrNoRows
	}

	if len(mods) > 0 {
		if err := insertModifications(ctx, tx, now, mods); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ticket, nil
}

// statColumns whitelists dashboard grouping keys.
var statColumns = map[string]string{
	"status_id": "status_id",
	"crit_id":   "crit_id",
	"tool_id":   "tool_id",
	"center_id": "center_id",
}

func (r *ticketRepository) CountByColumn(ctx context.Context, column string) (map[int64]int64, error) {
	col, ok := statColumns[column]
	if !ok {
		return nil, fmt.Errorf("unsupported stat column %q", column)
	}
	query := fmt.Sprintf(
		`SELECT %s, COUNT(*) FROM tickets WHERE %s IS NOT NULL AND delete_date IS NULL GROUP BY %s`,
		col, col, col)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64]int64)
	for rows.Next() {
		var key, count int64
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		result[key] = count
	}
	return result, rows.Err()
}

func (r *ticketRepository) MonthlyCreated(ctx context.Context, months int) ([]MonthCount, error) {
	if months <= 0 {
		months = 12
	}
	const query = `
        SELECT date_trunc('month', creation_date) AS month, COUNT(*)
        FROM tickets
        WHERE creation_date >= date_trunc('month', NOW()) - ($1 * INTERVAL '1 month')
        GROUP BY month ORDER BY month ASC`

	rows, err := r.pool.Query(ctx, query, months)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MonthCount
	for rows.Next() {
		var mc MonthCount
		if err := rows.Scan(&mc.Month, &mc.Count); err != nil {
			return nil, err
		}
		result = append(result, mc)
	}
	return result, rows.Err()
}
