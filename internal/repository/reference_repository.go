package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/ticket-manager/internal/config"
	"github.com/spec-kit/ticket-manager/internal/domain"
)

// referenceRow is the shared shape of the four reference tables.
type referenceRow struct {
	ID    int64  `json:"id"`
	Value string `json:"value"`
	Desc  string `json:"desc"`
}

// ReferenceRepository serves the reference tables (statuses, crits,
// centers, tools) and seeds missing rows from the JSON config data.
type ReferenceRepository interface {
	ListStatuses(ctx context.Context) ([]domain.Status, error)
	ListCrits(ctx context.Context) ([]domain.Crit, error)
	ListCenters(ctx context.Context) ([]domain.Center, error)
	ListTools(ctx context.Context) ([]domain.Tool, error)
	GetStatusByID(ctx context.Context, id int64) (*domain.Status, error)
	GetStatusByValue(ctx context.Context, value domain.StatusCode) (*domain.Status, error)
	GetCritByID(ctx context.Context, id int64) (*domain.Crit, error)
	GetCenterByID(ctx context.Context, id int64) (*domain.Center, error)
	GetToolByID(ctx context.Context, id int64) (*domain.Tool, error)
	EnsureSeeded(ctx context.Context, data *config.ReferenceData) (int, error)
}

type referenceRepository struct {
	pool  *pgxpool.Pool
	cache *redis.Client
	ttl   time.Duration
}

// NewReferenceRepository builds a Postgres-backed repository with an
// optional Redis read-through cache for the list queries. Pass a nil
// client to disable caching.
func NewReferenceRepository(pool *pgxpool.Pool, cache *redis.Client, ttl time.Duration) ReferenceRepository {
	return &referenceRepository{pool: pool, cache: cache, ttl: ttl}
}

func (r *referenceRepository) listRows(ctx context.Context, table string) ([]referenceRow, error) {
	cacheKey := "reference:" + table

	if r.cache != nil {
		if raw, err := r.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var rows []referenceRow
			if jsonErr := json.Unmarshal(raw, &rows); jsonErr == nil {
				return rows, nil
			}
		}
	}

	rows, err := r.pool.Query(ctx, `SELECT id, value, "desc" FROM `+table+` ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []referenceRow
	for rows.Next() {
		var row referenceRow
		if err := rows.Scan(&row.ID, &row.Value, &row.Desc); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if r.cache != nil && r.ttl > 0 {
		if raw, err := json.Marshal(result); err == nil {
			// Cache failures degrade to direct DB reads.
			_ = r.cache.Set(ctx, cacheKey, raw, r.ttl).Err()
		}
	}
	return result, nil
}

func (r *referenceRepository) invalidate(ctx context.Context, tables ...string) {
	if r.cache == nil {
		return
	}
	for _, table := range tables {
		_ = r.cache.Del(ctx, "reference:"+table).Err()
	}
}

func (r *referenceRepository) ListStatuses(ctx context.Context) ([]domain.Status, error) {
	rows, err := r.listRows(ctx, "statuses")
	if err != nil {
		return nil, err
	}
	result := make([]domain.Status, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.Status{ID: row.ID, Value: domain.StatusCode(row.Value), Desc: row.Desc})
	}
	return result, nil
}

func (r *referenceRepository) ListCrits(ctx context.Context) ([]domain.Crit, error) {
	rows, err := r.listRows(ctx, "crits")
	if err != nil {
		return nil, err
	}
	result := make([]domain.Crit, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.Crit{ID: row.ID, Value: row.Value, Desc: row.Desc})
	}
	return result, nil
}

func (r *referenceRepository) ListCenters(ctx context.Context) ([]domain.Center, error) {
	rows, err := r.listRows(ctx, "centers")
	if err != nil {
		return nil, err
	}
	result := make([]domain.Center, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.Center{ID: row.ID, Value: row.Value, Desc: row.Desc})
	}
	return result, nil
}

func (r *referenceRepository) ListTools(ctx context.Context) ([]domain.Tool, error) {
	rows, err := r.listRows(ctx, "tools")
	if err != nil {
		return nil, err
	}
	result := make([]domain.Tool, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.Tool{ID: row.ID, Value: row.Value, Desc: row.Desc})
	}
	return result, nil
}

func (r *referenceRepository) findRow(ctx context.Context, table string, match func(referenceRow) bool) (*referenceRow, error) {
	rows, err := r.listRows(ctx, table)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if match(row) {
			return &row, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *referenceRepository) GetStatusByID(ctx context.Context, id int64) (*domain.Status, error) {
	row, err := r.findRow(ctx, "statuses", func(row referenceRow) bool { return row.ID == id })
	if err != nil {
		return nil, err
	}
	return &domain.Status{ID: row.ID, Value: domain.StatusCode(row.Value), Desc: row.Desc}, nil
}

func (r *referenceRepository) GetStatusByValue(ctx context.Context, value domain.StatusCode) (*domain.Status, error) {
	row, err := r.findRow(ctx, "statuses", func(row referenceRow) bool { return row.Value == string(value) })
	if err != nil {
		return nil, err
	}
	return &domain.Status{ID: row.ID, Value: domain.StatusCode(row.Value), Desc: row.Desc}, nil
}

func (r *referenceRepository) GetCritByID(ctx context.Context, id int64) (*domain.Crit, error) {
	row, err := r.findRow(ctx, "crits", func(row referenceRow) bool { return row.ID == id })
	if err != nil {
		return nil, err
	}
	return &domain.Crit{ID: row.ID, Value: row.Value, Desc: row.Desc}, nil
}

func (r *referenceRepository) GetCenterByID(ctx context.Context, id int64) (*domain.Center, error) {
	row, err := r.findRow(ctx, "centers", func(row referenceRow) bool { return row.ID == id })
	if err != nil {
		return nil, err
	}
	return &domain.Center{ID: row.ID, Value: row.Value, Desc: row.Desc}, nil
}

func (r *referenceRepository) GetToolByID(ctx context.Context, id int64) (*domain.Tool, error) {
	row, err := r.findRow(ctx, "tools", func(row referenceRow) bool { return row.ID == id })
	if err != nil {
		return nil, err
	}
	return &domain.Tool{ID: row.ID, Value: row.Value, Desc: row.Desc}, nil
}

// EnsureSeeded inserts reference rows missing from the database so new
// deployments pick up config additions. Existing rows are never updated;
// the database stays authoritative for descriptions once created.
func (r *referenceRepository) EnsureSeeded(ctx context.Context, data *config.ReferenceData) (int, error) {
	added := 0
	sets := []struct {
		table string
		items []config.ReferenceItem
	}{
		{"statuses", data.Statuses},
		{"crits", data.Crits},
		{"centers", data.Centers},
		{"tools", data.Tools},
	}
	for _, set := range sets {
		for _, item := range set.items {
			cmd, err := r.pool.Exec(ctx,
				`INSERT INTO `+set.table+` (value, "desc") VALUES ($1,$2) ON CONFLICT (value) DO NOTHING`,
				item.Value, item.Desc)
			if err != nil {
				return added, err
			}
			added += int(cmd.RowsAffected())
		}
		r.invalidate(ctx, set.table)
	}
	return added, nil
}
