package service

import (
	"context"
	"time"

	apperrors "github.com/spec-kit/ticket-manager/pkg/util"
)

// DashboardStats aggregates ticket volume by the main reference axes.
// Maps are keyed by reference description for direct display.
type DashboardStats struct {
	Total     int64            `json:"total"`
	ByStatus  map[string]int64 `json:"by_status"`
	ByCrit    map[string]int64 `json:"by_crit"`
	ByTool    map[string]int64 `json:"by_tool"`
	ByCenter  map[string]int64 `json:"by_center"`
	ByMonth   []MonthlyVolume  `json:"by_month"`
	Generated time.Time        `json:"generated_at"`
}

// MonthlyVolume is ticket creation volume for one calendar month.
type MonthlyVolume struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// DashboardStatistics builds the dashboard aggregate. Counts come from
// storage per column; description labels resolve through the cached
// reference data.
func (s *TicketService) DashboardStatistics(ctx context.Context, months int) (*DashboardStats, error) {
	if months <= 0 || months > 36 {
		months = 12
	}

	stats := &DashboardStats{
		ByStatus:  map[string]int64{},
		ByCrit:    map[string]int64{},
		ByTool:    map[string]int64{},
		ByCenter:  map[string]int64{},
		Generated: time.Now().UTC(),
	}

	statusCounts, err := s.tickets.CountByColumn(ctx, "status_id")
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	statuses, err := s.refs.ListStatuses(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	for _, status := range statuses {
		if count, ok := statusCounts[status.ID]; ok {
			stats.ByStatus[status.Desc] = count
			stats.Total += count
		}
	}

	critCounts, err := s.tickets.CountByColumn(ctx, "crit_id")
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	crits, err := s.refs.ListCrits(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	for _, crit := range crits {
		if count, ok := critCounts[crit.ID]; ok {
			stats.ByCrit[crit.Desc] = count
		}
	}

	toolCounts, err := s.tickets.CountByColumn(ctx, "tool_id")
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	tools, err := s.refs.ListTools(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	for _, tool := range tools {
		if count, ok := toolCounts[tool.ID]; ok {
			stats.ByTool[tool.Desc] = count
		}
	}

	centerCounts, err := s.tickets.CountByColumn(ctx, "center_id")
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	centers, err := s.refs.ListCenters(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	for _, center := range centers {
		if count, ok := centerCounts[center.ID]; ok {
			stats.ByCenter[center.Desc] = count
		}
	}

	monthly, err := s.tickets.MonthlyCreated(ctx, months)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	for _, mc := range monthly {
		stats.ByMonth = append(stats.ByMonth, MonthlyVolume{
			Month: mc.Month.Format("2006-01"),
			Count: mc.Count,
		})
	}
	return stats, nil
}
