package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spec-kit/ticket-manager/internal/domain"
	"github.com/spec-kit/ticket-manager/internal/repository"
)

// ReferenceResolver maps stored raw identifiers to current display
// descriptions at render time. It is passed to the rendering step
// explicitly; the ledger itself never stores resolved names.
type ReferenceResolver interface {
	StatusDesc(ctx context.Context, raw string) (string, bool)
	CritDesc(ctx context.Context, raw string) (string, bool)
	CenterDesc(ctx context.Context, raw string) (string, bool)
	ToolDesc(ctx context.Context, raw string) (string, bool)
	Username(ctx context.Context, raw string) (string, bool)
}

// repoResolver implements ReferenceResolver over the reference and user
// repositories.
type repoResolver struct {
	refs  repository.ReferenceRepository
	users repository.UserRepository
}

// NewReferenceResolver builds the storage-backed resolver.
func NewReferenceResolver(refs repository.ReferenceRepository, users repository.UserRepository) ReferenceResolver {
	return &repoResolver{refs: refs, users: users}
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (r *repoResolver) StatusDesc(ctx context.Context, raw string) (string, bool) {
	id, ok := parseID(raw)
	if !ok {
		return "", false
	}
	status, err := r.refs.GetStatusByID(ctx, id)
	if err != nil {
		return "", false
	}
	return status.Desc, true
}

func (r *repoResolver) CritDesc(ctx context.Context, raw string) (string, bool) {
	id, ok := parseID(raw)
	if !ok {
		return "", false
	}
	crit, err := r.refs.GetCritByID(ctx, id)
	if err != nil {
		return "", false
	}
	return crit.Desc, true
}

func (r *repoResolver) CenterDesc(ctx context.Context, raw string) (string, bool) {
	id, ok := parseID(raw)
	if !ok {
		return "", false
	}
	center, err := r.refs.GetCenterByID(ctx, id)
	if err != nil {
		return "", false
	}
	return center.Desc, true
}

func (r *repoResolver) ToolDesc(ctx context.Context, raw string) (string, bool) {
	id, ok := parseID(raw)
	if !ok {
		return "", false
	}
	tool, err := r.refs.GetToolByID(ctx, id)
	if err != nil {
		return "", false
	}
	return tool.Desc, true
}

func (r *repoResolver) Username(ctx context.Context, raw string) (string, bool) {
	id, ok := parseID(raw)
	if !ok {
		return "", false
	}
	user, err := r.users.GetByID(ctx, id)
	if err != nil {
		return "", false
	}
	return user.DisplayName(), true
}

var pathwayLabels = map[string]string{
	string(domain.PathwayWeb):      "Web",
	string(domain.PathwayMobile):   "Mobile",
	string(domain.PathwayEmail):    "Email",
	string(domain.PathwayPhone):    "Phone",
	string(domain.PathwayInPerson): "In person",
}

// renderChange produces the human-readable sentence for one ledger
// entry. Reference IDs resolve to their current descriptions; raw
// values remain the fallback so history never renders empty.
func renderChange(ctx context.Context, resolver ReferenceResolver, mod *domain.Modification) string {
	if mod.Note() {
		return mod.Reason
	}

	newValue := mod.NewValue
	cleared := newValue == "" || newValue == "0"

	switch mod.FieldName {
	case "status_id":
		oldDesc := mod.OldValue
		if desc, ok := resolver.StatusDesc(ctx, mod.OldValue); ok {
			oldDesc = desc
		}
		newDesc := newValue
		if desc, ok := resolver.StatusDesc(ctx, newValue); ok {
			newDesc = desc
		}
		return fmt.Sprintf("Status changed from %s to %s", oldDesc, newDesc)
	case "crit_id":
		if desc, ok := resolver.CritDesc(ctx, newValue); ok {
			return "The priority changed to " + desc
		}
		return "The priority changed to " + newValue
	case "center_id":
		if cleared {
			return "The center was removed"
		}
		if desc, ok := resolver.CenterDesc(ctx, newValue); ok {
			return "The center changed to " + desc
		}
		return "The center changed to " + newValue
	case "tool_id":
		if cleared {
			return "The tool was removed"
		}
		if desc, ok := resolver.ToolDesc(ctx, newValue); ok {
			return "The tool changed to " + desc
		}
		return "The tool changed to " + newValue
	case "notifier_id":
		if cleared {
			return "The notifier was removed"
		}
		if name, ok := resolver.Username(ctx, newValue); ok {
			return "The notifier changed to " + name
		}
		return "The notifier changed to " + newValue
	case "type":
		switch domain.TicketType(newValue) {
		case domain.TicketTypeIncidence:
			return "The type changed to Incidence"
		case domain.TicketTypeSuggestion:
			return "The type changed to Suggestion"
		}
		return "The type changed to " + newValue
	case "title":
		return fmt.Sprintf("The title changed to %q", newValue)
	case "description":
		return "The description was updated"
	case "url":
		if cleared {
			return "The URL was removed"
		}
		return "The URL changed to " + newValue
	case "ticket_num":
		if cleared {
			return "The ticket number was removed"
		}
		return "The ticket number changed to " + newValue
	case "people":
		return "The people involved were updated"
	case "pathway":
		if label, ok := pathwayLabels[newValue]; ok {
			return "The intake pathway changed to " + label
		}
		return "The intake pathway changed to " + newValue
	case "attached":
		count, err := strconv.Atoi(newValue)
		if err != nil {
			return "The attachments were updated"
		}
		return fmt.Sprintf("Attachments updated (%d files)", count)
	}
	return fmt.Sprintf("The %s changed to %s", mod.FieldName, newValue)
}
