package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-manager/internal/config"
	"github.com/spec-kit/ticket-manager/internal/domain"
	"github.com/spec-kit/ticket-manager/internal/events"
	"github.com/spec-kit/ticket-manager/internal/repository"
)

// In-memory repository fakes used across service tests.

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	mods    *fakeModRepo
}

func newFakeTicketRepo(mods *fakeModRepo) *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}, mods: mods}
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *ticket
	clone.CreationDate = time.Now().UTC()
	r.tickets[ticket.ID] = &clone
	ticket.CreationDate = clone.CreationDate
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) Exists(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tickets[id]
	return ok, nil
}

func (r *fakeTicketRepo) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Ticket{}
	for _, t := range r.tickets {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeTicketRepo) ApplyUpdate(ctx context.Context, id string, apply func(*domain.Ticket) ([]*domain.Modification, error)) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	working := *ticket
	mods, err := apply(&working)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	working.ModifyDate = &now
	r.tickets[id] = &working
	if r.mods != nil && len(mods) > 0 {
		r.mods.insert(now, mods)
	}
	clone := working
	return &clone, nil
}

func (r *fakeTicketRepo) CountByColumn(ctx context.Context, column string) (map[int64]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[int64]int64{}
	for _, t := range r.tickets {
		switch column {
		case "status_id":
			counts[t.StatusID]++
		case "crit_id":
			counts[t.CritID]++
		case "tool_id":
			counts[t.ToolID]++
		case "center_id":
			if t.CenterID != nil {
				counts[*t.CenterID]++
			}
		}
	}
	return counts, nil
}

func (r *fakeTicketRepo) MonthlyCreated(ctx context.Context, months int) ([]repository.MonthCount, error) {
	return nil, nil
}

type fakeModRepo struct {
	mu     sync.Mutex
	nextID int64
	mods   []domain.Modification
}

func newFakeModRepo() *fakeModRepo {
	return &fakeModRepo{nextID: 1}
}

func (r *fakeModRepo) insert(ts time.Time, mods []*domain.Modification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, mod := range mods {
		mod.ID = r.nextID
		r.nextID++
		mod.Date = ts
		r.mods = append(r.mods, *mod)
	}
}

func (r *fakeModRepo) CreateBatch(ctx context.Context, mods []*domain.Modification) error {
	if len(mods) == 0 {
		return repository.ErrEmptyBatch
	}
	r.insert(time.Now().UTC(), mods)
	return nil
}

func (r *fakeModRepo) ListByTicket(ctx context.Context, ticketID string, order domain.ModificationOrder) ([]domain.Modification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Modification{}
	for _, mod := range r.mods {
		if mod.TicketID == ticketID {
			out = append(out, mod)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			if order == domain.OrderChronological {
				return out[i].Date.Before(out[j].Date)
			}
			return out[i].Date.After(out[j].Date)
		}
		if order == domain.OrderChronological {
			return out[i].ID < out[j].ID
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

type fakeRefRepo struct {
	statuses []domain.Status
	crits    []domain.Crit
	centers  []domain.Center
	tools    []domain.Tool
}

// newFakeRefRepo seeds every workflow status plus a small catalog.
func newFakeRefRepo() *fakeRefRepo {
	codes := []domain.StatusCode{
		domain.StatusCreated, domain.StatusReviewed, domain.StatusNotified,
		domain.StatusResolving, domain.StatusOnHold, domain.StatusClosed,
		domain.StatusSolved, domain.StatusDeleted, domain.StatusReopened,
	}
	descs := map[domain.StatusCode]string{
		domain.StatusCreated:   "Created",
		domain.StatusReviewed:  "Reviewed",
		domain.StatusNotified:  "Notified",
		domain.StatusResolving: "Resolving",
		domain.StatusOnHold:    "On hold",
		domain.StatusClosed:    "Closed",
		domain.StatusSolved:    "Solved",
		domain.StatusDeleted:   "Deleted",
		domain.StatusReopened:  "Reopened",
	}
	r := &fakeRefRepo{}
	for i, code := range codes {
		r.statuses = append(r.statuses, domain.Status{ID: int64(i + 1), Value: code, Desc: descs[code]})
	}
	r.crits = []domain.Crit{
		{ID: 1, Value: "low", Desc: "Low"},
		{ID: 2, Value: "medium", Desc: "Medium"},
		{ID: 3, Value: "high", Desc: "High"},
	}
	r.centers = []domain.Center{
		{ID: 1, Value: "north_clinic", Desc: "North Clinic"},
		{ID: 2, Value: "central_hospital", Desc: "Central Hospital"},
	}
	r.tools = []domain.Tool{
		{ID: 1, Value: "his", Desc: "Hospital Information System"},
		{ID: 2, Value: "lab", Desc: "Laboratory System"},
	}
	return r
}

func (r *fakeRefRepo) statusID(code domain.StatusCode) int64 {
	for _, s := range r.statuses {
		if s.Value == code {
			return s.ID
		}
	}
	return 0
}

func (r *fakeRefRepo) ListStatuses(ctx context.Context) ([]domain.Status, error) {
	return r.statuses, nil
}

func (r *fakeRefRepo) ListCrits(ctx context.Context) ([]domain.Crit, error) { return r.crits, nil }

func (r *fakeRefRepo) ListCenters(ctx context.Context) ([]domain.Center, error) {
	return r.centers, nil
}

func (r *fakeRefRepo) ListTools(ctx context.Context) ([]domain.Tool, error) { return r.tools, nil }

func (r *fakeRefRepo) GetStatusByID(ctx context.Context, id int64) (*domain.Status, error) {
	for i := range r.statuses {
		if r.statuses[i].ID == id {
			return &r.statuses[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRefRepo) GetStatusByValue(ctx context.Context, value domain.StatusCode) (*domain.Status, error) {
	for i := range r.statuses {
		if r.statuses[i].Value == value {
			return &r.statuses[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRefRepo) GetCritByID(ctx context.Context, id int64) (*domain.Crit, error) {
	for i := range r.crits {
		if r.crits[i].ID == id {
			return &r.crits[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRefRepo) GetCenterByID(ctx context.Context, id int64) (*domain.Center, error) {
	for i := range r.centers {
		if r.centers[i].ID == id {
			return &r.centers[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRefRepo) GetToolByID(ctx context.Context, id int64) (*domain.Tool, error) {
	for i := range r.tools {
		if r.tools[i].ID == id {
			return &r.tools[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRefRepo) EnsureSeeded(ctx context.Context, data *config.ReferenceData) (int, error) {
	return 0, nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: map[int64]*domain.User{}}
}

func (r *fakeUserRepo) add(user domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
	} else if user.ID >= r.nextID {
		r.nextID = user.ID + 1
	}
	r.users[user.ID] = &user
	return &user
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	created := r.add(*user)
	user.ID = created.ID
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(ctx context.Context, includeInactive bool) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.User{}
	for _, user := range r.users {
		if !includeInactive && !user.IsActive {
			continue
		}
		out = append(out, *user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) Deactivate(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.IsActive = false
	return nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	nextID   int64
	comments []domain.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{nextID: 1}
}

func (r *fakeCommentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment.ID = r.nextID
	r.nextID++
	comment.CreatedAt = time.Now().UTC()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Comment{}
	for _, comment := range r.comments {
		if comment.TicketID == ticketID {
			out = append(out, comment)
		}
	}
	return out, nil
}

type fakeDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *fakeDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *fakeDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *fakeDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []events.Event{}
	for _, event := range d.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}
