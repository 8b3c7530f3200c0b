package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-manager/internal/auth"
	"github.com/spec-kit/ticket-manager/internal/domain"
	"github.com/spec-kit/ticket-manager/internal/observability"
)

type staticUserRepo struct {
	users map[int64]*domain.User
}

func (r *staticUserRepo) Create(ctx context.Context, user *domain.User) error { return nil }
func (r *staticUserRepo) Update(ctx context.Context, user *domain.User) error { return nil }

func (r *staticUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *staticUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

func (r *staticUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

func (r *staticUserRepo) List(ctx context.Context, includeInactive bool) ([]domain.User, error) {
	return nil, nil
}

func (r *staticUserRepo) Deactivate(ctx context.Context, id int64) error { return nil }

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newGuardedApp(t *testing.T) (*fiber.App, *auth.TokenManager) {
	t.Helper()
	users := &staticUserRepo{users: map[int64]*domain.User{
		1: {ID: 1, Username: "admin", PermissionLevel: domain.PermissionAdmin, IsActive: true},
		3: {ID: 3, Username: "viewer", PermissionLevel: domain.PermissionViewer, IsActive: true},
	}}
	tokens := auth.NewTokenManager("middleware-test-secret", 60)
	authMiddleware := auth.NewAuthMiddleware(tokens, users)

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	app.Post("/tickets", authMiddleware.Handle, auth.RequirePermission(domain.PermissionEditor), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	return app, tokens
}

func TestPermissionDenialSurfacesAsForbidden(t *testing.T) {
	app, tokens := newGuardedApp(t)

	token, _, err := tokens.GenerateToken(3, "viewer", domain.PermissionViewer)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/tickets", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var env errorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
}

func TestSufficientPermissionPasses(t *testing.T) {
	app, tokens := newGuardedApp(t)

	token, _, err := tokens.GenerateToken(1, "admin", domain.PermissionAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/tickets", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestMissingTokenSurfacesAsUnauthorized(t *testing.T) {
	app, _ := newGuardedApp(t)

	resp, err := app.Test(httptest.NewRequest("POST", "/tickets", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var env errorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}
