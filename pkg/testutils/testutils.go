// Package testutils provides database fixtures and request helpers shared by
// package tests.
package testutils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mywatercloset/api/infra"
	infrarepo "github.com/mywatercloset/api/infra/repository"
	"github.com/mywatercloset/api/pkg/config"
	"github.com/mywatercloset/api/pkg/domain/property"
	"github.com/mywatercloset/api/pkg/domain/user"
	"github.com/mywatercloset/api/pkg/repository"
	"github.com/mywatercloset/api/pkg/utils"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// TestPassword is the password of every seeded user.
const TestPassword = "password123"

// Logger returns a logger that only prints errors.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// NewTestDB opens an isolated in-memory SQLite database with the schema applied.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	cfg := &config.DB{
		Url: fmt.Sprintf("sqlite://file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
	db, err := infra.NewDBConnection(cfg, "test")
	require.NoError(t, err)
	require.NoError(t, infra.Migrate(db, cfg))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewTestUoW returns a unit of work over a fresh test database.
func NewTestUoW(t testing.TB) repository.UnitOfWork {
	t.Helper()
	return infrarepo.NewUoW(NewTestDB(t))
}

// NewPostgresDB starts a Postgres container and applies the SQL migrations.
func NewPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()
	container, err := tcpostgres.Run(
		ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	_, filename, _, _ := runtime.Caller(0)
	cfg := &config.DB{
		Url:            dsn,
		MigrationsPath: filepath.Join(filepath.Dir(filename), "../../internal/migrations"),
	}
	db, err := infra.NewDBConnection(cfg, "test")
	require.NoError(t, err)
	require.NoError(t, infra.Migrate(db, cfg))
	return db
}

// SeedUser creates a user with the given role. Providers are created with an
// onboarded connected account when onboarded is true.
func SeedUser(t testing.TB, uow repository.UnitOfWork, role user.Role, onboarded bool) *user.User {
	t.Helper()
	id := uuid.NewString()[:8]
	u := &user.User{
		ID:            uuid.New(),
		Email:         fmt.Sprintf("%s_%s@example.com", role, id),
		FirstName:     "Test",
		LastName:      string(role),
		Role:          role,
		EmailBookings: true,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	if role == user.RoleUser || role == user.RoleProvider {
		created, err := user.NewUser(u.Email, TestPassword, u.FirstName, u.LastName, role)
		require.NoError(t, err)
		u = created
	} else {
		hashed, err := utils.HashPassword(TestPassword)
		require.NoError(t, err)
		u.Password = hashed
	}
	if onboarded {
		u.StripeAccountID = "acct_" + id
		u.StripeOnboarded = true
	}
	require.NoError(t, uow.UserRepository().Create(context.Background(), u))
	return u
}

// SeedProperty creates an active listing owned by ownerID.
func SeedProperty(t testing.TB, uow repository.UnitOfWork, ownerID uuid.UUID, pricePerMinute int64) *property.Property {
	t.Helper()
	now := time.Now().UTC()
	p := &property.Property{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Name:           "Riverside Loft",
		PricePerMinute: pricePerMinute,
		Address:        "12 Water St",
		City:           "Portland",
		State:          "OR",
		Status:         property.StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, uow.PropertyRepository().Create(context.Background(), p))
	return p
}

// MakeRequest runs a request through app and returns the response.
func MakeRequest(t testing.TB, app *fiber.App, method, path, body, token string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	return resp
}

// Now returns the current time truncated to the second in UTC.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
