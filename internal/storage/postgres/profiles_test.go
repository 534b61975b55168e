package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rently-app/discussions-service/internal/models"
	"github.com/rently-app/discussions-service/internal/storage"
)

// Интеграционные тесты реализации storage.Profiles:
// — поднимают PostgreSQL через testcontainers-go (postgres:16-alpine);
// — применяют миграции из ./migrations;
// — проверяют ProfileByID, UpsertProfile (insert и overwrite) и сдвиг updated_at.
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/postgres -v -race -count=1

// repoRootFromThisFile — корень репозитория относительно файла тестов,
// чтобы найти ./migrations независимо от рабочего каталога.
func repoRootFromThisFile() string {
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", "..", ".."))
}

func readMigration(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(repoRootFromThisFile(), "migrations", name)
	b, err := os.ReadFile(path)
	require.NoError(t, err, "read migration %s", path)
	return string(b)
}

// startPostgres — контейнер + миграции + инициализированное хранилище.
// Без GO_TEST_INTEGRATION тест пропускается.
func startPostgres(t *testing.T) *ProfilesStorage {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "docker.io/postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
		ProviderType:     tc.ProviderDocker,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(ctx, readMigration(t, "1_init_profiles.up.sql"))
	require.NoError(t, err)

	st, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)

	return st
}

func TestProfileByID_NotFound(t *testing.T) {
	st := startPostgres(t)

	_, err := st.ProfileByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpsertProfile_InsertThenFetch(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	in := &models.Profile{
		UserID:    uuid.New(),
		Username:  "alice",
		AvatarKey: "avatars/alice.png",
	}

	created, err := st.UpsertProfile(ctx, in)
	require.NoError(t, err)
	require.Equal(t, in.UserID, created.UserID)
	require.Equal(t, "alice", created.Username)
	require.Equal(t, "avatars/alice.png", created.AvatarKey)
	require.False(t, created.CreatedAt.IsZero())
	require.False(t, created.UpdatedAt.IsZero())

	got, err := st.ProfileByID(ctx, in.UserID)
	require.NoError(t, err)
	require.Equal(t, created.UserID, got.UserID)
	require.Equal(t, created.Username, got.Username)
}

func TestUpsertProfile_OverwriteMovesUpdatedAt(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	userID := uuid.New()

	first, err := st.UpsertProfile(ctx, &models.Profile{UserID: userID, Username: "bob"})
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	second, err := st.UpsertProfile(ctx, &models.Profile{
		UserID:    userID,
		Username:  "bobby",
		AvatarKey: "avatars/bob.png",
	})
	require.NoError(t, err)

	require.Equal(t, "bobby", second.Username)
	require.Equal(t, "avatars/bob.png", second.AvatarKey)
	require.Equal(t, first.CreatedAt, second.CreatedAt)
	require.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestProfileByID_ExpiredContext(t *testing.T) {
	st := startPostgres(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := st.ProfileByID(ctx, uuid.New())
	require.Error(t, err)
	require.False(t, errors.Is(err, storage.ErrNotFound))
}
