//go:build integration

package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/UkralStul/chirp/internal/domain"
)

// setupPostgres поднимает контейнер PostgreSQL и возвращает строку подключения.
func setupPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("chirp"),
		postgres.WithUsername("chirp"),
		postgres.WithPassword("chirp"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

func TestPostgres_Integration(t *testing.T) {
	dsn := setupPostgres(t)
	ctx := context.Background()

	s, err := NewPostgres(dsn)
	require.NoError(t, err)
	defer s.Close()

	post, err := s.CreatePost(ctx, &domain.Post{UserID: "user-1", Content: "hello"})
	require.NoError(t, err)

	_, err = s.CreateComment(ctx, &domain.Comment{PostID: post.ID, UserID: "user-2", Content: "hi"})
	require.NoError(t, err)

	liked, err := s.ToggleLike(ctx, post.ID, "user-2")
	require.NoError(t, err)
	assert.True(t, liked)

	_, err = s.ToggleLike(ctx, "00000000-0000-0000-0000-000000000000", "user-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	n, err := s.DeletePost(ctx, post.ID, "user-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// Каскад проверяем в обход gorm, напрямую через pgx.
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	var comments, likes int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM comments WHERE post_id = $1`, post.ID).Scan(&comments))
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM likes WHERE post_id = $1`, post.ID).Scan(&likes))
	assert.Zero(t, comments)
	assert.Zero(t, likes)
}
