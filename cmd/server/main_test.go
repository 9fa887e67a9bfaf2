package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/chirp/internal/config"
	"github.com/UkralStul/chirp/internal/service"
	"github.com/UkralStul/chirp/internal/storage/inmemory"
	"github.com/UkralStul/chirp/internal/storage/sqlstore"
)

func TestFillWithMockData(t *testing.T) {
	ctx := context.Background()
	store := inmemory.New()
	svc := service.New(store)

	require.NoError(t, fillWithMockData(ctx, store, svc))

	f, err := svc.Feed(ctx, nil)
	require.NoError(t, err)
	require.Len(t, f.Posts, 2)

	// Новые сверху: второй пост первым
	assert.Equal(t, "octocat", *f.Posts[0].Author.Username)
	assert.Equal(t, 1, f.Posts[0].CommentsCount)
	assert.Equal(t, 2, f.Posts[1].LikesCount)
	assert.Equal(t, 2, f.Posts[1].CommentsCount)
}

func TestOpenStore(t *testing.T) {
	cfg := config.Default()
	store, closeStore, err := openStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &inmemory.Store{}, store)
	closeStore()

	cfg.Storage = config.StorageSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "chirp.db")
	store, closeStore, err = openStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &sqlstore.Store{}, store)
	closeStore()
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"STORAGE", "DATABASE_URL", "SQLITE_PATH", "SUPABASE_URL", "FEED_LIMIT", "SECURE_COOKIES"} {
		t.Setenv(name, "")
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestMigrateCmd(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "migrate.db"))

	root := newRootCmd()
	root.SetArgs([]string{"migrate"})
	require.NoError(t, root.Execute())

	clearEnv(t)
	root = newRootCmd()
	root.SetArgs([]string{"migrate"})
	assert.ErrorContains(t, root.Execute(), "migrate needs postgres or sqlite storage")
}
