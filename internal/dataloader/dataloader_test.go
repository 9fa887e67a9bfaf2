package dataloader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/chirp/internal/domain"
	"github.com/UkralStul/chirp/internal/storage/inmemory"
)

// countingStore считает обращения к GetProfilesByIDs.
type countingStore struct {
	*inmemory.Store
	calls atomic.Int32
	err   error
}

func (s *countingStore) GetProfilesByIDs(ctx context.Context, ids []string) ([]*domain.Profile, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.Store.GetProfilesByIDs(ctx, ids)
}

func seededStore(t *testing.T) *countingStore {
	t.Helper()
	store := &countingStore{Store: inmemory.New()}
	for _, id := range []string{"user-1", "user-2"} {
		name := "name-" + id
		_, err := store.UpsertProfile(context.Background(), &domain.Profile{ID: id, Username: &name})
		require.NoError(t, err)
	}
	return store
}

func TestLoadProfiles_BatchesAndCaches(t *testing.T) {
	store := seededStore(t)
	loaders := NewLoaders(store)
	ctx := context.Background()

	profiles, err := loaders.LoadProfiles(ctx, []string{"user-1", "user-2", "missing"})
	require.NoError(t, err)
	assert.Len(t, profiles, 2)
	assert.EqualValues(t, 1, store.calls.Load())

	// Повторная загрузка обслуживается из кэша лоадера
	profiles, err = loaders.LoadProfiles(ctx, []string{"user-2"})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "user-2", profiles[0].ID)
	assert.EqualValues(t, 1, store.calls.Load())
}

func TestLoadProfiles_Empty(t *testing.T) {
	store := seededStore(t)
	profiles, err := NewLoaders(store).LoadProfiles(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, profiles)
	assert.Zero(t, store.calls.Load())
}

func TestLoadProfiles_Error(t *testing.T) {
	store := seededStore(t)
	store.err = errors.New("db is down")

	_, err := NewLoaders(store).LoadProfiles(context.Background(), []string{"user-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db is down")
}

func TestMiddleware_InjectsLoaders(t *testing.T) {
	store := seededStore(t)
	var got *Loaders
	h := Middleware(store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = For(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, got)
	assert.NotNil(t, got.ProfileByID)

	assert.Nil(t, For(context.Background()))
}
