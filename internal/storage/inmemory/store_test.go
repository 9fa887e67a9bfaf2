// internal/storage/inmemory/store_test.go

package inmemory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/UkralStul/chirp/internal/domain"
	"github.com/UkralStul/chirp/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ storage.Storage = (*Store)(nil)

// newTestStore создает хранилище и один пост для тестов
func newTestStore(t *testing.T) (*Store, *domain.Post) {
	store := New()
	ctx := context.Background()
	post, err := store.CreatePost(ctx, &domain.Post{
		UserID:  "user-1",
		Content: "Content",
	})
	require.NoError(t, err)
	return store, post
}

func TestStore_CreateAndGetPost(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	retrieved, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Content, retrieved.Content)
	assert.Equal(t, post.CreatedAt, retrieved.UpdatedAt)

	_, err = store.GetPostByID(ctx, "non-existent-id")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_GetPosts_NewestFirst(t *testing.T) {
	store, first := newTestStore(t)
	ctx := context.Background()

	second, err := store.CreatePost(ctx, &domain.Post{UserID: "user-2", Content: "second"})
	require.NoError(t, err)
	third, err := store.CreatePost(ctx, &domain.Post{UserID: "user-1", Content: "third"})
	require.NoError(t, err)

	posts, err := store.GetPosts(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, third.ID, posts[0].ID)
	assert.Equal(t, second.ID, posts[1].ID)
	assert.Equal(t, first.ID, posts[2].ID)

	page, err := store.GetPosts(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, second.ID, page[0].ID)

	empty, err := store.GetPosts(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_UpdatePost_Ownership(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()
	at := time.Now().UTC().Add(time.Minute)

	n, err := store.UpdatePost(ctx, post.ID, "intruder", "hacked", at)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = store.UpdatePost(ctx, post.ID, "user-1", "edited", at)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)
	assert.Equal(t, at, got.UpdatedAt)
}

func TestStore_DeletePost_Cascades(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, UserID: "user-2", Content: "hi"})
	require.NoError(t, err)
	_, err = store.ToggleLike(ctx, post.ID, "user-2")
	require.NoError(t, err)

	n, err := store.DeletePost(ctx, post.ID, "user-2")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = store.DeletePost(ctx, post.ID, "user-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = store.GetPostByID(ctx, post.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	comments, err := store.GetCommentsByPostIDs(ctx, []string{post.ID})
	require.NoError(t, err)
	assert.Empty(t, comments)

	likes, err := store.GetLikesByPostIDs(ctx, []string{post.ID})
	require.NoError(t, err)
	assert.Empty(t, likes)
}

func TestStore_CreateComment_Success(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	comment, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, UserID: "user-2", Content: "First comment!"})
	require.NoError(t, err)
	assert.NotEmpty(t, comment.ID)

	second, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, UserID: "user-3", Content: "Second"})
	require.NoError(t, err)

	comments, err := store.GetCommentsByPostIDs(ctx, []string{post.ID})
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, comment.ID, comments[0].ID)
	assert.Equal(t, second.ID, comments[1].ID)
}

func TestStore_CreateComment_PostNotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.CreateComment(context.Background(), &domain.Comment{PostID: "missing", UserID: "user-2", Content: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_UpdateAndDeleteComment_Ownership(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	comment, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, UserID: "user-2", Content: "original"})
	require.NoError(t, err)

	n, err := store.UpdateComment(ctx, comment.ID, "user-1", "nope", time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = store.UpdateComment(ctx, comment.ID, "user-2", "edited", time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := store.GetCommentByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)

	n, err = store.DeleteComment(ctx, comment.ID, "user-1")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = store.DeleteComment(ctx, comment.ID, "user-2")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = store.GetCommentByID(ctx, comment.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ToggleLike(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	liked, err := store.ToggleLike(ctx, post.ID, "user-2")
	require.NoError(t, err)
	assert.True(t, liked)

	mine, err := store.GetLikesByUserID(ctx, "user-2", []string{post.ID})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	liked, err = store.ToggleLike(ctx, post.ID, "user-2")
	require.NoError(t, err)
	assert.False(t, liked)

	all, err := store.GetLikesByPostIDs(ctx, []string{post.ID})
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = store.ToggleLike(ctx, "missing", "user-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Четное число параллельных переключений возвращает исходное состояние и не плодит дубликаты.
func TestStore_ToggleLike_Concurrent(t *testing.T) {
	store, post := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.ToggleLike(ctx, post.ID, "user-2")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	likes, err := store.GetLikesByPostIDs(ctx, []string{post.ID})
	require.NoError(t, err)
	assert.Empty(t, likes)
}

func TestStore_Profiles(t *testing.T) {
	store := New()
	ctx := context.Background()
	name := "octocat"

	_, err := store.UpsertProfile(ctx, &domain.Profile{ID: "user-1", Username: &name})
	require.NoError(t, err)

	renamed := "octo"
	_, err = store.UpsertProfile(ctx, &domain.Profile{ID: "user-1", Username: &renamed})
	require.NoError(t, err)

	profiles, err := store.GetProfilesByIDs(ctx, []string{"user-1", "user-1", "missing"})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	require.NotNil(t, profiles[0].Username)
	assert.Equal(t, "octo", *profiles[0].Username)
	assert.False(t, profiles[0].UpdatedAt.IsZero())
}
