package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/UkralStul/chirp/internal/domain"
	"github.com/google/uuid"
)

type likeKey struct {
	postID string
	userID string
}

// Store реализует интерфейс Storage в памяти.
type Store struct {
	mu        sync.RWMutex
	posts     map[string]*domain.Post
	postOrder []string // в порядке создания
	comments  map[string]*domain.Comment
	byPost    map[string][]string // map[postID][]commentID, в порядке создания
	likes     map[likeKey]*domain.Like
	profiles  map[string]*domain.Profile
	now       func() time.Time
}

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		posts:    make(map[string]*domain.Post),
		comments: make(map[string]*domain.Comment),
		byPost:   make(map[string][]string),
		likes:    make(map[likeKey]*domain.Like),
		profiles: make(map[string]*domain.Profile),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post.ID = uuid.NewString()
	post.CreatedAt = s.now()
	post.UpdatedAt = post.CreatedAt
	s.posts[post.ID] = clonePost(post)
	s.postOrder = append(s.postOrder, post.ID)
	return clonePost(post), nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post with id %s: %w", id, domain.ErrNotFound)
	}
	return clonePost(post), nil
}

func (s *Store) GetPosts(ctx context.Context, limit, offset int) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Новые сверху; при равном времени выигрывает созданный позже.
	allPosts := make([]*domain.Post, 0, len(s.postOrder))
	for i := len(s.postOrder) - 1; i >= 0; i-- {
		allPosts = append(allPosts, s.posts[s.postOrder[i]])
	}
	sort.SliceStable(allPosts, func(i, j int) bool {
		return allPosts[i].CreatedAt.After(allPosts[j].CreatedAt)
	})

	start := offset
	if start >= len(allPosts) {
		return []*domain.Post{}, nil
	}
	end := start + limit
	if end > len(allPosts) {
		end = len(allPosts)
	}

	result := make([]*domain.Post, 0, end-start)
	for _, p := range allPosts[start:end] {
		result = append(result, clonePost(p))
	}
	return result, nil
}

func (s *Store) UpdatePost(ctx context.Context, id, userID, content string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok || post.UserID != userID {
		return 0, nil
	}
	post.Content = content
	post.UpdatedAt = at
	return 1, nil
}

func (s *Store) DeletePost(ctx context.Context, id, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok || post.UserID != userID {
		return 0, nil
	}

	// Каскад, как ON DELETE CASCADE в базе.
	for _, cID := range s.byPost[id] {
		delete(s.comments, cID)
	}
	delete(s.byPost, id)
	for k := range s.likes {
		if k.postID == id {
			delete(s.likes, k)
		}
	}

	delete(s.posts, id)
	for i, pID := range s.postOrder {
		if pID == id {
			s.postOrder = append(s.postOrder[:i], s.postOrder[i+1:]...)
			break
		}
	}
	return 1, nil
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Проверка поста
	if _, ok := s.posts[comment.PostID]; !ok {
		return nil, fmt.Errorf("post with id %s: %w", comment.PostID, domain.ErrNotFound)
	}

	comment.ID = uuid.NewString()
	comment.CreatedAt = s.now()
	comment.UpdatedAt = comment.CreatedAt
	stored := *comment
	s.comments[comment.ID] = &stored
	s.byPost[comment.PostID] = append(s.byPost[comment.PostID], comment.ID)

	c := *comment
	return &c, nil
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment with id %s: %w", id, domain.ErrNotFound)
	}
	c := *comment
	return &c, nil
}

func (s *Store) GetCommentsByPostIDs(ctx context.Context, postIDs []string) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Comment, 0)
	for _, pID := range postIDs {
		for _, cID := range s.byPost[pID] {
			c := *s.comments[cID]
			result = append(result, &c)
		}
	}
	// Старые сверху, внутри одного поста порядок создания уже сохранен.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) UpdateComment(ctx context.Context, id, userID, content string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[id]
	if !ok || comment.UserID != userID {
		return 0, nil
	}
	comment.Content = content
	comment.UpdatedAt = at
	return 1, nil
}

func (s *Store) DeleteComment(ctx context.Context, id, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[id]
	if !ok || comment.UserID != userID {
		return 0, nil
	}
	delete(s.comments, id)
	ids := s.byPost[comment.PostID]
	for i, cID := range ids {
		if cID == id {
			s.byPost[comment.PostID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return 1, nil
}

// === Like Methods ===

func (s *Store) GetLikesByPostIDs(ctx context.Context, postIDs []string) ([]*domain.Like, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := toSet(postIDs)
	result := make([]*domain.Like, 0)
	for k, l := range s.likes {
		if wanted[k.postID] {
			like := *l
			result = append(result, &like)
		}
	}
	return result, nil
}

func (s *Store) GetLikesByUserID(ctx context.Context, userID string, postIDs []string) ([]*domain.Like, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Like, 0)
	for _, pID := range postIDs {
		if l, ok := s.likes[likeKey{postID: pID, userID: userID}]; ok {
			like := *l
			result = append(result, &like)
		}
	}
	return result, nil
}

// ToggleLike держит блокировку на все время проверки и записи.
func (s *Store) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[postID]; !ok {
		return false, fmt.Errorf("post with id %s: %w", postID, domain.ErrNotFound)
	}

	key := likeKey{postID: postID, userID: userID}
	if _, ok := s.likes[key]; ok {
		delete(s.likes, key)
		return false, nil
	}
	s.likes[key] = &domain.Like{
		ID:        uuid.NewString(),
		PostID:    postID,
		UserID:    userID,
		CreatedAt: s.now(),
	}
	return true, nil
}

// === Profile Methods ===

func (s *Store) GetProfilesByIDs(ctx context.Context, ids []string) ([]*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Profile, 0, len(ids))
	for id := range toSet(ids) {
		if p, ok := s.profiles[id]; ok {
			profile := *p
			result = append(result, &profile)
		}
	}
	return result, nil
}

func (s *Store) UpsertProfile(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := *profile
	p.UpdatedAt = s.now()
	s.profiles[p.ID] = &p

	out := p
	return &out, nil
}

// clonePost копирует пост без связей gorm, чтобы вызывающий код не менял данные хранилища.
func clonePost(p *domain.Post) *domain.Post {
	return &domain.Post{
		ID:        p.ID,
		UserID:    p.UserID,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
