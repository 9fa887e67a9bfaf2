// Package service содержит операции над постами, комментариями, лайками и профилями.
//
// Порядок проверок везде одинаковый: сначала содержимое, потом пользователь,
// и только потом обращение к хранилищу.
package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"

	"github.com/UkralStul/chirp/internal/dataloader"
	"github.com/UkralStul/chirp/internal/domain"
	"github.com/UkralStul/chirp/internal/feed"
	"github.com/UkralStul/chirp/internal/storage"
)

const (
	MaxPostLength    = 280
	MaxCommentLength = 2000
	DefaultFeedLimit = 50
)

// Notifier получает только что созданные комментарии.
type Notifier interface {
	CommentAdded(c *domain.CommentWithAuthor)
}

type Service struct {
	store     storage.Storage
	notifier  Notifier
	feedLimit int
	now       func() time.Time
	policy    *bluemonday.Policy
}

type Option func(*Service)

// WithNotifier подключает рассылку новых комментариев.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithFeedLimit ограничивает число постов в ленте. Значения <= 0 игнорируются.
func WithFeedLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.feedLimit = limit
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(store storage.Storage, opts ...Option) *Service {
	s := &Service{
		store:     store,
		feedLimit: DefaultFeedLimit,
		now:       func() time.Time { return time.Now().UTC() },
		policy:    bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// === Posts ===

func (s *Service) CreatePost(ctx context.Context, user *domain.User, content string) (*domain.Post, error) {
	text, err := normalize(content, "Post", MaxPostLength)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}

	post, err := s.store.CreatePost(ctx, &domain.Post{UserID: user.ID, Content: text})
	if err != nil {
		return nil, backend(err)
	}
	return post, nil
}

func (s *Service) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	post, err := s.store.GetPostByID(ctx, postID)
	if err != nil {
		return nil, backend(err)
	}
	return post, nil
}

// UpdatePost меняет текст поста. Чужой или несуществующий пост молча не меняется.
func (s *Service) UpdatePost(ctx context.Context, user *domain.User, postID, content string) error {
	text, err := normalize(content, "Post", MaxPostLength)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUnauthenticated
	}

	if _, err := s.store.UpdatePost(ctx, postID, user.ID, text, s.now()); err != nil {
		return backend(err)
	}
	return nil
}

func (s *Service) DeletePost(ctx context.Context, user *domain.User, postID string) error {
	if user == nil {
		return domain.ErrUnauthenticated
	}
	if _, err := s.store.DeletePost(ctx, postID, user.ID); err != nil {
		return backend(err)
	}
	return nil
}

// ToggleLike ставит лайк, если его нет, и снимает, если есть.
func (s *Service) ToggleLike(ctx context.Context, user *domain.User, postID string) (bool, error) {
	if user == nil {
		return false, domain.ErrUnauthenticated
	}
	liked, err := s.store.ToggleLike(ctx, postID, user.ID)
	if err != nil {
		return false, backend(err)
	}
	return liked, nil
}

// === Comments ===

func (s *Service) CreateComment(ctx context.Context, user *domain.User, postID, content string) (*domain.CommentWithAuthor, error) {
	text, err := normalize(content, "Comment", MaxCommentLength)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}

	comment, err := s.store.CreateComment(ctx, &domain.Comment{PostID: postID, UserID: user.ID, Content: text})
	if err != nil {
		return nil, backend(err)
	}

	out := &domain.CommentWithAuthor{Comment: *comment}
	// Профиль нужен только для отображения, его отсутствие не ошибка
	if profiles, err := s.loadProfiles(ctx, []string{user.ID}); err == nil && len(profiles) > 0 {
		out.Author = profiles[0]
	}

	if s.notifier != nil {
		s.notifier.CommentAdded(out)
	}
	return out, nil
}

func (s *Service) UpdateComment(ctx context.Context, user *domain.User, commentID, content string) error {
	text, err := normalize(content, "Comment", MaxCommentLength)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUnauthenticated
	}

	if _, err := s.store.UpdateComment(ctx, commentID, user.ID, text, s.now()); err != nil {
		return backend(err)
	}
	return nil
}

func (s *Service) DeleteComment(ctx context.Context, user *domain.User, commentID string) error {
	if user == nil {
		return domain.ErrUnauthenticated
	}
	if _, err := s.store.DeleteComment(ctx, commentID, user.ID); err != nil {
		return backend(err)
	}
	return nil
}

// === Feed ===

// Feed собирает ленту для смотрящего. viewer == nil - аноним.
func (s *Service) Feed(ctx context.Context, viewer *domain.User) (*feed.Feed, error) {
	posts, err := s.store.GetPosts(ctx, s.feedLimit, 0)
	if err != nil {
		return nil, backend(err)
	}

	postIDs := make([]string, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	comments, err := s.store.GetCommentsByPostIDs(ctx, postIDs)
	if err != nil {
		return nil, backend(err)
	}

	// Авторы постов и комментариев, без повторов
	seen := make(map[string]bool)
	userIDs := make([]string, 0, len(posts)+len(comments))
	for _, p := range posts {
		if !seen[p.UserID] {
			seen[p.UserID] = true
			userIDs = append(userIDs, p.UserID)
		}
	}
	for _, c := range comments {
		if !seen[c.UserID] {
			seen[c.UserID] = true
			userIDs = append(userIDs, c.UserID)
		}
	}

	profiles, err := s.loadProfiles(ctx, userIDs)
	if err != nil {
		return nil, backend(err)
	}

	likes, err := s.store.GetLikesByPostIDs(ctx, postIDs)
	if err != nil {
		return nil, backend(err)
	}

	in := feed.Input{
		Posts:    posts,
		Comments: comments,
		Profiles: profiles,
		Likes:    likes,
	}
	if viewer != nil {
		in.ViewerID = viewer.ID
		in.ViewerLikes, err = s.store.GetLikesByUserID(ctx, viewer.ID, postIDs)
		if err != nil {
			return nil, backend(err)
		}
	}

	return feed.Aggregate(in), nil
}

// === Profiles ===

// SyncProfile сохраняет профиль пользователя по метаданным провайдера.
func (s *Service) SyncProfile(ctx context.Context, user *domain.User) (*domain.Profile, error) {
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}

	profile := &domain.Profile{ID: user.ID}
	for _, key := range []string{"user_name", "preferred_username", "name"} {
		if v, ok := user.Metadata[key].(string); ok {
			// StrictPolicy убирает теги, но экранирует текст; храним обычную строку
			if name := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v))); name != "" {
				profile.Username = &name
				break
			}
		}
	}
	if v, ok := user.Metadata["avatar_url"].(string); ok {
		if avatar := strings.TrimSpace(v); avatar != "" {
			profile.AvatarURL = &avatar
		}
	}

	saved, err := s.store.UpsertProfile(ctx, profile)
	if err != nil {
		return nil, backend(err)
	}
	return saved, nil
}

// CurrentProfile возвращает профиль пользователя или nil, если его еще нет.
func (s *Service) CurrentProfile(ctx context.Context, user *domain.User) (*domain.Profile, error) {
	if user == nil {
		return nil, nil
	}
	profiles, err := s.loadProfiles(ctx, []string{user.ID})
	if err != nil {
		return nil, backend(err)
	}
	if len(profiles) == 0 {
		return nil, nil
	}
	return profiles[0], nil
}

// loadProfiles идет через лоадер запроса, если он есть в контексте.
func (s *Service) loadProfiles(ctx context.Context, ids []string) ([]*domain.Profile, error) {
	if l := dataloader.For(ctx); l != nil {
		return l.LoadProfiles(ctx, ids)
	}
	return s.store.GetProfilesByIDs(ctx, ids)
}

// normalize обрезает пробелы, приводит текст к NFC и проверяет длину в символах.
func normalize(content, what string, max int) (string, error) {
	text := norm.NFC.String(strings.TrimSpace(content))
	if text == "" {
		return "", &domain.ValidationError{Message: "Content is required"}
	}
	if n := utf8.RuneCountInString(text); n > max {
		return "", &domain.ValidationError{
			Message: fmt.Sprintf("%s is too long (%d/%d characters)", what, n, max),
		}
	}
	return text, nil
}

// backend оборачивает ошибку хранилища. ErrNotFound пропускается как есть.
func backend(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return &domain.BackendError{Err: err}
}
