package storage

import (
	"context"
	"time"

	"github.com/UkralStul/chirp/internal/domain"
)

// Storage определяет контракт для хранилищ.
//
// Update* и Delete* фильтруют по id записи И по id пользователя: чужая запись
// просто не совпадает, метод возвращает 0 затронутых строк без ошибки.
type Storage interface {
	GetPosts(ctx context.Context, limit, offset int) ([]*domain.Post, error)
	GetPostByID(ctx context.Context, id string) (*domain.Post, error)
	CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error)
	UpdatePost(ctx context.Context, id, userID, content string, at time.Time) (int64, error)
	DeletePost(ctx context.Context, id, userID string) (int64, error)

	// Комментарии возвращаются от старых к новым.
	GetCommentsByPostIDs(ctx context.Context, postIDs []string) ([]*domain.Comment, error)
	GetCommentByID(ctx context.Context, id string) (*domain.Comment, error)
	CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	UpdateComment(ctx context.Context, id, userID, content string, at time.Time) (int64, error)
	DeleteComment(ctx context.Context, id, userID string) (int64, error)

	GetLikesByPostIDs(ctx context.Context, postIDs []string) ([]*domain.Like, error)
	GetLikesByUserID(ctx context.Context, userID string, postIDs []string) ([]*domain.Like, error)
	// ToggleLike атомарно ставит или снимает лайк. Возвращает итоговое состояние.
	ToggleLike(ctx context.Context, postID, userID string) (bool, error)

	// Методы для Dataloader'ов
	GetProfilesByIDs(ctx context.Context, ids []string) ([]*domain.Profile, error)
	UpsertProfile(ctx context.Context, profile *domain.Profile) (*domain.Profile, error)
}
