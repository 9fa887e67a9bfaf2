package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UkralStul/chirp/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// pgForeignKeyViolation - SQLSTATE foreign_key_violation.
const pgForeignKeyViolation = "23503"

// Store реализует интерфейс Storage поверх gorm (PostgreSQL или SQLite).
type Store struct {
	db *gorm.DB
}

// Open подключается через переданный диалект и выполняет миграцию схемы.
func Open(dialector gorm.Dialector, level logger.LogLevel) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Migrate создает таблицы profiles, posts, comments, likes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.Profile{}, &domain.Post{}, &domain.Comment{}, &domain.Like{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	// GORM сам заполнит CreatedAt и UpdatedAt
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, translateError(err)
	}
	return post, nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &post, nil
}

func (s *Store) GetPosts(ctx context.Context, limit, offset int) ([]*domain.Post, error) {
	posts := make([]*domain.Post, 0)
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset).Find(&posts).Error
	return posts, err
}

func (s *Store) UpdatePost(ctx context.Context, id, userID, content string, at time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"content": content, "updated_at": at})
	return res.RowsAffected, res.Error
}

func (s *Store) DeletePost(ctx context.Context, id, userID string) (int64, error) {
	// Комментарии и лайки удаляются каскадом на стороне базы
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Post{})
	return res.RowsAffected, res.Error
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}

	// Проверяем существование поста и создаем комментарий в одной транзакции
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Post{}).Where("id = ?", comment.PostID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("post with id %s: %w", comment.PostID, domain.ErrNotFound)
		}
		return tx.Create(comment).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	return comment, nil
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	var comment domain.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &comment, nil
}

func (s *Store) GetCommentsByPostIDs(ctx context.Context, postIDs []string) ([]*domain.Comment, error) {
	comments := make([]*domain.Comment, 0)
	if len(postIDs) == 0 {
		return comments, nil
	}
	err := s.db.WithContext(ctx).
		Where("post_id IN ?", postIDs).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

func (s *Store) UpdateComment(ctx context.Context, id, userID, content string, at time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&domain.Comment{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"content": content, "updated_at": at})
	return res.RowsAffected, res.Error
}

func (s *Store) DeleteComment(ctx context.Context, id, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Comment{})
	return res.RowsAffected, res.Error
}

// === Like Methods ===

func (s *Store) GetLikesByPostIDs(ctx context.Context, postIDs []string) ([]*domain.Like, error) {
	likes := make([]*domain.Like, 0)
	if len(postIDs) == 0 {
		return likes, nil
	}
	err := s.db.WithContext(ctx).Where("post_id IN ?", postIDs).Find(&likes).Error
	return likes, err
}

func (s *Store) GetLikesByUserID(ctx context.Context, userID string, postIDs []string) ([]*domain.Like, error) {
	likes := make([]*domain.Like, 0)
	if len(postIDs) == 0 {
		return likes, nil
	}
	err := s.db.WithContext(ctx).Where("user_id = ? AND post_id IN ?", userID, postIDs).Find(&likes).Error
	return likes, err
}

// ToggleLike: удаление и вставка в одной транзакции. Вставка опирается на уникальный
// индекс (post_id, user_id), поэтому гонка двух переключений не создает дубликат.
func (s *Store) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	var liked bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&domain.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return nil
		}

		like := &domain.Like{ID: uuid.NewString(), PostID: postID, UserID: userID}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(like).Error
		if err != nil {
			return err
		}
		liked = true
		return nil
	})
	if err != nil {
		return false, translateError(err)
	}
	return liked, nil
}

// === Profile Methods ===

func (s *Store) GetProfilesByIDs(ctx context.Context, ids []string) ([]*domain.Profile, error) {
	profiles := make([]*domain.Profile, 0)
	if len(ids) == 0 {
		return profiles, nil
	}
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error
	return profiles, err
}

func (s *Store) UpsertProfile(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	p := *profile
	p.UpdatedAt = time.Now().UTC()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "avatar_url", "updated_at"}),
	}).Create(&p).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

// translateError приводит ошибки драйверов к ошибкам домена.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, pgErr.Message)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
		return fmt.Errorf("%w: %v", domain.ErrNotFound, liteErr)
	}
	return err
}
