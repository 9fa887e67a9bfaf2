package domain

import "time"

// Profile - публичный профиль пользователя. ID совпадает с ID из провайдера идентификации.
type Profile struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Username  *string   `json:"username"`
	AvatarURL *string   `json:"avatar_url"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

// Post представляет пост в ленте.
type Post struct {
	ID        string     `json:"id" gorm:"primaryKey"`
	UserID    string     `json:"user_id" gorm:"not null;index"`
	Content   string     `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time  `json:"created_at" gorm:"not null;index"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"not null"`
	Comments  []*Comment `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"` // gorm only
	Likes     []*Like    `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"` // gorm only
}

// Like - отметка "нравится". Не больше одной на пару (post_id, user_id).
type Like struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"not null;uniqueIndex:idx_likes_post_user"`
	UserID    string    `json:"user_id" gorm:"not null;uniqueIndex:idx_likes_post_user"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}

// Comment представляет комментарий к посту.
type Comment struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"not null;index"`
	UserID    string    `json:"user_id" gorm:"not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

// PostWithAuthor - пост, собранный для отображения. Не сохраняется.
type PostWithAuthor struct {
	Post
	Author        *Profile `json:"profiles"`
	LikesCount    int      `json:"likes_count"`
	CommentsCount int      `json:"comments_count"`
	UserHasLiked  bool     `json:"user_has_liked"`
}

// CommentWithAuthor - комментарий вместе с профилем автора.
type CommentWithAuthor struct {
	Comment
	Author *Profile `json:"profiles"`
}

// User - текущий аутентифицированный пользователь (из токена доступа).
type User struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
