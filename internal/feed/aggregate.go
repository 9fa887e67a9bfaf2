// Package feed собирает ленту из уже загруженных строк хранилища.
package feed

import "github.com/UkralStul/chirp/internal/domain"

// Input - все, что нужно для сборки ленты.
type Input struct {
	Posts       []*domain.Post    // в порядке отображения (обычно новые сверху)
	Comments    []*domain.Comment // к этим постам, старые сверху
	Profiles    []*domain.Profile
	ViewerLikes []*domain.Like // лайки смотрящего пользователя
	Likes       []*domain.Like // все лайки к этим постам
	ViewerID    string         // пусто для анонима
}

// Feed - денормализованная лента для отображения.
type Feed struct {
	Posts    []*domain.PostWithAuthor
	Comments map[string][]*domain.CommentWithAuthor // map[postID]
}

// CommentsFor возвращает комментарии поста (nil, если их нет).
func (f *Feed) CommentsFor(postID string) []*domain.CommentWithAuthor {
	return f.Comments[postID]
}

// Aggregate склеивает посты с авторами, комментариями и лайками.
// Отсутствующий профиль не ошибка: поле автора просто nil.
func Aggregate(in Input) *Feed {
	profiles := make(map[string]*domain.Profile, len(in.Profiles))
	for _, p := range in.Profiles {
		if p != nil {
			profiles[p.ID] = p
		}
	}

	comments := make(map[string][]*domain.CommentWithAuthor)
	for _, c := range in.Comments {
		comments[c.PostID] = append(comments[c.PostID], &domain.CommentWithAuthor{
			Comment: *c,
			Author:  profiles[c.UserID],
		})
	}

	likeCounts := make(map[string]int)
	for _, l := range in.Likes {
		likeCounts[l.PostID]++
	}

	liked := make(map[string]bool)
	if in.ViewerID != "" {
		for _, l := range in.ViewerLikes {
			liked[l.PostID] = true
		}
	}

	posts := make([]*domain.PostWithAuthor, 0, len(in.Posts))
	for _, p := range in.Posts {
		posts = append(posts, &domain.PostWithAuthor{
			Post:          *p,
			Author:        profiles[p.UserID],
			LikesCount:    likeCounts[p.ID],
			CommentsCount: len(comments[p.ID]),
			UserHasLiked:  liked[p.ID],
		})
	}

	return &Feed{Posts: posts, Comments: comments}
}
