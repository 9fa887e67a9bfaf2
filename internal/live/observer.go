// Package live рассылает новые комментарии подписчикам поста.
package live

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/UkralStul/chirp/internal/domain"
)

// Observer хранит каналы подписчиков на комментарии.
type Observer struct {
	mu sync.RWMutex
	//          map[postID] map[subscriberID] channel
	subs map[string]map[string]chan *domain.CommentWithAuthor
}

func NewObserver() *Observer {
	return &Observer{
		subs: make(map[string]map[string]chan *domain.CommentWithAuthor),
	}
}

// Subscribe регистрирует подписчика на комментарии поста.
// Подписка снимается, а канал закрывается, когда ctx завершается.
func (o *Observer) Subscribe(ctx context.Context, postID string) <-chan *domain.CommentWithAuthor {
	ch := make(chan *domain.CommentWithAuthor, 8)
	subID := uuid.NewString()

	o.mu.Lock()
	if o.subs[postID] == nil {
		o.subs[postID] = make(map[string]chan *domain.CommentWithAuthor)
	}
	o.subs[postID][subID] = ch
	o.mu.Unlock()

	// Горутина для очистки при отключении клиента
	go func() {
		<-ctx.Done()
		o.mu.Lock()
		if postSubs, ok := o.subs[postID]; ok {
			delete(postSubs, subID)
			if len(postSubs) == 0 {
				delete(o.subs, postID)
			}
		}
		// Закрываем под блокировкой, чтобы CommentAdded не писал в закрытый канал
		close(ch)
		o.mu.Unlock()
	}()

	return ch
}

// CommentAdded рассылает комментарий без блокировки: медленный подписчик его пропустит.
func (o *Observer) CommentAdded(c *domain.CommentWithAuthor) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	for _, ch := range o.subs[c.PostID] {
		select {
		case ch <- c:
		default:
		}
	}
}

// Subscribers возвращает число активных подписчиков поста.
func (o *Observer) Subscribers(postID string) int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.subs[postID])
}
