package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/UkralStul/chirp/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// liveMessage - новый комментарий для клиента. HTML уже отрендерен тем же шаблоном, что и лента.
type liveMessage struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
	HTML   string `json:"html"`
}

// liveComments подписывает websocket-клиента на новые комментарии поста.
func (s *Server) liveComments(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")

	// Проверяем, существует ли пост, прежде чем подписываться
	if _, err := s.Service.GetPost(r.Context(), postID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "post not found", http.StatusNotFound)
			return
		}
		s.logError(r, "failed to check post", err)
		http.Error(w, message(err), statusFor(err))
		return
	}

	// Подписка до апгрейда: комментарий, созданный сразу после рукопожатия, не потеряется
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	comments := s.Observer.Subscribe(ctx, postID)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		return
	}
	defer conn.Close()

	// Читатель нужен, чтобы заметить закрытие соединения клиентом
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case c, ok := <-comments:
			if !ok {
				return
			}
			html, err := s.renderComment(c)
			if err != nil {
				s.logError(r, "failed to render live comment", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(liveMessage{ID: c.ID, PostID: c.PostID, HTML: html}); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
