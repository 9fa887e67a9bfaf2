package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/UkralStul/chirp/internal/auth"
	"github.com/UkralStul/chirp/internal/domain"
	"github.com/UkralStul/chirp/internal/feed"
	"github.com/UkralStul/chirp/internal/logs"
	"github.com/UkralStul/chirp/internal/service"
)

// === Pages ===

func (s *Server) feedPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFrom(ctx)
	q := r.URL.Query()

	data := &pageData{User: user, Profile: s.profile(r), Error: q.Get("error")}

	f, err := s.Service.Feed(ctx, user)
	if err != nil {
		s.logError(r, "failed to load feed", err)
		// Лента пустая, но страница все равно отдается с сообщением
		if data.Error == "" {
			data.Error = message(err)
		}
		f = &feed.Feed{}
	}
	data.Posts = cards(f, user, q.Get("edit"), q.Get("edit_comment"))

	s.renderPage(w, http.StatusOK, pageFeed, data)
}

func (s *Server) composePage(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	if user == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.renderPage(w, http.StatusOK, pageCompose, &pageData{
		User:      user,
		Profile:   s.profile(r),
		MaxLength: service.MaxPostLength,
	})
}

func (s *Server) authErrorPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, pageAuthError, &pageData{
		User:  auth.UserFrom(r.Context()),
		Error: r.URL.Query().Get("message"),
	})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// === Posts ===

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFrom(ctx)
	text := r.PostFormValue("content")

	_, err := s.Service.CreatePost(ctx, user, text)
	switch {
	case err == nil:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case errors.Is(err, domain.ErrUnauthenticated):
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		s.logError(r, "failed to create post", err)
		// Форма остается на месте вместе с текстом и сообщением
		s.renderPage(w, statusFor(err), pageCompose, &pageData{
			User:      user,
			Profile:   s.profile(r),
			Error:     message(err),
			Content:   text,
			MaxLength: service.MaxPostLength,
		})
	}
}

func (s *Server) updatePost(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	err := s.Service.UpdatePost(r.Context(), user, chi.URLParam(r, "postID"), r.PostFormValue("content"))
	s.finish(w, r, "failed to update post", err)
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	err := s.Service.DeletePost(r.Context(), user, chi.URLParam(r, "postID"))
	s.finish(w, r, "failed to delete post", err)
}

func (s *Server) toggleLike(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	_, err := s.Service.ToggleLike(r.Context(), user, chi.URLParam(r, "postID"))
	s.finish(w, r, "failed to toggle like", err)
}

// === Comments ===

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	_, err := s.Service.CreateComment(r.Context(), user, chi.URLParam(r, "postID"), r.PostFormValue("content"))
	s.finish(w, r, "failed to create comment", err)
}

func (s *Server) updateComment(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	err := s.Service.UpdateComment(r.Context(), user, chi.URLParam(r, "commentID"), r.PostFormValue("content"))
	s.finish(w, r, "failed to update comment", err)
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	err := s.Service.DeleteComment(r.Context(), user, chi.URLParam(r, "commentID"))
	s.finish(w, r, "failed to delete comment", err)
}

// === JSON ===

type feedResponse struct {
	Posts    []*domain.PostWithAuthor                `json:"posts"`
	Comments map[string][]*domain.CommentWithAuthor `json:"comments"`
}

func (s *Server) apiFeed(w http.ResponseWriter, r *http.Request) {
	f, err := s.Service.Feed(r.Context(), auth.UserFrom(r.Context()))
	if err != nil {
		s.logError(r, "failed to load feed", err)
		writeJSON(w, statusFor(err), map[string]string{"error": message(err)})
		return
	}
	writeJSON(w, http.StatusOK, feedResponse{Posts: f.Posts, Comments: f.Comments})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// === Helpers ===

// finish: успех - полный редирект на ленту, ошибка - на ленту с сообщением.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, what string, err error) {
	if err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.logError(r, what, err)
	http.Redirect(w, r, "/?error="+url.QueryEscape(message(err)), http.StatusSeeOther)
}

// profile загружает профиль текущего пользователя для шапки. Ошибка не критична.
func (s *Server) profile(r *http.Request) *domain.Profile {
	p, err := s.Service.CurrentProfile(r.Context(), auth.UserFrom(r.Context()))
	if err != nil {
		s.logError(r, "failed to load profile", err)
		return nil
	}
	return p
}

func (s *Server) logError(r *http.Request, msg string, err error) {
	level := logs.Error
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) || errors.Is(err, domain.ErrUnauthenticated) || errors.Is(err, domain.ErrNotFound) {
		level = logs.Warn
	}
	fields := map[string]interface{}{
		"error":      err,
		"method":     r.Method,
		"path":       r.URL.Path,
		"request_id": middleware.GetReqID(r.Context()),
	}
	if u := auth.UserFrom(r.Context()); u != nil {
		fields["user_id"] = u.ID
	}
	logs.LogJSON(level, msg, fields)
}

// message - текст ошибки для пользователя.
func message(err error) string {
	var vErr *domain.ValidationError
	var bErr *domain.BackendError
	switch {
	case errors.As(err, &vErr):
		return vErr.Message
	case errors.Is(err, domain.ErrUnauthenticated):
		return "Not authenticated"
	case errors.Is(err, domain.ErrNotFound):
		return "Post not found"
	case errors.As(err, &bErr):
		return bErr.Error()
	default:
		return "Something went wrong"
	}
}

func statusFor(err error) int {
	var vErr *domain.ValidationError
	var bErr *domain.BackendError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &bErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
