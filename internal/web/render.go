package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/UkralStul/chirp/internal/content"
	"github.com/UkralStul/chirp/internal/domain"
	"github.com/UkralStul/chirp/internal/feed"
	"github.com/UkralStul/chirp/internal/logs"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageFeed      = "feed.html"
	pageCompose   = "compose.html"
	pageAuthError = "autherror.html"
)

var funcs = template.FuncMap{
	"render":      content.Render,
	"timeago":     func(t time.Time) string { return humanize.Time(t) },
	"displayName": displayName,
	"headerName":  headerName,
	"avatar":      avatar,
}

// parsePages собирает каждую страницу вместе с общим layout.
func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template)
	for _, page := range []string{pageFeed, pageCompose, pageAuthError} {
		// layout первым: страница переопределяет его блоки
		t, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", page, err)
		}
		pages[page] = t
	}
	return pages, nil
}

// pageData - общие данные всех страниц.
type pageData struct {
	User    *domain.User
	Profile *domain.Profile
	Error   string

	Posts []postCard

	Content   string
	MaxLength int
}

type postCard struct {
	Post     *domain.PostWithAuthor
	Comments []commentCard
	Viewer   *domain.User
	IsOwner  bool
	Editing  bool
}

type commentCard struct {
	Comment *domain.CommentWithAuthor
	IsOwner bool
	Editing bool
}

// cards превращает ленту в данные для шаблона с учетом режима редактирования.
func cards(f *feed.Feed, viewer *domain.User, editPostID, editCommentID string) []postCard {
	out := make([]postCard, 0, len(f.Posts))
	for _, p := range f.Posts {
		card := postCard{
			Post:    p,
			Viewer:  viewer,
			IsOwner: viewer != nil && viewer.ID == p.UserID,
		}
		card.Editing = card.IsOwner && editPostID == p.ID

		for _, c := range f.CommentsFor(p.ID) {
			cc := commentCard{Comment: c, IsOwner: viewer != nil && viewer.ID == c.UserID}
			cc.Editing = cc.IsOwner && editCommentID == c.ID
			card.Comments = append(card.Comments, cc)
		}
		out = append(out, card)
	}
	return out
}

func (s *Server) renderPage(w http.ResponseWriter, status int, page string, data *pageData) {
	// Рендерим в буфер, чтобы ошибка шаблона не оставила полстраницы
	var buf bytes.Buffer
	if err := s.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		logs.LogJSON(logs.Error, "template execution failed", map[string]interface{}{
			"page":  page,
			"error": err,
		})
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderComment рендерит один комментарий для рассылки по websocket.
func (s *Server) renderComment(c *domain.CommentWithAuthor) (string, error) {
	var buf bytes.Buffer
	if err := s.pages[pageFeed].ExecuteTemplate(&buf, "comment", commentCard{Comment: c}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func displayName(p *domain.Profile) string {
	if p != nil && p.Username != nil && *p.Username != "" {
		return *p.Username
	}
	return "Anonymous"
}

// headerName: имя профиля, затем email, затем "User".
func headerName(u *domain.User, p *domain.Profile) string {
	if p != nil && p.Username != nil && *p.Username != "" {
		return *p.Username
	}
	if u != nil && u.Email != "" {
		return u.Email
	}
	return "User"
}

func avatar(p *domain.Profile) string {
	if p != nil && p.AvatarURL != nil {
		return *p.AvatarURL
	}
	return ""
}
