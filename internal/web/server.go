// Package web отдает HTML-страницы ленты и принимает формы.
package web

import (
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/UkralStul/chirp/internal/auth"
	"github.com/UkralStul/chirp/internal/dataloader"
	"github.com/UkralStul/chirp/internal/live"
	"github.com/UkralStul/chirp/internal/service"
	"github.com/UkralStul/chirp/internal/storage"
)

// Deps - зависимости HTTP-слоя.
type Deps struct {
	Service  *service.Service
	Store    storage.Storage
	Observer *live.Observer
	Verifier *auth.Verifier
	// AuthClient == nil отключает вход
	AuthClient *auth.Client

	SiteURL       string
	OAuthProvider string
	SecureCookies bool
}

type Server struct {
	Deps
	pages    map[string]*template.Template
	upgrader websocket.Upgrader
}

func New(deps Deps) (*Server, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Server{
		Deps:  deps,
		pages: pages,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}, nil
}

// Router собирает все маршруты приложения.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	var refresher auth.Refresher
	if s.AuthClient != nil {
		refresher = s.AuthClient
	}
	router.Use(auth.Middleware(s.Verifier, refresher, s.SecureCookies))
	router.Use(func(next http.Handler) http.Handler {
		return dataloader.Middleware(s.Store, next)
	})

	router.Get("/", s.feedPage)
	router.Get("/compose", s.composePage)
	router.Get("/healthz", s.healthz)
	router.Get("/api/feed", s.apiFeed)

	router.Post("/posts", s.createPost)
	router.Route("/posts/{postID}", func(r chi.Router) {
		r.Post("/", s.updatePost)
		r.Post("/delete", s.deletePost)
		r.Post("/like", s.toggleLike)
		r.Post("/comments", s.createComment)
		r.Get("/live", s.liveComments)
	})
	router.Route("/comments/{commentID}", func(r chi.Router) {
		r.Post("/", s.updateComment)
		r.Post("/delete", s.deleteComment)
	})

	router.Route("/auth", func(r chi.Router) {
		r.Post("/signin", s.signIn)
		r.Get("/callback", s.authCallback)
		r.Post("/signout", s.signOut)
		r.Get("/error", s.authErrorPage)
	})

	return router
}

// NewHTTPServer оборачивает роутер в http.Server с таймаутами на чтение заголовков.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
