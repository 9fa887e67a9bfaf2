package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/UkralStul/chirp/internal/domain"
	"github.com/UkralStul/chirp/internal/service"
	"github.com/UkralStul/chirp/internal/storage"
)

func strPtr(s string) *string { return &s }

// fillWithMockData создает несколько профилей, постов, комментариев и лайков.
func fillWithMockData(ctx context.Context, s storage.Storage, svc *service.Service) error {
	users := []*domain.Profile{
		{ID: "user-1", Username: strPtr("gopher")},
		{ID: "user-2", Username: strPtr("octocat"), AvatarURL: strPtr("https://avatars.githubusercontent.com/u/583231")},
		{ID: "user-3"}, // без имени: в ленте будет Anonymous
	}
	// 1. Профили пишем напрямую: их источник - вход через провайдера
	for _, p := range users {
		p.UpdatedAt = time.Now()
		if _, err := s.UpsertProfile(ctx, p); err != nil {
			return fmt.Errorf("fillWithMockData: failed to create profile %s: %w", p.ID, err)
		}
	}

	as := func(id string) *domain.User { return &domain.User{ID: id} }

	// 2. Посты и комментарии идут через сервис, как из формы
	first, err := svc.CreatePost(ctx, as("user-1"), "Hello, **Chirp**! Posts support *emphasis* and **bold**.")
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create post: %w", err)
	}
	second, err := svc.CreatePost(ctx, as("user-2"), "Comments show up live for everyone viewing the feed.")
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create post: %w", err)
	}

	comments := []struct {
		user, post, text string
	}{
		{"user-2", first.ID, "Welcome!"},
		{"user-3", first.ID, "Is *this* formatted? Nope, comments stay plain."},
		{"user-1", second.ID, "Nice."},
	}
	for i, c := range comments {
		if _, err := svc.CreateComment(ctx, as(c.user), c.post, c.text); err != nil {
			return fmt.Errorf("fillWithMockData: failed to create comment %d: %w", i+1, err)
		}
	}

	// 3. Лайки
	for _, uid := range []string{"user-2", "user-3"} {
		if _, err := svc.ToggleLike(ctx, as(uid), first.ID); err != nil {
			return fmt.Errorf("fillWithMockData: failed to like post: %w", err)
		}
	}

	log.Printf("Mock data filled successfully. Created posts %s and %s", first.ID, second.ID)
	return nil
}
