package dataloader

import (
	"context"
	"net/http"
	"time"

	"github.com/UkralStul/chirp/internal/domain"
	"github.com/UkralStul/chirp/internal/storage"
	"github.com/graph-gophers/dataloader"
)

type contextKey string

const key = contextKey("dataloaders")

// Loaders содержит все дата-лоадеры приложения.
type Loaders struct {
	ProfileByID *dataloader.Loader
}

// NewLoaders создает лоадеры поверх хранилища. Кэш живет столько же, сколько сами лоадеры.
func NewLoaders(store storage.Storage) *Loaders {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := keys.Keys()

		// Один запрос к хранилищу на всю пачку ключей
		profiles, err := store.GetProfilesByIDs(ctx, ids)
		if err != nil {
			results := make([]*dataloader.Result, len(keys))
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		byID := make(map[string]*domain.Profile, len(profiles))
		for _, p := range profiles {
			byID[p.ID] = p
		}

		// Результат в том же порядке, что и ключи; отсутствующий профиль - nil без ошибки
		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			results[i] = &dataloader.Result{Data: byID[id]}
		}
		return results
	}

	return &Loaders{
		ProfileByID: dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(time.Millisecond*1)),
	}
}

// Middleware для внедрения лоадеров в контекст запроса.
func Middleware(store storage.Storage, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithLoaders(r.Context(), NewLoaders(store))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithLoaders кладет лоадеры в контекст.
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, key, l)
}

// For извлекает лоадеры из контекста. Вне HTTP-запроса возвращает nil.
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(key).(*Loaders)
	return l
}

// LoadProfiles загружает профили пачкой. Ключи без профиля в результат не попадают.
func (l *Loaders) LoadProfiles(ctx context.Context, ids []string) ([]*domain.Profile, error) {
	if len(ids) == 0 {
		return []*domain.Profile{}, nil
	}

	results, errs := l.ProfileByID.LoadMany(ctx, dataloader.NewKeysFromStrings(ids))()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	profiles := make([]*domain.Profile, 0, len(results))
	for _, r := range results {
		if p, ok := r.(*domain.Profile); ok && p != nil {
			profiles = append(profiles, p)
		}
	}
	return profiles, nil
}
