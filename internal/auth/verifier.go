package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/UkralStul/chirp/internal/domain"
)

type contextKey string

const userKey = contextKey("user")

// WithUser кладет пользователя в контекст запроса.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom возвращает пользователя из контекста или nil для анонима.
func UserFrom(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userKey).(*domain.User)
	return u
}

// Verifier проверяет access-токены провайдера (HS256, общий секрет).
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify проверяет подпись и срок действия токена.
// Для просроченного токена ошибка совпадает с jwt.ErrTokenExpired через errors.Is.
func (v *Verifier) Verify(tokenStr string) (*domain.User, error) {
	if tokenStr == "" {
		return nil, errors.New("empty token")
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		return nil, errors.New("token has no subject")
	}

	user := &domain.User{ID: userID}
	user.Email, _ = claims["email"].(string)
	user.Metadata, _ = claims["user_metadata"].(map[string]interface{})
	return user, nil
}
