package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/UkralStul/chirp/internal/logs"
)

const (
	AccessCookie   = "chirp-access-token"
	RefreshCookie  = "chirp-refresh-token"
	VerifierCookie = "chirp-pkce-verifier"
)

const sessionMaxAge = 30 * 24 * time.Hour

// Refresher обновляет сессию по refresh-токену. Client его реализует.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
}

// Middleware делает аутентификацию необязательной: невалидный токен - просто аноним.
// Просроченный или отсутствующий access-токен обновляется, если есть refresh-токен.
func Middleware(v *Verifier, r Refresher, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			var tokenStr string
			if c, err := req.Cookie(AccessCookie); err == nil {
				tokenStr = c.Value
			}

			user, err := v.Verify(tokenStr)
			if user == nil && (tokenStr == "" || errors.Is(err, jwt.ErrTokenExpired)) && r != nil {
				if c, cErr := req.Cookie(RefreshCookie); cErr == nil && c.Value != "" {
					session, rErr := r.Refresh(req.Context(), c.Value)
					if rErr != nil {
						logs.LogJSON(logs.Warn, "session refresh failed", map[string]interface{}{
							"error": rErr,
						})
						ClearSessionCookies(w, secure)
					} else {
						SetSessionCookies(w, session, secure)
						user, _ = v.Verify(session.AccessToken)
					}
				}
			}

			if user != nil {
				req = req.WithContext(WithUser(req.Context(), user))
			}
			next.ServeHTTP(w, req)
		})
	}
}

// SetSessionCookies сохраняет токены сессии в HttpOnly-cookie.
func SetSessionCookies(w http.ResponseWriter, s *Session, secure bool) {
	http.SetCookie(w, sessionCookie(AccessCookie, s.AccessToken, sessionMaxAge, secure))
	http.SetCookie(w, sessionCookie(RefreshCookie, s.RefreshToken, sessionMaxAge, secure))
}

func ClearSessionCookies(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, sessionCookie(AccessCookie, "", -1, secure))
	http.SetCookie(w, sessionCookie(RefreshCookie, "", -1, secure))
}

// sessionCookie: maxAge < 0 удаляет cookie.
func sessionCookie(name, value string, maxAge time.Duration, secure bool) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(maxAge.Seconds())
	}
	return c
}

// VerifierCookieFor хранит PKCE verifier до возврата из провайдера.
func VerifierCookieFor(verifier string, secure bool) *http.Cookie {
	return sessionCookie(VerifierCookie, verifier, 10*time.Minute, secure)
}

func ClearVerifierCookie(secure bool) *http.Cookie {
	return sessionCookie(VerifierCookie, "", -1, secure)
}
