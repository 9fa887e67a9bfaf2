package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/UkralStul/chirp/internal/auth"
	"github.com/UkralStul/chirp/internal/logs"
)

func redirectAuthError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/auth/error?message="+url.QueryEscape(msg), http.StatusSeeOther)
}

// signIn отправляет пользователя к провайдеру. PKCE verifier ждет колбэка в cookie.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	if s.AuthClient == nil {
		redirectAuthError(w, r, "Sign-in is not configured")
		return
	}

	redirectTo := strings.TrimRight(s.SiteURL, "/") + "/auth/callback"
	authURL, verifier := s.AuthClient.AuthorizeURL(s.OAuthProvider, redirectTo)

	http.SetCookie(w, auth.VerifierCookieFor(verifier, s.SecureCookies))
	http.Redirect(w, r, authURL, http.StatusSeeOther)
}

func (s *Server) authCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		msg := q.Get("error_description")
		if msg == "" {
			msg = e
		}
		redirectAuthError(w, r, msg)
		return
	}
	if s.AuthClient == nil {
		redirectAuthError(w, r, "Sign-in is not configured")
		return
	}

	code := q.Get("code")
	vc, err := r.Cookie(auth.VerifierCookie)
	if code == "" || err != nil || vc.Value == "" {
		redirectAuthError(w, r, "Missing authorization code")
		return
	}

	session, err := s.AuthClient.ExchangeCode(r.Context(), code, vc.Value)
	if err != nil {
		s.logError(r, "failed to exchange auth code", err)
		redirectAuthError(w, r, err.Error())
		return
	}

	http.SetCookie(w, auth.ClearVerifierCookie(s.SecureCookies))
	auth.SetSessionCookies(w, session, s.SecureCookies)

	// Профиль обновляется при каждом входе
	if user, err := s.Verifier.Verify(session.AccessToken); err != nil {
		s.logError(r, "issued access token did not verify", err)
	} else if _, err := s.Service.SyncProfile(r.Context(), user); err != nil {
		s.logError(r, "failed to sync profile", err)
	} else {
		logs.LogJSON(logs.Info, "user signed in", map[string]interface{}{"user_id": user.ID})
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(auth.AccessCookie); err == nil && c.Value != "" && s.AuthClient != nil {
		if err := s.AuthClient.SignOut(r.Context(), c.Value); err != nil {
			s.logError(r, "failed to revoke session", err)
		}
	}
	auth.ClearSessionCookies(w, s.SecureCookies)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
