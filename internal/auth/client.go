package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Session - ответ сервиса идентификации на обмен кода или обновление токена.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// Client ходит в REST API сервиса идентификации (совместимый с Supabase Auth).
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
}

func NewClient(baseURL, anonKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthorizeURL строит адрес входа через провайдера с PKCE.
// verifier нужно сохранить до колбэка и передать в ExchangeCode.
func (c *Client) AuthorizeURL(provider, redirectTo string) (authURL, verifier string) {
	verifier = oauth2.GenerateVerifier()

	q := url.Values{}
	q.Set("provider", provider)
	q.Set("redirect_to", redirectTo)
	q.Set("code_challenge", oauth2.S256ChallengeFromVerifier(verifier))
	q.Set("code_challenge_method", "s256")

	return c.baseURL + "/auth/v1/authorize?" + q.Encode(), verifier
}

// ExchangeCode меняет код из колбэка на сессию.
func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (*Session, error) {
	body := map[string]string{"auth_code": code, "code_verifier": verifier}
	var s Session
	if err := c.post(ctx, "/auth/v1/token?grant_type=pkce", "", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var s Session
	if err := c.post(ctx, "/auth/v1/token?grant_type=refresh_token", "", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SignOut отзывает сессию на стороне сервиса.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.post(ctx, "/auth/v1/logout", accessToken, nil, nil)
}

func (c *Client) post(ctx context.Context, path, bearer string, in, out interface{}) error {
	var reqBody io.Reader = http.NoBody
	if in != nil {
		jsonBody, err := json.Marshal(in)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	respBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(respBytes)}
	}
	if out == nil || len(respBytes) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBytes, out); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}
	return nil
}

// APIError - ответ сервиса идентификации с кодом >= 400.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth service returned %d: %s", e.Status, e.Message)
}

// errorMessage достает текст ошибки: разные версии сервиса кладут его в разные поля.
func errorMessage(body []byte) string {
	var payload struct {
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, m := range []string{payload.ErrorDescription, payload.Msg, payload.Message, payload.Error} {
			if m != "" {
				return m
			}
		}
	}
	return strings.TrimSpace(string(body))
}
