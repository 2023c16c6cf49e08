package oauth_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gogf/gf/v2/encoding/gjson"
	"github.com/gogf/gf/v2/os/gmlock"
	"github.com/gogf/gf/v2/os/gtime"
	"github.com/gogf/gf/v2/test/gtest"
	"github.com/iimeta/fastrelay/internal/config"
	"github.com/iimeta/fastrelay/internal/consts"
	"github.com/iimeta/fastrelay/internal/errors"
	"github.com/iimeta/fastrelay/internal/logic/oauth"
	"github.com/iimeta/fastrelay/internal/logic/store"
	"github.com/iimeta/fastrelay/internal/model"
)

func tokenServer(status int, body map[string]any) (*httptest.Server, *atomic.Int32) {

	calls := new(atomic.Int32)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(gjson.MustEncode(body))
	}))

	return server, calls
}

func oauthAccount(id, platform string, expiresAt int64) *model.Account {
	return &model.Account{
		Id:        id,
		Platform:  platform,
		IsEnabled: true,
		Status:    consts.ACCOUNT_STATUS_ACTIVE,
		OAuth: &model.OAuthToken{
			AccessToken:  "old-access",
			RefreshToken: "old-refresh",
			ExpiresAt:    expiresAt,
		},
	}
}

func Test_ValidToken(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		server, calls := tokenServer(http.StatusOK, map[string]any{"access_token": "new-access", "expires_in": 3600})
		defer server.Close()
		config.Cfg.OAuth.ClaudeTokenUrl = server.URL

		s := store.NewMemory()
		account := oauthAccount("a", consts.PLATFORM_CLAUDE, gtime.TimestampMilli()+3600_000)
		s.PutAccount(account)

		token, err := oauth.New(s, false).GetValidAccessToken(context.Background(), account)
		t.AssertNil(err)
		t.Assert(token, "old-access")
		t.Assert(calls.Load(), 0)
	})
}

func Test_RefreshClaude(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		var received map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			_ = gjson.Unmarshal(body, &received)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(gjson.MustEncode(map[string]any{
				"access_token":  "new-access",
				"refresh_token": "new-refresh",
				"expires_in":    3600,
				"scope":         "user:inference user:profile",
			}))
		}))
		defer server.Close()
		config.Cfg.OAuth.ClaudeTokenUrl = server.URL

		ctx := context.Background()
		s := store.NewMemory()
		account := oauthAccount("a", consts.PLATFORM_CLAUDE, gtime.TimestampMilli()+30_000)
		s.PutAccount(account)

		token, err := oauth.New(s, false).GetValidAccessToken(ctx, account)
		t.AssertNil(err)
		t.Assert(token, "new-access")

		t.Assert(received["grant_type"], "refresh_token")
		t.Assert(received["refresh_token"], "old-refresh")
		t.Assert(received["client_id"], config.Cfg.OAuth.ClaudeClientId)

		saved, _ := s.GetAccount(ctx, "a")
		t.Assert(saved.OAuth.AccessToken, "new-access")
		t.Assert(saved.OAuth.RefreshToken, "new-refresh")
		t.Assert(saved.OAuth.ExpiresAt > gtime.TimestampMilli()+3500_000, true)
		t.Assert(saved.OAuth.Scopes, []string{"user:inference", "user:profile"})
	})
}

func Test_RefreshFailed(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		server, calls := tokenServer(http.StatusBadRequest, map[string]any{"error": "invalid_grant"})
		defer server.Close()
		config.Cfg.OAuth.ClaudeTokenUrl = server.URL

		ctx := context.Background()
		s := store.NewMemory()
		account := oauthAccount("a", consts.PLATFORM_CLAUDE, 0)
		s.PutAccount(account)

		token, err := oauth.New(s, false).GetValidAccessToken(ctx, account)
		t.AssertNil(err)
		t.Assert(token, "old-access")
		t.Assert(calls.Load(), 1)

		saved, _ := s.GetAccount(ctx, "a")
		t.Assert(saved.OAuth.AccessToken, "old-access")
	})
}

func Test_UnexpectedPayload(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		server, _ := tokenServer(http.StatusOK, map[string]any{"token": "x"})
		defer server.Close()
		config.Cfg.OAuth.ClaudeTokenUrl = server.URL

		s := store.NewMemory()
		account := oauthAccount("a", consts.PLATFORM_CLAUDE, 0)
		s.PutAccount(account)

		_, err := oauth.New(s, false).Refresh(context.Background(), account)
		t.AssertNE(err, nil)

		token, err := oauth.New(s, false).GetValidAccessToken(context.Background(), account)
		t.AssertNil(err)
		t.Assert(token, "old-access")
	})
}

func Test_RefreshLocked(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		server, calls := tokenServer(http.StatusOK, map[string]any{"access_token": "new-access", "expires_in": 3600})
		defer server.Close()
		config.Cfg.OAuth.ClaudeTokenUrl = server.URL

		s := store.NewMemory()
		account := oauthAccount("locked", consts.PLATFORM_CLAUDE, 0)
		s.PutAccount(account)

		key := fmt.Sprintf(consts.LOCK_OAUTH_REFRESH_KEY, account.Id)
		gmlock.Lock(key)
		defer gmlock.Unlock(key)

		token, err := oauth.New(s, false).GetValidAccessToken(context.Background(), account)
		t.AssertNil(err)
		t.Assert(token, "old-access")
		t.Assert(calls.Load(), 0)
	})
}

func Test_RefreshGemini(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		server, calls := tokenServer(http.StatusOK, map[string]any{
			"access_token": "gemini-access",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
		defer server.Close()
		config.Cfg.OAuth.GeminiTokenUrl = server.URL

		ctx := context.Background()
		s := store.NewMemory()
		account := oauthAccount("g", consts.PLATFORM_GEMINI, 1)
		s.PutAccount(account)

		token, err := oauth.New(s, false).GetValidAccessToken(ctx, account)
		t.AssertNil(err)
		t.Assert(token, "gemini-access")
		t.Assert(calls.Load() >= 1, true)

		saved, _ := s.GetAccount(ctx, "g")
		t.Assert(saved.OAuth.AccessToken, "gemini-access")
		t.Assert(saved.OAuth.RefreshToken, "old-refresh")
	})
}

func Test_ApiKeyAccount(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		ctx := context.Background()
		svc := oauth.New(store.NewMemory(), false)

		token, err := svc.GetValidAccessToken(ctx, &model.Account{Id: "c", Platform: consts.PLATFORM_CLAUDE_CONSOLE, ApiKey: "sk-console"})
		t.AssertNil(err)
		t.Assert(token, "sk-console")

		_, err = svc.GetValidAccessToken(ctx, &model.Account{Id: "e", Platform: consts.PLATFORM_OPENAI})
		t.Assert(errors.Is(err, errors.ERR_NO_CREDENTIAL), true)

		_, err = svc.GetValidAccessToken(ctx, nil)
		t.Assert(errors.Is(err, errors.ERR_NO_CREDENTIAL), true)
	})
}
