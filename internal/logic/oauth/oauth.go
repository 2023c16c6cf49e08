package oauth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gogf/gf/v2/errors/gerror"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/os/gtime"
	"github.com/iimeta/fastrelay/internal/config"
	"github.com/iimeta/fastrelay/internal/consts"
	"github.com/iimeta/fastrelay/internal/errors"
	"github.com/iimeta/fastrelay/internal/model"
	"github.com/iimeta/fastrelay/internal/service"
	"github.com/iimeta/fastrelay/utility/crypto"
	"github.com/iimeta/fastrelay/utility/logger"
	"github.com/iimeta/fastrelay/utility/util"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var errRefreshing = gerror.New("oauth token is being refreshed")

type sOAuth struct {
	store  service.IStore
	locker locker
}

// New 配置了Redis时使用分布式刷新锁
func New(store service.IStore, useRedis bool) service.IOAuth {

	s := &sOAuth{
		store:  store,
		locker: localLocker{},
	}

	if useRedis {
		s.locker = redisLocker{}
	}

	return s
}

// 获取可用凭证, OAuth账号临近过期时刷新, 刷新失败返回当前令牌
func (s *sOAuth) GetValidAccessToken(ctx context.Context, account *model.Account) (string, error) {

	now := gtime.TimestampMilli()
	defer func() {
		logger.Debugf(ctx, "sOAuth GetValidAccessToken time: %d", gtime.TimestampMilli()-now)
	}()

	if account == nil {
		return "", errors.ERR_NO_CREDENTIAL
	}

	if !account.IsOAuth() {

		if account.ApiKey == "" {
			logger.Errorf(ctx, "sOAuth GetValidAccessToken account: %s has no credential", account.Id)
			return "", errors.ERR_NO_CREDENTIAL
		}

		return account.ApiKey, nil
	}

	held := account.OAuth.AccessToken

	if !needsRefresh(account.OAuth, now) || account.OAuth.RefreshToken == "" || !refreshable(account.Platform) {
		return s.held(ctx, account, held)
	}

	token, err := s.Refresh(ctx, account)
	if err != nil {

		if gerror.Is(err, errRefreshing) {
			logger.Infof(ctx, "sOAuth GetValidAccessToken account: %s refreshing elsewhere, use held token: %s", account.Id, crypto.Fingerprint(held))
		} else {
			logger.Warningf(ctx, "sOAuth GetValidAccessToken account: %s refresh failed, use held token: %s, error: %v", account.Id, crypto.Fingerprint(held), err)
		}

		return s.held(ctx, account, held)
	}

	return token.AccessToken, nil
}

func (s *sOAuth) held(ctx context.Context, account *model.Account, token string) (string, error) {

	if token == "" {
		logger.Errorf(ctx, "sOAuth GetValidAccessToken account: %s has no access token", account.Id)
		return "", errors.ERR_NO_CREDENTIAL
	}

	return token, nil
}

// 过期时间未知或在刷新窗口内
func needsRefresh(token *model.OAuthToken, now int64) bool {
	return token.ExpiresAt == 0 || token.ExpiresAt-now <= (config.Cfg.OAuth.RefreshWindow*time.Second).Milliseconds()
}

func refreshable(platform string) bool {
	return platform == consts.PLATFORM_CLAUDE || platform == consts.PLATFORM_GEMINI
}

// 刷新令牌并保存, 同一账号并发刷新时只有一个生效
func (s *sOAuth) Refresh(ctx context.Context, account *model.Account) (*model.OAuthToken, error) {

	now := gtime.TimestampMilli()
	defer func() {
		logger.Debugf(ctx, "sOAuth Refresh time: %d", gtime.TimestampMilli()-now)
	}()

	if account.OAuth == nil || account.OAuth.RefreshToken == "" {
		return nil, gerror.Newf("account %s has no refresh token", account.Id)
	}

	unlock, ok := s.locker.TryLock(ctx, fmt.Sprintf(consts.LOCK_OAUTH_REFRESH_KEY, account.Id))
	if !ok {
		return nil, errRefreshing
	}
	defer unlock()

	// 获取锁后复查, 其他请求可能已完成刷新
	latest, err := s.store.GetAccount(ctx, account.Id)
	if err != nil {
		return nil, err
	}

	if latest != nil && latest.OAuth != nil && latest.OAuth.AccessToken != "" && !needsRefresh(latest.OAuth, gtime.TimestampMilli()) {
		return latest.OAuth, nil
	}

	refreshToken := account.OAuth.RefreshToken
	if latest != nil && latest.OAuth != nil && latest.OAuth.RefreshToken != "" {
		refreshToken = latest.OAuth.RefreshToken
	}

	var token *model.OAuthToken

	switch account.Platform {
	case consts.PLATFORM_CLAUDE:
		token, err = s.refreshClaude(ctx, refreshToken, account.ProxyUrl)
	case consts.PLATFORM_GEMINI:
		token, err = s.refreshGemini(ctx, refreshToken, account.ProxyUrl)
	default:
		err = gerror.Newf("platform %s does not support oauth refresh", account.Platform)
	}

	if err != nil {
		return nil, err
	}

	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}

	if err = s.store.SaveAccountToken(ctx, account.Id, token); err != nil {
		logger.Error(ctx, err)
		return nil, err
	}

	logger.Infof(ctx, "sOAuth Refresh account: %s, token: %s, expiresAt: %d", account.Id, crypto.Fingerprint(token.AccessToken), token.ExpiresAt)

	return token, nil
}

type claudeTokenReq struct {
	GrantType    string `json:"grant_type"`
	RefreshToken string `json:"refresh_token"`
	ClientId     string `json:"client_id"`
}

type claudeTokenRes struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
}

func (s *sOAuth) refreshClaude(ctx context.Context, refreshToken, proxyUrl string) (*model.OAuthToken, error) {

	header := map[string]string{
		"Accept": "application/json",
	}

	data := &claudeTokenReq{
		GrantType:    "refresh_token",
		RefreshToken: refreshToken,
		ClientId:     config.Cfg.OAuth.ClaudeClientId,
	}

	res := new(claudeTokenRes)
	if err := util.HttpPostJson(ctx, config.Cfg.OAuth.ClaudeTokenUrl, header, data, res, proxyUrl); err != nil {
		return nil, err
	}

	if res.AccessToken == "" || res.ExpiresIn <= 0 {
		return nil, gerror.New("unexpected claude token response")
	}

	return &model.OAuthToken{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    gtime.TimestampMilli() + res.ExpiresIn*1000,
		Scopes:       strings.Fields(res.Scope),
	}, nil
}

func (s *sOAuth) refreshGemini(ctx context.Context, refreshToken, proxyUrl string) (*model.OAuthToken, error) {

	conf := &oauth2.Config{
		ClientID:     config.Cfg.OAuth.GeminiClientId,
		ClientSecret: config.Cfg.OAuth.GeminiClientSecret,
		Endpoint:     google.Endpoint,
	}

	if config.Cfg.OAuth.GeminiTokenUrl != "" {
		conf.Endpoint.TokenURL = config.Cfg.OAuth.GeminiTokenUrl
	}

	client := g.Client().Timeout(config.Cfg.Http.Timeout * time.Second)

	if proxyUrl != "" {
		client.SetProxy(proxyUrl)
	} else if config.Cfg.Http.ProxyUrl != "" {
		client.SetProxy(config.Cfg.Http.ProxyUrl)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, &client.Client)

	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, err
	}

	if token.AccessToken == "" {
		return nil, gerror.New("unexpected gemini token response")
	}

	result := &model.OAuthToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}

	if !token.Expiry.IsZero() {
		result.ExpiresAt = token.Expiry.UnixMilli()
	}

	if scope, ok := token.Extra("scope").(string); ok {
		result.Scopes = strings.Fields(scope)
	}

	return result, nil
}
