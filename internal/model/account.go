package model

import (
	"slices"
	"strings"

	"github.com/iimeta/fastrelay/internal/consts"
)

type Account struct {
	Id                string      `json:"id,omitempty"`                  // ID
	Name              string      `json:"name,omitempty"`                // 名称
	Platform          string      `json:"platform,omitempty"`            // 平台
	PoolGroup         string      `json:"pool_group,omitempty"`          // 账号池分组
	Priority          int         `json:"priority,omitempty"`            // 优先级, 越小越优先
	Weight            int         `json:"weight,omitempty"`              // 权重
	IsEnabled         bool        `json:"is_enabled"`                    // 是否启用
	Status            string      `json:"status,omitempty"`              // 状态
	RateLimitedUntil  int64       `json:"rate_limited_until,omitempty"`  // 限流截止时间
	RateLimitDuration int64       `json:"rate_limit_duration,omitempty"` // 限流窗口, 单位: 秒
	UsageCount        int64       `json:"usage_count,omitempty"`         // 使用次数
	LastUsedAt        int64       `json:"last_used_at,omitempty"`        // 最后使用时间
	SupportedModels   []string    `json:"supported_models,omitempty"`    // 支持模型
	OAuth             *OAuthToken `json:"-"`                             // OAuth凭证
	ApiKey            string      `json:"-"`                             // 密钥
	BaseUrl           string      `json:"base_url,omitempty"`            // 接口地址
	ProxyUrl          string      `json:"proxy_url,omitempty"`           // 代理地址
}

type OAuthToken struct {
	AccessToken  string   `json:"access_token,omitempty"`  // 访问令牌
	RefreshToken string   `json:"refresh_token,omitempty"` // 刷新令牌
	ExpiresAt    int64    `json:"expires_at,omitempty"`    // 过期时间
	Scopes       []string `json:"scopes,omitempty"`        // 授权范围
}

// 账号查询条件
type AccountQuery struct {
	Ids         []string // 账号ID
	Platforms   []string // 平台
	PoolGroup   string   // 账号池分组
	OnlyEnabled bool     // 仅启用
}

// IsAvailable 启用, 状态正常, 且未限流或限流已过期
func (a *Account) IsAvailable(now int64) bool {

	if a == nil || !a.IsEnabled || a.Status != consts.ACCOUNT_STATUS_ACTIVE {
		return false
	}

	return a.RateLimitedUntil == 0 || a.RateLimitedUntil < now
}

// SupportsModel 未配置支持模型视为支持全部
func (a *Account) SupportsModel(model string) bool {

	if model == "" || len(a.SupportedModels) == 0 {
		return true
	}

	_, ok := a.matchModel(model)

	return ok
}

// MapModel 返回映射后的上游模型, 未配置映射返回原模型
func (a *Account) MapModel(model string) string {

	if to, ok := a.matchModel(model); ok && to != "" {
		return to
	}

	return model
}

func (a *Account) matchModel(model string) (string, bool) {

	for _, entry := range a.SupportedModels {

		from, to, _ := strings.Cut(entry, ":")

		if strings.EqualFold(strings.TrimSpace(from), model) {
			return strings.TrimSpace(to), true
		}
	}

	return "", false
}

func (a *Account) IsOAuth() bool {
	return a.OAuth != nil && (a.OAuth.AccessToken != "" || a.OAuth.RefreshToken != "")
}

func (a *Account) Clone() *Account {

	if a == nil {
		return nil
	}

	account := *a
	account.SupportedModels = slices.Clone(a.SupportedModels)

	if a.OAuth != nil {
		oauth := *a.OAuth
		oauth.Scopes = slices.Clone(a.OAuth.Scopes)
		account.OAuth = &oauth
	}

	return &account
}
