package model

import (
	"slices"

	"github.com/iimeta/fastrelay/internal/consts"
)

type ApiKey struct {
	Id                     string   `json:"id,omitempty"`                        // ID
	Name                   string   `json:"name,omitempty"`                      // 名称
	IsEnabled              bool     `json:"is_enabled"`                          // 是否启用
	Service                string   `json:"service,omitempty"`                   // 服务
	ClaudeAccountId        string   `json:"claude_account_id,omitempty"`         // 绑定Claude账号ID
	ClaudeConsoleAccountId string   `json:"claude_console_account_id,omitempty"` // 绑定Claude Console账号ID
	GeminiAccountId        string   `json:"gemini_account_id,omitempty"`         // 绑定Gemini账号ID
	IsGroupManaged         bool     `json:"is_group_managed"`                    // 是否分组管理
	GroupIds               []string `json:"group_ids,omitempty"`                 // 分组ID
	ExpiresAt              int64    `json:"expires_at,omitempty"`                // 过期时间
}

// GetService 未指定服务的密钥按claude处理
func (k *ApiKey) GetService() string {

	if k.Service == "" {
		return consts.SERVICE_CLAUDE
	}

	return k.Service
}

// Platforms 密钥服务可用的账号平台
func (k *ApiKey) Platforms() []string {
	return consts.ServicePlatforms[k.GetService()]
}

func (k *ApiKey) AllowsPlatform(platform string) bool {
	return slices.Contains(k.Platforms(), platform)
}

// BindingIds 按绑定优先级返回固定绑定账号ID
func (k *ApiKey) BindingIds() []string {

	ids := make([]string, 0, 2)

	switch k.GetService() {
	case consts.SERVICE_CLAUDE:
		if k.ClaudeAccountId != "" {
			ids = append(ids, k.ClaudeAccountId)
		}
		if k.ClaudeConsoleAccountId != "" {
			ids = append(ids, k.ClaudeConsoleAccountId)
		}
	case consts.SERVICE_GEMINI:
		if k.GeminiAccountId != "" {
			ids = append(ids, k.GeminiAccountId)
		}
	}

	return ids
}

// IsValid 启用且未过期
func (k *ApiKey) IsValid(now int64) bool {
	return k != nil && k.IsEnabled && (k.ExpiresAt == 0 || k.ExpiresAt > now)
}

func (k *ApiKey) HasGroups() bool {
	return k.IsGroupManaged && len(k.GroupIds) > 0
}

func (k *ApiKey) Clone() *ApiKey {

	if k == nil {
		return nil
	}

	key := *k
	key.GroupIds = slices.Clone(k.GroupIds)

	return &key
}
