package model

import (
	"slices"

	"github.com/iimeta/fastrelay/internal/consts"
)

type ApiKeyAccountPoolPermission struct {
	Id                string       `json:"id,omitempty"`                  // ID
	ApiKeyId          string       `json:"api_key_id,omitempty"`          // 密钥ID
	PoolGroup         string       `json:"pool_group,omitempty"`          // 账号池分组
	AllowedPlatforms  []string     `json:"allowed_platforms,omitempty"`   // 允许平台
	AllowedAccountIds []string     `json:"allowed_account_ids,omitempty"` // 允许账号ID
	SelectionStrategy PoolStrategy `json:"selection_strategy"`            // 选择策略
	Priority          int          `json:"priority,omitempty"`            // 优先级
	IsEnabled         bool         `json:"is_enabled"`                    // 是否启用
	EffectiveFrom     int64        `json:"effective_from,omitempty"`      // 生效时间
	EffectiveTo       int64        `json:"effective_to,omitempty"`        // 失效时间
}

// IsEffective 启用且处于[EffectiveFrom, EffectiveTo)内, 0为不限
func (p *ApiKeyAccountPoolPermission) IsEffective(now int64) bool {

	if !p.IsEnabled {
		return false
	}

	if p.EffectiveFrom != 0 && now < p.EffectiveFrom {
		return false
	}

	return p.EffectiveTo == 0 || now < p.EffectiveTo
}

func (p *ApiKeyAccountPoolPermission) AllowsPlatform(platform string) bool {
	return slices.Contains(p.AllowedPlatforms, consts.PERMISSION_PLATFORM_ALL) || slices.Contains(p.AllowedPlatforms, platform)
}

// AllowsAccount 未限制账号ID时允许池内全部账号
func (p *ApiKeyAccountPoolPermission) AllowsAccount(accountId string) bool {
	return len(p.AllowedAccountIds) == 0 || slices.Contains(p.AllowedAccountIds, accountId)
}

// Covers 权限对账号生效
func (p *ApiKeyAccountPoolPermission) Covers(account *Account, platform string, now int64) bool {
	return p.IsEffective(now) && p.AllowsPlatform(platform) && account.PoolGroup == p.PoolGroup && p.AllowsAccount(account.Id)
}

func (p *ApiKeyAccountPoolPermission) Clone() *ApiKeyAccountPoolPermission {

	if p == nil {
		return nil
	}

	permission := *p
	permission.AllowedPlatforms = slices.Clone(p.AllowedPlatforms)
	permission.AllowedAccountIds = slices.Clone(p.AllowedAccountIds)

	return &permission
}

// PermissionIssue 权限配置问题
type PermissionIssue struct {
	PermissionId string   `json:"permission_id"`         // 权限ID
	PoolGroup    string   `json:"pool_group"`            // 账号池分组
	Problem      string   `json:"problem"`               // 问题[empty_pool, all_unavailable, account_outside_pool]
	AccountIds   []string `json:"account_ids,omitempty"` // 相关账号ID
}
