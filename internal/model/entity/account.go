package entity

type Account struct {
	Id                string      `bson:"_id,omitempty"`                 // ID
	Name              string      `bson:"name,omitempty"`                // 名称
	Platform          string      `bson:"platform,omitempty"`            // 平台[claude, claude-console, gemini, openai, thor]
	PoolGroup         string      `bson:"pool_group,omitempty"`          // 账号池分组
	Priority          int         `bson:"priority,omitempty"`            // 优先级, 越小越优先
	Weight            int         `bson:"weight,omitempty"`              // 权重
	IsEnabled         bool        `bson:"is_enabled,omitempty"`          // 是否启用
	Status            string      `bson:"status,omitempty"`              // 状态[active, rate_limited, error]
	RateLimitedUntil  int64       `bson:"rate_limited_until,omitempty"`  // 限流截止时间
	RateLimitDuration int64       `bson:"rate_limit_duration,omitempty"` // 限流窗口, 单位: 秒
	UsageCount        int64       `bson:"usage_count,omitempty"`         // 使用次数
	LastUsedAt        int64       `bson:"last_used_at,omitempty"`        // 最后使用时间
	SupportedModels   []string    `bson:"supported_models,omitempty"`    // 支持模型, 格式 from:to 或 模型名
	OAuth             *OAuthToken `bson:"oauth,omitempty"`               // OAuth凭证
	ApiKey            string      `bson:"api_key,omitempty"`             // 密钥
	BaseUrl           string      `bson:"base_url,omitempty"`            // 接口地址
	ProxyUrl          string      `bson:"proxy_url,omitempty"`           // 代理地址
	Remark            string      `bson:"remark,omitempty"`              // 备注
	Creator           string      `bson:"creator,omitempty"`             // 创建人
	Updater           string      `bson:"updater,omitempty"`             // 更新人
	CreatedAt         int64       `bson:"created_at,omitempty"`          // 创建时间
	UpdatedAt         int64       `bson:"updated_at,omitempty"`          // 更新时间
}

type OAuthToken struct {
	AccessToken  string   `bson:"access_token,omitempty"`  // 访问令牌
	RefreshToken string   `bson:"refresh_token,omitempty"` // 刷新令牌
	ExpiresAt    int64    `bson:"expires_at,omitempty"`    // 过期时间
	Scopes       []string `bson:"scopes,omitempty"`        // 授权范围
}
