package entity

type ApiKeyAccountPoolPermission struct {
	Id                string   `bson:"_id,omitempty"`                 // ID
	ApiKeyId          string   `bson:"api_key_id,omitempty"`          // 密钥ID
	PoolGroup         string   `bson:"pool_group,omitempty"`          // 账号池分组
	AllowedPlatforms  []string `bson:"allowed_platforms,omitempty"`   // 允许平台, all为全部
	AllowedAccountIds []string `bson:"allowed_account_ids,omitempty"` // 允许账号ID, 为空不限制
	SelectionStrategy string   `bson:"selection_strategy,omitempty"`  // 选择策略
	Priority          int      `bson:"priority,omitempty"`            // 优先级
	IsEnabled         bool     `bson:"is_enabled,omitempty"`          // 是否启用
	EffectiveFrom     int64    `bson:"effective_from,omitempty"`      // 生效时间
	EffectiveTo       int64    `bson:"effective_to,omitempty"`        // 失效时间
	Creator           string   `bson:"creator,omitempty"`             // 创建人
	Updater           string   `bson:"updater,omitempty"`             // 更新人
	CreatedAt         int64    `bson:"created_at,omitempty"`          // 创建时间
	UpdatedAt         int64    `bson:"updated_at,omitempty"`          // 更新时间
}
