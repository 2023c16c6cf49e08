package entity

type ApiKey struct {
	Id                     string   `bson:"_id,omitempty"`                       // ID
	Name                   string   `bson:"name,omitempty"`                      // 名称
	IsEnabled              bool     `bson:"is_enabled,omitempty"`                // 是否启用
	Service                string   `bson:"service,omitempty"`                   // 服务[claude, gemini, openai, thor]
	ClaudeAccountId        string   `bson:"claude_account_id,omitempty"`         // 绑定Claude账号ID
	ClaudeConsoleAccountId string   `bson:"claude_console_account_id,omitempty"` // 绑定Claude Console账号ID
	GeminiAccountId        string   `bson:"gemini_account_id,omitempty"`         // 绑定Gemini账号ID
	IsGroupManaged         bool     `bson:"is_group_managed,omitempty"`          // 是否分组管理
	GroupIds               []string `bson:"group_ids,omitempty"`                 // 分组ID
	ExpiresAt              int64    `bson:"expires_at,omitempty"`                // 过期时间
	Remark                 string   `bson:"remark,omitempty"`                    // 备注
	Creator                string   `bson:"creator,omitempty"`                   // 创建人
	Updater                string   `bson:"updater,omitempty"`                   // 更新人
	CreatedAt              int64    `bson:"created_at,omitempty"`                // 创建时间
	UpdatedAt              int64    `bson:"updated_at,omitempty"`                // 更新时间
}
