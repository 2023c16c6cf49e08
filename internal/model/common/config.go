package common

import "time"

type Store struct {
	Driver string `json:"driver"` // 存储驱动[mongodb, memory]
}

type Core struct {
	ChannelPrefix string `json:"channel_prefix"` // 通道前缀
}

type Http struct {
	Timeout  time.Duration `json:"timeout"`   // 超时时间, 单位: 秒
	ProxyUrl string        `json:"proxy_url"` // 代理地址
}

type Router struct {
	AffinityTTL        time.Duration `json:"affinity_ttl"`         // 会话粘性绝对过期, 单位: 秒
	AffinitySlidingTTL time.Duration `json:"affinity_sliding_ttl"` // 会话粘性滑动过期, 单位: 秒
	PoolSessionCap     int           `json:"pool_session_cap"`     // 账号池会话映射容量
	PoolSessionTTL     time.Duration `json:"pool_session_ttl"`     // 账号池会话映射过期, 单位: 秒
	PermissionCacheTTL time.Duration `json:"permission_cache_ttl"` // 账号池权限缓存, 单位: 秒, 0不缓存
	GroupCacheTTL      time.Duration `json:"group_cache_ttl"`      // 分组缓存, 单位: 秒, 0不缓存
	FailureThreshold   int           `json:"failure_threshold"`    // 连续失败暂停阈值
	FailureCeiling     int           `json:"failure_ceiling"`      // 连续失败上限, 达到后需人工恢复
	SuspendSeconds     time.Duration `json:"suspend_seconds"`      // 暂停时长, 单位: 秒
	MinSuccessRate     float64       `json:"min_success_rate"`     // 最低成功率
	MinSampleRequests  int64         `json:"min_sample_requests"`  // 成功率生效的最少请求数
}

type OAuth struct {
	ClaudeTokenUrl     string        `json:"claude_token_url"`     // Claude令牌地址
	ClaudeClientId     string        `json:"claude_client_id"`     // Claude客户端ID
	GeminiTokenUrl     string        `json:"gemini_token_url"`     // Gemini令牌地址, 为空使用Google默认
	GeminiClientId     string        `json:"gemini_client_id"`     // Gemini客户端ID
	GeminiClientSecret string        `json:"gemini_client_secret"` // Gemini客户端密钥
	RefreshWindow      time.Duration `json:"refresh_window"`       // 提前刷新窗口, 单位: 秒
	LockTTL            time.Duration `json:"lock_ttl"`             // 刷新锁过期, 单位: 秒
}

type Health struct {
	Open bool   `json:"open"` // 开关
	Cron string `json:"cron"` // CRON表达式
}
