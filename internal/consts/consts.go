package consts

const (
	PLATFORM_CLAUDE         = "claude"
	PLATFORM_CLAUDE_CONSOLE = "claude-console"
	PLATFORM_GEMINI         = "gemini"
	PLATFORM_OPENAI         = "openai"
	PLATFORM_THOR           = "thor"
)

const (
	SERVICE_CLAUDE = "claude"
	SERVICE_GEMINI = "gemini"
	SERVICE_OPENAI = "openai"
	SERVICE_THOR   = "thor"
)

// ServicePlatforms 服务可路由到的账号平台
var ServicePlatforms = map[string][]string{
	SERVICE_CLAUDE: {PLATFORM_CLAUDE, PLATFORM_CLAUDE_CONSOLE},
	SERVICE_GEMINI: {PLATFORM_GEMINI},
	SERVICE_OPENAI: {PLATFORM_OPENAI},
	SERVICE_THOR:   {PLATFORM_THOR},
}

const (
	ACCOUNT_STATUS_ACTIVE       = "active"
	ACCOUNT_STATUS_RATE_LIMITED = "rate_limited"
	ACCOUNT_STATUS_ERROR        = "error"
)

const (
	HEALTH_STATUS_HEALTHY   = "healthy"
	HEALTH_STATUS_UNHEALTHY = "unhealthy"
	HEALTH_STATUS_UNKNOWN   = "unknown"
)

const (
	LB_STRATEGY_ROUND_ROBIN       = "round_robin"
	LB_STRATEGY_WEIGHTED          = "weighted"
	LB_STRATEGY_LEAST_CONNECTIONS = "least_connections"

	FAILOVER_STRATEGY_FAILOVER = "failover"
	FAILOVER_STRATEGY_NONE     = "none"
)

const (
	POOL_STRATEGY_PRIORITY        = "priority"
	POOL_STRATEGY_ROUND_ROBIN     = "round_robin"
	POOL_STRATEGY_RANDOM          = "random"
	POOL_STRATEGY_PERFORMANCE     = "performance"
	POOL_STRATEGY_LEAST_USED      = "least_used"
	POOL_STRATEGY_WEIGHTED        = "weighted"
	POOL_STRATEGY_CONSISTENT_HASH = "consistent_hash"

	PERMISSION_PLATFORM_ALL = "all"
)

const (
	GROUP_EVENT_SUSPENDED = "suspended"
	GROUP_EVENT_RECOVERED = "recovered"
	GROUP_EVENT_RELEASED  = "released"
)

const (
	STORE_DRIVER_MONGODB = "mongodb"
	STORE_DRIVER_MEMORY  = "memory"
)

const (
	SELECTION_SOURCE_LEGACY_BINDING = "legacy_binding"
	SELECTION_SOURCE_AFFINITY       = "affinity"
	SELECTION_SOURCE_LEGACY_SCORE   = "legacy_score"
	SELECTION_SOURCE_GROUP          = "group"
	SELECTION_SOURCE_POOL           = "pool"
)

const (
	PERMISSION_ISSUE_EMPTY_POOL           = "empty_pool"
	PERMISSION_ISSUE_ALL_UNAVAILABLE      = "all_unavailable"
	PERMISSION_ISSUE_ACCOUNT_OUTSIDE_POOL = "account_outside_pool"
)
