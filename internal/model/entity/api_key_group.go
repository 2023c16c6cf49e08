package entity

type ApiKeyGroup struct {
	Id               string           `bson:"_id,omitempty"`               // ID
	Name             string           `bson:"name,omitempty"`              // 分组名称
	IsEnabled        bool             `bson:"is_enabled,omitempty"`        // 是否启用
	LbStrategy       string           `bson:"lb_strategy,omitempty"`       // 负载均衡策略[round_robin, weighted, least_connections]
	FailoverStrategy string           `bson:"failover_strategy,omitempty"` // 故障转移策略[failover, none]
	HealthStatus     string           `bson:"health_status,omitempty"`     // 健康状态
	RoundRobinIndex  int64            `bson:"round_robin_index,omitempty"` // 轮询游标
	Statistics       *GroupStatistics `bson:"statistics,omitempty"`        // 统计
	Remark           string           `bson:"remark,omitempty"`            // 备注
	Creator          string           `bson:"creator,omitempty"`           // 创建人
	Updater          string           `bson:"updater,omitempty"`           // 更新人
	CreatedAt        int64            `bson:"created_at,omitempty"`        // 创建时间
	UpdatedAt        int64            `bson:"updated_at,omitempty"`        // 更新时间
}

type GroupStatistics struct {
	TotalRequests      int64   `bson:"total_requests,omitempty"`      // 总请求数
	SuccessRequests    int64   `bson:"success_requests,omitempty"`    // 成功请求数
	FailedRequests     int64   `bson:"failed_requests,omitempty"`     // 失败请求数
	TotalResponseTime  int64   `bson:"total_response_time,omitempty"` // 总响应时间, 单位: 毫秒
	TotalCost          float64 `bson:"total_cost,omitempty"`          // 总花费
	LastUsedAt         int64   `bson:"last_used_at,omitempty"`        // 最后使用时间
	CurrentConnections int64   `bson:"current_connections,omitempty"` // 当前连接数
}

type ApiKeyGroupMapping struct {
	Id                  string `bson:"_id,omitempty"`                  // ID
	GroupId             string `bson:"group_id,omitempty"`             // 分组ID
	ApiKeyId            string `bson:"api_key_id,omitempty"`           // 密钥ID
	Weight              int    `bson:"weight,omitempty"`               // 权重
	Priority            int    `bson:"priority,omitempty"`             // 优先级
	IsPrimary           bool   `bson:"is_primary,omitempty"`           // 是否主密钥
	Order               int    `bson:"order,omitempty"`                // 排序
	HealthStatus        string `bson:"health_status,omitempty"`        // 健康状态
	ConsecutiveFailures int    `bson:"consecutive_failures,omitempty"` // 连续失败次数
	DisabledUntil       int64  `bson:"disabled_until,omitempty"`       // 暂停截止时间
	TotalRequests       int64  `bson:"total_requests,omitempty"`       // 总请求数
	SuccessRequests     int64  `bson:"success_requests,omitempty"`     // 成功请求数
	FailedRequests      int64  `bson:"failed_requests,omitempty"`      // 失败请求数
	TotalResponseTime   int64  `bson:"total_response_time,omitempty"`  // 总响应时间, 单位: 毫秒
	CurrentConnections  int64  `bson:"current_connections,omitempty"`  // 当前连接数
	LastUsedAt          int64  `bson:"last_used_at,omitempty"`         // 最后使用时间
	CreatedAt           int64  `bson:"created_at,omitempty"`           // 创建时间
	UpdatedAt           int64  `bson:"updated_at,omitempty"`           // 更新时间
}

type ApiKeyGroupEvent struct {
	Id                  string `bson:"_id,omitempty"`                  // ID
	GroupId             string `bson:"group_id,omitempty"`             // 分组ID
	ApiKeyId            string `bson:"api_key_id,omitempty"`           // 密钥ID
	Event               string `bson:"event,omitempty"`                // 事件[suspended, recovered, released]
	Reason              string `bson:"reason,omitempty"`               // 原因
	ConsecutiveFailures int    `bson:"consecutive_failures,omitempty"` // 连续失败次数
	DisabledUntil       int64  `bson:"disabled_until,omitempty"`       // 暂停截止时间
	CreatedAt           int64  `bson:"created_at,omitempty"`           // 创建时间
}
