package model

type ApiKeyGroup struct {
	Id               string           `json:"id,omitempty"`                // ID
	Name             string           `json:"name,omitempty"`              // 分组名称
	IsEnabled        bool             `json:"is_enabled"`                  // 是否启用
	LbStrategy       GroupStrategy    `json:"lb_strategy"`                 // 负载均衡策略
	FailoverStrategy FailoverStrategy `json:"failover_strategy"`           // 故障转移策略
	HealthStatus     string           `json:"health_status,omitempty"`     // 健康状态
	RoundRobinIndex  int64            `json:"round_robin_index,omitempty"` // 轮询游标
	Statistics       GroupStatistics  `json:"statistics"`                  // 统计
}

type GroupStatistics struct {
	TotalRequests      int64   `json:"total_requests,omitempty"`      // 总请求数
	SuccessRequests    int64   `json:"success_requests,omitempty"`    // 成功请求数
	FailedRequests     int64   `json:"failed_requests,omitempty"`     // 失败请求数
	TotalResponseTime  int64   `json:"total_response_time,omitempty"` // 总响应时间, 单位: 毫秒
	TotalCost          float64 `json:"total_cost,omitempty"`          // 总花费
	LastUsedAt         int64   `json:"last_used_at,omitempty"`        // 最后使用时间
	CurrentConnections int64   `json:"current_connections,omitempty"` // 当前连接数
}

// AverageResponseTime 平均响应时间, 单位: 毫秒
func (s GroupStatistics) AverageResponseTime() float64 {

	if s.SuccessRequests == 0 {
		return 0
	}

	return float64(s.TotalResponseTime) / float64(s.SuccessRequests)
}

type ApiKeyGroupMapping struct {
	Id                  string  `json:"id,omitempty"`                   // ID
	GroupId             string  `json:"group_id,omitempty"`             // 分组ID
	ApiKeyId            string  `json:"api_key_id,omitempty"`           // 密钥ID
	ApiKey              *ApiKey `json:"api_key,omitempty"`              // 成员密钥
	Weight              int     `json:"weight,omitempty"`               // 权重
	Priority            int     `json:"priority,omitempty"`             // 优先级
	IsPrimary           bool    `json:"is_primary"`                     // 是否主密钥
	Order               int     `json:"order,omitempty"`                // 排序
	HealthStatus        string  `json:"health_status,omitempty"`        // 健康状态
	ConsecutiveFailures int     `json:"consecutive_failures,omitempty"` // 连续失败次数
	DisabledUntil       int64   `json:"disabled_until,omitempty"`       // 暂停截止时间
	TotalRequests       int64   `json:"total_requests,omitempty"`       // 总请求数
	SuccessRequests     int64   `json:"success_requests,omitempty"`     // 成功请求数
	FailedRequests      int64   `json:"failed_requests,omitempty"`      // 失败请求数
	TotalResponseTime   int64   `json:"total_response_time,omitempty"`  // 总响应时间, 单位: 毫秒
	CurrentConnections  int64   `json:"current_connections,omitempty"`  // 当前连接数
	LastUsedAt          int64   `json:"last_used_at,omitempty"`         // 最后使用时间
}

// HealthPolicy 成员健康判定阈值
type HealthPolicy struct {
	FailureThreshold  int     // 连续失败暂停阈值
	FailureCeiling    int     // 连续失败上限
	SuspendDuration   int64   // 暂停时长, 单位: 毫秒
	MinSuccessRate    float64 // 最低成功率
	MinSampleRequests int64   // 成功率生效的最少请求数
}

// IsAvailable 成员可参与选择
func (m *ApiKeyGroupMapping) IsAvailable(now int64, policy *HealthPolicy) bool {

	if m == nil || !m.ApiKey.IsValid(now) {
		return false
	}

	if m.IsSuspended(now) {
		return false
	}

	if m.ConsecutiveFailures >= policy.FailureCeiling {
		return false
	}

	if m.TotalRequests > policy.MinSampleRequests && m.SuccessRate() < policy.MinSuccessRate {
		return false
	}

	return true
}

func (m *ApiKeyGroupMapping) IsSuspended(now int64) bool {
	return m.DisabledUntil != 0 && m.DisabledUntil >= now
}

// SuccessRate 无请求记录视为1
func (m *ApiKeyGroupMapping) SuccessRate() float64 {

	if m.TotalRequests == 0 {
		return 1
	}

	return float64(m.SuccessRequests) / float64(m.TotalRequests)
}

// WeightScore max(weight,1) * (0.5 + 0.5*successRate), 对权重与成功率均单调递增
func (m *ApiKeyGroupMapping) WeightScore() float64 {
	return float64(max(m.Weight, 1)) * (0.5 + 0.5*m.SuccessRate())
}

func (m *ApiKeyGroupMapping) Clone() *ApiKeyGroupMapping {

	if m == nil {
		return nil
	}

	mapping := *m
	mapping.ApiKey = m.ApiKey.Clone()

	return &mapping
}

type ApiKeyGroupEvent struct {
	Id                  string `json:"id,omitempty"`                   // ID
	GroupId             string `json:"group_id,omitempty"`             // 分组ID
	ApiKeyId            string `json:"api_key_id,omitempty"`           // 密钥ID
	Event               string `json:"event,omitempty"`                // 事件
	Reason              string `json:"reason,omitempty"`               // 原因
	ConsecutiveFailures int    `json:"consecutive_failures,omitempty"` // 连续失败次数
	DisabledUntil       int64  `json:"disabled_until,omitempty"`       // 暂停截止时间
	CreatedAt           int64  `json:"created_at,omitempty"`           // 创建时间
}

// MappingFailure 失败记录后的成员状态
type MappingFailure struct {
	Mapping   *ApiKeyGroupMapping
	Suspended bool // 本次失败触发了暂停
}
