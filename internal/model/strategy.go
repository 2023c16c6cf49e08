package model

import "github.com/iimeta/fastrelay/internal/consts"

// GroupStrategy 分组负载均衡策略
type GroupStrategy int

const (
	GroupRoundRobin GroupStrategy = iota
	GroupWeighted
	GroupLeastConnections
)

// ParseGroupStrategy 未知策略按轮询处理
func ParseGroupStrategy(s string) GroupStrategy {
	switch s {
	case consts.LB_STRATEGY_WEIGHTED:
		return GroupWeighted
	case consts.LB_STRATEGY_LEAST_CONNECTIONS:
		return GroupLeastConnections
	default:
		return GroupRoundRobin
	}
}

func (s GroupStrategy) String() string {
	switch s {
	case GroupWeighted:
		return consts.LB_STRATEGY_WEIGHTED
	case GroupLeastConnections:
		return consts.LB_STRATEGY_LEAST_CONNECTIONS
	default:
		return consts.LB_STRATEGY_ROUND_ROBIN
	}
}

// FailoverStrategy 分组故障转移策略
type FailoverStrategy int

const (
	FailoverNext FailoverStrategy = iota
	FailoverNone
)

func ParseFailoverStrategy(s string) FailoverStrategy {
	if s == consts.FAILOVER_STRATEGY_NONE {
		return FailoverNone
	}
	return FailoverNext
}

func (s FailoverStrategy) String() string {
	if s == FailoverNone {
		return consts.FAILOVER_STRATEGY_NONE
	}
	return consts.FAILOVER_STRATEGY_FAILOVER
}

// PoolStrategy 账号池选择策略
type PoolStrategy int

const (
	PoolPriority PoolStrategy = iota
	PoolRoundRobin
	PoolRandom
	PoolPerformance
	PoolLeastUsed
	PoolWeighted
	PoolConsistentHash
)

// ParsePoolStrategy 未知策略按优先级处理
func ParsePoolStrategy(s string) PoolStrategy {
	switch s {
	case consts.POOL_STRATEGY_ROUND_ROBIN:
		return PoolRoundRobin
	case consts.POOL_STRATEGY_RANDOM:
		return PoolRandom
	case consts.POOL_STRATEGY_PERFORMANCE:
		return PoolPerformance
	case consts.POOL_STRATEGY_LEAST_USED:
		return PoolLeastUsed
	case consts.POOL_STRATEGY_WEIGHTED:
		return PoolWeighted
	case consts.POOL_STRATEGY_CONSISTENT_HASH:
		return PoolConsistentHash
	default:
		return PoolPriority
	}
}

func (s PoolStrategy) String() string {
	switch s {
	case PoolRoundRobin:
		return consts.POOL_STRATEGY_ROUND_ROBIN
	case PoolRandom:
		return consts.POOL_STRATEGY_RANDOM
	case PoolPerformance:
		return consts.POOL_STRATEGY_PERFORMANCE
	case PoolLeastUsed:
		return consts.POOL_STRATEGY_LEAST_USED
	case PoolWeighted:
		return consts.POOL_STRATEGY_WEIGHTED
	case PoolConsistentHash:
		return consts.POOL_STRATEGY_CONSISTENT_HASH
	default:
		return consts.POOL_STRATEGY_PRIORITY
	}
}
