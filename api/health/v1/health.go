package v1

import (
	"github.com/gogf/gf/v2/frame/g"
)

// 健康接口请求参数
type HealthReq struct {
	g.Meta `path:"/health" tags:"health" method:"get" summary:"健康接口"`
}

// 健康接口响应参数
type HealthRes struct {
	g.Meta   `mime:"application/json" example:"json"`
	Status   string `json:"status"`   // 状态
	Store    string `json:"store"`    // 存储驱动
	Sessions int    `json:"sessions"` // 会话粘性数量
}
