package lb

import "sync/atomic"

// RoundRobin 无锁轮询游标, 同一游标并发时可能跳过或重复一个下标
type RoundRobin struct {
	cursor atomic.Int64
}

func NewRoundRobin(start ...int64) *RoundRobin {

	r := &RoundRobin{}

	if len(start) > 0 && start[0] > 0 {
		r.cursor.Store(start[0])
	}

	return r
}

// Index 返回本次下标, 游标按当前长度取模后前进
func (r *RoundRobin) Index(lens int) int {

	if lens <= 0 {
		return 0
	}

	for {

		current := r.cursor.Load()
		index := int(current % int64(lens))
		if index < 0 {
			index = 0
		}

		if r.cursor.CompareAndSwap(current, int64((index+1)%lens)) {
			return index
		}
	}
}

// Cursor 当前游标
func (r *RoundRobin) Cursor() int64 {
	return r.cursor.Load()
}
