package lb

import (
	"math/rand/v2"
)

// PickWeight 按权重随机挑选下标, 权重<=0视为0, 全部为0时退化为均匀随机
func PickWeight(weights []float64) int {
	return PickWeightAt(weights, rand.Float64())
}

// PickWeightAt r取值[0,1), 按累计权重定位下标
func PickWeightAt(weights []float64, r float64) int {

	if len(weights) == 0 {
		return -1
	}

	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}

	if total <= 0 {
		return int(r * float64(len(weights)))
	}

	target := r * total
	cumulative := 0.0

	for i, w := range weights {

		if w <= 0 {
			continue
		}

		cumulative += w
		if target < cumulative {
			return i
		}
	}

	// 浮点误差兜底
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}

	return len(weights) - 1
}

// PickRandom 均匀随机下标
func PickRandom(lens int) int {
	if lens <= 0 {
		return -1
	}
	return rand.IntN(lens)
}
