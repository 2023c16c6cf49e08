package legacy

import "github.com/iimeta/fastrelay/internal/model"

const (
	priorityFactor   = 100.0
	usageFactor      = 0.5
	usagePenaltyCap  = 50.0
	rateLimitPenalty = 200.0
	rateLimitRatio   = 0.8
)

// Score 账号综合评分, 越低越优先
func Score(account *model.Account, now int64) float64 {

	score := float64(account.Priority) * priorityFactor

	score += min(float64(account.UsageCount)*usageFactor, usagePenaltyCap)

	if account.LastUsedAt <= 0 {
		return score
	}

	since := now - account.LastUsedAt

	switch {
	case since < 60_000:
		score += 100
	case since < 5*60_000:
		score += 50
	case since < 30*60_000:
		score += 20
	}

	// 接近账号自身限流窗口时降权
	if account.RateLimitDuration > 0 {
		ratio := (float64(since) / 1000) / float64(account.RateLimitDuration)
		if ratio < rateLimitRatio {
			score += rateLimitPenalty * (1 - ratio)
		}
	}

	return score
}

// pickLowest 评分最低的账号, 同分取靠前者
func pickLowest(accounts []*model.Account, now int64) *model.Account {

	var (
		best      *model.Account
		bestScore float64
	)

	for _, account := range accounts {
		if score := Score(account, now); best == nil || score < bestScore {
			best, bestScore = account, score
		}
	}

	return best
}
