package affinity

import (
	"context"
	"time"

	"github.com/gogf/gf/v2/os/gtime"
	"github.com/iimeta/fastrelay/internal/config"
	"github.com/iimeta/fastrelay/internal/service"
	"github.com/iimeta/fastrelay/utility/cache"
	"github.com/iimeta/fastrelay/utility/logger"
)

type sAffinity struct {
	sessionCache *cache.Cache  // [会话哈希]*entry
	ttl          time.Duration // 绝对过期
	slidingTTL   time.Duration // 滑动过期
}

type entry struct {
	AccountId string
	CreatedAt int64
}

type Options struct {
	TTL        time.Duration
	SlidingTTL time.Duration
}

// New 未指定时使用配置的过期时间
func New(opts ...Options) service.IAffinity {

	s := &sAffinity{
		sessionCache: cache.New(),
		ttl:          config.Cfg.Router.AffinityTTL * time.Second,
		slidingTTL:   config.Cfg.Router.AffinitySlidingTTL * time.Second,
	}

	if len(opts) > 0 {
		if opts[0].TTL > 0 {
			s.ttl = opts[0].TTL
		}
		if opts[0].SlidingTTL > 0 {
			s.slidingTTL = opts[0].SlidingTTL
		}
	}

	if s.slidingTTL > s.ttl {
		s.slidingTTL = s.ttl
	}

	return s
}

// 获取会话粘性账号ID, 读取时续期, 续期不超过绝对过期
func (s *sAffinity) Get(ctx context.Context, sessionHash string) string {

	if sessionHash == "" {
		return ""
	}

	value := s.sessionCache.GetVal(ctx, sessionHash)
	if value == nil {
		return ""
	}

	e := value.(*entry)
	age := time.Duration(gtime.TimestampMilli()-e.CreatedAt) * time.Millisecond

	if age >= s.ttl {
		s.Delete(ctx, sessionHash)
		return ""
	}

	s.sessionCache.GetValAndExpire(ctx, sessionHash, min(s.slidingTTL, s.ttl-age))

	return e.AccountId
}

// 设置会话粘性账号
func (s *sAffinity) Set(ctx context.Context, sessionHash, accountId string) {

	if sessionHash == "" || accountId == "" {
		return
	}

	if err := s.sessionCache.Set(ctx, sessionHash, &entry{
		AccountId: accountId,
		CreatedAt: gtime.TimestampMilli(),
	}, s.slidingTTL); err != nil {
		logger.Error(ctx, err)
	}
}

// 删除会话粘性
func (s *sAffinity) Delete(ctx context.Context, sessionHash string) {
	if err := s.sessionCache.Remove(ctx, sessionHash); err != nil {
		logger.Error(ctx, err)
	}
}

// 删除指向账号的全部会话粘性
func (s *sAffinity) EvictAccount(ctx context.Context, accountId string) int {

	data, err := s.sessionCache.Data(ctx)
	if err != nil {
		logger.Error(ctx, err)
		return 0
	}

	keys := make([]any, 0)
	for key, value := range data {
		if e, ok := value.(*entry); ok && e.AccountId == accountId {
			keys = append(keys, key)
		}
	}

	if len(keys) > 0 {
		if err = s.sessionCache.Remove(ctx, keys...); err != nil {
			logger.Error(ctx, err)
		}
		logger.Infof(ctx, "sAffinity EvictAccount account: %s, sessions: %d", accountId, len(keys))
	}

	return len(keys)
}

// 会话粘性数量
func (s *sAffinity) Size(ctx context.Context) int {
	return s.sessionCache.Size(ctx)
}
