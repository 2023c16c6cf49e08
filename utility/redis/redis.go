package redis

import (
	"context"
	"time"

	_ "github.com/gogf/gf/contrib/nosql/redis/v2"
	"github.com/gogf/gf/v2/database/gredis"
	"github.com/gogf/gf/v2/errors/gerror"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/os/gcfg"
	"github.com/gogf/gf/v2/text/gstr"
	"github.com/iimeta/fastrelay/internal/config"
	"github.com/iimeta/fastrelay/utility/logger"
	"github.com/redis/go-redis/v9"
)

var (
	UniversalClient redis.UniversalClient
	slave           *gredis.Redis
)

// 持有者一致才删除
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Init 按配置连接Redis, 未配置redis时返回false
func Init(ctx context.Context) (bool, error) {

	value, err := gcfg.Instance().Get(ctx, "redis")
	if err != nil {
		return false, err
	}

	if value == nil || value.IsEmpty() {
		return false, nil
	}

	redisConfig := value.MapStrVar()

	if def := redisConfig[gredis.DefaultGroupName]; def != nil {
		if err = gredis.SetConfigByMap(def.Map()); err != nil {
			return false, err
		}
	}

	if masterConfig := redisConfig["master"]; masterConfig != nil {
		if err = gredis.SetConfigByMap(masterConfig.Map(), "master"); err != nil {
			return false, err
		}
		if _, ok := gredis.GetConfig(); !ok {
			if err = gredis.SetConfigByMap(masterConfig.Map(), gredis.DefaultGroupName); err != nil {
				return false, err
			}
		}
	}

	if slaveConfig := redisConfig["slave"]; slaveConfig != nil {
		if err = gredis.SetConfigByMap(slaveConfig.Map(), "slave"); err != nil {
			return false, err
		}
	}

	cfg, ok := gredis.GetConfig()
	if !ok {
		return false, gerror.New("redis default config not found")
	}

	opts := &redis.UniversalOptions{
		Addrs:            gstr.SplitAndTrim(cfg.Address, ","),
		Username:         cfg.User,
		Password:         cfg.Pass,
		SentinelUsername: cfg.User,
		SentinelPassword: cfg.Pass,
		DB:               cfg.Db,
		PoolSize:         cfg.MaxActive,
		MinIdleConns:     cfg.MinIdle,
		MaxIdleConns:     cfg.MaxIdle,
		ConnMaxLifetime:  cfg.MaxConnLifetime,
		ConnMaxIdleTime:  cfg.IdleTimeout,
		PoolTimeout:      cfg.WaitTimeout,
		DialTimeout:      cfg.DialTimeout,
		ReadTimeout:      cfg.ReadTimeout,
		WriteTimeout:     cfg.WriteTimeout,
		MasterName:       cfg.MasterName,
		TLSConfig:        cfg.TLSConfig,
	}

	UniversalClient = redis.NewUniversalClient(opts)

	if err = UniversalClient.Ping(ctx).Err(); err != nil {
		// 连接失败时退化为进程内锁, 不订阅变更
		logger.Warningf(ctx, "Redis ping error: %v, fallback to local mode", err)
		_ = UniversalClient.Close()
		UniversalClient = nil
		return false, nil
	}

	if slave = gredis.Instance("slave"); slave == nil {
		slave = g.Redis()
	}

	logger.Info(ctx, "Redis Successfully connected and pinged.")

	return true, nil
}

// TryLock SET key token NX PX ttl
func TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return UniversalClient.SetNX(ctx, key, token, ttl).Result()
}

// Unlock 仅释放自己持有的锁
func Unlock(ctx context.Context, key, token string) error {
	return unlockScript.Run(ctx, UniversalClient, []string{key}, token).Err()
}

func Subscribe(ctx context.Context, channel string, channels ...string) (gredis.Conn, []*gredis.Subscription, error) {

	prefix := config.Cfg.Core.ChannelPrefix

	if prefix != "" {
		for i, c := range channels {
			if !gstr.HasPrefix(c, prefix) {
				channels[i] = prefix + c
			}
		}
		if !gstr.HasPrefix(channel, prefix) {
			channel = prefix + channel
		}
	}

	return slave.Subscribe(ctx, channel, channels...)
}
