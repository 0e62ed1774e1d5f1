package container

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"ecoverse/internal/datastore"
	"ecoverse/internal/interfaces"
	"ecoverse/internal/pkg/caching"
	"ecoverse/internal/pkg/limiter"
	"ecoverse/internal/pkg/locker"
	"ecoverse/internal/pkg/logging"
	"ecoverse/internal/services"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const STORE_BACKEND_MEMORY = "memory"

var optionalEnvs = []string{
	"API_MODE",
	"API_ORIGINS",
	"LOG_LEVEL",
	services.CONFIG_STORE_BACKEND,
	services.CONFIG_DATA_DIR,
	services.CONFIG_CLASSIFY_RATE_LIMIT,
	services.CONFIG_LEADERBOARD_LIMIT,
	services.CONFIG_ADVICE_API_URL,
	services.CONFIG_ADVICE_API_KEY,
	services.CONFIG_ADVICE_MODEL,
	services.CONFIG_ADVICE_TIMEOUT_SECOND,
	services.CONFIG_ADMIN_CHAT_ID,
	"BOT_TOKEN",
	"CRON_LEADERBOARD",
	"CRON_BADGES",
}

// redis connections by container name and the env vars that configure them
var redisConnections = map[string][2]string{
	"redis-db":      {"REDIS_DB", "CLUSTER_REDIS_DB"},
	"redis-cache":   {"REDIS_CACHE", "CLUSTER_REDIS_CACHE"},
	"redis-mutex":   {"REDIS_MUTEX", "CLUSTER_REDIS_MUTEX"},
	"redis-limiter": {"REDIS_LIMITER", "CLUSTER_REDIS_LIMITER"},
}

// New builds the process container from the required env values in vs and
// the optional ones read from the environment.
func New(vs map[string]string) *do.Injector {
	injector := do.New()
	for _, key := range optionalEnvs {
		if _, ok := vs[key]; !ok {
			vs[key] = os.Getenv(key)
		}
	}

	if vs["API_MODE"] == "" {
		vs["API_MODE"] = "production"
	}
	if vs["API_ORIGINS"] == "" {
		vs["API_ORIGINS"] = "*"
	}
	if vs[services.CONFIG_STORE_BACKEND] == "" {
		vs[services.CONFIG_STORE_BACKEND] = services.STORE_BACKEND_FILE
	}
	if vs[services.CONFIG_DATA_DIR] == "" {
		vs[services.CONFIG_DATA_DIR] = "data"
	}

	logging.Init(vs["LOG_LEVEL"])
	do.ProvideNamedValue(injector, "envs", vs)

	configured := map[string]bool{}
	for name, keys := range redisConnections {
		url, clusterURL := os.Getenv(keys[0]), os.Getenv(keys[1])
		if url == "" && clusterURL == "" {
			continue
		}
		configured[name] = true
		do.ProvideNamed(injector, name, newRedis(url, clusterURL))
	}

	do.Provide(injector, func(i *do.Injector) (*bun.DB, error) {
		dsn := os.Getenv("DB_DSN")
		if dsn == "" {
			return nil, fmt.Errorf("DB_DSN is required")
		}

		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(dsn),
			pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
		))

		return bun.NewDB(sqldb, pgdialect.New()), nil
	})

	do.Provide(injector, func(i *do.Injector) (datastore.Store, error) {
		return newStore(i, vs)
	})

	do.Provide(injector, func(i *do.Injector) (*redsync.Redsync, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-mutex")
		if err != nil {
			return nil, err
		}

		pool := goredis.NewPool(dbRedis)
		return redsync.New(pool), nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Locker, error) {
		if !configured["redis-mutex"] {
			return locker.NewLocal(), nil
		}

		rs, err := do.Invoke[*redsync.Redsync](i)
		if err != nil {
			return nil, err
		}
		return locker.NewRedsync(rs), nil
	})

	do.Provide(injector, func(i *do.Injector) (caching.Cache, error) {
		if !configured["redis-cache"] {
			return caching.NewCacheRedis(nil, true)
		}

		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache")
		if err != nil {
			return nil, err
		}
		return caching.NewCacheRedis(dbRedis, false)
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Limiter, error) {
		if !configured["redis-limiter"] {
			return limiter.Unlimited{}, nil
		}

		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-limiter")
		if err != nil {
			return nil, err
		}
		return limiter.NewLimiter(dbRedis)
	})

	if vs["BOT_TOKEN"] != "" && vs[services.CONFIG_ADMIN_CHAT_ID] != "" {
		do.Provide(injector, func(i *do.Injector) (interfaces.Notifier, error) {
			chatIDs, err := services.ParseChatIDs(strings.Split(vs[services.CONFIG_ADMIN_CHAT_ID], ",")...)
			if err != nil {
				return nil, err
			}
			return services.NewBot(vs["BOT_TOKEN"], chatIDs...)
		})
	}

	do.Provide(injector, func(i *do.Injector) (*services.Authentication, error) {
		return services.NewAuthentication(vs["JWT_SECRET"])
	})

	services.ProvideServices(injector)
	return injector
}

func newRedis(url, clusterURL string) func(*do.Injector) (redis.UniversalClient, error) {
	return func(i *do.Injector) (redis.UniversalClient, error) {
		if clusterURL != "" {
			clusterOpts, err := redis.ParseClusterURL(clusterURL)
			if err != nil {
				return nil, err
			}
			return redis.NewClusterClient(clusterOpts), nil
		}
		return db.InitRedis(&db.RedisConfig{
			URL: url,
		})
	}
}

func newStore(i *do.Injector, vs map[string]string) (datastore.Store, error) {
	switch backend := vs[services.CONFIG_STORE_BACKEND]; backend {
	case services.STORE_BACKEND_FILE:
		return datastore.OpenFileStore(vs[services.CONFIG_DATA_DIR])
	case services.STORE_BACKEND_POSTGRES:
		postgresDB, err := do.Invoke[*bun.DB](i)
		if err != nil {
			return nil, err
		}
		return datastore.NewPostgresStore(postgresDB), nil
	case services.STORE_BACKEND_REDIS:
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-db")
		if err != nil {
			return nil, fmt.Errorf("redis store backend needs REDIS_DB: %w", err)
		}
		return datastore.NewRedisStore(dbRedis), nil
	case STORE_BACKEND_MEMORY:
		return datastore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown %s %q", services.CONFIG_STORE_BACKEND, backend)
	}
}
