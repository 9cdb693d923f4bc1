package config

import (
	"os"

	"WProject/tools"
	"WProject/tools/decode"
	"WProject/tools/errs"
)

// AppConfig 服务配置：统一从 ENV 装载。
// REDIS_ADDR 为空则整条缓存层关闭，版本查询走 DB-only。
// NATS_SERVERS 为空则不发授权变更事件。
type AppConfig struct {
	Port        int    `json:"port"`
	DatabaseURL string `json:"database_url"`

	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`
	RedisPoolSize int    `json:"redis_pool_size"`

	NatsServers string `json:"nats_servers"`
	NatsName    string `json:"nats_name"`

	JWTSecret string `json:"jwt_secret"`
	JWTTTLMin int    `json:"jwt_ttl_min"`

	// 版本门控
	AuthzEnforce   bool `json:"authz_enforce"`    // false = 灰度期，lookup 失败放行
	CacheTimeoutMS int  `json:"cache_timeout_ms"` // 默认 100
	DBTimeoutMS    int  `json:"db_timeout_ms"`    // 默认 2000
	CacheTTLSecs   int  `json:"cache_ttl_secs"`   // 默认 3600
}

func Load() (*AppConfig, error) {
	raw := map[string]any{
		"port":         tools.GetEnv("PORT", "8080"),
		"database_url": os.Getenv("DATABASE_URL"),

		"redis_addr":      os.Getenv("REDIS_ADDR"),
		"redis_password":  os.Getenv("REDIS_PASSWORD"),
		"redis_db":        tools.GetEnv("REDIS_DB", "0"),
		"redis_pool_size": tools.GetEnv("REDIS_POOL_SIZE", "16"),

		"nats_servers": os.Getenv("NATS_SERVERS"),
		"nats_name":    tools.GetEnv("NATS_NAME", "authz-1"),

		"jwt_secret":  os.Getenv("JWT_SECRET"),
		"jwt_ttl_min": tools.GetEnv("JWT_TTL_MIN", "120"),

		"authz_enforce":    tools.GetEnv("AUTHZ_ENFORCE", "true"),
		"cache_timeout_ms": tools.GetEnv("AUTHZ_CACHE_TIMEOUT_MS", "100"),
		"db_timeout_ms":    tools.GetEnv("AUTHZ_DB_TIMEOUT_MS", "2000"),
		"cache_ttl_secs":   tools.GetEnv("AUTHZ_CACHE_TTL_SECS", "3600"),
	}

	cfg, err := decode.DecodeMap[AppConfig](raw)
	if err != nil {
		return nil, errs.WrapMsg(err, "decode app config")
	}
	if cfg.DatabaseURL == "" {
		return nil, errs.ErrArgs.WrapMsg("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errs.ErrArgs.WrapMsg("JWT_SECRET is required")
	}
	return cfg, nil
}
