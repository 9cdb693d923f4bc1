package version

import (
	"context"
	"strconv"
	"time"

	"WProject/logger"
	"WProject/tools/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DB 持久层最小接口，*pgxpool.Pool 直接满足
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Cache 缓存最小接口，*redis.Client 直接满足；nil 表示缓存层关闭
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CacheState 三态：miss 要回源并回填；error 回源但不回填（别往刚挂的缓存写）
type CacheState int

const (
	CacheHit CacheState = iota
	CacheMiss
	CacheError
)

// Store 单 scope 整数版本的读/自增：DB 是唯一权威，Redis 只是尽力镜像。
type Store struct {
	DB    DB
	Cache Cache // nil = DB-only

	CacheTimeout time.Duration // 默认 100ms
	DBTimeout    time.Duration // 默认 2s
	CacheTTL     time.Duration // 默认 1h
}

func (s *Store) ensure() {
	if s.CacheTimeout <= 0 {
		s.CacheTimeout = 100 * time.Millisecond
	}
	if s.DBTimeout <= 0 {
		s.DBTimeout = 2 * time.Second
	}
	if s.CacheTTL <= 0 {
		s.CacheTTL = time.Hour
	}
}

// 列带 NOT NULL DEFAULT 1；COALESCE 兜底特性上线前的历史行
func selectSQL(sc Scope) string {
	if sc.Kind == KindTenant {
		return `SELECT COALESCE(authz_version, 1) FROM tenants WHERE tenant_id = $1 AND deleted_at IS NULL`
	}
	return `SELECT COALESCE(authz_version, 1) FROM users WHERE user_id = $1 AND deleted_at IS NULL`
}

// 自增必须单语句原子完成，并发 bump 不丢增量
func bumpSQL(sc Scope) string {
	if sc.Kind == KindTenant {
		return `UPDATE tenants SET authz_version = COALESCE(authz_version, 1) + 1, updated_at = NOW()
			WHERE tenant_id = $1 AND deleted_at IS NULL RETURNING authz_version`
	}
	return `UPDATE users SET authz_version = COALESCE(authz_version, 1) + 1, updated_at = NOW()
		WHERE user_id = $1 AND deleted_at IS NULL RETURNING authz_version`
}

// GetDB 从权威库读当前版本。行不存在按默认 1 处理（行随 tenant/user 建立而预置）。
func (s *Store) GetDB(ctx context.Context, sc Scope) (int64, error) {
	s.ensure()
	dctx, cancel := context.WithTimeout(ctx, s.DBTimeout)
	defer cancel()

	var v int64
	err := s.DB.QueryRow(dctx, selectSQL(sc), sc.ID).Scan(&v)
	if err == pgx.ErrNoRows {
		return DefaultVersion, nil
	}
	if err != nil {
		return 0, errs.WrapMsg(err, "get authz version from db", "scope", sc)
	}
	return v, nil
}

// BumpDB 原子自增并返回新值。目标行不存在视为错误，不做懒建。
func (s *Store) BumpDB(ctx context.Context, sc Scope) (int64, error) {
	s.ensure()
	dctx, cancel := context.WithTimeout(ctx, s.DBTimeout)
	defer cancel()

	var v int64
	err := s.DB.QueryRow(dctx, bumpSQL(sc), sc.ID).Scan(&v)
	if err == pgx.ErrNoRows {
		return 0, errs.ErrScopeNotFound.WrapMsg("bump target missing", "scope", sc)
	}
	if err != nil {
		return 0, errs.WrapMsg(err, "bump authz version in db", "scope", sc)
	}
	return v, nil
}

// GetCache 带超时读缓存。redis.Nil = miss；坏值按 miss 处理（回填会覆盖）；其余为 error。
func (s *Store) GetCache(ctx context.Context, sc Scope) (int64, CacheState) {
	s.ensure()
	if s.Cache == nil {
		return 0, CacheMiss
	}
	cctx, cancel := context.WithTimeout(ctx, s.CacheTimeout)
	defer cancel()

	val, err := s.Cache.Get(cctx, sc.CacheKey()).Result()
	if err == redis.Nil {
		return 0, CacheMiss
	}
	if err != nil {
		logger.Warn("authz version cache read failed",
			zap.String("scope", sc.String()), zap.Error(err))
		return 0, CacheError
	}
	v, perr := strconv.ParseInt(val, 10, 64)
	if perr != nil {
		logger.Warn("authz version cache value corrupt, treating as miss",
			zap.String("scope", sc.String()))
		return 0, CacheMiss
	}
	return v, CacheHit
}

// GetCacheBatch 一次 MGET 取多个 scope，整体超时 100ms；连接/超时错误让所有键回 CacheError。
func (s *Store) GetCacheBatch(ctx context.Context, scopes ...Scope) ([]int64, []CacheState) {
	s.ensure()
	vals := make([]int64, len(scopes))
	states := make([]CacheState, len(scopes))
	if s.Cache == nil {
		for i := range states {
			states[i] = CacheMiss
		}
		return vals, states
	}

	keys := make([]string, len(scopes))
	for i, sc := range scopes {
		keys[i] = sc.CacheKey()
	}

	cctx, cancel := context.WithTimeout(ctx, s.CacheTimeout)
	defer cancel()

	res, err := s.Cache.MGet(cctx, keys...).Result()
	if err != nil || len(res) != len(scopes) {
		logger.Warn("authz version cache mget failed", zap.Error(err))
		for i := range states {
			states[i] = CacheError
		}
		return vals, states
	}

	for i, raw := range res {
		str, ok := raw.(string)
		if !ok { // nil = key 不存在
			states[i] = CacheMiss
			continue
		}
		v, perr := strconv.ParseInt(str, 10, 64)
		if perr != nil {
			states[i] = CacheMiss
			continue
		}
		vals[i] = v
		states[i] = CacheHit
	}
	return vals, states
}

// SetCache 尽力回填，失败只记日志，绝不影响调用方
func (s *Store) SetCache(ctx context.Context, sc Scope, v int64) bool {
	s.ensure()
	if s.Cache == nil {
		return false
	}
	cctx, cancel := context.WithTimeout(ctx, s.CacheTimeout)
	defer cancel()

	if err := s.Cache.Set(cctx, sc.CacheKey(), v, s.CacheTTL).Err(); err != nil {
		logger.Debug("authz version cache set failed",
			zap.String("scope", sc.String()), zap.Error(err))
		return false
	}
	return true
}

// DelCache 尽力删除，bump 后回填失败时用它逼下次读走 DB
func (s *Store) DelCache(ctx context.Context, sc Scope) {
	s.ensure()
	if s.Cache == nil {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, s.CacheTimeout)
	defer cancel()

	if err := s.Cache.Del(cctx, sc.CacheKey()).Err(); err != nil {
		logger.Debug("authz version cache del failed",
			zap.String("scope", sc.String()), zap.Error(err))
	}
}
