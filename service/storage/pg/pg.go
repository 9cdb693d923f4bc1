package pg

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pgOnce sync.Once
	pgMgr  *PgManager
)

type PgManager struct {
	pool *pgxpool.Pool
}

// InitPg 初始化 pgx 连接池（单例）。DATABASE_URL 形如 postgres://...
func InitPg(databaseURL string) error {
	var initErr error
	pgOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, databaseURL)
		if err != nil {
			initErr = err
			return
		}
		if err := pool.Ping(ctx); err != nil {
			initErr = err
			return
		}
		pgMgr = &PgManager{pool: pool}
	})
	return initErr
}

// GetPool 获取连接池
func GetPool() *pgxpool.Pool {
	if pgMgr == nil {
		panic("Postgres not initialized, call InitPg first")
	}
	return pgMgr.pool
}

// ClosePg 关闭连接池
func ClosePg() {
	if pgMgr != nil && pgMgr.pool != nil {
		pgMgr.pool.Close()
	}
}
