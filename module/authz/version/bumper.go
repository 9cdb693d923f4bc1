package version

import (
	"context"

	"WProject/logger"

	"go.uber.org/zap"
)

// EventSink bump 成功后的通知出口（NATS 等），尽力投递
type EventSink interface {
	PublishBump(ctx context.Context, sc Scope, newVersion int64)
}

// Bumper 变更触发器的公共入口。调用约定：
//   - 只在业务变更真正落库之后调用；
//   - 业务层判定 no-op（没改到任何行）就别调，避免无谓把全网 token 打失效。
type Bumper struct {
	Store  *Store
	Events EventSink // 可为 nil
}

// Bump 权威自增 -> 尽力刷新缓存 -> 尽力发事件。
// 只有 DB 自增失败才会报错；缓存/事件失败不影响业务变更结果。
func (b *Bumper) Bump(ctx context.Context, sc Scope) (int64, error) {
	v, err := b.Store.BumpDB(ctx, sc)
	if err != nil {
		return 0, err
	}

	logger.Info("authz version bumped",
		zap.String("scope", sc.String()), zap.Int64("version", v))

	// 回填失败就删键，逼下次读走 DB，避免镜像停留在旧值
	if !b.Store.SetCache(ctx, sc, v) {
		b.Store.DelCache(ctx, sc)
	}

	if b.Events != nil {
		b.Events.PublishBump(ctx, sc, v)
	}
	return v, nil
}
