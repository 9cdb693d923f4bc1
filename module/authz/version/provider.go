package version

import (
	"context"
	"sync"

	"WProject/logger"
	"WProject/tools/errs"

	"go.uber.org/zap"
)

// Provider 汇聚单次请求的版本查询：缓存快路径 + DB 回源 + miss 回填。
type Provider struct {
	Store *Store
}

// Current 单 scope 当前版本。
// hit 直接返回；miss 读 DB 并回填；cache error 跳过缓存直读 DB（降级，不回填）。
// DB 也失败时升级为 VersionLookupError，由门控层决定放行还是拒绝。
func (p *Provider) Current(ctx context.Context, sc Scope) (int64, error) {
	v, st := p.Store.GetCache(ctx, sc)
	if st == CacheHit {
		return v, nil
	}

	dv, err := p.Store.GetDB(ctx, sc)
	if err != nil {
		return 0, errs.ErrVersionLookup.WrapMsg("both tiers exhausted", "scope", sc)
	}
	if st == CacheMiss {
		// 回填只发生在 miss：error 状态别往刚失败的缓存写
		p.Store.SetCache(ctx, sc, dv)
	} else {
		logger.Warn("authz version degraded to db-only", zap.String("scope", sc.String()))
	}
	return dv, nil
}

// CurrentBatch 请求级快路径：一次 MGET 同取 tenant/user 两个键，
// 各键的 miss/error 独立按单 scope 算法兜底，DB 回源并发进行。
func (p *Provider) CurrentBatch(ctx context.Context, tenant, user Scope) (int64, int64, error) {
	scopes := []Scope{tenant, user}
	vals, states := p.Store.GetCacheBatch(ctx, scopes...)

	var wg sync.WaitGroup
	dbErrs := make([]error, len(scopes))
	for i := range scopes {
		if states[i] == CacheHit {
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sc := scopes[i]
			dv, err := p.Store.GetDB(ctx, sc)
			if err != nil {
				dbErrs[i] = err
				return
			}
			vals[i] = dv
			if states[i] == CacheMiss {
				p.Store.SetCache(ctx, sc, dv)
			} else {
				logger.Warn("authz version degraded to db-only", zap.String("scope", sc.String()))
			}
		}(i)
	}
	wg.Wait()

	for i, err := range dbErrs {
		if err != nil {
			return 0, 0, errs.ErrVersionLookup.WrapMsg("both tiers exhausted", "scope", scopes[i])
		}
	}
	return vals[0], vals[1], nil
}
