package version

// DefaultVersion 新建 tenant/user 的初始授权版本；0 只作旧令牌哨兵，不进单调序列
const DefaultVersion int64 = 1

type ScopeKind int

const (
	KindTenant ScopeKind = iota + 1
	KindUser
)

// Scope 失效粒度：整个租户 或 单个用户
type Scope struct {
	Kind ScopeKind
	ID   string
}

func TenantScope(tenantID string) Scope { return Scope{Kind: KindTenant, ID: tenantID} }
func UserScope(userID string) Scope     { return Scope{Kind: KindUser, ID: userID} }

// CacheKey 缓存键按 scope 类型加前缀，tenant/user 同 ID 也不会撞
func (s Scope) CacheKey() string {
	switch s.Kind {
	case KindTenant:
		return "authz:tenant:" + s.ID + ":v"
	case KindUser:
		return "authz:user:" + s.ID + ":v"
	}
	return "authz:unknown:" + s.ID + ":v"
}

func (s Scope) String() string {
	switch s.Kind {
	case KindTenant:
		return "tenant:" + s.ID
	case KindUser:
		return "user:" + s.ID
	}
	return "unknown:" + s.ID
}
