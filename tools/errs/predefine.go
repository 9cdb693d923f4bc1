package errs

// 业务错误码：15xx 为认证/授权段
const (
	ServerInternalError = 500

	TokenMalformedError = 1501
	TokenExpiredError   = 1502
	StaleTokenError     = 1503
	VersionLookupError  = 1504
	ScopeNotFoundError  = 1505
	RecordNotFoundError = 1506
	ArgsError           = 1507
)

var (
	ErrInternalServer = NewCodeError(ServerInternalError, "server internal error")
	ErrArgs           = NewCodeError(ArgsError, "invalid argument")

	// token 无效/缺失/签名错，统一对外表现为认证失败
	ErrTokenMalformed = NewCodeError(TokenMalformedError, "token malformed")
	ErrTokenExpired   = NewCodeError(TokenExpiredError, "token expired")

	// 版本比对失败：token 落后于当前授权版本
	ErrStaleToken = NewCodeError(StaleTokenError, "token is stale, re-authenticate")

	// 缓存与数据库都取不到版本时的终态错误
	ErrVersionLookup = NewCodeError(VersionLookupError, "authz version lookup failed")

	// bump 指向的 tenant/user 行不存在（或已删除）
	ErrScopeNotFound = NewCodeError(ScopeNotFoundError, "authz scope not found")

	ErrRecordNotFound = NewCodeError(RecordNotFoundError, "record not found")
)
