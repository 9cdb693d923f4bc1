package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// context key，后续模块统一用这几个 key 读取
const (
	CtxAuthKey   = "authorization" // string，原始 bearer token
	CtxClaimsKey = "authzClaims"   // *security.AccessClaims
	CtxTenantKey = "tenantID"      // string
	CtxUserKey   = "userID"        // string
)

type Options struct {
	// 读取哪个请求头
	HeaderToken               string // 默认 "authorization"
	EnableAuthorizationBearer bool   // 默认 true，兼容 Authorization: Bearer xxx
}

func DefaultOptions() *Options {
	return &Options{
		HeaderToken:               CtxAuthKey,
		EnableAuthorizationBearer: true,
	}
}

// Middleware 抽取 bearer token 写入 context；缺失直接 401。
// 版本校验在后面的 VersionGate 里做。
func Middleware(opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(opts.HeaderToken))

		if token == "" && opts.EnableAuthorizationBearer {
			if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
				if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					token = strings.TrimSpace(authz[len("bearer "):])
				}
			}
		}

		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":  "AUTH_INVALID",
				"error": "missing authorization token",
			})
			return
		}

		c.Set(CtxAuthKey, token)
		c.Next()
	}
}
