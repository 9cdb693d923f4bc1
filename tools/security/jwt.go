package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Options 控制签名与TTL等参数。
type Options struct {
	Secret []byte        // HMAC 密钥（生产用ENV/KMS）
	Alg    string        // HS256/HS384/HS512（默认 HS256）
	TTL    time.Duration // 令牌有效期（默认 2h）
}

func DefaultOptions(secret []byte) Options {
	return Options{Secret: secret, Alg: "HS256", TTL: 2 * time.Hour}
}

// AccessClaims 带授权版本快照的 access token claims。
// tenant_v/user_v 是签发时刻 authz_version 的快照；缺省 0 表示旧版无版本令牌。
type AccessClaims struct {
	TenantID  string `json:"tenant_id"`
	TenantV   int64  `json:"tenant_v"`
	UserV     int64  `json:"user_v"`
	TokenType string `json:"token_type"`
	jwtlib.RegisteredClaims
}

// HasAuthzVersions tenant_v 和 user_v 都为 0 视为旧令牌，跳过版本校验
func (c *AccessClaims) HasAuthzVersions() bool {
	return c.TenantV > 0 || c.UserV > 0
}

// MintParams 签发入参
type MintParams struct {
	UserID   string
	TenantID string
	TenantV  int64
	UserV    int64
	TTL      time.Duration // <=0 则用 opts.TTL
	Now      time.Time     // 零值时用 time.Now()
}

func Generate(opts Options, in MintParams) (token string, expireAt time.Time, err error) {
	method, err := signingMethod(opts.Alg)
	if err != nil {
		return "", time.Time{}, err
	}
	ttl := in.TTL
	if ttl <= 0 {
		ttl = opts.TTL
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	exp := now.Add(ttl)

	claims := &AccessClaims{
		TenantID:  in.TenantID,
		TenantV:   in.TenantV,
		UserV:     in.UserV,
		TokenType: "access",
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   in.UserID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			NotBefore: jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(exp),
		},
	}

	tok := jwtlib.NewWithClaims(method, claims)
	signed, err := tok.SignedString(opts.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func Verify(opts Options, token string) (*AccessClaims, error) {
	if _, err := signingMethod(opts.Alg); err != nil {
		return nil, err
	}
	claims := &AccessClaims{}
	parsed, err := jwtlib.ParseWithClaims(token, claims, func(t *jwtlib.Token) (interface{}, error) {
		// 仅允许 HMAC 家族
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected alg: %v", t.Header["alg"])
		}
		return opts.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func signingMethod(alg string) (jwtlib.SigningMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(alg)) {
	case "", "HS256":
		return jwtlib.SigningMethodHS256, nil
	case "HS384":
		return jwtlib.SigningMethodHS384, nil
	case "HS512":
		return jwtlib.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported alg: %s (use HS256/HS384/HS512)", alg)
	}
}
