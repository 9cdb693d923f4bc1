package model

import "time"

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// User 租户下的用户。authz_version 随行建立，默认 1，只增不减。
type User struct {
	UserID       string    `json:"user_id"`
	TenantID     string    `json:"tenant_id"`
	Email        string    `json:"email"`
	RoleName     string    `json:"role_name"`
	Status       string    `json:"status"`
	AuthzVersion int64     `json:"authz_version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LoginResult 登录返回：token 内嵌签发时刻的版本快照
type LoginResult struct {
	UserID   string    `json:"user_id"`
	TenantID string    `json:"tenant_id"`
	Token    string    `json:"token"`
	ExpireAt time.Time `json:"expire_at"`
	TenantV  int64     `json:"tenant_v"`
	UserV    int64     `json:"user_v"`
}
