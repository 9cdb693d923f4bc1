package model

import "time"

// Role 租户内角色定义。改动它影响租户内所有持有者 -> bump Tenant scope。
type Role struct {
	RoleID      string    `json:"role_id"`
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RolePolicy 角色 -> 资源/动作 授权条目
type RolePolicy struct {
	TenantID string `json:"tenant_id"`
	RoleName string `json:"role_name"`
	Resource string `json:"resource"` // 如 inventory / orders / locations
	Action   string `json:"action"`   // read / write / admin ...
}
