package service

import (
	"context"
	"time"

	"WProject/module/authz/version"
	tenantmodel "WProject/module/tenant/model"
	"WProject/tools/errs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB 本服务用到的持久层最小接口，*pgxpool.Pool 满足
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// VersionBumper 变更落库后触发版本失效
type VersionBumper interface {
	Bump(ctx context.Context, sc version.Scope) (int64, error)
}

// Service 角色/策略定义的写路径。
// 这里的每一笔真实变更都改变“角色对所有持有者意味着什么”，
// 所以 bump 的是 Tenant scope；单个用户的指派在 user 服务里，只 bump User。
type Service struct {
	DB     DB
	Bumper VersionBumper
}

// CreateRole 新建角色并 bump 租户版本
func (s *Service) CreateRole(ctx context.Context, tenantID, name, description string) (tenantmodel.Role, error) {
	now := time.Now()
	r := tenantmodel.Role{
		RoleID:      uuid.NewString(),
		TenantID:    tenantID,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	tag, err := s.DB.Exec(ctx,
		`INSERT INTO roles (role_id, tenant_id, name, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (tenant_id, name) DO NOTHING`,
		r.RoleID, r.TenantID, r.Name, r.Description, now)
	if err != nil {
		return tenantmodel.Role{}, errs.WrapMsg(err, "create role", "tenant", tenantID)
	}
	if tag.RowsAffected() == 0 {
		// 同名角色已存在：no-op，不 bump
		return tenantmodel.Role{}, errs.ErrArgs.WrapMsg("role already exists", "name", name)
	}
	if _, err := s.Bumper.Bump(ctx, version.TenantScope(tenantID)); err != nil {
		return tenantmodel.Role{}, err
	}
	return r, nil
}

// DeleteRole 删除角色；没删到行（不存在/已删）为 no-op，不 bump
func (s *Service) DeleteRole(ctx context.Context, tenantID, name string) error {
	tag, err := s.DB.Exec(ctx,
		`DELETE FROM roles WHERE tenant_id = $1 AND name = $2`, tenantID, name)
	if err != nil {
		return errs.WrapMsg(err, "delete role", "tenant", tenantID, "name", name)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrRecordNotFound.WrapMsg("role not found", "name", name)
	}
	if _, err := s.Bumper.Bump(ctx, version.TenantScope(tenantID)); err != nil {
		return err
	}
	return nil
}

// AddPolicy 给角色加授权条目；重复条目为 no-op。返回是否真的有变更。
func (s *Service) AddPolicy(ctx context.Context, p tenantmodel.RolePolicy) (bool, error) {
	tag, err := s.DB.Exec(ctx,
		`INSERT INTO role_policies (tenant_id, role_name, resource, action)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (tenant_id, role_name, resource, action) DO NOTHING`,
		p.TenantID, p.RoleName, p.Resource, p.Action)
	if err != nil {
		return false, errs.WrapMsg(err, "add policy", "tenant", p.TenantID, "role", p.RoleName)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if _, err := s.Bumper.Bump(ctx, version.TenantScope(p.TenantID)); err != nil {
		return false, err
	}
	return true, nil
}

// RemovePolicy 删授权条目；没匹配到行为 no-op，不 bump。返回是否真的有变更。
func (s *Service) RemovePolicy(ctx context.Context, p tenantmodel.RolePolicy) (bool, error) {
	tag, err := s.DB.Exec(ctx,
		`DELETE FROM role_policies
		 WHERE tenant_id = $1 AND role_name = $2 AND resource = $3 AND action = $4`,
		p.TenantID, p.RoleName, p.Resource, p.Action)
	if err != nil {
		return false, errs.WrapMsg(err, "remove policy", "tenant", p.TenantID, "role", p.RoleName)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if _, err := s.Bumper.Bump(ctx, version.TenantScope(p.TenantID)); err != nil {
		return false, err
	}
	return true, nil
}
