package service

import (
	"context"

	"WProject/module/authz/version"
	usermodel "WProject/module/user/model"
	"WProject/tools/errs"
	jwtsec "WProject/tools/security"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB 本服务用到的持久层最小接口，*pgxpool.Pool 满足
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// VersionBumper 变更落库后触发版本失效
type VersionBumper interface {
	Bump(ctx context.Context, sc version.Scope) (int64, error)
}

// VersionSource 签发 token 时取当前版本快照
type VersionSource interface {
	CurrentBatch(ctx context.Context, tenant, user version.Scope) (int64, int64, error)
}

// CredentialVerifier 凭证校验交给外部身份源（IdP），这里只消费结果
type CredentialVerifier interface {
	VerifyPassword(ctx context.Context, tenantID, email, password string) (userID string, err error)
}

// Service 用户生命周期写路径 + 登录签发。
// 这里的变更只影响单个用户的有效权限 -> 只 bump User scope，
// 不把整个租户的 token 一起打失效。
type Service struct {
	DB       DB
	Bumper   VersionBumper
	Versions VersionSource
	Verifier CredentialVerifier
	JWT      jwtsec.Options
}

// Login 凭证校验 -> 读当前版本快照 -> 铸 token。
// token 里的 tenant_v/user_v 就是此刻库里的权威值。
func (s *Service) Login(ctx context.Context, tenantID, email, password string) (usermodel.LoginResult, error) {
	if s.Verifier == nil {
		return usermodel.LoginResult{}, errs.ErrArgs.WrapMsg("no credential verifier configured")
	}
	userID, err := s.Verifier.VerifyPassword(ctx, tenantID, email, password)
	if err != nil {
		return usermodel.LoginResult{}, errs.WrapMsg(err, "credential verify failed")
	}

	var status string
	err = s.DB.QueryRow(ctx,
		`SELECT status FROM users WHERE user_id = $1 AND tenant_id = $2 AND deleted_at IS NULL`,
		userID, tenantID).Scan(&status)
	if err == pgx.ErrNoRows {
		return usermodel.LoginResult{}, errs.ErrRecordNotFound.WrapMsg("user not found")
	}
	if err != nil {
		return usermodel.LoginResult{}, errs.WrapMsg(err, "load user", "user", userID)
	}
	if status != usermodel.StatusActive {
		return usermodel.LoginResult{}, errs.ErrArgs.WrapMsg("user not active", "status", status)
	}

	tenantV, userV, err := s.Versions.CurrentBatch(ctx,
		version.TenantScope(tenantID), version.UserScope(userID))
	if err != nil {
		return usermodel.LoginResult{}, err
	}

	token, exp, err := jwtsec.Generate(s.JWT, jwtsec.MintParams{
		UserID:   userID,
		TenantID: tenantID,
		TenantV:  tenantV,
		UserV:    userV,
	})
	if err != nil {
		return usermodel.LoginResult{}, errs.WrapMsg(err, "mint token")
	}

	return usermodel.LoginResult{
		UserID:   userID,
		TenantID: tenantID,
		Token:    token,
		ExpireAt: exp,
		TenantV:  tenantV,
		UserV:    userV,
	}, nil
}

// AssignRole 改用户的角色指派；指派没变化为 no-op，不 bump。返回是否真的有变更。
func (s *Service) AssignRole(ctx context.Context, tenantID, userID, roleName string) (bool, error) {
	tag, err := s.DB.Exec(ctx,
		`UPDATE users SET role_name = $3, updated_at = NOW()
		 WHERE user_id = $1 AND tenant_id = $2
		   AND role_name IS DISTINCT FROM $3 AND deleted_at IS NULL`,
		userID, tenantID, roleName)
	if err != nil {
		return false, errs.WrapMsg(err, "assign role", "user", userID)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if _, err := s.Bumper.Bump(ctx, version.UserScope(userID)); err != nil {
		return false, err
	}
	return true, nil
}

// Suspend 停用用户；已停用为 no-op
func (s *Service) Suspend(ctx context.Context, tenantID, userID string) (bool, error) {
	return s.setStatus(ctx, tenantID, userID, usermodel.StatusSuspended)
}

// Reactivate 恢复用户；已激活为 no-op
func (s *Service) Reactivate(ctx context.Context, tenantID, userID string) (bool, error) {
	return s.setStatus(ctx, tenantID, userID, usermodel.StatusActive)
}

func (s *Service) setStatus(ctx context.Context, tenantID, userID, status string) (bool, error) {
	tag, err := s.DB.Exec(ctx,
		`UPDATE users SET status = $3, updated_at = NOW()
		 WHERE user_id = $1 AND tenant_id = $2 AND status <> $3 AND deleted_at IS NULL`,
		userID, tenantID, status)
	if err != nil {
		return false, errs.WrapMsg(err, "set status", "user", userID, "status", status)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if _, err := s.Bumper.Bump(ctx, version.UserScope(userID)); err != nil {
		return false, err
	}
	return true, nil
}

// ResetPassword 换口令是安全敏感变更，落库即 bump，让旧 token 立刻失效
func (s *Service) ResetPassword(ctx context.Context, tenantID, userID, passwordHash string) error {
	tag, err := s.DB.Exec(ctx,
		`UPDATE users SET password_hash = $3, updated_at = NOW()
		 WHERE user_id = $1 AND tenant_id = $2 AND deleted_at IS NULL`,
		userID, tenantID, passwordHash)
	if err != nil {
		return errs.WrapMsg(err, "reset password", "user", userID)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrRecordNotFound.WrapMsg("user not found", "user", userID)
	}
	if _, err := s.Bumper.Bump(ctx, version.UserScope(userID)); err != nil {
		return err
	}
	return nil
}

// ForceLogout 不改任何业务行，纯 bump：该用户所有在外 token 立刻过期
func (s *Service) ForceLogout(ctx context.Context, userID string) (int64, error) {
	return s.Bumper.Bump(ctx, version.UserScope(userID))
}
