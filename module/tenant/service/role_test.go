package service

import (
	"context"
	"fmt"
	"testing"

	"WProject/module/authz/version"
	tenantmodel "WProject/module/tenant/model"
	"WProject/tools/errs"

	"github.com/jackc/pgx/v5/pgconn"
)

type fakeExec struct {
	tag  string
	err  error
	sqls []string
}

func (f *fakeExec) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sqls = append(f.sqls, sql)
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	return pgconn.NewCommandTag(f.tag), nil
}

type countingBumper struct {
	scopes []version.Scope
	err    error
}

func (b *countingBumper) Bump(ctx context.Context, sc version.Scope) (int64, error) {
	if b.err != nil {
		return 0, b.err
	}
	b.scopes = append(b.scopes, sc)
	return 2, nil
}

func TestCreateRoleBumpsTenantScope(t *testing.T) {
	bumper := &countingBumper{}
	s := &Service{DB: &fakeExec{tag: "INSERT 0 1"}, Bumper: bumper}

	r, err := s.CreateRole(context.Background(), "acme", "editor", "can edit")
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	if r.RoleID == "" || r.TenantID != "acme" {
		t.Fatalf("bad role: %+v", r)
	}
	if len(bumper.scopes) != 1 {
		t.Fatalf("expected exactly one bump, got %d", len(bumper.scopes))
	}
	if bumper.scopes[0].Kind != version.KindTenant || bumper.scopes[0].ID != "acme" {
		t.Fatalf("role change must bump the tenant scope, got %v", bumper.scopes[0])
	}
}

func TestCreateRoleDuplicateSkipsBump(t *testing.T) {
	bumper := &countingBumper{}
	s := &Service{DB: &fakeExec{tag: "INSERT 0 0"}, Bumper: bumper}

	_, err := s.CreateRole(context.Background(), "acme", "editor", "")
	if err == nil {
		t.Fatal("duplicate role should error")
	}
	if len(bumper.scopes) != 0 {
		t.Fatalf("no-op must not bump, got %d bumps", len(bumper.scopes))
	}
}

func TestDeleteRoleNotFoundSkipsBump(t *testing.T) {
	bumper := &countingBumper{}
	s := &Service{DB: &fakeExec{tag: "DELETE 0"}, Bumper: bumper}

	err := s.DeleteRole(context.Background(), "acme", "ghost")
	if !errs.ErrRecordNotFound.Is(err) {
		t.Fatalf("expected record not found, got %v", err)
	}
	if len(bumper.scopes) != 0 {
		t.Fatalf("no-op must not bump, got %d bumps", len(bumper.scopes))
	}
}

func TestAddPolicyDuplicateIsNoop(t *testing.T) {
	bumper := &countingBumper{}
	s := &Service{DB: &fakeExec{tag: "INSERT 0 0"}, Bumper: bumper}

	changed, err := s.AddPolicy(context.Background(), tenantmodel.RolePolicy{
		TenantID: "acme", RoleName: "editor", Resource: "articles", Action: "write",
	})
	if err != nil {
		t.Fatalf("AddPolicy: %v", err)
	}
	if changed {
		t.Fatal("duplicate policy should report unchanged")
	}
	if len(bumper.scopes) != 0 {
		t.Fatalf("no-op must not bump, got %d bumps", len(bumper.scopes))
	}
}

func TestAddPolicyBumpsOnRealChange(t *testing.T) {
	bumper := &countingBumper{}
	s := &Service{DB: &fakeExec{tag: "INSERT 0 1"}, Bumper: bumper}

	changed, err := s.AddPolicy(context.Background(), tenantmodel.RolePolicy{
		TenantID: "acme", RoleName: "editor", Resource: "articles", Action: "write",
	})
	if err != nil {
		t.Fatalf("AddPolicy: %v", err)
	}
	if !changed {
		t.Fatal("insert of a new policy should report changed")
	}
	if len(bumper.scopes) != 1 || bumper.scopes[0].Kind != version.KindTenant {
		t.Fatalf("expected one tenant bump, got %v", bumper.scopes)
	}
}

func TestRemovePolicyMissingIsNoop(t *testing.T) {
	bumper := &countingBumper{}
	s := &Service{DB: &fakeExec{tag: "DELETE 0"}, Bumper: bumper}

	changed, err := s.RemovePolicy(context.Background(), tenantmodel.RolePolicy{
		TenantID: "acme", RoleName: "editor", Resource: "articles", Action: "write",
	})
	if err != nil {
		t.Fatalf("RemovePolicy: %v", err)
	}
	if changed {
		t.Fatal("removing an absent policy should report unchanged")
	}
	if len(bumper.scopes) != 0 {
		t.Fatalf("no-op must not bump, got %d bumps", len(bumper.scopes))
	}
}

func TestCreateRoleStorageErrorNoBump(t *testing.T) {
	bumper := &countingBumper{}
	s := &Service{DB: &fakeExec{err: fmt.Errorf("deadlock detected")}, Bumper: bumper}

	if _, err := s.CreateRole(context.Background(), "acme", "editor", ""); err == nil {
		t.Fatal("storage error must surface")
	}
	if len(bumper.scopes) != 0 {
		t.Fatal("failed write must not bump")
	}
}
