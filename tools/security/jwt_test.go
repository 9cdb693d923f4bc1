package security

import (
	"testing"
	"time"
)

func testOpts() Options {
	return Options{Secret: []byte("unit-test-secret"), Alg: "HS256", TTL: time.Hour}
}

func TestGenerateVerifyRoundtrip(t *testing.T) {
	opts := testOpts()
	token, exp, err := Generate(opts, MintParams{
		UserID:   "u1",
		TenantID: "acme",
		TenantV:  5,
		UserV:    2,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatal("expiry should be in the future")
	}

	claims, err := Verify(opts, token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "u1" || claims.TenantID != "acme" {
		t.Fatalf("identity claims wrong: sub=%s tenant=%s", claims.Subject, claims.TenantID)
	}
	if claims.TenantV != 5 || claims.UserV != 2 {
		t.Fatalf("version snapshot wrong: tenant_v=%d user_v=%d", claims.TenantV, claims.UserV)
	}
	if claims.TokenType != "access" {
		t.Fatalf("token_type = %s", claims.TokenType)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, _, err := Generate(testOpts(), MintParams{UserID: "u1", TenantID: "acme"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	bad := Options{Secret: []byte("other"), Alg: "HS256"}
	if _, err := Verify(bad, token); err == nil {
		t.Fatal("wrong secret must fail verification")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	opts := testOpts()
	token, _, err := Generate(opts, MintParams{
		UserID:   "u1",
		TenantID: "acme",
		TTL:      time.Hour,
		Now:      time.Now().Add(-3 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := Verify(opts, token); err == nil {
		t.Fatal("expired token must fail verification")
	}
}

func TestHasAuthzVersions(t *testing.T) {
	cases := []struct {
		tenantV, userV int64
		want           bool
	}{
		{0, 0, false},
		{1, 0, true},
		{0, 1, true},
		{3, 7, true},
	}
	for _, tc := range cases {
		c := &AccessClaims{TenantV: tc.tenantV, UserV: tc.userV}
		if got := c.HasAuthzVersions(); got != tc.want {
			t.Errorf("(%d,%d) = %v, want %v", tc.tenantV, tc.userV, got, tc.want)
		}
	}
}

func TestUnsupportedAlgRejected(t *testing.T) {
	opts := Options{Secret: []byte("k"), Alg: "RS256"}
	if _, _, err := Generate(opts, MintParams{UserID: "u1", TenantID: "acme"}); err == nil {
		t.Fatal("asymmetric alg must be rejected")
	}
}
