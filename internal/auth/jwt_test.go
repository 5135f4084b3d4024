package auth

import (
	"testing"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, err := svc.GenerateToken("user-1", "worker@example.com", RoleWorker)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("expected user-1, got %s", claims.UserID)
	}
	if claims.Email != "worker@example.com" {
		t.Errorf("expected worker@example.com, got %s", claims.Email)
	}
	if claims.Role != RoleWorker {
		t.Errorf("expected role worker, got %s", claims.Role)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := NewJWTService("secret-a")
	other := NewJWTService("secret-b")

	token, err := svc.GenerateToken("user-1", "a@b.c", RoleEmployer)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := other.ValidateToken(token); err == nil {
		t.Error("expected validation to fail with wrong secret")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := NewJWTService("test-secret")

	if _, err := svc.ValidateToken("not.a.token"); err == nil {
		t.Error("expected validation to fail for garbage token")
	}
}

func TestRefreshTokenCarriesNoRole(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, err := svc.GenerateRefreshToken("user-7")
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "user-7" {
		t.Errorf("expected user-7, got %s", claims.UserID)
	}
	if claims.Role != "" {
		t.Errorf("refresh token should not carry a role, got %s", claims.Role)
	}
}

func TestValidRole(t *testing.T) {
	if !ValidRole(RoleWorker) || !ValidRole(RoleEmployer) {
		t.Error("worker and employer should be valid registration roles")
	}
	if ValidRole(RoleAdmin) {
		t.Error("admin must not be self-registerable")
	}
	if ValidRole("") || ValidRole("superuser") {
		t.Error("unknown roles should be rejected")
	}
}
