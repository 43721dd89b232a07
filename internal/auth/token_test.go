package auth

import (
	"testing"
	"time"

	"github.com/spec-kit/booking-service/internal/domain"
)

func TestGenerateAndParseToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 30)

	role := domain.StaffRoleAgent
	token, expiresAt, err := tm.GenerateToken("staff-1", domain.SubjectTypeStaff, &role)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiry, got %v", expiresAt)
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.SubjectID != "staff-1" {
		t.Errorf("subject id = %q", claims.SubjectID)
	}
	if claims.Subject != domain.SubjectTypeStaff {
		t.Errorf("subject type = %q", claims.Subject)
	}
	if claims.Role == nil || *claims.Role != domain.StaffRoleAgent {
		t.Errorf("role = %v", claims.Role)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", 30)
	verifier := NewTokenManager("secret-b", 30)

	token, _, err := issuer.GenerateToken("user-1", domain.SubjectTypeUser, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatal("expected signature verification to fail")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", 30)
	if _, err := tm.ParseToken("not-a-token"); err == nil {
		t.Fatal("expected parse failure")
	}
}

func TestHashAndComparePassword(t *testing.T) {
	hashed, err := HashPassword("s3cret!", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := ComparePassword(hashed, "s3cret!"); err != nil {
		t.Errorf("compare matching: %v", err)
	}
	if err := ComparePassword(hashed, "wrong"); err == nil {
		t.Error("expected mismatch error")
	}
}
