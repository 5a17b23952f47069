package utils

import (
	"testing"
)

func TestJwtRoundTrip(t *testing.T) {
	token, err := JwtGenerate(42, "agency-7", "Admin")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}

	parsed, err := JwtValidate(token)
	if err != nil {
		t.Fatalf("JwtValidate: %v", err)
	}
	if !parsed.Valid {
		t.Fatal("expected token to be valid")
	}

	claim, ok := parsed.Claims.(*JwtCustomClaim)
	if !ok {
		t.Fatalf("unexpected claims type %T", parsed.Claims)
	}
	if claim.ID != 42 {
		t.Errorf("user id = %d, want 42", claim.ID)
	}
	if claim.AgencyId != "agency-7" {
		t.Errorf("agency id = %q, want %q", claim.AgencyId, "agency-7")
	}
	if claim.Role != "Admin" {
		t.Errorf("role = %q, want %q", claim.Role, "Admin")
	}
}

func TestJwtValidateRejectsTampered(t *testing.T) {
	token, err := JwtGenerate(1, "agency-1", "User")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	parsed, err := JwtValidate(tampered)
	if err == nil && parsed.Valid {
		t.Fatal("expected tampered token to be rejected")
	}
}

func TestJwtValidateRejectsGarbage(t *testing.T) {
	if _, err := JwtValidate("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
