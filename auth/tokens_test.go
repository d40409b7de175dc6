package auth

import (
	"testing"
	"time"

	"kirana/middleware"
	"kirana/models"

	"github.com/golang-jwt/jwt/v5"
)

func TestOpaqueTokenHashRoundTrip(t *testing.T) {
	raw, hashed, err := generateOpaqueToken()
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != 64 {
		t.Errorf("raw token length = %d, want 64 hex chars", len(raw))
	}
	if hashToken(raw) != hashed {
		t.Error("stored hash does not match the hash of the raw token")
	}

	raw2, hashed2, err := generateOpaqueToken()
	if err != nil {
		t.Fatal(err)
	}
	if raw == raw2 || hashed == hashed2 {
		t.Error("two generated tokens are identical")
	}
}

func TestAccessTokenClaims(t *testing.T) {
	acct := &models.Account{
		AccountID: "u1",
		Email:     "a@example.com",
		Role:      models.RoleCustomer,
	}
	tok, err := generateAccessToken(acct)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := middleware.ValidateJWT("Bearer " + tok)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "a@example.com" || claims.Role != models.RoleCustomer {
		t.Errorf("claims = %+v", claims)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		t.Fatalf("no expiry on token: %v", err)
	}
	ttl := time.Until(exp.Time)
	if ttl < 11*time.Hour || ttl > 13*time.Hour {
		t.Errorf("token ttl = %v, want about 12h", ttl)
	}
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	for _, header := range []string{"", "Bearer ", "Bearer not-a-token"} {
		if _, err := middleware.ValidateJWT(header); err == nil {
			t.Errorf("header %q accepted", header)
		}
	}

	// A token signed with another key must not validate.
	other := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := other.SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := middleware.ValidateJWT("Bearer " + signed); err == nil {
		t.Error("token with wrong signature accepted")
	}
}
