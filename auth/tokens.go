package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"kirana/globals"
	"kirana/middleware"
	"kirana/models"

	"github.com/golang-jwt/jwt/v5"
)

const (
	accessTokenTTL       = 12 * time.Hour
	refreshTokenTTL      = 7 * 24 * time.Hour
	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = time.Hour
)

func generateAccessToken(acct *models.Account) (string, error) {
	claims := &middleware.Claims{
		Email:  acct.Email,
		UserID: acct.AccountID,
		Role:   acct.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(globals.JwtSecret)
}

// generateOpaqueToken returns a random token and its sha256 digest. Only the
// digest is stored; the raw token travels in email links or API responses.
func generateOpaqueToken() (raw string, hashed string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(buf)
	return raw, hashToken(raw), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
