package globals

import (
	"context"
	"os"
)

var JwtSecret = []byte(getenv("JWT_SECRET", "change-me-in-production"))

// Context keys
type ContextKey string

const UserIDKey ContextKey = "userId"
const RoleKey ContextKey = "role"

var Ctx = context.Background()

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
