package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/quizprep/quizprep-backend/internal/config"
	"github.com/quizprep/quizprep-backend/internal/middleware"
)

// mint-token signs a bearer token with the configured shared secret. Tokens
// are normally issued by the external credential service; this exists for
// operators and integration tests.
func main() {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	flag.StringVar(&subject, "sub", "operator", "Token subject")
	flag.StringVar(&role, "role", middleware.RoleAdmin, "Role claim")
	flag.DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	cfg := config.Load()

	now := time.Now()
	claims := middleware.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		log.Fatalf("Sign failed: %v", err)
	}
	fmt.Println(token)
}
