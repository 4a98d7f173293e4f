package auth

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenTTL is the session token lifetime. Zero means tokens never expire.
	tokenTTL time.Duration
)

const defaultTokenTTL = 7 * 24 * time.Hour

// Init generates a fresh ed25519 key pair for this process and reads
// TOKEN_EXPIRE_TIME (a Go duration, or "never"). Restarting the process
// invalidates outstanding tokens, which is acceptable because in-progress
// game state does not survive a restart either.
func Init() {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		fmt.Printf("failed to generate ed25519 key pair: %v\n", err)
		os.Exit(1)
	}

	raw := os.Getenv("TOKEN_EXPIRE_TIME")
	switch raw {
	case "":
		tokenTTL = defaultTokenTTL
	case "never", "0":
		tokenTTL = 0
	default:
		d, err := time.ParseDuration(raw)
		if err != nil {
			fmt.Printf("failed to parse TOKEN_EXPIRE_TIME: %v\n", err)
			os.Exit(1)
		}
		tokenTTL = d
	}
}

// TokenTTLSeconds reports the configured token lifetime in whole seconds,
// suitable for a cookie Max-Age. Zero means no expiry.
func TokenTTLSeconds() int { return int(tokenTTL / time.Second) }

// CreateJWT mints a signed token whose "sub" claim is the user ID.
func CreateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{"sub": userID}
	if tokenTTL > 0 {
		claims["exp"] = time.Now().Add(tokenTTL).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateJWT verifies a token and returns its "sub" (the user ID).
func AuthenticateJWT(tokenString string) (string, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid jwt claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return "", fmt.Errorf("missing sub in jwt")
	}
	return sub, nil
}
