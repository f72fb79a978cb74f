package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// AuthService manages JWT token generation and validation
type AuthService struct {
	secretKey   string
	tokenExpiry time.Duration
}

// AgentClaims is the JWT claims structure for API tokens
type AgentClaims struct {
	NodeName string `json:"node_name"`
	jwt.RegisteredClaims
}

var authService *AuthService

// InitAuthService initializes the authentication service. An empty
// secret loads the persisted key, generating and persisting a new one
// on first run.
func InitAuthService(secretKey string, tokenExpiry time.Duration) *AuthService {
	if secretKey == "" {
		secretKey = loadOrCreateSecret()
	}
	secretKey = strings.TrimSpace(secretKey)

	// HMAC-SHA256 wants at least 32 bytes of key material.
	if len(secretKey) < 32 {
		zap.S().Warnf("secret key is only %d bytes, padding to 32", len(secretKey))
		padding := make([]byte, 32-len(secretKey))
		_, _ = rand.Read(padding)
		secretKey += hex.EncodeToString(padding)
	}

	if tokenExpiry == 0 {
		tokenExpiry = 90 * 24 * time.Hour
	}

	authService = &AuthService{
		secretKey:   secretKey,
		tokenExpiry: tokenExpiry,
	}
	return authService
}

func loadOrCreateSecret() string {
	homeDir, _ := os.UserHomeDir()
	keyFile := filepath.Join(homeDir, ".nodewarden-secret-key")
	if homeDir == "" {
		keyFile = filepath.Join(os.TempDir(), ".nodewarden-secret-key")
	}

	if data, err := os.ReadFile(keyFile); err == nil && len(data) > 0 {
		zap.S().Infof("loaded persisted secret key from %s", keyFile)
		return strings.TrimSpace(string(data))
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "nodewarden-agent"
	}

	randomBytes := make([]byte, 16)
	var secret string
	if _, err := rand.Read(randomBytes); err != nil {
		secret = fmt.Sprintf("nodewarden-%s-%d-backup", hostname, time.Now().UnixNano())
		zap.S().Warnf("random generation failed, using fallback key")
	} else {
		secret = fmt.Sprintf("nodewarden-%s-%s", hostname, hex.EncodeToString(randomBytes))
	}

	if err := os.WriteFile(keyFile, []byte(secret), 0600); err != nil {
		zap.S().Warnf("could not persist secret key to %s: %v", keyFile, err)
	} else {
		zap.S().Infof("generated and persisted secret key to %s", keyFile)
	}
	return secret
}

// GenerateToken creates a new JWT token bound to this node
func GenerateToken(nodeName string) (string, error) {
	if authService == nil {
		return "", fmt.Errorf("auth service not initialized")
	}

	now := time.Now()
	claims := AgentClaims{
		NodeName: nodeName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(authService.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "nodewarden",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(authService.secretKey))
}

// ValidateToken verifies and parses a JWT token
func ValidateToken(tokenString string) (*AgentClaims, error) {
	if authService == nil {
		return nil, fmt.Errorf("auth service not initialized")
	}

	claims := &AgentClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(authService.secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
