package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/powerbrief-dev/powerbrief/internal/config"
)

var (
	jwtSecret string
	tokenTTL  = 168 * time.Hour
)

func InitJWT(settings config.AuthSettings) error {
	if settings.JWTSecret == "" {
		return fmt.Errorf("JWT secret is not set")
	}

	jwtSecret = settings.JWTSecret

	if settings.TokenTTL > 0 {
		tokenTTL = settings.TokenTTL
	}

	return nil
}

// TokenTTL is also used as the session cookie lifetime.
func TokenTTL() time.Duration {
	return tokenTTL
}

func GenerateJWT(userID string, email string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"exp":     time.Now().Add(tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

func VerifyJWT(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	return token, nil
}

// UserIDFromToken extracts the user_id claim.
func UserIDFromToken(token *jwt.Token) (string, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("invalid user ID in token claims")
	}

	return userID, nil
}
