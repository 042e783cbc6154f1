package auth

import (
	"errors"
	"strings"

	"adaptive-service/internal/configs"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

func ValidateJWT(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("token is required")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(configs.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// UserIDFromRequest resolves the caller: X-User-ID set by the gateway wins,
// then a Bearer token. Empty string means unauthenticated.
func UserIDFromRequest(c *gin.Context) (string, error) {
	if userID := c.GetHeader("X-User-ID"); userID != "" {
		return userID, nil
	}

	tokenString := c.GetHeader("Authorization")
	if tokenString == "" {
		return "", nil
	}
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	claims, err := ValidateJWT(tokenString)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
