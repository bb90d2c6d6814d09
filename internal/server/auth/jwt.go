// Package auth mints and verifies the signed bearer assertions that identify
// a user on subsequent requests. Tokens are HS256 JWTs carrying the user id.
package auth

import (
	"errors"
	"time"

	"github.com/dmarenkov/screenid/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims includes the registered JWT claims plus the user identifier the
// assertion binds.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

// GenerateToken signs a bearer assertion for userID, valid for
// validityDuration from now.
func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUserIDFromToken verifies the signature and expiry of tokenString and
// returns the user id it asserts. Expired tokens yield common.ErrTokenExpired.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", err
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}
