package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Share links let a pilot hand out read-only access to a single flight
// without a session. The grant is a short-lived signed token embedded in
// the URL.

type ShareClaims struct {
	FlightID string `json:"fid"`
	OwnerID  string `json:"uid"`
	jwt.RegisteredClaims
}

func SignShareLink(secret string, flightID string, ownerID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ShareClaims{
		FlightID: flightID,
		OwnerID:  ownerID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   flightID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign share link: %w", err)
	}
	return signed, nil
}

func ParseShareLink(tokenStr string, secret string) (*ShareClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &ShareClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*ShareClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid share link")
}
