package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidTicket = errors.New("invalid download ticket")

// DownloadClaims authorize a single archived export download without a
// session cookie.
type DownloadClaims struct {
	ExportID string `json:"eid"`
	FormID   string `json:"fid"`
	jwt.RegisteredClaims
}

func IssueDownloadTicket(secret []byte, exportID string, formID string, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := DownloadClaims{
		ExportID: exportID,
		FormID:   formID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   userID,
			ID:        exportID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign ticket: %w", err)
	}
	return signed, nil
}

func ParseDownloadTicket(ticket string, secret []byte) (*DownloadClaims, error) {
	token, err := jwt.ParseWithClaims(ticket, &DownloadClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}
	claims, ok := token.Claims.(*DownloadClaims)
	if !ok || !token.Valid || claims.ExportID == "" {
		return nil, ErrInvalidTicket
	}
	return claims, nil
}
