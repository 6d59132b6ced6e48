package transport

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mirrorsync/internal/model"
)

const tokenIssuer = "mirrorsync-waitlist"

// TokenTTL bounds how long after submission a record token is accepted.
const TokenTTL = 5 * time.Minute

// SignRecord returns an HS256 token binding the record id to the email
// fingerprint. It expires TokenTTL after rec.SubmittedAt.
func SignRecord(secret string, rec model.SubmissionRecord) (string, error) {
	if secret == "" {
		return "", errors.New("signing secret is empty")
	}
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   rec.Fingerprint(),
		ID:        rec.ID,
		IssuedAt:  jwt.NewNumericDate(rec.SubmittedAt),
		ExpiresAt: jwt.NewNumericDate(rec.SubmittedAt.Add(TokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyToken parses a token produced by SignRecord.
func VerifyToken(secret, tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
