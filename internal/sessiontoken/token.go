// Package sessiontoken validates the session JWTs minted by the (external)
// auth layer. Fulfillment only needs to read the buyer identity out of them;
// issuance lives elsewhere, but a mint helper is kept for tests.
package sessiontoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "beatvault/pkg/domain-errors"
)

// Claims are the buyer-identity claims carried by a session token.
type Claims struct {
	BuyerID     string `json:"buyer_id"`
	StorageID   string `json:"storage_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	jwt.RegisteredClaims
}

// Service validates (and, for tests, mints) session tokens.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey, issuer string) *Service {
	return &Service{signingKey: []byte(signingKey), issuer: issuer}
}

// Mint signs a session token for the given identity. Production tokens come
// from the auth layer; this exists for tests and local tooling.
func (s *Service) Mint(buyerID, storageID, displayName, email string, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		BuyerID:     buyerID,
		StorageID:   storageID,
		DisplayName: displayName,
		Email:       email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken parses and verifies a session token, returning its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "session token expired")
		}
		return nil, dErrors.Wrap(dErrors.CodeUnauthorized, "invalid session token", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}
	if claims.BuyerID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session token carries no buyer identity")
	}
	return claims, nil
}
