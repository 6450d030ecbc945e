// Package auth contains the credential primitives: the password hasher and
// the signed, time-bounded access token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/animeflix/internal/common"
)

// Claims names the account twice: Subject is the immutable account ID and
// Identifier is the login name the token was issued under. Identifiers can
// be renamed and then reused, so only Subject identifies the account.
type Claims struct {
	jwt.RegisteredClaims
	Identifier string `json:"identifier"`
}

// Identity is what a verified token resolves to.
type Identity struct {
	AccountID  string
	Identifier string
}

// TokenIssuer mints and verifies HS256 access tokens. It holds no mutable
// state and is safe for concurrent use.
type TokenIssuer struct {
	secretKey []byte
	ttl       time.Duration
}

func NewTokenIssuer(secretKey []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secretKey: secretKey, ttl: ttl}
}

// TTL is the lifetime given to every issued token.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token for the account valid from now until now+TTL.
func (i *TokenIssuer) Issue(accountID, identifier string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Identifier: identifier,
	})

	tokenString, err := token.SignedString(i.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// Verify checks signature and expiry as of now and returns the identity the
// token was issued for. It fails with common.ErrTokenExpired once now reaches the
// embedded expiry and with common.ErrTokenMalformed for anything else.
func (i *TokenIssuer) Verify(tokenString string, now time.Time) (Identity, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return i.secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("%w: %v", common.ErrTokenExpired, err)
		}
		return Identity{}, fmt.Errorf("%w: %v", common.ErrTokenMalformed, err)
	}

	if claims.Subject == "" || claims.Identifier == "" {
		return Identity{}, fmt.Errorf("%w: missing subject or identifier", common.ErrTokenMalformed)
	}

	return Identity{AccountID: claims.Subject, Identifier: claims.Identifier}, nil
}
