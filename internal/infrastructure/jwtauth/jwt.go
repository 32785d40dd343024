package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTAuthClient issues and verifies HS256 tokens whose subject is the user id.
type JWTAuthClient struct {
	secret []byte
	issuer string
	expiry time.Duration
	now    func() time.Time
}

func NewJWTAuthClient(secret, issuer string, expiry time.Duration) *JWTAuthClient {
	return &JWTAuthClient{
		secret: []byte(secret),
		issuer: issuer,
		expiry: expiry,
		now:    time.Now,
	}
}

func (a *JWTAuthClient) GenerateToken(ctx context.Context, uid string) (string, error) {
	if uid == "" {
		return "", errors.New("jwtauth: user id is required")
	}

	now := a.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    a.issuer,
		Subject:   uid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.expiry)),
	})

	return token.SignedString(a.secret)
}

func (a *JWTAuthClient) VerifyToken(ctx context.Context, tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(a.issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", fmt.Errorf("jwtauth: failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", errors.New("jwtauth: token is invalid")
	}

	if claims.Subject == "" {
		return "", errors.New("jwtauth: subject claim is missing")
	}

	return claims.Subject, nil
}
