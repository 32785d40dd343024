package usecase

import "context"

// TokenVerifier turns a presented credential into a user id. Firebase and the
// JWT provider both implement it.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}
