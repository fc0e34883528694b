package token

import (
	"context"
	"time"
)

// Token is an opaque bearer credential. Kind is "access" or "refresh".
type Token struct {
	Token      string
	CustomerID string
	Kind       string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

type Repository interface {
	Create(ctx context.Context, token Token) error
	Get(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
	// Take removes the token and returns it, so a token can be redeemed once.
	Take(ctx context.Context, token string) (*Token, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
