package account

import (
	"context"
	"time"
)

// Repository is the Account Registry contract (spec §4.1, component C1).
//
// Create is idempotent under the (user_id, account_id) composite key: a
// second Create for the same key overwrites the row. List never returns
// credential fields; Get does (it backs the Worker's internal lookup only).
type Repository interface {
	Create(ctx context.Context, acc *Account) (*Account, error)
	Get(ctx context.Context, userID, accountID string) (*Account, error)
	List(ctx context.Context, userID string, platform *Platform) ([]*Account, error)
	UpdateTokens(ctx context.Context, userID, accountID string, accessToken, refreshToken, tokenSecret string, expiresAt *time.Time) error
	Delete(ctx context.Context, userID, accountID string) error
}
