package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/techappsUT/social-publisher/internal/domain/account"
	"github.com/techappsUT/social-publisher/internal/infrastructure/encryption"
)

// AccountRepository implements account.Repository (spec §4.1, C1) over
// gorm/postgres. Credential fields (access_token, refresh_token,
// token_secret) are encrypted at rest through enc before every write and
// decrypted after every read — the only place this layer touches
// plaintext tokens is in the caller's *account.Account value.
type AccountRepository struct {
	db  *gorm.DB
	enc *encryption.TokenEncryption
}

func NewAccountRepository(db *gorm.DB, enc *encryption.TokenEncryption) *AccountRepository {
	return &AccountRepository{db: db, enc: enc}
}

// Create upserts under the (user_id, account_id) composite key — a
// second Create for the same key overwrites the row, per spec §4.1.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) (*account.Account, error) {
	row, err := toAccountRow(acc)
	if err != nil {
		return nil, err
	}
	if err := r.encryptRow(row); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now

	err = r.db.WithContext(ctx).
		Where("user_id = ? AND account_id = ?", row.UserID, row.AccountID).
		Assign(row).
		FirstOrCreate(row).Error
	if err != nil {
		return nil, err
	}
	if err := r.decryptRow(row); err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (r *AccountRepository) Get(ctx context.Context, userID, accountID string) (*account.Account, error) {
	var row socialAccountRow
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND account_id = ?", userID, accountID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.decryptRow(&row); err != nil {
		return nil, err
	}
	return row.toDomain()
}

// encryptRow replaces row's plaintext credential fields with their
// encrypted-at-rest form in place, ahead of a write.
func (r *AccountRepository) encryptRow(row *socialAccountRow) error {
	var err error
	if row.AccessToken, err = r.enc.EncryptToken(row.AccessToken); err != nil {
		return fmt.Errorf("encrypt access_token: %w", err)
	}
	if row.RefreshToken != "" {
		if row.RefreshToken, err = r.enc.EncryptToken(row.RefreshToken); err != nil {
			return fmt.Errorf("encrypt refresh_token: %w", err)
		}
	}
	if row.TokenSecret != "" {
		if row.TokenSecret, err = r.enc.EncryptToken(row.TokenSecret); err != nil {
			return fmt.Errorf("encrypt token_secret: %w", err)
		}
	}
	return nil
}

// decryptRow reverses encryptRow in place, ahead of handing the row back
// to a caller as a domain Account.
func (r *AccountRepository) decryptRow(row *socialAccountRow) error {
	var err error
	if row.AccessToken != "" {
		if row.AccessToken, err = r.enc.DecryptToken(row.AccessToken); err != nil {
			return fmt.Errorf("decrypt access_token: %w", err)
		}
	}
	if row.RefreshToken != "" {
		if row.RefreshToken, err = r.enc.DecryptToken(row.RefreshToken); err != nil {
			return fmt.Errorf("decrypt refresh_token: %w", err)
		}
	}
	if row.TokenSecret != "" {
		if row.TokenSecret, err = r.enc.DecryptToken(row.TokenSecret); err != nil {
			return fmt.Errorf("decrypt token_secret: %w", err)
		}
	}
	return nil
}

// List never returns credential fields — spec §4.1 invariant.
func (r *AccountRepository) List(ctx context.Context, userID string, platform *account.Platform) ([]*account.Account, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if platform != nil {
		q = q.Where("platform = ?", string(*platform))
	}

	var rows []socialAccountRow
	if err := q.Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}

	accounts := make([]*account.Account, 0, len(rows))
	for i := range rows {
		acc, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc.WithoutSecrets())
	}
	return accounts, nil
}

func (r *AccountRepository) UpdateTokens(ctx context.Context, userID, accountID string, accessToken, refreshToken, tokenSecret string, expiresAt *time.Time) error {
	encAccess, err := r.enc.EncryptToken(accessToken)
	if err != nil {
		return fmt.Errorf("encrypt access_token: %w", err)
	}
	encRefresh := refreshToken
	if refreshToken != "" {
		if encRefresh, err = r.enc.EncryptToken(refreshToken); err != nil {
			return fmt.Errorf("encrypt refresh_token: %w", err)
		}
	}
	encSecret := tokenSecret
	if tokenSecret != "" {
		if encSecret, err = r.enc.EncryptToken(tokenSecret); err != nil {
			return fmt.Errorf("encrypt token_secret: %w", err)
		}
	}

	result := r.db.WithContext(ctx).Model(&socialAccountRow{}).
		Where("user_id = ? AND account_id = ?", userID, accountID).
		Updates(map[string]any{
			"access_token":     encAccess,
			"refresh_token":    encRefresh,
			"token_secret":     encSecret,
			"token_expires_at": expiresAt,
			"updated_at":       time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return account.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, userID, accountID string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND account_id = ?", userID, accountID).
		Delete(&socialAccountRow{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return account.ErrNotFound
	}
	return nil
}
