package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/techappsUT/social-publisher/internal/domain/account"
	"github.com/techappsUT/social-publisher/internal/infrastructure/encryption"
)

func newMockRepo(t *testing.T) (*AccountRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{})
	require.NoError(t, err)

	enc, err := encryption.New([]byte("a sufficiently secret master key"))
	require.NoError(t, err)

	return NewAccountRepository(gdb, enc), mock
}

func TestAccountRepository_Get_DecryptsCredentials(t *testing.T) {
	repo, mock := newMockRepo(t)

	encAccess, err := repo.enc.EncryptToken("plain-access-token")
	require.NoError(t, err)

	columns := []string{"user_id", "account_id", "platform", "platform_user_id", "account_type",
		"access_token", "refresh_token", "token_secret", "token_expires_at", "metadata", "created_at", "updated_at"}

	rows := sqlmock.NewRows(columns).AddRow(
		"user-1", "twitter:abc", "twitter", "abc", "user",
		encAccess, "", "", nil, `{}`, time.Now(), time.Now(),
	)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "social_accounts" WHERE user_id = $1 AND account_id = $2`)).
		WithArgs("user-1", "twitter:abc").
		WillReturnRows(rows)

	acc, err := repo.Get(context.Background(), "user-1", "twitter:abc")
	require.NoError(t, err)
	assert.Equal(t, "plain-access-token", acc.AccessToken, "Get must decrypt the stored ciphertext back to plaintext")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Get_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "social_accounts" WHERE user_id = $1 AND account_id = $2`)).
		WithArgs("user-1", "twitter:missing").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	_, err := repo.Get(context.Background(), "user-1", "twitter:missing")
	assert.ErrorIs(t, err, account.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Delete_NotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "social_accounts" WHERE user_id = $1 AND account_id = $2`)).
		WithArgs("user-1", "twitter:missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "user-1", "twitter:missing")
	assert.ErrorIs(t, err, account.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Delete_Success(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "social_accounts" WHERE user_id = $1 AND account_id = $2`)).
		WithArgs("user-1", "twitter:abc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "user-1", "twitter:abc")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
