package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icntodo/todos/internal/apperrors"
	"github.com/icntodo/todos/internal/models"
	"github.com/icntodo/todos/internal/testutil"
)

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

func Test_RefreshTokenRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Saved token references a real user row, so create the owner first
	saveTokenWithOwner := func(t *testing.T, tx pgx.Tx) models.RefreshToken {
		users := UserRepo{DB: tx}
		owner, err := users.CreateUser(t.Context(), "token-owner", "hashed-password")
		require.NoError(t, err, "owner user should be created without errors")

		repo := RefreshTokenRepo{DB: tx}
		token, err := repo.Save(t.Context(), models.RefreshToken{
			ID:        uuid.New(),
			UserID:    owner.ID,
			Token:     "secret-token",
			CreatedAt: mustParseTime("2024-01-01 19:00:01Z"),
			ExpiresAt: mustParseTime("2200-01-01 03:00:02Z"),
			RevokedAt: nil,
		})
		require.NoError(t, err, "token should be saved without errors")
		return token
	}

	t.Run("save token ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			got := saveTokenWithOwner(t, tx)

			require.Equal(t, "secret-token", got.Token)
			require.WithinDuration(t, mustParseTime("2024-01-01 19:00:01Z"), got.CreatedAt, time.Microsecond)
			require.WithinDuration(t, mustParseTime("2200-01-01 03:00:02Z"), got.ExpiresAt, time.Microsecond)
			require.Nil(t, got.RevokedAt, "RevokedAt should be nil cause original token has RevokedAt as nil")
		})
	})

	t.Run("get token ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			saved := saveTokenWithOwner(t, tx)
			repo := RefreshTokenRepo{DB: tx}

			got, err := repo.Get(t.Context(), saved.Token)

			require.NoError(t, err)
			require.Equal(t, saved.Token, got.Token)
			require.Equal(t, saved.UserID, got.UserID)
			require.WithinDuration(t, saved.CreatedAt, got.CreatedAt, 0)
			require.WithinDuration(t, saved.ExpiresAt, got.ExpiresAt, 0)
			require.Nil(t, got.RevokedAt)
		})
	})

	t.Run("get not existed token", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}

			_, err := repo.Get(t.Context(), "never-saved-token")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
		})
	})

	t.Run("revoke token ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			saved := saveTokenWithOwner(t, tx)
			repo := RefreshTokenRepo{DB: tx}

			got, err := repo.Revoke(t.Context(), saved.Token)

			require.NoError(t, err, "No error must be happen when revoking existed token")
			require.NotNil(t, got.RevokedAt, "token must be revoked")
			require.WithinDuration(t, time.Now(), *got.RevokedAt, 50*time.Millisecond, "should be revoked close to now() enough")
			require.Equal(t, saved.Token, got.Token)
			require.Equal(t, saved.UserID, got.UserID)
			require.WithinDuration(t, saved.CreatedAt, got.CreatedAt, 0)
			require.WithinDuration(t, saved.ExpiresAt, got.ExpiresAt, 0)
		})
	})

	t.Run("revoke not existed token", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}

			_, err := repo.Revoke(t.Context(), "never-saved-token")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
		})
	})

	t.Run("revoke has exactly one winner", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			saved := saveTokenWithOwner(t, tx)
			repo := RefreshTokenRepo{DB: tx}

			tokenFirst, err := repo.Revoke(t.Context(), saved.Token)
			require.NoError(t, err, "No error should happen on first revoke")

			time.Sleep(100 * time.Millisecond)
			tokenSecond, err := repo.Revoke(t.Context(), saved.Token)
			require.Error(t, err, "Revoking already revoked token has to return error")
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked, "should return ErrRefreshTokenRevoked error")

			assert.WithinDuration(t, *tokenFirst.RevokedAt, *tokenSecond.RevokedAt, 0, "should return same time for already revoked token")
		})
	})

	t.Run("get revoked token still works", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			saved := saveTokenWithOwner(t, tx)
			repo := RefreshTokenRepo{DB: tx}

			_, err := repo.Revoke(t.Context(), saved.Token)
			require.NoError(t, err)

			got, err := repo.Get(t.Context(), saved.Token)

			require.NoError(t, err, "revoked token should still be readable")
			require.NotNil(t, got.RevokedAt)
		})
	})
}
