package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"skylog/api/internal/models"
)

var ErrTokenNotFound = errors.New("token not found")

type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) Create(ctx context.Context, token models.AuthToken) error {
	const query = `
		INSERT INTO auth_tokens (
			id, user_id, purpose, digest, expires_at, consumed_at, created_at
		) VALUES (
			$1, $2, $3, $4, $5, NULL, NOW()
		)
	`
	_, err := r.pool.Exec(ctx, query,
		token.ID,
		token.UserID,
		token.Purpose,
		token.Digest,
		token.ExpiresAt,
	)
	return err
}

// FindLive returns unconsumed, unexpired tokens for a user and purpose.
// The caller verifies the presented secret against each digest; a digest
// lookup by value would leak the token into query logs.
func (r *TokenRepository) FindLive(ctx context.Context, userID string, purpose models.TokenPurpose, now time.Time) ([]models.AuthToken, error) {
	const query = `
		SELECT id, user_id, purpose, digest, expires_at, consumed_at, created_at
		FROM auth_tokens
		WHERE user_id = $1 AND purpose = $2 AND consumed_at IS NULL AND expires_at > $3
	`
	rows, err := r.pool.Query(ctx, query, userID, purpose, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []models.AuthToken
	for rows.Next() {
		var token models.AuthToken
		if err := rows.Scan(
			&token.ID,
			&token.UserID,
			&token.Purpose,
			&token.Digest,
			&token.ExpiresAt,
			&token.ConsumedAt,
			&token.CreatedAt,
		); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// Consume marks a token used. Only the first consume wins; a second call
// for the same id reports ErrTokenNotFound.
func (r *TokenRepository) Consume(ctx context.Context, id string, now time.Time) error {
	const query = `
		UPDATE auth_tokens SET consumed_at = $2
		WHERE id = $1 AND consumed_at IS NULL
	`
	cmd, err := r.pool.Exec(ctx, query, id, now)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}

func (r *TokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM auth_tokens WHERE expires_at < $1 OR consumed_at IS NOT NULL`
	cmd, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
