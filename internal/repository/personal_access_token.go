package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"secretariat_import/internal/config/connections/postgres"
	"secretariat_import/internal/logger"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var ErrTokenNotFound = errors.New("token not found")

type PersonalAccessToken struct {
	ID        int64
	TokenHash string
	UserID    int64
	Abilities string
	ExpiresAt *time.Time
}

// DefaultTokenableType is the owner type of admin tokens in
// personal_access_tokens.
const DefaultTokenableType = "admin_users"

type PersonalAccessTokenRepository struct {
	pg            *postgres.Postgres
	tokenableType string
	log           *zap.Logger
}

func NewPersonalAccessTokenRepository(pg *postgres.Postgres, tokenableType string, log *zap.Logger) *PersonalAccessTokenRepository {
	if tokenableType == "" {
		tokenableType = DefaultTokenableType
	}
	return &PersonalAccessTokenRepository{pg: pg, tokenableType: tokenableType, log: logger.OrNop(log)}
}

// SplitPlainToken splits "<id>|<secret>". A token without a numeric id
// prefix is returned whole as the secret.
func SplitPlainToken(plain string) (*int64, string) {
	plain = strings.TrimSpace(plain)
	idx := strings.Index(plain, "|")
	if idx <= 0 {
		return nil, plain
	}
	id, err := strconv.ParseInt(plain[:idx], 10, 64)
	if err != nil {
		return nil, plain[idx+1:]
	}
	return &id, plain[idx+1:]
}

// HashToken is the hex sha256 stored in personal_access_tokens.token.
func HashToken(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func (r *PersonalAccessTokenRepository) FindTokenByPlainToken(ctx context.Context, plainToken string) (*PersonalAccessToken, error) {
	tokenID, secret := SplitPlainToken(plainToken)
	if secret == "" {
		return nil, errors.New("empty token")
	}
	hashStr := HashToken(secret)

	var pat PersonalAccessToken

	if tokenID != nil {
		query := `
			SELECT id, token, tokenable_id, COALESCE(abilities, ''), expires_at
			FROM personal_access_tokens
			WHERE id = $1
			  AND tokenable_type = $2
			  AND (expires_at IS NULL OR expires_at > $3)
		`
		err := r.pg.Pool.QueryRow(ctx, query, *tokenID, r.tokenableType, time.Now()).Scan(
			&pat.ID,
			&pat.TokenHash,
			&pat.UserID,
			&pat.Abilities,
			&pat.ExpiresAt,
		)
		switch {
		case err == nil && pat.TokenHash == hashStr:
			return &pat, nil
		case err == nil:
			r.log.Debug("[TOKEN] hash mismatch", zap.Int64("token_id", pat.ID))
		case !errors.Is(err, pgx.ErrNoRows):
			r.log.Warn("[TOKEN] lookup by id failed", zap.Int64("token_id", *tokenID), zap.Error(err))
		}
	}

	query := `
		SELECT id, token, tokenable_id, COALESCE(abilities, ''), expires_at
		FROM personal_access_tokens
		WHERE tokenable_type = $1
		  AND token = $2
		  AND (expires_at IS NULL OR expires_at > $3)
		ORDER BY created_at DESC
		LIMIT 1
	`
	err := r.pg.Pool.QueryRow(ctx, query, r.tokenableType, hashStr, time.Now()).Scan(
		&pat.ID,
		&pat.TokenHash,
		&pat.UserID,
		&pat.Abilities,
		&pat.ExpiresAt,
	)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			r.log.Warn("[TOKEN] lookup by hash failed", zap.Error(err))
		}
		return nil, ErrTokenNotFound
	}

	r.log.Debug("[TOKEN] found", zap.Int64("token_id", pat.ID), zap.Int64("user_id", pat.UserID))
	return &pat, nil
}
