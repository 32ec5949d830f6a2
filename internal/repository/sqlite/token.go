package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/teamrsvp/internal/apperror"
	"github.com/sakif/teamrsvp/internal/model"
	"github.com/sakif/teamrsvp/internal/repository"
)

var _ repository.TokenRepository = (*DB)(nil)

// CreateToken persists a freshly minted token. The token string is the
// primary key, so a (astronomically unlikely) collision fails loudly
// instead of overwriting another user's session.
func (db *DB) CreateToken(ctx context.Context, t *model.Token) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO tokens (token, user, channel, timezone, timezone_offset, issued_at, expire_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Token,
		t.User,
		t.Channel,
		t.Timezone,
		t.TimezoneOffset,
		t.IssuedAt.UTC(),
		t.ExpireAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating token for user %s: %w", t.User, err)
	}
	return nil
}

// GetToken looks up a token by its string.
// Returns apperror.ErrNotFound if no such token was ever issued.
func (db *DB) GetToken(ctx context.Context, token string) (*model.Token, error) {
	var t model.Token
	err := db.conn.QueryRowContext(ctx,
		`SELECT token, user, channel, timezone, timezone_offset, issued_at, expire_at
		 FROM tokens WHERE token = ?`,
		token,
	).Scan(
		&t.Token,
		&t.User,
		&t.Channel,
		&t.Timezone,
		&t.TimezoneOffset,
		&t.IssuedAt,
		&t.ExpireAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("token", "")
		}
		return nil, fmt.Errorf("sqlite: getting token: %w", err)
	}
	return &t, nil
}

// ListTokens returns every stored token, newest first.
func (db *DB) ListTokens(ctx context.Context) ([]model.Token, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT token, user, channel, timezone, timezone_offset, issued_at, expire_at
		 FROM tokens ORDER BY issued_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tokens: %w", err)
	}
	defer rows.Close()

	var tokens []model.Token
	for rows.Next() {
		var t model.Token
		if err := rows.Scan(
			&t.Token, &t.User, &t.Channel, &t.Timezone, &t.TimezoneOffset,
			&t.IssuedAt, &t.ExpireAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning token row: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tokens: %w", err)
	}

	return tokens, nil
}
