package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/teamrsvp/internal/model"
	"github.com/sakif/teamrsvp/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// UpsertUser inserts the user or refreshes their display name.
//
// ON CONFLICT ... DO UPDATE keeps the row in place (unlike INSERT OR REPLACE,
// which deletes and re-inserts), so it is a single atomic statement.
func (db *DB) UpsertUser(ctx context.Context, user *model.User) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		user.ID,
		user.Name,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting user %s: %w", user.ID, err)
	}
	return nil
}

// UserNames loads the whole directory. The directory only ever holds users
// who have run the chat command, so it stays small.
func (db *DB) UserNames(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name FROM users`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return names, nil
}
