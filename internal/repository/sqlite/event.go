package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"
	"github.com/sakif/teamrsvp/internal/apperror"
	"github.com/sakif/teamrsvp/internal/model"
	"github.com/sakif/teamrsvp/internal/repository"
)

var _ repository.EventRepository = (*DB)(nil)

// CreateEvent inserts the event and its initial RSVP sets.
// The caller's event gets the generated ID.
//
// xid ids are 20 URL-safe chars and sort by creation time, which keeps
// ties on timestamp in a stable order.
func (db *DB) CreateEvent(ctx context.Context, event *model.Event) error {
	id := xid.New().String()

	err := db.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO events (id, owner, channel, name, timestamp) VALUES (?, ?, ?, ?, ?)`,
			id, event.Owner, event.Channel, event.Name, event.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("sqlite: creating event: %w", err)
		}
		return insertMembers(ctx, tx, id, event.Participants, event.Alternates)
	})
	if err != nil {
		return err
	}

	event.ID = id
	if event.Participants == nil {
		event.Participants = []string{}
	}
	if event.Alternates == nil {
		event.Alternates = []string{}
	}
	return nil
}

// ListEvents returns every event ordered by ascending timestamp.
//
// Two queries instead of one per event: all events, then all members,
// stitched together in memory.
func (db *DB) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, owner, channel, name, timestamp FROM events ORDER BY timestamp, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing events: %w", err)
	}

	events := []model.Event{}
	index := make(map[string]int)
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Owner, &e.Channel, &e.Name, &e.Timestamp); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: scanning event row: %w", err)
		}
		e.Participants = []string{}
		e.Alternates = []string{}
		index[e.ID] = len(events)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlite: iterating events: %w", err)
	}
	// Close before the next query: the pool has a single connection.
	rows.Close()

	members, err := db.conn.QueryContext(ctx,
		`SELECT event_id, user_id, kind FROM event_members ORDER BY seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing event members: %w", err)
	}
	defer members.Close()

	for members.Next() {
		var eventID, userID, kind string
		if err := members.Scan(&eventID, &userID, &kind); err != nil {
			return nil, fmt.Errorf("sqlite: scanning member row: %w", err)
		}
		i, ok := index[eventID]
		if !ok {
			continue
		}
		if model.MemberKind(kind) == model.KindParticipant {
			events[i].Participants = append(events[i].Participants, userID)
		} else {
			events[i].Alternates = append(events[i].Alternates, userID)
		}
	}
	if err := members.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating event members: %w", err)
	}

	return events, nil
}

// ReplaceEvent overwrites name, timestamp and both RSVP sets in one
// transaction. Owner and channel are never changed.
func (db *DB) ReplaceEvent(ctx context.Context, event *model.Event) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE events SET name = ?, timestamp = ? WHERE id = ?`,
			event.Name, event.Timestamp, event.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating event %s: %w", event.ID, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if n == 0 {
			return apperror.NotFound("event", event.ID)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM event_members WHERE event_id = ?`, event.ID,
		); err != nil {
			return fmt.Errorf("sqlite: clearing members of event %s: %w", event.ID, err)
		}
		if err := insertMembers(ctx, tx, event.ID, event.Participants, event.Alternates); err != nil {
			return err
		}

		stored, err := loadEvent(ctx, tx, event.ID)
		if err != nil {
			return err
		}
		*event = *stored
		return nil
	})
}

// AppendMember adds user to the end of the chosen set and returns the
// updated event. Duplicates are allowed.
func (db *DB) AppendMember(ctx context.Context, id, user string, kind model.MemberKind) (*model.Event, error) {
	var event *model.Event
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireEvent(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO event_members (event_id, user_id, kind) VALUES (?, ?, ?)`,
			id, user, string(kind),
		); err != nil {
			return fmt.Errorf("sqlite: adding %s to event %s: %w", user, id, err)
		}

		var err error
		event, err = loadEvent(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// RemoveMember deletes every occurrence of user from both sets and returns
// the updated event. Removing a user who isn't there is not an error.
func (db *DB) RemoveMember(ctx context.Context, id, user string) (*model.Event, error) {
	var event *model.Event
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireEvent(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM event_members WHERE event_id = ? AND user_id = ?`,
			id, user,
		); err != nil {
			return fmt.Errorf("sqlite: removing %s from event %s: %w", user, id, err)
		}

		var err error
		event, err = loadEvent(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func requireEvent(ctx context.Context, q querier, id string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("event", id)
	}
	if err != nil {
		return fmt.Errorf("sqlite: looking up event %s: %w", id, err)
	}
	return nil
}

func insertMembers(ctx context.Context, q querier, id string, participants, alternates []string) error {
	sets := []struct {
		kind  model.MemberKind
		users []string
	}{
		{model.KindParticipant, participants},
		{model.KindAlternate, alternates},
	}
	for _, set := range sets {
		for _, user := range set.users {
			if _, err := q.ExecContext(ctx,
				`INSERT INTO event_members (event_id, user_id, kind) VALUES (?, ?, ?)`,
				id, user, string(set.kind),
			); err != nil {
				return fmt.Errorf("sqlite: adding %s to event %s: %w", user, id, err)
			}
		}
	}
	return nil
}

// loadEvent returns the event with its RSVP sets in join order, or
// apperror.ErrNotFound if the id does not resolve.
func loadEvent(ctx context.Context, q querier, id string) (*model.Event, error) {
	e := model.Event{Participants: []string{}, Alternates: []string{}}
	err := q.QueryRowContext(ctx,
		`SELECT id, owner, channel, name, timestamp FROM events WHERE id = ?`, id,
	).Scan(&e.ID, &e.Owner, &e.Channel, &e.Name, &e.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("event", id)
		}
		return nil, fmt.Errorf("sqlite: getting event %s: %w", id, err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT user_id, kind FROM event_members WHERE event_id = ? ORDER BY seq`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting members of event %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var user, kind string
		if err := rows.Scan(&user, &kind); err != nil {
			return nil, fmt.Errorf("sqlite: scanning member row: %w", err)
		}
		if model.MemberKind(kind) == model.KindParticipant {
			e.Participants = append(e.Participants, user)
		} else {
			e.Alternates = append(e.Alternates, user)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating members of event %s: %w", id, err)
	}

	return &e, nil
}
