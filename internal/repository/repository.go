// Package repository declares the storage interfaces the service layer
// depends on. Implementations live in sub-packages (see repository/sqlite).
package repository

import (
	"context"

	"github.com/sakif/teamrsvp/internal/model"
)

// TokenRepository stores session tokens keyed by the token string.
type TokenRepository interface {
	CreateToken(ctx context.Context, token *model.Token) error
	// GetToken returns apperror.ErrNotFound when the token is unknown.
	GetToken(ctx context.Context, token string) (*model.Token, error)
	ListTokens(ctx context.Context) ([]model.Token, error)
}

// UserRepository is the user directory cache.
type UserRepository interface {
	UpsertUser(ctx context.Context, user *model.User) error
	// UserNames returns every cached user as id → display name.
	UserNames(ctx context.Context) (map[string]string, error)
}

// EventRepository stores events and their RSVP sets.
//
// AppendMember and RemoveMember must be atomic against concurrent callers:
// each is a single indivisible change to the stored sets, returning the
// document as it stands right after that change.
type EventRepository interface {
	CreateEvent(ctx context.Context, event *model.Event) error
	// ListEvents returns all events ordered by ascending timestamp.
	ListEvents(ctx context.Context) ([]model.Event, error)
	ReplaceEvent(ctx context.Context, event *model.Event) error
	AppendMember(ctx context.Context, id, user string, kind model.MemberKind) (*model.Event, error)
	RemoveMember(ctx context.Context, id, user string) (*model.Event, error)
}
