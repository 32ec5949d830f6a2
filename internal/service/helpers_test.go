package service

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/sakif/teamrsvp/internal/model"
	sqliteRepo "github.com/sakif/teamrsvp/internal/repository/sqlite"
)

// =========================================================================
// FAKES
// =========================================================================
//
// The chat platform is replaced with in-memory fakes; storage uses a real
// in-memory SQLite database, which is fast enough and exercises the actual
// atomic append/remove statements.

type fakeDirectory struct {
	channels    []model.Channel
	members     map[string][]string
	listErr     error
	membersErr  error
	memberCalls []string
}

func (f *fakeDirectory) ListChannels(_ context.Context) ([]model.Channel, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Channel(nil), f.channels...), nil
}

func (f *fakeDirectory) ChannelMembers(_ context.Context, id string) ([]string, error) {
	f.memberCalls = append(f.memberCalls, id)
	if f.membersErr != nil {
		return nil, f.membersErr
	}
	return f.members[id], nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
}

func (r *recordingNotifier) Notify(n model.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) all() []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Notification(nil), r.sent...)
}

// =========================================================================
// TEST HELPERS
// =========================================================================

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestDB(t *testing.T) *sqliteRepo.DB {
	t.Helper()
	db, err := sqliteRepo.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestSession(user, channel string) *model.Session {
	return &model.Session{
		Token:    "tok-" + user,
		User:     user,
		Channel:  channel,
		Timezone: "UTC",
		Location: time.UTC,
	}
}
