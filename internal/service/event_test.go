package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/teamrsvp/internal/apperror"
	"github.com/sakif/teamrsvp/internal/model"
)

func newTestEventService(t *testing.T) (*EventService, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	return NewEventService(newTestDB(t), n, newTestLogger()), n
}

func standupRequest(date string) CreateEventRequest {
	return CreateEventRequest{
		Name:    "Standup",
		Date:    date,
		Hour:    "9",
		Minutes: "00",
		Period:  "AM",
		Channel: "C1",
	}
}

// =========================================================================
// CREATE
// =========================================================================

func TestCreate_Success(t *testing.T) {
	svc, notes := newTestEventService(t)
	session := newTestSession("U1", "C1")

	event, err := svc.Create(context.Background(), session, standupRequest("2026-10-18"))
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "U1", event.Owner)
	assert.Equal(t, "C1", event.Channel)
	assert.Equal(t, []string{"U1"}, event.Participants)
	assert.Equal(t, []string{}, event.Alternates)
	assert.Equal(t, time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC).UnixMilli(), event.Timestamp)

	sent := notes.all()
	require.Len(t, sent, 1)
	assert.Equal(t, model.NotifyCreated, sent[0].Kind)
	assert.Equal(t, "U1", sent[0].Actor)
	assert.Equal(t, "C1", sent[0].Event.Channel)
	assert.Len(t, sent[0].Event.Participants, 1)
}

func TestCreate_UsesSessionTimezone(t *testing.T) {
	svc, _ := newTestEventService(t)
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	session := newTestSession("U1", "C1")
	session.Location = ny

	req := standupRequest("2026-07-01")
	req.Hour, req.Minutes, req.Period = "7", "30", "pm"
	event, err := svc.Create(context.Background(), session, req)
	require.NoError(t, err)

	// 19:30 EDT is 23:30 UTC.
	assert.Equal(t, time.Date(2026, 7, 1, 23, 30, 0, 0, time.UTC).UnixMilli(), event.Timestamp)
}

func TestCreate_MissingFields(t *testing.T) {
	svc, notes := newTestEventService(t)
	session := newTestSession("U1", "C1")

	blank := func(f func(*CreateEventRequest)) CreateEventRequest {
		r := standupRequest("2026-10-18")
		f(&r)
		return r
	}
	tests := []struct {
		name string
		req  CreateEventRequest
	}{
		{"name", blank(func(r *CreateEventRequest) { r.Name = "  " })},
		{"date", blank(func(r *CreateEventRequest) { r.Date = "" })},
		{"hour", blank(func(r *CreateEventRequest) { r.Hour = "" })},
		{"minutes", blank(func(r *CreateEventRequest) { r.Minutes = "" })},
		{"period", blank(func(r *CreateEventRequest) { r.Period = "" })},
		{"channel", blank(func(r *CreateEventRequest) { r.Channel = "" })},
		{"garbage date", blank(func(r *CreateEventRequest) { r.Date = "next tuesday" })},
		{"hour out of range", blank(func(r *CreateEventRequest) { r.Hour = "13" })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), session, tt.req)
			require.True(t, errors.Is(err, apperror.ErrValidation), "got %v", err)
			assert.Equal(t, "malformed event", err.Error())
		})
	}
	assert.Empty(t, notes.all())
}

func TestParseEventTime(t *testing.T) {
	tests := []struct {
		hour, minutes, period string
		want                  time.Time
	}{
		{"9", "00", "AM", time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)},
		{"12", "15", "AM", time.Date(2026, 10, 18, 0, 15, 0, 0, time.UTC)},
		{"0", "45", "AM", time.Date(2026, 10, 18, 0, 45, 0, 0, time.UTC)},
		{"0", "0", "PM", time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)},
		{"11", "30", "PM", time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.hour+":"+tt.minutes+tt.period, func(t *testing.T) {
			got, err := ParseEventTime("2026-10-18", tt.hour, tt.minutes, tt.period, time.UTC)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

// =========================================================================
// JOIN / LEAVE
// =========================================================================

func createStandup(t *testing.T, svc *EventService) *model.Event {
	t.Helper()
	e, err := svc.Create(context.Background(), newTestSession("U1", "C1"), standupRequest("2026-10-18"))
	require.NoError(t, err)
	return e
}

func findEvent(t *testing.T, svc *EventService, id string) *model.Event {
	t.Helper()
	events, err := svc.repo.ListEvents(context.Background())
	require.NoError(t, err)
	for i := range events {
		if events[i].ID == id {
			return &events[i]
		}
	}
	t.Fatalf("event %s not stored", id)
	return nil
}

func TestJoin_Alternate(t *testing.T) {
	svc, notes := newTestEventService(t)
	e := createStandup(t, svc)

	got, err := svc.Join(context.Background(), newTestSession("U2", "C1"), e.ID, "alternate")
	require.NoError(t, err)
	assert.Equal(t, []string{"U1"}, got.Participants)
	assert.Equal(t, []string{"U2"}, got.Alternates)

	sent := notes.all()
	require.Len(t, sent, 2)
	assert.Equal(t, model.NotifyJoined, sent[1].Kind)
	assert.Equal(t, "U2", sent[1].Actor)
	assert.Len(t, sent[1].Event.Participants, 1)
	assert.Len(t, sent[1].Event.Alternates, 1)
}

func TestJoin_UnknownTypeMeansAlternate(t *testing.T) {
	svc, _ := newTestEventService(t)
	e := createStandup(t, svc)

	got, err := svc.Join(context.Background(), newTestSession("U2", "C1"), e.ID, "maybe")
	require.NoError(t, err)
	assert.Equal(t, []string{"U2"}, got.Alternates)
}

func TestJoin_TwiceAppendsTwice(t *testing.T) {
	svc, _ := newTestEventService(t)
	e := createStandup(t, svc)
	u2 := newTestSession("U2", "C1")

	_, err := svc.Join(context.Background(), u2, e.ID, "participant")
	require.NoError(t, err)
	got, err := svc.Join(context.Background(), u2, e.ID, "participant")
	require.NoError(t, err)

	assert.Equal(t, []string{"U1", "U2", "U2"}, got.Participants)
}

func TestJoin_MissingType(t *testing.T) {
	svc, _ := newTestEventService(t)
	e := createStandup(t, svc)

	_, err := svc.Join(context.Background(), newTestSession("U2", "C1"), e.ID, "")
	require.True(t, errors.Is(err, apperror.ErrValidation))
	assert.Equal(t, "malformed request", err.Error())
}

func TestJoin_NotFound(t *testing.T) {
	svc, notes := newTestEventService(t)

	_, err := svc.Join(context.Background(), newTestSession("U2", "C1"), "missing", "participant")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.Empty(t, notes.all())
}

func TestJoin_ConcurrentJoinersAllRecorded(t *testing.T) {
	svc, notes := newTestEventService(t)
	e := createStandup(t, svc)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Join(context.Background(), newTestSession(fmt.Sprintf("W%02d", i), "C1"), e.ID, "participant")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got := findEvent(t, svc, e.ID)
	assert.Len(t, got.Participants, n+1)
	assert.Len(t, notes.all(), n+1)
}

func TestLeave(t *testing.T) {
	svc, notes := newTestEventService(t)
	e := createStandup(t, svc)
	u1 := newTestSession("U1", "C1")
	_, err := svc.Join(context.Background(), u1, e.ID, "alternate")
	require.NoError(t, err)

	got, err := svc.Leave(context.Background(), u1, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.Participants)
	assert.Equal(t, []string{}, got.Alternates)

	last := notes.all()[len(notes.all())-1]
	assert.Equal(t, model.NotifyLeft, last.Kind)
	assert.Len(t, last.Event.Participants, 0)

	// Idempotent.
	again, err := svc.Leave(context.Background(), u1, e.ID)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestLeave_NotFound(t *testing.T) {
	svc, _ := newTestEventService(t)

	_, err := svc.Leave(context.Background(), newTestSession("U1", "C1"), "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

// =========================================================================
// REPLACE / DELETE
// =========================================================================

func TestReplace_FullTrust(t *testing.T) {
	svc, notes := newTestEventService(t)
	e := createStandup(t, svc)

	// A different user, arbitrary arrays: accepted verbatim.
	got, err := svc.Replace(context.Background(), newTestSession("U9", "C2"), e.ID, ReplaceEventRequest{
		Name:         "Retro",
		Timestamp:    42,
		Participants: []string{"X", "X"},
		Alternates:   []string{"U1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Retro", got.Name)
	assert.Equal(t, int64(42), got.Timestamp)
	assert.Equal(t, []string{"X", "X"}, got.Participants)
	assert.Equal(t, []string{"U1"}, got.Alternates)
	assert.Equal(t, "C1", got.Channel)
	assert.Len(t, notes.all(), 1, "replace does not notify")
}

func TestReplace_NotFound(t *testing.T) {
	svc, _ := newTestEventService(t)

	_, err := svc.Replace(context.Background(), newTestSession("U1", "C1"), "missing", ReplaceEventRequest{Name: "x"})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestDelete_NotImplemented(t *testing.T) {
	svc, _ := newTestEventService(t)
	e := createStandup(t, svc)

	err := svc.Delete(context.Background(), newTestSession("U1", "C1"), e.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotImplemented))

	assert.NotNil(t, findEvent(t, svc, e.ID), "event must still exist")
}
