// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take primitives and model types, never *http.Request, and return
// apperror values that the handler maps to status codes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/teamrsvp/internal/apperror"
	"github.com/sakif/teamrsvp/internal/model"
	"github.com/sakif/teamrsvp/internal/repository"
)

// createLayout parses the joined form fields: date, zero-padded 12-hour hour,
// minutes and period, e.g. "2026-10-18 09:00AM".
const createLayout = "2006-01-02 03:04PM"

// EventService runs the RSVP state machine.
//
// RSVP RULES:
//   - joining appends, even if the user is already in that set
//   - nothing stops a user being in participants AND alternates
//   - leaving removes every occurrence from both sets, member or not
//   - replace trusts the caller completely
type EventService struct {
	repo     repository.EventRepository
	notifier Notifier
	logger   *slog.Logger
}

// NewEventService creates a new EventService.
func NewEventService(repo repository.EventRepository, notifier Notifier, logger *slog.Logger) *EventService {
	return &EventService{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateEventRequest carries the "new event" form as the user entered it,
// in their own timezone.
type CreateEventRequest struct {
	Name    string
	Date    string // 2006-01-02
	Hour    string // 1-12; "0" is read as 12
	Minutes string
	Period  string // AM or PM
	Channel string
}

// ReplaceEventRequest overwrites an event's mutable fields wholesale.
type ReplaceEventRequest struct {
	Name         string
	Timestamp    int64
	Participants []string
	Alternates   []string
}

// Create validates the form, stores the event with the creator as its only
// participant, and announces it to the event's channel.
func (s *EventService) Create(ctx context.Context, session *model.Session, req CreateEventRequest) (*model.Event, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Date = strings.TrimSpace(req.Date)
	req.Hour = strings.TrimSpace(req.Hour)
	req.Minutes = strings.TrimSpace(req.Minutes)
	req.Period = strings.ToUpper(strings.TrimSpace(req.Period))
	req.Channel = strings.TrimSpace(req.Channel)

	if req.Name == "" || req.Date == "" || req.Hour == "" ||
		req.Channel == "" || req.Minutes == "" || req.Period == "" {
		return nil, apperror.ValidationFailed("event", "malformed event")
	}

	start, err := ParseEventTime(req.Date, req.Hour, req.Minutes, req.Period, session.Location)
	if err != nil {
		return nil, apperror.ValidationFailed("date", "malformed event")
	}

	event := &model.Event{
		Owner:        session.User,
		Channel:      req.Channel,
		Name:         req.Name,
		Timestamp:    start.UnixMilli(),
		Participants: []string{session.User},
		Alternates:   []string{},
	}
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		s.logger.Error("failed to create event",
			slog.String("name", req.Name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating event: %w", err)
	}

	s.logger.Info("event created",
		slog.String("id", event.ID),
		slog.String("channel", event.Channel),
		slog.String("owner", event.Owner),
	)
	s.notify(model.NotifyCreated, session.User, event)
	return event, nil
}

// Replace overwrites name, timestamp and both RSVP sets. Any valid session
// may replace any event, and the arrays are stored exactly as given.
func (s *EventService) Replace(ctx context.Context, session *model.Session, id string, req ReplaceEventRequest) (*model.Event, error) {
	event := &model.Event{
		ID:           id,
		Name:         req.Name,
		Timestamp:    req.Timestamp,
		Participants: req.Participants,
		Alternates:   req.Alternates,
	}
	if err := s.repo.ReplaceEvent(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info("event replaced",
		slog.String("id", id),
		slog.String("by", session.User),
	)
	return event, nil
}

// Join appends the session's user to the set named by kind: "participant"
// selects participants, any other non-empty value selects alternates.
func (s *EventService) Join(ctx context.Context, session *model.Session, id, kind string) (*model.Event, error) {
	if strings.TrimSpace(kind) == "" {
		return nil, apperror.ValidationFailed("type", "malformed request")
	}

	s.logger.Debug("user is joining event",
		slog.String("user", session.User),
		slog.String("event", id),
		slog.String("type", kind),
	)
	event, err := s.repo.AppendMember(ctx, id, session.User, model.ParseMemberKind(kind))
	if err != nil {
		return nil, err
	}

	s.notify(model.NotifyJoined, session.User, event)
	return event, nil
}

// Leave removes every occurrence of the session's user from both sets.
// Calling it when the user isn't on the event is harmless.
func (s *EventService) Leave(ctx context.Context, session *model.Session, id string) (*model.Event, error) {
	s.logger.Debug("user is leaving event",
		slog.String("user", session.User),
		slog.String("event", id),
	)
	event, err := s.repo.RemoveMember(ctx, id, session.User)
	if err != nil {
		return nil, err
	}

	s.notify(model.NotifyLeft, session.User, event)
	return event, nil
}

// Delete is part of the API surface but has no behaviour yet.
func (s *EventService) Delete(ctx context.Context, session *model.Session, id string) error {
	return apperror.NotImplemented("event delete")
}

// notify hands a snapshot to the dispatcher. The store write has already
// committed, and the dispatcher delivers on its own goroutine.
func (s *EventService) notify(kind model.NotificationKind, actor string, event *model.Event) {
	if s.notifier == nil {
		return
	}
	snapshot := *event
	snapshot.Participants = append([]string(nil), event.Participants...)
	snapshot.Alternates = append([]string(nil), event.Alternates...)
	s.notifier.Notify(model.Notification{Kind: kind, Actor: actor, Event: snapshot})
}

// ParseEventTime turns the form's local date and time into an instant in loc.
func ParseEventTime(date, hour, minutes, period string, loc *time.Location) (time.Time, error) {
	if hour == "0" || hour == "00" {
		hour = "12"
	}
	if len(hour) == 1 {
		hour = "0" + hour
	}
	if len(minutes) == 1 {
		minutes = "0" + minutes
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(createLayout, date+" "+hour+":"+minutes+strings.ToUpper(period), loc)
}
