package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/teamrsvp/internal/model"
	"github.com/sakif/teamrsvp/internal/repository"
)

// ViewService assembles the per-session projection behind GET /events.
// It offloads the front-end's ETL to the server: the client receives
// channels → events → members, already filtered, sorted and named.
type ViewService struct {
	events   repository.EventRepository
	users    repository.UserRepository
	channels *ChannelResolver
	logger   *slog.Logger
	now      func() time.Time
}

// NewViewService creates a new ViewService.
func NewViewService(events repository.EventRepository, users repository.UserRepository, channels *ChannelResolver, logger *slog.Logger) *ViewService {
	return &ViewService{
		events:   events,
		users:    users,
		channels: channels,
		logger:   logger,
		now:      time.Now,
	}
}

// Project builds the session's view: its visible channels, each with its
// events in ascending start order, plus the date picker.
func (s *ViewService) Project(ctx context.Context, session *model.Session) (*model.ViewModel, error) {
	loc := session.Location
	if loc == nil {
		loc = time.UTC
	}

	names, err := s.users.UserNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading user names: %w", err)
	}

	channels, err := s.channels.VisibleChannels(ctx, session)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]int, len(channels))
	for i, ch := range channels {
		byID[ch.ID] = i
	}

	events, err := s.events.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}

	// events arrive in timestamp order, so appending keeps each channel sorted
	for i := range events {
		e := &events[i]
		ci, ok := byID[e.Channel]
		if !ok {
			continue
		}
		channels[ci].Events = append(channels[ci].Events, model.EventView{
			ID:           e.ID,
			Name:         e.Name,
			Date:         time.UnixMilli(e.Timestamp).In(loc).Format(EventDateLayout),
			CanJoin:      !e.Has(session.User),
			Visible:      false,
			Participants: memberViews(e.Participants, names, session.User),
			Alternates:   memberViews(e.Alternates, names, session.User),
		})
	}

	s.logger.Debug("projected view",
		slog.String("user", session.User),
		slog.Int("channels", len(channels)),
	)

	return &model.ViewModel{
		Token:      model.SessionView{User: session.User, Channel: session.Channel},
		DatePicker: NewDatePicker(s.now().In(loc)),
		Channels:   channels,
	}, nil
}

// Refresh projects again and carries over the visibility flags the caller
// had set on previous.
func (s *ViewService) Refresh(ctx context.Context, session *model.Session, previous []model.ChannelView) (*model.ViewModel, error) {
	vm, err := s.Project(ctx, session)
	if err != nil {
		return nil, err
	}
	MergeVisible(previous, vm.Channels)
	return vm, nil
}

func memberViews(ids []string, names map[string]string, viewer string) []model.MemberView {
	out := make([]model.MemberView, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.MemberView{
			ID:       id,
			Name:     names[id],
			CanLeave: id == viewer,
		})
	}
	return out
}
