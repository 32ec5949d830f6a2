package service

import (
	"context"
	"log/slog"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sakif/teamrsvp/internal/apperror"
	"github.com/sakif/teamrsvp/internal/model"
)

// ChannelDirectory is the chat platform's view of channels.
// *slack.Client implements it.
type ChannelDirectory interface {
	ListChannels(ctx context.Context) ([]model.Channel, error)
	ChannelMembers(ctx context.Context, channelID string) ([]string, error)
}

// ChannelResolver decides which channels a session may schedule events in.
//
// A channel is visible when ALL of these hold:
//   - its name is on the operator's allow-list
//   - it has at least one member
//   - the session's user is one of those members
type ChannelResolver struct {
	dir     ChannelDirectory
	allowed map[string]bool
	locale  language.Tag
	logger  *slog.Logger
}

// NewChannelResolver creates a resolver over the given allow-list of channel
// names. locale drives the sort order of the result.
func NewChannelResolver(dir ChannelDirectory, allowList []string, locale language.Tag, logger *slog.Logger) *ChannelResolver {
	allowed := make(map[string]bool, len(allowList))
	for _, name := range allowList {
		allowed[name] = true
	}
	return &ChannelResolver{
		dir:     dir,
		allowed: allowed,
		locale:  locale,
		logger:  logger,
	}
}

// VisibleChannels returns the session's visible channels sorted by name in
// locale order, each with an empty event list. Only the channel the session
// was issued from starts out Visible.
//
// Any platform failure is reported as apperror.ErrUpstream; nothing is retried.
func (r *ChannelResolver) VisibleChannels(ctx context.Context, session *model.Session) ([]model.ChannelView, error) {
	channels, err := r.dir.ListChannels(ctx)
	if err != nil {
		r.logger.Error("unable to get channel details from slack", slog.String("error", err.Error()))
		return nil, apperror.Upstream("failed to get channel details from slack", err)
	}
	r.logger.Debug("listed slack channels", slog.Int("count", len(channels)))

	visible := []model.ChannelView{}
	for _, ch := range channels {
		// Check the allow-list first: rosters are only fetched for
		// channels that could possibly be shown.
		if !r.allowed[ch.Name] {
			continue
		}
		if ch.Members == nil {
			ch.Members, err = r.dir.ChannelMembers(ctx, ch.ID)
			if err != nil {
				r.logger.Error("unable to get channel members from slack",
					slog.String("channel", ch.ID),
					slog.String("error", err.Error()),
				)
				return nil, apperror.Upstream("failed to get channel details from slack", err)
			}
		}
		if len(ch.Members) == 0 || !ch.HasMember(session.User) {
			continue
		}

		visible = append(visible, model.ChannelView{
			ID:      ch.ID,
			Name:    ch.Name,
			Visible: ch.ID == session.Channel,
			Events:  []model.EventView{},
		})
	}

	// A Collator is not safe for concurrent use, so build one per call.
	col := collate.New(r.locale)
	slices.SortStableFunc(visible, func(a, b model.ChannelView) int {
		return col.CompareString(a.Name, b.Name)
	})

	return visible, nil
}
