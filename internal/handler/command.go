package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/teamrsvp/internal/auth"
	"github.com/sakif/teamrsvp/internal/slack"
)

// maxCommandBody bounds the slash-command form we are willing to read.
const maxCommandBody = 64 << 10

// ProfileLookup fetches a chat user's profile. *slack.Client implements it.
type ProfileLookup interface {
	UserInfo(ctx context.Context, userID string) (*slack.UserProfile, error)
}

// CommandHandler answers the /team slash command with a personal link.
//
// FLOW:
//  1. Verify the request came from Slack (when a signing secret is set)
//  2. Look up the invoking user's name and timezone
//  3. Issue a token bound to (user, channel, timezone)
//  4. Reply, visible only to the invoker, with http://<host>/team/auth/<token>
//
// Slack only renders a reply that comes back as 200, so every outcome,
// including failures, is an ephemeral 200 with a message in it.
type CommandHandler struct {
	tokens        *auth.TokenService
	profiles      ProfileLookup
	signingSecret string
	logger        *slog.Logger
}

// NewCommandHandler creates a CommandHandler. An empty signingSecret turns
// request verification off.
func NewCommandHandler(tokens *auth.TokenService, profiles ProfileLookup, signingSecret string, logger *slog.Logger) *CommandHandler {
	return &CommandHandler{
		tokens:        tokens,
		profiles:      profiles,
		signingSecret: signingSecret,
		logger:        logger,
	}
}

// HandleCommand serves the slash command.
//
// HTTP: POST /slack/command
// REQUEST BODY (form): user_id=U1&channel_id=C1&command=/team&...
func (h *CommandHandler) HandleCommand(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCommandBody)

	cmd, err := slack.ParseCommand(r, h.signingSecret)
	if errors.Is(err, slack.ErrBadSignature) {
		h.logger.Warn("rejecting unsigned command", slog.String("error", err.Error()))
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.logger.Warn("failed to parse command", slog.String("error", err.Error()))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	userID := cmd.UserID
	channelID := cmd.ChannelID

	profile, err := h.profiles.UserInfo(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get user info",
			slog.String("user", userID),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusOK, slack.Ephemeral("Oops, we were not able to determine who you are..."))
		return
	}

	h.logger.Debug("creating token",
		slog.String("name", profile.Name),
		slog.String("user", profile.ID),
	)
	token, err := h.tokens.Issue(r.Context(), auth.IssueRequest{
		User:           userID,
		UserName:       profile.Name,
		Channel:        channelID,
		Timezone:       profile.TZ,
		TimezoneOffset: profile.TZOffset / 60,
	})
	switch {
	case errors.Is(err, auth.ErrUserCache):
		writeJSON(w, http.StatusOK, slack.Ephemeral("Oops, we were not able to update the user cache..."))
		return
	case err != nil:
		h.logger.Error("failed to issue token", slog.String("error", err.Error()))
		writeJSON(w, http.StatusOK, slack.Ephemeral("Oops, we were not able to create a token..."))
		return
	}

	link := auth.LinkURL(r.Host, token.Token)
	writeJSON(w, http.StatusOK, slack.Ephemeral("<"+link+"|Please use this link to review the events>"))
}
