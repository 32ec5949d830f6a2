// Package slack adapts github.com/slack-go/slack to the handful of Web API
// calls the service needs: user profiles, channel rosters and posting
// messages.
//
// Authentication uses golang.org/x/oauth2 with a static bot token: the
// returned *http.Client is handed to slack-go, so every request it makes
// carries "Authorization: Bearer xoxb-...".
package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	slackgo "github.com/slack-go/slack"
	"golang.org/x/oauth2"

	"github.com/sakif/teamrsvp/internal/model"
)

// pageLimit is the page size requested from cursor-paginated methods.
const pageLimit = 200

// Config configures a Client.
type Config struct {
	Token   string // bot token (xoxb-...)
	BaseURL string // Web API root; empty keeps slack-go's default
	// PrivateChannels also lists private channels the bot is in. It needs
	// the groups:read scope.
	PrivateChannels bool
}

// Client calls the Slack Web API.
type Client struct {
	api    *slackgo.Client
	types  []string
	logger *slog.Logger
}

// APIError is returned when Slack answers with "ok": false.
type APIError struct {
	Method string
	Code   string // Slack's error string, e.g. "channel_not_found"
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack: %s: %s", e.Method, e.Code)
}

// UserProfile is the part of users.info we use.
type UserProfile struct {
	ID       string
	Name     string
	TZ       string
	TZOffset int // seconds east of UTC, as Slack reports it
}

// New creates a Client authenticated with cfg.Token.
func New(cfg Config, logger *slog.Logger) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
	opts := []slackgo.Option{
		slackgo.OptionHTTPClient(oauth2.NewClient(context.Background(), src)),
		slackgo.OptionLog(slog.NewLogLogger(logger.Handler(), slog.LevelDebug)),
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, slackgo.OptionAPIURL(base))
	}

	types := []string{"public_channel"}
	if cfg.PrivateChannels {
		types = append(types, "private_channel")
	}

	return &Client{
		api:    slackgo.New(cfg.Token, opts...),
		types:  types,
		logger: logger,
	}
}

// UserInfo fetches a user's name and timezone.
func (c *Client) UserInfo(ctx context.Context, userID string) (*UserProfile, error) {
	user, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return nil, callError("users.info", err)
	}
	c.logger.Debug("slack call succeeded", slog.String("method", "users.info"))
	return &UserProfile{
		ID:       user.ID,
		Name:     user.Name,
		TZ:       user.TZ,
		TZOffset: user.TZOffset,
	}, nil
}

// ListChannels returns every non-archived channel the bot can see, without
// member rosters. It follows the pagination cursor to the end.
func (c *Client) ListChannels(ctx context.Context) ([]model.Channel, error) {
	var channels []model.Channel
	params := &slackgo.GetConversationsParameters{
		ExcludeArchived: true,
		Types:           c.types,
		Limit:           pageLimit,
	}
	for {
		page, next, err := c.api.GetConversationsContext(ctx, params)
		if err != nil {
			return nil, callError("conversations.list", err)
		}
		for _, ch := range page {
			channels = append(channels, model.Channel{ID: ch.ID, Name: ch.Name})
		}
		if next == "" {
			c.logger.Debug("slack call succeeded",
				slog.String("method", "conversations.list"),
				slog.Int("channels", len(channels)),
			)
			return channels, nil
		}
		params.Cursor = next
	}
}

// ChannelMembers returns the user ids on a channel's roster.
func (c *Client) ChannelMembers(ctx context.Context, channelID string) ([]string, error) {
	var members []string
	params := &slackgo.GetUsersInConversationParameters{
		ChannelID: channelID,
		Limit:     pageLimit,
	}
	for {
		page, next, err := c.api.GetUsersInConversationContext(ctx, params)
		if err != nil {
			return nil, callError("conversations.members", err)
		}
		members = append(members, page...)
		if next == "" {
			return members, nil
		}
		params.Cursor = next
	}
}

// PostMessage sends msg to its channel via chat.postMessage.
func (c *Client) PostMessage(ctx context.Context, msg Message) error {
	opts := []slackgo.MsgOption{slackgo.MsgOptionAttachments(msg.Attachments...)}
	if msg.AsUser {
		opts = append(opts, slackgo.MsgOptionAsUser(true))
	}
	if _, _, err := c.api.PostMessageContext(ctx, msg.Channel, opts...); err != nil {
		return callError("chat.postMessage", err)
	}
	c.logger.Debug("slack call succeeded", slog.String("method", "chat.postMessage"))
	return nil
}

// callError turns Slack's "ok": false into an *APIError and wraps anything
// else (transport failures, non-200 statuses).
func callError(method string, err error) error {
	var resp slackgo.SlackErrorResponse
	if errors.As(err, &resp) {
		return &APIError{Method: method, Code: resp.Err}
	}
	return fmt.Errorf("slack: calling %s: %w", method, err)
}
