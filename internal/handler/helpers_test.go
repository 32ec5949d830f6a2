package handler_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	slackgo "github.com/slack-go/slack"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/sakif/teamrsvp/internal/auth"
	"github.com/sakif/teamrsvp/internal/handler"
	"github.com/sakif/teamrsvp/internal/middleware"
	"github.com/sakif/teamrsvp/internal/model"
	sqliteRepo "github.com/sakif/teamrsvp/internal/repository/sqlite"
	"github.com/sakif/teamrsvp/internal/service"
	"github.com/sakif/teamrsvp/internal/slack"
)

// =========================================================================
// FAKES
// =========================================================================

// fakeSlack stands in for the chat platform: profiles, channels, rosters.
type fakeSlack struct {
	mu       sync.Mutex
	profiles map[string]slack.UserProfile
	channels []model.Channel
	listErr  error
}

func (f *fakeSlack) UserInfo(_ context.Context, id string) (*slack.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, &slack.APIError{Method: "users.info", Code: "user_not_found"}
	}
	return &p, nil
}

func (f *fakeSlack) ListChannels(_ context.Context) ([]model.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Channel(nil), f.channels...), nil
}

func (f *fakeSlack) ChannelMembers(_ context.Context, id string) ([]string, error) {
	return nil, errors.New("rosters are inlined in this fake")
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
// TEST ENVIRONMENT
// =========================================================================

type testEnv struct {
	router http.Handler
	db     *sqliteRepo.DB
	slack  *fakeSlack
	notes  *recordingNotifier
	tokens *auth.TokenService
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestEnv wires real services over an in-memory database, with the chat
// platform faked. Two users share #raids; U3 is only in #pvp.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := newTestLogger()

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fs := &fakeSlack{
		profiles: map[string]slack.UserProfile{
			"U1": {ID: "U1", Name: "alice", TZ: "UTC"},
			"U2": {ID: "U2", Name: "bob", TZ: "America/New_York", TZOffset: -14400},
			"U3": {ID: "U3", Name: "cy", TZ: "UTC"},
		},
		channels: []model.Channel{
			{ID: "C1", Name: "raids", Members: []string{"U1", "U2"}},
			{ID: "C2", Name: "pvp", Members: []string{"U1", "U3"}},
			{ID: "C9", Name: "random", Members: []string{"U1", "U2", "U3"}},
		},
	}
	notes := &recordingNotifier{}

	tokens := auth.NewTokenService(db, db, auth.Config{}, logger)
	resolver := service.NewChannelResolver(fs, []string{"raids", "pvp"}, language.English, logger)
	events := service.NewEventService(db, notes, logger)
	views := service.NewViewService(db, db, resolver, logger)

	eh := handler.NewEventHandler(events, views, logger)
	ah := handler.NewAuthHandler(tokens, logger)
	ch := handler.NewCommandHandler(tokens, fs, "", logger)

	r := chi.NewRouter()
	r.Use(middleware.Logger(logger))
	r.Post("/slack/command", ch.HandleCommand)
	r.Route("/team", func(r chi.Router) {
		r.Get("/auth", ah.HandleList)
		r.Get("/auth/{token}", ah.HandleRedeem)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(tokens, logger))
			r.Get("/events", eh.HandleList)
			r.Post("/events", eh.HandleCreate)
			r.Put("/events/{id}", eh.HandleReplace)
			r.Delete("/events/{id}", eh.HandleDelete)
			r.Post("/events/{id}/join", eh.HandleJoin)
			r.Get("/events/{id}/leave", eh.HandleLeave)
			r.Post("/view", eh.HandleRefresh)
		})
	})

	return &testEnv{router: r, db: db, slack: fs, notes: notes, tokens: tokens}
}

// command runs the slash command as user in channel and returns the reply.
func (e *testEnv) command(t *testing.T, user, channel string) slackgo.Msg {
	t.Helper()
	form := url.Values{"user_id": {user}, "channel_id": {channel}, "command": {"/team"}}
	req := httptest.NewRequest(http.MethodPost, "/slack/command", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp slackgo.Msg
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

// login runs the slash command and pulls the token out of the link.
func (e *testEnv) login(t *testing.T, user, channel string) string {
	t.Helper()
	resp := e.command(t, user, channel)
	const prefix = "<http://example.com/team/auth/"
	require.True(t, strings.HasPrefix(resp.Text, prefix), "unexpected reply %q", resp.Text)
	token, _, ok := strings.Cut(strings.TrimPrefix(resp.Text, prefix), "|")
	require.True(t, ok)
	return token
}

// call sends an API request with token in the Authorization header.
func (e *testEnv) call(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// listBody mirrors the GET /team/events response.
type listBody struct {
	Status     string              `json:"status"`
	Token      model.SessionView   `json:"token"`
	DatePicker model.DatePicker    `json:"datePicker"`
	Channels   []model.ChannelView `json:"channels"`
}

type resultBody struct {
	Status string      `json:"status"`
	Result model.Event `json:"result"`
	ID     string      `json:"id"`
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), "body: %s", rr.Body.String())
	return v
}

func newEvent(name, channel string) map[string]any {
	return map[string]any{"event": map[string]any{
		"name":    name,
		"date":    "2026-10-19",
		"hour":    9,
		"minutes": "00",
		"period":  "PM",
		"channel": channel,
	}}
}

// sign computes Slack's v0 request signature for body.
func sign(secret, timestamp, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:%s", timestamp, body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}
