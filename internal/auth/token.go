// Package auth issues and validates the opaque session tokens that
// authenticate every API call.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. A user runs the chat command; the server mints a token and replies with
//    a link http://<host>/team/auth/<token>
// 2. The link stores the token in a cookie and redirects to the app
// 3. The browser sends the token back in the Authorization header
// 4. RequireSession resolves it to a model.Session stored in the request context
//
// A token is a random key into the tokens table; the user, channel and
// timezone it stands for live server-side.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/teamrsvp/internal/apperror"
	"github.com/sakif/teamrsvp/internal/model"
	"github.com/sakif/teamrsvp/internal/repository"
)

// DefaultTTL is the nominal lifetime recorded on every token.
const DefaultTTL = 15 * time.Minute

// tokenBytes of randomness: 256 bits, 43 URL-safe characters once encoded.
const tokenBytes = 32

// Issue failures, distinguishable so the chat command can tell the user
// which step went wrong.
var (
	ErrUserCache  = errors.New("auth: updating user cache")
	ErrTokenStore = errors.New("auth: storing token")
)

// Config holds token policy.
type Config struct {
	TTL time.Duration
	// EnforceExpiry rejects tokens past their ExpireAt. Off by default: the
	// expiry is recorded but historically never checked, and existing links
	// keep working until this is switched on.
	EnforceExpiry bool
}

// TokenService handles token issue and validation.
type TokenService struct {
	tokens repository.TokenRepository
	users  repository.UserRepository
	config Config
	logger *slog.Logger
	now    func() time.Time
}

// NewTokenService creates a TokenService. A zero TTL means DefaultTTL.
func NewTokenService(tokens repository.TokenRepository, users repository.UserRepository, cfg Config, logger *slog.Logger) *TokenService {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &TokenService{
		tokens: tokens,
		users:  users,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// IssueRequest is everything known about the user invoking the command.
type IssueRequest struct {
	User           string
	UserName       string
	Channel        string
	Timezone       string
	TimezoneOffset int // minutes east of UTC
}

// Issue mints a new token for the request's user/channel/timezone and
// refreshes the user's directory entry.
func (s *TokenService) Issue(ctx context.Context, req IssueRequest) (*model.Token, error) {
	if req.User == "" || req.Channel == "" {
		return nil, apperror.ValidationFailed("user", "user and channel are required")
	}

	value, err := NewToken()
	if err != nil {
		return nil, err
	}

	if err := s.users.UpsertUser(ctx, &model.User{ID: req.User, Name: req.UserName}); err != nil {
		s.logger.Error("failed to update user cache",
			slog.String("user", req.User),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %w", ErrUserCache, err)
	}

	now := s.now()
	token := &model.Token{
		Token:          value,
		User:           req.User,
		Channel:        req.Channel,
		Timezone:       req.Timezone,
		TimezoneOffset: req.TimezoneOffset,
		IssuedAt:       now,
		ExpireAt:       now.Add(s.config.TTL),
	}
	if err := s.tokens.CreateToken(ctx, token); err != nil {
		s.logger.Error("failed to create token",
			slog.String("user", req.User),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %w", ErrTokenStore, err)
	}

	s.logger.Debug("token issued",
		slog.String("user", req.User),
		slog.String("name", req.UserName),
		slog.String("channel", req.Channel),
	)
	return token, nil
}

// Validate resolves a token to its session.
//
// Errors:
//   - "" → apperror.AuthMissing
//   - unknown token → apperror.SessionNotFound
//   - expired token → apperror.SessionNotFound, only with EnforceExpiry
func (s *TokenService) Validate(ctx context.Context, value string) (*model.Session, error) {
	if value == "" {
		return nil, apperror.AuthMissing()
	}

	token, err := s.lookup(ctx, value)
	if err != nil {
		return nil, err
	}

	return &model.Session{
		Token:          token.Token,
		User:           token.User,
		Channel:        token.Channel,
		Timezone:       token.Timezone,
		TimezoneOffset: token.TimezoneOffset,
		Location:       Location(token.Timezone, token.TimezoneOffset),
	}, nil
}

// Redeem checks a token presented on the auth link. Without EnforceExpiry
// every token is redeemable, even one that was never issued: the link just
// plants the cookie and the API calls do the real validation.
func (s *TokenService) Redeem(ctx context.Context, value string) error {
	if !s.config.EnforceExpiry {
		return nil
	}
	_, err := s.lookup(ctx, value)
	return err
}

// List returns every stored token (debug surfaces only).
func (s *TokenService) List(ctx context.Context) ([]model.Token, error) {
	return s.tokens.ListTokens(ctx)
}

func (s *TokenService) lookup(ctx context.Context, value string) (*model.Token, error) {
	token, err := s.tokens.GetToken(ctx, value)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.SessionNotFound()
		}
		return nil, fmt.Errorf("looking up token: %w", err)
	}

	if token.Expired(s.now()) {
		if s.config.EnforceExpiry {
			return nil, apperror.SessionNotFound()
		}
		s.logger.Debug("accepting expired token", slog.String("user", token.User))
	}
	return token, nil
}

// LinkURL is the address a token is redeemed at: http://<host>/team/auth/<token>.
func LinkURL(host, token string) string {
	return "http://" + host + "/team/auth/" + token
}

// NewToken returns a cryptographically random, URL-safe token string.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("auth: generating token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Location resolves a session's timezone: the IANA name if it loads, else a
// fixed zone from the offset, else UTC.
func Location(name string, offsetMinutes int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if offsetMinutes != 0 {
		sign, m := '+', offsetMinutes
		if m < 0 {
			sign, m = '-', -m
		}
		return time.FixedZone(fmt.Sprintf("UTC%c%02d:%02d", sign, m/60, m%60), offsetMinutes*60)
	}
	return time.UTC
}
