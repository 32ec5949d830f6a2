package slack

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	slackgo "github.com/slack-go/slack"
)

var ErrBadSignature = errors.New("slack: invalid request signature")

// Command is a parsed slash-command invocation.
type Command = slackgo.SlashCommand

// ParseCommand reads a slash-command form from r. When signingSecret is set
// the body must carry a valid v0 signature no older than five minutes,
// otherwise the returned error wraps ErrBadSignature.
func ParseCommand(r *http.Request, signingSecret string) (Command, error) {
	if signingSecret == "" {
		return slackgo.SlashCommandParse(r)
	}

	verifier, err := slackgo.NewSecretsVerifier(r.Header, signingSecret)
	if err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrBadSignature, err)
	}
	r.Body = io.NopCloser(io.TeeReader(r.Body, &verifier))

	cmd, err := slackgo.SlashCommandParse(r)
	if err != nil {
		return Command{}, err
	}
	if err := verifier.Ensure(); err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrBadSignature, err)
	}
	return cmd, nil
}
