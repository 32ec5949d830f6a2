package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/teamrsvp/internal/apperror"
	"github.com/sakif/teamrsvp/internal/auth"
)

// AuthHandler turns a chat-issued link into a browser session.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRedeem → plant the token cookie and send the browser to the app
//   - HandleList   → debug only: every outstanding token with its link
type AuthHandler struct {
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(tokens *auth.TokenService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		tokens: tokens,
		logger: logger,
	}
}

// tokenLink is one row of the debug token listing.
type tokenLink struct {
	User    string `json:"user"`
	Channel string `json:"channel"`
	Token   string `json:"token"`
	URL     string `json:"url"`
}

// HandleRedeem stores the token in a cookie scoped to /team and redirects
// to the app, which copies the cookie into its Authorization header.
//
// HTTP: GET /team/auth/{token}
//
// This route is hit by a browser, not the front-end, so failures are plain
// text rather than JSON:
//   - 410 "Token Expired" (only when expiry is enforced)
//   - 500 "Ooops, something went horribly wrong.."
func (h *AuthHandler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	h.logger.Debug("redeeming token", slog.String("path", r.URL.Path))

	if err := h.tokens.Redeem(r.Context(), token); err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			http.Error(w, "Token Expired", http.StatusGone)
			return
		}
		h.logger.Error("failed to redeem token", slog.String("error", err.Error()))
		if wr, ok := w.(writtenReporter); !ok || !wr.Written() {
			http.Error(w, "Ooops, something went horribly wrong..", http.StatusInternalServerError)
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:  auth.CookieName,
		Value: token,
		Path:  "/team",
	})
	http.Redirect(w, r, "/team/", http.StatusFound)
}

// HandleList returns every stored token with a ready-made link. It is only
// routed when the server runs in debug mode.
//
// HTTP: GET /team/auth
func (h *AuthHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.tokens.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	links := make([]tokenLink, 0, len(tokens))
	for _, t := range tokens {
		links = append(links, tokenLink{
			User:    t.User,
			Channel: t.Channel,
			Token:   t.Token,
			URL:     auth.LinkURL(r.Host, t.Token),
		})
	}
	writeJSON(w, http.StatusOK, links)
}
