package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/teamrsvp/internal/apperror"
	"github.com/sakif/teamrsvp/internal/auth"
	"github.com/sakif/teamrsvp/internal/model"
	"github.com/sakif/teamrsvp/internal/service"
)

// EventHandler serves the /events API.
//
// HANDLER RESPONSIBILITIES:
//   - HandleList    → the session's projection (channels, events, date picker)
//   - HandleRefresh → the same, keeping the client's visibility flags
//   - HandleCreate / HandleReplace / HandleJoin / HandleLeave / HandleDelete
//
// Every route sits behind auth.RequireSession, so a session is always in
// the request context by the time these run.
type EventHandler struct {
	events *service.EventService
	views  *service.ViewService
	logger *slog.Logger
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(events *service.EventService, views *service.ViewService, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		events: events,
		views:  views,
		logger: logger,
	}
}

// listResponse flattens the view model next to the status field:
// {"status":"ok","token":{...},"datePicker":{...},"channels":[...]}
type listResponse struct {
	Status string `json:"status"`
	*model.ViewModel
}

// formValue accepts either a JSON string or a JSON number. The front-end's
// date picker sends hours as numbers and minutes as strings.
type formValue string

func (v *formValue) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = formValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*v = formValue(n.String())
	return nil
}

type createRequest struct {
	Event struct {
		Name    string    `json:"name"`
		Date    string    `json:"date"`
		Hour    formValue `json:"hour"`
		Minutes formValue `json:"minutes"`
		Period  string    `json:"period"`
		Channel string    `json:"channel"`
	} `json:"event"`
}

type replaceRequest struct {
	Name         string   `json:"name"`
	Timestamp    int64    `json:"timestamp"`
	Participants []string `json:"participants"`
	Alternates   []string `json:"alternates"`
}

type joinRequest struct {
	Type string `json:"type"`
}

type refreshRequest struct {
	Channels []model.ChannelView `json:"channels"`
}

// session pulls the RequireSession result out of the context.
func session(r *http.Request) (*model.Session, error) {
	s, ok := auth.SessionFromContext(r.Context())
	if !ok {
		return nil, apperror.AuthMissing()
	}
	return s, nil
}

// HandleList returns the session's view.
//
// HTTP: GET /team/events
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	s, err := session(r)
	if err != nil {
		writeError(w, err)
		return
	}

	vm, err := h.views.Project(r.Context(), s)
	if err != nil {
		h.logger.Error("failed to project events",
			slog.String("user", s.User),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Status: StatusOK, ViewModel: vm})
}

// HandleRefresh re-projects the view and carries over the "visible" flags
// of the channels and events the client sends back.
//
// HTTP: POST /team/view
// REQUEST BODY: {"channels": [...]} as previously received
func (h *EventHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	s, err := session(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid refresh JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("channels", "malformed request"))
		return
	}

	vm, err := h.views.Refresh(r.Context(), s, req.Channels)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Status: StatusOK, ViewModel: vm})
}

// HandleCreate schedules a new event owned by the session's user.
//
// HTTP: POST /team/events
// REQUEST BODY: {"event":{"name":"Raid","date":"2026-10-18","hour":"9","minutes":"00","period":"PM","channel":"C1"}}
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	s, err := session(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid event JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("event", "malformed event"))
		return
	}

	event, err := h.events.Create(r.Context(), s, service.CreateEventRequest{
		Name:    req.Event.Name,
		Date:    req.Event.Date,
		Hour:    string(req.Event.Hour),
		Minutes: string(req.Event.Minutes),
		Period:  req.Event.Period,
		Channel: req.Event.Channel,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ResultResponse{Status: StatusOK, Result: event, ID: event.ID})
}

// HandleReplace overwrites an event wholesale.
//
// HTTP: PUT /team/events/{id}
// REQUEST BODY: {"name":"...","timestamp":1792314000000,"participants":[...],"alternates":[...]}
func (h *EventHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	s, err := session(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req replaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid replace JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("event", "malformed event"))
		return
	}

	event, err := h.events.Replace(r.Context(), s, chi.URLParam(r, "id"), service.ReplaceEventRequest{
		Name:         req.Name,
		Timestamp:    req.Timestamp,
		Participants: req.Participants,
		Alternates:   req.Alternates,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ResultResponse{Status: StatusOK, Result: event})
}

// HandleJoin adds the session's user to an event.
//
// HTTP: POST /team/events/{id}/join
// REQUEST BODY: {"type":"participant"} (any other type means alternate)
func (h *EventHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	s, err := session(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid join JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("type", "malformed request"))
		return
	}

	event, err := h.events.Join(r.Context(), s, chi.URLParam(r, "id"), req.Type)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ResultResponse{Status: StatusOK, Result: event})
}

// HandleLeave removes the session's user from both RSVP sets.
//
// HTTP: GET /team/events/{id}/leave
func (h *EventHandler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	s, err := session(r)
	if err != nil {
		writeError(w, err)
		return
	}

	event, err := h.events.Leave(r.Context(), s, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ResultResponse{Status: StatusOK, Result: event})
}

// HandleDelete is routed but not implemented; it always answers 501.
//
// HTTP: DELETE /team/events/{id}
func (h *EventHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	s, err := session(r)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("event delete requested", slog.String("id", chi.URLParam(r, "id")))
	if err := h.events.Delete(r.Context(), s, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
