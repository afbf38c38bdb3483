package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/scanventory/internal/scan"
	"github.com/example/scanventory/internal/session"
)

type stationService interface {
	Submit(ctx context.Context, text string) error
	FeedKeys(ctx context.Context, events []scan.KeyEvent) (int, error)
	Snapshot() session.Snapshot
}

// StationHandler exposes the scan session to kiosk front ends.
type StationHandler struct {
	station   stationService
	responder responder
	logger    *slog.Logger
}

// NewStationHandler constructs a station handler.
func NewStationHandler(station stationService, logger *slog.Logger) *StationHandler {
	logger = defaultLogger(logger)
	return &StationHandler{
		station:   station,
		responder: newResponder(logger),
		logger:    logger,
	}
}

func (h *StationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "StationHandler", operation, attrs...)
}

// Session handles GET /session.
func (h *StationHandler) Session(w http.ResponseWriter, r *http.Request) {
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSessionDTO(h.station.Snapshot()))
}

// Scan handles POST /scans.
func (h *StationHandler) Scan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.log(ctx, "Scan")

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body", "error", err, "error_kind", "bad_request")
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if err := h.station.Submit(ctx, req.Token); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusAccepted, acceptedResponse{Tokens: 1})
}

// Keys handles POST /keys.
func (h *StationHandler) Keys(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.log(ctx, "Keys")

	var req keysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body", "error", err, "error_kind", "bad_request")
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	events := make([]scan.KeyEvent, 0, len(req.Events))
	for _, ev := range req.Events {
		events = append(events, scan.KeyEvent{Key: ev.Key, Code: ev.Code, KeyCode: ev.KeyCode, At: ev.At})
	}

	queued, err := h.station.FeedKeys(ctx, events)
	if err != nil {
		logger.WarnContext(ctx, "key burst partially queued", "queued", queued, "error", err)
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusAccepted, acceptedResponse{Tokens: queued})
}

type scanRequest struct {
	Token string `json:"token"`
}

type keyEventDTO struct {
	Key     string    `json:"key"`
	Code    string    `json:"code"`
	KeyCode int       `json:"key_code"`
	At      time.Time `json:"at"`
}

type keysRequest struct {
	Events []keyEventDTO `json:"events"`
}

type acceptedResponse struct {
	Tokens int `json:"tokens"`
}

type partyDTO struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type durationChoiceDTO struct {
	Days  int       `json:"days"`
	Token string    `json:"token"`
	Until time.Time `json:"until"`
}

type sessionDTO struct {
	Version         uint64              `json:"version"`
	State           string              `json:"state"`
	User            *partyDTO           `json:"user,omitempty"`
	Tool            *partyDTO           `json:"tool,omitempty"`
	DurationDays    int                 `json:"duration_days,omitempty"`
	ReturnMode      bool                `json:"return_mode"`
	Countdown       int                 `json:"countdown"`
	Message         string              `json:"message,omitempty"`
	Tone            string              `json:"tone,omitempty"`
	DurationChoices []durationChoiceDTO `json:"duration_choices,omitempty"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func toSessionDTO(snap session.Snapshot) sessionDTO {
	dto := sessionDTO{
		Version:      snap.Version,
		State:        snap.State.String(),
		DurationDays: snap.Draft.DurationDays,
		ReturnMode:   snap.ReturnMode,
		Countdown:    snap.Countdown,
		Message:      snap.Message,
		Tone:         string(snap.Tone),
		UpdatedAt:    snap.UpdatedAt,
	}
	if u := snap.Draft.User; u != nil {
		dto.User = &partyDTO{Code: u.Code, Name: u.DisplayName()}
	}
	if t := snap.Draft.Tool; t != nil {
		dto.Tool = &partyDTO{Code: t.Code, Name: t.Name}
	}
	for _, choice := range snap.DurationChoices {
		dto.DurationChoices = append(dto.DurationChoices, durationChoiceDTO{
			Days:  choice.Days,
			Token: choice.Token,
			Until: choice.Until,
		})
	}
	return dto
}
