package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/scanventory/internal/application"
)

type reservationService interface {
	ListReservations(ctx context.Context, params application.ListReservationsParams) ([]application.Reservation, error)
	CreateManualReservation(ctx context.Context, params application.CreateManualReservationParams) error
	UpdateReservation(ctx context.Context, params application.UpdateReservationParams) error
	DeleteReservation(ctx context.Context, params application.DeleteReservationParams) error
	CheckConflicts(ctx context.Context, params application.ConflictCheckParams) ([]application.Conflict, error)
}

// ReservationHandler lists and edits reservations for web users.
type ReservationHandler struct {
	service   reservationService
	responder responder
	logger    *slog.Logger
}

// NewReservationHandler constructs a reservation handler.
func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	logger = defaultLogger(logger)
	return &ReservationHandler{service: service, responder: newResponder(logger), logger: logger}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

// List handles GET /reservations?filter=.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := strings.TrimSpace(r.URL.Query().Get("filter"))
	filter, ok := application.ParseReservationFilter(raw)
	if !ok {
		h.log(ctx, "List").WarnContext(ctx, "unknown filter", "filter", raw, "error_kind", "bad_request")
		h.responder.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: statusMessage(http.StatusUnprocessableEntity),
			Errors:  map[string]string{"filter": "must be one of today, active, future, past, all"},
		})
		return
	}

	reservations, err := h.service.ListReservations(ctx, application.ListReservationsParams{Filter: filter})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	resp := make([]reservationDTO, 0, len(reservations))
	for _, res := range reservations {
		resp = append(resp, toReservationDTO(res))
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, resp)
}

// Conflicts handles GET /reservations/conflicts?tool=&start=&end=&exclude=.
func (h *ReservationHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	params := application.ConflictCheckParams{ToolCode: strings.TrimSpace(query.Get("tool"))}
	fieldErrors := map[string]string{}
	for field, dst := range map[string]*time.Time{"start": &params.Start, "end": &params.End} {
		raw := strings.TrimSpace(query.Get(field))
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			fieldErrors[field] = "must be an RFC 3339 timestamp"
			continue
		}
		*dst = parsed
	}
	if raw := strings.TrimSpace(query.Get("exclude")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			fieldErrors["exclude"] = "must be a positive integer"
		}
		params.ExcludeID = id
	}
	if len(fieldErrors) > 0 {
		h.log(ctx, "Conflicts").WarnContext(ctx, "invalid conflict query", "error_kind", "bad_request")
		h.responder.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: statusMessage(http.StatusUnprocessableEntity),
			Errors:  fieldErrors,
		})
		return
	}

	conflicts, err := h.service.CheckConflicts(ctx, params)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	resp := make([]conflictDTO, 0, len(conflicts))
	for _, c := range conflicts {
		resp = append(resp, conflictDTO{
			ReservationID: c.WithReservationID,
			Tool:          c.ToolCode,
			Borrower:      c.Borrower,
			Start:         c.Start,
			End:           c.End,
		})
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, resp)
}

// CreateManual handles POST /reservations/manual.
func (h *ReservationHandler) CreateManual(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		h.responder.handleServiceError(ctx, w, application.ErrUnauthorized)
		return
	}
	logger := h.log(ctx, "CreateManual")

	var req manualReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body", "error", err, "error_kind", "bad_request")
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	err := h.service.CreateManualReservation(ctx, application.CreateManualReservationParams{
		Principal: principal,
		Input: application.ManualReservationInput{
			ToolCode: req.Tool,
			Start:    req.Start,
			End:      req.End,
			Note:     req.Note,
		},
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusCreated, createdResponse{Status: "created"})
}

// Update handles PATCH /reservations/{id}.
func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		h.responder.handleServiceError(ctx, w, application.ErrUnauthorized)
		return
	}
	id, ok := h.reservationID(ctx, w)
	if !ok {
		return
	}
	logger := h.log(ctx, "Update", "reservation_id", id)

	var req updateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body", "error", err, "error_kind", "bad_request")
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	err := h.service.UpdateReservation(ctx, application.UpdateReservationParams{
		Principal:     principal,
		ReservationID: id,
		Start:         req.Start,
		End:           req.End,
		Note:          req.Note,
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusNoContent, nil)
}

// Delete handles DELETE /reservations/{id}.
func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		h.responder.handleServiceError(ctx, w, application.ErrUnauthorized)
		return
	}
	id, ok := h.reservationID(ctx, w)
	if !ok {
		return
	}

	if err := h.service.DeleteReservation(ctx, application.DeleteReservationParams{Principal: principal, ReservationID: id}); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusNoContent, nil)
}

func (h *ReservationHandler) reservationID(ctx context.Context, w http.ResponseWriter) (int64, bool) {
	raw, _ := ReservationIDFromContext(ctx)
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errInvalidReservation)
		return 0, false
	}
	return id, true
}

type manualReservationRequest struct {
	Tool  string    `json:"tool"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Note  string    `json:"note"`
}

type updateReservationRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Note  string    `json:"note"`
}

type conflictDTO struct {
	ReservationID int64     `json:"reservation_id"`
	Tool          string    `json:"tool"`
	Borrower      string    `json:"borrower"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
}

type createdResponse struct {
	Status string `json:"status"`
}

type reservationDTO struct {
	ID    int64     `json:"id"`
	User  partyDTO  `json:"user"`
	Tool  partyDTO  `json:"tool"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Note  string    `json:"note,omitempty"`
}

func toReservationDTO(res application.Reservation) reservationDTO {
	return reservationDTO{
		ID:    res.ID,
		User:  partyDTO{Code: res.User.Code, Name: res.User.PersonLabel()},
		Tool:  partyDTO{Code: res.Tool.Code, Name: res.Tool.ItemLabel()},
		Start: res.Start,
		End:   res.End,
		Note:  res.Note,
	}
}
