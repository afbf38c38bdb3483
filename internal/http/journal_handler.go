package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/scanventory/internal/application"
)

type journalService interface {
	List(ctx context.Context, query application.JournalQuery) ([]application.JournalEntry, error)
}

// JournalHandler serves the station activity journal.
type JournalHandler struct {
	service   journalService
	responder responder
	logger    *slog.Logger
}

// NewJournalHandler constructs a journal handler.
func NewJournalHandler(service journalService, logger *slog.Logger) *JournalHandler {
	logger = defaultLogger(logger)
	return &JournalHandler{service: service, responder: newResponder(logger), logger: logger}
}

// List handles GET /journal?limit=&kind=&tool=&since=.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	q := application.JournalQuery{
		Kind:     strings.TrimSpace(query.Get("kind")),
		ToolCode: strings.TrimSpace(query.Get("tool")),
	}
	fieldErrors := map[string]string{}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			fieldErrors["limit"] = "must be a non-negative integer"
		}
		q.Limit = limit
	}
	if raw := strings.TrimSpace(query.Get("since")); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			fieldErrors["since"] = "must be an RFC 3339 timestamp"
		}
		q.Since = &since
	}
	if len(fieldErrors) > 0 {
		handlerLogger(ctx, h.logger, "JournalHandler", "List").WarnContext(ctx, "invalid journal query", "error_kind", "bad_request")
		h.responder.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: statusMessage(http.StatusUnprocessableEntity),
			Errors:  fieldErrors,
		})
		return
	}

	entries, err := h.service.List(ctx, q)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	resp := make([]journalEntryDTO, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, journalEntryDTO{
			ID:           entry.ID,
			Kind:         entry.Kind,
			UserCode:     entry.UserCode,
			ToolCode:     entry.ToolCode,
			DurationDays: entry.DurationDays,
			Outcome:      string(entry.Outcome),
			Message:      entry.Message,
			RecordedAt:   entry.RecordedAt,
		})
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, resp)
}

type journalEntryDTO struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	UserCode     string    `json:"user_code,omitempty"`
	ToolCode     string    `json:"tool_code,omitempty"`
	DurationDays int       `json:"duration_days,omitempty"`
	Outcome      string    `json:"outcome"`
	Message      string    `json:"message,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}
