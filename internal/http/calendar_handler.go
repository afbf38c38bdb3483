package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/scanventory/internal/application"
	"github.com/example/scanventory/internal/calendar"
)

type calendarService interface {
	MonthLayout(ctx context.Context, params application.MonthLayoutParams) (application.MonthView, error)
}

// CalendarHandler serves laid out month views.
type CalendarHandler struct {
	service   calendarService
	responder responder
	logger    *slog.Logger
}

// NewCalendarHandler constructs a calendar handler.
func NewCalendarHandler(service calendarService, logger *slog.Logger) *CalendarHandler {
	logger = defaultLogger(logger)
	return &CalendarHandler{service: service, responder: newResponder(logger), logger: logger}
}

// Month handles GET /calendar?month=YYYY-MM&width=N.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	params := application.MonthLayoutParams{Month: strings.TrimSpace(query.Get("month"))}
	if raw := strings.TrimSpace(query.Get("width")); raw != "" {
		width, err := strconv.Atoi(raw)
		if err != nil {
			handlerLogger(ctx, h.logger, "CalendarHandler", "Month").WarnContext(ctx, "invalid width", "width", raw, "error_kind", "bad_request")
			h.responder.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: statusMessage(http.StatusUnprocessableEntity),
				Errors:  map[string]string{"width": "must be an integer"},
			})
			return
		}
		params.Width = width
	}

	view, err := h.service.MonthLayout(ctx, params)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toMonthDTO(view))
}

type eventDTO struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	MultiDay bool      `json:"multi_day"`
}

type segmentDTO struct {
	Event       int `json:"event"`
	StartColumn int `json:"start_column"`
	EndColumn   int `json:"end_column"`
}

type weekDTO struct {
	Start         string         `json:"start"`
	Lanes         [][]segmentDTO `json:"lanes"`
	SinglesPerDay []int          `json:"singles_per_day"`
	Height        int            `json:"height"`
}

type monthDTO struct {
	Month    string     `json:"month"`
	Viewport string     `json:"viewport"`
	Height   int        `json:"height"`
	Events   []eventDTO `json:"events"`
	Weeks    []weekDTO  `json:"weeks"`
}

func toMonthDTO(view application.MonthView) monthDTO {
	loc := view.Month.Location()
	dto := monthDTO{
		Month:    view.Month.Format("2006-01"),
		Viewport: string(view.Layout.Tunables.Class),
		Height:   view.Layout.Height,
		Events:   make([]eventDTO, 0, len(view.Events)),
		Weeks:    make([]weekDTO, 0, len(view.Layout.Weeks)),
	}
	for _, ev := range view.Events {
		dto.Events = append(dto.Events, eventDTO{
			ID:       ev.ID,
			Title:    ev.Title,
			Start:    ev.Start,
			End:      ev.End,
			MultiDay: calendar.IsMultiDay(ev, loc),
		})
	}
	for _, week := range view.Layout.Weeks {
		wd := weekDTO{
			Start:         week.Week.Start.Format(time.DateOnly),
			Lanes:         make([][]segmentDTO, 0, len(week.Lanes)),
			SinglesPerDay: week.SinglesPerDay[:],
			Height:        week.Height,
		}
		for _, lane := range week.Lanes {
			segments := make([]segmentDTO, 0, len(lane))
			for _, seg := range lane {
				segments = append(segments, segmentDTO{Event: seg.EventIndex, StartColumn: seg.StartColumn, EndColumn: seg.EndColumn})
			}
			wd.Lanes = append(wd.Lanes, segments)
		}
		dto.Weeks = append(dto.Weeks, wd)
	}
	return dto
}
