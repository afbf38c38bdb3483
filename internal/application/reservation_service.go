package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/scanventory/internal/booking"
	"github.com/example/scanventory/internal/gateway"
)

// ReservationBackend captures the backend operations needed by the service.
type ReservationBackend interface {
	ListReservations(ctx context.Context) ([]gateway.Reservation, error)
	CreateManualReservation(ctx context.Context, req gateway.ManualReservationRequest) error
	UpdateReservation(ctx context.Context, id int64, req gateway.UpdateReservationRequest) error
	DeleteReservation(ctx context.Context, id int64) error
}

// ReservationServiceConfig wires a ReservationService.
type ReservationServiceConfig struct {
	Backend  ReservationBackend
	CacheTTL time.Duration
	Location *time.Location
	Now      func() time.Time
	Logger   *slog.Logger
}

// ReservationService lists and edits reservations on behalf of web users.
type ReservationService struct {
	backend  ReservationBackend
	cache    *reservationCache
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// NewReservationService constructs a reservation service.
func NewReservationService(cfg ReservationServiceConfig) *ReservationService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &ReservationService{
		backend:  cfg.Backend,
		cache:    newReservationCache(cfg.CacheTTL, now),
		location: loc,
		now:      now,
		logger:   defaultLogger(cfg.Logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// Invalidate drops the cached listing. The station calls it after every
// successful commit.
func (s *ReservationService) Invalidate() {
	if s == nil {
		return
	}
	s.cache.Invalidate()
}

// All returns every reservation, served from cache while fresh.
func (s *ReservationService) All(ctx context.Context) ([]Reservation, error) {
	if s == nil || s.backend == nil {
		return nil, fmt.Errorf("reservation backend not configured")
	}
	if cached, ok := s.cache.Get(); ok {
		return cached, nil
	}
	generation := s.cache.Generation()
	reservations, err := s.backend.ListReservations(ctx)
	if err != nil {
		return nil, mapBackendError(err)
	}
	if !s.cache.Store(generation, reservations) {
		s.loggerWith(ctx, "All").DebugContext(ctx, "listing invalidated during fetch, not cached")
	}
	return cloneReservations(reservations), nil
}

// ListReservations returns reservations matching the filter sorted by start.
func (s *ReservationService) ListReservations(ctx context.Context, params ListReservationsParams) (reservations []Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListReservations", "filter", string(params.Filter))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "reservations listed", "count", len(reservations))
	}()

	filter := params.Filter
	if filter == "" {
		filter = FilterAll
	}
	if _, ok := ParseReservationFilter(string(filter)); !ok {
		vErr := &ValidationError{}
		vErr.add("filter", "must be one of today, active, future, past, all")
		err = vErr
		return
	}

	var all []Reservation
	all, err = s.All(ctx)
	if err != nil {
		return
	}

	reservations = FilterReservations(all, filter, s.now(), s.location)
	return
}

// FilterReservations keeps the reservations matching filter at now and sorts
// them by start, then ID.
func FilterReservations(all []Reservation, filter ReservationFilter, now time.Time, loc *time.Location) []Reservation {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	out := make([]Reservation, 0, len(all))
	for _, res := range all {
		keep := false
		switch filter {
		case FilterActive:
			keep = res.Active(now)
		case FilterFuture:
			keep = res.Start.After(now)
		case FilterPast:
			keep = res.End.Before(now)
		case FilterToday:
			keep = res.Start.Before(dayEnd) && !res.End.Before(dayStart)
		default:
			keep = true
		}
		if keep {
			out = append(out, res)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// CheckConflicts lists reservations of the same tool overlapping the range.
// The backend remains the authority; the check only warns web users early.
func (s *ReservationService) CheckConflicts(ctx context.Context, params ConflictCheckParams) (conflicts []Conflict, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CheckConflicts", "tool", params.ToolCode)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to check conflicts", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "conflicts checked", "count", len(conflicts))
	}()

	vErr := validateManualInput(ManualReservationInput{ToolCode: params.ToolCode, Start: params.Start, End: params.End})
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var all []Reservation
	all, err = s.All(ctx)
	if err != nil {
		return
	}
	conflicts = booking.DetectConflicts(all, booking.Candidate{
		ReservationID: params.ExcludeID,
		ToolCode:      params.ToolCode,
		Start:         params.Start,
		End:           params.End,
	})
	return
}

// CreateManualReservation books a tool for the user behind the bearer token.
func (s *ReservationService) CreateManualReservation(ctx context.Context, params CreateManualReservationParams) (err error) {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}

	logger := s.loggerWith(ctx, "CreateManualReservation",
		"principal_id", params.Principal.UserID,
		"tool", params.Input.ToolCode,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation created")
	}()

	if params.Principal.Token == "" {
		err = ErrUnauthorized
		return
	}
	vErr := validateManualInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if s.backend == nil {
		err = fmt.Errorf("reservation backend not configured")
		return
	}

	err = s.backend.CreateManualReservation(gateway.WithBearerToken(ctx, params.Principal.Token), gateway.ManualReservationRequest{
		ToolCode: strings.TrimSpace(params.Input.ToolCode),
		Start:    params.Input.Start,
		End:      params.Input.End,
		Note:     strings.TrimSpace(params.Input.Note),
	})
	if err != nil {
		err = mapBackendError(err)
		return
	}
	s.cache.Invalidate()
	return
}

// UpdateReservation edits the range and note of a reservation.
func (s *ReservationService) UpdateReservation(ctx context.Context, params UpdateReservationParams) (err error) {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}

	logger := s.loggerWith(ctx, "UpdateReservation",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation updated")
	}()

	if params.Principal.Token == "" {
		err = ErrUnauthorized
		return
	}
	vErr := &ValidationError{}
	if params.ReservationID <= 0 {
		vErr.add("id", "must be a positive integer")
	}
	vErr.merge(validateRange(params.Start, params.End))
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if s.backend == nil {
		err = fmt.Errorf("reservation backend not configured")
		return
	}

	err = s.backend.UpdateReservation(gateway.WithBearerToken(ctx, params.Principal.Token), params.ReservationID, gateway.UpdateReservationRequest{
		Start: params.Start,
		End:   params.End,
		Note:  strings.TrimSpace(params.Note),
	})
	if err != nil {
		err = mapBackendError(err)
		return
	}
	s.cache.Invalidate()
	return
}

// DeleteReservation removes a reservation.
func (s *ReservationService) DeleteReservation(ctx context.Context, params DeleteReservationParams) (err error) {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteReservation",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation deleted")
	}()

	if params.Principal.Token == "" {
		err = ErrUnauthorized
		return
	}
	if params.ReservationID <= 0 {
		vErr := &ValidationError{}
		vErr.add("id", "must be a positive integer")
		err = vErr
		return
	}
	if s.backend == nil {
		err = fmt.Errorf("reservation backend not configured")
		return
	}

	err = s.backend.DeleteReservation(gateway.WithBearerToken(ctx, params.Principal.Token), params.ReservationID)
	if err != nil {
		err = mapBackendError(err)
		return
	}
	s.cache.Invalidate()
	return
}

func validateManualInput(input ManualReservationInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.ToolCode) == "" {
		vErr.add("tool", "tool is required")
	}
	vErr.merge(validateRange(input.Start, input.End))
	return vErr
}

func validateRange(start, end time.Time) *ValidationError {
	vErr := &ValidationError{}
	if start.IsZero() {
		vErr.add("start", "start is required")
	}
	if end.IsZero() {
		vErr.add("end", "end is required")
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		vErr.add("end", "end must be after start")
	}
	return vErr
}

// mapBackendError keeps gateway errors inspectable and adds the service
// sentinels for not found, unauthorized and unreachable backends.
func mapBackendError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gateway.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, gateway.ErrUnauthorized):
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case errors.Is(err, gateway.ErrTransport):
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	return err
}
