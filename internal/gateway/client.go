package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName         = "github.com/example/scanventory/internal/gateway"
	defaultTimeout     = 10 * time.Second
	maxErrorBodyBytes  = 64 << 10
	idempotencyHeader  = "Idempotency-Key"
	contentTypeJSON    = "application/json"
	authorizationPrefx = "Bearer "
)

// Routes lists the backend paths relative to the base URL. Entries containing
// %s receive the path-escaped code or id.
type Routes struct {
	UserByCode      string
	ToolByCode      string
	ToolInfo        string
	Reservations    string
	Reservation     string
	ReturnTool      string
	ReturnToolAlias string
}

// DefaultRoutes returns the routes of the current backend surface.
func DefaultRoutes() Routes {
	return Routes{
		UserByCode:      "/users/by-code/%s",
		ToolByCode:      "/tools/by-code/%s",
		ToolInfo:        "/tools/%s/info",
		Reservations:    "/reservations",
		Reservation:     "/reservations/%s",
		ReturnTool:      "/reservations/return-tool",
		ReturnToolAlias: "/reservations/return",
	}
}

func (r Routes) withDefaults() Routes {
	def := DefaultRoutes()
	if r.UserByCode == "" {
		r.UserByCode = def.UserByCode
	}
	if r.ToolByCode == "" {
		r.ToolByCode = def.ToolByCode
	}
	if r.ToolInfo == "" {
		r.ToolInfo = def.ToolInfo
	}
	if r.Reservations == "" {
		r.Reservations = def.Reservations
	}
	if r.Reservation == "" {
		r.Reservation = def.Reservation
	}
	if r.ReturnTool == "" {
		r.ReturnTool = def.ReturnTool
	}
	if r.ReturnToolAlias == "" {
		r.ReturnToolAlias = def.ReturnToolAlias
	}
	return r
}

// Config wires a Client.
type Config struct {
	BaseURL           string
	Token             string
	Timeout           time.Duration
	Location          *time.Location
	Routes            Routes
	HTTPClient        *http.Client
	Logger            *slog.Logger
	Tracer            trace.Tracer
	NewIdempotencyKey func() string
}

// Client talks to the reservation backend over JSON/HTTP.
type Client struct {
	base       *url.URL
	token      string
	location   *time.Location
	routes     Routes
	http       *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
	newIdemKey func() string
}

// New validates the configuration and returns a Client.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("gateway: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("gateway: parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("gateway: base URL must be http or https, got %q", base.Scheme)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	newKey := cfg.NewIdempotencyKey
	if newKey == nil {
		newKey = func() string { return uuid.NewString() }
	}

	return &Client{
		base:       base,
		token:      strings.TrimSpace(cfg.Token),
		location:   loc,
		routes:     cfg.Routes.withDefaults(),
		http:       httpClient,
		logger:     logger.With("component", "gateway"),
		tracer:     tracer,
		newIdemKey: newKey,
	}, nil
}

// Routes returns the effective routes.
func (c *Client) Routes() Routes {
	return c.routes
}

type tokenContextKey struct{}

// WithBearerToken returns a context whose gateway calls authenticate with the
// given token instead of the client's configured one.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, strings.TrimSpace(token))
}

func bearerFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey{}).(string)
	return token, ok && token != ""
}

// FindUserByCode resolves a scanned user code.
func (c *Client) FindUserByCode(ctx context.Context, code string) (User, error) {
	var user User
	path := c.route(c.routes.UserByCode, code)
	if err := c.doJSON(ctx, "find_user", http.MethodGet, path, nil, nil, &user); err != nil {
		return User{}, err
	}
	if user.Code == "" {
		user.Code = code
	}
	return user, nil
}

// FindToolByCode resolves a scanned tool code.
func (c *Client) FindToolByCode(ctx context.Context, code string) (Tool, error) {
	var tool Tool
	path := c.route(c.routes.ToolByCode, code)
	if err := c.doJSON(ctx, "find_tool", http.MethodGet, path, nil, nil, &tool); err != nil {
		return Tool{}, err
	}
	if tool.Code == "" {
		tool.Code = code
	}
	return tool, nil
}

// FetchToolInfo returns status, active and upcoming reservations of a tool.
func (c *Client) FetchToolInfo(ctx context.Context, code string) (ToolInfo, error) {
	var wire toolInfoWire
	path := c.route(c.routes.ToolInfo, code)
	if err := c.doJSON(ctx, "tool_info", http.MethodGet, path, nil, nil, &wire); err != nil {
		return ToolInfo{}, err
	}

	info := ToolInfo{Tool: wire.Tool}
	if info.Tool.Code == "" {
		info.Tool.Code = code
	}
	if wire.Active != nil {
		active, err := wire.Active.toInfo(c.location)
		if err != nil {
			return ToolInfo{}, fmt.Errorf("gateway: tool_info active reservation: %w", err)
		}
		info.Active = &active
	}
	for _, item := range wire.Upcoming {
		upcoming, err := item.toInfo(c.location)
		if err != nil {
			return ToolInfo{}, fmt.Errorf("gateway: tool_info upcoming reservation: %w", err)
		}
		info.Upcoming = append(info.Upcoming, upcoming)
	}
	return info, nil
}

// CreateReservation commits a scan-driven loan. Each call carries a fresh
// idempotency key.
func (c *Client) CreateReservation(ctx context.Context, req CreateReservationRequest) error {
	body := createReservationBody{User: req.UserCode, Tool: req.ToolCode, Duration: req.DurationDays}
	headers := http.Header{}
	headers.Set(idempotencyHeader, c.newIdemKey())
	return c.doJSON(ctx, "create_reservation", http.MethodPost, c.routes.Reservations, body, headers, nil)
}

// CreateManualReservation commits a web-form loan for the token's user.
func (c *Client) CreateManualReservation(ctx context.Context, req ManualReservationRequest) error {
	body := manualReservationBody{
		Tool:      req.ToolCode,
		StartTime: req.Start.UTC().Format(time.RFC3339),
		EndTime:   req.End.UTC().Format(time.RFC3339),
		Note:      req.Note,
	}
	headers := http.Header{}
	headers.Set(idempotencyHeader, c.newIdemKey())
	return c.doJSON(ctx, "create_manual_reservation", http.MethodPost, c.routes.Reservations, body, headers, nil)
}

// UpdateReservation edits times and note of a reservation.
func (c *Client) UpdateReservation(ctx context.Context, id int64, req UpdateReservationRequest) error {
	body := updateReservationBody{
		StartTime: req.Start.UTC().Format(time.RFC3339),
		EndTime:   req.End.UTC().Format(time.RFC3339),
		Note:      req.Note,
	}
	path := c.route(c.routes.Reservation, strconv.FormatInt(id, 10))
	return c.doJSON(ctx, "update_reservation", http.MethodPatch, path, body, nil, nil)
}

// DeleteReservation removes a reservation.
func (c *Client) DeleteReservation(ctx context.Context, id int64) error {
	path := c.route(c.routes.Reservation, strconv.FormatInt(id, 10))
	return c.doJSON(ctx, "delete_reservation", http.MethodDelete, path, nil, nil, nil)
}

// ListReservations returns every reservation known to the backend.
func (c *Client) ListReservations(ctx context.Context) ([]Reservation, error) {
	var wire []reservationWire
	if err := c.doJSON(ctx, "list_reservations", http.MethodGet, c.routes.Reservations, nil, nil, &wire); err != nil {
		return nil, err
	}
	if len(wire) == 0 {
		return nil, nil
	}
	out := make([]Reservation, 0, len(wire))
	for _, item := range wire {
		res, err := item.toReservation(c.location)
		if err != nil {
			c.logger.WarnContext(ctx, "skipping undecodable reservation", "reservation_id", item.ID, "error", err)
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

// ReturnTool closes the active loan of a tool by walking ReturnToolLadder.
// The operation fails only once every applicable attempt failed.
func (c *Client) ReturnTool(ctx context.Context, toolCode string) error {
	ctx, span := c.tracer.Start(ctx, "gateway.return_tool", trace.WithAttributes(attribute.String("tool.code", toolCode)))
	defer span.End()

	payload, err := json.Marshal(returnToolBody{Tool: toolCode})
	if err != nil {
		return fmt.Errorf("gateway: encode return body: %w", err)
	}

	last, executed := runLadder(ctx, ReturnToolLadder(c.routes), func(ctx context.Context, attempt Attempt) Outcome {
		return c.execAttempt(ctx, attempt, payload)
	})
	span.SetAttributes(attribute.Int("ladder.attempts", len(executed)))

	if last.OK() {
		c.logger.InfoContext(ctx, "tool returned", "tool", toolCode, "attempts", len(executed), "method", last.Method, "path", last.Path)
		return nil
	}

	var failure error
	if last.Err != nil {
		failure = fmt.Errorf("gateway: return_tool %s %s: %w: %w", last.Method, last.Path, ErrTransport, last.Err)
	} else {
		failure = &APIError{Op: "return_tool", Method: last.Method, Path: last.Path, Status: last.Status, Message: last.Message}
	}
	span.RecordError(failure)
	span.SetStatus(codes.Error, "return ladder exhausted")
	c.logger.WarnContext(ctx, "tool return failed", "tool", toolCode, "attempts", len(executed), "error", failure)
	return failure
}

func (c *Client) execAttempt(ctx context.Context, attempt Attempt, payload []byte) Outcome {
	ctx, span := c.tracer.Start(ctx, "gateway.attempt", trace.WithAttributes(
		attribute.String("http.method", attempt.Method),
		attribute.String("http.route", attempt.Path),
	))
	defer span.End()

	outcome := Outcome{Method: attempt.Method, Path: attempt.Path}
	resp, err := c.send(ctx, attempt.Method, attempt.Path, bytes.NewReader(payload), nil)
	if err != nil {
		outcome.Err = err
		span.RecordError(err)
		return outcome
	}
	defer resp.Body.Close()

	outcome.Status = resp.StatusCode
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if !outcome.OK() {
		outcome.Message = readErrorMessage(resp.Body)
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	c.logger.DebugContext(ctx, "return attempt", "method", attempt.Method, "path", attempt.Path, "status", resp.StatusCode)
	return outcome
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, body any, headers http.Header, out any) error {
	ctx, span := c.tracer.Start(ctx, "gateway."+op, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
	))
	defer span.End()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gateway: %s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	resp, err := c.send(ctx, method, path, reader, headers)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return fmt.Errorf("gateway: %s %s %s: %w: %w", op, method, path, ErrTransport, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Op: op, Method: method, Path: path, Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
		span.SetStatus(codes.Error, apiErr.Error())
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("gateway: %s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, headers http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", contentTypeJSON)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	token := c.token
	if override, ok := bearerFromContext(ctx); ok {
		token = override
	}
	if token != "" {
		req.Header.Set("Authorization", authorizationPrefx+token)
	}
	return c.http.Do(req)
}

func (c *Client) route(pattern, value string) string {
	if !strings.Contains(pattern, "%s") {
		return pattern
	}
	return fmt.Sprintf(pattern, url.PathEscape(value))
}

func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBodyBytes))
	if err != nil || len(data) == 0 {
		return ""
	}
	var parsed errorBody
	if err := json.Unmarshal(data, &parsed); err != nil {
		return ""
	}
	if parsed.Error != "" {
		return parsed.Error
	}
	return parsed.Message
}
