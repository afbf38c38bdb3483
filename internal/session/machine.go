package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/message"

	"github.com/example/scanventory/internal/gateway"
	"github.com/example/scanventory/internal/scan"
)

const (
	// DefaultReturnWindow is how long return mode stays armed.
	DefaultReturnWindow = 15 * time.Second
	// DefaultReturnTick is the countdown granularity of return mode.
	DefaultReturnTick = time.Second
	// DefaultInfoDisplay is how long a tool info message stays visible.
	DefaultInfoDisplay = 20 * time.Second

	displayTimeLayout = "02.01.2006 15:04"
	maxUpcomingShown  = 2
)

// DefaultDurationChoices are the loan lengths offered after a tool scan.
var DefaultDurationChoices = []int{1, 2, 3, 4, 5}

// Gateway is the subset of the reservation backend the session drives.
type Gateway interface {
	FindUserByCode(ctx context.Context, code string) (gateway.User, error)
	FindToolByCode(ctx context.Context, code string) (gateway.Tool, error)
	FetchToolInfo(ctx context.Context, code string) (gateway.ToolInfo, error)
	CreateReservation(ctx context.Context, req gateway.CreateReservationRequest) error
	ReturnTool(ctx context.Context, toolCode string) error
}

// Journal receives every commit attempt.
type Journal interface {
	RecordCommit(ctx context.Context, record CommitRecord) error
}

// MachineConfig wires a Machine.
type MachineConfig struct {
	Gateway         Gateway
	Clock           Clock
	Dispatch        func(func())
	Location        *time.Location
	Locale          string
	ReturnWindow    time.Duration
	ReturnTick      time.Duration
	InfoDisplay     time.Duration
	DurationChoices []int
	Journal         Journal
	OnCommitted     func()
	OnReload        func()
	OnChange        func()
	Logger          *slog.Logger
}

// Machine is the scan session state machine. All methods must be called from
// a single goroutine; Station provides that goroutine.
type Machine struct {
	gateway     Gateway
	clock       Clock
	location    *time.Location
	printer     *message.Printer
	choices     []int
	journal     Journal
	onCommitted func()
	onReload    func()
	onChange    func()
	logger      *slog.Logger

	returnTimer *Countdown
	infoTimer   *Countdown

	state      State
	draft      Draft
	returnMode bool
	message    string
	tone       Tone
	offered    []DurationChoice
	version    uint64
	updatedAt  time.Time
}

// NewMachine validates the configuration and returns an idle machine.
func NewMachine(cfg MachineConfig) (*Machine, error) {
	if cfg.Gateway == nil {
		return nil, errors.New("session: gateway is required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	window := cfg.ReturnWindow
	if window <= 0 {
		window = DefaultReturnWindow
	}
	tick := cfg.ReturnTick
	if tick <= 0 {
		tick = DefaultReturnTick
	}
	info := cfg.InfoDisplay
	if info <= 0 {
		info = DefaultInfoDisplay
	}
	choices := cfg.DurationChoices
	if len(choices) == 0 {
		choices = DefaultDurationChoices
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &Machine{
		gateway:     cfg.Gateway,
		clock:       clock,
		location:    loc,
		printer:     NewPrinter(cfg.Locale),
		choices:     append([]int(nil), choices...),
		journal:     cfg.Journal,
		onCommitted: cfg.OnCommitted,
		onReload:    cfg.OnReload,
		onChange:    cfg.OnChange,
		logger:      logger.With("component", "session"),
		returnTimer: NewCountdown(clock, cfg.Dispatch, window, tick),
		infoTimer:   NewCountdown(clock, cfg.Dispatch, info, 0),
	}
	m.returnTimer.OnTick(func(int) { m.changed() })
	m.returnTimer.OnExpire(m.expireReturnMode)
	m.infoTimer.OnExpire(m.expireInfo)
	m.message = m.printer.Sprintf(msgScanUser)
	m.tone = ToneInfo
	m.updatedAt = clock.Now()
	return m, nil
}

// Handle applies one scanned token.
func (m *Machine) Handle(ctx context.Context, token scan.Token) {
	cmd := scan.Classify(token.Text)
	logger := m.logger.With("command", cmd.Kind.String(), "state", m.state.String())

	switch cmd.Kind {
	case scan.CommandUnknown:
		logger.DebugContext(ctx, "scan ignored", "token", cmd.Raw)
		return
	case scan.CommandCancel:
		m.cancel()
	case scan.CommandReload:
		logger.InfoContext(ctx, "reload requested")
		if m.onReload != nil {
			m.onReload()
		}
		return
	case scan.CommandReturn:
		m.armReturn()
	case scan.CommandUser:
		m.selectUser(ctx, cmd.Code)
	case scan.CommandTool:
		m.handleTool(ctx, cmd.Code)
	case scan.CommandDuration:
		m.selectDuration(ctx, cmd)
	}
	m.changed()
}

// Snapshot copies the current session.
func (m *Machine) Snapshot() Snapshot {
	snap := Snapshot{
		Version:    m.version,
		State:      m.state,
		ReturnMode: m.returnMode,
		Countdown:  m.returnTimer.Remaining(),
		Message:    m.message,
		Tone:       m.tone,
		UpdatedAt:  m.updatedAt,
		Draft:      Draft{DurationDays: m.draft.DurationDays},
	}
	if m.draft.User != nil {
		user := *m.draft.User
		snap.Draft.User = &user
	}
	if m.draft.Tool != nil {
		tool := *m.draft.Tool
		snap.Draft.Tool = &tool
	}
	if len(m.offered) > 0 {
		snap.DurationChoices = append([]DurationChoice(nil), m.offered...)
	}
	return snap
}

// Shutdown stops every pending timer.
func (m *Machine) Shutdown() {
	m.returnTimer.Stop()
	m.infoTimer.Stop()
}

func (m *Machine) cancel() {
	m.returnTimer.Stop()
	m.returnMode = false
	m.reset()
	m.say(ToneError, m.printer.Sprintf(msgCancelled))
}

func (m *Machine) armReturn() {
	m.reset()
	m.returnMode = true
	m.state = StateReturnArmed
	m.returnTimer.Arm()
	m.say(ToneSuccess, m.printer.Sprintf(msgReturnArmed))
}

func (m *Machine) expireReturnMode() {
	m.returnMode = false
	m.reset()
	m.say(ToneError, m.printer.Sprintf(msgReturnExpired))
	m.logger.Info("return mode expired")
	m.changed()
}

func (m *Machine) expireInfo() {
	m.message = m.printer.Sprintf(msgScanUserFirst)
	m.tone = ToneInfo
	m.changed()
}

func (m *Machine) selectUser(ctx context.Context, code string) {
	if m.returnMode {
		m.returnTimer.Stop()
		m.returnMode = false
		m.state = StateIdle
	}

	user, err := m.gateway.FindUserByCode(ctx, code)
	if err != nil {
		m.logger.WarnContext(ctx, "user lookup failed", "code", code, "error", err)
		m.say(ToneError, m.printer.Sprintf(msgUserNotFound, code))
		return
	}

	m.draft = Draft{User: &user}
	m.offered = nil
	m.state = StateAwaitingTool
	m.say(ToneSuccess, m.printer.Sprintf(msgUserFound, user.DisplayName(), user.Code))
}

func (m *Machine) handleTool(ctx context.Context, code string) {
	switch {
	case m.returnMode:
		m.returnTool(ctx, code)
	case m.draft.User != nil:
		m.selectTool(ctx, code)
	default:
		m.showToolInfo(ctx, code)
	}
}

func (m *Machine) selectTool(ctx context.Context, code string) {
	tool, err := m.gateway.FindToolByCode(ctx, code)
	if err != nil {
		m.logger.WarnContext(ctx, "tool lookup failed", "code", code, "error", err)
		m.say(ToneError, m.printer.Sprintf(msgToolNotFound, code))
		return
	}

	m.draft.Tool = &tool
	m.draft.DurationDays = 0
	m.offered = m.durationChoices()
	m.state = StateAwaitingDuration

	lines := []string{m.printer.Sprintf(msgToolFound, toolLabel(tool), tool.Code), m.printer.Sprintf(msgChooseDuration)}
	for _, choice := range m.offered {
		lines = append(lines, m.printer.Sprintf(msgDurationChoice, choice.Days, choice.Days, choice.Until.Format(displayTimeLayout)))
	}
	m.say(ToneSuccess, strings.Join(lines, "\n"))
}

func (m *Machine) durationChoices() []DurationChoice {
	now := m.clock.Now()
	out := make([]DurationChoice, 0, len(m.choices))
	for _, days := range m.choices {
		out = append(out, DurationChoice{
			Days:  days,
			Token: fmt.Sprintf("dur%d", days),
			Until: PreviewEnd(now, days, m.location),
		})
	}
	return out
}

func (m *Machine) showToolInfo(ctx context.Context, code string) {
	info, err := m.gateway.FetchToolInfo(ctx, code)
	if err != nil {
		m.logger.WarnContext(ctx, "tool info lookup failed", "code", code, "error", err)
		m.say(ToneError, m.printer.Sprintf(msgToolNotFound, code))
		return
	}

	status := m.printer.Sprintf(msgStatusFree)
	if info.Tool.IsBorrowed {
		status = m.printer.Sprintf(msgStatusReserved)
	}
	lines := []string{
		m.printer.Sprintf(msgInfoTool, toolLabel(info.Tool)),
		m.printer.Sprintf(msgInfoCode, info.Tool.Code),
		m.printer.Sprintf(msgInfoStatus, status),
	}
	if info.Active != nil {
		lines = append(lines, "", m.printer.Sprintf(msgInfoActive, info.Active.User.FullName()), m.formatRange(info.Active.Start, info.Active.End))
	}
	if len(info.Upcoming) > 0 {
		lines = append(lines, "", m.printer.Sprintf(msgInfoUpcoming))
		for i, upcoming := range info.Upcoming {
			if i >= maxUpcomingShown {
				break
			}
			lines = append(lines, m.printer.Sprintf(msgInfoUpcomingLine, i+1, upcoming.User.FullName(), m.formatRange(upcoming.Start, upcoming.End)))
		}
	}

	m.say(ToneSuccess, strings.Join(lines, "\n"))
	m.infoTimer.Arm()
}

func (m *Machine) formatRange(start, end time.Time) string {
	return start.In(m.location).Format(displayTimeLayout) + " - " + end.In(m.location).Format(displayTimeLayout)
}

func (m *Machine) returnTool(ctx context.Context, code string) {
	m.returnTimer.Stop()
	err := m.gateway.ReturnTool(ctx, code)

	record := CommitRecord{Kind: CommitReturn, ToolCode: code, Succeeded: err == nil, At: m.clock.Now()}
	m.returnMode = false
	m.reset()
	if err != nil {
		m.logger.WarnContext(ctx, "tool return failed", "tool", code, "error", err)
		m.say(ToneError, m.failure(msgReturnFailed, err))
	} else {
		m.say(ToneSuccess, m.printer.Sprintf(msgReturnDone, code))
	}
	record.Message = m.message
	m.commitDone(ctx, record)
}

func (m *Machine) selectDuration(ctx context.Context, cmd scan.Command) {
	if m.state != StateAwaitingDuration || m.draft.User == nil || m.draft.Tool == nil {
		m.say(ToneError, m.printer.Sprintf(msgInvalidScan, cmd.Raw))
		return
	}

	m.draft.DurationDays = cmd.Days
	req := gateway.CreateReservationRequest{
		UserCode:     m.draft.User.Code,
		ToolCode:     m.draft.Tool.Code,
		DurationDays: cmd.Days,
	}
	err := m.gateway.CreateReservation(ctx, req)

	record := CommitRecord{
		Kind:         CommitReservation,
		UserCode:     req.UserCode,
		ToolCode:     req.ToolCode,
		DurationDays: req.DurationDays,
		Succeeded:    err == nil,
		At:           m.clock.Now(),
	}
	m.reset()
	if err != nil {
		m.logger.WarnContext(ctx, "reservation failed", "user", req.UserCode, "tool", req.ToolCode, "days", req.DurationDays, "error", err)
		m.say(ToneError, m.failure(msgReservationFailed, err))
	} else {
		m.logger.InfoContext(ctx, "reservation created", "user", req.UserCode, "tool", req.ToolCode, "days", req.DurationDays)
		m.say(ToneSuccess, m.printer.Sprintf(msgReservationSaved))
	}
	record.Message = m.message
	m.commitDone(ctx, record)
}

func (m *Machine) commitDone(ctx context.Context, record CommitRecord) {
	if record.Succeeded && m.onCommitted != nil {
		m.onCommitted()
	}
	if m.journal == nil {
		return
	}
	if err := m.journal.RecordCommit(ctx, record); err != nil {
		m.logger.ErrorContext(ctx, "journal write failed", "kind", string(record.Kind), "error", err)
	}
}

func (m *Machine) failure(key string, err error) string {
	summary := m.printer.Sprintf(key)
	if reason := gateway.Reason(err); reason != "" {
		return m.printer.Sprintf(msgFailureReason, summary, reason)
	}
	return summary
}

func (m *Machine) reset() {
	m.draft = Draft{}
	m.offered = nil
	m.state = StateIdle
	if m.returnMode {
		m.state = StateReturnArmed
	}
}

func (m *Machine) say(tone Tone, text string) {
	m.infoTimer.Stop()
	m.message = text
	m.tone = tone
}

func (m *Machine) changed() {
	m.version++
	m.updatedAt = m.clock.Now()
	if m.onChange != nil {
		m.onChange()
	}
}

func toolLabel(tool gateway.Tool) string {
	if tool.Name != "" {
		return tool.Name
	}
	return tool.Code
}
