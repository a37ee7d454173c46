// internal/tui/app.go
//
// This is the terminal front-end for qstorm. It uses bubbletea, which follows
// The Elm Architecture:
//
// 1. Model: the App below, wrapping the session state machine
// 2. Update: applies one message (key press, timer tick, store result)
// 3. View: renders the current phase to a string
//
// bubbletea hands messages to Update one at a time, so the state machine has
// exactly one caller and needs no locking.

package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/qstorm/internal/config"
	"github.com/kingrea/qstorm/internal/logbook"
	"github.com/kingrea/qstorm/internal/question"
	"github.com/kingrea/qstorm/internal/session"
	"github.com/kingrea/qstorm/internal/store"
)

const (
	tickInterval = time.Second
	logPanelSize = 5
)

type setupField int

const (
	fieldScenario setupField = iota
	fieldDuration
)

// Ticker schedules a message after d. tea.Tick in production.
type Ticker func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithGateway sets the store finished sessions are written to.
func WithGateway(gw store.Gateway) AppOption {
	return func(a *App) {
		a.gateway = gw
	}
}

// WithSlot overrides the state slot. The default is a file under .qstorm/state.
func WithSlot(slot session.Slot) AppOption {
	return func(a *App) {
		if slot != nil {
			a.slot = slot
		}
	}
}

// WithLogbook sets the journey log.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		a.logbook = lb
	}
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) AppOption {
	return func(a *App) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithTicker overrides tea.Tick so tests can deliver ticks by hand.
func WithTicker(t Ticker) AppOption {
	return func(a *App) {
		if t != nil {
			a.ticker = t
		}
	}
}

// WithIDGenerator overrides how question and storm ids are minted.
func WithIDGenerator(newID func() string) AppOption {
	return func(a *App) {
		a.newID = newID
	}
}

type tickMsg struct{ stormID string }

type rotateMsg struct{ stormID string }

type sessionSavedMsg struct {
	scenario string
	err      error
}

type historyLoadedMsg struct {
	records []store.Record
	err     error
}

type sessionDeletedMsg struct {
	id  string
	err error
}

type exportDoneMsg struct {
	path string
	err  error
}

// confirmation is a pending destructive action waiting on y/n.
type confirmation struct {
	prompt string
	action func() tea.Cmd
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	config    *config.Config
	machine   *session.Machine
	validator *question.Validator
	slot      session.Slot
	gateway   store.Gateway
	logbook   *logbook.Logbook
	clock     func() time.Time
	ticker    Ticker
	newID     func() string

	keys keyMap
	help help.Model

	// setup
	scenarioInput textinput.Model
	durationInput textinput.Model
	paradoxOn     bool
	focus         setupField
	setupErr      string

	// storming
	questionInput textinput.Model
	inputErr      string

	// review
	cursor     int
	notice     string
	lastExport string

	// history
	records        []store.Record
	historyLoading bool
	historyCursor  int
	expanded       map[string]bool
	historyErr     string

	confirm   *confirmation
	showHelp  bool
	statusMsg string

	width  int
	height int
}

// NewApp creates the model and restores the session left in the state slot.
func NewApp(cfg *config.Config, opts ...AppOption) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("tui: config is required")
	}
	app := &App{
		config:   cfg,
		slot:     session.NewFileSlot(cfg.StatePath()),
		clock:    time.Now,
		ticker:   tea.Tick,
		keys:     defaultKeyMap(),
		help:     help.New(),
		expanded: map[string]bool{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.validator = question.NewValidator(cfg.Project.Questions.LeadWords, cfg.Project.Questions.ParadoxLeadWords)
	app.machine = session.NewMachine(session.Options{
		Validator:       app.validator,
		Constraints:     cfg.Constraints(),
		DefaultDuration: cfg.DefaultDuration(),
		NewID:           app.newID,
	})

	app.scenarioInput = textinput.New()
	app.scenarioInput.Placeholder = "e.g., Key Word Sign is not widely known"
	app.scenarioInput.CharLimit = 500
	app.scenarioInput.Prompt = "› "

	app.durationInput = textinput.New()
	app.durationInput.CharLimit = 4
	app.durationInput.Prompt = "› "

	app.questionInput = textinput.New()
	app.questionInput.Placeholder = "Type your question..."
	app.questionInput.CharLimit = 280
	app.questionInput.Prompt = "? "

	restored, err := session.Load(app.slot, cfg.DefaultDuration())
	if err != nil {
		app.logWarn("Saved session discarded: %v", err)
	}
	app.machine.Restore(restored)
	app.syncInputs()
	app.logInfo("Session opened · phase: %s", app.machine.Phase().FriendlyName())
	return app, nil
}

// Machine exposes the state machine for the CLI and tests.
func (a *App) Machine() *session.Machine {
	return a.machine
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	switch a.machine.Phase() {
	case session.PhaseStorming:
		cmds = append(cmds, a.stormCmds())
	case session.PhaseHistory:
		cmds = append(cmds, a.loadHistory())
	}
	return tea.Batch(cmds...)
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		inputWidth := max(20, msg.Width-12)
		a.scenarioInput.Width = inputWidth
		a.questionInput.Width = inputWidth
		a.help.Width = msg.Width
		return a, nil

	case tickMsg:
		return a.handleTick(msg)

	case rotateMsg:
		if !a.machine.Rotate(msg.stormID) {
			return a, nil
		}
		a.persist()
		if c, ok := a.machine.ActiveConstraint(); ok {
			a.logInfo("Paradox constraint · %s", c)
		}
		return a, a.rotateCmd(msg.stormID)

	case sessionSavedMsg:
		if msg.err != nil {
			a.storeLog().Error("Session %q not saved: %v", msg.scenario, msg.err)
		} else {
			a.storeLog().Info("Session %q saved to history", msg.scenario)
		}
		return a, nil

	case historyLoadedMsg:
		a.historyLoading = false
		if msg.err != nil {
			a.historyErr = "Could not load history"
			a.storeLog().Error("History load failed: %v", msg.err)
			return a, nil
		}
		a.historyErr = ""
		a.records = msg.records
		if a.historyCursor >= len(a.records) {
			a.historyCursor = max(0, len(a.records)-1)
		}
		return a, nil

	case sessionDeletedMsg:
		if msg.err != nil {
			a.historyErr = "Failed to delete session"
			a.storeLog().Error("Delete %s failed: %v", msg.id, msg.err)
			return a, nil
		}
		a.removeRecord(msg.id)
		a.statusMsg = "Session deleted"
		a.storeLog().Info("Deleted %s", msg.id)
		return a, nil

	case exportDoneMsg:
		if msg.err != nil {
			a.notice = "Export failed"
			a.logError("Export failed: %v", msg.err)
			return a, nil
		}
		a.lastExport = msg.path
		a.notice = fmt.Sprintf("Exported to %s", msg.path)
		a.logInfo("Exported %s", msg.path)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, a.updateFocusedInput(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.Quit) {
		return a, tea.Quit
	}
	if a.confirm != nil {
		return a.handleConfirmKey(msg)
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}
	if key.Matches(msg, a.keys.Help) {
		a.showHelp = true
		return a, nil
	}

	switch a.machine.Phase() {
	case session.PhaseSetup:
		return a.handleSetupKey(msg)
	case session.PhaseStorming:
		return a.handleStormingKey(msg)
	case session.PhaseReview:
		return a.handleReviewKey(msg)
	case session.PhaseAnalysis:
		return a.handleAnalysisKey(msg)
	case session.PhaseHistory:
		return a.handleHistoryKey(msg)
	}
	return a, nil
}

func (a *App) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Confirm):
		pending := a.confirm
		a.confirm = nil
		return a, pending.action()
	case key.Matches(msg, a.keys.Cancel):
		a.confirm = nil
		a.statusMsg = "Cancelled"
	}
	return a, nil
}

// ---- setup ----

func (a *App) handleSetupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Submit):
		return a.startStorm()
	case key.Matches(msg, a.keys.NextField):
		return a, a.toggleSetupFocus()
	case key.Matches(msg, a.keys.Paradox):
		a.paradoxOn = !a.paradoxOn
		return a, nil
	case key.Matches(msg, a.keys.History):
		return a.openHistory()
	}
	if a.focus == fieldDuration && msg.Type == tea.KeyRunes && !digitsOnly(msg.Runes) {
		return a, nil
	}
	a.setupErr = ""
	return a, a.updateFocusedInput(msg)
}

func (a *App) toggleSetupFocus() tea.Cmd {
	if a.focus == fieldScenario {
		a.focus = fieldDuration
		a.scenarioInput.Blur()
		return a.durationInput.Focus()
	}
	a.focus = fieldScenario
	a.durationInput.Blur()
	return a.scenarioInput.Focus()
}

func (a *App) startStorm() (tea.Model, tea.Cmd) {
	duration := a.machine.DefaultDuration()
	if raw := strings.TrimSpace(a.durationInput.Value()); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			a.setupErr = "Duration must be a number of seconds"
			return a, nil
		}
		duration = parsed
	}
	err := a.machine.Start(a.scenarioInput.Value(), a.paradoxOn, duration)
	switch {
	case errors.Is(err, session.ErrEmptyScenario):
		a.setupErr = "Describe the challenge first"
		return a, nil
	case errors.Is(err, session.ErrDurationOutOfRange):
		a.setupErr = "Duration must be between 10 and 3600 seconds"
		return a, nil
	case err != nil:
		a.setupErr = err.Error()
		return a, nil
	}
	s := a.machine.Session()
	a.setupErr = ""
	a.inputErr = ""
	a.persist()
	a.logInfo("Storm started · %q · %ds · paradox=%t", s.Scenario, s.Duration, s.IsParadoxMode)
	a.syncInputs()
	return a, tea.Batch(a.stormCmds(), a.questionInput.Focus())
}

func (a *App) openHistory() (tea.Model, tea.Cmd) {
	if err := a.machine.OpenHistory(); err != nil {
		return a, nil
	}
	a.persist()
	a.logInfo("History opened")
	a.historyCursor = 0
	a.expanded = map[string]bool{}
	a.syncInputs()
	return a, a.loadHistory()
}

// ---- storming ----

func (a *App) handleStormingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Reset):
		return a.requestReset()
	case key.Matches(msg, a.keys.Submit):
		return a.submitQuestion()
	}
	a.inputErr = ""
	return a, a.updateFocusedInput(msg)
}

func (a *App) submitQuestion() (tea.Model, tea.Cmd) {
	_, err := a.machine.Submit(a.questionInput.Value())
	switch {
	case errors.Is(err, question.ErrEmpty):
		return a, nil
	case errors.Is(err, question.ErrNotAQuestion):
		a.inputErr = question.RejectionMessage
		return a, nil
	case err != nil:
		a.inputErr = err.Error()
		return a, nil
	}
	a.inputErr = ""
	a.questionInput.Reset()
	a.persist()
	a.logInfo("Question #%d captured", len(a.machine.Session().Questions))
	return a, nil
}

func (a *App) handleTick(msg tickMsg) (tea.Model, tea.Cmd) {
	snapshot, ended := a.machine.Tick(msg.stormID)
	if ended {
		a.persist()
		a.cursor = 0
		a.notice = ""
		a.syncInputs()
		a.logInfo("Time's up · %d question(s) captured", len(snapshot.Questions))
		return a, a.saveSession(snapshot)
	}
	if !a.machine.Active(msg.stormID) {
		// tick from a storm that already ended or was reset
		return a, nil
	}
	a.persist()
	return a, a.tickCmd(msg.stormID)
}

// stormCmds starts the two periodic chains of the active storm.
func (a *App) stormCmds() tea.Cmd {
	s := a.machine.Session()
	if s.StormID == "" {
		return nil
	}
	cmds := []tea.Cmd{a.tickCmd(s.StormID)}
	if s.IsParadoxMode {
		cmds = append(cmds, a.rotateCmd(s.StormID))
	}
	return tea.Batch(cmds...)
}

func (a *App) tickCmd(stormID string) tea.Cmd {
	return a.ticker(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{stormID: stormID}
	})
}

func (a *App) rotateCmd(stormID string) tea.Cmd {
	return a.ticker(a.config.RotationInterval(), func(time.Time) tea.Msg {
		return rotateMsg{stormID: stormID}
	})
}

// saveSession fires the single history insert for a finished storm. The
// state machine does not wait on it; the result only reaches the logbook.
func (a *App) saveSession(snapshot session.Session) tea.Cmd {
	if a.gateway == nil {
		a.storeLog().Warn("No history store configured; session not saved")
		return nil
	}
	gw := a.gateway
	rec := store.RecordFromSession(snapshot, a.clock())
	timeout := a.config.SaveTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return sessionSavedMsg{scenario: rec.Scenario, err: gw.InsertSession(ctx, rec)}
	}
}

// ---- review ----

func (a *App) handleReviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	qs := a.machine.Session().Questions
	switch {
	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(msg, a.keys.Down):
		if a.cursor < len(qs)-1 {
			a.cursor++
		}
	case key.Matches(msg, a.keys.Star):
		if len(qs) == 0 {
			return a, nil
		}
		a.toggleStar(qs[a.cursor].ID)
	case key.Matches(msg, a.keys.Export):
		return a, a.exportCmd()
	case key.Matches(msg, a.keys.Analysis):
		if err := a.machine.Proceed(); err == nil {
			a.persist()
			a.logInfo("Audit report opened")
		}
	case key.Matches(msg, a.keys.NewSession), key.Matches(msg, a.keys.Reset):
		return a.requestReset()
	}
	return a, nil
}

func (a *App) toggleStar(id string) {
	err := a.machine.ToggleStar(id)
	switch {
	case errors.Is(err, session.ErrStarLimit):
		a.notice = fmt.Sprintf("Unstar one first (%d/%d starred)", session.MaxStars, session.MaxStars)
		return
	case err != nil:
		a.notice = err.Error()
		return
	}
	a.notice = ""
	a.persist()
}

func (a *App) exportCmd() tea.Cmd {
	snapshot := a.machine.Session()
	dir := a.config.ExportDir()
	now := a.clock()
	return func() tea.Msg {
		path, err := session.WriteExport(dir, snapshot, now)
		return exportDoneMsg{path: path, err: err}
	}
}

// ---- analysis ----

func (a *App) handleAnalysisKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.ReviewBack):
		if err := a.machine.Back(); err == nil {
			a.persist()
		}
	case key.Matches(msg, a.keys.Export):
		return a, a.exportCmd()
	case key.Matches(msg, a.keys.NewSession), key.Matches(msg, a.keys.Reset):
		return a.requestReset()
	}
	return a, nil
}

// ---- history ----

func (a *App) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.HistoryBack):
		return a.reset()
	case key.Matches(msg, a.keys.Up):
		if a.historyCursor > 0 {
			a.historyCursor--
		}
	case key.Matches(msg, a.keys.Down):
		if a.historyCursor < len(a.records)-1 {
			a.historyCursor++
		}
	case key.Matches(msg, a.keys.Expand):
		if rec, ok := a.selectedRecord(); ok {
			a.expanded[rec.ID] = !a.expanded[rec.ID]
		}
	case key.Matches(msg, a.keys.Reload):
		return a, a.loadHistory()
	case key.Matches(msg, a.keys.Delete):
		rec, ok := a.selectedRecord()
		if !ok {
			return a, nil
		}
		id := rec.ID
		a.confirm = &confirmation{
			prompt: fmt.Sprintf("Delete the session %q? This cannot be undone.", truncate(rec.Scenario, 60)),
			action: func() tea.Cmd { return a.deleteCmd(id) },
		}
	}
	return a, nil
}

func (a *App) selectedRecord() (store.Record, bool) {
	if a.historyCursor < 0 || a.historyCursor >= len(a.records) {
		return store.Record{}, false
	}
	return a.records[a.historyCursor], true
}

func (a *App) loadHistory() tea.Cmd {
	if a.gateway == nil {
		a.historyErr = "History store unavailable"
		return nil
	}
	a.historyLoading = true
	a.historyErr = ""
	gw := a.gateway
	limit := a.config.HistoryLimit()
	return func() tea.Msg {
		records, err := gw.ListSessions(context.Background(), limit)
		return historyLoadedMsg{records: records, err: err}
	}
}

func (a *App) deleteCmd(id string) tea.Cmd {
	if a.gateway == nil {
		return nil
	}
	gw := a.gateway
	return func() tea.Msg {
		return sessionDeletedMsg{id: id, err: gw.DeleteSession(context.Background(), id)}
	}
}

func (a *App) removeRecord(id string) {
	kept := a.records[:0]
	for _, rec := range a.records {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	a.records = kept
	delete(a.expanded, id)
	if a.historyCursor >= len(a.records) {
		a.historyCursor = max(0, len(a.records)-1)
	}
}

// ---- reset ----

// requestReset asks before throwing away an active session.
func (a *App) requestReset() (tea.Model, tea.Cmd) {
	a.confirm = &confirmation{
		prompt: "Discard this session and start over?",
		action: func() tea.Cmd {
			_, cmd := a.reset()
			return cmd
		},
	}
	return a, nil
}

func (a *App) reset() (tea.Model, tea.Cmd) {
	from := a.machine.Phase()
	a.machine.Reset()
	a.persist()
	a.logInfo("Reset from %s", from.FriendlyName())
	a.paradoxOn = false
	a.cursor = 0
	a.notice = ""
	a.inputErr = ""
	a.setupErr = ""
	a.lastExport = ""
	a.records = nil
	a.historyErr = ""
	a.scenarioInput.Reset()
	a.durationInput.Reset()
	a.questionInput.Reset()
	a.focus = fieldScenario
	a.syncInputs()
	return a, nil
}

// ---- shared helpers ----

// persist writes the session to the state slot. Failures are logged; the
// session keeps running from memory.
func (a *App) persist() {
	if err := session.Save(a.slot, a.machine.Session()); err != nil {
		a.logError("State slot write failed: %v", err)
	}
}

// syncInputs matches input focus and contents to the current phase.
func (a *App) syncInputs() {
	s := a.machine.Session()
	a.scenarioInput.Blur()
	a.durationInput.Blur()
	a.questionInput.Blur()
	switch s.Phase {
	case session.PhaseSetup:
		if a.scenarioInput.Value() == "" && s.Scenario != "" {
			a.scenarioInput.SetValue(s.Scenario)
		}
		if a.durationInput.Value() == "" {
			a.durationInput.SetValue(strconv.Itoa(s.Duration))
		}
		if a.focus == fieldDuration {
			a.durationInput.Focus()
		} else {
			a.scenarioInput.Focus()
		}
	case session.PhaseStorming:
		a.questionInput.Focus()
	}
}

func (a *App) updateFocusedInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.machine.Phase() {
	case session.PhaseSetup:
		if a.focus == fieldDuration {
			a.durationInput, cmd = a.durationInput.Update(msg)
		} else {
			a.scenarioInput, cmd = a.scenarioInput.Update(msg)
		}
	case session.PhaseStorming:
		a.questionInput, cmd = a.questionInput.Update(msg)
	}
	return cmd
}

func (a *App) storeLog() logbook.Scoped {
	return a.logbook.Scope("store")
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

func digitsOnly(runes []rune) bool {
	for _, r := range runes {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
