package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/kingrea/qstorm/internal/question"
	"github.com/kingrea/qstorm/internal/session"
	"github.com/kingrea/qstorm/internal/store"
)

const collapsedPreview = 2

var (
	accentColor  = lipgloss.Color("#5B8DEF")
	paradoxColor = lipgloss.Color("#B388FF")
	dangerColor  = lipgloss.Color("#FF6B6B")
	starColor    = lipgloss.Color("#F7B801")
	mutedColor   = lipgloss.Color("#888888")
	borderColor  = lipgloss.Color("#444444")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(dangerColor)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle   = lipgloss.NewStyle().Foreground(dangerColor)
	starStyle    = lipgloss.NewStyle().Foreground(starColor).Bold(true)
	badgeStyle   = lipgloss.NewStyle().Foreground(paradoxColor).Bold(true)
	timerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4CAF50"))
	urgentStyle  = lipgloss.NewStyle().Bold(true).Foreground(dangerColor)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)
)

// View renders the current phase. It reads state and never changes it.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	contentWidth := max(20, width-4)

	var body string
	switch {
	case a.showHelp:
		body = a.renderGuide()
	default:
		switch a.machine.Phase() {
		case session.PhaseSetup:
			body = a.renderSetup()
		case session.PhaseStorming:
			body = a.renderStorming()
		case session.PhaseReview:
			body = a.renderReview()
		case session.PhaseAnalysis:
			body = a.renderAnalysis()
		case session.PhaseHistory:
			body = a.renderHistory()
		}
	}
	if a.confirm != nil {
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", a.renderConfirm())
	}

	sections := []string{
		a.renderHeader(),
		boxStyle.Width(contentWidth).Render(body),
	}
	if panel := a.renderLogPanel(contentWidth); panel != "" {
		sections = append(sections, panel)
	}
	if a.statusMsg != "" {
		sections = append(sections, mutedStyle.Render(a.statusMsg))
	}
	sections = append(sections, a.help.ShortHelpView(a.keys.bindingsFor(a.machine.Phase())))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a *App) renderHeader() string {
	s := a.machine.Session()
	title := titleStyle.Render("⬡ QUESTION STORMING")
	phase := mutedStyle.Render(" · " + s.Phase.FriendlyName())
	if s.IsParadoxMode && s.Phase != session.PhaseSetup {
		phase += "  " + badgeStyle.Render("PARADOX")
	}
	return title + phase + "\n"
}

func (a *App) renderSetup() string {
	paradox := "off"
	if a.paradoxOn {
		paradox = badgeStyle.Render("on")
	}
	lines := []string{
		sectionStyle.Render("What's the challenge?"),
		a.scenarioInput.View(),
		"",
		sectionStyle.Render("Duration (seconds)"),
		a.durationInput.View(),
		"",
		fmt.Sprintf("Paradox mode: %s", paradox),
	}
	if a.paradoxOn {
		lines = append(lines, mutedStyle.Render("Constraints rotate while you storm; \"if\", \"could\", \"would\" and \"should\" count as question words."))
	}
	if a.setupErr != "" {
		lines = append(lines, "", errorStyle.Render(a.setupErr))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderStorming() string {
	s := a.machine.Session()
	clock := timerStyle
	if a.machine.Urgent(a.config.UrgencyThreshold()) {
		clock = urgentStyle
	}
	lines := []string{
		fmt.Sprintf("%s  %s", clock.Render(a.machine.Clock()), mutedStyle.Render(truncate(s.Scenario, 70))),
	}
	if c, ok := a.machine.ActiveConstraint(); ok {
		lines = append(lines, badgeStyle.Render("Constraint: ")+c)
	}
	lines = append(lines, "", a.questionInput.View())
	if a.inputErr != "" {
		lines = append(lines, errorStyle.Render(a.inputErr))
	}
	lines = append(lines, "")
	if len(s.Questions) == 0 {
		lines = append(lines, mutedStyle.Render("Questions only. No answers, no debate."))
	}
	for i := len(s.Questions) - 1; i >= 0; i-- {
		lines = append(lines, fmt.Sprintf("%02d. %s", i+1, s.Questions[i].Text))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderReview() string {
	s := a.machine.Session()
	lines := []string{
		sectionStyle.Render("Time's Up!"),
		mutedStyle.Render("Challenge: " + s.Scenario),
		"",
	}
	if len(s.Questions) == 0 {
		lines = append(lines, "You didn't generate any questions this round.")
		return strings.Join(lines, "\n")
	}
	lines = append(lines, fmt.Sprintf("Pick your top questions · %d / %d Starred", s.StarredCount(), session.MaxStars), "")
	for i, q := range s.Questions {
		cursor := "  "
		if i == a.cursor {
			cursor = "› "
		}
		mark := "☆"
		text := q.Text
		if q.Starred {
			mark = starStyle.Render("★")
			text = starStyle.Render(text)
		}
		line := fmt.Sprintf("%s%s %02d. %s", cursor, mark, i+1, text)
		if q.ParadoxConstraint != "" {
			line += mutedStyle.Render("  [" + q.ParadoxConstraint + "]")
		}
		lines = append(lines, line)
	}
	if a.notice != "" {
		lines = append(lines, "", errorStyle.Render(a.notice))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderAnalysis() string {
	s := a.machine.Session()
	report := session.Analyze(s, a.validator)
	lines := []string{
		sectionStyle.Render("Audit Report"),
		mutedStyle.Render("Challenge: " + s.Scenario),
		"",
		fmt.Sprintf("Questions: %d   Starred: %d", report.Total, report.Starred),
		fmt.Sprintf("Average length: %.1f chars   Pace: %.1f / min", report.AverageLength, report.PerMinute),
	}
	if len(report.LeadWords) > 0 {
		lines = append(lines, "", sectionStyle.Render("Lead words"))
		for _, c := range report.LeadWords {
			lines = append(lines, fmt.Sprintf("  %-8s %d", c.Label, c.N))
		}
	}
	if len(report.Constraints) > 0 {
		lines = append(lines, "", sectionStyle.Render("Per constraint"))
		for _, c := range report.Constraints {
			lines = append(lines, fmt.Sprintf("  %3d  %s", c.N, c.Label))
		}
	}
	if starred := s.Starred(); len(starred) > 0 {
		lines = append(lines, "", sectionStyle.Render("Top questions"))
		for i, q := range starred {
			lines = append(lines, starStyle.Render(fmt.Sprintf("  %d. %s", i+1, q.Text)))
		}
	}
	if a.notice != "" {
		lines = append(lines, "", mutedStyle.Render(a.notice))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderHistory() string {
	lines := []string{sectionStyle.Render(fmt.Sprintf("History (%d)", len(a.records))), ""}
	switch {
	case a.historyLoading:
		lines = append(lines, mutedStyle.Render("Loading sessions..."))
	case len(a.records) == 0 && a.historyErr == "":
		lines = append(lines, mutedStyle.Render("No saved sessions yet."))
	}
	for i, rec := range a.records {
		lines = append(lines, a.renderRecord(rec, i == a.historyCursor))
	}
	if a.historyErr != "" {
		lines = append(lines, "", errorStyle.Render(a.historyErr))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderRecord(rec store.Record, selected bool) string {
	cursor := "  "
	if selected {
		cursor = "› "
	}
	head := fmt.Sprintf("%s%s  %s", cursor, rec.Scenario, mutedStyle.Render(fmt.Sprintf("%d questions · %s", len(rec.Questions), humanize.Time(rec.CreatedAt))))
	if rec.IsParadox {
		head += "  " + badgeStyle.Render("PARADOX")
	}
	lines := []string{head}
	shown := rec.Questions
	if !a.expanded[rec.ID] && len(shown) > collapsedPreview {
		shown = shown[:collapsedPreview]
	}
	for _, q := range shown {
		mark := " "
		if q.Starred {
			mark = starStyle.Render("★")
		}
		lines = append(lines, fmt.Sprintf("     %s %s", mark, q.Text))
	}
	if hidden := len(rec.Questions) - len(shown); hidden > 0 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("     ... %d more", hidden)))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderConfirm() string {
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(dangerColor).
		Padding(0, 1).
		Render(a.confirm.prompt + "  " + mutedStyle.Render("y → confirm    n → cancel"))
}

func (a *App) renderGuide() string {
	leads := strings.Join(question.DefaultLeadWords, ", ")
	steps := []string{
		sectionStyle.Render("How it works"),
		"",
		"1. Describe the challenge you are stuck on.",
		"2. Storm: write as many questions as you can before the clock runs out.",
		"   Each entry must end with \"?\" or start with " + leads + ".",
		"3. Review: star the three questions that open the most doors.",
		"4. Audit the report, export it, or start another round.",
		"",
		mutedStyle.Render("Press any key to close."),
	}
	return strings.Join(steps, "\n")
}

func (a *App) renderLogPanel(width int) string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(logPanelSize)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := sectionStyle.Render(fmt.Sprintf("LOG · %s (%d)", fileName, total))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return boxStyle.Width(width).Render(fmt.Sprintf("%s\n%s", head, body))
}
