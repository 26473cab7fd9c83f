package cockpit

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"carf/cmd/carf/ui"
	"carf/internal/format"
	"carf/internal/types"
)

// ---------------------------------------------------------------------------
// Query wizard
// ---------------------------------------------------------------------------

// wizardIntent is one guided query template. The subject typed in step two is
// substituted into the template; the free-form intent passes it through.
type wizardIntent struct {
	name     string
	template string
}

var wizardIntents = []wizardIntent{
	{"Causal effect", "What is the causal effect of %s, and how robust is the estimate?"},
	{"Reduce uncertainty", "What do we know about %s, and which probe would reduce uncertainty the most?"},
	{"Policy check", "Is %s within policy, and does it require human approval?"},
	{"Free form", "%s"},
}

const (
	wizardStepIntent = iota
	wizardStepSubject
)

type wizardState struct {
	step    int
	intent  int
	subject string
}

// updateWizard handles keys while the query wizard overlay is open.
func (m Model) updateWizard(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	w := &m.wizard
	switch key.String() {
	case "esc":
		if w.step == wizardStepSubject {
			w.step = wizardStepIntent
			w.subject = ""
			return m, nil
		}
		m.overlay = OverlayNone
		m.wizard = wizardState{}
		return m, nil

	case "enter":
		if w.step != wizardStepSubject {
			return m, nil
		}
		subject := strings.TrimSpace(w.subject)
		if subject == "" {
			return m, nil
		}
		query := fmt.Sprintf(wizardIntents[w.intent].template, subject)
		m.overlay = OverlayNone
		m.wizard = wizardState{}
		return m.submitQuery(query)

	case "backspace":
		if w.step == wizardStepSubject && len(w.subject) > 0 {
			runes := []rune(w.subject)
			w.subject = string(runes[:len(runes)-1])
		}
		return m, nil
	}

	if w.step == wizardStepIntent {
		if key.Type == tea.KeyRunes && len(key.Runes) == 1 {
			idx := int(key.Runes[0] - '1')
			if idx >= 0 && idx < len(wizardIntents) {
				w.intent = idx
				w.step = wizardStepSubject
			}
		}
		return m, nil
	}

	if key.Type == tea.KeyRunes {
		w.subject += string(key.Runes)
	} else if key.Type == tea.KeySpace {
		w.subject += " "
	}
	return m, nil
}

func (m Model) renderWizard(width int) string {
	s := m.styles
	w := m.wizard

	if w.step == wizardStepIntent {
		var b strings.Builder
		b.WriteString(s.Title.Render("Query Wizard") + "\n\n")
		b.WriteString(s.Muted.Render("What do you want to find out?") + "\n\n")
		for i, intent := range wizardIntents {
			fmt.Fprintf(&b, "  %s %s\n", s.Badge.Render(fmt.Sprintf("%d", i+1)), s.Body.Render(intent.name))
		}
		b.WriteString("\n" + s.Muted.Render("press a number to choose · esc close"))
		return b.String()
	}

	intent := wizardIntents[w.intent]
	preview := fmt.Sprintf(intent.template, strings.TrimSpace(w.subject))
	lines := []string{
		s.Title.Render("Query Wizard · " + intent.name),
		"",
		s.Muted.Render("Subject:"),
		s.Body.Render(ui.WrapText(w.subject+"▏", width-6)),
		"",
		s.Muted.Render("Query preview:"),
		s.Bold.Render(ui.WrapText(preview, width-6)),
		"",
		s.Muted.Render("enter submit · esc back"),
	}
	return strings.Join(lines, "\n")
}

// ---------------------------------------------------------------------------
// File analysis
// ---------------------------------------------------------------------------

// fileDigestLimit bounds how much of a picked file is read for the digest.
const fileDigestLimit = 64 << 10

type fileAnalysisState struct {
	path string
}

// updateFileAnalysis handles keys while the file analysis overlay is open.
func (m Model) updateFileAnalysis(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.fileAnalysis
	switch key.String() {
	case "esc":
		m.overlay = OverlayNone
		f.path = ""
		return m, nil
	case "enter":
		path := strings.TrimSpace(f.path)
		if path == "" {
			return m, nil
		}
		m.overlay = OverlayNone
		f.path = ""
		return m, analyzeFileCmd(path)
	case "backspace":
		if len(f.path) > 0 {
			runes := []rune(f.path)
			f.path = string(runes[:len(runes)-1])
		}
	default:
		if key.Type == tea.KeyRunes {
			f.path += string(key.Runes)
		} else if key.Type == tea.KeySpace {
			f.path += " "
		}
	}
	return m, nil
}

// analyzeFileCmd reads a bounded prefix of the file and summarizes it; the
// resulting digest becomes a query against the active scenario.
func analyzeFileCmd(path string) tea.Cmd {
	return func() tea.Msg {
		file, err := os.Open(path)
		if err != nil {
			return fileDigestMsg{path: path, err: err}
		}
		defer file.Close()

		msg := fileDigestMsg{path: path}
		scanner := bufio.NewScanner(io.LimitReader(file, fileDigestLimit))
		for scanner.Scan() {
			line := scanner.Text()
			msg.lines++
			msg.bytes += int64(len(line)) + 1
			if msg.head == "" && strings.TrimSpace(line) != "" {
				msg.head = ui.Truncate(strings.TrimSpace(line), 120)
			}
		}
		if err := scanner.Err(); err != nil {
			return fileDigestMsg{path: path, err: err}
		}
		return msg
	}
}

func (m Model) renderFileAnalysis(width int) string {
	s := m.styles
	lines := []string{
		s.Title.Render("Analyze a File"),
		"",
		s.Muted.Render("The file is read locally; a short digest is sent as a query."),
		"",
		s.Muted.Render("Path:"),
		s.Body.Render(ui.WrapText(m.fileAnalysis.path+"▏", width-6)),
		"",
		s.Muted.Render("enter analyze · esc cancel"),
	}
	return strings.Join(lines, "\n")
}

// ---------------------------------------------------------------------------
// Simulation arena
// ---------------------------------------------------------------------------

// renderArena shows the pinned baseline and the current result side by side.
// A baseline is pinned from the history overlay with "c".
func (m Model) renderArena(width int) string {
	s := m.styles
	colWidth := (width - 8) / 2

	column := func(label string, resp *types.QueryResponse) string {
		rows := []string{s.PanelTitle.Render(label)}
		if resp == nil {
			rows = append(rows, s.EmptyState.Render("no result"))
			return lipgloss.NewStyle().Width(colWidth).Render(strings.Join(rows, "\n"))
		}
		rows = append(rows,
			s.DomainStyle(resp.Domain).Render(resp.Domain.Title())+"  "+s.Muted.Render("conf ")+format.SafePercentage(resp.DomainConfidence))
		if resp.Causal != nil {
			rows = append(rows, s.Muted.Render("effect ")+format.FormatEffect(resp.Causal.Effect)+
				s.Muted.Render(fmt.Sprintf("  refutations %d/%d", resp.Causal.RefutationsPassed, resp.Causal.RefutationsTotal)))
		}
		if resp.Bayesian != nil {
			rows = append(rows, s.Muted.Render("probe ")+ui.Truncate(resp.Bayesian.RecommendedProbe, colWidth-8))
		}
		if resp.Guardian != nil {
			rows = append(rows, s.Muted.Render("guardian ")+resp.Guardian.OverallStatus)
		}
		rows = append(rows, "", s.Body.Render(ui.WrapText(ui.Truncate(resp.Response, 220), colWidth)))
		return lipgloss.NewStyle().Width(colWidth).Render(strings.Join(rows, "\n"))
	}

	var baseline *types.QueryResponse
	if m.compareWith != nil {
		baseline = m.compareWith.Response
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		column("Baseline", baseline),
		"    ",
		column("Current", m.queryResponse))

	hint := "esc close"
	if m.compareWith == nil {
		hint = "pin a baseline from history (ctrl+h, then c) · esc close"
	}
	return strings.Join([]string{
		s.Title.Render("Simulation Arena"),
		"",
		body,
		"",
		s.Muted.Render(hint),
	}, "\n")
}

// updateArena handles keys while the arena overlay is open.
func (m Model) updateArena(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc":
		m.overlay = OverlayNone
	case "ctrl+h":
		// Jump straight to history to pin a baseline.
		m.overlay = OverlayHistory
		return m, m.loadHistoryCmd()
	}
	return m, nil
}

// digestQuery turns a file digest into the query text submitted on its
// behalf.
func digestQuery(msg fileDigestMsg) string {
	name := filepath.Base(msg.path)
	if msg.head == "" {
		return fmt.Sprintf("Analyze the uploaded data extract %s (%d lines, %d bytes).", name, msg.lines, msg.bytes)
	}
	return fmt.Sprintf("Analyze the uploaded data extract %s (%d lines, %d bytes). It begins with: %s",
		name, msg.lines, msg.bytes, msg.head)
}
