package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"carf/internal/types"
)

// RenderGuardian renders the policy-decision panel.
func RenderGuardian(s Styles, guardian *types.GuardianResult, width int, highlighted PanelID) string {
	if guardian == nil {
		return Panel(s, PanelGuardian, "Guardian",
			s.EmptyState.Render("No policy decision for this query."),
			width, highlighted)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n",
		s.Muted.Render("Status:"),
		guardianStatusStyle(s, guardian.OverallStatus).Render(strings.ToUpper(guardian.OverallStatus)))

	if guardian.ProposedAction != "" {
		fmt.Fprintf(&b, "%s %s\n",
			s.Muted.Render("Proposed:"),
			s.Body.Render(guardian.ProposedAction))
	}
	if guardian.RequiresHumanApproval {
		b.WriteString(s.Warning.Render("⚠ requires human approval") + "\n")
	}

	if len(guardian.Policies) > 0 {
		b.WriteString("\n")
		for _, p := range guardian.Policies {
			marker := s.Success.Render("✓")
			switch p.Status {
			case "fail", "blocked":
				marker = s.Error.Render("✗")
			case "required", "pending":
				marker = s.Warning.Render("●")
			}
			fmt.Fprintf(&b, "%s %s", marker, s.Body.Render(p.Name))
			if p.Detail != "" {
				fmt.Fprintf(&b, " %s", s.Muted.Render("– "+Truncate(p.Detail, PanelContentWidth(width)-len(p.Name)-5)))
			}
			b.WriteString("\n")
		}
	}

	return Panel(s, PanelGuardian, "Guardian", strings.TrimRight(b.String(), "\n"), width, highlighted)
}

func guardianStatusStyle(s Styles, status string) lipgloss.Style {
	switch strings.ToLower(status) {
	case "healthy", "pass", "approved":
		return s.Success
	case "blocked", "fail", "unhealthy":
		return s.Error
	default:
		return s.Warning
	}
}
