package ui

import (
	"fmt"
	"sort"
	"strings"

	"carf/internal/format"
	"carf/internal/types"
)

// RenderCynefin renders the router panel: classified domain, confidence
// badge, entropy bucket, the per-domain score distribution, and the router's
// stated reasoning.
func RenderCynefin(s Styles, qr *types.QueryResponse, width int, highlighted PanelID) string {
	if qr == nil {
		return Panel(s, PanelCynefin, "Cynefin Router",
			s.EmptyState.Render("No classification yet. Submit a query."),
			width, highlighted)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n",
		s.DomainStyle(qr.Domain).Render(strings.ToUpper(qr.Domain.Title())),
		s.ConfidenceBadge(qr.DomainConfidence))
	fmt.Fprintf(&b, "%s %s\n",
		s.Muted.Render("Entropy:"),
		s.Body.Render(fmt.Sprintf("%.2f (%s)", qr.DomainEntropy, format.EntropyBucket(qr.DomainEntropy))))

	if len(qr.DomainScores) > 0 {
		b.WriteString("\n")
		barWidth := PanelContentWidth(width) - 18
		if barWidth < 5 {
			barWidth = 5
		}
		for _, d := range sortedDomains(qr.DomainScores) {
			score := qr.DomainScores[d]
			fmt.Fprintf(&b, "%-12s %s %s\n",
				d.Title(),
				Bar(s, score, barWidth, DomainColors[d]),
				s.Muted.Render(format.SafePercentage(score)))
		}
	}

	if qr.RouterReasoning != "" {
		b.WriteString("\n")
		b.WriteString(s.Subtitle.Render(WrapText(qr.RouterReasoning, PanelContentWidth(width))))
		b.WriteString("\n")
	}
	if len(qr.RouterKeyIndicators) > 0 {
		b.WriteString(s.Muted.Render("Indicators: " + strings.Join(qr.RouterKeyIndicators, ", ")))
	}

	return Panel(s, PanelCynefin, "Cynefin Router", strings.TrimRight(b.String(), "\n"), width, highlighted)
}

// sortedDomains orders scores descending, canonical order on ties.
func sortedDomains(scores map[types.Domain]float64) []types.Domain {
	domains := make([]types.Domain, 0, len(scores))
	for _, d := range types.AllDomains() {
		if _, ok := scores[d]; ok {
			domains = append(domains, d)
		}
	}
	sort.SliceStable(domains, func(i, j int) bool {
		return scores[domains[i]] > scores[domains[j]]
	})
	return domains
}
