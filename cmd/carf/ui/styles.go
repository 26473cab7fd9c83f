// Package ui provides the visual styling, layout math, and display panels
// for the carf cockpit. Light/dark mode is supported with an auto-detect
// fallback.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"carf/internal/format"
	"carf/internal/types"
)

var (
	// Light mode colors
	LightBackground = lipgloss.Color("#f4f5f6")
	LightForeground = lipgloss.Color("#15233d")
	LightPrimary    = lipgloss.Color("#15233d")
	LightAccent     = lipgloss.Color("#0e7490")
	LightSecondary  = lipgloss.Color("#e1e4e8")
	LightMuted      = lipgloss.Color("#6b7684")
	LightBorder     = lipgloss.Color("#dce0e5")
	LightCard       = lipgloss.Color("#ffffff")

	// Dark mode colors
	DarkBackground = lipgloss.Color("#101826")
	DarkForeground = lipgloss.Color("#e8ecf2")
	DarkPrimary    = lipgloss.Color("#67e8f9")
	DarkAccent     = lipgloss.Color("#22d3ee")
	DarkSecondary  = lipgloss.Color("#1c2840")
	DarkMuted      = lipgloss.Color("#5c6b84")
	DarkBorder     = lipgloss.Color("#2a3850")
	DarkCard       = lipgloss.Color("#182338")

	// Semantic colors (same in both modes)
	ColorError   = lipgloss.Color("#e53935")
	ColorSuccess = lipgloss.Color("#4caf50")
	ColorWarning = lipgloss.Color("#ffc107")
	ColorInfo    = lipgloss.Color("#2196f3")

	// Cynefin domain colors
	DomainColors = map[types.Domain]lipgloss.Color{
		types.DomainClear:       lipgloss.Color("#4caf50"),
		types.DomainComplicated: lipgloss.Color("#2196f3"),
		types.DomainComplex:     lipgloss.Color("#9c27b0"),
		types.DomainChaotic:     lipgloss.Color("#e53935"),
		types.DomainDisorder:    lipgloss.Color("#9e9e9e"),
	}
)

// Theme holds the current color scheme.
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Secondary  lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Card       lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme.
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Secondary:  LightSecondary,
		Muted:      LightMuted,
		Border:     LightBorder,
		Card:       LightCard,
		IsDark:     false,
	}
}

// DarkTheme returns the dark mode theme.
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Secondary:  DarkSecondary,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Card:       DarkCard,
		IsDark:     true,
	}
}

// ThemeByName resolves the configured theme name. "auto" (and anything
// unrecognized) falls back to terminal detection.
func ThemeByName(name string) Theme {
	switch name {
	case "dark":
		return DarkTheme()
	case "light":
		return LightTheme()
	default:
		return DetectTheme()
	}
}

// DetectTheme guesses light/dark from COLORFGBG, defaulting to dark: the
// cockpit is mostly run in dark terminals.
func DetectTheme() Theme {
	colorTerm := os.Getenv("COLORFGBG")
	if colorTerm != "" {
		// Format is usually "foreground;background".
		parts := strings.Split(colorTerm, ";")
		if len(parts) == 2 {
			if bgIdx, err := strconv.Atoi(parts[1]); err == nil {
				if bgIdx == 7 || bgIdx == 15 {
					return LightTheme()
				}
			}
		}
	}
	return DarkTheme()
}

// Styles holds all styled components derived from one theme.
type Styles struct {
	Theme Theme

	// Layout
	Header  lipgloss.Style
	Footer  lipgloss.Style
	TabBar  lipgloss.Style
	Tab     lipgloss.Style
	TabOn   lipgloss.Style
	Content lipgloss.Style

	// Panels
	Panel            lipgloss.Style
	PanelHighlighted lipgloss.Style
	PanelTitle       lipgloss.Style
	EmptyState       lipgloss.Style

	// Text
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	// Status
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Chat
	UserMsg      lipgloss.Style
	AssistantMsg lipgloss.Style
	SystemMsg    lipgloss.Style

	// Banners and badges
	ErrorBanner lipgloss.Style
	Badge       lipgloss.Style
	BadgeHigh   lipgloss.Style
	BadgeMedium lipgloss.Style
	BadgeLow    lipgloss.Style

	Spinner lipgloss.Style
	Divider lipgloss.Style
}

// NewStyles builds the style set for a theme.
func NewStyles(theme Theme) Styles {
	badge := lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("#ffffff"))

	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(theme.Background).
			Padding(0, 2).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),

		TabBar: lipgloss.NewStyle().
			Padding(0, 1),

		Tab: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),

		TabOn: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true).
			Underline(true).
			Padding(0, 2),

		Content: lipgloss.NewStyle().
			Padding(0, 1),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		PanelHighlighted: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(theme.Accent).
			Padding(0, 1),

		PanelTitle: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		EmptyState: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Success: lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(ColorError).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(ColorWarning).Bold(true),
		Info:    lipgloss.NewStyle().Foreground(ColorInfo),

		UserMsg: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		AssistantMsg: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			PaddingLeft(2).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(theme.Accent),

		SystemMsg: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		ErrorBanner: lipgloss.NewStyle().
			Background(ColorError).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Bold(true),

		Badge:       badge.Background(theme.Accent),
		BadgeHigh:   badge.Background(ColorSuccess),
		BadgeMedium: badge.Background(ColorWarning).Foreground(lipgloss.Color("#000000")),
		BadgeLow:    badge.Background(ColorError),

		Spinner: lipgloss.NewStyle().Foreground(theme.Accent),
		Divider: lipgloss.NewStyle().Foreground(theme.Border),
	}
}

// DefaultStyles returns styles with the auto-detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// ConfidenceBadge renders the bucketed confidence badge for a [0,1] value.
func (s Styles) ConfidenceBadge(confidence float64) string {
	label := format.SafePercentage(confidence)
	switch format.ConfidenceBucket(confidence) {
	case format.ConfidenceHigh:
		return s.BadgeHigh.Render("HIGH " + label)
	case format.ConfidenceMedium:
		return s.BadgeMedium.Render("MED " + label)
	default:
		return s.BadgeLow.Render("LOW " + label)
	}
}

// DomainStyle returns a bold style in the domain's color.
func (s Styles) DomainStyle(d types.Domain) lipgloss.Style {
	color, ok := DomainColors[d]
	if !ok {
		color = DomainColors[types.DomainDisorder]
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true)
}

// Logo returns the carf ASCII wordmark.
func Logo(s Styles) string {
	logo := `
   ___   _   ___ ___
  / __| /_\ | _ \ __|
 | (__ / _ \|   / _|
  \___/_/ \_\_|_\_|
`
	return s.Title.Render(logo)
}

// RenderDivider returns a horizontal divider of the given width.
func (s Styles) RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return s.Divider.Render(strings.Repeat("─", width))
}
