// Package ui layout constants for consistent spacing and dimensions.
package ui

// Layout constants for viewport and panel sizing.
const (
	// Chrome rows around the content area: header, tab bar, input, footer.
	HeaderHeight = 1
	TabBarHeight = 1
	InputHeight  = 3
	FooterHeight = 1
	BannerHeight = 1

	// Split pane dimensions.
	SplitPaneLeftRatio = 0.6
	SplitPaneDivider   = 1

	// Panel borders and spacing.
	PanelBorderWidth = 1
	PanelPaddingH    = 1
	PanelGap         = 1

	// Responsive breakpoints.
	MinimumTerminalWidth  = 80
	MinimumTerminalHeight = 24
	CompactModeWidth      = 100

	// Query input bound enforced by the textarea.
	MaxQueryLength = 2000
)

// LayoutConfig provides computed layout dimensions from the terminal size.
type LayoutConfig struct {
	TerminalWidth  int
	TerminalHeight int
	IsCompact      bool
}

// NewLayoutConfig creates a layout configuration for the given terminal size.
func NewLayoutConfig(width, height int) LayoutConfig {
	return LayoutConfig{
		TerminalWidth:  width,
		TerminalHeight: height,
		IsCompact:      width < CompactModeWidth,
	}
}

// ContentHeight returns the rows left for panels after the fixed chrome.
func (l LayoutConfig) ContentHeight() int {
	h := l.TerminalHeight - HeaderHeight - TabBarHeight - InputHeight - FooterHeight
	if h < 0 {
		return 0
	}
	return h
}

// TooSmall reports whether the terminal is below the supported minimum.
func (l LayoutConfig) TooSmall() bool {
	return l.TerminalWidth < MinimumTerminalWidth || l.TerminalHeight < MinimumTerminalHeight
}

// SplitPaneWidths calculates left and right pane widths for a split view.
func SplitPaneWidths(totalWidth int) (leftWidth, rightWidth int) {
	leftWidth = int(float64(totalWidth) * SplitPaneLeftRatio)
	rightWidth = totalWidth - leftWidth - SplitPaneDivider
	return
}

// GridCellWidths divides a row into n equal panel cells with gaps.
func GridCellWidths(totalWidth, n int) []int {
	if n <= 0 {
		return nil
	}
	usable := totalWidth - PanelGap*(n-1)
	base := usable / n
	widths := make([]int, n)
	for i := range widths {
		widths[i] = base
	}
	// Leftover columns go to the last cell.
	widths[n-1] += usable - base*n
	return widths
}

// PanelContentWidth returns the content width inside a bordered panel.
func PanelContentWidth(panelWidth int) int {
	w := panelWidth - PanelBorderWidth*2 - PanelPaddingH*2
	if w < 0 {
		return 0
	}
	return w
}

// PanelContentHeight returns the content height inside a bordered panel.
func PanelContentHeight(panelHeight int) int {
	h := panelHeight - PanelBorderWidth*2
	if h < 0 {
		return 0
	}
	return h
}
