package ui

import (
	"hash/fnv"
	"sync"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer renders assistant messages and the methodology overlay
// with glamour. Rendering is cached by content and width: glamour is too
// slow to run on every frame of the render loop.
type MarkdownRenderer struct {
	mu       sync.Mutex
	renderer *glamour.TermRenderer
	width    int
	dark     bool
	cache    map[uint64]string
}

// NewMarkdownRenderer builds a renderer for the theme. Width is set lazily
// on first render.
func NewMarkdownRenderer(dark bool) *MarkdownRenderer {
	return &MarkdownRenderer{
		dark:  dark,
		cache: make(map[uint64]string),
	}
}

// Render converts markdown to styled terminal output at the given width.
// Any glamour failure (including a panic) falls back to the raw text, so a
// malformed assistant message can never take the cockpit down.
func (m *MarkdownRenderer) Render(markdown string, width int) string {
	if width < 10 {
		width = 10
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := cacheKey(markdown, width)
	if out, ok := m.cache[key]; ok {
		return out
	}

	out := m.renderLocked(markdown, width)
	if len(m.cache) > 128 {
		m.cache = make(map[uint64]string)
	}
	m.cache[key] = out
	return out
}

func (m *MarkdownRenderer) renderLocked(markdown string, width int) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = markdown
		}
	}()

	if m.renderer == nil || m.width != width {
		style := glamour.WithStandardStyle("light")
		if m.dark {
			style = glamour.WithStandardStyle("dark")
		}
		renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
		if err != nil {
			return markdown
		}
		m.renderer = renderer
		m.width = width
	}

	rendered, err := m.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return rendered
}

func cacheKey(content string, width int) uint64 {
	h := fnv.New64a()
	h.Write([]byte(content))
	var b [4]byte
	b[0] = byte(width)
	b[1] = byte(width >> 8)
	b[2] = byte(width >> 16)
	b[3] = byte(width >> 24)
	h.Write(b[:])
	return h.Sum64()
}
