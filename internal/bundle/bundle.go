// Package bundle exports projects as a versioned envelope and imports them
// back with strict, fail-fast validation.
package bundle

import (
	"time"

	"github.com/fakeyudi/tabkeep/internal/project"
)

// Version is the only envelope version this package reads or writes.
const Version = 1

// Envelope is the export file shape.
type Envelope struct {
	Version    int               `json:"version"`
	ExportedAt string            `json:"exportedAt"` // ISO-8601, UTC
	Projects   []project.Project `json:"projects"`
}

// NewEnvelope wraps projects in a version 1 envelope stamped with now.
func NewEnvelope(projects []project.Project, now time.Time) *Envelope {
	if projects == nil {
		projects = []project.Project{}
	}
	return &Envelope{
		Version:    Version,
		ExportedAt: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Projects:   projects,
	}
}

// Export renders projects as a pretty-printed JSON envelope.
func Export(projects []project.Project, now time.Time) ([]byte, error) {
	return (&JSONRenderer{}).Render(NewEnvelope(projects, now))
}

// Format selects a renderer and parser pair.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts "json", "markdown" or "md". Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", &UnknownFormatError{Format: s}
	}
}

// Ext returns the file extension for f, without the dot.
func (f Format) Ext() string {
	if f == FormatMarkdown {
		return "md"
	}
	return "json"
}

// Filename returns the conventional export filename for f on now's UTC date.
func (f Format) Filename(now time.Time) string {
	return "tab-groups-" + now.UTC().Format("2006-01-02") + "." + f.Ext()
}

// Renderer returns the renderer for f.
func (f Format) Renderer() Renderer {
	if f == FormatMarkdown {
		return &MarkdownRenderer{}
	}
	return &JSONRenderer{}
}

// Filename returns the JSON export filename for now, tab-groups-YYYY-MM-DD.json.
func Filename(now time.Time) string {
	return FormatJSON.Filename(now)
}
