package bundle

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Renderer serializes an Envelope to bytes.
type Renderer interface {
	Render(env *Envelope) ([]byte, error)
}

// JSONRenderer renders an Envelope as indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(env *Envelope) ([]byte, error) {
	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return append(out, '\n'), nil
}

// MarkdownRenderer renders an Envelope as a readable link list with the JSON
// envelope embedded as a base64 payload for lossless re-import.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(env *Envelope) ([]byte, error) {
	jsonBytes, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(jsonBytes)

	var sb strings.Builder

	sb.WriteString(versionSentinel + "\n")
	fmt.Fprintf(&sb, "%s%s%s\n\n", dataPrefix, encoded, dataSuffix)

	sb.WriteString("# Tab groups\n\n")
	fmt.Fprintf(&sb, "Exported %s.\n\n", exportedAt(env.ExportedAt))

	if len(env.Projects) == 0 {
		sb.WriteString("_No projects._\n")
		return []byte(sb.String()), nil
	}

	for _, p := range env.Projects {
		fmt.Fprintf(&sb, "## %s\n\n", p.Name)
		fmt.Fprintf(&sb, "- Groups: %d\n", len(p.Groups))
		fmt.Fprintf(&sb, "- Tabs: %d\n", p.TabCount())
		fmt.Fprintf(&sb, "- Updated: %s\n\n", p.Updated().UTC().Format("2006-01-02 15:04"))

		for _, g := range p.Groups {
			title := g.Title
			if title == "" {
				title = "Untitled group"
			}
			state := string(g.Color)
			if g.Collapsed {
				state += ", collapsed"
			}
			fmt.Fprintf(&sb, "### %s (%s)\n\n", title, state)

			if len(g.Tabs) == 0 {
				sb.WriteString("_No tabs._\n\n")
				continue
			}
			for _, t := range g.Tabs {
				label := t.Title
				if label == "" {
					label = t.URL
				}
				fmt.Fprintf(&sb, "- [%s](%s)", escapeLabel(label), t.URL)
				if t.Pinned {
					sb.WriteString(" (pinned)")
				}
				sb.WriteString("\n")
			}
			sb.WriteString("\n")
		}
	}

	return []byte(sb.String()), nil
}

func exportedAt(iso string) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	return t.Format("2006-01-02 15:04:05 MST")
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

func escapeLabel(s string) string {
	return labelEscaper.Replace(s)
}
