// Package capture converts host-reported tabs and groups into saved
// snapshots. The conversion is total: every missing host field has a default.
package capture

import (
	"context"
	"fmt"

	"github.com/fakeyudi/tabkeep/internal/host"
	"github.com/fakeyudi/tabkeep/internal/project"
)

// SnapshotTab converts a host tab. The URL falls back from the committed URL
// to the pending one, then to "".
func SnapshotTab(t host.Tab) project.Tab {
	url := ""
	switch {
	case t.URL != nil:
		url = *t.URL
	case t.PendingURL != nil:
		url = *t.PendingURL
	}
	title := ""
	if t.Title != nil {
		title = *t.Title
	}
	return project.Tab{
		URL:    url,
		Title:  title,
		Pinned: t.Pinned != nil && *t.Pinned,
	}
}

// SnapshotGroup converts a host group and its member tabs, keeping the host's
// tab order. Color and collapsed state pass through unchanged.
func SnapshotGroup(g host.Group, tabs []host.Tab) project.Group {
	title := ""
	if g.Title != nil {
		title = *g.Title
	}
	saved := make([]project.Tab, 0, len(tabs))
	for _, t := range tabs {
		saved = append(saved, SnapshotTab(t))
	}
	return project.Group{
		Title:     title,
		Color:     g.Color,
		Collapsed: g.Collapsed,
		Tabs:      saved,
	}
}

// LiveGroups enumerates the groups of the current window and their tabs and
// returns them as snapshots in host order.
func LiveGroups(ctx context.Context, b host.Browser) ([]project.Group, error) {
	groups, err := b.Groups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing live groups: %w", err)
	}

	out := make([]project.Group, 0, len(groups))
	for _, g := range groups {
		tabs, err := b.TabsInGroup(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("listing tabs of group %d: %w", g.ID, err)
		}
		out = append(out, SnapshotGroup(g, tabs))
	}
	return out, nil
}
