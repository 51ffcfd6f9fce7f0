package tabgroups

import (
	"context"
	"fmt"

	"github.com/fakeyudi/tabkeep/internal/capture"
	"github.com/fakeyudi/tabkeep/internal/host"
	"github.com/fakeyudi/tabkeep/internal/project"
	"github.com/fakeyudi/tabkeep/internal/reconcile"
)

// LiveGroups returns the current window's groups as snapshots.
func (m *Manager) LiveGroups(ctx context.Context) ([]project.Group, error) {
	return capture.LiveGroups(ctx, m.browser)
}

// Drift reports how the live window differs from a saved project. An empty
// id means the active project.
func (m *Manager) Drift(ctx context.Context, id string) (reconcile.Report, error) {
	p, err := m.resolve(ctx, id)
	if err != nil {
		return reconcile.Report{}, err
	}
	live, err := capture.LiveGroups(ctx, m.browser)
	if err != nil {
		return reconcile.Report{}, err
	}
	return reconcile.DiffGroups(p.Groups, live), nil
}

// IsDirty reports whether auto-save would rewrite a saved project from the
// live window. An empty id means the active project.
func (m *Manager) IsDirty(ctx context.Context, id string) (bool, error) {
	p, err := m.resolve(ctx, id)
	if err != nil {
		return false, err
	}
	live, err := capture.LiveGroups(ctx, m.browser)
	if err != nil {
		return false, err
	}
	return !reconcile.SameLayout(p.Groups, live), nil
}

// ActivateTabByURL focuses the first tab in the window whose committed or
// pending URL equals url. It reports whether a tab was found.
func (m *Manager) ActivateTabByURL(ctx context.Context, url string) (bool, error) {
	tabs, err := m.browser.AllTabs(ctx)
	if err != nil {
		return false, fmt.Errorf("listing tabs: %w", err)
	}
	for _, t := range tabs {
		matches := (t.URL != nil && *t.URL == url) || (t.PendingURL != nil && *t.PendingURL == url)
		if !matches {
			continue
		}
		if t.ID == nil {
			return false, nil
		}
		if err := m.browser.ActivateTab(ctx, *t.ID); err != nil {
			return false, fmt.Errorf("activating tab %d: %w", *t.ID, err)
		}
		return true, nil
	}
	return false, nil
}

// FindMatchingGroup returns the first live group with the given title and
// color. Host group ids do not survive a browser restart, so this is how a
// saved group is located again.
func FindMatchingGroup(groups []host.Group, title string, color project.Color) (host.Group, bool) {
	for _, g := range groups {
		if g.Title != nil && *g.Title == title && g.Color == color {
			return g, true
		}
	}
	return host.Group{}, false
}

// FindMatchingGroup looks up a saved group in the current window.
func (m *Manager) FindMatchingGroup(ctx context.Context, title string, color project.Color) (host.Group, bool, error) {
	groups, err := m.browser.Groups(ctx)
	if err != nil {
		return host.Group{}, false, fmt.Errorf("listing live groups: %w", err)
	}
	g, ok := FindMatchingGroup(groups, title, color)
	return g, ok, nil
}
