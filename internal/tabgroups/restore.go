package tabgroups

import (
	"context"
	"fmt"

	"github.com/fakeyudi/tabkeep/internal/host"
	"github.com/fakeyudi/tabkeep/internal/project"
)

// RestoreProject opens every saved group of the project as a new live group
// and makes the project active. It returns the number of groups created.
// Groups none of whose tabs could be created are skipped.
func (m *Manager) RestoreProject(ctx context.Context, id string) (int, error) {
	p, err := m.gw.GetProject(ctx, id)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, g := range p.Groups {
		gid, err := m.createGroup(ctx, g)
		if err != nil {
			return created, fmt.Errorf("restoring group %q: %w", g.Title, err)
		}
		if gid != host.NoGroup {
			created++
		}
	}

	if err := m.gw.SetActiveProjectID(ctx, id); err != nil {
		return created, err
	}
	m.logger.Info("project restored", "id", p.ID, "name", p.Name, "groups", created)
	return created, nil
}

// createGroup opens g's tabs in the background, groups them and applies the
// saved title, color and collapsed state. It returns host.NoGroup when no tab
// came back with an id.
func (m *Manager) createGroup(ctx context.Context, g project.Group) (int, error) {
	var tabIDs []int
	for _, t := range g.Tabs {
		created, err := m.browser.CreateTab(ctx, t.URL, t.Pinned)
		if err != nil {
			return host.NoGroup, fmt.Errorf("opening %s: %w", t.URL, err)
		}
		if created.ID != nil {
			tabIDs = append(tabIDs, *created.ID)
		}
	}
	if len(tabIDs) == 0 {
		return host.NoGroup, nil
	}

	gid, err := m.browser.GroupTabs(ctx, tabIDs)
	if err != nil {
		return host.NoGroup, fmt.Errorf("grouping tabs: %w", err)
	}
	upd := host.GroupUpdate{Title: g.Title, Color: g.Color, Collapsed: g.Collapsed}
	if err := m.browser.UpdateGroup(ctx, gid, upd); err != nil {
		return gid, fmt.Errorf("updating group: %w", err)
	}
	return gid, nil
}

// CloseAllGroups closes every tab that belongs to a live group, which removes
// the groups. Ungrouped tabs stay open. It returns the number of groups
// closed.
func (m *Manager) CloseAllGroups(ctx context.Context) (int, error) {
	groups, err := m.browser.Groups(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing live groups: %w", err)
	}

	closed := 0
	for _, g := range groups {
		tabs, err := m.browser.TabsInGroup(ctx, g.ID)
		if err != nil {
			return closed, fmt.Errorf("listing tabs of group %d: %w", g.ID, err)
		}
		ids := make([]int, 0, len(tabs))
		for _, t := range tabs {
			if t.ID != nil {
				ids = append(ids, *t.ID)
			}
		}
		if len(ids) == 0 {
			continue
		}
		if err := m.browser.RemoveTabs(ctx, ids); err != nil {
			return closed, fmt.Errorf("closing group %d: %w", g.ID, err)
		}
		closed++
	}
	return closed, nil
}

// SwitchToProject replaces the live groups with the project's groups. The
// switching flag is held for the whole close-and-restore sequence and is
// released on every exit path. An unknown id fails before anything is closed.
func (m *Manager) SwitchToProject(ctx context.Context, id string) error {
	p, err := m.gw.GetProject(ctx, id)
	if err != nil {
		return err
	}

	return m.gw.WithSwitching(ctx, func(ctx context.Context) error {
		closed, err := m.CloseAllGroups(ctx)
		if err != nil {
			return err
		}
		m.logger.Debug("closed live groups", "count", closed)

		if _, err := m.RestoreProject(ctx, p.ID); err != nil {
			return err
		}
		return nil
	})
}

// CycleProject switches to the project step positions away from the active
// one in store order, wrapping at both ends. With no active project a
// positive step goes to the first project and a negative one to the last.
// The target is returned; when it is already active nothing is switched.
func (m *Manager) CycleProject(ctx context.Context, step int) (*project.Project, error) {
	s, err := m.gw.GetStore(ctx)
	if err != nil {
		return nil, err
	}
	n := len(s.Projects)
	if n == 0 {
		return nil, ErrNoProjects
	}

	cur := s.Find(s.ActiveProjectID)
	var target int
	switch {
	case cur < 0 && step < 0:
		target = n - 1
	case cur < 0:
		target = 0
	default:
		target = ((cur+step)%n + n) % n
	}

	p := s.Projects[target]
	if target == cur {
		return &p, nil
	}
	if err := m.SwitchToProject(ctx, p.ID); err != nil {
		return nil, err
	}
	return &p, nil
}
