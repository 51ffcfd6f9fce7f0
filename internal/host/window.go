package host

import (
	"fmt"
	"slices"

	"github.com/fakeyudi/tabkeep/internal/project"
)

// Window is the full state of one browser window: its groups, its tabs in
// strip order, and any keyboard commands not yet consumed.
type Window struct {
	NextID   int      `json:"nextId"`
	Groups   []Group  `json:"groups"`
	Tabs     []Tab    `json:"tabs"`
	Commands []string `json:"commands,omitempty"`
}

// allocID returns a handle not used by any tab or group.
func (w *Window) allocID() int {
	next := w.NextID
	if next < 1 {
		next = 1
	}
	for _, g := range w.Groups {
		if g.ID >= next {
			next = g.ID + 1
		}
	}
	for _, t := range w.Tabs {
		if t.ID != nil && *t.ID >= next {
			next = *t.ID + 1
		}
	}
	w.NextID = next + 1
	return next
}

func (w *Window) tabIndex(id int) int {
	for i, t := range w.Tabs {
		if t.ID != nil && *t.ID == id {
			return i
		}
	}
	return -1
}

func (w *Window) groupIndex(id int) int {
	for i, g := range w.Groups {
		if g.ID == id {
			return i
		}
	}
	return -1
}

// TabsInGroup returns the group's tabs in strip order.
func (w *Window) TabsInGroup(groupID int) []Tab {
	var out []Tab
	for _, t := range w.Tabs {
		if t.GroupID == groupID {
			out = append(out, t)
		}
	}
	return out
}

// UngroupedTabs returns tabs that belong to no group.
func (w *Window) UngroupedTabs() []Tab {
	var out []Tab
	for _, t := range w.Tabs {
		if !t.Grouped() {
			out = append(out, t)
		}
	}
	return out
}

// CreateTab appends a new ungrouped tab.
func (w *Window) CreateTab(url string, pinned bool) Tab {
	t := Tab{
		ID:      Int(w.allocID()),
		GroupID: NoGroup,
		URL:     String(url),
		Pinned:  Bool(pinned),
	}
	w.Tabs = append(w.Tabs, t)
	return t
}

// GroupTabs moves the tabs into a new grey, untitled group.
func (w *Window) GroupTabs(tabIDs []int) (int, error) {
	if len(tabIDs) == 0 {
		return 0, fmt.Errorf("no tabs to group")
	}
	for _, id := range tabIDs {
		if w.tabIndex(id) < 0 {
			return 0, fmt.Errorf("no tab with id %d", id)
		}
	}

	gid := w.allocID()
	w.Groups = append(w.Groups, Group{ID: gid, Title: String(""), Color: project.Grey})
	for _, id := range tabIDs {
		w.Tabs[w.tabIndex(id)].GroupID = gid
	}
	w.pruneGroups()
	return gid, nil
}

// UpdateGroup sets the group's title, color and collapsed state.
func (w *Window) UpdateGroup(groupID int, upd GroupUpdate) error {
	i := w.groupIndex(groupID)
	if i < 0 {
		return fmt.Errorf("no group with id %d", groupID)
	}
	w.Groups[i].Title = String(upd.Title)
	w.Groups[i].Color = upd.Color
	w.Groups[i].Collapsed = upd.Collapsed
	return nil
}

// RemoveTabs closes the tabs and drops groups left empty.
func (w *Window) RemoveTabs(tabIDs []int) {
	w.Tabs = slices.DeleteFunc(w.Tabs, func(t Tab) bool {
		return t.ID != nil && slices.Contains(tabIDs, *t.ID)
	})
	w.pruneGroups()
}

// Activate marks exactly one tab active.
func (w *Window) Activate(tabID int) error {
	i := w.tabIndex(tabID)
	if i < 0 {
		return fmt.Errorf("no tab with id %d", tabID)
	}
	for j := range w.Tabs {
		w.Tabs[j].Active = j == i
	}
	return nil
}

func (w *Window) pruneGroups() {
	w.Groups = slices.DeleteFunc(w.Groups, func(g Group) bool {
		return len(w.TabsInGroup(g.ID)) == 0
	})
}

// DiffWindows converts the difference between two window states into host
// events. A tab moving between groups is reported as detached from the old
// group and attached to the new one.
func DiffWindows(prev, next *Window) []Event {
	if prev == nil {
		prev = &Window{}
	}
	if next == nil {
		next = &Window{}
	}

	var events []Event

	for _, g := range next.Groups {
		i := prev.groupIndex(g.ID)
		if i < 0 {
			events = append(events, Event{Kind: GroupCreated, GroupID: g.ID})
			continue
		}
		old := prev.Groups[i]
		if deref(old.Title) != deref(g.Title) || old.Color != g.Color || old.Collapsed != g.Collapsed {
			events = append(events, Event{Kind: GroupUpdated, GroupID: g.ID})
		}
	}
	for _, g := range prev.Groups {
		if next.groupIndex(g.ID) < 0 {
			events = append(events, Event{Kind: GroupRemoved, GroupID: g.ID})
		}
	}

	for _, t := range next.Tabs {
		if t.ID == nil {
			continue
		}
		i := prev.tabIndex(*t.ID)
		if i < 0 {
			events = append(events, Event{Kind: TabCreated, TabID: *t.ID, GroupID: t.GroupID})
			continue
		}
		old := prev.Tabs[i]
		if old.GroupID != t.GroupID {
			if old.Grouped() {
				events = append(events, Event{Kind: TabDetached, TabID: *t.ID, GroupID: old.GroupID})
			}
			if t.Grouped() {
				events = append(events, Event{Kind: TabAttached, TabID: *t.ID, GroupID: t.GroupID})
			}
		}
		if changed := changedFields(old, t); len(changed) > 0 {
			events = append(events, Event{Kind: TabUpdated, TabID: *t.ID, GroupID: t.GroupID, Changed: changed})
		}
	}
	for _, t := range prev.Tabs {
		if t.ID != nil && next.tabIndex(*t.ID) < 0 {
			events = append(events, Event{Kind: TabRemoved, TabID: *t.ID, GroupID: t.GroupID})
		}
	}

	return events
}

func changedFields(old, cur Tab) []string {
	var changed []string
	if deref(old.URL) != deref(cur.URL) || deref(old.PendingURL) != deref(cur.PendingURL) {
		changed = append(changed, "url")
	}
	if deref(old.Title) != deref(cur.Title) {
		changed = append(changed, "title")
	}
	if derefBool(old.Pinned) != derefBool(cur.Pinned) {
		changed = append(changed, "pinned")
	}
	if old.Active != cur.Active {
		changed = append(changed, "active")
	}
	return changed
}
