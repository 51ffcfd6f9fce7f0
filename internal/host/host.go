// Package host describes the browser tab/group API that tabkeep consumes.
// Host objects carry transient numeric handles and may be partially
// populated; optional fields are pointers and nil means "not reported".
package host

import (
	"context"

	"github.com/fakeyudi/tabkeep/internal/project"
)

// NoGroup is the group id of a tab that belongs to no group. Any id <= 0 is
// treated as ungrouped.
const NoGroup = -1

// Tab is a tab as reported by the host.
type Tab struct {
	ID         *int    `json:"id,omitempty"`
	GroupID    int     `json:"groupId"`
	URL        *string `json:"url,omitempty"`
	PendingURL *string `json:"pendingUrl,omitempty"` // set while a navigation has not committed
	Title      *string `json:"title,omitempty"`
	Pinned     *bool   `json:"pinned,omitempty"`
	Active     bool    `json:"active,omitempty"`
}

// Grouped reports whether the tab belongs to a group.
func (t Tab) Grouped() bool { return t.GroupID > 0 }

// Group is a tab group as reported by the host.
type Group struct {
	ID        int           `json:"id"`
	Title     *string       `json:"title,omitempty"`
	Color     project.Color `json:"color"`
	Collapsed bool          `json:"collapsed"`
}

// GroupUpdate is the set of properties applied to a group after creation.
type GroupUpdate struct {
	Title     string
	Color     project.Color
	Collapsed bool
}

// Browser is the host tab/group API for the current window.
type Browser interface {
	Groups(ctx context.Context) ([]Group, error)
	TabsInGroup(ctx context.Context, groupID int) ([]Tab, error)
	UngroupedTabs(ctx context.Context) ([]Tab, error)
	AllTabs(ctx context.Context) ([]Tab, error)

	// CreateTab opens a background tab. The returned tab may lack an ID.
	CreateTab(ctx context.Context, url string, pinned bool) (Tab, error)
	// GroupTabs puts the tabs in a new group and returns its id.
	GroupTabs(ctx context.Context, tabIDs []int) (int, error)
	UpdateGroup(ctx context.Context, groupID int, upd GroupUpdate) error
	// RemoveTabs closes tabs; a group whose last tab is closed disappears.
	RemoveTabs(ctx context.Context, tabIDs []int) error
	ActivateTab(ctx context.Context, tabID int) error
}

// EventSource streams host events until ctx is cancelled.
type EventSource interface {
	Events(ctx context.Context) (<-chan Event, error)
}

// EventKind names a host event.
type EventKind string

const (
	GroupCreated EventKind = "group.created"
	GroupUpdated EventKind = "group.updated"
	GroupRemoved EventKind = "group.removed"
	TabCreated   EventKind = "tab.created"
	TabRemoved   EventKind = "tab.removed"
	TabUpdated   EventKind = "tab.updated"
	TabAttached  EventKind = "tab.attached"
	TabDetached  EventKind = "tab.detached"
	Command      EventKind = "command"
)

// Keyboard commands delivered as Command events.
const (
	CommandNextProject     = "next-project"
	CommandPreviousProject = "previous-project"
	CommandSaveCurrent     = "save-current"
)

// Event is a single host notification.
type Event struct {
	Kind    EventKind
	TabID   int
	GroupID int
	Changed []string // for TabUpdated: names of the fields that changed ("url", "title", ...)
	Command string   // for Command
}

// String returns a pointer to s, for populating optional host fields.
func String(s string) *string { return &s }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to i.
func Int(i int) *int { return &i }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool) bool {
	return b != nil && *b
}
