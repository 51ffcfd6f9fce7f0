// Package hosttest provides an in-memory host.Browser for tests.
package hosttest

import (
	"context"
	"slices"
	"sync"

	"github.com/fakeyudi/tabkeep/internal/host"
	"github.com/fakeyudi/tabkeep/internal/project"
)

// Browser is an in-memory host.Browser. Set Fail to make a named method
// ("Groups", "CreateTab", ...) return an error.
type Browser struct {
	mu     sync.Mutex
	Window host.Window
	Fail   map[string]error
	Calls  []string
}

var _ host.Browser = (*Browser)(nil)

// New returns an empty browser window.
func New() *Browser {
	return &Browser{Fail: map[string]error{}}
}

// AddGroup adds a live group holding tabs for the given URLs and returns its id.
func (b *Browser) AddGroup(title string, color project.Color, urls ...string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]int, 0, len(urls))
	for _, u := range urls {
		t := b.Window.CreateTab(u, false)
		t.Title = host.String(u)
		b.Window.Tabs[len(b.Window.Tabs)-1] = t
		ids = append(ids, *t.ID)
	}
	gid, err := b.Window.GroupTabs(ids)
	if err != nil {
		panic(err)
	}
	if err := b.Window.UpdateGroup(gid, host.GroupUpdate{Title: title, Color: color}); err != nil {
		panic(err)
	}
	return gid
}

// LiveURLs returns the URLs of every tab, grouped by group title.
func (b *Browser) LiveURLs() map[string][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := map[string][]string{}
	for _, g := range b.Window.Groups {
		title := ""
		if g.Title != nil {
			title = *g.Title
		}
		for _, t := range b.Window.TabsInGroup(g.ID) {
			if t.URL != nil {
				out[title] = append(out[title], *t.URL)
			}
		}
	}
	return out
}

func (b *Browser) enter(name string) error {
	b.Calls = append(b.Calls, name)
	if b.Fail != nil {
		return b.Fail[name]
	}
	return nil
}

func (b *Browser) Groups(ctx context.Context) ([]host.Group, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("Groups"); err != nil {
		return nil, err
	}
	return slices.Clone(b.Window.Groups), nil
}

func (b *Browser) TabsInGroup(ctx context.Context, groupID int) ([]host.Tab, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("TabsInGroup"); err != nil {
		return nil, err
	}
	return b.Window.TabsInGroup(groupID), nil
}

func (b *Browser) UngroupedTabs(ctx context.Context) ([]host.Tab, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("UngroupedTabs"); err != nil {
		return nil, err
	}
	return b.Window.UngroupedTabs(), nil
}

func (b *Browser) AllTabs(ctx context.Context) ([]host.Tab, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("AllTabs"); err != nil {
		return nil, err
	}
	return slices.Clone(b.Window.Tabs), nil
}

func (b *Browser) CreateTab(ctx context.Context, url string, pinned bool) (host.Tab, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("CreateTab"); err != nil {
		return host.Tab{}, err
	}
	return b.Window.CreateTab(url, pinned), nil
}

func (b *Browser) GroupTabs(ctx context.Context, tabIDs []int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("GroupTabs"); err != nil {
		return 0, err
	}
	return b.Window.GroupTabs(tabIDs)
}

func (b *Browser) UpdateGroup(ctx context.Context, groupID int, upd host.GroupUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("UpdateGroup"); err != nil {
		return err
	}
	return b.Window.UpdateGroup(groupID, upd)
}

func (b *Browser) RemoveTabs(ctx context.Context, tabIDs []int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("RemoveTabs"); err != nil {
		return err
	}
	b.Window.RemoveTabs(tabIDs)
	return nil
}

func (b *Browser) ActivateTab(ctx context.Context, tabID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter("ActivateTab"); err != nil {
		return err
	}
	return b.Window.Activate(tabID)
}
