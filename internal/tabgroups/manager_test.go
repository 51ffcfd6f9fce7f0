package tabgroups

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fakeyudi/tabkeep/internal/host"
	"github.com/fakeyudi/tabkeep/internal/host/hosttest"
	"github.com/fakeyudi/tabkeep/internal/kv"
	"github.com/fakeyudi/tabkeep/internal/project"
	"github.com/fakeyudi/tabkeep/internal/storage"
)

type fixture struct {
	browser *hosttest.Browser
	gw      *storage.Gateway
	mgr     *Manager
	clock   time.Time
	ids     int
}

func newFixture() *fixture {
	f := &fixture{
		browser: hosttest.New(),
		gw:      storage.New(kv.NewMemoryStore()),
		clock:   time.UnixMilli(1_700_000_000_000),
	}
	f.mgr = NewManager(f.browser, f.gw, nil)
	f.mgr.now = func() time.Time { return f.clock }
	f.mgr.newID = func() string {
		f.ids++
		return fmt.Sprintf("id-%d", f.ids)
	}
	return f
}

func (f *fixture) tick(d time.Duration) { f.clock = f.clock.Add(d) }

func TestCaptureProjectNew(t *testing.T) {
	f := newFixture()
	f.browser.AddGroup("Docs", project.Blue, "https://a.test", "https://b.test")
	f.browser.AddGroup("Code", project.Red, "https://c.test")
	ctx := context.Background()

	p, err := f.mgr.CaptureProject(ctx, "work", "")
	require.NoError(t, err)

	assert.Equal(t, "id-1", p.ID)
	assert.Equal(t, "work", p.Name)
	assert.Equal(t, f.clock.UnixMilli(), p.CreatedAt)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
	require.Len(t, p.Groups, 2)
	assert.Equal(t, "Docs", p.Groups[0].Title)
	assert.Equal(t, project.Blue, p.Groups[0].Color)
	assert.Equal(t, []project.Tab{{URL: "https://a.test", Title: "https://a.test"}, {URL: "https://b.test", Title: "https://b.test"}}, p.Groups[0].Tabs)

	s, err := f.gw.GetStore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "id-1", s.ActiveProjectID)
	assert.Equal(t, []project.Project{p}, s.Projects)
}

// Feature: tabkeep, Property 11: Capture preserves createdAt
func TestCaptureProjectPreservesCreatedAt(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := newFixture()
		ctx := context.Background()
		f.browser.AddGroup("Docs", project.Blue, "https://a.test")

		first, err := f.mgr.CaptureProject(ctx, "work", "")
		if err != nil {
			t.Fatal(err)
		}

		f.tick(time.Duration(rapid.Int64Range(1, 1_000_000).Draw(t, "elapsed_ms")) * time.Millisecond)
		urls := rapid.SliceOfN(rapid.StringMatching(`https://[a-z]{1,8}\.test`), 1, 4).Draw(t, "urls")
		f.browser.AddGroup(rapid.StringMatching(`[A-Z][a-z]{0,6}`).Draw(t, "title"), project.Green, urls...)
		name := rapid.StringN(1, 20, -1).Draw(t, "name")

		second, err := f.mgr.CaptureProject(ctx, name, first.ID)
		if err != nil {
			t.Fatal(err)
		}

		if second.ID != first.ID || second.CreatedAt != first.CreatedAt {
			t.Fatalf("identity changed: first=%+v second=%+v", first, second)
		}
		if second.UpdatedAt != f.clock.UnixMilli() || second.UpdatedAt <= first.UpdatedAt {
			t.Fatalf("UpdatedAt not refreshed: %d", second.UpdatedAt)
		}
		if len(second.Groups) != 2 {
			t.Fatalf("expected 2 groups, got %d", len(second.Groups))
		}

		projects, err := f.gw.GetProjects(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(projects) != 1 || projects[0].Name != name {
			t.Fatalf("expected one updated project, got %+v", projects)
		}
	})
}

func TestCaptureProjectHostFailure(t *testing.T) {
	f := newFixture()
	boom := errors.New("tabGroups.query failed")
	f.browser.Fail["Groups"] = boom

	_, err := f.mgr.CaptureProject(context.Background(), "work", "")
	require.ErrorIs(t, err, boom)

	projects, err := f.gw.GetProjects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestRestoreProject(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.gw.SaveProject(ctx, project.Project{
		ID:   "p",
		Name: "research",
		Groups: []project.Group{
			{Title: "Papers", Color: project.Purple, Collapsed: true, Tabs: []project.Tab{
				{URL: "https://arxiv.test/1", Pinned: true},
				{URL: "https://arxiv.test/2"},
			}},
			{Title: "Empty", Color: project.Grey, Tabs: []project.Tab{}},
		},
	}))

	n, err := f.mgr.RestoreProject(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "groups without tabs are skipped")

	require.Len(t, f.browser.Window.Groups, 1)
	g := f.browser.Window.Groups[0]
	assert.Equal(t, "Papers", *g.Title)
	assert.Equal(t, project.Purple, g.Color)
	assert.True(t, g.Collapsed)
	assert.Equal(t, map[string][]string{"Papers": {"https://arxiv.test/1", "https://arxiv.test/2"}}, f.browser.LiveURLs())
	assert.True(t, *f.browser.Window.Tabs[0].Pinned)

	active, err := f.gw.GetActiveProjectID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "p", active)
}

func TestRestoreProjectNotFound(t *testing.T) {
	f := newFixture()
	_, err := f.mgr.RestoreProject(context.Background(), "ghost")
	require.ErrorIs(t, err, project.ErrProjectNotFound)
	assert.Empty(t, f.browser.Calls)
}

func TestCloseAllGroupsKeepsUngroupedTabs(t *testing.T) {
	f := newFixture()
	f.browser.AddGroup("A", project.Blue, "https://a.test")
	f.browser.AddGroup("B", project.Red, "https://b.test", "https://b2.test")
	f.browser.Window.CreateTab("https://loose.test", false)

	n, err := f.mgr.CloseAllGroups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, f.browser.Window.Groups)
	require.Len(t, f.browser.Window.Tabs, 1)
	assert.Equal(t, "https://loose.test", *f.browser.Window.Tabs[0].URL)
}

func TestSwitchToProject(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.browser.AddGroup("Old", project.Blue, "https://old.test")
	require.NoError(t, f.gw.SaveProject(ctx, project.Project{ID: "new", Name: "new", Groups: []project.Group{
		{Title: "New", Color: project.Green, Tabs: []project.Tab{{URL: "https://new.test"}}},
	}}))

	require.NoError(t, f.mgr.SwitchToProject(ctx, "new"))

	assert.Equal(t, map[string][]string{"New": {"https://new.test"}}, f.browser.LiveURLs())
	active, err := f.gw.GetActiveProjectID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", active)

	switching, err := f.gw.IsSwitching(ctx)
	require.NoError(t, err)
	assert.False(t, switching)
}

func TestSwitchToProjectUnknownClosesNothing(t *testing.T) {
	f := newFixture()
	f.browser.AddGroup("Old", project.Blue, "https://old.test")

	err := f.mgr.SwitchToProject(context.Background(), "ghost")
	require.ErrorIs(t, err, project.ErrProjectNotFound)
	assert.Len(t, f.browser.Window.Groups, 1)
}

func TestSwitchToProjectReleasesFlagOnHostFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.gw.SaveProject(ctx, project.Project{ID: "p", Name: "p", Groups: []project.Group{
		{Title: "G", Color: project.Blue, Tabs: []project.Tab{{URL: "https://x.test"}}},
	}}))
	boom := errors.New("tabs.create failed")
	f.browser.Fail["CreateTab"] = boom

	err := f.mgr.SwitchToProject(ctx, "p")
	require.ErrorIs(t, err, boom)

	switching, err := f.gw.IsSwitching(ctx)
	require.NoError(t, err)
	assert.False(t, switching, "switching flag must be released after a failed switch")
}

func TestAutoSaveActiveProject(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p, saved, err := f.mgr.AutoSaveActiveProject(ctx)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.False(t, saved, "nothing active, nothing saved")

	f.browser.AddGroup("Docs", project.Blue, "https://a.test")
	first, err := f.mgr.CaptureProject(ctx, "work", "")
	require.NoError(t, err)

	f.tick(time.Second)
	p, saved, err = f.mgr.AutoSaveActiveProject(ctx)
	require.NoError(t, err)
	assert.False(t, saved, "unchanged window must not be rewritten")
	assert.Equal(t, first.UpdatedAt, p.UpdatedAt)

	f.browser.AddGroup("More", project.Cyan, "https://b.test")
	p, saved, err = f.mgr.AutoSaveActiveProject(ctx)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, "work", p.Name)
	assert.Equal(t, first.CreatedAt, p.CreatedAt)
	assert.Len(t, p.Groups, 2)
}

func TestAutoSaveGroupReorder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.browser.AddGroup("A", project.Blue, "https://a.test")
	f.browser.AddGroup("B", project.Red, "https://b.test")
	_, err := f.mgr.CaptureProject(ctx, "work", "")
	require.NoError(t, err)

	gs := f.browser.Window.Groups
	gs[0], gs[1] = gs[1], gs[0]

	dirty, err := f.mgr.IsDirty(ctx, "")
	require.NoError(t, err)
	assert.True(t, dirty, "moved groups need a save")

	p, saved, err := f.mgr.AutoSaveActiveProject(ctx)
	require.NoError(t, err)
	assert.True(t, saved)
	require.Len(t, p.Groups, 2)
	assert.Equal(t, []string{"B", "A"}, []string{p.Groups[0].Title, p.Groups[1].Title})

	stored, err := f.gw.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", stored.Groups[0].Title)

	dirty, err = f.mgr.IsDirty(ctx, "")
	require.NoError(t, err)
	assert.False(t, dirty)
}

func TestAutoSaveDuplicateTitleGroup(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.browser.AddGroup("A", project.Blue, "https://a.test")
	f.browser.AddGroup("B", project.Red, "https://b.test")
	_, err := f.mgr.CaptureProject(ctx, "work", "")
	require.NoError(t, err)

	// A new "A" in front: by title the last "A" is unchanged.
	f.browser.AddGroup("A", project.Green, "https://x.test")
	gs := f.browser.Window.Groups
	f.browser.Window.Groups = append([]host.Group{gs[2]}, gs[:2]...)

	dirty, err := f.mgr.IsDirty(ctx, "")
	require.NoError(t, err)
	assert.True(t, dirty)

	p, saved, err := f.mgr.AutoSaveActiveProject(ctx)
	require.NoError(t, err)
	assert.True(t, saved)
	require.Len(t, p.Groups, 3)

	stored, err := f.gw.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, stored.Groups, 3)
	assert.Equal(t, project.Green, stored.Groups[0].Color)
	assert.Equal(t, project.Blue, stored.Groups[1].Color)
}

func TestSaveCurrent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.mgr.SaveCurrent(ctx)
	require.ErrorIs(t, err, ErrNoActiveProject)

	f.browser.AddGroup("Docs", project.Blue, "https://a.test")
	p, err := f.mgr.CaptureProject(ctx, "work", "")
	require.NoError(t, err)

	f.tick(time.Minute)
	saved, err := f.mgr.SaveCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, p.ID, saved.ID)
	assert.Greater(t, saved.UpdatedAt, p.UpdatedAt)
}

func TestCycleProject(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, f.gw.SaveProject(ctx, project.Project{ID: id, Name: id, Groups: []project.Group{
			{Title: id, Color: project.Blue, Tabs: []project.Tab{{URL: "https://" + id + ".test"}}},
		}}))
	}

	steps := []struct {
		step int
		want string
	}{
		{-1, "c"}, // nothing active: previous goes to the last
		{1, "a"},  // wraps forward
		{1, "b"},
		{-1, "a"},
		{-1, "c"}, // wraps backward
	}
	for _, s := range steps {
		p, err := f.mgr.CycleProject(ctx, s.step)
		require.NoError(t, err)
		assert.Equal(t, s.want, p.ID)
		assert.Equal(t, map[string][]string{s.want: {"https://" + s.want + ".test"}}, f.browser.LiveURLs())
	}
}

func TestCycleProjectEmpty(t *testing.T) {
	_, err := newFixture().mgr.CycleProject(context.Background(), 1)
	require.ErrorIs(t, err, ErrNoProjects)
}

func TestDriftAndIsDirty(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.browser.AddGroup("Docs", project.Blue, "https://a.test", "https://b.test")
	p, err := f.mgr.CaptureProject(ctx, "work", "")
	require.NoError(t, err)

	report, err := f.mgr.Drift(ctx, "")
	require.NoError(t, err)
	assert.False(t, report.HasChanges)
	dirty, err := f.mgr.IsDirty(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, dirty)

	f.browser.AddGroup("New", project.Red, "https://c.test")
	report, err = f.mgr.Drift(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, report.HasChanges)
	assert.Equal(t, 1, report.TotalAdded)
	dirty, err = f.mgr.IsDirty(ctx, "")
	require.NoError(t, err)
	assert.True(t, dirty)

	require.NoError(t, f.gw.SetActiveProjectID(ctx, ""))
	_, err = f.mgr.Drift(ctx, "")
	require.ErrorIs(t, err, ErrNoActiveProject)
}

func TestActivateTabByURL(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.browser.AddGroup("Docs", project.Blue, "https://a.test", "https://b.test")
	f.browser.Window.Tabs = append(f.browser.Window.Tabs, host.Tab{
		ID: host.Int(99), GroupID: host.NoGroup, PendingURL: host.String("https://loading.test"),
	})

	ok, err := f.mgr.ActivateTabByURL(ctx, "https://b.test")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, f.browser.Window.Tabs[1].Active)

	ok, err = f.mgr.ActivateTabByURL(ctx, "https://loading.test")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, f.browser.Window.Tabs[1].Active)
	assert.True(t, f.browser.Window.Tabs[2].Active)

	ok, err = f.mgr.ActivateTabByURL(ctx, "https://nowhere.test")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindMatchingGroup(t *testing.T) {
	groups := []host.Group{
		{ID: 1, Title: host.String("Docs"), Color: project.Blue},
		{ID: 2, Title: host.String("Docs"), Color: project.Red},
		{ID: 3, Color: project.Red},
	}

	g, ok := FindMatchingGroup(groups, "Docs", project.Red)
	require.True(t, ok)
	assert.Equal(t, 2, g.ID)

	_, ok = FindMatchingGroup(groups, "", project.Red)
	assert.False(t, ok, "a group without a reported title matches no title")

	f := newFixture()
	gid := f.browser.AddGroup("Live", project.Pink, "https://x.test")
	found, ok, err := f.mgr.FindMatchingGroup(context.Background(), "Live", project.Pink)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, gid, found.ID)
}
