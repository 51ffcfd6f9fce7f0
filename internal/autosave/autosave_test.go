package autosave

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakeyudi/tabkeep/internal/host"
	"github.com/fakeyudi/tabkeep/internal/host/hosttest"
	"github.com/fakeyudi/tabkeep/internal/kv"
	"github.com/fakeyudi/tabkeep/internal/project"
	"github.com/fakeyudi/tabkeep/internal/storage"
	"github.com/fakeyudi/tabkeep/internal/tabgroups"
)

func TestQualifies(t *testing.T) {
	tests := []struct {
		ev   host.Event
		want bool
	}{
		{host.Event{Kind: host.GroupCreated}, true},
		{host.Event{Kind: host.GroupUpdated}, true},
		{host.Event{Kind: host.GroupRemoved}, true},
		{host.Event{Kind: host.TabCreated}, true},
		{host.Event{Kind: host.TabRemoved}, true},
		{host.Event{Kind: host.TabAttached}, true},
		{host.Event{Kind: host.TabDetached}, true},
		{host.Event{Kind: host.TabUpdated, Changed: []string{"url"}}, true},
		{host.Event{Kind: host.TabUpdated, Changed: []string{"pinned", "title"}}, true},
		{host.Event{Kind: host.TabUpdated, Changed: []string{"pinned"}}, false},
		{host.Event{Kind: host.TabUpdated, Changed: []string{"active"}}, false},
		{host.Event{Kind: host.TabUpdated}, false},
		{host.Event{Kind: host.Command, Command: host.CommandSaveCurrent}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Qualifies(tt.ev), "%+v", tt.ev)
	}
}

func TestSchedulerCoalescesBurst(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(30*time.Millisecond, func() { runs.Add(1) })

	for i := 0; i < 10; i++ {
		s.Schedule()
		time.Sleep(2 * time.Millisecond)
	}
	assert.True(t, s.Pending())

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load(), "a burst must produce a single run")
	assert.False(t, s.Pending())
}

func TestSchedulerCancel(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(20*time.Millisecond, func() { runs.Add(1) })

	s.Schedule()
	s.Cancel()
	assert.False(t, s.Pending())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
}

func TestSchedulerFlush(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(time.Hour, func() { runs.Add(1) })

	assert.False(t, s.Flush(), "nothing pending")
	s.Schedule()
	assert.True(t, s.Flush())
	assert.Equal(t, int32(1), runs.Load())
	assert.False(t, s.Flush())
	assert.Equal(t, int32(1), runs.Load())
}

func TestSchedulerStop(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(10*time.Millisecond, func() { runs.Add(1) })

	s.Schedule()
	s.Stop()
	s.Schedule()
	assert.False(t, s.Pending())

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
}

func TestSchedulerDefaultDelay(t *testing.T) {
	assert.Equal(t, DefaultDelay, NewScheduler(0, func() {}).Delay())
	assert.Equal(t, 2*time.Second, DefaultDelay)
}

// syncBuffer is a bytes.Buffer safe for the scheduler's goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fixture struct {
	browser *hosttest.Browser
	gw      *storage.Gateway
	mgr     *tabgroups.Manager
	logs    *syncBuffer
	l       *Listener
}

func newFixture(t *testing.T, delay time.Duration) *fixture {
	t.Helper()
	f := &fixture{
		browser: hosttest.New(),
		gw:      storage.New(kv.NewMemoryStore()),
		logs:    &syncBuffer{},
	}
	logger := slog.New(slog.NewTextHandler(f.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f.mgr = tabgroups.NewManager(f.browser, f.gw, logger)
	f.l = NewListener(f.mgr, delay, logger)
	t.Cleanup(f.l.Scheduler().Stop)
	return f
}

func (f *fixture) captured(t *testing.T) project.Project {
	t.Helper()
	f.browser.AddGroup("Docs", project.Blue, "https://a.test")
	p, err := f.mgr.CaptureProject(context.Background(), "work", "")
	require.NoError(t, err)
	return p
}

func (f *fixture) groups(t *testing.T, id string) []project.Group {
	t.Helper()
	p, err := f.gw.GetProject(context.Background(), id)
	require.NoError(t, err)
	return p.Groups
}

func TestListenerAutoSavesAfterQuiet(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)
	p := f.captured(t)
	ctx := context.Background()

	f.browser.AddGroup("New", project.Red, "https://b.test")
	f.l.Handle(ctx, host.Event{Kind: host.GroupCreated, GroupID: 9})
	f.l.Handle(ctx, host.Event{Kind: host.TabAttached, TabID: 8, GroupID: 9})

	assert.Eventually(t, func() bool {
		saved, err := f.gw.GetProject(ctx, p.ID)
		return err == nil && len(saved.Groups) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestListenerIgnoresNonQualifyingEvents(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.captured(t)

	f.l.Handle(context.Background(), host.Event{Kind: host.TabUpdated, Changed: []string{"pinned"}})
	assert.False(t, f.l.Scheduler().Pending())
}

func TestListenerSkipsWhileSwitching(t *testing.T) {
	f := newFixture(t, time.Hour)
	p := f.captured(t)
	ctx := context.Background()

	release, err := f.gw.BeginSwitch(ctx)
	require.NoError(t, err)
	f.browser.AddGroup("New", project.Red, "https://b.test")

	f.l.Handle(ctx, host.Event{Kind: host.GroupCreated})
	require.True(t, f.l.Scheduler().Flush())
	assert.Len(t, f.groups(t, p.ID), 1, "no save while switching")
	assert.Contains(t, f.logs.String(), "switch in progress")

	require.NoError(t, release())
	f.l.Handle(ctx, host.Event{Kind: host.GroupCreated})
	require.True(t, f.l.Scheduler().Flush())
	assert.Len(t, f.groups(t, p.ID), 2)
}

func TestListenerNoActiveProject(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.browser.AddGroup("Docs", project.Blue, "https://a.test")

	f.l.Handle(context.Background(), host.Event{Kind: host.GroupCreated})
	require.True(t, f.l.Scheduler().Flush())

	projects, err := f.gw.GetProjects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, projects)
	assert.NotContains(t, f.browser.Calls, "Groups", "no live read without an active project")
}

func TestListenerSwallowsHostErrors(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.captured(t)
	f.browser.Fail["Groups"] = errors.New("host unavailable")

	f.l.Handle(context.Background(), host.Event{Kind: host.TabCreated})
	assert.NotPanics(t, func() { f.l.Scheduler().Flush() })
	assert.Contains(t, f.logs.String(), "auto-save failed")
	assert.Contains(t, f.logs.String(), "host unavailable")
}

func TestListenerCommands(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		require.NoError(t, f.gw.SaveProject(ctx, project.Project{ID: id, Name: id, Groups: []project.Group{
			{Title: id, Color: project.Blue, Tabs: []project.Tab{{URL: "https://" + id + ".test"}}},
		}}))
	}

	f.l.Handle(ctx, host.Event{Kind: host.Command, Command: host.CommandNextProject})
	active, err := f.gw.GetActiveProjectID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", active)

	f.l.Handle(ctx, host.Event{Kind: host.Command, Command: host.CommandPreviousProject})
	active, err = f.gw.GetActiveProjectID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", active)
	assert.Equal(t, map[string][]string{"b": {"https://b.test"}}, f.browser.LiveURLs())

	f.browser.AddGroup("Extra", project.Green, "https://extra.test")
	f.l.Handle(ctx, host.Event{Kind: host.GroupCreated})
	f.l.Handle(ctx, host.Event{Kind: host.Command, Command: host.CommandSaveCurrent})
	assert.False(t, f.l.Scheduler().Pending(), "explicit save supersedes the pending one")
	assert.Len(t, f.groups(t, "b"), 2)

	f.l.Handle(ctx, host.Event{Kind: host.Command, Command: "reload"})
	assert.Contains(t, f.logs.String(), "unknown command")
}

func TestListenerCommandErrorsAreLogged(t *testing.T) {
	f := newFixture(t, time.Hour)

	f.l.Handle(context.Background(), host.Event{Kind: host.Command, Command: host.CommandSaveCurrent})
	assert.Contains(t, f.logs.String(), "no active project")
}

func TestListenerRun(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.captured(t)

	events := make(chan host.Event, 2)
	events <- host.Event{Kind: host.TabCreated}
	close(events)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, f.l.Run(ctx, events))
	assert.True(t, f.l.Scheduler().Pending())

	// A flush after shutdown still saves on an uncancelled context.
	cancel()
	f.browser.AddGroup("Late", project.Yellow, "https://late.test")
	require.True(t, f.l.Scheduler().Flush())
	active, err := f.gw.GetActiveProjectID(context.Background())
	require.NoError(t, err)
	assert.Len(t, f.groups(t, active), 2)
}
