package autosave

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/fakeyudi/tabkeep/internal/host"
	"github.com/fakeyudi/tabkeep/internal/tabgroups"
)

// Qualifies reports whether ev should schedule an auto-save. Every group and
// tab event does, except tab updates that touch neither the URL nor the
// title.
func Qualifies(ev host.Event) bool {
	switch ev.Kind {
	case host.GroupCreated, host.GroupUpdated, host.GroupRemoved,
		host.TabCreated, host.TabRemoved, host.TabAttached, host.TabDetached:
		return true
	case host.TabUpdated:
		return slices.Contains(ev.Changed, "url") || slices.Contains(ev.Changed, "title")
	default:
		return false
	}
}

// Listener turns host events into debounced auto-saves and runs keyboard
// commands. It never returns an operation error: failures are logged.
type Listener struct {
	mgr    *tabgroups.Manager
	logger *slog.Logger
	sched  *Scheduler

	mu      sync.Mutex
	saveCtx context.Context
}

// NewListener returns a Listener that saves through mgr after delay of
// quiet. A nil logger discards log output.
func NewListener(mgr *tabgroups.Manager, delay time.Duration, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	l := &Listener{mgr: mgr, logger: logger, saveCtx: context.Background()}
	l.sched = NewScheduler(delay, l.save)
	return l
}

// Scheduler exposes the debounce timer, for flushing on shutdown.
func (l *Listener) Scheduler() *Scheduler { return l.sched }

// Run consumes events until ctx is cancelled or the channel closes. A save
// that is pending when Run returns stays pending; call Flush or Stop on the
// scheduler.
func (l *Listener) Run(ctx context.Context, events <-chan host.Event) error {
	l.mu.Lock()
	l.saveCtx = context.WithoutCancel(ctx)
	l.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			l.Handle(ctx, ev)
		}
	}
}

// Handle processes one event.
func (l *Listener) Handle(ctx context.Context, ev host.Event) {
	if ev.Kind == host.Command {
		l.command(ctx, ev.Command)
		return
	}
	if Qualifies(ev) {
		l.logger.Debug("scheduling auto-save", "event", ev.Kind, "tab", ev.TabID, "group", ev.GroupID)
		l.sched.Schedule()
	}
}

func (l *Listener) command(ctx context.Context, name string) {
	switch name {
	case host.CommandNextProject, host.CommandPreviousProject:
		// Pending edits belong to the project being left.
		l.sched.Flush()
		step := 1
		if name == host.CommandPreviousProject {
			step = -1
		}
		p, err := l.mgr.CycleProject(ctx, step)
		if err != nil {
			l.logger.Error("command failed", "command", name, "error", err)
			return
		}
		l.logger.Info("switched project", "command", name, "id", p.ID, "name", p.Name)

	case host.CommandSaveCurrent:
		l.sched.Cancel()
		p, err := l.mgr.SaveCurrent(ctx)
		if err != nil {
			l.logger.Error("command failed", "command", name, "error", err)
			return
		}
		l.logger.Info("saved current project", "id", p.ID, "name", p.Name)

	default:
		l.logger.Warn("unknown command", "command", name)
	}
}

// save is the debounced action. It skips while a switch is in progress and
// when nothing is active, and swallows every error.
func (l *Listener) save() {
	l.mu.Lock()
	ctx := l.saveCtx
	l.mu.Unlock()

	switching, err := l.mgr.Gateway().IsSwitching(ctx)
	if err != nil {
		l.logger.Error("auto-save failed", "error", err)
		return
	}
	if switching {
		l.logger.Debug("auto-save skipped, switch in progress")
		return
	}

	active, err := l.mgr.Gateway().GetActiveProjectID(ctx)
	if err != nil {
		l.logger.Error("auto-save failed", "error", err)
		return
	}
	if active == "" {
		return
	}

	p, saved, err := l.mgr.AutoSaveActiveProject(ctx)
	if err != nil {
		l.logger.Error("auto-save failed", "project", active, "error", err)
		return
	}
	if saved {
		l.logger.Info("auto-saved project", "id", p.ID, "name", p.Name, "groups", len(p.Groups))
	}
}
