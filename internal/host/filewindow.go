package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/fakeyudi/tabkeep/internal/fsutil"
)

// FileWindow is a Browser backed by a JSON window file. A browser-side bridge
// keeps the file in sync with the real window; tabkeep's own mutations are
// written back atomically for the bridge to apply.
type FileWindow struct {
	path string
	mu   sync.Mutex
}

var (
	_ Browser     = (*FileWindow)(nil)
	_ EventSource = (*FileWindow)(nil)
)

// NewFileWindow returns a FileWindow for the file at path. The file need not
// exist yet; a missing file is an empty window.
func NewFileWindow(path string) *FileWindow {
	return &FileWindow{path: path}
}

// Path returns the window file path.
func (f *FileWindow) Path() string { return f.path }

func (f *FileWindow) load() (*Window, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Window{}, nil
		}
		return nil, fmt.Errorf("failed to read window state: %w", err)
	}
	var w Window
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to parse window state: %w", err)
	}
	return &w, nil
}

// Snapshot returns the current window state.
func (f *FileWindow) Snapshot() (*Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

// Replace overwrites the window file with w.
func (f *FileWindow) Replace(w *Window) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save(w)
}

func (f *FileWindow) save(w *Window) error {
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to persist window state: %w", err)
	}
	if err := fsutil.WriteFileAtomic(f.path, data); err != nil {
		return fmt.Errorf("failed to persist window state: %w", err)
	}
	return nil
}

func (f *FileWindow) view(fn func(w *Window)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, err := f.load()
	if err != nil {
		return err
	}
	fn(w)
	return nil
}

func (f *FileWindow) update(fn func(w *Window) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, err := f.load()
	if err != nil {
		return err
	}
	if err := fn(w); err != nil {
		return err
	}
	return f.save(w)
}

func (f *FileWindow) Groups(ctx context.Context) ([]Group, error) {
	var out []Group
	err := f.view(func(w *Window) { out = slices.Clone(w.Groups) })
	return out, err
}

func (f *FileWindow) TabsInGroup(ctx context.Context, groupID int) ([]Tab, error) {
	var out []Tab
	err := f.view(func(w *Window) { out = w.TabsInGroup(groupID) })
	return out, err
}

func (f *FileWindow) UngroupedTabs(ctx context.Context) ([]Tab, error) {
	var out []Tab
	err := f.view(func(w *Window) { out = w.UngroupedTabs() })
	return out, err
}

func (f *FileWindow) AllTabs(ctx context.Context) ([]Tab, error) {
	var out []Tab
	err := f.view(func(w *Window) { out = slices.Clone(w.Tabs) })
	return out, err
}

func (f *FileWindow) CreateTab(ctx context.Context, url string, pinned bool) (Tab, error) {
	var created Tab
	err := f.update(func(w *Window) error {
		created = w.CreateTab(url, pinned)
		return nil
	})
	return created, err
}

func (f *FileWindow) GroupTabs(ctx context.Context, tabIDs []int) (int, error) {
	var gid int
	err := f.update(func(w *Window) error {
		var err error
		gid, err = w.GroupTabs(tabIDs)
		return err
	})
	return gid, err
}

func (f *FileWindow) UpdateGroup(ctx context.Context, groupID int, upd GroupUpdate) error {
	return f.update(func(w *Window) error { return w.UpdateGroup(groupID, upd) })
}

func (f *FileWindow) RemoveTabs(ctx context.Context, tabIDs []int) error {
	return f.update(func(w *Window) error {
		w.RemoveTabs(tabIDs)
		return nil
	})
}

func (f *FileWindow) ActivateTab(ctx context.Context, tabID int) error {
	return f.update(func(w *Window) error { return w.Activate(tabID) })
}

// takeCommands loads the window and, if it carries pending commands, clears
// them on disk so each command is delivered once.
func (f *FileWindow) takeCommands() (*Window, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, err := f.load()
	if err != nil {
		return nil, nil, err
	}
	if len(w.Commands) == 0 {
		return w, nil, nil
	}
	cmds := w.Commands
	w.Commands = nil
	if err := f.save(w); err != nil {
		return nil, nil, err
	}
	return w, cmds, nil
}

// Events watches the window file and emits the events implied by each change,
// followed by any keyboard commands found in the file. The channel is closed
// when ctx is cancelled or the watcher fails.
func (f *FileWindow) Events(ctx context.Context) (<-chan Event, error) {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: atomic replacement swaps the file's inode.
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	prev, err := f.Snapshot()
	if err != nil {
		prev = &Window{}
	}

	out := make(chan Event, 64)
	go func() {
		defer close(out)
		defer watcher.Close()

		target := filepath.Clean(f.path)
		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) {
					continue
				}

				next, cmds, err := f.takeCommands()
				if err != nil {
					continue // partial write by the bridge; the next event will carry the full file
				}
				events := DiffWindows(prev, next)
				for _, c := range cmds {
					events = append(events, Event{Kind: Command, Command: c})
				}
				prev = next

				for _, e := range events {
					select {
					case out <- e:
					case <-ctx.Done():
						return
					}
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Watcher errors are non-fatal; continue watching.
			}
		}
	}()
	return out, nil
}
