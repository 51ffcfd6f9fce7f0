// Package tabgroups composes live capture, the persistence gateway and the
// reconciliation engine into the user-facing project operations.
package tabgroups

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fakeyudi/tabkeep/internal/capture"
	"github.com/fakeyudi/tabkeep/internal/host"
	"github.com/fakeyudi/tabkeep/internal/project"
	"github.com/fakeyudi/tabkeep/internal/reconcile"
	"github.com/fakeyudi/tabkeep/internal/storage"
)

var (
	// ErrNoActiveProject is returned by operations that default to the active
	// project when none is set.
	ErrNoActiveProject = errors.New("no active project")
	// ErrNoProjects is returned when cycling with nothing saved.
	ErrNoProjects = errors.New("no saved projects")
)

// Manager runs project operations against one browser window and one store.
type Manager struct {
	browser host.Browser
	gw      *storage.Gateway
	logger  *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewManager returns a Manager. A nil logger discards log output.
func NewManager(browser host.Browser, gw *storage.Gateway, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		browser: browser,
		gw:      gw,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Gateway returns the store the manager writes to.
func (m *Manager) Gateway() *storage.Gateway { return m.gw }

// CaptureProject snapshots every live group into a project named name and
// makes it active. With an existingID that names a stored project, the
// project's id and CreatedAt are kept and only name, groups and UpdatedAt
// change. An empty existingID mints a new id.
func (m *Manager) CaptureProject(ctx context.Context, name, existingID string) (project.Project, error) {
	groups, err := capture.LiveGroups(ctx, m.browser)
	if err != nil {
		return project.Project{}, err
	}
	return m.store(ctx, name, existingID, groups)
}

func (m *Manager) store(ctx context.Context, name, existingID string, groups []project.Group) (project.Project, error) {
	now := project.Millis(m.now())
	saved := project.Project{
		ID:        existingID,
		Name:      name,
		Groups:    groups,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if saved.ID == "" {
		saved.ID = m.newID()
	}

	err := m.gw.Update(ctx, func(s *project.Store) error {
		if i := s.Find(saved.ID); i >= 0 {
			saved.CreatedAt = s.Projects[i].CreatedAt
		}
		storage.Upsert(s, saved)
		s.ActiveProjectID = saved.ID
		return nil
	})
	if err != nil {
		return project.Project{}, err
	}

	m.logger.Info("project saved", "id", saved.ID, "name", saved.Name, "groups", len(saved.Groups), "tabs", saved.TabCount())
	return saved, nil
}

// AutoSaveActiveProject re-captures the active project. It does nothing when
// no project is active, when the active id names no stored project, or when
// the live groups match the saved ones group for group in order. saved
// reports whether a write happened.
func (m *Manager) AutoSaveActiveProject(ctx context.Context) (p *project.Project, saved bool, err error) {
	s, err := m.gw.GetStore(ctx)
	if err != nil {
		return nil, false, err
	}
	if s.ActiveProjectID == "" {
		return nil, false, nil
	}
	i := s.Find(s.ActiveProjectID)
	if i < 0 {
		m.logger.Warn("active project is missing from the store", "id", s.ActiveProjectID)
		return nil, false, nil
	}
	current := s.Projects[i]

	live, err := capture.LiveGroups(ctx, m.browser)
	if err != nil {
		return nil, false, err
	}
	if reconcile.SameLayout(current.Groups, live) {
		m.logger.Debug("auto-save skipped, no changes", "id", current.ID)
		return &current, false, nil
	}

	updated, err := m.store(ctx, current.Name, current.ID, live)
	if err != nil {
		return nil, false, err
	}
	return &updated, true, nil
}

// SaveCurrent re-captures the active project unconditionally.
func (m *Manager) SaveCurrent(ctx context.Context) (project.Project, error) {
	active, err := m.activeProject(ctx)
	if err != nil {
		return project.Project{}, err
	}
	return m.CaptureProject(ctx, active.Name, active.ID)
}

func (m *Manager) activeProject(ctx context.Context) (*project.Project, error) {
	id, err := m.gw.GetActiveProjectID(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ErrNoActiveProject
	}
	return m.gw.GetProject(ctx, id)
}

// resolve returns the project named by id, or the active project for "".
func (m *Manager) resolve(ctx context.Context, id string) (*project.Project, error) {
	if id == "" {
		return m.activeProject(ctx)
	}
	return m.gw.GetProject(ctx, id)
}
