// Package storage is the persistence gateway for the project collection, the
// active-project pointer and the switching flag.
//
// Every read-modify-write goes through Update, which holds the gateway's
// mutex for the whole sequence, so concurrent callers in one process never
// lose each other's writes.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/fakeyudi/tabkeep/internal/kv"
	"github.com/fakeyudi/tabkeep/internal/project"
)

// Persisted keys.
const (
	KeyProjects  = "projects"
	KeyActive    = "activeProjectId"
	KeySwitching = "switching"
)

// Gateway reads and writes the project store through a kv.Store.
type Gateway struct {
	kv kv.Store
	mu sync.Mutex
}

// New returns a Gateway over store.
func New(store kv.Store) *Gateway {
	return &Gateway{kv: store}
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", project.ErrProjectNotFound, id)
}

func (g *Gateway) load(ctx context.Context) (*project.Store, error) {
	vals, err := g.kv.Get(ctx, KeyProjects, KeyActive)
	if err != nil {
		return nil, fmt.Errorf("reading store: %w", err)
	}

	s := &project.Store{Projects: []project.Project{}}
	if raw, ok := vals[KeyProjects]; ok {
		if err := json.Unmarshal(raw, &s.Projects); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", KeyProjects, err)
		}
		if s.Projects == nil {
			s.Projects = []project.Project{}
		}
	}
	if raw, ok := vals[KeyActive]; ok {
		var active *string
		if err := json.Unmarshal(raw, &active); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", KeyActive, err)
		}
		if active != nil {
			s.ActiveProjectID = *active
		}
	}
	return s, nil
}

func (g *Gateway) save(ctx context.Context, s *project.Store) error {
	projects := s.Projects
	if projects == nil {
		projects = []project.Project{}
	}
	rawProjects, err := json.Marshal(projects)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", KeyProjects, err)
	}

	var active *string
	if s.ActiveProjectID != "" {
		active = &s.ActiveProjectID
	}
	rawActive, err := json.Marshal(active)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", KeyActive, err)
	}

	if err := g.kv.Set(ctx, map[string][]byte{KeyProjects: rawProjects, KeyActive: rawActive}); err != nil {
		return fmt.Errorf("writing store: %w", err)
	}
	return nil
}

// GetStore returns the whole store. Missing keys read as an empty project
// list and no active project.
func (g *Gateway) GetStore(ctx context.Context) (project.Store, error) {
	s, err := g.load(ctx)
	if err != nil {
		return project.Store{}, err
	}
	return *s, nil
}

// SaveStore overwrites both the project list and the active pointer.
func (g *Gateway) SaveStore(ctx context.Context, s project.Store) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.save(ctx, &s)
}

// Update runs fn on the current store and writes the result back. The whole
// sequence is serialized against every other Update on this Gateway. If fn
// returns an error nothing is written.
func (g *Gateway) Update(ctx context.Context, fn func(s *project.Store) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, err := g.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	return g.save(ctx, s)
}

// GetProjects returns every project in store order.
func (g *Gateway) GetProjects(ctx context.Context) ([]project.Project, error) {
	s, err := g.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.Projects, nil
}

// GetProject returns the project with the given id.
func (g *Gateway) GetProject(ctx context.Context, id string) (*project.Project, error) {
	s, err := g.load(ctx)
	if err != nil {
		return nil, err
	}
	i := s.Find(id)
	if i < 0 {
		return nil, notFound(id)
	}
	p := s.Projects[i]
	return &p, nil
}

// SaveProject replaces the project with the same id, or appends it.
func (g *Gateway) SaveProject(ctx context.Context, p project.Project) error {
	return g.Update(ctx, func(s *project.Store) error {
		Upsert(s, p)
		return nil
	})
}

// Upsert replaces the project with p's id in s, or appends p.
func Upsert(s *project.Store, p project.Project) {
	if i := s.Find(p.ID); i >= 0 {
		s.Projects[i] = p
		return
	}
	s.Projects = append(s.Projects, p)
}

// DeleteProject removes the project and clears the active pointer if it
// named that project.
func (g *Gateway) DeleteProject(ctx context.Context, id string) error {
	return g.Update(ctx, func(s *project.Store) error {
		i := s.Find(id)
		if i < 0 {
			return notFound(id)
		}
		s.Projects = append(s.Projects[:i], s.Projects[i+1:]...)
		if s.ActiveProjectID == id {
			s.ActiveProjectID = ""
		}
		return nil
	})
}

// GetActiveProjectID returns the active project id, or "".
func (g *Gateway) GetActiveProjectID(ctx context.Context) (string, error) {
	s, err := g.load(ctx)
	if err != nil {
		return "", err
	}
	return s.ActiveProjectID, nil
}

// SetActiveProjectID sets the active pointer. "" clears it; any other id must
// name a stored project.
func (g *Gateway) SetActiveProjectID(ctx context.Context, id string) error {
	return g.Update(ctx, func(s *project.Store) error {
		if id != "" && s.Find(id) < 0 {
			return notFound(id)
		}
		s.ActiveProjectID = id
		return nil
	})
}

// ReorderProjects moves the named projects to the front in the given order.
// Unknown ids are ignored; projects not named keep their relative order
// after the named ones.
func (g *Gateway) ReorderProjects(ctx context.Context, orderedIDs []string) error {
	return g.Update(ctx, func(s *project.Store) error {
		reordered := make([]project.Project, 0, len(s.Projects))
		taken := make(map[string]bool, len(orderedIDs))
		for _, id := range orderedIDs {
			if taken[id] {
				continue
			}
			if i := s.Find(id); i >= 0 {
				reordered = append(reordered, s.Projects[i])
				taken[id] = true
			}
		}
		for _, p := range s.Projects {
			if !taken[p.ID] {
				reordered = append(reordered, p)
			}
		}
		s.Projects = reordered
		return nil
	})
}
