package bundle

import (
	"context"
	"fmt"
	"time"

	"github.com/fakeyudi/tabkeep/internal/project"
	"github.com/fakeyudi/tabkeep/internal/storage"
)

// Mode selects how Import combines incoming projects with stored ones.
type Mode string

const (
	// ModeMerge appends incoming projects whose id is not already stored.
	ModeMerge Mode = "merge"
	// ModeReplace makes the incoming list the whole store.
	ModeReplace Mode = "replace"
)

// ParseMode accepts "merge" or "replace". Empty means merge.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeMerge:
		return ModeMerge, nil
	case ModeReplace:
		return ModeReplace, nil
	default:
		return "", fmt.Errorf("unknown import mode %q (want merge or replace)", s)
	}
}

// ImportResult counts what an import did.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Service exports from and imports into the persistence gateway.
type Service struct {
	gw  *storage.Gateway
	now func() time.Time
}

// NewService returns a Service over gw.
func NewService(gw *storage.Gateway) *Service {
	return &Service{gw: gw, now: time.Now}
}

// Envelope wraps the stored projects. A non-empty projectID limits the
// envelope to that one project.
func (s *Service) Envelope(ctx context.Context, projectID string) (*Envelope, error) {
	if projectID != "" {
		p, err := s.gw.GetProject(ctx, projectID)
		if err != nil {
			return nil, err
		}
		return NewEnvelope([]project.Project{*p}, s.now()), nil
	}
	projects, err := s.gw.GetProjects(ctx)
	if err != nil {
		return nil, err
	}
	return NewEnvelope(projects, s.now()), nil
}

// ExportAll returns every stored project as a JSON envelope.
func (s *Service) ExportAll(ctx context.Context) ([]byte, error) {
	env, err := s.Envelope(ctx, "")
	if err != nil {
		return nil, err
	}
	return (&JSONRenderer{}).Render(env)
}

// ExportProject returns one project as a JSON envelope.
func (s *Service) ExportProject(ctx context.Context, id string) ([]byte, error) {
	env, err := s.Envelope(ctx, id)
	if err != nil {
		return nil, err
	}
	return (&JSONRenderer{}).Render(env)
}

// Import parses data (JSON or Markdown export) and stores its projects.
// Nothing is written unless the whole export validates. Both modes clear the
// active project.
func (s *Service) Import(ctx context.Context, data []byte, mode Mode) (ImportResult, error) {
	incoming, err := Detect(data).Parse(data)
	if err != nil {
		return ImportResult{}, err
	}

	var result ImportResult
	err = s.gw.Update(ctx, func(st *project.Store) error {
		st.ActiveProjectID = ""

		if mode == ModeReplace {
			st.Projects = incoming
			result = ImportResult{Imported: len(incoming)}
			return nil
		}

		existing := make(map[string]bool, len(st.Projects))
		for _, p := range st.Projects {
			existing[p.ID] = true
		}
		for _, p := range incoming {
			if existing[p.ID] {
				result.Skipped++
				continue
			}
			st.Projects = append(st.Projects, p)
			existing[p.ID] = true
			result.Imported++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return result, nil
}
