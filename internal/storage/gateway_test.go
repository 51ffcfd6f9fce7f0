package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fakeyudi/tabkeep/internal/kv"
	"github.com/fakeyudi/tabkeep/internal/project"
)

func newGateway(t *testing.T) (*Gateway, *kv.MemoryStore) {
	t.Helper()
	mem := kv.NewMemoryStore()
	return New(mem), mem
}

func proj(id string) project.Project {
	return project.Project{ID: id, Name: "name-" + id, Groups: []project.Group{}, CreatedAt: 1, UpdatedAt: 1}
}

func ids(projects []project.Project) []string {
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = p.ID
	}
	return out
}

func TestGetStoreEmpty(t *testing.T) {
	gw, _ := newGateway(t)

	s, err := gw.GetStore(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, s.Projects)
	assert.Empty(t, s.Projects)
	assert.Equal(t, "", s.ActiveProjectID)
}

func TestSaveStoreWritesNullActive(t *testing.T) {
	gw, mem := newGateway(t)
	ctx := context.Background()

	require.NoError(t, gw.SaveStore(ctx, project.Store{Projects: []project.Project{proj("a")}}))

	snap := mem.Snapshot()
	assert.JSONEq(t, "null", string(snap[KeyActive]))
	assert.JSONEq(t, `[{"id":"a","name":"name-a","groups":[],"createdAt":1,"updatedAt":1}]`, string(snap[KeyProjects]))
}

func TestSaveProjectUpserts(t *testing.T) {
	gw, _ := newGateway(t)
	ctx := context.Background()

	require.NoError(t, gw.SaveProject(ctx, proj("a")))
	require.NoError(t, gw.SaveProject(ctx, proj("b")))

	updated := proj("a")
	updated.Name = "renamed"
	require.NoError(t, gw.SaveProject(ctx, updated))

	projects, err := gw.GetProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(projects))
	assert.Equal(t, "renamed", projects[0].Name)
}

func TestGetProjectNotFound(t *testing.T) {
	gw, _ := newGateway(t)

	_, err := gw.GetProject(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, project.ErrProjectNotFound))
	assert.Contains(t, err.Error(), "missing")
}

// Feature: tabkeep, Property 10: Delete clears only a matching active pointer
func TestDeleteProjectActivePointer(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(t, "n")
		del := rapid.IntRange(0, n-1).Draw(t, "delete")
		active := rapid.IntRange(0, n-1).Draw(t, "active")

		gw := New(kv.NewMemoryStore())
		ctx := context.Background()
		var projects []project.Project
		for i := 0; i < n; i++ {
			projects = append(projects, proj(fmt.Sprintf("p%d", i)))
		}
		activeID := projects[active].ID
		if err := gw.SaveStore(ctx, project.Store{Projects: projects, ActiveProjectID: activeID}); err != nil {
			t.Fatal(err)
		}

		deleted := projects[del].ID
		if err := gw.DeleteProject(ctx, deleted); err != nil {
			t.Fatal(err)
		}

		s, err := gw.GetStore(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(s.Projects) != n-1 || s.Find(deleted) >= 0 {
			t.Fatalf("project %s not removed: %v", deleted, ids(s.Projects))
		}
		want := activeID
		if deleted == activeID {
			want = ""
		}
		if s.ActiveProjectID != want {
			t.Fatalf("active=%q after deleting %q, want %q", s.ActiveProjectID, deleted, want)
		}
	})
}

func TestDeleteProjectNotFound(t *testing.T) {
	gw, mem := newGateway(t)
	ctx := context.Background()
	require.NoError(t, gw.SaveProject(ctx, proj("a")))
	before := mem.Snapshot()

	err := gw.DeleteProject(ctx, "zzz")
	require.ErrorIs(t, err, project.ErrProjectNotFound)
	assert.Equal(t, before, mem.Snapshot(), "failed delete must not write")
}

func TestSetActiveProjectID(t *testing.T) {
	gw, _ := newGateway(t)
	ctx := context.Background()
	require.NoError(t, gw.SaveProject(ctx, proj("a")))

	require.NoError(t, gw.SetActiveProjectID(ctx, "a"))
	active, err := gw.GetActiveProjectID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", active)

	require.ErrorIs(t, gw.SetActiveProjectID(ctx, "nope"), project.ErrProjectNotFound)

	require.NoError(t, gw.SetActiveProjectID(ctx, ""))
	active, err = gw.GetActiveProjectID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", active)
}

func TestReorderProjects(t *testing.T) {
	tests := []struct {
		name  string
		order []string
		want  []string
	}{
		{"full reversal", []string{"c", "b", "a"}, []string{"c", "b", "a"}},
		{"partial moves to front", []string{"c"}, []string{"c", "a", "b"}},
		{"unknown ids ignored", []string{"x", "b", "y"}, []string{"b", "a", "c"}},
		{"duplicates ignored", []string{"b", "b", "a"}, []string{"b", "a", "c"}},
		{"empty keeps order", nil, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, _ := newGateway(t)
			ctx := context.Background()
			require.NoError(t, gw.SaveStore(ctx, project.Store{Projects: []project.Project{proj("a"), proj("b"), proj("c")}}))

			require.NoError(t, gw.ReorderProjects(ctx, tt.order))

			projects, err := gw.GetProjects(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(projects))
		})
	}
}

func TestUpdateErrorSkipsWrite(t *testing.T) {
	gw, mem := newGateway(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := gw.Update(ctx, func(s *project.Store) error {
		s.Projects = append(s.Projects, proj("a"))
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, mem.Snapshot())
}

func TestConcurrentSavesAreNotLost(t *testing.T) {
	gw, _ := newGateway(t)
	ctx := context.Background()

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, gw.SaveProject(ctx, proj(fmt.Sprintf("p%02d", i))))
		}(i)
	}
	wg.Wait()

	projects, err := gw.GetProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, n)
}

func TestGatewayOverSQLite(t *testing.T) {
	store, err := kv.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	gw := New(store)
	ctx := context.Background()
	require.NoError(t, gw.SaveProject(ctx, proj("a")))
	require.NoError(t, gw.SetActiveProjectID(ctx, "a"))

	got, err := gw.GetProject(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, proj("a"), *got)
}

func TestCorruptProjectsValue(t *testing.T) {
	mem := kv.NewMemoryStore()
	require.NoError(t, mem.Set(context.Background(), map[string][]byte{KeyProjects: []byte(`{"not":"a list"}`)}))

	_, err := New(mem).GetStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyProjects)
}
