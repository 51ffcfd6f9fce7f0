// Package reconcile diffs collections of saved tab groups.
//
// Groups are matched by title. Title is a weak key: when a collection holds
// two groups with the same title they collapse into one logical group, keeping
// the position of the first and the contents of the last.
//
// Two operations answer slightly different questions and must stay distinct:
//
//   - DiffGroups builds a human-facing change report. Tabs within a matched
//     group are compared as URL sets, so reordering tabs or retitling a tab is
//     not a change.
//   - DiffProjects names the groups that differ. Matched groups are compared
//     positionally on every saved field, so reordering tabs is a change.
//
// SameLayout does not match by title at all. It compares group by group in
// order and is what decides whether a live window needs saving.
package reconcile

import "github.com/fakeyudi/tabkeep/internal/project"

// Status classifies a group in a Report.
type Status string

const (
	Added     Status = "added"
	Removed   Status = "removed"
	Modified  Status = "modified"
	Unchanged Status = "unchanged" // never emitted in a Report; unchanged groups are omitted
)

// GroupDiff is the change record for one group title.
type GroupDiff struct {
	Title       string        `json:"title"`
	Color       project.Color `json:"color"`
	Status      Status        `json:"status"`
	AddedTabs   []project.Tab `json:"addedTabs"`
	RemovedTabs []project.Tab `json:"removedTabs"`
}

// Report is the result of DiffGroups. TotalAdded and TotalRemoved count tabs.
type Report struct {
	Groups       []GroupDiff `json:"groups"`
	TotalAdded   int         `json:"totalAdded"`
	TotalRemoved int         `json:"totalRemoved"`
	HasChanges   bool        `json:"hasChanges"`
}

// ProjectDiff is the result of DiffProjects: group titles by change class.
type ProjectDiff struct {
	Added    []string `json:"added"`
	Removed  []string `json:"removed"`
	Modified []string `json:"modified"`
}

// HasChanges reports whether any group differs.
func (d ProjectDiff) HasChanges() bool {
	return len(d.Added)+len(d.Removed)+len(d.Modified) > 0
}

// titleIndex is an insertion-ordered title→group map. Re-inserting a title
// replaces the group but keeps the original position.
type titleIndex struct {
	order  []string
	groups map[string]project.Group
}

func indexByTitle(groups []project.Group) titleIndex {
	idx := titleIndex{groups: make(map[string]project.Group, len(groups))}
	for _, g := range groups {
		if _, seen := idx.groups[g.Title]; !seen {
			idx.order = append(idx.order, g.Title)
		}
		idx.groups[g.Title] = g
	}
	return idx
}

func (idx titleIndex) get(title string) (project.Group, bool) {
	g, ok := idx.groups[title]
	return g, ok
}

// DiffGroups compares saved groups against live groups. Every title appears
// at most once in the report: added groups first (live order), then removed
// groups (saved order), then modified groups (saved order).
func DiffGroups(saved, live []project.Group) Report {
	savedIdx := indexByTitle(saved)
	liveIdx := indexByTitle(live)

	report := Report{Groups: []GroupDiff{}}

	for _, title := range liveIdx.order {
		if _, ok := savedIdx.get(title); ok {
			continue
		}
		g, _ := liveIdx.get(title)
		report.Groups = append(report.Groups, GroupDiff{
			Title:       title,
			Color:       g.Color,
			Status:      Added,
			AddedTabs:   orEmpty(g.Tabs),
			RemovedTabs: []project.Tab{},
		})
		report.TotalAdded += len(g.Tabs)
	}

	for _, title := range savedIdx.order {
		if _, ok := liveIdx.get(title); ok {
			continue
		}
		g, _ := savedIdx.get(title)
		report.Groups = append(report.Groups, GroupDiff{
			Title:       title,
			Color:       g.Color,
			Status:      Removed,
			AddedTabs:   []project.Tab{},
			RemovedTabs: orEmpty(g.Tabs),
		})
		report.TotalRemoved += len(g.Tabs)
	}

	for _, title := range savedIdx.order {
		liveGroup, ok := liveIdx.get(title)
		if !ok {
			continue
		}
		savedGroup, _ := savedIdx.get(title)

		added := tabsMissingFrom(liveGroup.Tabs, urlSet(savedGroup.Tabs))
		removed := tabsMissingFrom(savedGroup.Tabs, urlSet(liveGroup.Tabs))
		if len(added) == 0 && len(removed) == 0 {
			continue
		}
		report.Groups = append(report.Groups, GroupDiff{
			Title:       title,
			Color:       liveGroup.Color,
			Status:      Modified,
			AddedTabs:   added,
			RemovedTabs: removed,
		})
		report.TotalAdded += len(added)
		report.TotalRemoved += len(removed)
	}

	report.HasChanges = len(report.Groups) > 0
	return report
}

// DiffProjects compares two group collections by title and reports titles
// unique to b as added, unique to a as removed, and present in both but not
// GroupsEqual as modified.
func DiffProjects(a, b []project.Group) ProjectDiff {
	aIdx := indexByTitle(a)
	bIdx := indexByTitle(b)

	diff := ProjectDiff{Added: []string{}, Removed: []string{}, Modified: []string{}}
	for _, title := range bIdx.order {
		if _, ok := aIdx.get(title); !ok {
			diff.Added = append(diff.Added, title)
		}
	}
	for _, title := range aIdx.order {
		ga, _ := aIdx.get(title)
		gb, ok := bIdx.get(title)
		if !ok {
			diff.Removed = append(diff.Removed, title)
			continue
		}
		if !GroupsEqual(ga, gb) {
			diff.Modified = append(diff.Modified, title)
		}
	}
	return diff
}

// SameLayout reports whether a and b hold the same groups in the same order:
// equal length, and at every position the same title and GroupsEqual.
func SameLayout(a, b []project.Group) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Title != b[i].Title || !GroupsEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// GroupsEqual reports whether two groups have the same color, collapsed state
// and the same tabs in the same order. Titles are not compared; callers match
// groups by title before calling.
func GroupsEqual(a, b project.Group) bool {
	if a.Color != b.Color || a.Collapsed != b.Collapsed || len(a.Tabs) != len(b.Tabs) {
		return false
	}
	for i := range a.Tabs {
		if a.Tabs[i] != b.Tabs[i] {
			return false
		}
	}
	return true
}

func urlSet(tabs []project.Tab) map[string]struct{} {
	set := make(map[string]struct{}, len(tabs))
	for _, t := range tabs {
		set[t.URL] = struct{}{}
	}
	return set
}

func tabsMissingFrom(tabs []project.Tab, urls map[string]struct{}) []project.Tab {
	out := []project.Tab{}
	for _, t := range tabs {
		if _, ok := urls[t.URL]; !ok {
			out = append(out, t)
		}
	}
	return out
}

func orEmpty(tabs []project.Tab) []project.Tab {
	if tabs == nil {
		return []project.Tab{}
	}
	return tabs
}
