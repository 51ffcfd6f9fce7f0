// Package search finds saved tabs across projects by substring.
package search

import (
	"strings"

	"github.com/fakeyudi/tabkeep/internal/project"
)

// GroupMatch is a group with at least one matching tab.
type GroupMatch struct {
	Group        project.Group
	MatchingTabs []project.Tab
}

// Result is a project that matched by name or by at least one tab.
// A name-only match carries no groups.
type Result struct {
	Project        project.Project
	MatchingGroups []GroupMatch
}

// Search returns the projects whose name, or any tab's title or URL,
// contains query, case-insensitively. A blank query matches nothing.
func Search(projects []project.Project, query string) []Result {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []Result{}
	}

	results := []Result{}
	for _, p := range projects {
		groups := []GroupMatch{}
		for _, g := range p.Groups {
			var tabs []project.Tab
			for _, t := range g.Tabs {
				if strings.Contains(strings.ToLower(t.Title), q) || strings.Contains(strings.ToLower(t.URL), q) {
					tabs = append(tabs, t)
				}
			}
			if len(tabs) > 0 {
				groups = append(groups, GroupMatch{Group: g, MatchingTabs: tabs})
			}
		}

		if len(groups) > 0 || strings.Contains(strings.ToLower(p.Name), q) {
			results = append(results, Result{Project: p, MatchingGroups: groups})
		}
	}
	return results
}

// CountMatches sums the matching tabs across every result.
func CountMatches(results []Result) int {
	n := 0
	for _, r := range results {
		for _, g := range r.MatchingGroups {
			n += len(g.MatchingTabs)
		}
	}
	return n
}
