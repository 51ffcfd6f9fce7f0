package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fakeyudi/tabkeep/internal/project"
	"github.com/fakeyudi/tabkeep/internal/reconcile"
)

const timeLayout = "2006-01-02 15:04:05"

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func groupLabel(g project.Group) string {
	title := g.Title
	if title == "" {
		title = "(untitled)"
	}
	state := string(g.Color)
	if g.Collapsed {
		state += ", collapsed"
	}
	return fmt.Sprintf("%s (%s)", title, state)
}

func tabLabel(t project.Tab) string {
	s := t.URL
	if t.Title != "" && t.Title != t.URL {
		s = t.Title + "  " + t.URL
	}
	if t.Pinned {
		s += "  [pinned]"
	}
	return s
}

// printProject writes a project header followed by its groups and tabs.
func printProject(w io.Writer, p project.Project, active bool) {
	marker := " "
	if active {
		marker = "*"
	}
	fmt.Fprintf(w, "%s %s  %s\n", marker, p.Name, p.ID)
	fmt.Fprintf(w, "  Created: %s\n", p.Created().Format(timeLayout))
	fmt.Fprintf(w, "  Updated: %s\n", p.Updated().Format(timeLayout))
	fmt.Fprintf(w, "  Groups:  %d   Tabs: %d\n", len(p.Groups), p.TabCount())
	printGroups(w, p.Groups, "  ")
}

func printGroups(w io.Writer, groups []project.Group, prefix string) {
	if len(groups) == 0 {
		fmt.Fprintln(w, prefix+"(no groups)")
		return
	}
	for _, g := range groups {
		fmt.Fprintln(w, prefix+groupLabel(g))
		for _, t := range g.Tabs {
			fmt.Fprintln(w, prefix+"  - "+tabLabel(t))
		}
	}
}

// printReport writes a DiffGroups report, one block per changed group.
func printReport(w io.Writer, r reconcile.Report) {
	if !r.HasChanges {
		fmt.Fprintln(w, "No changes.")
		return
	}
	fmt.Fprintf(w, "+%d / -%d tabs across %d groups\n", r.TotalAdded, r.TotalRemoved, len(r.Groups))
	for _, g := range r.Groups {
		title := g.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(w, "%-8s %s (%s)\n", strings.ToUpper(string(g.Status)), title, g.Color)
		for _, t := range g.AddedTabs {
			fmt.Fprintln(w, "  + "+t.URL)
		}
		for _, t := range g.RemovedTabs {
			fmt.Fprintln(w, "  - "+t.URL)
		}
	}
}
