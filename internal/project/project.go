// Package project defines the persisted snapshot shapes: tabs, tab groups,
// projects and the project collection.
package project

import (
	"errors"
	"time"
)

// ErrProjectNotFound is returned when an operation names a project id that is
// not in the store. Callers wrap it with the offending id.
var ErrProjectNotFound = errors.New("project not found")

// Color is one of the fixed tab group colors.
type Color string

const (
	Grey   Color = "grey"
	Blue   Color = "blue"
	Red    Color = "red"
	Yellow Color = "yellow"
	Green  Color = "green"
	Pink   Color = "pink"
	Purple Color = "purple"
	Cyan   Color = "cyan"
)

var colors = []Color{Grey, Blue, Red, Yellow, Green, Pink, Purple, Cyan}

// Colors returns every recognized group color in display order.
func Colors() []Color {
	out := make([]Color, len(colors))
	copy(out, colors)
	return out
}

// Valid reports whether c is one of the recognized colors.
func (c Color) Valid() bool {
	for _, known := range colors {
		if c == known {
			return true
		}
	}
	return false
}

// Tab is a saved browser tab. Its URL is its identity when diffing; host tab
// handles are not stable across browser restarts.
type Tab struct {
	URL    string `json:"url"`
	Title  string `json:"title"`
	Pinned bool   `json:"pinned"`
}

// Group is a saved tab group. Its title is its identity when diffing.
// Titles are not unique within a collection; see reconcile for how duplicates
// are handled.
type Group struct {
	Title     string `json:"title"`
	Color     Color  `json:"color"`
	Collapsed bool   `json:"collapsed"`
	Tabs      []Tab  `json:"tabs"`
}

// Project is a named snapshot of tab groups. ID is minted once and preserved
// across every update; CreatedAt is fixed at first save.
type Project struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Groups    []Group `json:"groups"`
	CreatedAt int64   `json:"createdAt"` // epoch milliseconds
	UpdatedAt int64   `json:"updatedAt"` // epoch milliseconds
}

// Created returns CreatedAt as a time.Time.
func (p Project) Created() time.Time { return time.UnixMilli(p.CreatedAt) }

// Updated returns UpdatedAt as a time.Time.
func (p Project) Updated() time.Time { return time.UnixMilli(p.UpdatedAt) }

// TabCount returns the number of tabs across all groups.
func (p Project) TabCount() int {
	n := 0
	for _, g := range p.Groups {
		n += len(g.Tabs)
	}
	return n
}

// Store is the whole persisted collection. ActiveProjectID is empty when no
// project is active; otherwise it names a project in Projects.
type Store struct {
	Projects        []Project `json:"projects"`
	ActiveProjectID string    `json:"activeProjectId"`
}

// Find returns the index of the project with the given id, or -1.
func (s *Store) Find(id string) int {
	for i := range s.Projects {
		if s.Projects[i].ID == id {
			return i
		}
	}
	return -1
}

// Millis converts t to epoch milliseconds.
func Millis(t time.Time) int64 { return t.UnixMilli() }
