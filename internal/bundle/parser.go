package bundle

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/fakeyudi/tabkeep/internal/project"
)

// Parser turns an export file back into projects.
type Parser interface {
	Parse(data []byte) ([]project.Project, error)
}

// JSONParser parses a JSON envelope.
type JSONParser struct{}

func (p *JSONParser) Parse(data []byte) ([]project.Project, error) {
	return Parse(data)
}

// MarkdownParser parses a Markdown export by extracting the embedded base64
// envelope from the sentinel comments. The envelope is validated like a JSON
// import.
type MarkdownParser struct{}

const (
	versionSentinel = "<!-- tabkeep-export-version: 1 -->"
	dataPrefix      = "<!-- tabkeep-data: "
	dataSuffix      = " -->"
)

func (p *MarkdownParser) Parse(data []byte) ([]project.Project, error) {
	content := string(data)

	if !strings.Contains(content, versionSentinel) {
		return nil, fmt.Errorf("not a valid tabkeep export: missing version sentinel")
	}

	start := strings.Index(content, dataPrefix)
	if start == -1 {
		return nil, fmt.Errorf("not a valid tabkeep export: missing data payload")
	}
	start += len(dataPrefix)
	end := strings.Index(content[start:], dataSuffix)
	if end == -1 {
		return nil, fmt.Errorf("not a valid tabkeep export: malformed data payload")
	}

	payload, err := base64.StdEncoding.DecodeString(content[start : start+end])
	if err != nil {
		return nil, fmt.Errorf("not a valid tabkeep export: corrupted base64 payload: %w", err)
	}
	return Parse(payload)
}

// Detect picks the parser for data: Markdown when the version sentinel is
// present, JSON otherwise.
func Detect(data []byte) Parser {
	if bytes.Contains(data, []byte(versionSentinel)) {
		return &MarkdownParser{}
	}
	return &JSONParser{}
}

// Parse validates a JSON envelope and returns its projects. The first
// violation anywhere aborts the whole parse.
func Parse(data []byte) ([]project.Project, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	root := gjson.ParseBytes(data)
	// An array has no version and fails the version check below.
	if !root.IsObject() && !root.IsArray() {
		return nil, &ValidationError{Entity: "export data"}
	}

	if v := root.Get("version"); v.Type != gjson.Number || v.Num != Version {
		return nil, &UnsupportedVersionError{Version: display(v)}
	}

	list := root.Get("projects")
	if !list.IsArray() {
		return nil, &ValidationError{Entity: "export data", Field: "projects"}
	}

	projects := []project.Project{}
	for i, raw := range list.Array() {
		p, err := parseProject(raw, "projects."+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// display renders a JSON value the way it reads in an error message.
func display(r gjson.Result) string {
	switch {
	case !r.Exists():
		return "undefined"
	case r.Type == gjson.String:
		return r.Str
	default:
		return r.Raw
	}
}

func nonEmptyString(r gjson.Result) bool { return r.Type == gjson.String && r.Str != "" }

func isString(r gjson.Result) bool { return r.Type == gjson.String }

func isBool(r gjson.Result) bool { return r.Type == gjson.True || r.Type == gjson.False }

// isMillis reports whether r is a whole number that fits an int64.
func isMillis(r gjson.Result) bool {
	return r.Type == gjson.Number && r.Num == math.Trunc(r.Num) &&
		r.Num >= -(1<<63) && r.Num < 1<<63
}

func parseProject(r gjson.Result, path string) (project.Project, error) {
	invalid := func(field string) error {
		return &ValidationError{Entity: "project", Field: field, Path: path}
	}
	if !r.IsObject() {
		return project.Project{}, invalid("")
	}

	fields := r.Map()
	switch {
	case !nonEmptyString(fields["id"]):
		return project.Project{}, invalid("id")
	case !nonEmptyString(fields["name"]):
		return project.Project{}, invalid("name")
	case !fields["groups"].IsArray():
		return project.Project{}, invalid("groups")
	case !isMillis(fields["createdAt"]):
		return project.Project{}, invalid("createdAt")
	case !isMillis(fields["updatedAt"]):
		return project.Project{}, invalid("updatedAt")
	}

	p := project.Project{
		ID:        fields["id"].Str,
		Name:      fields["name"].Str,
		Groups:    []project.Group{},
		CreatedAt: fields["createdAt"].Int(),
		UpdatedAt: fields["updatedAt"].Int(),
	}
	for i, raw := range fields["groups"].Array() {
		g, err := parseGroup(raw, path+".groups."+strconv.Itoa(i))
		if err != nil {
			return project.Project{}, err
		}
		p.Groups = append(p.Groups, g)
	}
	return p, nil
}

func parseGroup(r gjson.Result, path string) (project.Group, error) {
	invalid := func(field, value string) error {
		return &ValidationError{Entity: "group", Field: field, Value: value, Path: path}
	}
	if !r.IsObject() {
		return project.Group{}, invalid("", "")
	}

	fields := r.Map()
	color := fields["color"]
	switch {
	case !isString(fields["title"]):
		return project.Group{}, invalid("title", "")
	case !isString(color) || !project.Color(color.Str).Valid():
		return project.Group{}, invalid("color", display(color))
	case !isBool(fields["collapsed"]):
		return project.Group{}, invalid("collapsed", "")
	case !fields["tabs"].IsArray():
		return project.Group{}, invalid("tabs", "")
	}

	g := project.Group{
		Title:     fields["title"].Str,
		Color:     project.Color(color.Str),
		Collapsed: fields["collapsed"].Bool(),
		Tabs:      []project.Tab{},
	}
	for i, raw := range fields["tabs"].Array() {
		t, err := parseTab(raw, path+".tabs."+strconv.Itoa(i))
		if err != nil {
			return project.Group{}, err
		}
		g.Tabs = append(g.Tabs, t)
	}
	return g, nil
}

func parseTab(r gjson.Result, path string) (project.Tab, error) {
	invalid := func(field string) error {
		return &ValidationError{Entity: "tab", Field: field, Path: path}
	}
	if !r.IsObject() {
		return project.Tab{}, invalid("")
	}

	fields := r.Map()
	switch {
	case !isString(fields["url"]):
		return project.Tab{}, invalid("url")
	case !isString(fields["title"]):
		return project.Tab{}, invalid("title")
	case !isBool(fields["pinned"]):
		return project.Tab{}, invalid("pinned")
	}
	return project.Tab{
		URL:    fields["url"].Str,
		Title:  fields["title"].Str,
		Pinned: fields["pinned"].Bool(),
	}, nil
}
