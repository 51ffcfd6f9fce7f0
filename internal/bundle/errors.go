package bundle

import (
	"errors"
	"fmt"
)

// ErrInvalidJSON is returned when an export is not well-formed JSON.
var ErrInvalidJSON = errors.New("invalid JSON")

// UnsupportedVersionError reports an envelope whose version is not 1.
// Version is the offending value as written, or "undefined" when absent.
type UnsupportedVersionError struct {
	Version string
}

func (e *UnsupportedVersionError) Error() string {
	return "unsupported export version: " + e.Version
}

// ValidationError reports the first structural violation found in an export.
// Entity is "export data", "project", "group" or "tab". An empty Field means
// the entity was not an object. Path locates the entity in the envelope, for
// example "projects.0.groups.2".
type ValidationError struct {
	Entity string
	Field  string
	Value  string
	Path   string
}

var arrayFields = map[string]bool{"projects": true, "groups": true, "tabs": true}

func (e *ValidationError) Error() string {
	switch {
	case e.Field == "":
		return fmt.Sprintf("invalid %s: expected an object", e.Entity)
	case e.Entity == "group" && e.Field == "color":
		return "invalid group color: " + e.Value
	case arrayFields[e.Field]:
		return fmt.Sprintf("invalid %s: missing %s array", e.Entity, e.Field)
	default:
		return fmt.Sprintf("invalid %s: missing %s", e.Entity, e.Field)
	}
}

// UnknownFormatError is returned by ParseFormat.
type UnknownFormatError struct {
	Format string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown export format %q (want json or markdown)", e.Format)
}
