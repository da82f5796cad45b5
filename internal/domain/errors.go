package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies fatal build failures.
type ErrorKind string

const (
	ErrInvalidProjection         ErrorKind = "InvalidProjection"
	ErrMissingRequiredAttribute  ErrorKind = "MissingRequiredAttribute"
	ErrInvalidGeometryForElement ErrorKind = "InvalidGeometryForElement"
	ErrDegenerateGeometry        ErrorKind = "DegenerateGeometry"
	ErrSerializationFailure      ErrorKind = "SerializationFailure"
)

// BuildError is the single fatal error type crossing stage boundaries.
// It carries enough context to locate the offending record: the stage that
// detected it, the element kind, the attribute, and the feature index.
type BuildError struct {
	Kind         ErrorKind
	Stage        string
	Element      ElementKind
	Attribute    string
	FeatureIndex int // -1 when no single feature is at fault
	Detail       string
	Err          error
}

func (e *BuildError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Stage != "" {
		fmt.Fprintf(&b, " during %q", e.Stage)
	}
	if e.Element != "" {
		fmt.Fprintf(&b, ": %s", e.Element)
	}
	if e.Attribute != "" {
		fmt.Fprintf(&b, ".%s", e.Attribute)
	}
	if e.FeatureIndex >= 0 {
		fmt.Fprintf(&b, " (feature %d)", e.FeatureIndex)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *BuildError) Unwrap() error { return e.Err }

// IsKind reports whether err is (or wraps) a BuildError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var be *BuildError
	return errors.As(err, &be) && be.Kind == kind
}

// WarningKind classifies non-fatal diagnostics attached to a successful build.
type WarningKind string

const (
	WarnIsolatedNode        WarningKind = "IsolatedNode"
	WarnIsolatedLink        WarningKind = "IsolatedLink"
	WarnDisconnectedNetwork WarningKind = "DisconnectedNetwork"
)

// Warning is a non-fatal diagnostic. Subject identifies the node or link
// involved; Components lists node-ID membership for network-level warnings.
type Warning struct {
	Kind       WarningKind `json:"kind"`
	Subject    string      `json:"subject,omitempty"`
	Message    string      `json:"message"`
	Components [][]string  `json:"components,omitempty"`
}
