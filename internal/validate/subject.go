// Package validate implements the batch validation engine: it enumerates all
// live instances of a declared subject type through a host-provided finder,
// runs the required-field rule and the validity contract on each, and
// aggregates failures into one report.
package validate

import (
	"context"
	"errors"
)

// SubjectKind identifies which of the two supported host object kinds a
// subject type belongs to.
type SubjectKind string

// Supported subject kinds: scene components and free-standing data assets.
const (
	SubjectKindComponent SubjectKind = "component"
	SubjectKindAsset     SubjectKind = "asset"
)

// Configuration errors fail a run before any enumeration starts.
var (
	ErrSubjectUnresolved = errors.New("subject type unresolved")
	ErrUnsupportedKind   = errors.New("unsupported subject kind")
	ErrNoFinder          = errors.New("no instance finder configured")
)

// Subject describes one validation target: a resolvable type name, its host
// object kind, and the storage roots to search.
type Subject struct {
	Name  string
	Kind  SubjectKind
	Scope []string
}

// Instance is one enumerated occurrence of the subject type. ID identifies
// the instance to users (typically a storage path); Owner names the
// containing context when the instance is nested.
type Instance struct {
	Value any
	ID    string
	Owner string
}

// Finder enumerates live instances of a subject type. The host adapter owns
// this because enumeration depends on how the environment indexes objects.
// Ordering must be deterministic within one call.
type Finder interface {
	FindInstances(ctx context.Context, subject Subject) ([]Instance, error)
}

// Validatable is the validity contract a subject type implements to take
// part in validation. Validate returns whether the instance passed and, on
// failure, a human-readable explanation.
type Validatable interface {
	Validate() (passed bool, message string)
}
