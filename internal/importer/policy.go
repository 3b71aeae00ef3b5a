package importer

import (
	"errors"
	"fmt"
)

var (
	ErrUnresolved  = errors.New("unresolved reference")
	ErrUnknownStep = errors.New("unknown import step")
)

// Policy decides what an unresolved foreign key does to the import.
type Policy string

const (
	// PolicySkip logs a warning, counts the row as unresolved and moves on.
	PolicySkip Policy = "skip"
	// PolicyAbort fails the file; with --commit its transaction rolls back.
	PolicyAbort Policy = "abort"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicySkip, PolicyAbort:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown on-missing policy %q", s)
}

// UnresolvedError names the lookup that failed for a row.
type UnresolvedError struct {
	Dataset string
	Line    int
	// Ref is the lookup that missed: county, level or grade.
	Ref string
	Key string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("%s line %d: no %s for %s", e.Dataset, e.Line, e.Ref, e.Key)
}

func (e *UnresolvedError) Unwrap() error { return ErrUnresolved }
