package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gwdetchar/segcoalesce/core/algo"
	"github.com/gwdetchar/segcoalesce/internal/contract"
	"github.com/gwdetchar/segcoalesce/schema"
)

// ErrorKind categorizes why a coalescing pass stopped.
type ErrorKind int

// Error kinds.
const (
	KindQueryFailure ErrorKind = iota
	KindStorageUnavailable
	KindInvariantViolation
	KindCanceled
)

// ErrInvariantViolation matches every CoalesceError of kind KindInvariantViolation.
var ErrInvariantViolation = errors.New("invariant violation")

func (k ErrorKind) String() string {
	switch k {
	case KindStorageUnavailable:
		return "storage unavailable"
	case KindInvariantViolation:
		return "invariant violation"
	case KindCanceled:
		return "canceled"
	default:
		return "query failure"
	}
}

// sentinel returns the error that errors.Is matches for the kind.
func (k ErrorKind) sentinel() error {
	switch k {
	case KindStorageUnavailable:
		return contract.ErrStorageUnavailable
	case KindInvariantViolation:
		return ErrInvariantViolation
	case KindCanceled:
		return context.Canceled
	default:
		return contract.ErrQueryFailure
	}
}

// CoalesceError describes the step of a pass that failed.
type CoalesceError struct {
	Kind  ErrorKind
	Group string       // "IFOS:NAME:VERSION", empty before groups are known
	Table schema.Table // empty when the failure is not specific to a table
	Op    string
	Err   error
}

func (e *CoalesceError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Group != "" {
		fmt.Fprintf(&b, " %s", e.Group)
	}
	if e.Table != "" {
		fmt.Fprintf(&b, " %s", e.Table)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

// Unwrap returns the underlying error.
func (e *CoalesceError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of the error kind.
func (e *CoalesceError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// classify maps an error onto its kind.
func classify(err error) ErrorKind {
	var ce *CoalesceError
	switch {
	case errors.As(err, &ce):
		return ce.Kind
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, contract.ErrPartialWriteObserved), errors.Is(err, algo.ErrInvalidInterval):
		return KindInvariantViolation
	case errors.Is(err, contract.ErrStorageUnavailable):
		return KindStorageUnavailable
	default:
		return KindQueryFailure
	}
}

// wrap tags err with the step it happened in, keeping an existing tag.
func wrap(err error, op string, group schema.Group, table schema.Table) error {
	if err == nil {
		return nil
	}
	var ce *CoalesceError
	if errors.As(err, &ce) {
		return err
	}
	e := &CoalesceError{Kind: classify(err), Op: op, Table: table, Err: err}
	if group.DefID != "" {
		e.Group = group.String()
	}
	return e
}
