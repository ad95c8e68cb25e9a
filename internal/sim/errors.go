package sim

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidGraph   = errors.New("invalid policy graph")
	ErrCycle          = errors.New("cycle detected")
	ErrMissingInput   = errors.New("missing input")
	ErrUnknownTarget  = errors.New("unknown target")
	ErrUnknownBackend = errors.New("unknown backend")
	ErrDuplicateID    = errors.New("duplicate p_id")
)

// GraphError wraps deterministic graph validation failures.
type GraphError struct {
	Kind error
	Msg  string
}

func (e *GraphError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *GraphError) Unwrap() error { return e.Kind }

func invalidf(format string, args ...any) error {
	return &GraphError{Kind: ErrInvalidGraph, Msg: fmt.Sprintf(format, args...)}
}

func cycleError(path []string) error {
	msg := "cycle"
	if len(path) > 0 {
		msg = "cycle: " + strings.Join(path, " -> ")
	}
	return &GraphError{Kind: ErrCycle, Msg: msg}
}
