package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCollectionAccess is a user-facing access error, e.g. a
	// string field on a literal array.
	ErrInvalidCollectionAccess = errors.New("invalid collection access")
	// ErrUnmaterialized means a condition was used where a literal or path
	// is required.
	ErrUnmaterialized = errors.New("condition must be materialized")
	// ErrInvalidOperator is returned for an unsupported comparison operator.
	ErrInvalidOperator = errors.New("invalid comparison operator")
	// ErrImpossible indicates an unrecognized variant and is an engine bug.
	ErrImpossible = errors.New("impossible fragment kind")
	// ErrStructural indicates a broken fragment tree, such as a member
	// without a global name. It is an engine bug, not a user error.
	ErrStructural = errors.New("structural invariant violated")
)

// SynthError is returned by every failing operation of this package.
type SynthError struct {
	Kind error
	// Fragment names the offending field, state or member when known.
	Fragment string
	Msg      string
}

func (e *SynthError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Fragment != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind.Error(), e.Fragment, e.Msg)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
	case e.Fragment != "":
		return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Fragment)
	}
	return e.Kind.Error()
}

func (e *SynthError) Unwrap() error { return e.Kind }

// IsSynthError reports whether err (or any error in its chain) came from
// synthesis.
func IsSynthError(err error) bool {
	var se *SynthError
	return errors.As(err, &se)
}

func synthErrorf(kind error, fragment, format string, args ...any) error {
	return &SynthError{Kind: kind, Fragment: fragment, Msg: fmt.Sprintf(format, args...)}
}

func impossible(v any) error {
	return &SynthError{Kind: ErrImpossible, Msg: fmt.Sprintf("%T", v)}
}
