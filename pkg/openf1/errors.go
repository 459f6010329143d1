package openf1

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies provider failures.
type Kind string

const (
	// KindNetwork covers transport failures, 5xx and 429 responses. Callers retry these.
	KindNetwork Kind = "network"
	// KindParse covers bodies and frames that do not decode.
	KindParse Kind = "parse"
	// KindProtocol covers any other unexpected response.
	KindProtocol Kind = "protocol"
)

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("openf1 %s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Cause lets errors.Cause walk through an *Error.
func (e *Error) Cause() error { return e.Err }

var errMissingType = errors.New("frame without type")

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRecoverable reports whether retrying later may succeed.
func IsRecoverable(err error) bool {
	return KindOf(err) == KindNetwork
}
