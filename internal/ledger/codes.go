package ledger

import (
	"errors"
	"strings"
)

// Remote error codes carried by JSON-RPC error objects so that a client
// can restore the ledger error taxonomy.
const (
	CodeRejectedBuild     = -32010
	CodeRejectedSubmit    = -32011
	CodeInsufficientFunds = -32012
)

// ErrorCode maps a ledger error to its remote code, or 0 when the error
// is not one of the ledger's own.
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		return CodeInsufficientFunds
	case errors.Is(err, ErrRejected):
		var rej *RejectionError
		if errors.As(err, &rej) && rej.Stage == StageBuild {
			return CodeRejectedBuild
		}
		return CodeRejectedSubmit
	}
	return 0
}

// remoteError keeps a remote message verbatim while matching a sentinel.
type remoteError struct {
	sentinel error
	msg      string
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.sentinel }

// FromCode rebuilds a ledger error from a remote code and message. The
// message is preserved verbatim. It returns nil for codes the ledger
// does not own.
func FromCode(code int, message string) error {
	switch code {
	case CodeInsufficientFunds:
		return &remoteError{sentinel: ErrInsufficientFunds, msg: message}
	case CodeRejectedBuild:
		return Reject(StageBuild, errors.New(strings.TrimPrefix(message, StageBuild+" rejected: ")))
	case CodeRejectedSubmit:
		return Reject(StageSubmit, errors.New(strings.TrimPrefix(message, StageSubmit+" rejected: ")))
	}
	return nil
}
