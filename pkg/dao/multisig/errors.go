package multisig

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies every failure surfaced by this package. Each kind maps
// to a stable external code.
type ErrorKind uint8

const (
	ErrorKindProgramConfigFetch ErrorKind = iota
	ErrorKindMultisigFetch
	ErrorKindProposalFetch
	ErrorKindMultisigDecode
	ErrorKindProgramConfigDecode
	ErrorKindProposalDecode
	ErrorKindInstructionCompilation
	ErrorKindLatestBlockhash
	ErrorKindProposalNotApproved
	ErrorKindSubmission
	ErrorKindInvalidArgument
)

// ExternalCodeUnknown is reported for errors that didn't originate from this
// package.
const ExternalCodeUnknown uint32 = 0xFFFF

var (
	ErrMissingCreateKey = errors.New("multisig create key is unknown")
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindProgramConfigFetch:
		return "failed to fetch program config account"
	case ErrorKindMultisigFetch:
		return "failed to fetch multisig account"
	case ErrorKindProposalFetch:
		return "failed to fetch proposal account"
	case ErrorKindMultisigDecode:
		return "failed to decode multisig account"
	case ErrorKindProgramConfigDecode:
		return "failed to decode program config account"
	case ErrorKindProposalDecode:
		return "failed to decode proposal account"
	case ErrorKindInstructionCompilation:
		return "failed to compile instruction"
	case ErrorKindLatestBlockhash:
		return "failed to get latest blockhash"
	case ErrorKindProposalNotApproved:
		return "proposal status is not approved"
	case ErrorKindSubmission:
		return "failed to submit transaction"
	case ErrorKindInvalidArgument:
		return "invalid argument"
	}
	return fmt.Sprintf("unknown error kind %d", uint8(k))
}

// ExternalCode returns the stable code reported to callers outside the
// process.
func (k ErrorKind) ExternalCode() uint32 {
	return uint32(k)
}

// Error is a failure of a single multisig operation.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Cause allows errors.Cause to reach the underlying error.
func (e *Error) Cause() error {
	return e.Err
}

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// NewSubmissionError wraps a signing, submission or confirmation failure.
func NewSubmissionError(op string, err error) error {
	return newError(ErrorKindSubmission, op, err)
}

// NewInvalidArgumentError wraps a local validation failure.
func NewInvalidArgumentError(op string, err error) error {
	return newError(ErrorKindInvalidArgument, op, err)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var multisigErr *Error
	if !errors.As(err, &multisigErr) {
		return 0, false
	}
	return multisigErr.Kind, true
}

// IsKind reports whether err carries kind.
func IsKind(err error, kind ErrorKind) bool {
	actual, ok := KindOf(err)
	return ok && actual == kind
}

// ToExternalCode maps err to its external code, or ExternalCodeUnknown.
func ToExternalCode(err error) uint32 {
	kind, ok := KindOf(err)
	if !ok {
		return ExternalCodeUnknown
	}
	return kind.ExternalCode()
}

// IsAccountFetchFailure reports whether err is a failure to read an account
// from the network, including accounts that don't exist.
func IsAccountFetchFailure(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}

	switch kind {
	case ErrorKindProgramConfigFetch, ErrorKindMultisigFetch, ErrorKindProposalFetch:
		return true
	}
	return false
}

// IsAccountDecodeFailure reports whether err is a failure to decode account
// data that was successfully read.
func IsAccountDecodeFailure(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}

	switch kind {
	case ErrorKindProgramConfigDecode, ErrorKindMultisigDecode, ErrorKindProposalDecode:
		return true
	}
	return false
}
