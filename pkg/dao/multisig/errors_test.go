package multisig

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorKind_ExternalCodes(t *testing.T) {
	expected := map[ErrorKind]uint32{
		ErrorKindProgramConfigFetch:     0,
		ErrorKindMultisigFetch:          1,
		ErrorKindProposalFetch:          2,
		ErrorKindMultisigDecode:         3,
		ErrorKindProgramConfigDecode:    4,
		ErrorKindProposalDecode:         5,
		ErrorKindInstructionCompilation: 6,
		ErrorKindLatestBlockhash:        7,
		ErrorKindProposalNotApproved:    8,
		ErrorKindSubmission:             9,
		ErrorKindInvalidArgument:        10,
	}
	for kind, code := range expected {
		assert.Equal(t, code, kind.ExternalCode(), kind.String())
	}
}

func TestError_Classification(t *testing.T) {
	cause := errors.New("connection refused")

	err := errors.Wrap(newError(ErrorKindProposalFetch, "fetch proposal", cause), "outer")
	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, ErrorKindProposalFetch, kind)
	assert.True(t, IsKind(err, ErrorKindProposalFetch))
	assert.False(t, IsKind(err, ErrorKindProposalDecode))
	assert.True(t, IsAccountFetchFailure(err))
	assert.False(t, IsAccountDecodeFailure(err))
	assert.EqualValues(t, 2, ToExternalCode(err))
	assert.Equal(t, cause, errors.Cause(err))
	assert.True(t, errors.Is(err, cause))

	err = newError(ErrorKindMultisigDecode, "fetch multisig", cause)
	assert.False(t, IsAccountFetchFailure(err))
	assert.True(t, IsAccountDecodeFailure(err))
	assert.Equal(t, "fetch multisig: failed to decode multisig account: connection refused", err.Error())

	assert.Equal(t, ExternalCodeUnknown, ToExternalCode(cause))
	assert.Equal(t, ExternalCodeUnknown, ToExternalCode(nil))
	_, ok = KindOf(cause)
	assert.False(t, ok)

	assert.True(t, IsKind(NewSubmissionError("submit", cause), ErrorKindSubmission))
	assert.True(t, IsKind(NewInvalidArgumentError("validate", cause), ErrorKindInvalidArgument))
}
