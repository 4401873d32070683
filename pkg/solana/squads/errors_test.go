package squads

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/dao-treasury/dao-server/pkg/solana"
)

func TestGetProgramError(t *testing.T) {
	txErr := solana.NewInstructionTransactionError(0, ProgramErrorInvalidProposalStatus.ToCustomError())

	programErr, ok := GetProgramError(errors.Wrap(txErr, "failed to submit"))
	assert.True(t, ok)
	assert.Equal(t, ProgramErrorInvalidProposalStatus, programErr)
	assert.EqualValues(t, 6008, programErr)
	assert.Equal(t, "InvalidProposalStatus", programErr.Name())

	_, ok = GetProgramError(solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound))
	assert.False(t, ok)

	_, ok = GetProgramError(errors.New("network unreachable"))
	assert.False(t, ok)

	assert.Equal(t, "Unknown", ProgramError(7000).Name())
}
