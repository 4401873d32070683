package computebudget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dao-treasury/dao-server/pkg/solana"
)

func TestInstructions(t *testing.T) {
	limit, err := ParseSetComputeUnitLimitIxnData(SetComputeUnitLimit(200_000).Data)
	require.NoError(t, err)
	assert.EqualValues(t, 200_000, limit)

	price, err := ParseSetComputeUnitPriceIxnData(SetComputeUnitPrice(1_500).Data)
	require.NoError(t, err)
	assert.EqualValues(t, 1_500, price)

	_, err = ParseSetComputeUnitLimitIxnData(SetComputeUnitPrice(1).Data)
	assert.Equal(t, ErrInvalidInstruction, err)
	_, err = ParseSetComputeUnitPriceIxnData(SetComputeUnitLimit(1).Data)
	assert.Equal(t, ErrInvalidInstruction, err)
}

func TestBudget(t *testing.T) {
	var budget Budget
	require.NoError(t, budget.Apply(SetComputeUnitLimit(200_000)))
	require.NoError(t, budget.Apply(SetComputeUnitPrice(5)))
	assert.EqualValues(t, 200_000, budget.ComputeUnitLimit)
	assert.EqualValues(t, 5, budget.ComputeUnitPrice)
	assert.EqualValues(t, 1, budget.PriorityFee())

	require.NoError(t, budget.Apply(SetComputeUnitPrice(10_000)))
	assert.EqualValues(t, 2_000, budget.PriorityFee())

	require.NoError(t, budget.Apply(SetComputeUnitLimit(2_000_000)))
	assert.EqualValues(t, MaxComputeUnitLimit, budget.ComputeUnitLimit)

	assert.Zero(t, Budget{ComputeUnitLimit: 200_000}.PriorityFee())

	other := solana.NewInstruction(make([]byte, 32), []byte{commandSetComputeUnitPrice})
	assert.Equal(t, ErrInvalidProgram, budget.Apply(other))
	assert.Equal(t, ErrInvalidInstruction, budget.Apply(solana.NewInstruction(ProgramKey, nil)))
	assert.Equal(t, ErrInvalidInstruction, budget.Apply(solana.NewInstruction(ProgramKey, []byte{commandRequestHeapFrame, 0})))
}
