package computebudget

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/dao-treasury/dao-server/pkg/solana"
)

// ComputeBudget111111111111111111111111111111
var ProgramKey = ed25519.PublicKey{3, 6, 70, 111, 229, 33, 23, 50, 255, 236, 173, 186, 114, 195, 155, 231, 188, 140, 229, 187, 197, 247, 18, 107, 44, 67, 155, 58, 64, 0, 0, 0}

const (
	commandRequestUnits uint8 = iota
	commandRequestHeapFrame
	commandSetComputeUnitLimit
	commandSetComputeUnitPrice
)

// MaxComputeUnitLimit is the largest limit a transaction may request
const MaxComputeUnitLimit = 1_400_000

var (
	ErrInvalidProgram     = errors.New("invalid compute budget program")
	ErrInvalidInstruction = errors.New("invalid compute budget instruction")
)

// SetComputeUnitLimit caps the compute units the transaction may consume
func SetComputeUnitLimit(computeUnitLimit uint32) solana.Instruction {
	data := make([]byte, 1+4)
	data[0] = commandSetComputeUnitLimit
	binary.LittleEndian.PutUint32(data[1:], computeUnitLimit)

	return solana.NewInstruction(ProgramKey, data)
}

// SetComputeUnitPrice sets the priority fee in micro-lamports per compute unit
func SetComputeUnitPrice(microLamports uint64) solana.Instruction {
	data := make([]byte, 1+8)
	data[0] = commandSetComputeUnitPrice
	binary.LittleEndian.PutUint64(data[1:], microLamports)

	return solana.NewInstruction(ProgramKey, data)
}

// Budget is the compute budget requested by a set of instructions
type Budget struct {
	ComputeUnitLimit uint32
	ComputeUnitPrice uint64
}

// PriorityFee is the fee in lamports paid on top of the signature fee,
// rounded up.
func (b Budget) PriorityFee() uint64 {
	microLamports := uint64(b.ComputeUnitLimit) * b.ComputeUnitPrice
	return (microLamports + 999_999) / 1_000_000
}

// Apply updates the budget with a single compute budget instruction.
func (b *Budget) Apply(ix solana.Instruction) error {
	if !bytes.Equal(ix.Program, ProgramKey) {
		return ErrInvalidProgram
	}
	if len(ix.Data) == 0 {
		return ErrInvalidInstruction
	}

	switch ix.Data[0] {
	case commandSetComputeUnitLimit:
		limit, err := ParseSetComputeUnitLimitIxnData(ix.Data)
		if err != nil {
			return err
		}
		if limit > MaxComputeUnitLimit {
			limit = MaxComputeUnitLimit
		}
		b.ComputeUnitLimit = limit
	case commandSetComputeUnitPrice:
		price, err := ParseSetComputeUnitPriceIxnData(ix.Data)
		if err != nil {
			return err
		}
		b.ComputeUnitPrice = price
	default:
		return ErrInvalidInstruction
	}
	return nil
}

func ParseSetComputeUnitLimitIxnData(data []byte) (uint32, error) {
	if len(data) != 5 || data[0] != commandSetComputeUnitLimit {
		return 0, ErrInvalidInstruction
	}
	return binary.LittleEndian.Uint32(data[1:]), nil
}

func ParseSetComputeUnitPriceIxnData(data []byte) (uint64, error) {
	if len(data) != 9 || data[0] != commandSetComputeUnitPrice {
		return 0, ErrInvalidInstruction
	}
	return binary.LittleEndian.Uint64(data[1:]), nil
}
