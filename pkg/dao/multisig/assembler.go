package multisig

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/dao-treasury/dao-server/pkg/solana"
	"github.com/dao-treasury/dao-server/pkg/solana/computebudget"
)

// Assembler builds unsigned transactions. A new blockhash is requested for
// every transaction.
type Assembler struct {
	client solana.Client

	computeUnitLimit uint32
	computeUnitPrice uint64
}

func NewAssembler(client solana.Client) *Assembler {
	return &Assembler{
		client: client,
	}
}

// SetPriorityFee makes subsequent transactions pay microLamports per compute
// unit, for up to computeUnitLimit units. A zero price disables it.
func (a *Assembler) SetPriorityFee(computeUnitLimit uint32, microLamports uint64) {
	a.computeUnitLimit = computeUnitLimit
	a.computeUnitPrice = microLamports
}

// Assemble returns an unsigned transaction paid for by feePayer.
func (a *Assembler) Assemble(ctx context.Context, feePayer ed25519.PublicKey, instructions ...solana.Instruction) (*solana.Transaction, error) {
	if len(feePayer) != ed25519.PublicKeySize {
		return nil, NewInvalidArgumentError("assemble", errors.Errorf("invalid fee payer length: %d", len(feePayer)))
	}
	if len(instructions) == 0 {
		return nil, NewInvalidArgumentError("assemble", errors.New("no instructions provided"))
	}

	if err := ctx.Err(); err != nil {
		return nil, newError(ErrorKindLatestBlockhash, "assemble", err)
	}

	blockhash, err := a.client.GetLatestBlockhash()
	if err != nil {
		return nil, newError(ErrorKindLatestBlockhash, "assemble", err)
	}

	if a.computeUnitPrice > 0 {
		instructions = append(
			[]solana.Instruction{
				computebudget.SetComputeUnitLimit(a.computeUnitLimit),
				computebudget.SetComputeUnitPrice(a.computeUnitPrice),
			},
			instructions...,
		)
	}

	txn := solana.NewTransaction(feePayer, instructions...)
	txn.SetBlockhash(blockhash)
	return &txn, nil
}
