package multisig

import (
	"github.com/pkg/errors"

	"github.com/dao-treasury/dao-server/pkg/solana/squads"
)

// CheckCancellable fails unless the proposal is Approved. The program rejects
// cancel votes in any other state, so the instruction isn't worth sending.
func CheckCancellable(proposal *squads.ProposalAccount) error {
	if proposal.Status.Kind != squads.ProposalStatusApproved {
		return newError(
			ErrorKindProposalNotApproved,
			"cancel proposal",
			errors.Errorf("proposal %d is %s", proposal.TransactionIndex, proposal.Status.Kind),
		)
	}
	return nil
}

// NextTransactionIndex is the index targeted by a new config or vault
// transaction.
func NextTransactionIndex(multisig *squads.MultisigAccount) uint64 {
	return multisig.TransactionIndex + 1
}

// CurrentTransactionIndex is the index of the most recently created
// transaction, which proposals, votes and executions target.
func CurrentTransactionIndex(multisig *squads.MultisigAccount) uint64 {
	return multisig.TransactionIndex
}
