package squads

import (
	"crypto/ed25519"

	"github.com/dao-treasury/dao-server/pkg/solana"
)

var VaultTransactionExecuteInstructionDiscriminator = []byte{
	0xc2, 0x08, 0xa1, 0x57, 0x99, 0xa4, 0x19, 0xab,
}

type VaultTransactionExecuteInstructionAccounts struct {
	Multisig    ed25519.PublicKey
	Proposal    ed25519.PublicKey
	Transaction ed25519.PublicKey
	Member      ed25519.PublicKey
}

// NewVaultTransactionExecuteInstruction builds the execute instruction for a
// vault transaction. The message must be identical to the one supplied at
// creation, since its account keys are passed as remaining accounts and the
// program rejects any mismatch.
func NewVaultTransactionExecuteInstruction(
	accounts *VaultTransactionExecuteInstructionAccounts,
	message *VaultTransactionMessage,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, len(VaultTransactionExecuteInstructionDiscriminator))

	putDiscriminator(data, VaultTransactionExecuteInstructionDiscriminator, &offset)

	instructionAccounts := []solana.AccountMeta{
		{
			PublicKey:  accounts.Multisig,
			IsWritable: false,
			IsSigner:   false,
		},
		{
			PublicKey:  accounts.Proposal,
			IsWritable: true,
			IsSigner:   false,
		},
		{
			PublicKey:  accounts.Transaction,
			IsWritable: false,
			IsSigner:   false,
		},
		{
			PublicKey:  accounts.Member,
			IsWritable: false,
			IsSigner:   true,
		},
	}

	// Remaining accounts. The vault signs through the program, so none of
	// them are transaction signers.
	for _, lookup := range message.AddressTableLookups {
		instructionAccounts = append(instructionAccounts, solana.NewReadonlyAccountMeta(lookup.AccountKey, false))
	}
	for i, key := range message.AccountKeys {
		instructionAccounts = append(instructionAccounts, solana.AccountMeta{
			PublicKey:  key,
			IsWritable: message.IsStaticWritableIndex(i),
			IsSigner:   false,
		})
	}

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: instructionAccounts,
	}
}
