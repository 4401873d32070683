package squads

import (
	"crypto/ed25519"

	"github.com/dao-treasury/dao-server/pkg/solana"
)

var ConfigTransactionExecuteInstructionDiscriminator = []byte{
	0x72, 0x92, 0xf4, 0xbd, 0xfc, 0x8c, 0x24, 0x28,
}

type ConfigTransactionExecuteInstructionAccounts struct {
	Multisig    ed25519.PublicKey
	Member      ed25519.PublicKey
	Proposal    ed25519.PublicKey
	Transaction ed25519.PublicKey

	// Only required when an action reallocates the multisig account
	RentPayer     *ed25519.PublicKey
	SystemProgram *ed25519.PublicKey
}

func NewConfigTransactionExecuteInstruction(
	accounts *ConfigTransactionExecuteInstructionAccounts,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte, len(ConfigTransactionExecuteInstructionDiscriminator))

	putDiscriminator(data, ConfigTransactionExecuteInstructionDiscriminator, &offset)

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Multisig,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Member,
				IsWritable: false,
				IsSigner:   true,
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
				PublicKey:  getOptionalAccountMetaAddress(accounts.RentPayer),
				IsWritable: accounts.RentPayer != nil,
				IsSigner:   accounts.RentPayer != nil,
			},
			{
				PublicKey:  getOptionalAccountMetaAddress(accounts.SystemProgram),
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}
