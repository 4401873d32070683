package squads

import (
	"crypto/ed25519"

	"github.com/dao-treasury/dao-server/pkg/solana"
)

var ConfigTransactionCreateInstructionDiscriminator = []byte{
	0x9b, 0xec, 0x57, 0xe4, 0x89, 0x4b, 0x51, 0x27,
}

type ConfigTransactionCreateInstructionArgs struct {
	Actions []ConfigAction
	Memo    *string
}

type ConfigTransactionCreateInstructionAccounts struct {
	Multisig    ed25519.PublicKey
	Transaction ed25519.PublicKey
	Creator     ed25519.PublicKey
	RentPayer   ed25519.PublicKey
}

func NewConfigTransactionCreateInstruction(
	accounts *ConfigTransactionCreateInstructionAccounts,
	args *ConfigTransactionCreateInstructionArgs,
) (solana.Instruction, error) {
	var offset int

	actionsSize, err := configActionsSize(args.Actions)
	if err != nil {
		return solana.Instruction{}, err
	}

	// Serialize instruction arguments
	data := make([]byte,
		len(ConfigTransactionCreateInstructionDiscriminator)+
			actionsSize+
			optionalStringSize(args.Memo))

	putDiscriminator(data, ConfigTransactionCreateInstructionDiscriminator, &offset)
	putConfigActions(data, args.Actions, &offset)
	putOptionalString(data, args.Memo, &offset)

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
				PublicKey:  accounts.Transaction,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Creator,
				IsWritable: false,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.RentPayer,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}, nil
}

func UnmarshalConfigTransactionCreateInstructionArgs(data []byte) (*ConfigTransactionCreateInstructionArgs, error) {
	var offset int
	if err := getInstructionDiscriminator(data, ConfigTransactionCreateInstructionDiscriminator, &offset); err != nil {
		return nil, err
	}

	var args ConfigTransactionCreateInstructionArgs
	if err := getConfigActions(data, &args.Actions, &offset); err != nil {
		return nil, ErrInvalidInstructionData
	}
	if err := getOptionalString(data, &args.Memo, &offset); err != nil {
		return nil, ErrInvalidInstructionData
	}

	return &args, nil
}
