package squads

import (
	"crypto/ed25519"

	"github.com/dao-treasury/dao-server/pkg/solana"
)

var VaultTransactionCreateInstructionDiscriminator = []byte{
	0x30, 0xfa, 0x4e, 0xa8, 0xd0, 0xe2, 0xda, 0xd3,
}

type VaultTransactionCreateInstructionArgs struct {
	VaultIndex       uint8
	EphemeralSigners uint8

	// Compact encoding, see VaultTransactionMessage.MarshalTransactionMessage
	TransactionMessage []byte

	Memo *string
}

type VaultTransactionCreateInstructionAccounts struct {
	Multisig    ed25519.PublicKey
	Transaction ed25519.PublicKey
	Creator     ed25519.PublicKey
	RentPayer   ed25519.PublicKey
}

func NewVaultTransactionCreateInstruction(
	accounts *VaultTransactionCreateInstructionAccounts,
	args *VaultTransactionCreateInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(VaultTransactionCreateInstructionDiscriminator)+
			1+
			1+
			4+len(args.TransactionMessage)+
			optionalStringSize(args.Memo))

	putDiscriminator(data, VaultTransactionCreateInstructionDiscriminator, &offset)
	putUint8(data, args.VaultIndex, &offset)
	putUint8(data, args.EphemeralSigners, &offset)
	putBytes(data, args.TransactionMessage, &offset)
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
	}
}

func UnmarshalVaultTransactionCreateInstructionArgs(data []byte) (*VaultTransactionCreateInstructionArgs, error) {
	var offset int
	if err := getInstructionDiscriminator(data, VaultTransactionCreateInstructionDiscriminator, &offset); err != nil {
		return nil, err
	}

	var args VaultTransactionCreateInstructionArgs
	if !hasRemaining(data, offset, 2) {
		return nil, ErrInvalidInstructionData
	}
	getUint8(data, &args.VaultIndex, &offset)
	getUint8(data, &args.EphemeralSigners, &offset)
	if err := getBytes(data, &args.TransactionMessage, &offset); err != nil {
		return nil, ErrInvalidInstructionData
	}
	if err := getOptionalString(data, &args.Memo, &offset); err != nil {
		return nil, ErrInvalidInstructionData
	}

	return &args, nil
}
