package squads

import (
	"crypto/ed25519"

	"github.com/dao-treasury/dao-server/pkg/solana"
)

var MultisigCreateV2InstructionDiscriminator = []byte{
	0x32, 0xdd, 0xc7, 0x5d, 0x28, 0xf5, 0x8b, 0xe9,
}

type MultisigCreateV2InstructionArgs struct {
	ConfigAuthority ed25519.PublicKey // nil for an autonomous multisig
	Threshold       uint16
	Members         []Member
	TimeLock        uint32
	RentCollector   ed25519.PublicKey
	Memo            *string
}

type MultisigCreateV2InstructionAccounts struct {
	ProgramConfig ed25519.PublicKey
	Treasury      ed25519.PublicKey
	Multisig      ed25519.PublicKey
	CreateKey     ed25519.PublicKey
	Creator       ed25519.PublicKey
}

func NewMultisigCreateV2Instruction(
	accounts *MultisigCreateV2InstructionAccounts,
	args *MultisigCreateV2InstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(MultisigCreateV2InstructionDiscriminator)+
			optionalKeySize(args.ConfigAuthority)+
			2+
			4+len(args.Members)*MemberSize+
			4+
			optionalKeySize(args.RentCollector)+
			optionalStringSize(args.Memo))

	putDiscriminator(data, MultisigCreateV2InstructionDiscriminator, &offset)
	putOptionalKey(data, args.ConfigAuthority, &offset)
	putUint16(data, args.Threshold, &offset)
	putMembers(data, args.Members, &offset)
	putUint32(data, args.TimeLock, &offset)
	putOptionalKey(data, args.RentCollector, &offset)
	putOptionalString(data, args.Memo, &offset)

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.ProgramConfig,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Treasury,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Multisig,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.CreateKey,
				IsWritable: false,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Creator,
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

func UnmarshalMultisigCreateV2InstructionArgs(data []byte) (*MultisigCreateV2InstructionArgs, error) {
	var offset int
	if err := getInstructionDiscriminator(data, MultisigCreateV2InstructionDiscriminator, &offset); err != nil {
		return nil, err
	}

	var args MultisigCreateV2InstructionArgs
	if err := getOptionalKey(data, &args.ConfigAuthority, &offset); err != nil {
		return nil, ErrInvalidInstructionData
	}
	if !hasRemaining(data, offset, 2) {
		return nil, ErrInvalidInstructionData
	}
	getUint16(data, &args.Threshold, &offset)
	if err := getMembers(data, &args.Members, &offset); err != nil {
		return nil, ErrInvalidInstructionData
	}
	if !hasRemaining(data, offset, 4) {
		return nil, ErrInvalidInstructionData
	}
	getUint32(data, &args.TimeLock, &offset)
	if err := getOptionalKey(data, &args.RentCollector, &offset); err != nil {
		return nil, ErrInvalidInstructionData
	}
	if err := getOptionalString(data, &args.Memo, &offset); err != nil {
		return nil, ErrInvalidInstructionData
	}

	return &args, nil
}
