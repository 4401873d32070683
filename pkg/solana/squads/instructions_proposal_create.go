package squads

import (
	"crypto/ed25519"

	"github.com/dao-treasury/dao-server/pkg/solana"
)

var ProposalCreateInstructionDiscriminator = []byte{
	0xdc, 0x3c, 0x49, 0xe0, 0x1e, 0x6c, 0x4f, 0x9f,
}

const (
	ProposalCreateInstructionArgsSize = (8 + // transaction_index
		1) // draft
)

type ProposalCreateInstructionArgs struct {
	TransactionIndex uint64
	Draft            bool
}

type ProposalCreateInstructionAccounts struct {
	Multisig  ed25519.PublicKey
	Proposal  ed25519.PublicKey
	Creator   ed25519.PublicKey
	RentPayer ed25519.PublicKey
}

func NewProposalCreateInstruction(
	accounts *ProposalCreateInstructionAccounts,
	args *ProposalCreateInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(ProposalCreateInstructionDiscriminator)+
			ProposalCreateInstructionArgsSize)

	putDiscriminator(data, ProposalCreateInstructionDiscriminator, &offset)
	putUint64(data, args.TransactionIndex, &offset)
	putBool(data, args.Draft, &offset)

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
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

func UnmarshalProposalCreateInstructionArgs(data []byte) (*ProposalCreateInstructionArgs, error) {
	var offset int
	if err := getInstructionDiscriminator(data, ProposalCreateInstructionDiscriminator, &offset); err != nil {
		return nil, err
	}
	if len(data) != len(ProposalCreateInstructionDiscriminator)+ProposalCreateInstructionArgsSize {
		return nil, ErrInvalidInstructionData
	}

	var args ProposalCreateInstructionArgs
	getUint64(data, &args.TransactionIndex, &offset)
	getBool(data, &args.Draft, &offset)

	return &args, nil
}
