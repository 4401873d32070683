package squads

import (
	"crypto/ed25519"

	"github.com/dao-treasury/dao-server/pkg/solana"
)

var (
	ProposalApproveInstructionDiscriminator = []byte{
		0x90, 0x25, 0xa4, 0x88, 0xbc, 0xd8, 0x2a, 0xf8,
	}
	ProposalRejectInstructionDiscriminator = []byte{
		0xf3, 0x3e, 0x86, 0x9c, 0xe6, 0x6a, 0xf6, 0x87,
	}
	ProposalCancelInstructionDiscriminator = []byte{
		0x1b, 0x2a, 0x7f, 0xed, 0x26, 0xa3, 0x54, 0xcb,
	}
)

// ProposalVoteInstructionArgs are shared by approve, reject and cancel
type ProposalVoteInstructionArgs struct {
	Memo *string
}

type ProposalVoteInstructionAccounts struct {
	Multisig ed25519.PublicKey
	Member   ed25519.PublicKey
	Proposal ed25519.PublicKey
}

func NewProposalApproveInstruction(
	accounts *ProposalVoteInstructionAccounts,
	args *ProposalVoteInstructionArgs,
) solana.Instruction {
	return newProposalVoteInstruction(ProposalApproveInstructionDiscriminator, accounts, args)
}

func NewProposalRejectInstruction(
	accounts *ProposalVoteInstructionAccounts,
	args *ProposalVoteInstructionArgs,
) solana.Instruction {
	return newProposalVoteInstruction(ProposalRejectInstructionDiscriminator, accounts, args)
}

// NewProposalCancelInstruction builds a cancel vote. The program only accepts
// it for proposals in the Approved state.
func NewProposalCancelInstruction(
	accounts *ProposalVoteInstructionAccounts,
	args *ProposalVoteInstructionArgs,
) solana.Instruction {
	return newProposalVoteInstruction(ProposalCancelInstructionDiscriminator, accounts, args)
}

func newProposalVoteInstruction(
	discriminator []byte,
	accounts *ProposalVoteInstructionAccounts,
	args *ProposalVoteInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(discriminator)+
			optionalStringSize(args.Memo))

	putDiscriminator(data, discriminator, &offset)
	putOptionalString(data, args.Memo, &offset)

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
				PublicKey:  accounts.Member,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Proposal,
				IsWritable: true,
				IsSigner:   false,
			},
		},
	}
}

// UnmarshalProposalVoteInstructionArgs decodes the arguments of any vote
// instruction identified by discriminator.
func UnmarshalProposalVoteInstructionArgs(discriminator, data []byte) (*ProposalVoteInstructionArgs, error) {
	var offset int
	if err := getInstructionDiscriminator(data, discriminator, &offset); err != nil {
		return nil, err
	}

	var args ProposalVoteInstructionArgs
	if err := getOptionalString(data, &args.Memo, &offset); err != nil {
		return nil, ErrInvalidInstructionData
	}

	return &args, nil
}
