package multisig

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/dao-treasury/dao-server/pkg/solana"
	"github.com/dao-treasury/dao-server/pkg/solana/squads"
	"github.com/dao-treasury/dao-server/pkg/solana/system"
)

const createMultisigMemo = "Deploy my own Squad"

// CreateMultisigInstruction implements Administrator.CreateMultisigInstruction.
//
// The creator is always part of the initial member set. It's added with full
// permissions unless members already contains its key. Members are
// deduplicated by key, keeping the first occurrence.
func (m *Multisig) CreateMultisigInstruction(members []squads.Member, threshold uint16, timeLock uint32) (solana.Instruction, error) {
	if m.createKey == nil {
		return solana.Instruction{}, NewInvalidArgumentError("create multisig", ErrMissingCreateKey)
	}
	for _, member := range members {
		if err := checkKey("create multisig", "member", member.Key); err != nil {
			return solana.Instruction{}, err
		}
	}

	memo := createMultisigMemo
	return squads.NewMultisigCreateV2Instruction(
		&squads.MultisigCreateV2InstructionAccounts{
			ProgramConfig: m.addresses.ProgramConfig,
			Treasury:      m.treasury,
			Multisig:      m.addresses.Multisig,
			CreateKey:     m.createKey,
			Creator:       m.creator,
		},
		&squads.MultisigCreateV2InstructionArgs{
			Threshold: threshold,
			Members:   withCreator(members, m.creator),
			TimeLock:  timeLock,
			Memo:      &memo,
		},
	), nil
}

// AddMemberInstruction implements Administrator.AddMemberInstruction
func (m *Multisig) AddMemberInstruction(ctx context.Context, actor ed25519.PublicKey, member squads.Member) (solana.Instruction, error) {
	if err := checkKey("add member", "member", member.Key); err != nil {
		return solana.Instruction{}, err
	}

	memo := fmt.Sprintf(
		"Add %s as member to multisig %s",
		base58.Encode(member.Key),
		base58.Encode(m.addresses.Multisig),
	)
	return m.configTransactionCreateInstruction(ctx, "add member", actor, squads.NewAddMemberAction(member), memo)
}

// RemoveMemberInstruction implements Administrator.RemoveMemberInstruction
func (m *Multisig) RemoveMemberInstruction(ctx context.Context, actor, member ed25519.PublicKey) (solana.Instruction, error) {
	if err := checkKey("remove member", "member", member); err != nil {
		return solana.Instruction{}, err
	}

	memo := fmt.Sprintf(
		"Remove %s member from multisig %s",
		base58.Encode(member),
		base58.Encode(m.addresses.Multisig),
	)
	return m.configTransactionCreateInstruction(ctx, "remove member", actor, squads.NewRemoveMemberAction(member), memo)
}

// ChangeThresholdInstruction implements Administrator.ChangeThresholdInstruction
func (m *Multisig) ChangeThresholdInstruction(ctx context.Context, actor ed25519.PublicKey, threshold uint16) (solana.Instruction, error) {
	memo := fmt.Sprintf(
		"Changing threshold to %d on multisig %s",
		threshold,
		base58.Encode(m.addresses.Multisig),
	)
	return m.configTransactionCreateInstruction(ctx, "change threshold", actor, squads.NewChangeThresholdAction(threshold), memo)
}

func (m *Multisig) configTransactionCreateInstruction(ctx context.Context, op string, actor ed25519.PublicKey, action squads.ConfigAction, memo string) (solana.Instruction, error) {
	if err := checkKey(op, "actor", actor); err != nil {
		return solana.Instruction{}, err
	}

	account, err := m.reader.FetchMultisig(ctx, m.addresses.Multisig)
	if err != nil {
		return solana.Instruction{}, err
	}

	transactionIndex := NextTransactionIndex(account)
	transaction, err := TransactionAddress(m.addresses.Multisig, transactionIndex)
	if err != nil {
		return solana.Instruction{}, newError(ErrorKindInstructionCompilation, op, err)
	}

	ix, err := squads.NewConfigTransactionCreateInstruction(
		&squads.ConfigTransactionCreateInstructionAccounts{
			Multisig:    m.addresses.Multisig,
			Transaction: transaction,
			Creator:     actor,
			RentPayer:   actor,
		},
		&squads.ConfigTransactionCreateInstructionArgs{
			Actions: []squads.ConfigAction{action},
			Memo:    &memo,
		},
	)
	if err != nil {
		return solana.Instruction{}, newError(ErrorKindInstructionCompilation, op, err)
	}

	m.log.WithFields(logrus.Fields{
		"method":            "configTransactionCreateInstruction",
		"action":            action.Kind.String(),
		"transaction_index": transactionIndex,
	}).Debug("built config transaction")

	return ix, nil
}

// TransferFromVaultInstruction implements Administrator.TransferFromVaultInstruction
func (m *Multisig) TransferFromVaultInstruction(ctx context.Context, sender, receiver ed25519.PublicKey, lamports uint64) (solana.Instruction, error) {
	if err := checkKey("transfer from vault", "sender", sender); err != nil {
		return solana.Instruction{}, err
	}
	if err := checkKey("transfer from vault", "receiver", receiver); err != nil {
		return solana.Instruction{}, err
	}

	account, err := m.reader.FetchMultisig(ctx, m.addresses.Multisig)
	if err != nil {
		return solana.Instruction{}, err
	}

	transactionIndex := NextTransactionIndex(account)
	transaction, err := TransactionAddress(m.addresses.Multisig, transactionIndex)
	if err != nil {
		return solana.Instruction{}, newError(ErrorKindInstructionCompilation, "transfer from vault", err)
	}

	message, err := m.compileTransferMessage(receiver, lamports)
	if err != nil {
		return solana.Instruction{}, newError(ErrorKindInstructionCompilation, "transfer from vault", err)
	}
	encoded, err := message.MarshalTransactionMessage()
	if err != nil {
		return solana.Instruction{}, newError(ErrorKindInstructionCompilation, "transfer from vault", err)
	}

	memo := fmt.Sprintf(
		"Sending %d lamports from %s to %s",
		lamports,
		base58.Encode(m.addresses.Vault),
		base58.Encode(receiver),
	)

	m.log.WithFields(logrus.Fields{
		"method":            "TransferFromVaultInstruction",
		"receiver":          base58.Encode(receiver),
		"lamports":          lamports,
		"transaction_index": transactionIndex,
	}).Debug("built vault transaction")

	return squads.NewVaultTransactionCreateInstruction(
		&squads.VaultTransactionCreateInstructionAccounts{
			Multisig:    m.addresses.Multisig,
			Transaction: transaction,
			Creator:     sender,
			RentPayer:   sender,
		},
		&squads.VaultTransactionCreateInstructionArgs{
			VaultIndex:         VaultIndex,
			EphemeralSigners:   0,
			TransactionMessage: encoded,
			Memo:               &memo,
		},
	), nil
}

// CreateProposalInstruction implements Administrator.CreateProposalInstruction.
// The proposal targets the most recently created transaction.
func (m *Multisig) CreateProposalInstruction(ctx context.Context, creator ed25519.PublicKey) (solana.Instruction, error) {
	if err := checkKey("create proposal", "creator", creator); err != nil {
		return solana.Instruction{}, err
	}

	account, err := m.reader.FetchMultisig(ctx, m.addresses.Multisig)
	if err != nil {
		return solana.Instruction{}, err
	}

	transactionIndex := CurrentTransactionIndex(account)
	proposal, err := ProposalAddress(m.addresses.Multisig, transactionIndex)
	if err != nil {
		return solana.Instruction{}, newError(ErrorKindInstructionCompilation, "create proposal", err)
	}

	return squads.NewProposalCreateInstruction(
		&squads.ProposalCreateInstructionAccounts{
			Multisig:  m.addresses.Multisig,
			Proposal:  proposal,
			Creator:   creator,
			RentPayer: creator,
		},
		&squads.ProposalCreateInstructionArgs{
			TransactionIndex: transactionIndex,
			Draft:            false,
		},
	), nil
}

// ApproveProposalInstruction implements Voter.ApproveProposalInstruction
func (m *Multisig) ApproveProposalInstruction(ctx context.Context, member ed25519.PublicKey) (solana.Instruction, error) {
	proposal, err := m.currentProposalAddress(ctx, "approve proposal", member)
	if err != nil {
		return solana.Instruction{}, err
	}

	return squads.NewProposalApproveInstruction(
		&squads.ProposalVoteInstructionAccounts{
			Multisig: m.addresses.Multisig,
			Member:   member,
			Proposal: proposal,
		},
		&squads.ProposalVoteInstructionArgs{},
	), nil
}

// RejectProposalInstruction implements Voter.RejectProposalInstruction
func (m *Multisig) RejectProposalInstruction(ctx context.Context, member ed25519.PublicKey) (solana.Instruction, error) {
	proposal, err := m.currentProposalAddress(ctx, "reject proposal", member)
	if err != nil {
		return solana.Instruction{}, err
	}

	return squads.NewProposalRejectInstruction(
		&squads.ProposalVoteInstructionAccounts{
			Multisig: m.addresses.Multisig,
			Member:   member,
			Proposal: proposal,
		},
		&squads.ProposalVoteInstructionArgs{},
	), nil
}

// CancelProposalInstruction implements Voter.CancelProposalInstruction
func (m *Multisig) CancelProposalInstruction(ctx context.Context, member ed25519.PublicKey) (solana.Instruction, error) {
	if err := checkKey("cancel proposal", "member", member); err != nil {
		return solana.Instruction{}, err
	}

	account, err := m.reader.FetchMultisig(ctx, m.addresses.Multisig)
	if err != nil {
		return solana.Instruction{}, err
	}

	transactionIndex := CurrentTransactionIndex(account)
	proposal, err := m.reader.FetchProposal(ctx, m.addresses.Multisig, transactionIndex)
	if err != nil {
		return solana.Instruction{}, err
	}

	if err := CheckCancellable(proposal); err != nil {
		m.log.WithFields(logrus.Fields{
			"method":            "CancelProposalInstruction",
			"transaction_index": transactionIndex,
			"status":            proposal.Status.String(),
		}).Debug("proposal cannot be cancelled")
		return solana.Instruction{}, err
	}

	proposalAddress, err := ProposalAddress(m.addresses.Multisig, transactionIndex)
	if err != nil {
		return solana.Instruction{}, newError(ErrorKindInstructionCompilation, "cancel proposal", err)
	}

	return squads.NewProposalCancelInstruction(
		&squads.ProposalVoteInstructionAccounts{
			Multisig: m.addresses.Multisig,
			Member:   member,
			Proposal: proposalAddress,
		},
		&squads.ProposalVoteInstructionArgs{},
	), nil
}

// ExecuteConfigTransactionInstruction implements Administrator.ExecuteConfigTransactionInstruction
func (m *Multisig) ExecuteConfigTransactionInstruction(ctx context.Context, executor ed25519.PublicKey) (solana.Instruction, error) {
	if err := checkKey("execute config transaction", "executor", executor); err != nil {
		return solana.Instruction{}, err
	}

	account, err := m.reader.FetchMultisig(ctx, m.addresses.Multisig)
	if err != nil {
		return solana.Instruction{}, err
	}

	transactionIndex := CurrentTransactionIndex(account)
	proposal, err := ProposalAddress(m.addresses.Multisig, transactionIndex)
	if err != nil {
		return solana.Instruction{}, newError(ErrorKindInstructionCompilation, "execute config transaction", err)
	}
	transaction, err := TransactionAddress(m.addresses.Multisig, transactionIndex)
	if err != nil {
		return solana.Instruction{}, newError(ErrorKindInstructionCompilation, "execute config transaction", err)
	}

	// The executor pays for any reallocation caused by new members
	rentPayer := executor
	systemProgram := squads.SYSTEM_PROGRAM_ID

	return squads.NewConfigTransactionExecuteInstruction(
		&squads.ConfigTransactionExecuteInstructionAccounts{
			Multisig:      m.addresses.Multisig,
			Member:        executor,
			Proposal:      proposal,
			Transaction:   transaction,
			RentPayer:     &rentPayer,
			SystemProgram: &systemProgram,
		},
	), nil
}

// ExecuteVaultTransactionInstruction implements Administrator.ExecuteVaultTransactionInstruction.
//
// The transfer message is recompiled from receiver and lamports, which must
// match the values used when the vault transaction was created.
func (m *Multisig) ExecuteVaultTransactionInstruction(ctx context.Context, executor, receiver ed25519.PublicKey, lamports uint64) (solana.Instruction, error) {
	if err := checkKey("execute vault transaction", "executor", executor); err != nil {
		return solana.Instruction{}, err
	}
	if err := checkKey("execute vault transaction", "receiver", receiver); err != nil {
		return solana.Instruction{}, err
	}

	account, err := m.reader.FetchMultisig(ctx, m.addresses.Multisig)
	if err != nil {
		return solana.Instruction{}, err
	}

	transactionIndex := CurrentTransactionIndex(account)
	proposal, err := ProposalAddress(m.addresses.Multisig, transactionIndex)
	if err != nil {
		return solana.Instruction{}, newError(ErrorKindInstructionCompilation, "execute vault transaction", err)
	}
	transaction, err := TransactionAddress(m.addresses.Multisig, transactionIndex)
	if err != nil {
		return solana.Instruction{}, newError(ErrorKindInstructionCompilation, "execute vault transaction", err)
	}

	message, err := m.compileTransferMessage(receiver, lamports)
	if err != nil {
		return solana.Instruction{}, newError(ErrorKindInstructionCompilation, "execute vault transaction", err)
	}

	return squads.NewVaultTransactionExecuteInstruction(
		&squads.VaultTransactionExecuteInstructionAccounts{
			Multisig:    m.addresses.Multisig,
			Proposal:    proposal,
			Transaction: transaction,
			Member:      executor,
		},
		message,
	), nil
}

func (m *Multisig) currentProposalAddress(ctx context.Context, op string, member ed25519.PublicKey) (ed25519.PublicKey, error) {
	if err := checkKey(op, "member", member); err != nil {
		return nil, err
	}

	account, err := m.reader.FetchMultisig(ctx, m.addresses.Multisig)
	if err != nil {
		return nil, err
	}

	proposal, err := ProposalAddress(m.addresses.Multisig, CurrentTransactionIndex(account))
	if err != nil {
		return nil, newError(ErrorKindInstructionCompilation, op, err)
	}
	return proposal, nil
}

func (m *Multisig) compileTransferMessage(receiver ed25519.PublicKey, lamports uint64) (*squads.VaultTransactionMessage, error) {
	return squads.CompileVaultTransactionMessage(
		m.addresses.Vault,
		[]solana.Instruction{system.Transfer(m.addresses.Vault, receiver, lamports)},
	)
}

func withCreator(members []squads.Member, creator ed25519.PublicKey) []squads.Member {
	result := make([]squads.Member, 0, len(members)+1)
	seen := make(map[string]struct{}, len(members)+1)
	for _, member := range members {
		if _, ok := seen[string(member.Key)]; ok {
			continue
		}
		seen[string(member.Key)] = struct{}{}
		result = append(result, member)
	}

	if _, ok := seen[string(creator)]; !ok {
		result = append(result, squads.Member{
			Key:         creator,
			Permissions: squads.PermissionsAll,
		})
	}
	return result
}
