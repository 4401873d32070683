// Package squadstest runs a simplified multisig program on top of the in
// memory solana client, so that multisig workflows can be exercised end to
// end without a validator.
//
// The simulated program follows the on-chain program's account layouts,
// address derivation and permission checks. Time locks, spending limits and
// address lookup tables are not supported.
package squadstest

import (
	"bytes"
	"crypto/ed25519"
	"sort"

	"github.com/pkg/errors"

	"github.com/dao-treasury/dao-server/pkg/solana"
	"github.com/dao-treasury/dao-server/pkg/solana/memory"
	"github.com/dao-treasury/dao-server/pkg/solana/squads"
)

// Program is a simulated multisig program bound to a memory client.
type Program struct {
	client        *memory.Client
	programConfig ed25519.PublicKey
	treasury      ed25519.PublicKey
	creationFee   uint64
}

// Install creates the program config account with the provided treasury and
// multisig creation fee, then registers the program with the client.
func Install(client *memory.Client, treasury ed25519.PublicKey, creationFee uint64) (*Program, error) {
	programConfig, _, err := squads.GetProgramConfigAddress()
	if err != nil {
		return nil, err
	}

	config := &squads.ProgramConfigAccount{
		Authority:           treasury,
		MultisigCreationFee: creationFee,
		Treasury:            treasury,
	}
	data := config.Marshal()

	client.SetAccount(programConfig, solana.AccountInfo{
		Data:     data,
		Owner:    squads.PROGRAM_ID,
		Lamports: memory.MinimumBalanceForRentExemption(len(data)),
	})

	p := &Program{
		client:        client,
		programConfig: programConfig,
		treasury:      treasury,
		creationFee:   creationFee,
	}
	client.SetProgram(squads.PROGRAM_ID, p.process)
	return p, nil
}

// ProgramConfig returns the address of the program config account.
func (p *Program) ProgramConfig() ed25519.PublicKey {
	return p.programConfig
}

// Treasury returns the treasury that receives multisig creation fees.
func (p *Program) Treasury() ed25519.PublicKey {
	return p.treasury
}

func (p *Program) process(ctx *memory.Context, ix solana.Instruction) error {
	if len(ix.Data) < 8 {
		return errors.New(string(solana.InstructionErrorInvalidInstructionData))
	}

	discriminator := ix.Data[:8]
	switch {
	case bytes.Equal(discriminator, squads.MultisigCreateV2InstructionDiscriminator):
		return p.multisigCreate(ctx, ix)
	case bytes.Equal(discriminator, squads.ConfigTransactionCreateInstructionDiscriminator):
		return p.configTransactionCreate(ctx, ix)
	case bytes.Equal(discriminator, squads.ConfigTransactionExecuteInstructionDiscriminator):
		return p.configTransactionExecute(ctx, ix)
	case bytes.Equal(discriminator, squads.VaultTransactionCreateInstructionDiscriminator):
		return p.vaultTransactionCreate(ctx, ix)
	case bytes.Equal(discriminator, squads.VaultTransactionExecuteInstructionDiscriminator):
		return p.vaultTransactionExecute(ctx, ix)
	case bytes.Equal(discriminator, squads.ProposalCreateInstructionDiscriminator):
		return p.proposalCreate(ctx, ix)
	case bytes.Equal(discriminator, squads.ProposalApproveInstructionDiscriminator),
		bytes.Equal(discriminator, squads.ProposalRejectInstructionDiscriminator),
		bytes.Equal(discriminator, squads.ProposalCancelInstructionDiscriminator):
		return p.proposalVote(ctx, ix)
	}

	// Anchor's InstructionFallbackNotFound
	return solana.CustomError(101)
}

func (p *Program) multisigCreate(ctx *memory.Context, ix solana.Instruction) error {
	if len(ix.Accounts) < 6 {
		return errors.New(string(solana.InstructionErrorNotEnoughAccountKeys))
	}

	args, err := squads.UnmarshalMultisigCreateV2InstructionArgs(ix.Data)
	if err != nil {
		return errors.New(string(solana.InstructionErrorInvalidInstructionData))
	}

	programConfig := ix.Accounts[0].PublicKey
	treasury := ix.Accounts[1].PublicKey
	multisig := ix.Accounts[2].PublicKey
	createKey := ix.Accounts[3]
	creator := ix.Accounts[4]

	if !createKey.IsSigner || !creator.IsSigner {
		return errors.New(string(solana.InstructionErrorMissingRequiredSignature))
	}
	if !bytes.Equal(programConfig, p.programConfig) || !bytes.Equal(treasury, p.treasury) {
		return squads.ProgramErrorInvalidAccount.ToCustomError()
	}

	expected, bump, err := squads.GetMultisigAddress(&squads.GetMultisigAddressArgs{
		CreateKey: createKey.PublicKey,
	})
	if err != nil {
		return err
	}
	if !bytes.Equal(expected, multisig) {
		return squads.ProgramErrorInvalidAccount.ToCustomError()
	}

	account := &squads.MultisigAccount{
		CreateKey:       createKey.PublicKey,
		ConfigAuthority: args.ConfigAuthority,
		Threshold:       args.Threshold,
		TimeLock:        args.TimeLock,
		RentCollector:   args.RentCollector,
		Bump:            bump,
		Members:         append([]squads.Member{}, args.Members...),
	}
	if err := validateMultisig(account); err != nil {
		return err
	}

	if p.creationFee > 0 {
		if err := ctx.Transfer(creator.PublicKey, treasury, p.creationFee); err != nil {
			return err
		}
	}

	return ctx.CreateAccount(creator.PublicKey, multisig, squads.PROGRAM_ID, account.Marshal())
}

func (p *Program) configTransactionCreate(ctx *memory.Context, ix solana.Instruction) error {
	if len(ix.Accounts) < 5 {
		return errors.New(string(solana.InstructionErrorNotEnoughAccountKeys))
	}

	args, err := squads.UnmarshalConfigTransactionCreateInstructionArgs(ix.Data)
	if err != nil {
		return errors.New(string(solana.InstructionErrorInvalidInstructionData))
	}

	multisigAddress := ix.Accounts[0].PublicKey
	transaction := ix.Accounts[1].PublicKey
	creator := ix.Accounts[2]
	rentPayer := ix.Accounts[3]

	multisig, err := loadMultisig(ctx, multisigAddress)
	if err != nil {
		return err
	}
	if !isAutonomous(multisig) {
		return squads.ProgramErrorUnauthorized.ToCustomError()
	}
	if err := checkMember(multisig, creator, squads.PermissionInitiate); err != nil {
		return err
	}

	index := multisig.TransactionIndex + 1
	bump, err := checkTransactionAddress(multisigAddress, index, transaction)
	if err != nil {
		return err
	}

	account := &squads.ConfigTransactionAccount{
		Multisig: multisigAddress,
		Creator:  creator.PublicKey,
		Index:    index,
		Bump:     bump,
		Actions:  args.Actions,
	}
	data, err := account.Marshal()
	if err != nil {
		return squads.ProgramErrorInvalidTransactionMessage.ToCustomError()
	}
	if err := ctx.CreateAccount(rentPayer.PublicKey, transaction, squads.PROGRAM_ID, data); err != nil {
		return err
	}

	multisig.TransactionIndex = index
	return storeAccount(ctx, multisigAddress, multisig.Marshal(), nil)
}

func (p *Program) vaultTransactionCreate(ctx *memory.Context, ix solana.Instruction) error {
	if len(ix.Accounts) < 5 {
		return errors.New(string(solana.InstructionErrorNotEnoughAccountKeys))
	}

	args, err := squads.UnmarshalVaultTransactionCreateInstructionArgs(ix.Data)
	if err != nil {
		return errors.New(string(solana.InstructionErrorInvalidInstructionData))
	}

	multisigAddress := ix.Accounts[0].PublicKey
	transaction := ix.Accounts[1].PublicKey
	creator := ix.Accounts[2]
	rentPayer := ix.Accounts[3]

	multisig, err := loadMultisig(ctx, multisigAddress)
	if err != nil {
		return err
	}
	if err := checkMember(multisig, creator, squads.PermissionInitiate); err != nil {
		return err
	}

	vault, vaultBump, err := squads.GetVaultAddress(&squads.GetVaultAddressArgs{
		Multisig:   multisigAddress,
		VaultIndex: args.VaultIndex,
	})
	if err != nil {
		return err
	}

	message, err := squads.UnmarshalTransactionMessage(args.TransactionMessage)
	if err != nil {
		return squads.ProgramErrorInvalidTransactionMessage.ToCustomError()
	}
	if len(message.AccountKeys) == 0 || message.NumSigners == 0 || !bytes.Equal(message.AccountKeys[0], vault) {
		return squads.ProgramErrorInvalidTransactionMessage.ToCustomError()
	}
	if args.EphemeralSigners > 0 || len(message.AddressTableLookups) > 0 {
		return squads.ProgramErrorInvalidTransactionMessage.ToCustomError()
	}

	index := multisig.TransactionIndex + 1
	bump, err := checkTransactionAddress(multisigAddress, index, transaction)
	if err != nil {
		return err
	}

	account := &squads.VaultTransactionAccount{
		Multisig:   multisigAddress,
		Creator:    creator.PublicKey,
		Index:      index,
		Bump:       bump,
		VaultIndex: args.VaultIndex,
		VaultBump:  vaultBump,
		Message:    *message,
	}
	if err := ctx.CreateAccount(rentPayer.PublicKey, transaction, squads.PROGRAM_ID, account.Marshal()); err != nil {
		return err
	}

	multisig.TransactionIndex = index
	return storeAccount(ctx, multisigAddress, multisig.Marshal(), nil)
}

func (p *Program) proposalCreate(ctx *memory.Context, ix solana.Instruction) error {
	if len(ix.Accounts) < 5 {
		return errors.New(string(solana.InstructionErrorNotEnoughAccountKeys))
	}

	args, err := squads.UnmarshalProposalCreateInstructionArgs(ix.Data)
	if err != nil {
		return errors.New(string(solana.InstructionErrorInvalidInstructionData))
	}

	multisigAddress := ix.Accounts[0].PublicKey
	proposal := ix.Accounts[1].PublicKey
	creator := ix.Accounts[2]
	rentPayer := ix.Accounts[3]

	multisig, err := loadMultisig(ctx, multisigAddress)
	if err != nil {
		return err
	}
	if !creator.IsSigner {
		return errors.New(string(solana.InstructionErrorMissingRequiredSignature))
	}
	if !multisig.IsMember(creator.PublicKey) {
		return squads.ProgramErrorNotAMember.ToCustomError()
	}
	if !multisig.HasPermission(creator.PublicKey, squads.PermissionInitiate) && !multisig.HasPermission(creator.PublicKey, squads.PermissionVote) {
		return squads.ProgramErrorUnauthorized.ToCustomError()
	}
	if args.TransactionIndex > multisig.TransactionIndex {
		return squads.ProgramErrorInvalidTransactionIndex.ToCustomError()
	}
	if args.TransactionIndex <= multisig.StaleTransactionIndex {
		return squads.ProgramErrorStaleProposal.ToCustomError()
	}

	expected, bump, err := squads.GetProposalAddress(&squads.GetProposalAddressArgs{
		Multisig:         multisigAddress,
		TransactionIndex: args.TransactionIndex,
	})
	if err != nil {
		return err
	}
	if !bytes.Equal(expected, proposal) {
		return squads.ProgramErrorInvalidAccount.ToCustomError()
	}

	status := squads.ProposalStatus{Kind: squads.ProposalStatusActive, Timestamp: ctx.UnixTime}
	if args.Draft {
		status.Kind = squads.ProposalStatusDraft
	}

	account := &squads.ProposalAccount{
		Multisig:         multisigAddress,
		TransactionIndex: args.TransactionIndex,
		Status:           status,
		Bump:             bump,
	}
	return ctx.CreateAccount(rentPayer.PublicKey, proposal, squads.PROGRAM_ID, account.Marshal())
}

func (p *Program) proposalVote(ctx *memory.Context, ix solana.Instruction) error {
	if len(ix.Accounts) < 3 {
		return errors.New(string(solana.InstructionErrorNotEnoughAccountKeys))
	}

	discriminator := ix.Data[:8]
	if _, err := squads.UnmarshalProposalVoteInstructionArgs(discriminator, ix.Data); err != nil {
		return errors.New(string(solana.InstructionErrorInvalidInstructionData))
	}

	multisigAddress := ix.Accounts[0].PublicKey
	member := ix.Accounts[1]
	proposalAddress := ix.Accounts[2].PublicKey

	multisig, err := loadMultisig(ctx, multisigAddress)
	if err != nil {
		return err
	}
	if err := checkMember(multisig, member, squads.PermissionVote); err != nil {
		return err
	}

	proposal, err := loadProposal(ctx, multisigAddress, proposalAddress)
	if err != nil {
		return err
	}

	voter := member.PublicKey
	switch {
	case bytes.Equal(discriminator, squads.ProposalApproveInstructionDiscriminator):
		if proposal.Status.Kind != squads.ProposalStatusActive {
			return squads.ProgramErrorInvalidProposalStatus.ToCustomError()
		}
		if proposal.TransactionIndex <= multisig.StaleTransactionIndex {
			return squads.ProgramErrorStaleProposal.ToCustomError()
		}
		if containsKey(proposal.Approved, voter) {
			return squads.ProgramErrorAlreadyApproved.ToCustomError()
		}

		proposal.Rejected = removeKey(proposal.Rejected, voter)
		proposal.Approved = insertKey(proposal.Approved, voter)
		if len(proposal.Approved) >= int(multisig.Threshold) {
			proposal.Status = squads.ProposalStatus{Kind: squads.ProposalStatusApproved, Timestamp: ctx.UnixTime}
		}
	case bytes.Equal(discriminator, squads.ProposalRejectInstructionDiscriminator):
		if proposal.Status.Kind != squads.ProposalStatusActive {
			return squads.ProgramErrorInvalidProposalStatus.ToCustomError()
		}
		if proposal.TransactionIndex <= multisig.StaleTransactionIndex {
			return squads.ProgramErrorStaleProposal.ToCustomError()
		}
		if containsKey(proposal.Rejected, voter) {
			return squads.ProgramErrorAlreadyRejected.ToCustomError()
		}

		proposal.Approved = removeKey(proposal.Approved, voter)
		proposal.Rejected = insertKey(proposal.Rejected, voter)

		cutoff := multisig.CountWithPermission(squads.PermissionVote) - int(multisig.Threshold) + 1
		if len(proposal.Rejected) >= cutoff {
			proposal.Status = squads.ProposalStatus{Kind: squads.ProposalStatusRejected, Timestamp: ctx.UnixTime}
		}
	default:
		if proposal.Status.Kind != squads.ProposalStatusApproved {
			return squads.ProgramErrorInvalidProposalStatus.ToCustomError()
		}
		if containsKey(proposal.Cancelled, voter) {
			return squads.ProgramErrorAlreadyCancelled.ToCustomError()
		}

		proposal.Cancelled = insertKey(proposal.Cancelled, voter)
		if len(proposal.Cancelled) >= int(multisig.Threshold) {
			proposal.Status = squads.ProposalStatus{Kind: squads.ProposalStatusCancelled, Timestamp: ctx.UnixTime}
		}
	}

	return storeAccount(ctx, proposalAddress, proposal.Marshal(), nil)
}

func (p *Program) configTransactionExecute(ctx *memory.Context, ix solana.Instruction) error {
	if len(ix.Accounts) < 6 {
		return errors.New(string(solana.InstructionErrorNotEnoughAccountKeys))
	}

	multisigAddress := ix.Accounts[0].PublicKey
	member := ix.Accounts[1]
	proposalAddress := ix.Accounts[2].PublicKey
	transactionAddress := ix.Accounts[3].PublicKey

	var rentPayer *ed25519.PublicKey
	if !bytes.Equal(ix.Accounts[4].PublicKey, squads.PROGRAM_ID) {
		rentPayer = &ix.Accounts[4].PublicKey
	}

	multisig, err := loadMultisig(ctx, multisigAddress)
	if err != nil {
		return err
	}
	if err := checkMember(multisig, member, squads.PermissionExecute); err != nil {
		return err
	}

	proposal, err := loadProposal(ctx, multisigAddress, proposalAddress)
	if err != nil {
		return err
	}
	if proposal.Status.Kind != squads.ProposalStatusApproved {
		return squads.ProgramErrorInvalidProposalStatus.ToCustomError()
	}
	if proposal.TransactionIndex <= multisig.StaleTransactionIndex {
		return squads.ProgramErrorStaleProposal.ToCustomError()
	}

	info, ok := ctx.GetAccount(transactionAddress)
	if !ok || !bytes.Equal(info.Owner, squads.PROGRAM_ID) {
		return squads.ProgramErrorInvalidAccount.ToCustomError()
	}
	var transaction squads.ConfigTransactionAccount
	if err := transaction.Unmarshal(info.Data); err != nil || transaction.Index != proposal.TransactionIndex {
		return squads.ProgramErrorInvalidAccount.ToCustomError()
	}

	for _, action := range transaction.Actions {
		if err := applyConfigAction(multisig, action); err != nil {
			return err
		}
	}
	if err := validateMultisig(multisig); err != nil {
		return err
	}

	// Every config change invalidates proposals created before it
	multisig.StaleTransactionIndex = multisig.TransactionIndex

	proposal.Status = squads.ProposalStatus{Kind: squads.ProposalStatusExecuted, Timestamp: ctx.UnixTime}
	if err := storeAccount(ctx, proposalAddress, proposal.Marshal(), nil); err != nil {
		return err
	}
	return storeAccount(ctx, multisigAddress, multisig.Marshal(), rentPayer)
}

func (p *Program) vaultTransactionExecute(ctx *memory.Context, ix solana.Instruction) error {
	if len(ix.Accounts) < 4 {
		return errors.New(string(solana.InstructionErrorNotEnoughAccountKeys))
	}

	multisigAddress := ix.Accounts[0].PublicKey
	proposalAddress := ix.Accounts[1].PublicKey
	transactionAddress := ix.Accounts[2].PublicKey
	member := ix.Accounts[3]
	remaining := ix.Accounts[4:]

	multisig, err := loadMultisig(ctx, multisigAddress)
	if err != nil {
		return err
	}
	if err := checkMember(multisig, member, squads.PermissionExecute); err != nil {
		return err
	}

	proposal, err := loadProposal(ctx, multisigAddress, proposalAddress)
	if err != nil {
		return err
	}
	if proposal.Status.Kind != squads.ProposalStatusApproved {
		return squads.ProgramErrorInvalidProposalStatus.ToCustomError()
	}

	info, ok := ctx.GetAccount(transactionAddress)
	if !ok || !bytes.Equal(info.Owner, squads.PROGRAM_ID) {
		return squads.ProgramErrorInvalidAccount.ToCustomError()
	}
	var transaction squads.VaultTransactionAccount
	if err := transaction.Unmarshal(info.Data); err != nil || transaction.Index != proposal.TransactionIndex {
		return squads.ProgramErrorInvalidAccount.ToCustomError()
	}

	message := transaction.Message
	if len(remaining) != len(message.AccountKeys) {
		return squads.ProgramErrorInvalidNumberOfAccounts.ToCustomError()
	}
	for i, key := range message.AccountKeys {
		if !bytes.Equal(remaining[i].PublicKey, key) {
			return squads.ProgramErrorInvalidAccount.ToCustomError()
		}
		if message.IsStaticWritableIndex(i) && !remaining[i].IsWritable {
			return squads.ProgramErrorInvalidAccount.ToCustomError()
		}
	}

	vault, _, err := squads.GetVaultAddress(&squads.GetVaultAddressArgs{
		Multisig:   multisigAddress,
		VaultIndex: transaction.VaultIndex,
	})
	if err != nil {
		return err
	}

	instructions, err := message.DecompileInstructions()
	if err != nil {
		return squads.ProgramErrorInvalidTransactionMessage.ToCustomError()
	}
	for _, instruction := range instructions {
		if err := ctx.Invoke(instruction, vault); err != nil {
			return err
		}
	}

	proposal.Status = squads.ProposalStatus{Kind: squads.ProposalStatusExecuted, Timestamp: ctx.UnixTime}
	return storeAccount(ctx, proposalAddress, proposal.Marshal(), nil)
}

func applyConfigAction(multisig *squads.MultisigAccount, action squads.ConfigAction) error {
	switch action.Kind {
	case squads.ConfigActionAddMember:
		if multisig.IsMember(action.NewMember.Key) {
			return squads.ProgramErrorDuplicateMember.ToCustomError()
		}
		multisig.Members = append(multisig.Members, action.NewMember)
	case squads.ConfigActionRemoveMember:
		if len(multisig.Members) == 1 {
			return squads.ProgramErrorRemoveLastMember.ToCustomError()
		}
		i := multisig.MemberIndex(action.OldMember)
		if i < 0 {
			return squads.ProgramErrorNotAMember.ToCustomError()
		}
		multisig.Members = append(multisig.Members[:i], multisig.Members[i+1:]...)
	case squads.ConfigActionChangeThreshold:
		multisig.Threshold = action.NewThreshold
	case squads.ConfigActionSetTimeLock:
		multisig.TimeLock = action.NewTimeLock
	case squads.ConfigActionSetRentCollector:
		multisig.RentCollector = action.NewRentCollector
	default:
		return squads.ProgramErrorInvalidTransactionMessage.ToCustomError()
	}
	return nil
}

func validateMultisig(multisig *squads.MultisigAccount) error {
	if len(multisig.Members) == 0 {
		return squads.ProgramErrorEmptyMembers.ToCustomError()
	}
	if len(multisig.Members) > 65535 {
		return squads.ProgramErrorTooManyMembers.ToCustomError()
	}

	sort.Slice(multisig.Members, func(i, j int) bool {
		return bytes.Compare(multisig.Members[i].Key, multisig.Members[j].Key) < 0
	})
	for i := 1; i < len(multisig.Members); i++ {
		if bytes.Equal(multisig.Members[i-1].Key, multisig.Members[i].Key) {
			return squads.ProgramErrorDuplicateMember.ToCustomError()
		}
	}

	if multisig.CountWithPermission(squads.PermissionInitiate) == 0 {
		return squads.ProgramErrorNoProposers.ToCustomError()
	}
	if multisig.CountWithPermission(squads.PermissionExecute) == 0 {
		return squads.ProgramErrorNoExecutors.ToCustomError()
	}
	voters := multisig.CountWithPermission(squads.PermissionVote)
	if voters == 0 {
		return squads.ProgramErrorNoVoters.ToCustomError()
	}
	if multisig.Threshold == 0 || int(multisig.Threshold) > voters {
		return squads.ProgramErrorInvalidThreshold.ToCustomError()
	}
	return nil
}

func loadMultisig(ctx *memory.Context, address ed25519.PublicKey) (*squads.MultisigAccount, error) {
	info, ok := ctx.GetAccount(address)
	if !ok || !bytes.Equal(info.Owner, squads.PROGRAM_ID) {
		return nil, squads.ProgramErrorInvalidAccount.ToCustomError()
	}

	var multisig squads.MultisigAccount
	if err := multisig.Unmarshal(info.Data); err != nil {
		return nil, squads.ProgramErrorInvalidAccount.ToCustomError()
	}
	return &multisig, nil
}

func loadProposal(ctx *memory.Context, multisig, address ed25519.PublicKey) (*squads.ProposalAccount, error) {
	info, ok := ctx.GetAccount(address)
	if !ok || !bytes.Equal(info.Owner, squads.PROGRAM_ID) {
		return nil, squads.ProgramErrorInvalidAccount.ToCustomError()
	}

	var proposal squads.ProposalAccount
	if err := proposal.Unmarshal(info.Data); err != nil || !bytes.Equal(proposal.Multisig, multisig) {
		return nil, squads.ProgramErrorInvalidAccount.ToCustomError()
	}
	return &proposal, nil
}

func checkMember(multisig *squads.MultisigAccount, member solana.AccountMeta, permission squads.Permission) error {
	if !member.IsSigner {
		return errors.New(string(solana.InstructionErrorMissingRequiredSignature))
	}
	if !multisig.IsMember(member.PublicKey) {
		return squads.ProgramErrorNotAMember.ToCustomError()
	}
	if !multisig.HasPermission(member.PublicKey, permission) {
		return squads.ProgramErrorUnauthorized.ToCustomError()
	}
	return nil
}

func checkTransactionAddress(multisig ed25519.PublicKey, index uint64, actual ed25519.PublicKey) (uint8, error) {
	expected, bump, err := squads.GetTransactionAddress(&squads.GetTransactionAddressArgs{
		Multisig:         multisig,
		TransactionIndex: index,
	})
	if err != nil {
		return 0, err
	}
	if !bytes.Equal(expected, actual) {
		return 0, squads.ProgramErrorInvalidAccount.ToCustomError()
	}
	return bump, nil
}

// storeAccount writes data into a program owned account. Growth beyond the
// current rent exempt balance is paid by payer when one is provided.
func storeAccount(ctx *memory.Context, address ed25519.PublicKey, data []byte, payer *ed25519.PublicKey) error {
	info, _ := ctx.GetAccount(address)

	required := memory.MinimumBalanceForRentExemption(len(data))
	if required > info.Lamports && payer != nil {
		if err := ctx.Transfer(*payer, address, required-info.Lamports); err != nil {
			return err
		}
		info, _ = ctx.GetAccount(address)
	}

	info.Data = data
	info.Owner = squads.PROGRAM_ID
	ctx.SetAccount(address, info)
	return nil
}

func isAutonomous(multisig *squads.MultisigAccount) bool {
	for _, b := range multisig.ConfigAuthority {
		if b != 0 {
			return false
		}
	}
	return true
}

func containsKey(keys []ed25519.PublicKey, key ed25519.PublicKey) bool {
	for _, candidate := range keys {
		if bytes.Equal(candidate, key) {
			return true
		}
	}
	return false
}

func insertKey(keys []ed25519.PublicKey, key ed25519.PublicKey) []ed25519.PublicKey {
	i := sort.Search(len(keys), func(i int) bool {
		return bytes.Compare(keys[i], key) >= 0
	})
	keys = append(keys, nil)
	copy(keys[i+1:], keys[i:])
	keys[i] = key
	return keys
}

func removeKey(keys []ed25519.PublicKey, key ed25519.PublicKey) []ed25519.PublicKey {
	for i, candidate := range keys {
		if bytes.Equal(candidate, key) {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}
