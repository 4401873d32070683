package multisig

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dao-treasury/dao-server/pkg/metrics"
	"github.com/dao-treasury/dao-server/pkg/solana"
	"github.com/dao-treasury/dao-server/pkg/solana/squads"
)

// Viewer reads the current state of a multisig. Mutable state is fetched from
// the network on every call.
type Viewer interface {
	// Addresses returns the multisig, vault and program config addresses
	Addresses() Addresses

	// Treasury returns the program's fee treasury
	Treasury() ed25519.PublicKey

	GetMultisig(ctx context.Context) (*squads.MultisigAccount, error)

	GetMembers(ctx context.Context) ([]squads.Member, error)

	GetTransactionIndex(ctx context.Context) (uint64, error)

	GetThreshold(ctx context.Context) (uint16, error)

	IsMember(ctx context.Context, key ed25519.PublicKey) (bool, error)

	// GetCurrentProposal returns the proposal at the current transaction index
	GetCurrentProposal(ctx context.Context) (*squads.ProposalAccount, error)

	GetCurrentProposalStatus(ctx context.Context) (squads.ProposalStatus, error)

	GetVaultBalance(ctx context.Context) (uint64, error)
}

// Administrator is the set of operations available to members that initiate
// and execute multisig transactions.
type Administrator interface {
	Viewer

	CreateMultisigInstruction(members []squads.Member, threshold uint16, timeLock uint32) (solana.Instruction, error)
	CreateMultisig(ctx context.Context, members []squads.Member, threshold uint16, timeLock uint32) (*solana.Transaction, error)

	AddMemberInstruction(ctx context.Context, actor ed25519.PublicKey, member squads.Member) (solana.Instruction, error)
	AddMember(ctx context.Context, actor ed25519.PublicKey, member squads.Member) (*solana.Transaction, error)

	RemoveMemberInstruction(ctx context.Context, actor, member ed25519.PublicKey) (solana.Instruction, error)
	RemoveMember(ctx context.Context, actor, member ed25519.PublicKey) (*solana.Transaction, error)

	ChangeThresholdInstruction(ctx context.Context, actor ed25519.PublicKey, threshold uint16) (solana.Instruction, error)
	ChangeThreshold(ctx context.Context, actor ed25519.PublicKey, threshold uint16) (*solana.Transaction, error)

	TransferFromVaultInstruction(ctx context.Context, sender, receiver ed25519.PublicKey, lamports uint64) (solana.Instruction, error)
	TransferFromVault(ctx context.Context, sender, receiver ed25519.PublicKey, lamports uint64) (*solana.Transaction, error)

	CreateProposalInstruction(ctx context.Context, creator ed25519.PublicKey) (solana.Instruction, error)
	CreateProposal(ctx context.Context, creator ed25519.PublicKey) (*solana.Transaction, error)

	ExecuteConfigTransactionInstruction(ctx context.Context, executor ed25519.PublicKey) (solana.Instruction, error)
	ExecuteConfigTransaction(ctx context.Context, executor ed25519.PublicKey) (*solana.Transaction, error)

	ExecuteVaultTransactionInstruction(ctx context.Context, executor, receiver ed25519.PublicKey, lamports uint64) (solana.Instruction, error)
	ExecuteVaultTransaction(ctx context.Context, executor, receiver ed25519.PublicKey, lamports uint64) (*solana.Transaction, error)
}

// Voter is the set of operations available to voting members.
type Voter interface {
	Viewer

	ApproveProposalInstruction(ctx context.Context, member ed25519.PublicKey) (solana.Instruction, error)
	ApproveProposal(ctx context.Context, member ed25519.PublicKey) (*solana.Transaction, error)

	RejectProposalInstruction(ctx context.Context, member ed25519.PublicKey) (solana.Instruction, error)
	RejectProposal(ctx context.Context, member ed25519.PublicKey) (*solana.Transaction, error)

	// CancelProposalInstruction fails with ErrorKindProposalNotApproved unless
	// the current proposal is Approved
	CancelProposalInstruction(ctx context.Context, member ed25519.PublicKey) (solana.Instruction, error)
	CancelProposal(ctx context.Context, member ed25519.PublicKey) (*solana.Transaction, error)
}

// Multisig is a DAO treasury backed by a multisig program account. The
// addresses and treasury are resolved once at construction. Everything else
// is read from the network when needed.
type Multisig struct {
	log       *logrus.Entry
	client    solana.Client
	reader    *StateReader
	assembler *Assembler

	creator   ed25519.PublicKey
	createKey ed25519.PublicKey
	addresses Addresses
	treasury  ed25519.PublicKey
}

var (
	_ Administrator = (*Multisig)(nil)
	_ Voter         = (*Multisig)(nil)
)

// NewFromCreateKey returns the multisig derived from createKey, which may not
// exist yet. Only multisigs constructed this way can be created.
func NewFromCreateKey(ctx context.Context, client solana.Client, creator, createKey ed25519.PublicKey) (*Multisig, error) {
	addresses, err := DeriveAddresses(createKey)
	if err != nil {
		return nil, NewInvalidArgumentError("new multisig", err)
	}
	return newMultisig(ctx, client, creator, createKey, addresses)
}

// NewFromAddress returns the existing multisig at address.
func NewFromAddress(ctx context.Context, client solana.Client, creator, address ed25519.PublicKey) (*Multisig, error) {
	addresses, err := DeriveAddressesFromMultisig(address)
	if err != nil {
		return nil, NewInvalidArgumentError("new multisig", err)
	}
	return newMultisig(ctx, client, creator, nil, addresses)
}

func newMultisig(ctx context.Context, client solana.Client, creator, createKey ed25519.PublicKey, addresses *Addresses) (*Multisig, error) {
	if err := checkKey("new multisig", "creator", creator); err != nil {
		return nil, err
	}

	reader := NewStateReader(client, solana.CommitmentConfirmed)
	programConfig, err := reader.FetchProgramConfig(ctx, addresses.ProgramConfig)
	if err != nil {
		return nil, err
	}

	return &Multisig{
		log: logrus.StandardLogger().WithFields(logrus.Fields{
			"type":     "multisig/facade",
			"multisig": base58.Encode(addresses.Multisig),
		}),
		client:    client,
		reader:    reader,
		assembler: NewAssembler(client),
		creator:   creator,
		createKey: createKey,
		addresses: *addresses,
		treasury:  programConfig.Treasury,
	}, nil
}

// SetPriorityFee applies a compute unit price to every transaction built by
// the multisig. See Assembler.SetPriorityFee.
func (m *Multisig) SetPriorityFee(computeUnitLimit uint32, microLamports uint64) {
	m.assembler.SetPriorityFee(computeUnitLimit, microLamports)
}

// Addresses implements Viewer.Addresses
func (m *Multisig) Addresses() Addresses {
	return m.addresses
}

// Treasury implements Viewer.Treasury
func (m *Multisig) Treasury() ed25519.PublicKey {
	return m.treasury
}

// Creator returns the key granted full permissions on creation and used as
// the fee payer for creation.
func (m *Multisig) Creator() ed25519.PublicKey {
	return m.creator
}

// GetMultisig implements Viewer.GetMultisig
func (m *Multisig) GetMultisig(ctx context.Context) (*squads.MultisigAccount, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetMultisig")
	defer tracer.End()

	account, err := m.reader.FetchMultisig(ctx, m.addresses.Multisig)
	tracer.OnError(err)
	return account, err
}

// GetMembers implements Viewer.GetMembers
func (m *Multisig) GetMembers(ctx context.Context) ([]squads.Member, error) {
	account, err := m.GetMultisig(ctx)
	if err != nil {
		return nil, err
	}
	return account.Members, nil
}

// GetTransactionIndex implements Viewer.GetTransactionIndex
func (m *Multisig) GetTransactionIndex(ctx context.Context) (uint64, error) {
	account, err := m.GetMultisig(ctx)
	if err != nil {
		return 0, err
	}
	return account.TransactionIndex, nil
}

// GetThreshold implements Viewer.GetThreshold
func (m *Multisig) GetThreshold(ctx context.Context) (uint16, error) {
	account, err := m.GetMultisig(ctx)
	if err != nil {
		return 0, err
	}
	return account.Threshold, nil
}

// IsMember implements Viewer.IsMember
func (m *Multisig) IsMember(ctx context.Context, key ed25519.PublicKey) (bool, error) {
	account, err := m.GetMultisig(ctx)
	if err != nil {
		return false, err
	}
	return account.IsMember(key), nil
}

// GetCurrentProposal implements Viewer.GetCurrentProposal
func (m *Multisig) GetCurrentProposal(ctx context.Context) (*squads.ProposalAccount, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetCurrentProposal")
	defer tracer.End()

	account, err := m.reader.FetchMultisig(ctx, m.addresses.Multisig)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}

	proposal, err := m.reader.FetchProposal(ctx, m.addresses.Multisig, CurrentTransactionIndex(account))
	tracer.OnError(err)
	return proposal, err
}

// GetCurrentProposalStatus implements Viewer.GetCurrentProposalStatus
func (m *Multisig) GetCurrentProposalStatus(ctx context.Context) (squads.ProposalStatus, error) {
	proposal, err := m.GetCurrentProposal(ctx)
	if err != nil {
		return squads.ProposalStatus{}, err
	}
	return proposal.Status, nil
}

// GetVaultBalance implements Viewer.GetVaultBalance
func (m *Multisig) GetVaultBalance(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	balance, err := m.client.GetBalance(m.addresses.Vault)
	if err != nil {
		return 0, errors.Wrap(err, "error getting vault balance")
	}
	return balance, nil
}

// CreateMultisig implements Administrator.CreateMultisig
func (m *Multisig) CreateMultisig(ctx context.Context, members []squads.Member, threshold uint16, timeLock uint32) (*solana.Transaction, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "CreateMultisig")
	defer tracer.End()

	ix, err := m.CreateMultisigInstruction(members, threshold, timeLock)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}
	return m.assemble(ctx, tracer, m.creator, ix)
}

// AddMember implements Administrator.AddMember
func (m *Multisig) AddMember(ctx context.Context, actor ed25519.PublicKey, member squads.Member) (*solana.Transaction, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "AddMember")
	defer tracer.End()

	ix, err := m.AddMemberInstruction(ctx, actor, member)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}
	return m.assemble(ctx, tracer, actor, ix)
}

// RemoveMember implements Administrator.RemoveMember
func (m *Multisig) RemoveMember(ctx context.Context, actor, member ed25519.PublicKey) (*solana.Transaction, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "RemoveMember")
	defer tracer.End()

	ix, err := m.RemoveMemberInstruction(ctx, actor, member)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}
	return m.assemble(ctx, tracer, actor, ix)
}

// ChangeThreshold implements Administrator.ChangeThreshold
func (m *Multisig) ChangeThreshold(ctx context.Context, actor ed25519.PublicKey, threshold uint16) (*solana.Transaction, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "ChangeThreshold")
	defer tracer.End()

	ix, err := m.ChangeThresholdInstruction(ctx, actor, threshold)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}
	return m.assemble(ctx, tracer, actor, ix)
}

// TransferFromVault implements Administrator.TransferFromVault
func (m *Multisig) TransferFromVault(ctx context.Context, sender, receiver ed25519.PublicKey, lamports uint64) (*solana.Transaction, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "TransferFromVault")
	defer tracer.End()

	ix, err := m.TransferFromVaultInstruction(ctx, sender, receiver, lamports)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}
	return m.assemble(ctx, tracer, sender, ix)
}

// CreateProposal implements Administrator.CreateProposal
func (m *Multisig) CreateProposal(ctx context.Context, creator ed25519.PublicKey) (*solana.Transaction, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "CreateProposal")
	defer tracer.End()

	ix, err := m.CreateProposalInstruction(ctx, creator)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}
	return m.assemble(ctx, tracer, creator, ix)
}

// ExecuteConfigTransaction implements Administrator.ExecuteConfigTransaction
func (m *Multisig) ExecuteConfigTransaction(ctx context.Context, executor ed25519.PublicKey) (*solana.Transaction, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "ExecuteConfigTransaction")
	defer tracer.End()

	ix, err := m.ExecuteConfigTransactionInstruction(ctx, executor)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}
	return m.assemble(ctx, tracer, executor, ix)
}

// ExecuteVaultTransaction implements Administrator.ExecuteVaultTransaction
func (m *Multisig) ExecuteVaultTransaction(ctx context.Context, executor, receiver ed25519.PublicKey, lamports uint64) (*solana.Transaction, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "ExecuteVaultTransaction")
	defer tracer.End()

	ix, err := m.ExecuteVaultTransactionInstruction(ctx, executor, receiver, lamports)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}
	return m.assemble(ctx, tracer, executor, ix)
}

// ApproveProposal implements Voter.ApproveProposal
func (m *Multisig) ApproveProposal(ctx context.Context, member ed25519.PublicKey) (*solana.Transaction, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "ApproveProposal")
	defer tracer.End()

	ix, err := m.ApproveProposalInstruction(ctx, member)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}
	return m.assemble(ctx, tracer, member, ix)
}

// RejectProposal implements Voter.RejectProposal
func (m *Multisig) RejectProposal(ctx context.Context, member ed25519.PublicKey) (*solana.Transaction, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "RejectProposal")
	defer tracer.End()

	ix, err := m.RejectProposalInstruction(ctx, member)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}
	return m.assemble(ctx, tracer, member, ix)
}

// CancelProposal implements Voter.CancelProposal
func (m *Multisig) CancelProposal(ctx context.Context, member ed25519.PublicKey) (*solana.Transaction, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "CancelProposal")
	defer tracer.End()

	ix, err := m.CancelProposalInstruction(ctx, member)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}
	return m.assemble(ctx, tracer, member, ix)
}

func (m *Multisig) assemble(ctx context.Context, tracer *metrics.MethodTracer, feePayer ed25519.PublicKey, ix solana.Instruction) (*solana.Transaction, error) {
	txn, err := m.assembler.Assemble(ctx, feePayer, ix)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}
	return txn, nil
}

func checkKey(op, name string, key ed25519.PublicKey) error {
	if len(key) != ed25519.PublicKeySize {
		return NewInvalidArgumentError(op, errors.Errorf("invalid %s length: %d", name, len(key)))
	}
	return nil
}
