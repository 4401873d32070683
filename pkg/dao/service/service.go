package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dao-treasury/dao-server/pkg/dao/multisig"
	"github.com/dao-treasury/dao-server/pkg/dao/project"
	"github.com/dao-treasury/dao-server/pkg/metrics"
	"github.com/dao-treasury/dao-server/pkg/solana"
	"github.com/dao-treasury/dao-server/pkg/solana/computebudget"
	"github.com/dao-treasury/dao-server/pkg/solana/squads"
	sync_util "github.com/dao-treasury/dao-server/pkg/sync"
)

const (
	// LamportsPerSol is the number of lamports in one SOL
	LamportsPerSol = 1_000_000_000

	defaultThreshold = 1
	defaultTimeLock  = 0

	projectLockStripes = 64
)

// Vote actions accepted by Vote
const (
	VoteApprove = "Approve"
	VoteCancel  = "Cancel"
)

// Service signs and submits the transactions for every DAO operation. The
// administrator key creates multisigs and initiates and executes their
// transactions. Voter keys are only used to vote.
//
// Operations on the same project are serialized, since each one reads the
// multisig's transaction index before submitting.
type Service struct {
	log    *logrus.Entry
	conf   *conf
	client solana.Client

	administrator ed25519.PrivateKey
	keys          *keyring

	projects     project.Store
	projectLocks *sync_util.StripedLock
}

// New returns a Service that submits transactions through client and binds
// projects to multisigs in projects.
func New(client solana.Client, projects project.Store, configProvider ConfigProvider) (*Service, error) {
	ctx := context.Background()
	conf := configProvider()

	administrator, err := ParsePrivateKey(conf.administratorPrivateKey.Get(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "invalid administrator private key")
	}

	voters, err := ParsePrivateKeys(conf.voterPrivateKeys.Get(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "invalid voter private keys")
	}

	if _, err := ParsePublicKey(conf.defaultMultisig.Get(ctx)); err != nil {
		return nil, errors.Wrap(err, "invalid default multisig")
	}
	if _, err := solana.ParseCommitment(conf.confirmationCommitment.Get(ctx)); err != nil {
		return nil, errors.Wrap(err, "invalid confirmation commitment")
	}

	return &Service{
		log:           logrus.StandardLogger().WithField("service", "dao"),
		conf:          conf,
		client:        client,
		administrator: administrator,
		keys:          newKeyring(append(voters, administrator)...),
		projects:      projects,
		projectLocks:  sync_util.NewStripedLock(projectLockStripes),
	}, nil
}

// Administrator returns the public key of the administrator.
func (s *Service) Administrator() ed25519.PublicKey {
	return s.administrator.Public().(ed25519.PublicKey)
}

// CreateDao creates a new multisig with the administrator as its only member,
// binds it to the project and returns its address. A project can only be
// bound once.
func (s *Service) CreateDao(ctx context.Context, projectID string) (string, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "CreateDao")
	defer tracer.End()
	tracer.AddAttribute("project_id", projectID)

	log := s.log.WithFields(logrus.Fields{
		"method":     "CreateDao",
		"project_id": projectID,
	})

	if len(projectID) == 0 {
		err := multisig.NewInvalidArgumentError("create dao", errors.New("project id is required"))
		tracer.OnError(err)
		return "", err
	}

	unlock := s.projectLocks.Lock(projectID)
	defer unlock()

	_, err := s.projects.Get(ctx, projectID)
	switch err {
	case nil:
		err = multisig.NewInvalidArgumentError("create dao", project.ErrProjectExists)
		tracer.OnError(err)
		return "", err
	case project.ErrProjectNotFound:
	default:
		tracer.OnError(err)
		return "", errors.Wrap(err, "error getting project")
	}

	_, createKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		tracer.OnError(err)
		return "", errors.Wrap(err, "error generating create key")
	}

	facade, err := multisig.NewFromCreateKey(ctx, s.client, s.Administrator(), createKey.Public().(ed25519.PublicKey))
	if err != nil {
		tracer.OnError(err)
		return "", err
	}
	s.setPriorityFee(ctx, facade)

	txn, err := facade.CreateMultisig(ctx, nil, defaultThreshold, defaultTimeLock)
	if err != nil {
		tracer.OnError(err)
		return "", err
	}

	if _, err := s.submit(ctx, "create multisig", txn, s.administrator, createKey); err != nil {
		tracer.OnError(err)
		return "", err
	}

	address := base58.Encode(facade.Addresses().Multisig)
	log = log.WithField("multisig", address)

	err = s.projects.Put(ctx, &project.Record{
		ProjectId: projectID,
		Multisig:  address,
		CreateKey: base58.Encode(createKey.Public().(ed25519.PublicKey)),
		Creator:   base58.Encode(s.Administrator()),
	})
	if err != nil {
		// The multisig exists on chain but isn't reachable through the project
		log.WithError(err).Error("failure binding project to multisig")
		tracer.OnError(err)
		return "", errors.Wrap(err, "error binding project")
	}

	log.Info("dao created")
	return address, nil
}

// AddMember proposes adding member to the project's multisig. Members are
// granted Vote permission when no permissions are provided.
func (s *Service) AddMember(ctx context.Context, projectID, member string, permissions []string) (string, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "AddMember")
	defer tracer.End()
	tracer.AddAttribute("project_id", projectID)

	key, err := ParsePublicKey(member)
	if err != nil {
		tracer.OnError(err)
		return "", multisig.NewInvalidArgumentError("add member", err)
	}
	perms, err := ParsePermissions(permissions)
	if err != nil {
		tracer.OnError(err)
		return "", multisig.NewInvalidArgumentError("add member", err)
	}

	sig, err := s.proposeTransaction(ctx, projectID, "add member", func(facade *multisig.Multisig) (*solana.Transaction, error) {
		return facade.AddMember(ctx, s.Administrator(), squads.Member{Key: key, Permissions: perms})
	})
	tracer.OnError(err)
	return sig, err
}

// RemoveMember proposes removing member from the project's multisig.
func (s *Service) RemoveMember(ctx context.Context, projectID, member string) (string, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "RemoveMember")
	defer tracer.End()
	tracer.AddAttribute("project_id", projectID)

	key, err := ParsePublicKey(member)
	if err != nil {
		tracer.OnError(err)
		return "", multisig.NewInvalidArgumentError("remove member", err)
	}

	sig, err := s.proposeTransaction(ctx, projectID, "remove member", func(facade *multisig.Multisig) (*solana.Transaction, error) {
		return facade.RemoveMember(ctx, s.Administrator(), key)
	})
	tracer.OnError(err)
	return sig, err
}

// ChangeThreshold proposes a new approval threshold for the project's
// multisig.
func (s *Service) ChangeThreshold(ctx context.Context, projectID string, threshold uint16) (string, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "ChangeThreshold")
	defer tracer.End()
	tracer.AddAttribute("project_id", projectID)

	if threshold == 0 {
		err := multisig.NewInvalidArgumentError("change threshold", errors.New("threshold must be positive"))
		tracer.OnError(err)
		return "", err
	}

	sig, err := s.proposeTransaction(ctx, projectID, "change threshold", func(facade *multisig.Multisig) (*solana.Transaction, error) {
		return facade.ChangeThreshold(ctx, s.Administrator(), threshold)
	})
	tracer.OnError(err)
	return sig, err
}

// ExecuteProposal executes the config transaction behind the current
// proposal, which must be approved.
func (s *Service) ExecuteProposal(ctx context.Context, projectID string) (string, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "ExecuteProposal")
	defer tracer.End()
	tracer.AddAttribute("project_id", projectID)

	unlock := s.projectLocks.Lock(projectID)
	defer unlock()

	facade, err := s.getMultisig(ctx, projectID)
	if err != nil {
		tracer.OnError(err)
		return "", err
	}

	txn, err := facade.ExecuteConfigTransaction(ctx, s.Administrator())
	if err != nil {
		tracer.OnError(err)
		return "", err
	}

	sig, err := s.submit(ctx, "execute config transaction", txn, s.administrator)
	tracer.OnError(err)
	return sig, err
}

// Vote approves or cancels the current proposal on behalf of voter, who pays
// the transaction fee. The service must hold voter's private key.
func (s *Service) Vote(ctx context.Context, projectID, voter, vote string) (string, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Vote")
	defer tracer.End()
	tracer.AddAttribute("project_id", projectID)

	if vote != VoteApprove && vote != VoteCancel {
		err := multisig.NewInvalidArgumentError("vote", errors.Errorf("%s is not an \"Approve\" or \"Cancel\"", vote))
		tracer.OnError(err)
		return "", err
	}

	voterKey, err := ParsePublicKey(voter)
	if err != nil {
		tracer.OnError(err)
		return "", multisig.NewInvalidArgumentError("vote", err)
	}
	signer, ok := s.keys.get(voterKey)
	if !ok {
		err := multisig.NewInvalidArgumentError("vote", errors.Errorf("no signing key for voter %s", voter))
		tracer.OnError(err)
		return "", err
	}

	unlock := s.projectLocks.Lock(projectID)
	defer unlock()

	facade, err := s.getMultisig(ctx, projectID)
	if err != nil {
		tracer.OnError(err)
		return "", err
	}

	var txn *solana.Transaction
	switch vote {
	case VoteApprove:
		txn, err = facade.ApproveProposal(ctx, voterKey)
	case VoteCancel:
		txn, err = facade.CancelProposal(ctx, voterKey)
	}
	if err != nil {
		tracer.OnError(err)
		return "", err
	}

	sig, err := s.submit(ctx, strings.ToLower(vote)+" proposal", txn, signer)
	tracer.OnError(err)
	return sig, err
}

// Withdraw moves lamports from the project's vault to receiver. When
// isExecute is false, the vault transaction and its proposal are created.
// When true, the approved vault transaction is executed, which requires the
// same receiver and amount.
func (s *Service) Withdraw(ctx context.Context, projectID string, isExecute bool, receiver string, amount uint64) (string, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Withdraw")
	defer tracer.End()
	tracer.AddAttributes(map[string]interface{}{
		"project_id": projectID,
		"receiver":   receiver,
		"amount":     amount,
		"is_execute": isExecute,
	})

	receiverKey, err := ParsePublicKey(receiver)
	if err != nil {
		tracer.OnError(err)
		return "", multisig.NewInvalidArgumentError("withdraw", err)
	}

	if isExecute {
		unlock := s.projectLocks.Lock(projectID)
		defer unlock()

		facade, err := s.getMultisig(ctx, projectID)
		if err != nil {
			tracer.OnError(err)
			return "", err
		}

		txn, err := facade.ExecuteVaultTransaction(ctx, s.Administrator(), receiverKey, amount)
		if err != nil {
			tracer.OnError(err)
			return "", err
		}

		sig, err := s.submit(ctx, "execute vault transaction", txn, s.administrator)
		tracer.OnError(err)
		return sig, err
	}

	sig, err := s.proposeTransaction(ctx, projectID, "transfer from vault", func(facade *multisig.Multisig) (*solana.Transaction, error) {
		return facade.TransferFromVault(ctx, s.Administrator(), receiverKey, amount)
	})
	tracer.OnError(err)
	return sig, err
}

// MultisigAddress returns the multisig bound to projectID, or the default
// multisig for projects that were never bound.
func (s *Service) MultisigAddress(ctx context.Context, projectID string) (ed25519.PublicKey, error) {
	record, err := s.projects.Get(ctx, projectID)
	switch err {
	case nil:
		return ParsePublicKey(record.Multisig)
	case project.ErrProjectNotFound:
	default:
		return nil, errors.Wrap(err, "error getting project")
	}

	address, err := ParsePublicKey(s.conf.defaultMultisig.Get(ctx))
	if err != nil {
		return nil, multisig.NewInvalidArgumentError("resolve multisig", err)
	}
	return address, nil
}

// proposeTransaction submits the config or vault transaction built by create,
// followed by a second transaction proposing it. The proposal is built after
// the first transaction is confirmed, so it targets the new transaction index.
func (s *Service) proposeTransaction(ctx context.Context, projectID, op string, create func(*multisig.Multisig) (*solana.Transaction, error)) (string, error) {
	unlock := s.projectLocks.Lock(projectID)
	defer unlock()

	facade, err := s.getMultisig(ctx, projectID)
	if err != nil {
		return "", err
	}

	txn, err := create(facade)
	if err != nil {
		return "", err
	}
	if _, err := s.submit(ctx, op, txn, s.administrator); err != nil {
		return "", err
	}

	txn, err = facade.CreateProposal(ctx, s.Administrator())
	if err != nil {
		return "", err
	}
	sig, err := s.submit(ctx, "create proposal", txn, s.administrator)
	if err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{
		"method":     "proposeTransaction",
		"operation":  op,
		"project_id": projectID,
		"multisig":   base58.Encode(facade.Addresses().Multisig),
	}).Info("proposal created")

	return sig, nil
}

func (s *Service) getMultisig(ctx context.Context, projectID string) (*multisig.Multisig, error) {
	address, err := s.MultisigAddress(ctx, projectID)
	if err != nil {
		return nil, err
	}

	facade, err := multisig.NewFromAddress(ctx, s.client, s.Administrator(), address)
	if err != nil {
		return nil, err
	}
	s.setPriorityFee(ctx, facade)
	return facade, nil
}

func (s *Service) setPriorityFee(ctx context.Context, facade *multisig.Multisig) {
	limit := s.conf.computeUnitLimit.Get(ctx)
	if limit > computebudget.MaxComputeUnitLimit {
		limit = computebudget.MaxComputeUnitLimit
	}
	facade.SetPriorityFee(uint32(limit), s.conf.computeUnitPrice.Get(ctx))
}

// ParsePermissions maps permission names to a permission mask. An empty list
// yields Vote only.
func ParsePermissions(names []string) (squads.Permissions, error) {
	if len(names) == 0 {
		return squads.NewPermissions(squads.PermissionVote), nil
	}

	var permissions []squads.Permission
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "initiate":
			permissions = append(permissions, squads.PermissionInitiate)
		case "vote":
			permissions = append(permissions, squads.PermissionVote)
		case "execute":
			permissions = append(permissions, squads.PermissionExecute)
		default:
			return squads.Permissions{}, errors.Errorf("unknown permission %q", name)
		}
	}
	return squads.NewPermissions(permissions...), nil
}
