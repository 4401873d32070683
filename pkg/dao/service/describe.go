package service

import (
	"context"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/dao-treasury/dao-server/pkg/dao/multisig"
	"github.com/dao-treasury/dao-server/pkg/dao/project"
	"github.com/dao-treasury/dao-server/pkg/metrics"
)

// MemberSummary is a member of a DAO with its permissions.
type MemberSummary struct {
	Address     string `json:"address"`
	Permissions string `json:"permissions"`
}

// DaoSummary is the current on-chain state of a project's DAO.
type DaoSummary struct {
	ProjectID             string          `json:"project_id"`
	Multisig              string          `json:"multisig"`
	Vault                 string          `json:"vault"`
	VaultBalance          uint64          `json:"vault_balance"`
	Threshold             uint16          `json:"threshold"`
	TimeLock              uint32          `json:"time_lock"`
	TransactionIndex      uint64          `json:"transaction_index"`
	StaleTransactionIndex uint64          `json:"stale_transaction_index"`
	Members               []MemberSummary `json:"members"`

	// Empty when no proposal exists for the current transaction index
	ProposalStatus string `json:"proposal_status,omitempty"`
}

// Describe reads the DAO bound to projectID.
func (s *Service) Describe(ctx context.Context, projectID string) (*DaoSummary, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Describe")
	defer tracer.End()
	tracer.AddAttribute("project_id", projectID)

	summary, err := s.describe(ctx, projectID)
	tracer.OnError(err)
	return summary, err
}

// DescribeByMultisig reads the DAO at a multisig address created by this
// service, resolving the project it is bound to.
func (s *Service) DescribeByMultisig(ctx context.Context, address string) (*DaoSummary, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "DescribeByMultisig")
	defer tracer.End()
	tracer.AddAttribute("multisig", address)

	summary, err := s.describeByMultisig(ctx, address)
	tracer.OnError(err)
	return summary, err
}

func (s *Service) describeByMultisig(ctx context.Context, address string) (*DaoSummary, error) {
	if _, err := ParsePublicKey(address); err != nil {
		return nil, multisig.NewInvalidArgumentError("describe", err)
	}

	record, err := s.projects.GetByMultisig(ctx, address)
	switch err {
	case nil:
	case project.ErrProjectNotFound:
		return nil, multisig.NewInvalidArgumentError("describe", errors.Errorf("no project is bound to multisig %s", address))
	default:
		return nil, errors.Wrap(err, "error getting project")
	}

	return s.describe(ctx, record.ProjectId)
}

func (s *Service) describe(ctx context.Context, projectID string) (*DaoSummary, error) {
	facade, err := s.getMultisig(ctx, projectID)
	if err != nil {
		return nil, err
	}

	account, err := facade.GetMultisig(ctx)
	if err != nil {
		return nil, err
	}

	balance, err := facade.GetVaultBalance(ctx)
	if err != nil {
		return nil, err
	}

	addresses := facade.Addresses()
	summary := &DaoSummary{
		ProjectID:             projectID,
		Multisig:              base58.Encode(addresses.Multisig),
		Vault:                 base58.Encode(addresses.Vault),
		VaultBalance:          balance,
		Threshold:             account.Threshold,
		TimeLock:              account.TimeLock,
		TransactionIndex:      account.TransactionIndex,
		StaleTransactionIndex: account.StaleTransactionIndex,
	}
	for _, member := range account.Members {
		summary.Members = append(summary.Members, MemberSummary{
			Address:     base58.Encode(member.Key),
			Permissions: member.Permissions.String(),
		})
	}

	if account.TransactionIndex == 0 {
		return summary, nil
	}

	status, err := facade.GetCurrentProposalStatus(ctx)
	switch {
	case err == nil:
		summary.ProposalStatus = status.Kind.String()
	case multisig.IsKind(err, multisig.ErrorKindProposalFetch):
		s.log.WithError(err).WithField("project_id", projectID).Debug("no proposal for current transaction")
	default:
		return nil, err
	}
	return summary, nil
}
