package multisig

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dao-treasury/dao-server/pkg/solana"
	"github.com/dao-treasury/dao-server/pkg/solana/squads"
)

// StateReader fetches and decodes multisig program accounts. Fetch and decode
// failures are reported with distinct error kinds. Nothing is cached and
// nothing is retried.
type StateReader struct {
	log        *logrus.Entry
	client     solana.Client
	commitment solana.Commitment
}

func NewStateReader(client solana.Client, commitment solana.Commitment) *StateReader {
	return &StateReader{
		log:        logrus.StandardLogger().WithField("type", "multisig/reader"),
		client:     client,
		commitment: commitment,
	}
}

// FetchMultisig reads the multisig account at address.
func (r *StateReader) FetchMultisig(ctx context.Context, address ed25519.PublicKey) (*squads.MultisigAccount, error) {
	data, err := r.fetch(ctx, address)
	if err != nil {
		return nil, newError(ErrorKindMultisigFetch, "fetch multisig", err)
	}

	var account squads.MultisigAccount
	if err := account.Unmarshal(data); err != nil {
		r.log.WithField("address", base58.Encode(address)).WithError(err).Debug("invalid multisig account data")
		return nil, newError(ErrorKindMultisigDecode, "fetch multisig", err)
	}
	return &account, nil
}

// FetchProposal reads the proposal at transactionIndex of multisig.
func (r *StateReader) FetchProposal(ctx context.Context, multisig ed25519.PublicKey, transactionIndex uint64) (*squads.ProposalAccount, error) {
	address, err := ProposalAddress(multisig, transactionIndex)
	if err != nil {
		return nil, newError(ErrorKindProposalFetch, "fetch proposal", err)
	}

	data, err := r.fetch(ctx, address)
	if err != nil {
		return nil, newError(ErrorKindProposalFetch, "fetch proposal", err)
	}

	var account squads.ProposalAccount
	if err := account.Unmarshal(data); err != nil {
		r.log.WithField("address", base58.Encode(address)).WithError(err).Debug("invalid proposal account data")
		return nil, newError(ErrorKindProposalDecode, "fetch proposal", err)
	}
	return &account, nil
}

// FetchProgramConfig reads the program config account at address.
func (r *StateReader) FetchProgramConfig(ctx context.Context, address ed25519.PublicKey) (*squads.ProgramConfigAccount, error) {
	data, err := r.fetch(ctx, address)
	if err != nil {
		return nil, newError(ErrorKindProgramConfigFetch, "fetch program config", err)
	}

	var account squads.ProgramConfigAccount
	if err := account.Unmarshal(data); err != nil {
		r.log.WithField("address", base58.Encode(address)).WithError(err).Debug("invalid program config account data")
		return nil, newError(ErrorKindProgramConfigDecode, "fetch program config", err)
	}
	return &account, nil
}

func (r *StateReader) fetch(ctx context.Context, address ed25519.PublicKey) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := r.client.GetAccountInfo(address, r.commitment)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting account info for %s", base58.Encode(address))
	}
	return info.Data, nil
}
