package multisig

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/dao-treasury/dao-server/pkg/solana/squads"
)

// VaultIndex is the only vault used by a DAO treasury.
const VaultIndex = 0

// Addresses are the fixed accounts of a single multisig.
type Addresses struct {
	Multisig      ed25519.PublicKey
	Vault         ed25519.PublicKey
	ProgramConfig ed25519.PublicKey
}

// DeriveAddresses derives the accounts of the multisig created with
// createKey.
func DeriveAddresses(createKey ed25519.PublicKey) (*Addresses, error) {
	if len(createKey) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid create key length: %d", len(createKey))
	}

	multisig, _, err := squads.GetMultisigAddress(&squads.GetMultisigAddressArgs{
		CreateKey: createKey,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error deriving multisig address")
	}
	return DeriveAddressesFromMultisig(multisig)
}

// DeriveAddressesFromMultisig derives the accounts of an existing multisig.
func DeriveAddressesFromMultisig(multisig ed25519.PublicKey) (*Addresses, error) {
	if len(multisig) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid multisig address length: %d", len(multisig))
	}

	vault, _, err := squads.GetVaultAddress(&squads.GetVaultAddressArgs{
		Multisig:   multisig,
		VaultIndex: VaultIndex,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error deriving vault address")
	}

	programConfig, _, err := squads.GetProgramConfigAddress()
	if err != nil {
		return nil, errors.Wrap(err, "error deriving program config address")
	}

	return &Addresses{
		Multisig:      multisig,
		Vault:         vault,
		ProgramConfig: programConfig,
	}, nil
}

// TransactionAddress derives the config or vault transaction account at
// transactionIndex.
func TransactionAddress(multisig ed25519.PublicKey, transactionIndex uint64) (ed25519.PublicKey, error) {
	address, _, err := squads.GetTransactionAddress(&squads.GetTransactionAddressArgs{
		Multisig:         multisig,
		TransactionIndex: transactionIndex,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error deriving transaction address at index %d", transactionIndex)
	}
	return address, nil
}

// ProposalAddress derives the proposal account at transactionIndex.
func ProposalAddress(multisig ed25519.PublicKey, transactionIndex uint64) (ed25519.PublicKey, error) {
	address, _, err := squads.GetProposalAddress(&squads.GetProposalAddressArgs{
		Multisig:         multisig,
		TransactionIndex: transactionIndex,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error deriving proposal address at index %d", transactionIndex)
	}
	return address, nil
}
