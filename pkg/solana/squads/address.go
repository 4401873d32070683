package squads

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/dao-treasury/dao-server/pkg/solana"
)

var (
	SeedPrefix        = []byte("multisig")
	SeedProgramConfig = []byte("program_config")
	SeedMultisig      = []byte("multisig")
	SeedVault         = []byte("vault")
	SeedTransaction   = []byte("transaction")
	SeedProposal      = []byte("proposal")
)

func GetProgramConfigAddress() (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		SeedPrefix,
		SeedProgramConfig,
	)
}

type GetMultisigAddressArgs struct {
	CreateKey ed25519.PublicKey
}

func GetMultisigAddress(args *GetMultisigAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		SeedPrefix,
		SeedMultisig,
		args.CreateKey,
	)
}

type GetVaultAddressArgs struct {
	Multisig   ed25519.PublicKey
	VaultIndex uint8
}

func GetVaultAddress(args *GetVaultAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		SeedPrefix,
		args.Multisig,
		SeedVault,
		[]byte{args.VaultIndex},
	)
}

type GetTransactionAddressArgs struct {
	Multisig         ed25519.PublicKey
	TransactionIndex uint64
}

func GetTransactionAddress(args *GetTransactionAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		SeedPrefix,
		args.Multisig,
		SeedTransaction,
		transactionIndexSeed(args.TransactionIndex),
	)
}

type GetProposalAddressArgs struct {
	Multisig         ed25519.PublicKey
	TransactionIndex uint64
}

func GetProposalAddress(args *GetProposalAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		SeedPrefix,
		args.Multisig,
		SeedTransaction,
		transactionIndexSeed(args.TransactionIndex),
		SeedProposal,
	)
}

func transactionIndexSeed(index uint64) []byte {
	seed := make([]byte, 8)
	binary.LittleEndian.PutUint64(seed, index)
	return seed
}
