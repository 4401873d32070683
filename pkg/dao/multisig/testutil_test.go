package multisig

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dao-treasury/dao-server/pkg/solana"
	"github.com/dao-treasury/dao-server/pkg/solana/memory"
	"github.com/dao-treasury/dao-server/pkg/solana/squads"
	"github.com/dao-treasury/dao-server/pkg/solana/squads/squadstest"
)

const (
	testCreationFee = 1_000_000
	testAirdrop     = 10_000_000_000
)

type testEnv struct {
	ctx       context.Context
	client    *memory.Client
	program   *squadstest.Program
	creator   ed25519.PrivateKey
	createKey ed25519.PrivateKey
	multisig  *Multisig
}

func setup(t *testing.T) testEnv {
	client := memory.NewClient()

	treasury, _ := generateKey(t)
	program, err := squadstest.Install(client, treasury, testCreationFee)
	require.NoError(t, err)

	creator, creatorKey := generateKey(t)
	_, createKey := generateKey(t)
	airdrop(t, client, creator)

	ms, err := NewFromCreateKey(context.Background(), client, creator, createKey.Public().(ed25519.PublicKey))
	require.NoError(t, err)

	return testEnv{
		ctx:       context.Background(),
		client:    client,
		program:   program,
		creator:   creatorKey,
		createKey: createKey,
		multisig:  ms,
	}
}

// deploy creates the multisig on chain with the provided members and
// threshold.
func (e testEnv) deploy(t *testing.T, members []squads.Member, threshold uint16) {
	txn, err := e.multisig.CreateMultisig(e.ctx, members, threshold, 0)
	require.NoError(t, err)
	e.submit(t, txn, e.creator, e.createKey)
}

func (e testEnv) submit(t *testing.T, txn *solana.Transaction, signers ...ed25519.PrivateKey) solana.Signature {
	sig, err := e.trySubmit(txn, signers...)
	require.NoError(t, err)
	return sig
}

func (e testEnv) trySubmit(txn *solana.Transaction, signers ...ed25519.PrivateKey) (solana.Signature, error) {
	if err := txn.Sign(signers...); err != nil {
		return solana.Signature{}, err
	}
	return e.client.SubmitTransaction(*txn, solana.CommitmentFinalized)
}

// approveCurrent creates and approves the proposal for the current
// transaction with a single voter.
func (e testEnv) approveCurrent(t *testing.T, voter ed25519.PrivateKey) {
	txn, err := e.multisig.CreateProposal(e.ctx, publicKey(voter))
	require.NoError(t, err)
	e.submit(t, txn, voter)

	txn, err = e.multisig.ApproveProposal(e.ctx, publicKey(voter))
	require.NoError(t, err)
	e.submit(t, txn, voter)
}

func (e testEnv) creatorKey() ed25519.PublicKey {
	return publicKey(e.creator)
}

func generateKey(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return pub, priv
}

func publicKey(key ed25519.PrivateKey) ed25519.PublicKey {
	return key.Public().(ed25519.PublicKey)
}

func airdrop(t *testing.T, client *memory.Client, account ed25519.PublicKey) {
	_, err := client.RequestAirdrop(account, testAirdrop, solana.CommitmentFinalized)
	require.NoError(t, err)
}
