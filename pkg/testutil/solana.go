package testutil

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dao-treasury/dao-server/pkg/solana"
)

func GenerateSolanaKeypair(t *testing.T) ed25519.PrivateKey {
	_, p, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return p
}

func GenerateSolanaKeys(t *testing.T, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, n)
	for i := 0; i < n; i++ {
		p, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = p
	}
	return keys
}

// FundAccount airdrops lamports to account and fails the test if the airdrop
// doesn't land.
func FundAccount(t *testing.T, client solana.Client, account ed25519.PublicKey, lamports uint64) {
	sig, err := client.RequestAirdrop(account, lamports, solana.CommitmentFinalized)
	require.NoError(t, err)

	status, err := client.GetSignatureStatus(sig, solana.CommitmentFinalized)
	require.NoError(t, err)
	require.Nil(t, status.ErrorResult)
}
