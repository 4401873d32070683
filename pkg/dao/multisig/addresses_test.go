package multisig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dao-treasury/dao-server/pkg/solana/squads"
)

func TestDeriveAddresses(t *testing.T) {
	createKey, _ := generateKey(t)

	addresses, err := DeriveAddresses(createKey)
	require.NoError(t, err)

	multisig, _, err := squads.GetMultisigAddress(&squads.GetMultisigAddressArgs{CreateKey: createKey})
	require.NoError(t, err)
	vault, _, err := squads.GetVaultAddress(&squads.GetVaultAddressArgs{Multisig: multisig, VaultIndex: VaultIndex})
	require.NoError(t, err)
	programConfig, _, err := squads.GetProgramConfigAddress()
	require.NoError(t, err)

	assert.EqualValues(t, multisig, addresses.Multisig)
	assert.EqualValues(t, vault, addresses.Vault)
	assert.EqualValues(t, programConfig, addresses.ProgramConfig)

	fromMultisig, err := DeriveAddressesFromMultisig(multisig)
	require.NoError(t, err)
	assert.Equal(t, addresses, fromMultisig)

	again, err := DeriveAddresses(createKey)
	require.NoError(t, err)
	assert.Equal(t, addresses, again)

	_, err = DeriveAddresses(createKey[:16])
	assert.Error(t, err)
	_, err = DeriveAddressesFromMultisig(nil)
	assert.Error(t, err)
}

func TestTransactionAndProposalAddresses(t *testing.T) {
	multisig, _ := generateKey(t)

	first, err := TransactionAddress(multisig, 1)
	require.NoError(t, err)
	second, err := TransactionAddress(multisig, 2)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	proposal, err := ProposalAddress(multisig, 1)
	require.NoError(t, err)
	assert.NotEqual(t, first, proposal)

	expected, _, err := squads.GetProposalAddress(&squads.GetProposalAddressArgs{
		Multisig:         multisig,
		TransactionIndex: 1,
	})
	require.NoError(t, err)
	assert.EqualValues(t, expected, proposal)
}
