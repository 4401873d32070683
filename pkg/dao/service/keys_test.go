package service

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dao-treasury/dao-server/pkg/solana/squads"
	"github.com/dao-treasury/dao-server/pkg/testutil"
)

func TestParsePrivateKey(t *testing.T) {
	key := testutil.GenerateSolanaKeypair(t)

	parsed, err := ParsePrivateKey(byteListEncoding(key))
	require.NoError(t, err)
	assert.Equal(t, key, parsed)

	parsed, err = ParsePrivateKey(" " + base58.Encode(key) + "\n")
	require.NoError(t, err)
	assert.Equal(t, key, parsed)

	corrupted := make(ed25519.PrivateKey, len(key))
	copy(corrupted, key)
	corrupted[40] ^= 0xff

	for _, invalid := range []string{
		"",
		"invalid",
		"1,2,3",
		"1,2,300",
		base58.Encode(key[:32]),
		base58.Encode(corrupted),
	} {
		_, err := ParsePrivateKey(invalid)
		assert.Error(t, err, invalid)
	}
}

func TestParsePrivateKeys(t *testing.T) {
	first := testutil.GenerateSolanaKeypair(t)
	second := testutil.GenerateSolanaKeypair(t)

	keys, err := ParsePrivateKeys("")
	require.NoError(t, err)
	assert.Empty(t, keys)

	keys, err = ParsePrivateKeys(base58.Encode(first) + ";" + byteListEncoding(second) + ";")
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, first, keys[0])
	assert.Equal(t, second, keys[1])

	_, err = ParsePrivateKeys(base58.Encode(first) + ";invalid")
	assert.Error(t, err)
}

func TestParsePublicKey(t *testing.T) {
	key := testutil.GenerateSolanaKeys(t, 1)[0]

	parsed, err := ParsePublicKey(base58.Encode(key))
	require.NoError(t, err)
	assert.EqualValues(t, key, parsed)

	for _, invalid := range []string{"", "0OIl", base58.Encode(key[:31])} {
		_, err := ParsePublicKey(invalid)
		assert.Error(t, err, invalid)
	}
}

func TestParsePermissions(t *testing.T) {
	permissions, err := ParsePermissions(nil)
	require.NoError(t, err)
	assert.Equal(t, squads.NewPermissions(squads.PermissionVote), permissions)

	permissions, err = ParsePermissions([]string{"Initiate", "vote", " Execute "})
	require.NoError(t, err)
	assert.Equal(t, squads.PermissionsAll, permissions)

	_, err = ParsePermissions([]string{"Vote", "Admin"})
	assert.Error(t, err)
}

func TestKeyring(t *testing.T) {
	key := testutil.GenerateSolanaKeypair(t)
	other := testutil.GenerateSolanaKeys(t, 1)[0]

	k := newKeyring(key)

	actual, ok := k.get(key.Public().(ed25519.PublicKey))
	require.True(t, ok)
	assert.Equal(t, key, actual)

	_, ok = k.get(other)
	assert.False(t, ok)
}
