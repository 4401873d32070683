package squads

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dao-treasury/dao-server/pkg/solana"
	"github.com/dao-treasury/dao-server/pkg/solana/system"
)

func TestCompileVaultTransactionMessage_Transfer(t *testing.T) {
	keys := generateKeys(t, 2)
	vault, receiver := keys[0], keys[1]

	message, err := CompileVaultTransactionMessage(vault, []solana.Instruction{
		system.Transfer(vault, receiver, 1_000),
	})
	require.NoError(t, err)

	assert.EqualValues(t, 1, message.NumSigners)
	assert.EqualValues(t, 1, message.NumWritableSigners)
	assert.EqualValues(t, 1, message.NumWritableNonSigners)
	require.Len(t, message.AccountKeys, 3)
	assert.Equal(t, vault, message.AccountKeys[0])
	assert.Equal(t, receiver, message.AccountKeys[1])
	assert.Equal(t, SYSTEM_PROGRAM_ID, message.AccountKeys[2])

	require.Len(t, message.Instructions, 1)
	assert.EqualValues(t, 2, message.Instructions[0].ProgramIDIndex)
	assert.Equal(t, []uint8{0, 1}, message.Instructions[0].AccountIndexes)
	assert.Equal(t, system.TransferData(1_000), message.Instructions[0].Data)
	assert.Empty(t, message.AddressTableLookups)

	assert.True(t, message.IsSignerIndex(0))
	assert.False(t, message.IsSignerIndex(1))
	assert.True(t, message.IsStaticWritableIndex(0))
	assert.True(t, message.IsStaticWritableIndex(1))
	assert.False(t, message.IsStaticWritableIndex(2))
	assert.False(t, message.IsStaticWritableIndex(3))

	encoded, err := message.MarshalTransactionMessage()
	require.NoError(t, err)
	require.Len(t, encoded, 120)
	assert.Equal(t, []byte{1, 1, 1, 3}, encoded[:4])
	assert.Equal(t, []byte(vault), encoded[4:36])
	assert.Equal(t, []byte(receiver), encoded[36:68])
	assert.Equal(t, make([]byte, 32), encoded[68:100])
	assert.Equal(t, []byte{1, 2, 2, 0, 1, 12, 0}, encoded[100:107])
	assert.Equal(t, system.TransferData(1_000), encoded[107:119])
	assert.EqualValues(t, 0, encoded[119])

	decoded, err := UnmarshalTransactionMessage(encoded)
	require.NoError(t, err)
	assert.Equal(t, message, decoded)

	decompiled, err := decoded.DecompileInstructions()
	require.NoError(t, err)
	require.Len(t, decompiled, 1)
	assert.Equal(t, SYSTEM_PROGRAM_ID, decompiled[0].Program)
	assert.Equal(t, vault, decompiled[0].Accounts[0].PublicKey)
	assert.True(t, decompiled[0].Accounts[0].IsSigner)
	assert.Equal(t, receiver, decompiled[0].Accounts[1].PublicKey)
	assert.True(t, decompiled[0].Accounts[1].IsWritable)

	lamports, err := system.ParseTransferData(decompiled[0].Data)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000, lamports)
}

func TestCompileVaultTransactionMessage_Deterministic(t *testing.T) {
	keys := generateKeys(t, 5)
	vault := keys[0]

	instructions := []solana.Instruction{
		system.Transfer(vault, keys[1], 10),
		system.Transfer(vault, keys[2], 20),
		solana.NewInstruction(
			keys[3],
			[]byte{1, 2, 3},
			solana.NewReadonlyAccountMeta(keys[4], true),
			solana.NewReadonlyAccountMeta(keys[2], false),
		),
	}

	first, err := CompileVaultTransactionMessage(vault, instructions)
	require.NoError(t, err)
	second, err := CompileVaultTransactionMessage(vault, instructions)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	firstBytes, err := first.MarshalTransactionMessage()
	require.NoError(t, err)
	secondBytes, err := second.MarshalTransactionMessage()
	require.NoError(t, err)
	assert.Equal(t, firstBytes, secondBytes)

	// vault | readonly signer | sorted writable non-signers | sorted readonly non-signers
	assert.EqualValues(t, 2, first.NumSigners)
	assert.EqualValues(t, 1, first.NumWritableSigners)
	assert.EqualValues(t, 2, first.NumWritableNonSigners)
	require.Len(t, first.AccountKeys, 6)
	assert.Equal(t, vault, first.AccountKeys[0])
	assert.Equal(t, keys[4], first.AccountKeys[1])
	assert.True(t, bytes.Compare(first.AccountKeys[2], first.AccountKeys[3]) < 0)
	assert.True(t, bytes.Compare(first.AccountKeys[4], first.AccountKeys[5]) < 0)
	assert.ElementsMatch(t, []ed25519.PublicKey{keys[1], keys[2]}, first.AccountKeys[2:4])
	assert.ElementsMatch(t, []ed25519.PublicKey{keys[3], SYSTEM_PROGRAM_ID}, first.AccountKeys[4:6])

	assert.False(t, first.IsStaticWritableIndex(1))
	assert.True(t, first.IsSignerIndex(1))
	assert.True(t, first.IsStaticWritableIndex(3))
	assert.False(t, first.IsStaticWritableIndex(4))
}

func TestCompileVaultTransactionMessage_Invalid(t *testing.T) {
	keys := generateKeys(t, 2)

	_, err := CompileVaultTransactionMessage(keys[0][:31], nil)
	assert.Error(t, err)

	_, err = CompileVaultTransactionMessage(keys[0], []solana.Instruction{
		system.Transfer(keys[0], keys[1][:16], 10),
	})
	assert.Error(t, err)

	_, err = CompileVaultTransactionMessage(keys[0], []solana.Instruction{
		solana.NewInstruction(keys[1], make([]byte, 70_000)),
	})
	assert.Error(t, err)
}

func TestUnmarshalTransactionMessage_Invalid(t *testing.T) {
	keys := generateKeys(t, 2)
	message, err := CompileVaultTransactionMessage(keys[0], []solana.Instruction{
		system.Transfer(keys[0], keys[1], 10),
	})
	require.NoError(t, err)

	encoded, err := message.MarshalTransactionMessage()
	require.NoError(t, err)

	for _, size := range []int{0, 2, 3, 50, len(encoded) - 1} {
		_, err = UnmarshalTransactionMessage(encoded[:size])
		assert.Error(t, err, size)
	}

	_, err = UnmarshalTransactionMessage(append(encoded, 0))
	assert.Error(t, err)
}

func TestVaultTransactionMessage_LargeData(t *testing.T) {
	keys := generateKeys(t, 2)

	data := make([]byte, 300)
	binary.LittleEndian.PutUint32(data, 42)
	message, err := CompileVaultTransactionMessage(keys[0], []solana.Instruction{
		solana.NewInstruction(keys[1], data, solana.NewAccountMeta(keys[0], true)),
	})
	require.NoError(t, err)

	encoded, err := message.MarshalTransactionMessage()
	require.NoError(t, err)

	// 300 = 0x012c, little endian u16 length prefix
	offset := 3 + 1 + 2*32 + 1 + 1 + 1 + 1
	assert.Equal(t, []byte{0x2c, 0x01}, encoded[offset:offset+2])

	decoded, err := UnmarshalTransactionMessage(encoded)
	require.NoError(t, err)
	assert.Equal(t, data, decoded.Instructions[0].Data)
}

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)

	for i := 0; i < amount; i++ {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = pub
	}

	return keys
}
