package squads

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

const (
	VaultTransactionAccountMinSize = (8 + // discriminator
		32 + // multisig
		32 + // creator
		8 + // index
		1 + // bump
		1 + // vault_index
		1 + // vault_bump
		4) // ephemeral_signer_bumps length
)

var VaultTransactionAccountDiscriminator = []byte{0xa8, 0xfa, 0xa2, 0x64, 0x51, 0x0e, 0xa2, 0xcf}

type VaultTransactionAccount struct {
	Multisig             ed25519.PublicKey
	Creator              ed25519.PublicKey
	Index                uint64
	Bump                 uint8
	VaultIndex           uint8
	VaultBump            uint8
	EphemeralSignerBumps []byte
	Message              VaultTransactionMessage
}

func (obj *VaultTransactionAccount) Unmarshal(data []byte) error {
	if len(data) < VaultTransactionAccountMinSize {
		return ErrInvalidAccountData
	}

	var offset int

	var discriminator []byte
	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, VaultTransactionAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	getKey(data, &obj.Multisig, &offset)
	getKey(data, &obj.Creator, &offset)
	getUint64(data, &obj.Index, &offset)
	getUint8(data, &obj.Bump, &offset)
	getUint8(data, &obj.VaultIndex, &offset)
	getUint8(data, &obj.VaultBump, &offset)
	if err := getBytes(data, &obj.EphemeralSignerBumps, &offset); err != nil {
		return ErrInvalidAccountData
	}
	if err := getVaultTransactionMessage(data, &obj.Message, &offset); err != nil {
		return ErrInvalidAccountData
	}

	return nil
}

func (obj *VaultTransactionAccount) Marshal() []byte {
	data := make([]byte, VaultTransactionAccountMinSize+
		len(obj.EphemeralSignerBumps)+
		vaultTransactionMessageSize(&obj.Message))

	var offset int
	putDiscriminator(data, VaultTransactionAccountDiscriminator, &offset)
	putKey(data, obj.Multisig, &offset)
	putKey(data, obj.Creator, &offset)
	putUint64(data, obj.Index, &offset)
	putUint8(data, obj.Bump, &offset)
	putUint8(data, obj.VaultIndex, &offset)
	putUint8(data, obj.VaultBump, &offset)
	putBytes(data, obj.EphemeralSignerBumps, &offset)
	putVaultTransactionMessage(data, &obj.Message, &offset)

	return data
}

func (obj *VaultTransactionAccount) String() string {
	return fmt.Sprintf(
		"VaultTransactionAccount{multisig=%s,creator=%s,index=%d,bump=%d,vault_index=%d,vault_bump=%d,message=%s}",
		base58.Encode(obj.Multisig),
		base58.Encode(obj.Creator),
		obj.Index,
		obj.Bump,
		obj.VaultIndex,
		obj.VaultBump,
		obj.Message.String(),
	)
}
