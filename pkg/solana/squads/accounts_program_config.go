package squads

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

const (
	ProgramConfigAccountSize = (8 + // discriminator
		32 + // authority
		8 + // multisig_creation_fee
		32 + // treasury
		64) // reserved
)

var ProgramConfigAccountDiscriminator = []byte{0xc4, 0xd2, 0x5a, 0xe7, 0x90, 0x95, 0x8c, 0x3f}

// ProgramConfigAccount is the global program configuration. Its treasury
// receives multisig creation fees.
type ProgramConfigAccount struct {
	Authority           ed25519.PublicKey
	MultisigCreationFee uint64
	Treasury            ed25519.PublicKey
}

func (obj *ProgramConfigAccount) Unmarshal(data []byte) error {
	if len(data) < ProgramConfigAccountSize {
		return ErrInvalidAccountData
	}

	var offset int

	var discriminator []byte
	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, ProgramConfigAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	getKey(data, &obj.Authority, &offset)
	getUint64(data, &obj.MultisigCreationFee, &offset)
	getKey(data, &obj.Treasury, &offset)
	offset += 64 // reserved

	return nil
}

func (obj *ProgramConfigAccount) Marshal() []byte {
	data := make([]byte, ProgramConfigAccountSize)

	var offset int
	putDiscriminator(data, ProgramConfigAccountDiscriminator, &offset)
	putKey(data, obj.Authority, &offset)
	putUint64(data, obj.MultisigCreationFee, &offset)
	putKey(data, obj.Treasury, &offset)

	return data
}

func (obj *ProgramConfigAccount) String() string {
	return fmt.Sprintf(
		"ProgramConfigAccount{authority=%s,multisig_creation_fee=%d,treasury=%s}",
		base58.Encode(obj.Authority),
		obj.MultisigCreationFee,
		base58.Encode(obj.Treasury),
	)
}
