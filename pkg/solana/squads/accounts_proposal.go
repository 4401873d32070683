package squads

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

const (
	// Size of a proposal with an Executing status and no votes
	ProposalAccountMinSize = (8 + // discriminator
		32 + // multisig
		8 + // transaction_index
		1 + // status
		1 + // bump
		4 + // approved length
		4 + // rejected length
		4) // cancelled length
)

var ProposalAccountDiscriminator = []byte{0x1a, 0x5e, 0xbd, 0xbb, 0x74, 0x88, 0x35, 0x21}

type ProposalAccount struct {
	Multisig         ed25519.PublicKey
	TransactionIndex uint64
	Status           ProposalStatus
	Bump             uint8
	Approved         []ed25519.PublicKey
	Rejected         []ed25519.PublicKey
	Cancelled        []ed25519.PublicKey
}

func (obj *ProposalAccount) Unmarshal(data []byte) error {
	if len(data) < ProposalAccountMinSize {
		return ErrInvalidAccountData
	}

	var offset int

	var discriminator []byte
	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, ProposalAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	getKey(data, &obj.Multisig, &offset)
	getUint64(data, &obj.TransactionIndex, &offset)
	if err := getProposalStatus(data, &obj.Status, &offset); err != nil {
		return ErrInvalidAccountData
	}
	if !hasRemaining(data, offset, 1) {
		return ErrInvalidAccountData
	}
	getUint8(data, &obj.Bump, &offset)
	for _, votes := range []*[]ed25519.PublicKey{&obj.Approved, &obj.Rejected, &obj.Cancelled} {
		if err := getKeys(data, votes, &offset); err != nil {
			return ErrInvalidAccountData
		}
	}

	return nil
}

func (obj *ProposalAccount) Marshal() []byte {
	data := make([]byte, ProposalAccountMinSize-1+
		proposalStatusSize(obj.Status)+
		(len(obj.Approved)+len(obj.Rejected)+len(obj.Cancelled))*ed25519.PublicKeySize)

	var offset int
	putDiscriminator(data, ProposalAccountDiscriminator, &offset)
	putKey(data, obj.Multisig, &offset)
	putUint64(data, obj.TransactionIndex, &offset)
	putProposalStatus(data, obj.Status, &offset)
	putUint8(data, obj.Bump, &offset)
	putKeys(data, obj.Approved, &offset)
	putKeys(data, obj.Rejected, &offset)
	putKeys(data, obj.Cancelled, &offset)

	return data
}

func (obj *ProposalAccount) String() string {
	return fmt.Sprintf(
		"ProposalAccount{multisig=%s,transaction_index=%d,status=%s,bump=%d,approved=[%s],rejected=[%s],cancelled=[%s]}",
		base58.Encode(obj.Multisig),
		obj.TransactionIndex,
		obj.Status.String(),
		obj.Bump,
		encodeKeys(obj.Approved),
		encodeKeys(obj.Rejected),
		encodeKeys(obj.Cancelled),
	)
}

func putKeys(dst []byte, v []ed25519.PublicKey, offset *int) {
	putUint32(dst, uint32(len(v)), offset)
	for _, key := range v {
		putKey(dst, key, offset)
	}
}
func getKeys(src []byte, dst *[]ed25519.PublicKey, offset *int) error {
	if !hasRemaining(src, *offset, 4) {
		return errUnexpectedEnd
	}

	var length uint32
	getUint32(src, &length, offset)
	if !hasRemaining(src, *offset, int(length)*ed25519.PublicKeySize) {
		return errUnexpectedEnd
	}

	*dst = nil
	for i := 0; i < int(length); i++ {
		var key ed25519.PublicKey
		getKey(src, &key, offset)
		*dst = append(*dst, key)
	}
	return nil
}

func encodeKeys(keys []ed25519.PublicKey) string {
	encoded := make([]string, len(keys))
	for i, key := range keys {
		encoded[i] = base58.Encode(key)
	}
	return strings.Join(encoded, ",")
}
