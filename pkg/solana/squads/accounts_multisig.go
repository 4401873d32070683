package squads

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

const (
	// Size without the variable length rent collector and members
	MultisigAccountMinSize = (8 + // discriminator
		32 + // create_key
		32 + // config_authority
		2 + // threshold
		4 + // time_lock
		8 + // transaction_index
		8 + // stale_transaction_index
		1 + // rent_collector option tag
		1 + // bump
		4) // members length
)

var MultisigAccountDiscriminator = []byte{0xe0, 0x74, 0x79, 0xba, 0x44, 0xa1, 0x4f, 0xec}

type MultisigAccount struct {
	CreateKey             ed25519.PublicKey
	ConfigAuthority       ed25519.PublicKey
	Threshold             uint16
	TimeLock              uint32
	TransactionIndex      uint64
	StaleTransactionIndex uint64
	RentCollector         ed25519.PublicKey
	Bump                  uint8
	Members               []Member
}

func (obj *MultisigAccount) Unmarshal(data []byte) error {
	if len(data) < MultisigAccountMinSize {
		return ErrInvalidAccountData
	}

	var offset int

	var discriminator []byte
	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, MultisigAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	getKey(data, &obj.CreateKey, &offset)
	getKey(data, &obj.ConfigAuthority, &offset)
	getUint16(data, &obj.Threshold, &offset)
	getUint32(data, &obj.TimeLock, &offset)
	getUint64(data, &obj.TransactionIndex, &offset)
	getUint64(data, &obj.StaleTransactionIndex, &offset)
	if err := getOptionalKey(data, &obj.RentCollector, &offset); err != nil {
		return ErrInvalidAccountData
	}
	if !hasRemaining(data, offset, 1) {
		return ErrInvalidAccountData
	}
	getUint8(data, &obj.Bump, &offset)
	if err := getMembers(data, &obj.Members, &offset); err != nil {
		return ErrInvalidAccountData
	}

	return nil
}

func (obj *MultisigAccount) Marshal() []byte {
	data := make([]byte, MultisigAccountMinSize-1+optionalKeySize(obj.RentCollector)+len(obj.Members)*MemberSize)

	var offset int
	putDiscriminator(data, MultisigAccountDiscriminator, &offset)
	putKey(data, obj.CreateKey, &offset)
	putKey(data, obj.ConfigAuthority, &offset)
	putUint16(data, obj.Threshold, &offset)
	putUint32(data, obj.TimeLock, &offset)
	putUint64(data, obj.TransactionIndex, &offset)
	putUint64(data, obj.StaleTransactionIndex, &offset)
	putOptionalKey(data, obj.RentCollector, &offset)
	putUint8(data, obj.Bump, &offset)
	putMembers(data, obj.Members, &offset)

	return data
}

// MemberIndex returns the index of key in the member list, or -1.
func (obj *MultisigAccount) MemberIndex(key ed25519.PublicKey) int {
	return FindMember(obj.Members, key)
}

func (obj *MultisigAccount) IsMember(key ed25519.PublicKey) bool {
	return obj.MemberIndex(key) >= 0
}

// HasPermission reports whether key is a member holding permission.
func (obj *MultisigAccount) HasPermission(key ed25519.PublicKey, permission Permission) bool {
	i := obj.MemberIndex(key)
	return i >= 0 && obj.Members[i].Permissions.Has(permission)
}

// CountWithPermission returns how many members hold permission.
func (obj *MultisigAccount) CountWithPermission(permission Permission) int {
	var count int
	for _, member := range obj.Members {
		if member.Permissions.Has(permission) {
			count++
		}
	}
	return count
}

func (obj *MultisigAccount) String() string {
	members := make([]string, len(obj.Members))
	for i := range obj.Members {
		members[i] = obj.Members[i].String()
	}

	rentCollector := "<nil>"
	if obj.RentCollector != nil {
		rentCollector = base58.Encode(obj.RentCollector)
	}

	return fmt.Sprintf(
		"MultisigAccount{create_key=%s,config_authority=%s,threshold=%d,time_lock=%d,transaction_index=%d,stale_transaction_index=%d,rent_collector=%s,bump=%d,members=[%s]}",
		base58.Encode(obj.CreateKey),
		base58.Encode(obj.ConfigAuthority),
		obj.Threshold,
		obj.TimeLock,
		obj.TransactionIndex,
		obj.StaleTransactionIndex,
		rentCollector,
		obj.Bump,
		strings.Join(members, ","),
	)
}
