package squads

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

const MemberSize = (32 + // key
	1) // permissions mask

type Permission uint8

const (
	PermissionInitiate Permission = 1 << iota
	PermissionVote
	PermissionExecute
)

// Permissions is the bitmask of actions a member may take.
type Permissions struct {
	Mask uint8
}

var PermissionsAll = NewPermissions(PermissionInitiate, PermissionVote, PermissionExecute)

func NewPermissions(permissions ...Permission) Permissions {
	var mask uint8
	for _, p := range permissions {
		mask |= uint8(p)
	}
	return Permissions{Mask: mask}
}

func (p Permissions) Has(permission Permission) bool {
	return p.Mask&uint8(permission) == uint8(permission)
}

func (p Permissions) String() string {
	var names []string
	if p.Has(PermissionInitiate) {
		names = append(names, "initiate")
	}
	if p.Has(PermissionVote) {
		names = append(names, "vote")
	}
	if p.Has(PermissionExecute) {
		names = append(names, "execute")
	}
	return "[" + strings.Join(names, ",") + "]"
}

type Member struct {
	Key         ed25519.PublicKey
	Permissions Permissions
}

func (m *Member) String() string {
	return fmt.Sprintf("Member{key=%s,permissions=%s}", base58.Encode(m.Key), m.Permissions.String())
}

func putMember(dst []byte, v Member, offset *int) {
	putKey(dst, v.Key, offset)
	putUint8(dst, v.Permissions.Mask, offset)
}
func getMember(src []byte, dst *Member, offset *int) {
	getKey(src, &dst.Key, offset)
	getUint8(src, &dst.Permissions.Mask, offset)
}

func putMembers(dst []byte, v []Member, offset *int) {
	putUint32(dst, uint32(len(v)), offset)
	for _, member := range v {
		putMember(dst, member, offset)
	}
}
func getMembers(src []byte, dst *[]Member, offset *int) error {
	if !hasRemaining(src, *offset, 4) {
		return errUnexpectedEnd
	}

	var length uint32
	getUint32(src, &length, offset)
	if !hasRemaining(src, *offset, int(length)*MemberSize) {
		return errUnexpectedEnd
	}

	*dst = make([]Member, length)
	for i := range *dst {
		getMember(src, &(*dst)[i], offset)
	}
	return nil
}

// FindMember returns the index of key within members, or -1.
func FindMember(members []Member, key ed25519.PublicKey) int {
	for i, member := range members {
		if bytes.Equal(member.Key, key) {
			return i
		}
	}
	return -1
}
