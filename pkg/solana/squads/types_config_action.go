package squads

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

type ConfigActionKind uint8

const (
	ConfigActionAddMember ConfigActionKind = iota
	ConfigActionRemoveMember
	ConfigActionChangeThreshold
	ConfigActionSetTimeLock
	ConfigActionAddSpendingLimit
	ConfigActionRemoveSpendingLimit
	ConfigActionSetRentCollector
)

func (k ConfigActionKind) String() string {
	switch k {
	case ConfigActionAddMember:
		return "AddMember"
	case ConfigActionRemoveMember:
		return "RemoveMember"
	case ConfigActionChangeThreshold:
		return "ChangeThreshold"
	case ConfigActionSetTimeLock:
		return "SetTimeLock"
	case ConfigActionAddSpendingLimit:
		return "AddSpendingLimit"
	case ConfigActionRemoveSpendingLimit:
		return "RemoveSpendingLimit"
	case ConfigActionSetRentCollector:
		return "SetRentCollector"
	}
	return fmt.Sprintf("Unknown(%d)", uint8(k))
}

// ConfigAction is a single multisig configuration change. Only the fields
// relevant to Kind are encoded. Spending limit creation isn't supported.
type ConfigAction struct {
	Kind ConfigActionKind

	NewMember        Member            // AddMember
	OldMember        ed25519.PublicKey // RemoveMember
	NewThreshold     uint16            // ChangeThreshold
	NewTimeLock      uint32            // SetTimeLock
	SpendingLimit    ed25519.PublicKey // RemoveSpendingLimit
	NewRentCollector ed25519.PublicKey // SetRentCollector, nil clears it
}

func NewAddMemberAction(member Member) ConfigAction {
	return ConfigAction{Kind: ConfigActionAddMember, NewMember: member}
}

func NewRemoveMemberAction(member ed25519.PublicKey) ConfigAction {
	return ConfigAction{Kind: ConfigActionRemoveMember, OldMember: member}
}

func NewChangeThresholdAction(threshold uint16) ConfigAction {
	return ConfigAction{Kind: ConfigActionChangeThreshold, NewThreshold: threshold}
}

func NewSetTimeLockAction(timeLock uint32) ConfigAction {
	return ConfigAction{Kind: ConfigActionSetTimeLock, NewTimeLock: timeLock}
}

func NewRemoveSpendingLimitAction(spendingLimit ed25519.PublicKey) ConfigAction {
	return ConfigAction{Kind: ConfigActionRemoveSpendingLimit, SpendingLimit: spendingLimit}
}

func NewSetRentCollectorAction(rentCollector ed25519.PublicKey) ConfigAction {
	return ConfigAction{Kind: ConfigActionSetRentCollector, NewRentCollector: rentCollector}
}

func (a *ConfigAction) String() string {
	switch a.Kind {
	case ConfigActionAddMember:
		return fmt.Sprintf("AddMember{new_member=%s}", a.NewMember.String())
	case ConfigActionRemoveMember:
		return fmt.Sprintf("RemoveMember{old_member=%s}", base58.Encode(a.OldMember))
	case ConfigActionChangeThreshold:
		return fmt.Sprintf("ChangeThreshold{new_threshold=%d}", a.NewThreshold)
	case ConfigActionSetTimeLock:
		return fmt.Sprintf("SetTimeLock{new_time_lock=%d}", a.NewTimeLock)
	case ConfigActionRemoveSpendingLimit:
		return fmt.Sprintf("RemoveSpendingLimit{spending_limit=%s}", base58.Encode(a.SpendingLimit))
	case ConfigActionSetRentCollector:
		if a.NewRentCollector == nil {
			return "SetRentCollector{new_rent_collector=<nil>}"
		}
		return fmt.Sprintf("SetRentCollector{new_rent_collector=%s}", base58.Encode(a.NewRentCollector))
	}
	return a.Kind.String()
}

func configActionSize(v ConfigAction) (int, error) {
	switch v.Kind {
	case ConfigActionAddMember:
		return 1 + MemberSize, nil
	case ConfigActionRemoveMember, ConfigActionRemoveSpendingLimit:
		return 1 + ed25519.PublicKeySize, nil
	case ConfigActionChangeThreshold:
		return 1 + 2, nil
	case ConfigActionSetTimeLock:
		return 1 + 4, nil
	case ConfigActionSetRentCollector:
		return 1 + optionalKeySize(v.NewRentCollector), nil
	}
	return 0, ErrUnsupportedConfigAction
}

func configActionsSize(v []ConfigAction) (int, error) {
	size := 4
	for _, action := range v {
		actionSize, err := configActionSize(action)
		if err != nil {
			return 0, err
		}
		size += actionSize
	}
	return size, nil
}

func putConfigAction(dst []byte, v ConfigAction, offset *int) {
	putUint8(dst, uint8(v.Kind), offset)

	switch v.Kind {
	case ConfigActionAddMember:
		putMember(dst, v.NewMember, offset)
	case ConfigActionRemoveMember:
		putKey(dst, v.OldMember, offset)
	case ConfigActionChangeThreshold:
		putUint16(dst, v.NewThreshold, offset)
	case ConfigActionSetTimeLock:
		putUint32(dst, v.NewTimeLock, offset)
	case ConfigActionRemoveSpendingLimit:
		putKey(dst, v.SpendingLimit, offset)
	case ConfigActionSetRentCollector:
		putOptionalKey(dst, v.NewRentCollector, offset)
	}
}
func getConfigAction(src []byte, dst *ConfigAction, offset *int) error {
	if !hasRemaining(src, *offset, 1) {
		return errUnexpectedEnd
	}

	var kind uint8
	getUint8(src, &kind, offset)
	*dst = ConfigAction{Kind: ConfigActionKind(kind)}

	size, err := configActionSize(*dst)
	if err != nil {
		return err
	}

	// SetRentCollector has a variable size, so only the tag is checked here
	if dst.Kind == ConfigActionSetRentCollector {
		return getOptionalKey(src, &dst.NewRentCollector, offset)
	}
	if !hasRemaining(src, *offset, size-1) {
		return errUnexpectedEnd
	}

	switch dst.Kind {
	case ConfigActionAddMember:
		getMember(src, &dst.NewMember, offset)
	case ConfigActionRemoveMember:
		getKey(src, &dst.OldMember, offset)
	case ConfigActionChangeThreshold:
		getUint16(src, &dst.NewThreshold, offset)
	case ConfigActionSetTimeLock:
		getUint32(src, &dst.NewTimeLock, offset)
	case ConfigActionRemoveSpendingLimit:
		getKey(src, &dst.SpendingLimit, offset)
	}
	return nil
}

func putConfigActions(dst []byte, v []ConfigAction, offset *int) {
	putUint32(dst, uint32(len(v)), offset)
	for _, action := range v {
		putConfigAction(dst, action, offset)
	}
}
func getConfigActions(src []byte, dst *[]ConfigAction, offset *int) error {
	if !hasRemaining(src, *offset, 4) {
		return errUnexpectedEnd
	}

	var length uint32
	getUint32(src, &length, offset)

	// Every action is at least its tag
	if !hasRemaining(src, *offset, int(length)) {
		return errUnexpectedEnd
	}

	*dst = make([]ConfigAction, length)
	for i := range *dst {
		if err := getConfigAction(src, &(*dst)[i], offset); err != nil {
			return err
		}
	}
	return nil
}
