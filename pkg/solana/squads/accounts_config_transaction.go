package squads

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

const (
	ConfigTransactionAccountMinSize = (8 + // discriminator
		32 + // multisig
		32 + // creator
		8 + // index
		1 + // bump
		4) // actions length
)

var ConfigTransactionAccountDiscriminator = []byte{0x5e, 0x08, 0x04, 0x23, 0x71, 0x8b, 0x8b, 0x70}

type ConfigTransactionAccount struct {
	Multisig ed25519.PublicKey
	Creator  ed25519.PublicKey
	Index    uint64
	Bump     uint8
	Actions  []ConfigAction
}

func (obj *ConfigTransactionAccount) Unmarshal(data []byte) error {
	if len(data) < ConfigTransactionAccountMinSize {
		return ErrInvalidAccountData
	}

	var offset int

	var discriminator []byte
	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, ConfigTransactionAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	getKey(data, &obj.Multisig, &offset)
	getKey(data, &obj.Creator, &offset)
	getUint64(data, &obj.Index, &offset)
	getUint8(data, &obj.Bump, &offset)
	if err := getConfigActions(data, &obj.Actions, &offset); err != nil {
		return ErrInvalidAccountData
	}

	return nil
}

func (obj *ConfigTransactionAccount) Marshal() ([]byte, error) {
	actionsSize, err := configActionsSize(obj.Actions)
	if err != nil {
		return nil, err
	}

	data := make([]byte, ConfigTransactionAccountMinSize-4+actionsSize)

	var offset int
	putDiscriminator(data, ConfigTransactionAccountDiscriminator, &offset)
	putKey(data, obj.Multisig, &offset)
	putKey(data, obj.Creator, &offset)
	putUint64(data, obj.Index, &offset)
	putUint8(data, obj.Bump, &offset)
	putConfigActions(data, obj.Actions, &offset)

	return data, nil
}

func (obj *ConfigTransactionAccount) String() string {
	actions := make([]string, len(obj.Actions))
	for i := range obj.Actions {
		actions[i] = obj.Actions[i].String()
	}

	return fmt.Sprintf(
		"ConfigTransactionAccount{multisig=%s,creator=%s,index=%d,bump=%d,actions=[%s]}",
		base58.Encode(obj.Multisig),
		base58.Encode(obj.Creator),
		obj.Index,
		obj.Bump,
		strings.Join(actions, ","),
	)
}
