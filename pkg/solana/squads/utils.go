package squads

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"errors"

	"github.com/mr-tron/base58"
)

var errUnexpectedEnd = errors.New("unexpected end of data")

// Borsh helpers. Getters assume the caller has checked the buffer holds
// enough bytes via hasRemaining.

func hasRemaining(src []byte, offset, n int) bool {
	return n >= 0 && offset >= 0 && offset+n <= len(src)
}

func putDiscriminator(dst []byte, v []byte, offset *int) {
	copy(dst[*offset:], v)
	*offset += 8
}
func getDiscriminator(src []byte, dst *[]byte, offset *int) {
	*dst = make([]byte, 8)
	copy(*dst, src[*offset:])
	*offset += 8
}

func getInstructionDiscriminator(src []byte, expected []byte, offset *int) error {
	if !hasRemaining(src, *offset, 8) {
		return ErrInvalidInstructionData
	}

	var discriminator []byte
	getDiscriminator(src, &discriminator, offset)
	if !bytes.Equal(discriminator, expected) {
		return ErrInvalidInstructionData
	}
	return nil
}

func getOptionalAccountMetaAddress(account *ed25519.PublicKey) ed25519.PublicKey {
	if account != nil {
		return *account
	}
	return PROGRAM_ID
}

func putKey(dst []byte, v ed25519.PublicKey, offset *int) {
	copy(dst[*offset:], v)
	*offset += ed25519.PublicKeySize
}
func getKey(src []byte, dst *ed25519.PublicKey, offset *int) {
	*dst = make([]byte, ed25519.PublicKeySize)
	copy(*dst, src[*offset:])
	*offset += ed25519.PublicKeySize
}

func putOptionalKey(dst []byte, v ed25519.PublicKey, offset *int) {
	if v == nil {
		putUint8(dst, 0, offset)
		return
	}
	putUint8(dst, 1, offset)
	putKey(dst, v, offset)
}
func getOptionalKey(src []byte, dst *ed25519.PublicKey, offset *int) error {
	if !hasRemaining(src, *offset, 1) {
		return errUnexpectedEnd
	}

	var isSome bool
	getBool(src, &isSome, offset)
	if !isSome {
		*dst = nil
		return nil
	}

	if !hasRemaining(src, *offset, ed25519.PublicKeySize) {
		return errUnexpectedEnd
	}
	getKey(src, dst, offset)
	return nil
}
func optionalKeySize(v ed25519.PublicKey) int {
	if v == nil {
		return 1
	}
	return 1 + ed25519.PublicKeySize
}

func putBool(dst []byte, v bool, offset *int) {
	if v {
		dst[*offset] = 1
	} else {
		dst[*offset] = 0
	}
	*offset += 1
}
func getBool(src []byte, dst *bool, offset *int) {
	if src[*offset] == 1 {
		*dst = true
	} else {
		*dst = false
	}
	*offset += 1
}

func putOptionalString(dst []byte, v *string, offset *int) {
	if v == nil {
		putUint8(dst, 0, offset)
		return
	}
	putUint8(dst, 1, offset)
	putString(dst, *v, offset)
}
func getOptionalString(src []byte, dst **string, offset *int) error {
	if !hasRemaining(src, *offset, 1) {
		return errUnexpectedEnd
	}

	var isSome bool
	getBool(src, &isSome, offset)
	if !isSome {
		*dst = nil
		return nil
	}

	var value string
	if err := getString(src, &value, offset); err != nil {
		return err
	}
	*dst = &value
	return nil
}
func optionalStringSize(v *string) int {
	if v == nil {
		return 1
	}
	return 1 + 4 + len(*v)
}

func putString(dst []byte, src string, offset *int) {
	putUint32(dst, uint32(len(src)), offset)
	copy(dst[*offset:], src)
	*offset += len(src)
}
func getString(src []byte, dst *string, offset *int) error {
	var raw []byte
	if err := getBytes(src, &raw, offset); err != nil {
		return err
	}
	*dst = string(raw)
	return nil
}

func putBytes(dst []byte, v []byte, offset *int) {
	putUint32(dst, uint32(len(v)), offset)
	copy(dst[*offset:], v)
	*offset += len(v)
}
func getBytes(src []byte, dst *[]byte, offset *int) error {
	if !hasRemaining(src, *offset, 4) {
		return errUnexpectedEnd
	}

	var length uint32
	getUint32(src, &length, offset)
	if !hasRemaining(src, *offset, int(length)) {
		return errUnexpectedEnd
	}

	*dst = make([]byte, length)
	copy(*dst, src[*offset:])
	*offset += int(length)
	return nil
}

func putUint8(dst []byte, v uint8, offset *int) {
	dst[*offset] = v
	*offset += 1
}
func getUint8(src []byte, dst *uint8, offset *int) {
	*dst = src[*offset]
	*offset += 1
}

func putUint16(dst []byte, v uint16, offset *int) {
	binary.LittleEndian.PutUint16(dst[*offset:], v)
	*offset += 2
}
func getUint16(src []byte, dst *uint16, offset *int) {
	*dst = binary.LittleEndian.Uint16(src[*offset:])
	*offset += 2
}

func putUint32(dst []byte, v uint32, offset *int) {
	binary.LittleEndian.PutUint32(dst[*offset:], v)
	*offset += 4
}
func getUint32(src []byte, dst *uint32, offset *int) {
	*dst = binary.LittleEndian.Uint32(src[*offset:])
	*offset += 4
}

func putUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst[*offset:], v)
	*offset += 8
}
func getUint64(src []byte, dst *uint64, offset *int) {
	*dst = binary.LittleEndian.Uint64(src[*offset:])
	*offset += 8
}

func putInt64(dst []byte, v int64, offset *int) {
	putUint64(dst, uint64(v), offset)
}
func getInt64(src []byte, dst *int64, offset *int) {
	var v uint64
	getUint64(src, &v, offset)
	*dst = int64(v)
}

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
