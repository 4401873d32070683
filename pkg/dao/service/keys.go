package service

import (
	"bytes"
	"crypto/ed25519"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// ParsePrivateKey parses a 64 byte ed25519 private key, encoded either as a
// comma separated list of byte values or as base58.
func ParsePrivateKey(value string) (ed25519.PrivateKey, error) {
	value = strings.TrimSpace(value)
	if len(value) == 0 {
		return nil, errors.New("private key is empty")
	}

	var raw []byte
	if strings.Contains(value, ",") {
		parts := strings.Split(value, ",")
		raw = make([]byte, len(parts))
		for i, part := range parts {
			b, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid private key byte at position %d", i)
			}
			raw[i] = byte(b)
		}
	} else {
		decoded, err := base58.Decode(value)
		if err != nil {
			return nil, errors.Wrap(err, "invalid base58 private key")
		}
		raw = decoded
	}

	if len(raw) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("invalid private key length: %d", len(raw))
	}

	key := ed25519.PrivateKey(raw)
	derived := ed25519.NewKeyFromSeed(key.Seed())
	if !bytes.Equal(derived[ed25519.SeedSize:], raw[ed25519.SeedSize:]) {
		return nil, errors.New("private key does not match its public key")
	}
	return key, nil
}

// ParsePrivateKeys parses a semicolon separated list of private keys.
func ParsePrivateKeys(value string) ([]ed25519.PrivateKey, error) {
	var keys []ed25519.PrivateKey
	for _, part := range strings.Split(value, ";") {
		if len(strings.TrimSpace(part)) == 0 {
			continue
		}

		key, err := ParsePrivateKey(part)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// ParsePublicKey parses a base58 encoded account address.
func ParsePublicKey(value string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(strings.TrimSpace(value))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid address %q", value)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid address %q: length %d", value, len(decoded))
	}
	return decoded, nil
}

// keyring holds the private keys the service can sign with, indexed by
// public key.
type keyring struct {
	keys map[string]ed25519.PrivateKey
}

func newKeyring(keys ...ed25519.PrivateKey) *keyring {
	k := &keyring{
		keys: make(map[string]ed25519.PrivateKey, len(keys)),
	}
	for _, key := range keys {
		k.keys[string(key.Public().(ed25519.PublicKey))] = key
	}
	return k
}

func (k *keyring) get(account ed25519.PublicKey) (ed25519.PrivateKey, bool) {
	key, ok := k.keys[string(account)]
	return key, ok
}
