package squads

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/dao-treasury/dao-server/pkg/solana"
)

type MessageCompiledInstruction struct {
	ProgramIDIndex uint8
	AccountIndexes []uint8
	Data           []byte
}

type MessageAddressTableLookup struct {
	AccountKey      ed25519.PublicKey
	WritableIndexes []uint8
	ReadonlyIndexes []uint8
}

// VaultTransactionMessage is the message a vault signs for when a vault
// transaction executes. Account keys are ordered writable signers, readonly
// signers, writable non-signers and then readonly non-signers.
//
// It has two encodings. The instruction argument passed to
// vault_transaction_create uses compact u8/u16 length prefixes, while the
// copy stored in the VaultTransaction account uses regular Borsh vectors.
type VaultTransactionMessage struct {
	NumSigners            uint8
	NumWritableSigners    uint8
	NumWritableNonSigners uint8
	AccountKeys           []ed25519.PublicKey
	Instructions          []MessageCompiledInstruction
	AddressTableLookups   []MessageAddressTableLookup
}

type compiledKeyMeta struct {
	key        ed25519.PublicKey
	isSigner   bool
	isWritable bool
}

// CompileVaultTransactionMessage compiles instructions into a message with
// vault as the payer. Compiling the same instructions always yields the same
// message, which vault_transaction_execute relies on.
func CompileVaultTransactionMessage(vault ed25519.PublicKey, instructions []solana.Instruction) (*VaultTransactionMessage, error) {
	if len(vault) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid vault key length: %d", len(vault))
	}
	if len(instructions) > math.MaxUint8 {
		return nil, errors.Errorf("too many instructions: %d", len(instructions))
	}

	metas := []*compiledKeyMeta{{key: vault, isSigner: true, isWritable: true}}
	upsert := func(key ed25519.PublicKey) (*compiledKeyMeta, error) {
		if len(key) != ed25519.PublicKeySize {
			return nil, errors.Errorf("invalid account key length: %d", len(key))
		}
		for _, meta := range metas {
			if bytes.Equal(meta.key, key) {
				return meta, nil
			}
		}
		meta := &compiledKeyMeta{key: key}
		metas = append(metas, meta)
		return meta, nil
	}

	for _, ix := range instructions {
		if _, err := upsert(ix.Program); err != nil {
			return nil, err
		}

		for _, account := range ix.Accounts {
			meta, err := upsert(account.PublicKey)
			if err != nil {
				return nil, err
			}
			meta.isSigner = meta.isSigner || account.IsSigner
			meta.isWritable = meta.isWritable || account.IsWritable
		}
	}

	if len(metas) > math.MaxUint8 {
		return nil, errors.Errorf("too many account keys: %d", len(metas))
	}

	payer, others := metas[0], metas[1:]
	sort.Slice(others, func(i, j int) bool {
		return bytes.Compare(others[i].key, others[j].key) < 0
	})

	var writableSigners, readonlySigners, writableNonSigners, readonlyNonSigners []ed25519.PublicKey
	writableSigners = append(writableSigners, payer.key)
	for _, meta := range others {
		switch {
		case meta.isSigner && meta.isWritable:
			writableSigners = append(writableSigners, meta.key)
		case meta.isSigner:
			readonlySigners = append(readonlySigners, meta.key)
		case meta.isWritable:
			writableNonSigners = append(writableNonSigners, meta.key)
		default:
			readonlyNonSigners = append(readonlyNonSigners, meta.key)
		}
	}

	m := &VaultTransactionMessage{
		NumSigners:            uint8(len(writableSigners) + len(readonlySigners)),
		NumWritableSigners:    uint8(len(writableSigners)),
		NumWritableNonSigners: uint8(len(writableNonSigners)),
	}
	m.AccountKeys = append(m.AccountKeys, writableSigners...)
	m.AccountKeys = append(m.AccountKeys, readonlySigners...)
	m.AccountKeys = append(m.AccountKeys, writableNonSigners...)
	m.AccountKeys = append(m.AccountKeys, readonlyNonSigners...)

	for _, ix := range instructions {
		if len(ix.Accounts) > math.MaxUint8 {
			return nil, errors.Errorf("too many instruction accounts: %d", len(ix.Accounts))
		}
		if len(ix.Data) > math.MaxUint16 {
			return nil, errors.Errorf("instruction data too large: %d", len(ix.Data))
		}

		compiled := MessageCompiledInstruction{
			ProgramIDIndex: uint8(m.indexOf(ix.Program)),
			AccountIndexes: make([]uint8, len(ix.Accounts)),
			Data:           append([]byte{}, ix.Data...),
		}
		for i, account := range ix.Accounts {
			compiled.AccountIndexes[i] = uint8(m.indexOf(account.PublicKey))
		}
		m.Instructions = append(m.Instructions, compiled)
	}

	return m, nil
}

func (m *VaultTransactionMessage) indexOf(key ed25519.PublicKey) int {
	for i, candidate := range m.AccountKeys {
		if bytes.Equal(candidate, key) {
			return i
		}
	}
	return -1
}

func (m *VaultTransactionMessage) IsSignerIndex(index int) bool {
	return index >= 0 && index < int(m.NumSigners)
}

// IsStaticWritableIndex reports whether the static account key at index is
// writable. Keys loaded through address lookup tables aren't covered.
func (m *VaultTransactionMessage) IsStaticWritableIndex(index int) bool {
	if index < 0 || index >= len(m.AccountKeys) {
		return false
	}
	if index < int(m.NumWritableSigners) {
		return true
	}
	if index >= int(m.NumSigners) {
		return index-int(m.NumSigners) < int(m.NumWritableNonSigners)
	}
	return false
}

// DecompileInstructions resolves the compiled instructions against the
// static account keys.
func (m *VaultTransactionMessage) DecompileInstructions() ([]solana.Instruction, error) {
	if len(m.AddressTableLookups) > 0 {
		return nil, errors.New("address table lookups are not supported")
	}

	instructions := make([]solana.Instruction, len(m.Instructions))
	for i, compiled := range m.Instructions {
		if int(compiled.ProgramIDIndex) >= len(m.AccountKeys) {
			return nil, errors.Errorf("program index out of range: %d", compiled.ProgramIDIndex)
		}

		ix := solana.Instruction{
			Program: m.AccountKeys[compiled.ProgramIDIndex],
			Data:    compiled.Data,
		}
		for _, accountIndex := range compiled.AccountIndexes {
			if int(accountIndex) >= len(m.AccountKeys) {
				return nil, errors.Errorf("account index out of range: %d", accountIndex)
			}
			ix.Accounts = append(ix.Accounts, solana.AccountMeta{
				PublicKey:  m.AccountKeys[accountIndex],
				IsSigner:   m.IsSignerIndex(int(accountIndex)),
				IsWritable: m.IsStaticWritableIndex(int(accountIndex)),
			})
		}
		instructions[i] = ix
	}
	return instructions, nil
}

// MarshalTransactionMessage encodes the message using the compact layout
// expected by vault_transaction_create.
func (m *VaultTransactionMessage) MarshalTransactionMessage() ([]byte, error) {
	if len(m.AccountKeys) > math.MaxUint8 {
		return nil, errors.Errorf("too many account keys: %d", len(m.AccountKeys))
	}
	if len(m.Instructions) > math.MaxUint8 {
		return nil, errors.Errorf("too many instructions: %d", len(m.Instructions))
	}
	if len(m.AddressTableLookups) > math.MaxUint8 {
		return nil, errors.Errorf("too many address table lookups: %d", len(m.AddressTableLookups))
	}

	var buf bytes.Buffer
	buf.WriteByte(m.NumSigners)
	buf.WriteByte(m.NumWritableSigners)
	buf.WriteByte(m.NumWritableNonSigners)

	buf.WriteByte(uint8(len(m.AccountKeys)))
	for _, key := range m.AccountKeys {
		buf.Write(key)
	}

	buf.WriteByte(uint8(len(m.Instructions)))
	for _, ix := range m.Instructions {
		if len(ix.AccountIndexes) > math.MaxUint8 {
			return nil, errors.Errorf("too many instruction accounts: %d", len(ix.AccountIndexes))
		}
		if len(ix.Data) > math.MaxUint16 {
			return nil, errors.Errorf("instruction data too large: %d", len(ix.Data))
		}

		buf.WriteByte(ix.ProgramIDIndex)
		buf.WriteByte(uint8(len(ix.AccountIndexes)))
		buf.Write(ix.AccountIndexes)
		buf.WriteByte(uint8(len(ix.Data)))
		buf.WriteByte(uint8(len(ix.Data) >> 8))
		buf.Write(ix.Data)
	}

	buf.WriteByte(uint8(len(m.AddressTableLookups)))
	for _, lookup := range m.AddressTableLookups {
		if len(lookup.WritableIndexes) > math.MaxUint8 || len(lookup.ReadonlyIndexes) > math.MaxUint8 {
			return nil, errors.New("too many address table lookup indexes")
		}

		buf.Write(lookup.AccountKey)
		buf.WriteByte(uint8(len(lookup.WritableIndexes)))
		buf.Write(lookup.WritableIndexes)
		buf.WriteByte(uint8(len(lookup.ReadonlyIndexes)))
		buf.Write(lookup.ReadonlyIndexes)
	}

	return buf.Bytes(), nil
}

// UnmarshalTransactionMessage decodes the compact layout produced by
// MarshalTransactionMessage.
func UnmarshalTransactionMessage(data []byte) (*VaultTransactionMessage, error) {
	r := bytes.NewReader(data)
	readByte := func() (uint8, error) {
		b, err := r.ReadByte()
		if err != nil {
			return 0, errUnexpectedEnd
		}
		return b, nil
	}
	readBytes := func(n int) ([]byte, error) {
		if r.Len() < n {
			return nil, errUnexpectedEnd
		}
		b := make([]byte, n)
		_, _ = r.Read(b)
		return b, nil
	}

	var m VaultTransactionMessage
	header, err := readBytes(3)
	if err != nil {
		return nil, err
	}
	m.NumSigners, m.NumWritableSigners, m.NumWritableNonSigners = header[0], header[1], header[2]

	numKeys, err := readByte()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(numKeys); i++ {
		key, err := readBytes(ed25519.PublicKeySize)
		if err != nil {
			return nil, err
		}
		m.AccountKeys = append(m.AccountKeys, key)
	}

	numInstructions, err := readByte()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(numInstructions); i++ {
		var ix MessageCompiledInstruction
		if ix.ProgramIDIndex, err = readByte(); err != nil {
			return nil, err
		}

		numAccounts, err := readByte()
		if err != nil {
			return nil, err
		}
		if ix.AccountIndexes, err = readBytes(int(numAccounts)); err != nil {
			return nil, err
		}

		dataLen, err := readBytes(2)
		if err != nil {
			return nil, err
		}
		if ix.Data, err = readBytes(int(dataLen[0]) | int(dataLen[1])<<8); err != nil {
			return nil, err
		}
		m.Instructions = append(m.Instructions, ix)
	}

	numLookups, err := readByte()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(numLookups); i++ {
		var lookup MessageAddressTableLookup
		if lookup.AccountKey, err = readBytes(ed25519.PublicKeySize); err != nil {
			return nil, err
		}

		numWritable, err := readByte()
		if err != nil {
			return nil, err
		}
		if lookup.WritableIndexes, err = readBytes(int(numWritable)); err != nil {
			return nil, err
		}

		numReadonly, err := readByte()
		if err != nil {
			return nil, err
		}
		if lookup.ReadonlyIndexes, err = readBytes(int(numReadonly)); err != nil {
			return nil, err
		}
		m.AddressTableLookups = append(m.AddressTableLookups, lookup)
	}

	if r.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after transaction message", r.Len())
	}
	return &m, nil
}

func (m *VaultTransactionMessage) String() string {
	keys := make([]string, len(m.AccountKeys))
	for i, key := range m.AccountKeys {
		keys[i] = base58.Encode(key)
	}
	return fmt.Sprintf(
		"VaultTransactionMessage{num_signers=%d,num_writable_signers=%d,num_writable_non_signers=%d,account_keys=[%s],instructions=%d,address_table_lookups=%d}",
		m.NumSigners,
		m.NumWritableSigners,
		m.NumWritableNonSigners,
		strings.Join(keys, ","),
		len(m.Instructions),
		len(m.AddressTableLookups),
	)
}

// Account layout, with u32 length prefixed vectors.

func vaultTransactionMessageSize(m *VaultTransactionMessage) int {
	size := 3 + 4 + len(m.AccountKeys)*ed25519.PublicKeySize + 4
	for _, ix := range m.Instructions {
		size += 1 + 4 + len(ix.AccountIndexes) + 4 + len(ix.Data)
	}
	size += 4
	for _, lookup := range m.AddressTableLookups {
		size += ed25519.PublicKeySize + 4 + len(lookup.WritableIndexes) + 4 + len(lookup.ReadonlyIndexes)
	}
	return size
}

func putVaultTransactionMessage(dst []byte, m *VaultTransactionMessage, offset *int) {
	putUint8(dst, m.NumSigners, offset)
	putUint8(dst, m.NumWritableSigners, offset)
	putUint8(dst, m.NumWritableNonSigners, offset)

	putUint32(dst, uint32(len(m.AccountKeys)), offset)
	for _, key := range m.AccountKeys {
		putKey(dst, key, offset)
	}

	putUint32(dst, uint32(len(m.Instructions)), offset)
	for _, ix := range m.Instructions {
		putUint8(dst, ix.ProgramIDIndex, offset)
		putBytes(dst, ix.AccountIndexes, offset)
		putBytes(dst, ix.Data, offset)
	}

	putUint32(dst, uint32(len(m.AddressTableLookups)), offset)
	for _, lookup := range m.AddressTableLookups {
		putKey(dst, lookup.AccountKey, offset)
		putBytes(dst, lookup.WritableIndexes, offset)
		putBytes(dst, lookup.ReadonlyIndexes, offset)
	}
}
func getVaultTransactionMessage(src []byte, m *VaultTransactionMessage, offset *int) error {
	if !hasRemaining(src, *offset, 3+4) {
		return errUnexpectedEnd
	}
	getUint8(src, &m.NumSigners, offset)
	getUint8(src, &m.NumWritableSigners, offset)
	getUint8(src, &m.NumWritableNonSigners, offset)

	var numKeys uint32
	getUint32(src, &numKeys, offset)
	if !hasRemaining(src, *offset, int(numKeys)*ed25519.PublicKeySize) {
		return errUnexpectedEnd
	}
	m.AccountKeys = make([]ed25519.PublicKey, numKeys)
	for i := range m.AccountKeys {
		getKey(src, &m.AccountKeys[i], offset)
	}

	if !hasRemaining(src, *offset, 4) {
		return errUnexpectedEnd
	}
	var numInstructions uint32
	getUint32(src, &numInstructions, offset)
	if !hasRemaining(src, *offset, int(numInstructions)) {
		return errUnexpectedEnd
	}
	m.Instructions = make([]MessageCompiledInstruction, numInstructions)
	for i := range m.Instructions {
		if !hasRemaining(src, *offset, 1) {
			return errUnexpectedEnd
		}
		getUint8(src, &m.Instructions[i].ProgramIDIndex, offset)
		if err := getBytes(src, &m.Instructions[i].AccountIndexes, offset); err != nil {
			return err
		}
		if err := getBytes(src, &m.Instructions[i].Data, offset); err != nil {
			return err
		}
	}

	if !hasRemaining(src, *offset, 4) {
		return errUnexpectedEnd
	}
	var numLookups uint32
	getUint32(src, &numLookups, offset)
	if !hasRemaining(src, *offset, int(numLookups)*ed25519.PublicKeySize) {
		return errUnexpectedEnd
	}
	m.AddressTableLookups = nil
	if numLookups > 0 {
		m.AddressTableLookups = make([]MessageAddressTableLookup, numLookups)
	}
	for i := range m.AddressTableLookups {
		if !hasRemaining(src, *offset, ed25519.PublicKeySize) {
			return errUnexpectedEnd
		}
		getKey(src, &m.AddressTableLookups[i].AccountKey, offset)
		if err := getBytes(src, &m.AddressTableLookups[i].WritableIndexes, offset); err != nil {
			return err
		}
		if err := getBytes(src, &m.AddressTableLookups[i].ReadonlyIndexes, offset); err != nil {
			return err
		}
	}
	return nil
}
