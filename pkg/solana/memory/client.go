package memory

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/dao-treasury/dao-server/pkg/solana"
	"github.com/dao-treasury/dao-server/pkg/solana/computebudget"
	"github.com/dao-treasury/dao-server/pkg/solana/system"
)

const (
	// LamportsPerSignature is the fee charged to the fee payer per signature
	LamportsPerSignature = 5000

	lamportsPerByteYear    = 3480
	exemptionThresholdYear = 2
	accountStorageOverhead = 128

	defaultComputeUnitLimit = 200_000
)

// Methods that support induced errors
const (
	MethodGetAccountInfo     = "GetAccountInfo"
	MethodGetLatestBlockhash = "GetLatestBlockhash"
	MethodSubmitTransaction  = "SubmitTransaction"
	MethodRequestAirdrop     = "RequestAirdrop"
)

var errDeveloperInduced = errors.New("in memory client: developer induced error")

// Processor executes a single instruction of a transaction against the
// client's ledger. Returning a solana.CustomError surfaces it as a custom
// program error.
type Processor func(ctx *Context, ix solana.Instruction) error

// Client is an in memory solana.Client backed by a ledger of accounts. Only
// the system and compute budget programs are built in, other programs are registered with
// SetProgram. Transactions are processed atomically and behave as if
// preflight checks were enabled, so failed transactions never land.
type Client struct {
	mu sync.Mutex

	accounts    map[string]solana.AccountInfo
	programs    map[string]Processor
	blockhashes map[solana.Blockhash]struct{}
	statuses    map[solana.Signature]*solana.SignatureStatus
	induced     map[string]struct{}

	slot              uint64
	blockhashRequests int
}

// NewClient returns a new in memory client with an empty ledger.
func NewClient() *Client {
	return &Client{
		accounts:    make(map[string]solana.AccountInfo),
		programs:    make(map[string]Processor),
		blockhashes: make(map[solana.Blockhash]struct{}),
		statuses:    make(map[solana.Signature]*solana.SignatureStatus),
		induced:     make(map[string]struct{}),
	}
}

// MinimumBalanceForRentExemption mirrors the cluster's default rent parameters.
func MinimumBalanceForRentExemption(size int) uint64 {
	return uint64(accountStorageOverhead+size) * lamportsPerByteYear * exemptionThresholdYear
}

// SetProgram registers the processor for instructions targeting program.
func (c *Client) SetProgram(program ed25519.PublicKey, processor Processor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.programs[string(program)] = processor
}

// SetAccount overwrites an account in the ledger.
func (c *Client) SetAccount(account ed25519.PublicKey, info solana.AccountInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accounts[string(account)] = cloneAccountInfo(info)
}

// InduceError makes subsequent calls to method fail until StopInducingErrors
// is called.
func (c *Client) InduceError(method string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.induced[method] = struct{}{}
}

// StopInducingErrors clears all induced errors.
func (c *Client) StopInducingErrors() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.induced = make(map[string]struct{})
}

// BlockhashRequests returns how many times GetLatestBlockhash was called.
func (c *Client) BlockhashRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.blockhashRequests
}

// ExpireBlockhashes invalidates every blockhash handed out so far.
func (c *Client) ExpireBlockhashes() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.blockhashes = make(map[solana.Blockhash]struct{})
}

// GetAccountInfo implements solana.Client.GetAccountInfo
func (c *Client) GetAccountInfo(account ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkInduced(MethodGetAccountInfo); err != nil {
		return solana.AccountInfo{}, err
	}

	info, ok := c.accounts[string(account)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return cloneAccountInfo(info), nil
}

// GetBalance implements solana.Client.GetBalance
func (c *Client) GetBalance(account ed25519.PublicKey) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.accounts[string(account)].Lamports, nil
}

// GetLatestBlockhash implements solana.Client.GetLatestBlockhash
func (c *Client) GetLatestBlockhash() (solana.Blockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkInduced(MethodGetLatestBlockhash); err != nil {
		return solana.Blockhash{}, err
	}

	c.blockhashRequests++

	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], uint64(c.blockhashRequests))
	hash := solana.Blockhash(sha256.Sum256(seed[:]))
	c.blockhashes[hash] = struct{}{}
	return hash, nil
}

// GetSignatureStatus implements solana.Client.GetSignatureStatus
func (c *Client) GetSignatureStatus(sig solana.Signature, _ solana.Commitment) (*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	status, ok := c.statuses[sig]
	if !ok {
		return nil, solana.ErrSignatureNotFound
	}
	cloned := *status
	return &cloned, nil
}

// GetSignatureStatuses implements solana.Client.GetSignatureStatuses
func (c *Client) GetSignatureStatuses(sigs []solana.Signature) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	statuses := make([]*solana.SignatureStatus, len(sigs))
	for i, sig := range sigs {
		if status, ok := c.statuses[sig]; ok {
			cloned := *status
			statuses[i] = &cloned
		}
	}
	return statuses, nil
}

// GetSlot implements solana.Client.GetSlot
func (c *Client) GetSlot(_ solana.Commitment) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.slot, nil
}

// RequestAirdrop implements solana.Client.RequestAirdrop
func (c *Client) RequestAirdrop(account ed25519.PublicKey, lamports uint64, _ solana.Commitment) (solana.Signature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkInduced(MethodRequestAirdrop); err != nil {
		return solana.Signature{}, err
	}

	info, ok := c.accounts[string(account)]
	if !ok {
		info = solana.AccountInfo{Owner: system.ProgramKey[:]}
	}
	info.Lamports += lamports
	c.accounts[string(account)] = info

	var sig solana.Signature
	if _, err := rand.Read(sig[:]); err != nil {
		return solana.Signature{}, err
	}

	c.slot++
	c.statuses[sig] = &solana.SignatureStatus{
		Slot:               c.slot,
		ConfirmationStatus: "finalized",
	}
	return sig, nil
}

// SubmitTransaction implements solana.Client.SubmitTransaction
func (c *Client) SubmitTransaction(txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(txn.Signatures) == 0 {
		return solana.Signature{}, solana.NewTransactionError(solana.TransactionErrorMissingSignatureForFee)
	}
	sig := txn.Signatures[0]

	if err := c.checkInduced(MethodSubmitTransaction); err != nil {
		return sig, err
	}

	if err := txn.VerifySignatures(); err != nil {
		return sig, solana.NewTransactionError(solana.TransactionErrorSignatureFailure)
	}
	if _, ok := c.blockhashes[txn.Message.RecentBlockhash]; !ok {
		return sig, solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound)
	}
	if _, ok := c.statuses[sig]; ok {
		return sig, solana.NewTransactionError(solana.TransactionErrorDuplicateSignature)
	}

	ctx := &Context{
		client:   c,
		accounts: make(map[string]solana.AccountInfo, len(c.accounts)),
		signers:  make(map[string]struct{}),
		Slot:     c.slot + 1,
		UnixTime: time.Now().Unix(),
	}
	for k, v := range c.accounts {
		ctx.accounts[k] = cloneAccountInfo(v)
	}
	for _, signer := range txn.Message.Accounts[:txn.Message.Header.NumSignatures] {
		ctx.signers[string(signer)] = struct{}{}
	}

	instructions := make([]solana.Instruction, len(txn.Message.Instructions))
	budget := computebudget.Budget{ComputeUnitLimit: defaultComputeUnitLimit}
	for i := range txn.Message.Instructions {
		ix, err := txn.Message.DecompileInstruction(i)
		if err != nil {
			return sig, solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
		}
		if bytes.Equal(ix.Program, computebudget.ProgramKey) {
			if err := budget.Apply(ix); err != nil {
				return sig, toTransactionError(i, errors.New(string(solana.InstructionErrorInvalidInstructionData)))
			}
		}
		instructions[i] = ix
	}

	payer := txn.Message.Accounts[0]
	fee := uint64(LamportsPerSignature*len(txn.Signatures)) + budget.PriorityFee()
	payerInfo, ok := ctx.accounts[string(payer)]
	if !ok {
		return sig, solana.NewTransactionError(solana.TransactionErrorAccountNotFound)
	}
	if payerInfo.Lamports < fee {
		return sig, solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForFee)
	}
	payerInfo.Lamports -= fee
	ctx.accounts[string(payer)] = payerInfo

	for i, ix := range instructions {
		if err := ctx.process(ix); err != nil {
			return sig, toTransactionError(i, err)
		}
	}

	c.accounts = ctx.accounts
	c.slot++
	c.statuses[sig] = &solana.SignatureStatus{
		Slot:               c.slot,
		ConfirmationStatus: "finalized",
	}
	return sig, nil
}

func (c *Client) checkInduced(method string) error {
	if _, ok := c.induced[method]; ok {
		return errDeveloperInduced
	}
	return nil
}

// Context is the view of the ledger a Processor operates on. Changes are only
// committed when every instruction of the transaction succeeds.
type Context struct {
	client   *Client
	accounts map[string]solana.AccountInfo
	signers  map[string]struct{}

	Slot     uint64
	UnixTime int64
}

// GetAccount returns the current state of account.
func (ctx *Context) GetAccount(account ed25519.PublicKey) (solana.AccountInfo, bool) {
	info, ok := ctx.accounts[string(account)]
	if !ok {
		return solana.AccountInfo{}, false
	}
	return cloneAccountInfo(info), true
}

// SetAccount overwrites the state of account.
func (ctx *Context) SetAccount(account ed25519.PublicKey, info solana.AccountInfo) {
	ctx.accounts[string(account)] = cloneAccountInfo(info)
}

// IsSigner reports whether account signed the transaction.
func (ctx *Context) IsSigner(account ed25519.PublicKey) bool {
	_, ok := ctx.signers[string(account)]
	return ok
}

// CreateAccount allocates a program owned account funded by payer with the
// rent exempt minimum for data.
func (ctx *Context) CreateAccount(payer, account, owner ed25519.PublicKey, data []byte) error {
	if existing, ok := ctx.accounts[string(account)]; ok && (len(existing.Data) > 0 || existing.Lamports > 0) {
		return errors.New(string(solana.InstructionErrorAccountAlreadyInitialized))
	}

	rent := MinimumBalanceForRentExemption(len(data))
	if err := ctx.debit(payer, rent); err != nil {
		return err
	}

	ctx.accounts[string(account)] = solana.AccountInfo{
		Data:     append([]byte{}, data...),
		Owner:    append(ed25519.PublicKey{}, owner...),
		Lamports: rent,
	}
	return nil
}

// Transfer moves lamports between two accounts without any ownership checks.
func (ctx *Context) Transfer(from, to ed25519.PublicKey, lamports uint64) error {
	if err := ctx.debit(from, lamports); err != nil {
		return err
	}

	info, ok := ctx.accounts[string(to)]
	if !ok {
		info = solana.AccountInfo{Owner: system.ProgramKey[:]}
	}
	info.Lamports += lamports
	ctx.accounts[string(to)] = info
	return nil
}

// Invoke processes ix as a cross program invocation. Accounts in pdaSigners
// are treated as signers in addition to the transaction's signers.
func (ctx *Context) Invoke(ix solana.Instruction, pdaSigners ...ed25519.PublicKey) error {
	for _, account := range ix.Accounts {
		if !account.IsSigner || ctx.IsSigner(account.PublicKey) {
			continue
		}

		var signedByProgram bool
		for _, pda := range pdaSigners {
			if bytes.Equal(pda, account.PublicKey) {
				signedByProgram = true
				break
			}
		}
		if !signedByProgram {
			return errors.New(string(solana.InstructionErrorMissingRequiredSignature))
		}
	}

	return ctx.process(ix)
}

func (ctx *Context) debit(account ed25519.PublicKey, lamports uint64) error {
	info, ok := ctx.accounts[string(account)]
	if !ok || info.Lamports < lamports {
		// ResultWithNegativeLamports
		return solana.CustomError(1)
	}
	info.Lamports -= lamports
	ctx.accounts[string(account)] = info
	return nil
}

func (ctx *Context) process(ix solana.Instruction) error {
	if bytes.Equal(ix.Program, system.ProgramKey[:]) {
		return processSystemInstruction(ctx, ix)
	}
	if bytes.Equal(ix.Program, computebudget.ProgramKey) {
		// Applied before fees are charged
		return nil
	}

	processor, ok := ctx.client.programs[string(ix.Program)]
	if !ok {
		return errors.New(string(solana.InstructionErrorIncorrectProgramID))
	}
	return processor(ctx, ix)
}

func processSystemInstruction(ctx *Context, ix solana.Instruction) error {
	if len(ix.Accounts) == 0 {
		return errors.New(string(solana.InstructionErrorNotEnoughAccountKeys))
	}

	m := solana.NewTransaction(ix.Accounts[0].PublicKey, ix).Message

	if transfer, err := system.DecompileTransfer(m, 0); err == nil {
		if !ix.Accounts[0].IsSigner {
			return errors.New(string(solana.InstructionErrorMissingRequiredSignature))
		}

		from, ok := ctx.accounts[string(transfer.From)]
		if ok && len(from.Data) > 0 {
			return errors.New(string(solana.InstructionErrorInvalidArgument))
		}
		return ctx.Transfer(transfer.From, transfer.To, transfer.Lamports)
	}

	if create, err := system.DecompileCreateAccount(m, 0); err == nil {
		if !ix.Accounts[0].IsSigner || !ix.Accounts[1].IsSigner {
			return errors.New(string(solana.InstructionErrorMissingRequiredSignature))
		}
		if existing, ok := ctx.accounts[string(create.Address)]; ok && existing.Lamports > 0 {
			return errors.New(string(solana.InstructionErrorAccountAlreadyInitialized))
		}
		if err := ctx.debit(create.Funder, create.Lamports); err != nil {
			return err
		}

		ctx.accounts[string(create.Address)] = solana.AccountInfo{
			Data:     make([]byte, create.Size),
			Owner:    create.Owner,
			Lamports: create.Lamports,
		}
		return nil
	}

	return errors.New(string(solana.InstructionErrorInvalidInstructionData))
}

func toTransactionError(index int, err error) *solana.TransactionError {
	return solana.NewInstructionTransactionError(index, err)
}

func cloneAccountInfo(info solana.AccountInfo) solana.AccountInfo {
	cloned := info
	if info.Data != nil {
		cloned.Data = append([]byte{}, info.Data...)
	}
	if info.Owner != nil {
		cloned.Owner = append(ed25519.PublicKey{}, info.Owner...)
	}
	return cloned
}

// String returns a short description of the ledger, for debugging tests.
func (c *Client) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var buf bytes.Buffer
	for k, v := range c.accounts {
		buf.WriteString(base58.Encode([]byte(k)))
		buf.WriteString(": ")
		buf.WriteString(base58.Encode(v.Owner))
		buf.WriteString("\n")
	}
	return buf.String()
}
