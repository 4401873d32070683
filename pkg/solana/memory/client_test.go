package memory

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dao-treasury/dao-server/pkg/solana"
	"github.com/dao-treasury/dao-server/pkg/solana/computebudget"
	"github.com/dao-treasury/dao-server/pkg/solana/system"
)

func TestClient_Blockhash(t *testing.T) {
	client := NewClient()

	first, err := client.GetLatestBlockhash()
	require.NoError(t, err)
	second, err := client.GetLatestBlockhash()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, client.BlockhashRequests())

	client.InduceError(MethodGetLatestBlockhash)
	_, err = client.GetLatestBlockhash()
	assert.Error(t, err)
	assert.Equal(t, 2, client.BlockhashRequests())

	client.StopInducingErrors()
	_, err = client.GetLatestBlockhash()
	assert.NoError(t, err)
}

func TestClient_Transfer(t *testing.T) {
	client := NewClient()
	sender, senderKey := generateKey(t)
	receiver, _ := generateKey(t)

	_, err := client.RequestAirdrop(sender, 1_000_000, solana.CommitmentFinalized)
	require.NoError(t, err)

	sig, err := submit(t, client, senderKey, system.Transfer(sender, receiver, 400_000))
	require.NoError(t, err)

	balance, err := client.GetBalance(sender)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000_000-400_000-LamportsPerSignature, balance)

	balance, err = client.GetBalance(receiver)
	require.NoError(t, err)
	assert.EqualValues(t, 400_000, balance)

	status, err := client.GetSignatureStatus(sig, solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.True(t, status.Finalized())
	assert.Nil(t, status.ErrorResult)

	info, err := client.GetAccountInfo(receiver, solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.EqualValues(t, system.ProgramKey[:], info.Owner)
}

func TestClient_PriorityFee(t *testing.T) {
	client := NewClient()
	sender, senderKey := generateKey(t)
	receiver, _ := generateKey(t)

	_, err := client.RequestAirdrop(sender, 1_000_000, solana.CommitmentFinalized)
	require.NoError(t, err)

	_, err = submit(
		t,
		client,
		senderKey,
		computebudget.SetComputeUnitLimit(100_000),
		computebudget.SetComputeUnitPrice(20_000),
		system.Transfer(sender, receiver, 1),
	)
	require.NoError(t, err)

	balance, err := client.GetBalance(sender)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000_000-1-LamportsPerSignature-2_000, balance)

	// Malformed budget instructions fail the transaction without charging fees
	_, err = submit(t, client, senderKey, solana.NewInstruction(computebudget.ProgramKey, []byte{0xff}))
	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr))

	after, err := client.GetBalance(sender)
	require.NoError(t, err)
	assert.Equal(t, balance, after)
}

func TestClient_TransactionRejections(t *testing.T) {
	client := NewClient()
	sender, senderKey := generateKey(t)
	receiver, _ := generateKey(t)

	_, err := client.RequestAirdrop(sender, 1_000_000, solana.CommitmentFinalized)
	require.NoError(t, err)

	// Insufficient funds leaves the ledger untouched
	_, err = submit(t, client, senderKey, system.Transfer(sender, receiver, 2_000_000))
	require.Error(t, err)

	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr))
	require.NotNil(t, txErr.InstructionError())
	assert.EqualValues(t, 1, *txErr.InstructionError().CustomError())

	balance, err := client.GetBalance(sender)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000_000, balance)

	// Expired blockhash
	blockhash, err := client.GetLatestBlockhash()
	require.NoError(t, err)
	client.ExpireBlockhashes()

	txn := solana.NewTransaction(sender, system.Transfer(sender, receiver, 1))
	txn.SetBlockhash(blockhash)
	require.NoError(t, txn.Sign(senderKey))

	_, err = client.SubmitTransaction(txn, solana.CommitmentFinalized)
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, solana.TransactionErrorBlockhashNotFound, txErr.ErrorKey())

	// Duplicate submission
	blockhash, err = client.GetLatestBlockhash()
	require.NoError(t, err)
	txn.SetBlockhash(blockhash)
	require.NoError(t, txn.Sign(senderKey))

	_, err = client.SubmitTransaction(txn, solana.CommitmentFinalized)
	require.NoError(t, err)
	_, err = client.SubmitTransaction(txn, solana.CommitmentFinalized)
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, solana.TransactionErrorDuplicateSignature, txErr.ErrorKey())

	// Missing signature
	unsigned := solana.NewTransaction(sender, system.Transfer(sender, receiver, 1))
	unsigned.SetBlockhash(blockhash)
	_, err = client.SubmitTransaction(unsigned, solana.CommitmentFinalized)
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, solana.TransactionErrorSignatureFailure, txErr.ErrorKey())
}

func TestClient_ProgramProcessor(t *testing.T) {
	client := NewClient()
	payer, payerKey := generateKey(t)
	program, _ := generateKey(t)
	target, _ := generateKey(t)

	_, err := client.RequestAirdrop(payer, 10_000_000, solana.CommitmentFinalized)
	require.NoError(t, err)

	client.SetProgram(program, func(ctx *Context, ix solana.Instruction) error {
		if len(ix.Data) == 0 {
			return solana.CustomError(6000)
		}
		return ctx.CreateAccount(ix.Accounts[0].PublicKey, ix.Accounts[1].PublicKey, program, ix.Data)
	})

	create := solana.NewInstruction(
		program,
		[]byte{1, 2, 3},
		solana.NewAccountMeta(payer, true),
		solana.NewAccountMeta(target, false),
	)
	fail := solana.NewInstruction(program, nil)

	// The second instruction fails, so the first is rolled back
	_, err = submit(t, client, payerKey, create, fail)
	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr))
	require.NotNil(t, txErr.InstructionError())
	assert.Equal(t, 1, txErr.InstructionError().Index)
	assert.EqualValues(t, 6000, *txErr.InstructionError().CustomError())

	_, err = client.GetAccountInfo(target, solana.CommitmentFinalized)
	assert.Equal(t, solana.ErrNoAccountInfo, err)

	_, err = submit(t, client, payerKey, create)
	require.NoError(t, err)

	info, err := client.GetAccountInfo(target, solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, info.Data)
	assert.EqualValues(t, program, info.Owner)
	assert.Equal(t, MinimumBalanceForRentExemption(3), info.Lamports)

	// Unknown programs are rejected
	unknown, _ := generateKey(t)
	_, err = submit(t, client, payerKey, solana.NewInstruction(unknown, nil))
	require.True(t, errors.As(err, &txErr))
	require.NotNil(t, txErr.InstructionError())
	assert.Equal(t, solana.InstructionErrorIncorrectProgramID, txErr.InstructionError().ErrorKey())
}

func TestClient_Invoke(t *testing.T) {
	client := NewClient()
	payer, payerKey := generateKey(t)
	program, _ := generateKey(t)
	pda, _ := generateKey(t)
	receiver, _ := generateKey(t)

	_, err := client.RequestAirdrop(payer, 1_000_000, solana.CommitmentFinalized)
	require.NoError(t, err)
	_, err = client.RequestAirdrop(pda, 1_000_000, solana.CommitmentFinalized)
	require.NoError(t, err)

	var signAsPDA bool
	client.SetProgram(program, func(ctx *Context, ix solana.Instruction) error {
		transfer := system.Transfer(pda, receiver, 250_000)
		if signAsPDA {
			return ctx.Invoke(transfer, pda)
		}
		return ctx.Invoke(transfer)
	})

	ix := solana.NewInstruction(
		program,
		nil,
		solana.NewAccountMeta(pda, false),
		solana.NewAccountMeta(receiver, false),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
	)

	_, err = submit(t, client, payerKey, ix)
	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, solana.InstructionErrorMissingRequiredSignature, txErr.InstructionError().ErrorKey())

	signAsPDA = true
	_, err = submit(t, client, payerKey, ix)
	require.NoError(t, err)

	balance, err := client.GetBalance(receiver)
	require.NoError(t, err)
	assert.EqualValues(t, 250_000, balance)
}

func submit(t *testing.T, client *Client, payer ed25519.PrivateKey, instructions ...solana.Instruction) (solana.Signature, error) {
	blockhash, err := client.GetLatestBlockhash()
	require.NoError(t, err)

	txn := solana.NewTransaction(payer.Public().(ed25519.PublicKey), instructions...)
	txn.SetBlockhash(blockhash)
	require.NoError(t, txn.Sign(payer))

	return client.SubmitTransaction(txn, solana.CommitmentFinalized)
}

func generateKey(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub, priv
}
