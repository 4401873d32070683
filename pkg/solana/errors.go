package solana

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/ybbus/jsonrpc"
)

// TransactionErrorKey names a transaction level failure reported by the
// runtime.
//
// Source: https://github.com/solana-labs/solana/blob/fc2bf2d3b669d1c6655ae48b0a05f470938f3676/sdk/src/transaction/mod.rs#L37
type TransactionErrorKey string

const (
	TransactionErrorUnknown TransactionErrorKey = "Unknown"

	TransactionErrorAccountNotFound         TransactionErrorKey = "AccountNotFound"
	TransactionErrorInsufficientFundsForFee TransactionErrorKey = "InsufficientFundsForFee"
	TransactionErrorDuplicateSignature      TransactionErrorKey = "DuplicateSignature"
	TransactionErrorBlockhashNotFound       TransactionErrorKey = "BlockhashNotFound"
	TransactionErrorInstructionError        TransactionErrorKey = "InstructionError"
	TransactionErrorMissingSignatureForFee  TransactionErrorKey = "MissingSignatureForFee"
	TransactionErrorSignatureFailure        TransactionErrorKey = "SignatureFailure"
	TransactionErrorSanitizeFailure         TransactionErrorKey = "SanitizeFailure"
)

// InstructionErrorKey names the failure of a single instruction.
//
// Source: https://github.com/solana-labs/solana/blob/4e2754341514cd181ae3f373cc2548bd22e918b8/sdk/program/src/instruction.rs#L23
type InstructionErrorKey string

const (
	InstructionErrorInvalidArgument           InstructionErrorKey = "InvalidArgument"
	InstructionErrorInvalidInstructionData    InstructionErrorKey = "InvalidInstructionData"
	InstructionErrorIncorrectProgramID        InstructionErrorKey = "IncorrectProgramId"
	InstructionErrorMissingRequiredSignature  InstructionErrorKey = "MissingRequiredSignature"
	InstructionErrorAccountAlreadyInitialized InstructionErrorKey = "AccountAlreadyInitialized"
	InstructionErrorNotEnoughAccountKeys      InstructionErrorKey = "NotEnoughAccountKeys"
	InstructionErrorCustom                    InstructionErrorKey = "Custom"
)

// CustomError is the numerical error returned by a non-system program, such
// as the Squads program's 6000+ codes.
type CustomError int

func (c CustomError) Error() string {
	return fmt.Sprintf("custom program error: %x", int(c))
}

// InstructionError is the failure of the instruction at Index.
type InstructionError struct {
	Index int
	Err   error
}

func (i InstructionError) Error() string {
	return fmt.Sprintf("Error processing Instruction %d: %v", i.Index, i.Err)
}

func (i InstructionError) ErrorKey() InstructionErrorKey {
	if i.Err == nil {
		return ""
	}
	if i.CustomError() != nil {
		return InstructionErrorCustom
	}
	return InstructionErrorKey(i.Err.Error())
}

// CustomError returns the program's error code, or nil when the instruction
// failed with a runtime error.
func (i InstructionError) CustomError() *CustomError {
	if ce, ok := i.Err.(CustomError); ok {
		return &ce
	}
	return nil
}

// TransactionError is a transaction rejected or failed by the cluster.
type TransactionError struct {
	key         TransactionErrorKey
	instruction *InstructionError
}

// NewTransactionError returns a transaction level failure.
func NewTransactionError(key TransactionErrorKey) *TransactionError {
	return &TransactionError{key: key}
}

// NewInstructionTransactionError returns the failure of the instruction at
// index. A CustomError anywhere in err's chain is kept as the instruction's
// error so program codes survive wrapping.
func NewInstructionTransactionError(index int, err error) *TransactionError {
	var custom CustomError
	if errors.As(err, &custom) {
		err = custom
	}

	return &TransactionError{
		key:         TransactionErrorInstructionError,
		instruction: &InstructionError{Index: index, Err: err},
	}
}

func (t *TransactionError) Error() string {
	if t.instruction != nil {
		return t.instruction.Error()
	}
	return string(t.key)
}

func (t *TransactionError) ErrorKey() TransactionErrorKey {
	return t.key
}

// InstructionError is set when the failure came from a single instruction.
func (t *TransactionError) InstructionError() *InstructionError {
	return t.instruction
}

// ParseRPCError extracts the transaction error carried in the data of a
// rejected sendTransaction call. It returns nil when there is none.
func ParseRPCError(err *jsonrpc.RPCError) (*TransactionError, error) {
	if err == nil {
		return nil, nil
	}

	data, ok := err.Data.(map[string]interface{})
	if !ok {
		return nil, errors.New("expected map type")
	}

	if txErr, ok := data["err"]; ok && txErr != nil {
		return ParseTransactionError(txErr)
	}
	return nil, nil
}

// ParseTransactionError parses the "err" field of a transaction status or
// simulation, which is either a bare key or a single entry object.
func ParseTransactionError(raw interface{}) (*TransactionError, error) {
	switch t := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return NewTransactionError(TransactionErrorKey(t)), nil
	case map[string]interface{}:
		key, value, err := singleEntry(t)
		if err != nil {
			return NewTransactionError(TransactionErrorUnknown), errors.Wrap(err, "invalid transaction error")
		}

		if key != string(TransactionErrorInstructionError) {
			return NewTransactionError(TransactionErrorKey(key)), nil
		}

		instructionErr, err := parseInstructionError(value)
		if err != nil {
			return NewTransactionError(TransactionErrorUnknown), errors.Wrap(err, "failed to parse instruction error")
		}
		return &TransactionError{
			key:         TransactionErrorInstructionError,
			instruction: instructionErr,
		}, nil
	default:
		return nil, errors.Errorf("unhandled error type %T", raw)
	}
}

// parseInstructionError parses the [index, error] tuple of an InstructionError.
func parseInstructionError(v interface{}) (*InstructionError, error) {
	values, ok := v.([]interface{})
	if !ok {
		return nil, errors.New("unexpected instruction error format")
	}
	if len(values) != 2 {
		return nil, errors.Errorf("unexpected InstructionError tuple size: %d", len(values))
	}

	index, err := parseJSONNumber(values[0])
	if err != nil {
		return nil, err
	}

	switch t := values[1].(type) {
	case string:
		return &InstructionError{Index: index, Err: errors.New(t)}, nil
	case map[string]interface{}:
		key, value, err := singleEntry(t)
		if err != nil {
			return nil, err
		}

		if key != string(InstructionErrorCustom) {
			return &InstructionError{Index: index, Err: errors.New(key)}, nil
		}

		code, err := parseJSONNumber(value)
		if err != nil {
			return nil, errors.Wrap(err, "invalid custom error code")
		}
		return &InstructionError{Index: index, Err: CustomError(code)}, nil
	default:
		return nil, errors.Errorf("unhandled instruction error type %T", t)
	}
}

func singleEntry(m map[string]interface{}) (string, interface{}, error) {
	if len(m) != 1 {
		return "", nil, errors.Errorf("expected a single entry, got %d", len(m))
	}
	for k, v := range m {
		return k, v, nil
	}
	return "", nil, nil
}

func parseJSONNumber(v interface{}) (int, error) {
	switch t := v.(type) {
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, errors.Errorf("non int64 value: %v", v)
		}
		return int(n), nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, errors.Errorf("non numeric value: %v", v)
		}
		return int(n), nil
	case float64:
		return int(t), nil
	}
	return 0, errors.Errorf("non numeric value: %v", v)
}
