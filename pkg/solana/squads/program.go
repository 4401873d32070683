package squads

import (
	"crypto/ed25519"
	"errors"
)

var (
	ErrInvalidProgram          = errors.New("invalid program id")
	ErrInvalidAccountData      = errors.New("unexpected account data")
	ErrInvalidInstructionData  = errors.New("unexpected instruction data")
	ErrUnsupportedConfigAction = errors.New("unsupported config action")
)

var (
	PROGRAM_ADDRESS = mustBase58Decode("SQDS4ep65T869zMMBKyuUq6aD6EgTu8psMjkvj52pCf")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	SYSTEM_PROGRAM_ID = ed25519.PublicKey(mustBase58Decode("11111111111111111111111111111111"))
)
