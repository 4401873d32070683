package squads

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/dao-treasury/dao-server/pkg/solana"
)

// ProgramError is a custom error code returned by the multisig program.
type ProgramError uint32

const (
	ProgramErrorDuplicateMember ProgramError = iota + 6000
	ProgramErrorEmptyMembers
	ProgramErrorTooManyMembers
	ProgramErrorInvalidThreshold
	ProgramErrorUnauthorized
	ProgramErrorNotAMember
	ProgramErrorInvalidTransactionMessage
	ProgramErrorStaleProposal
	ProgramErrorInvalidProposalStatus
	ProgramErrorInvalidTransactionIndex
	ProgramErrorAlreadyApproved
	ProgramErrorAlreadyRejected
	ProgramErrorAlreadyCancelled
	ProgramErrorInvalidNumberOfAccounts
	ProgramErrorInvalidAccount
	ProgramErrorRemoveLastMember
	ProgramErrorNoVoters
	ProgramErrorNoProposers
	ProgramErrorNoExecutors
)

var programErrorNames = map[ProgramError]string{
	ProgramErrorDuplicateMember:           "DuplicateMember",
	ProgramErrorEmptyMembers:              "EmptyMembers",
	ProgramErrorTooManyMembers:            "TooManyMembers",
	ProgramErrorInvalidThreshold:          "InvalidThreshold",
	ProgramErrorUnauthorized:              "Unauthorized",
	ProgramErrorNotAMember:                "NotAMember",
	ProgramErrorInvalidTransactionMessage: "InvalidTransactionMessage",
	ProgramErrorStaleProposal:             "StaleProposal",
	ProgramErrorInvalidProposalStatus:     "InvalidProposalStatus",
	ProgramErrorInvalidTransactionIndex:   "InvalidTransactionIndex",
	ProgramErrorAlreadyApproved:           "AlreadyApproved",
	ProgramErrorAlreadyRejected:           "AlreadyRejected",
	ProgramErrorAlreadyCancelled:          "AlreadyCancelled",
	ProgramErrorInvalidNumberOfAccounts:   "InvalidNumberOfAccounts",
	ProgramErrorInvalidAccount:            "InvalidAccount",
	ProgramErrorRemoveLastMember:          "RemoveLastMember",
	ProgramErrorNoVoters:                  "NoVoters",
	ProgramErrorNoProposers:               "NoProposers",
	ProgramErrorNoExecutors:               "NoExecutors",
}

func (e ProgramError) Error() string {
	return fmt.Sprintf("multisig program error %d: %s", uint32(e), e.Name())
}

func (e ProgramError) Name() string {
	if name, ok := programErrorNames[e]; ok {
		return name
	}
	return "Unknown"
}

// ToCustomError converts the error into the code reported by the runtime.
func (e ProgramError) ToCustomError() solana.CustomError {
	return solana.CustomError(e)
}

// GetProgramError extracts the program error from a failed transaction, if the
// failure came from a custom error.
func GetProgramError(err error) (ProgramError, bool) {
	var txErr *solana.TransactionError
	if !errors.As(err, &txErr) {
		return 0, false
	}

	instructionErr := txErr.InstructionError()
	if instructionErr == nil {
		return 0, false
	}

	custom := instructionErr.CustomError()
	if custom == nil {
		return 0, false
	}
	return ProgramError(*custom), true
}
