package squads

import (
	"fmt"
	"time"
)

type ProposalStatusKind uint8

const (
	ProposalStatusDraft ProposalStatusKind = iota
	ProposalStatusActive
	ProposalStatusRejected
	ProposalStatusApproved
	// Deprecated by the program, carries no timestamp
	ProposalStatusExecuting
	ProposalStatusExecuted
	ProposalStatusCancelled
)

func (k ProposalStatusKind) String() string {
	switch k {
	case ProposalStatusDraft:
		return "Draft"
	case ProposalStatusActive:
		return "Active"
	case ProposalStatusRejected:
		return "Rejected"
	case ProposalStatusApproved:
		return "Approved"
	case ProposalStatusExecuting:
		return "Executing"
	case ProposalStatusExecuted:
		return "Executed"
	case ProposalStatusCancelled:
		return "Cancelled"
	}
	return fmt.Sprintf("Unknown(%d)", uint8(k))
}

// ProposalStatus is the status of a proposal along with the unix timestamp at
// which it was entered.
type ProposalStatus struct {
	Kind      ProposalStatusKind
	Timestamp int64
}

func NewProposalStatus(kind ProposalStatusKind, at time.Time) ProposalStatus {
	if kind == ProposalStatusExecuting {
		return ProposalStatus{Kind: kind}
	}
	return ProposalStatus{Kind: kind, Timestamp: at.Unix()}
}

func (s ProposalStatus) String() string {
	if s.Kind == ProposalStatusExecuting {
		return s.Kind.String()
	}
	return fmt.Sprintf("%s{timestamp=%d}", s.Kind.String(), s.Timestamp)
}

func proposalStatusSize(v ProposalStatus) int {
	if v.Kind == ProposalStatusExecuting {
		return 1
	}
	return 1 + 8
}

func putProposalStatus(dst []byte, v ProposalStatus, offset *int) {
	putUint8(dst, uint8(v.Kind), offset)
	if v.Kind != ProposalStatusExecuting {
		putInt64(dst, v.Timestamp, offset)
	}
}
func getProposalStatus(src []byte, dst *ProposalStatus, offset *int) error {
	if !hasRemaining(src, *offset, 1) {
		return errUnexpectedEnd
	}

	var kind uint8
	getUint8(src, &kind, offset)
	if kind > uint8(ProposalStatusCancelled) {
		return fmt.Errorf("unknown proposal status: %d", kind)
	}

	dst.Kind = ProposalStatusKind(kind)
	dst.Timestamp = 0
	if dst.Kind == ProposalStatusExecuting {
		return nil
	}

	if !hasRemaining(src, *offset, 8) {
		return errUnexpectedEnd
	}
	getInt64(src, &dst.Timestamp, offset)
	return nil
}
