package types

import (
	"github.com/google/uuid"
)

// OutcomeClass is the commit classification of an executed manifest.
type OutcomeClass int

const (
	// OutcomeCommittedSuccess means the manifest ran to completion and its
	// state changes were committed.
	OutcomeCommittedSuccess OutcomeClass = iota + 1
	// OutcomeCommittedFailure means the manifest started executing but
	// failed, rolling back all state changes except the locked fee.
	OutcomeCommittedFailure
	// OutcomeRejected means the manifest never started executing, typically
	// because the fee could not be locked.
	OutcomeRejected
)

func (c OutcomeClass) String() string {
	switch c {
	case OutcomeCommittedSuccess:
		return "committed success"
	case OutcomeCommittedFailure:
		return "committed failure"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// WorktopChangeKind distinguishes deposits to the worktop from removals.
type WorktopChangeKind int

const (
	WorktopPut WorktopChangeKind = iota + 1
	WorktopTake
)

// A WorktopChange records a single resource movement through the transaction
// worktop, attributed to the instruction that caused it.
type WorktopChange struct {
	Kind      WorktopChangeKind
	Specifier ResourceSpecifier
}

// An Outcome is the result of running one manifest against a simulator,
// either in preview or in committing mode.
type Outcome struct {
	TransactionID uuid.UUID
	Class         OutcomeClass
	ErrorMessage  string

	// Outputs holds the CBOR-encoded return value of each instruction,
	// indexed by manifest position.
	Outputs [][]byte
	// WorktopChanges holds the resource movements caused by each
	// instruction, indexed by manifest position.
	WorktopChanges map[int][]WorktopChange

	NewResourceAddresses  []Address
	NewComponentAddresses []Address
	Logs                  []string
}

// Succeeded returns true if the manifest was committed successfully.
func (o *Outcome) Succeeded() bool {
	return o.Class == OutcomeCommittedSuccess
}

// Reverted returns true if the manifest failed or was rejected.
func (o *Outcome) Reverted() bool {
	return !o.Succeeded()
}
