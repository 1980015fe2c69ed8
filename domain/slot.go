package domain

import "strconv"

// SlotID identifies one of the N session slots, starting at 1.
type SlotID int

func (s SlotID) String() string {
	return strconv.Itoa(int(s))
}

// SlotState is the pool side view of a slot.
type SlotState int

const (
	Free SlotState = iota
	Busy
	// Held slots own an unresolved resume record and take no new work.
	Held
)

func (s SlotState) String() string {
	switch s {
	case Free:
		return "free"
	case Busy:
		return "busy"
	case Held:
		return "held"
	default:
		return "unknown"
	}
}

type SlotStatus struct {
	Slot     SlotID
	State    SlotState
	Transfer TransferState
}

type RecoveryChoice int

const (
	Finish RecoveryChoice = iota + 1
	Ignore
	Delete
)

func (c RecoveryChoice) String() string {
	switch c {
	case Finish:
		return "finish"
	case Ignore:
		return "ignore"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

func ParseRecoveryChoice(s string) (RecoveryChoice, bool) {
	switch s {
	case "finish", "1":
		return Finish, true
	case "ignore", "2":
		return Ignore, true
	case "delete", "3":
		return Delete, true
	default:
		return 0, false
	}
}

// PendingRecovery describes a slot found with a resume record at startup.
// Err is set when the record could not be decoded, Job is then empty.
type PendingRecovery struct {
	Slot SlotID
	Job  TransferJob
	Err  error
}
