package errors

import (
	stderrors "errors"
	"fmt"
)

// Is, As and Join forward to the standard library so callers import a single errors package.
var (
	Is   = stderrors.Is
	As   = stderrors.As
	Join = stderrors.Join
)

var (
	ErrWorkerPanic   = fmt.Errorf("worker panic")
	ErrWorkerStopped = fmt.Errorf("slot worker stopped")

	ErrNoFreeSlots     = fmt.Errorf("no free slots")
	ErrSlotOutOfRange  = fmt.Errorf("slot out of range")
	ErrSlotAlreadyFree = fmt.Errorf("slot is already free")
	ErrSlotBusy        = fmt.Errorf("slot is busy")

	ErrAlreadyCancelled      = fmt.Errorf("transfer already cancelled")
	ErrInvalidCancelStrength = fmt.Errorf("soft cancel is not valid for single-chunk transfers")
	ErrTransferAborted       = fmt.Errorf("transfer aborted")
	ErrTransferCancelled     = fmt.Errorf("transfer stopped after current chunk")
	ErrTransportFailure      = fmt.Errorf("blob transport failure")
	ErrInsufficientSpace     = fmt.Errorf("not enough free space for chunk")
	ErrSourceChanged         = fmt.Errorf("source file changed since the transfer started")

	ErrCorruptResumeRecord = fmt.Errorf("corrupt resume record")
	ErrUnsupportedSchema   = fmt.Errorf("unsupported record schema version")
	ErrNoPendingRecovery   = fmt.Errorf("no pending recovery for slot")
	ErrTransfersInProgress = fmt.Errorf("transfers in progress")

	ErrDuplicatePath      = fmt.Errorf("logical path already exists in catalog")
	ErrEntryNotFound      = fmt.Errorf("catalog entry not found")
	ErrInvalidLogicalPath = fmt.Errorf("invalid logical path")
)
