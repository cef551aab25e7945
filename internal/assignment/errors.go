package assignment

import "errors"

// The error taxonomy exposed to callers. NotFound-class errors mean the
// record is missing; InvalidState-class errors mean the mutation was rejected
// before anything changed. Store failures are wrapped and propagated as-is.
var (
	ErrAssignmentNotFound   = errors.New("assignment not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrMemberNotFound       = errors.New("member not found")
	ErrHomeNotFound         = errors.New("home not found")
	ErrCancellationNotFound = errors.New("cancellation not found")
	ErrExchangeNotFound     = errors.New("exchange request not found")

	ErrNotPending          = errors.New("assignment is not pending")
	ErrNotOwner            = errors.New("assignment belongs to another member")
	ErrMemberInactive      = errors.New("member is not active")
	ErrHomeMismatch        = errors.New("member and task belong to different homes")
	ErrDuplicateAssignment = errors.New("assignment already exists for this task, member, and day")
	ErrAlreadyResolved     = errors.New("exchange request already resolved")
	ErrNotAvailable        = errors.New("cancellation is no longer available")
)
