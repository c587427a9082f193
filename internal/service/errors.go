package service

import "errors"

// Workflow error taxonomy. Handlers map these to HTTP codes with
// errors.Is; services wrap them with fmt.Errorf("%w: ...") to attach the
// ids and sequence context a caller needs to retry with correct state.
// Raw storage errors are propagated verbatim, never downgraded.
var (
	ErrNotFound          = errors.New("not found")
	ErrNotAuthorized     = errors.New("acting user is not the approver for this step")
	ErrOutOfSequence     = errors.New("approval step is not yet actionable")
	ErrAlreadyDecided    = errors.New("approval step has already been decided")
	ErrEmptyChain        = errors.New("approver sequence is empty")
	ErrInvalidTemplate   = errors.New("template has no steps")
	ErrDuplicateApprover = errors.New("approver sequence has identical consecutive approvers")
	ErrInvalidDecision   = errors.New("unknown decision")
	ErrNotResubmittable  = errors.New("document is not awaiting revision")
)
