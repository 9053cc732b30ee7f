package service

import "errors"

// Approval engine error taxonomy. Transition errors (ErrInvalidTransition,
// ErrUnauthorized) surface directly to the acting caller; resolution errors
// (ErrNoApproverFound) stall the request for operator attention instead of
// failing the creation call.
var (
	ErrWorkflowNotFound       = errors.New("workflow definition not found")
	ErrNoApproverFound        = errors.New("no approver found for step")
	ErrInvalidTransition      = errors.New("approval is not pending or request is terminal")
	ErrUnauthorized           = errors.New("user is not the assigned approver")
	ErrDuplicateActiveRequest = errors.New("an active approval request already exists for this entity")
	ErrEntityNotFound         = errors.New("entity not found")
	ErrUnknownAction          = errors.New("unknown approval action")
)
