package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ApprovalNotification is the payload handed to the dispatcher when an
// approval awaits someone's action.
type ApprovalNotification struct {
	TenantID   uuid.UUID  `json:"tenant_id"`
	ApprovalID uuid.UUID  `json:"approval_id"`
	RequestID  uuid.UUID  `json:"request_id"`
	EntityType string     `json:"entity_type"`
	EntityID   uuid.UUID  `json:"entity_id"`
	DueBy      *time.Time `json:"due_by,omitempty"`
}

// NotificationDispatcher delivers approval notifications. Delivery is
// fire-and-forget: failures are logged by the orchestrator and never block
// a transition.
type NotificationDispatcher interface {
	Notify(ctx context.Context, approverID uuid.UUID, notification ApprovalNotification) error
}
