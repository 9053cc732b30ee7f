package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// WorkflowOutcome values passed to entity callbacks.
const (
	OutcomeApproved = "APPROVED"
	OutcomeRejected = "REJECTED"
)

// EntityStatusCallback is the engine's only write into foreign domain
// objects: flipping the gated entity's own status once its workflow
// resolves. Each entity service registers its callback at startup.
type EntityStatusCallback interface {
	OnWorkflowResolved(ctx context.Context, tenantID, entityID uuid.UUID, outcome string) error
}

// EntityStatusCallbackFunc adapts a function to the callback interface.
type EntityStatusCallbackFunc func(ctx context.Context, tenantID, entityID uuid.UUID, outcome string) error

func (f EntityStatusCallbackFunc) OnWorkflowResolved(ctx context.Context, tenantID, entityID uuid.UUID, outcome string) error {
	return f(ctx, tenantID, entityID, outcome)
}

// CallbackRegistry routes workflow outcomes to the entity type's callback.
// Registration happens during wiring, before any request traffic; lookups
// at runtime are read-only.
type CallbackRegistry struct {
	callbacks map[string]EntityStatusCallback
}

func NewCallbackRegistry() *CallbackRegistry {
	return &CallbackRegistry{callbacks: make(map[string]EntityStatusCallback)}
}

func (r *CallbackRegistry) Register(entityType string, cb EntityStatusCallback) {
	r.callbacks[entityType] = cb
}

// Dispatch invokes the callback registered for the entity type. A missing
// callback is a wiring mistake, not a runtime condition.
func (r *CallbackRegistry) Dispatch(ctx context.Context, entityType string, tenantID, entityID uuid.UUID, outcome string) error {
	cb, ok := r.callbacks[entityType]
	if !ok {
		return fmt.Errorf("no status callback registered for entity type %q", entityType)
	}
	return cb.OnWorkflowResolved(ctx, tenantID, entityID, outcome)
}
