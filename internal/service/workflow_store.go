package service

import (
	"context"

	"erpapi/internal/model"
	"erpapi/internal/repository"

	"github.com/google/uuid"
)

// WorkflowDefinitionStore is the engine's read path over tenant-authored
// definitions: it selects the policy applicable to a request.
type WorkflowDefinitionStore struct {
	defRepo   repository.WorkflowDefinitionRepository
	evaluator *ConditionEvaluator
}

func NewWorkflowDefinitionStore(defRepo repository.WorkflowDefinitionRepository, evaluator *ConditionEvaluator) *WorkflowDefinitionStore {
	return &WorkflowDefinitionStore{defRepo: defRepo, evaluator: evaluator}
}

// FindApplicable returns the highest-priority active definition whose
// conditions are satisfied by the metadata, falling back to the definition
// flagged as default. Returns (nil, nil) when no workflow applies; the
// caller treats the entity as unrestricted.
func (s *WorkflowDefinitionStore) FindApplicable(ctx context.Context, tenantID uuid.UUID, entityType, entitySubType string, metadata model.JSONMap) (*model.WorkflowDefinition, error) {
	defs, err := s.defRepo.FindActiveByEntityType(ctx, tenantID, entityType)
	if err != nil {
		return nil, err
	}

	var fallback *model.WorkflowDefinition
	for i := range defs {
		def := &defs[i]
		if def.EntitySubType != "" && def.EntitySubType != entitySubType {
			continue
		}
		if def.IsDefault && fallback == nil {
			fallback = def
		}
		if len(def.Conditions) == 0 && !def.IsDefault {
			// Unconditioned non-default definitions apply whenever the
			// entity type matches.
			return def, nil
		}
		if len(def.Conditions) > 0 && s.evaluator.Evaluate(def.Conditions, metadata) {
			return def, nil
		}
	}
	return fallback, nil
}
