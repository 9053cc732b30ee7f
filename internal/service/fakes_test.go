package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"erpapi/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes backing the engine tests. They mirror the SQL
// semantics the real repositories rely on: the compare-and-set on approval
// decisions, the active-request uniqueness scan, and the stalled-request
// query.

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- approval requests ---

type memRequestRepo struct {
	mu        sync.Mutex
	requests  map[uuid.UUID]*model.ApprovalRequest
	approvals *memApprovalRepo
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{requests: map[uuid.UUID]*model.ApprovalRequest{}}
}

func (r *memRequestRepo) Create(_ context.Context, req *model.ApprovalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Mirrors the partial unique index on active requests.
	if req.Status == model.RequestStatusPending || req.Status == model.RequestStatusEscalated {
		for _, existing := range r.requests {
			if existing.TenantID != req.TenantID || existing.EntityType != req.EntityType || existing.EntityID != req.EntityID {
				continue
			}
			if existing.Status == model.RequestStatusPending || existing.Status == model.RequestStatusEscalated {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.CreatedAt = time.Now()
	clone := *req
	r.requests[req.ID] = &clone
	return nil
}

func (r *memRequestRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.ApprovalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok || req.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *req
	return &clone, nil
}

func (r *memRequestRepo) FindByIDWithApprovals(ctx context.Context, tenantID, id uuid.UUID) (*model.ApprovalRequest, error) {
	req, err := r.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if r.approvals != nil {
		rows, _ := r.approvals.ListByRequest(ctx, req.ID)
		req.Approvals = rows
	}
	return req, nil
}

func (r *memRequestRepo) FindActiveByEntity(_ context.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID) (*model.ApprovalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.TenantID != tenantID || req.EntityType != entityType || req.EntityID != entityID {
			continue
		}
		if req.Status == model.RequestStatusPending || req.Status == model.RequestStatusEscalated {
			clone := *req
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRequestRepo) Update(_ context.Context, req *model.ApprovalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *req
	r.requests[req.ID] = &clone
	return nil
}

func (r *memRequestRepo) List(_ context.Context, tenantID uuid.UUID, status string, _, _ int) ([]model.ApprovalRequest, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ApprovalRequest
	for _, req := range r.requests {
		if req.TenantID != tenantID {
			continue
		}
		if status != "" && req.Status != status {
			continue
		}
		out = append(out, *req)
	}
	return out, int64(len(out)), nil
}

func (r *memRequestRepo) ListStalled(ctx context.Context, tenantID uuid.UUID) ([]model.ApprovalRequest, error) {
	r.mu.Lock()
	requests := make([]*model.ApprovalRequest, 0, len(r.requests))
	for _, req := range r.requests {
		requests = append(requests, req)
	}
	r.mu.Unlock()

	var out []model.ApprovalRequest
	for _, req := range requests {
		if req.TenantID != tenantID || req.Status != model.RequestStatusPending {
			continue
		}
		rows, _ := r.approvals.ListByRequest(ctx, req.ID)
		pending := false
		for _, row := range rows {
			if row.Decision == model.DecisionPending {
				pending = true
				break
			}
		}
		if !pending {
			out = append(out, *req)
		}
	}
	return out, nil
}

// --- approvals ---

type memApprovalRepo struct {
	mu       sync.Mutex
	rows     []*model.Approval
	requests *memRequestRepo
	now      time.Time // optional fixed creation timestamp
}

func newMemApprovalRepo() *memApprovalRepo {
	return &memApprovalRepo{}
}

func (r *memApprovalRepo) Create(_ context.Context, approval *model.Approval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if approval.ID == uuid.Nil {
		approval.ID = uuid.New()
	}
	if r.now.IsZero() {
		approval.CreatedAt = time.Now()
	} else {
		approval.CreatedAt = r.now
	}
	clone := *approval
	r.rows = append(r.rows, &clone)
	return nil
}

func (r *memApprovalRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			clone := *row
			if r.requests != nil {
				if req, ok := r.requests.requests[row.RequestID]; ok {
					reqClone := *req
					clone.Request = &reqClone
				}
			}
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memApprovalRepo) ListByRequest(_ context.Context, requestID uuid.UUID) ([]model.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Approval
	for _, row := range r.rows {
		if row.RequestID == requestID {
			out = append(out, *row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StepOrder < out[j].StepOrder })
	return out, nil
}

func (r *memApprovalRepo) ListByRequestAndOrder(_ context.Context, requestID uuid.UUID, stepOrder int) ([]model.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Approval
	for _, row := range r.rows {
		if row.RequestID == requestID && row.StepOrder == stepOrder {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *memApprovalRepo) ListPendingByApprover(_ context.Context, tenantID, approverID uuid.UUID) ([]model.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Approval
	for _, row := range r.rows {
		if row.ApproverID != approverID || row.Decision != model.DecisionPending {
			continue
		}
		req, ok := r.requests.requests[row.RequestID]
		if !ok || req.TenantID != tenantID {
			continue
		}
		if req.Status != model.RequestStatusPending && req.Status != model.RequestStatusEscalated {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}

func (r *memApprovalRepo) UpdateDecisionIfPending(_ context.Context, id uuid.UUID, decision, comments, escalationReason string, processedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID != id {
			continue
		}
		if row.Decision != model.DecisionPending {
			return false, nil
		}
		row.Decision = decision
		row.ProcessedAt = &processedAt
		if comments != "" {
			row.Comments = comments
		}
		if escalationReason != "" {
			row.EscalationReason = escalationReason
		}
		return true, nil
	}
	return false, nil
}

func (r *memApprovalRepo) ListEscalatable(_ context.Context, now time.Time) ([]model.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Approval
	for _, row := range r.rows {
		if row.Decision != model.DecisionPending || row.EscalationHours == nil {
			continue
		}
		if !row.CreatedAt.Add(time.Duration(*row.EscalationHours) * time.Hour).Before(now) {
			continue
		}
		req, ok := r.requests.requests[row.RequestID]
		if !ok {
			continue
		}
		if req.Status != model.RequestStatusPending && req.Status != model.RequestStatusEscalated {
			continue
		}
		clone := *row
		reqClone := *req
		clone.Request = &reqClone
		out = append(out, clone)
	}
	return out, nil
}

// backdate rewinds an approval's creation time so escalation sweeps see it
// as overdue.
func (r *memApprovalRepo) backdate(id uuid.UUID, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			row.CreatedAt = row.CreatedAt.Add(-d)
		}
	}
}

// --- workflow definitions ---

type memDefRepo struct {
	mu   sync.Mutex
	defs map[uuid.UUID]*model.WorkflowDefinition
}

func newMemDefRepo() *memDefRepo {
	return &memDefRepo{defs: map[uuid.UUID]*model.WorkflowDefinition{}}
}

func (r *memDefRepo) Create(_ context.Context, def *model.WorkflowDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if def.ID == uuid.Nil {
		def.ID = uuid.New()
	}
	for i := range def.Steps {
		if def.Steps[i].ID == uuid.Nil {
			def.Steps[i].ID = uuid.New()
		}
		def.Steps[i].DefinitionID = def.ID
	}
	clone := *def
	r.defs[def.ID] = &clone
	return nil
}

func (r *memDefRepo) Update(_ context.Context, def *model.WorkflowDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *def
	r.defs[def.ID] = &clone
	return nil
}

func (r *memDefRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if def, ok := r.defs[id]; ok && def.TenantID == tenantID {
		delete(r.defs, id)
	}
	return nil
}

func (r *memDefRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.WorkflowDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	def, ok := r.defs[id]
	if !ok || def.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *def
	return &clone, nil
}

func (r *memDefRepo) List(_ context.Context, tenantID uuid.UUID, entityType string, _, _ int) ([]model.WorkflowDefinition, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.WorkflowDefinition
	for _, def := range r.defs {
		if def.TenantID != tenantID {
			continue
		}
		if entityType != "" && def.EntityType != entityType {
			continue
		}
		out = append(out, *def)
	}
	return out, int64(len(out)), nil
}

func (r *memDefRepo) FindActiveByEntityType(_ context.Context, tenantID uuid.UUID, entityType string) ([]model.WorkflowDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.WorkflowDefinition
	for _, def := range r.defs {
		if def.TenantID == tenantID && def.EntityType == entityType && def.IsActive {
			out = append(out, *def)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out, nil
}

// --- audit ---

type memAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (r *memAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memAuditRepo) List(_ context.Context, tenantID uuid.UUID, action string, _, _ int) ([]model.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AuditLog
	for _, entry := range r.entries {
		if entry.TenantID != tenantID {
			continue
		}
		if action != "" && entry.Action != action {
			continue
		}
		out = append(out, entry)
	}
	return out, int64(len(out)), nil
}

func (r *memAuditRepo) ListByEntity(_ context.Context, tenantID uuid.UUID, entityID string) ([]model.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AuditLog
	for _, entry := range r.entries {
		if entry.TenantID == tenantID && entry.EntityID == entityID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *memAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.Action)
	}
	return out
}

// --- users ---

type fakeUserRepo struct {
	users []model.User
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users = append(r.users, *user)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for i := range r.users {
		if r.users[i].ID == id {
			clone := r.users[i]
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for i := range r.users {
		if r.users[i].Email == email {
			clone := r.users[i]
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for i := range r.users {
		if r.users[i].Username == username {
			clone := r.users[i]
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) List(_ context.Context, tenantID uuid.UUID, _, _ int) ([]model.User, int64, error) {
	var out []model.User
	for _, user := range r.users {
		if user.TenantID == tenantID {
			out = append(out, user)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	for i := range r.users {
		if r.users[i].ID == user.ID {
			r.users[i] = *user
		}
	}
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i := range r.users {
		if r.users[i].ID == id {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeUserRepo) FindActiveByRole(_ context.Context, tenantID, companyID uuid.UUID, role string) (*model.User, error) {
	var match *model.User
	for i := range r.users {
		user := &r.users[i]
		if user.TenantID != tenantID || user.CompanyID != companyID || user.Role != role || !user.IsActive {
			continue
		}
		if match == nil || user.CreatedAt.Before(match.CreatedAt) {
			match = user
		}
	}
	if match == nil {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *match
	return &clone, nil
}

func (r *fakeUserRepo) FindActiveDepartmentHead(_ context.Context, tenantID, companyID uuid.UUID, department string) (*model.User, error) {
	var match *model.User
	for i := range r.users {
		user := &r.users[i]
		if user.TenantID != tenantID || user.CompanyID != companyID || user.Department != department {
			continue
		}
		if !user.IsDepartmentHead || !user.IsActive {
			continue
		}
		if match == nil || user.CreatedAt.Before(match.CreatedAt) {
			match = user
		}
	}
	if match == nil {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *match
	return &clone, nil
}

func (r *fakeUserRepo) CreateRefreshToken(_ context.Context, _ *model.RefreshToken) error {
	return nil
}

func (r *fakeUserRepo) FindRefreshToken(_ context.Context, _ string) (*model.RefreshToken, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) DeleteRefreshToken(_ context.Context, _ string) error { return nil }

func (r *fakeUserRepo) DeleteRefreshTokensByUser(_ context.Context, _ uuid.UUID) error { return nil }

// --- notifier ---

type recordingNotifier struct {
	mu            sync.Mutex
	notifications []ApprovalNotification
	approvers     []uuid.UUID
}

func (n *recordingNotifier) Notify(_ context.Context, approverID uuid.UUID, notification ApprovalNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approvers = append(n.approvers, approverID)
	n.notifications = append(n.notifications, notification)
	return nil
}

// --- outcome recording callback ---

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []string
	entities []uuid.UUID
}

func (o *outcomeRecorder) record(_ context.Context, _, entityID uuid.UUID, outcome string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
	o.entities = append(o.entities, entityID)
	return nil
}
