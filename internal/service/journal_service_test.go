package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"erpapi/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memJournalRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*model.JournalEntry
}

func newMemJournalRepo() *memJournalRepo {
	return &memJournalRepo{entries: map[uuid.UUID]*model.JournalEntry{}}
}

func (r *memJournalRepo) Create(_ context.Context, entry *model.JournalEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	for i := range entry.Lines {
		if entry.Lines[i].ID == uuid.Nil {
			entry.Lines[i].ID = uuid.New()
		}
		entry.Lines[i].EntryID = entry.ID
	}
	entry.CreatedAt = time.Now()
	clone := *entry
	r.entries[entry.ID] = &clone
	return nil
}

func (r *memJournalRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.JournalEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok || entry.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *entry
	return &clone, nil
}

func (r *memJournalRepo) FindByIDWithLines(ctx context.Context, tenantID, id uuid.UUID) (*model.JournalEntry, error) {
	return r.FindByID(ctx, tenantID, id)
}

func (r *memJournalRepo) List(_ context.Context, tenantID uuid.UUID, status string, _, _ int) ([]model.JournalEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.JournalEntry
	for _, entry := range r.entries {
		if entry.TenantID != tenantID {
			continue
		}
		if status != "" && entry.Status != status {
			continue
		}
		out = append(out, *entry)
	}
	return out, int64(len(out)), nil
}

func (r *memJournalRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	entry.Status = status
	return nil
}

func (r *memJournalRepo) Update(_ context.Context, entry *model.JournalEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *entry
	r.entries[entry.ID] = &clone
	return nil
}

func (r *memJournalRepo) CountByPrefix(_ context.Context, prefix string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, entry := range r.entries {
		if strings.HasPrefix(entry.EntryNo, prefix) {
			count++
		}
	}
	return count, nil
}

type memAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*model.Account
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{accounts: map[uuid.UUID]*model.Account{}}
}

func (r *memAccountRepo) Create(_ context.Context, account *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	clone := *account
	r.accounts[account.ID] = &clone
	return nil
}

func (r *memAccountRepo) Update(_ context.Context, account *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *account
	r.accounts[account.ID] = &clone
	return nil
}

func (r *memAccountRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account, ok := r.accounts[id]; ok && account.TenantID == tenantID {
		delete(r.accounts, id)
	}
	return nil
}

func (r *memAccountRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok || account.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *account
	return &clone, nil
}

func (r *memAccountRepo) FindByCode(_ context.Context, tenantID uuid.UUID, code string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.TenantID == tenantID && account.Code == code {
			clone := *account
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memAccountRepo) List(_ context.Context, tenantID uuid.UUID, accountType string, _, _ int) ([]model.Account, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Account
	for _, account := range r.accounts {
		if account.TenantID != tenantID {
			continue
		}
		if accountType != "" && account.Type != accountType {
			continue
		}
		out = append(out, *account)
	}
	return out, int64(len(out)), nil
}

func (r *memAccountRepo) HasChildren(_ context.Context, tenantID, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.TenantID == tenantID && account.ParentID != nil && *account.ParentID == id {
			return true, nil
		}
	}
	return false, nil
}

type journalEnv struct {
	*engineEnv
	journals *memJournalRepo
	accounts *memAccountRepo
	journal  JournalService

	cashID    uuid.UUID
	revenueID uuid.UUID
}

func newJournalEnv(t *testing.T) *journalEnv {
	t.Helper()
	base := newEngineEnv(t)
	env := &journalEnv{
		engineEnv: base,
		journals:  newMemJournalRepo(),
		accounts:  newMemAccountRepo(),
	}
	env.journal = NewJournalService(env.journals, env.accounts, base.svc, base.audit, fakeTxManager{})
	base.callbacks.Register(model.EntityTypeJournalEntry, EntityStatusCallbackFunc(env.journal.HandleWorkflowOutcome))

	cash := &model.Account{TenantID: base.tenantID, Code: "1000", Name: "Cash", Type: "ASSET", IsActive: true}
	revenue := &model.Account{TenantID: base.tenantID, Code: "4010", Name: "Sales", Type: "REVENUE", IsActive: true}
	require.NoError(t, env.accounts.Create(context.Background(), cash))
	require.NoError(t, env.accounts.Create(context.Background(), revenue))
	env.cashID = cash.ID
	env.revenueID = revenue.ID
	return env
}

func (env *journalEnv) createBalancedEntry(t *testing.T, amount string) JournalEntryResponse {
	t.Helper()
	resp, err := env.journal.CreateEntry(context.Background(), env.tenantID, env.companyID, env.requester, CreateJournalEntryRequest{
		EntryDate:   "2026-08-30",
		Description: "cash sale",
		Lines: []JournalLineRequest{
			{AccountID: env.cashID.String(), Debit: amount},
			{AccountID: env.revenueID.String(), Credit: amount},
		},
	})
	require.NoError(t, err)
	return resp
}

func TestCreateJournalEntryBalanced(t *testing.T) {
	env := newJournalEnv(t)

	resp := env.createBalancedEntry(t, "250.00")
	assert.Equal(t, model.JournalStatusDraft, resp.Status)
	assert.Equal(t, "250.0000", resp.TotalDebit)
	assert.Equal(t, "250.0000", resp.TotalCredit)
	assert.True(t, strings.HasPrefix(resp.EntryNo, "JE-"))
	assert.True(t, strings.HasSuffix(resp.EntryNo, "-00001"))

	// Numbering continues within the day.
	second := env.createBalancedEntry(t, "10")
	assert.True(t, strings.HasSuffix(second.EntryNo, "-00002"))
}

// serialTxManager serializes units of work the way the advisory lock on the
// number prefix does in postgres.
type serialTxManager struct {
	mu sync.Mutex
}

func (m *serialTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

func TestConcurrentJournalEntryNumbersAreDistinct(t *testing.T) {
	env := newJournalEnv(t)
	journal := NewJournalService(env.journals, env.accounts, env.engineEnv.svc, env.audit, &serialTxManager{})

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	responses := make([]JournalEntryResponse, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			responses[i], errs[i] = journal.CreateEntry(context.Background(), env.tenantID, env.companyID, env.requester, CreateJournalEntryRequest{
				EntryDate: "2026-08-30",
				Lines: []JournalLineRequest{
					{AccountID: env.cashID.String(), Debit: "10"},
					{AccountID: env.revenueID.String(), Credit: "10"},
				},
			})
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[responses[i].EntryNo], "entry number %s minted twice", responses[i].EntryNo)
		seen[responses[i].EntryNo] = true
	}
}

func TestCreateJournalEntryRejectsUnbalanced(t *testing.T) {
	env := newJournalEnv(t)

	_, err := env.journal.CreateEntry(context.Background(), env.tenantID, env.companyID, env.requester, CreateJournalEntryRequest{
		EntryDate: "2026-08-30",
		Lines: []JournalLineRequest{
			{AccountID: env.cashID.String(), Debit: "100"},
			{AccountID: env.revenueID.String(), Credit: "90"},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not balanced")
}

func TestCreateJournalEntryLineValidation(t *testing.T) {
	env := newJournalEnv(t)

	cases := []struct {
		name   string
		line   JournalLineRequest
		errMsg string
	}{
		{"both sides set", JournalLineRequest{AccountID: env.cashID.String(), Debit: "100", Credit: "100"}, "exactly one of debit or credit"},
		{"neither side set", JournalLineRequest{AccountID: env.cashID.String()}, "exactly one of debit or credit"},
		{"negative amount", JournalLineRequest{AccountID: env.cashID.String(), Debit: "-5"}, "must not be negative"},
		{"unknown account", JournalLineRequest{AccountID: uuid.NewString(), Debit: "100"}, "account not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.journal.CreateEntry(context.Background(), env.tenantID, env.companyID, env.requester, CreateJournalEntryRequest{
				EntryDate: "2026-08-30",
				Lines: []JournalLineRequest{
					tc.line,
					{AccountID: env.revenueID.String(), Credit: "100"},
				},
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestCreateJournalEntryRejectsInactiveAccount(t *testing.T) {
	env := newJournalEnv(t)
	closed := &model.Account{TenantID: env.tenantID, Code: "1999", Name: "Old cash", Type: "ASSET", IsActive: false}
	require.NoError(t, env.accounts.Create(context.Background(), closed))

	_, err := env.journal.CreateEntry(context.Background(), env.tenantID, env.companyID, env.requester, CreateJournalEntryRequest{
		EntryDate: "2026-08-30",
		Lines: []JournalLineRequest{
			{AccountID: closed.ID.String(), Debit: "100"},
			{AccountID: env.revenueID.String(), Credit: "100"},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inactive")
}

func TestSubmitJournalEntryWithoutWorkflowPostsDirectly(t *testing.T) {
	env := newJournalEnv(t)
	entry := env.createBalancedEntry(t, "100")

	resp, err := env.journal.SubmitEntry(context.Background(), env.tenantID, env.companyID, env.requester, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JournalStatusPosted, resp.Status)
	require.NotNil(t, resp.PostedAt)
}

func TestSubmitJournalEntryRunsApprovalWorkflow(t *testing.T) {
	env := newJournalEnv(t)
	managerID := env.addUser(t, "manager", time.Now())
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:       "journal review",
		EntityType: model.EntityTypeJournalEntry,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "manager", IsRequired: true},
		},
	})

	entry := env.createBalancedEntry(t, "100")
	resp, err := env.journal.SubmitEntry(context.Background(), env.tenantID, env.companyID, env.requester, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JournalStatusPendingApproval, resp.Status)

	// A second submission is rejected while the workflow is running.
	_, err = env.journal.SubmitEntry(context.Background(), env.tenantID, env.companyID, env.requester, entry.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	managerInbox := env.pendingFor(t, managerID)
	require.Len(t, managerInbox, 1)
	_, err = env.act(env.tenantID, managerInbox[0].ID, managerID, ApprovalActionApprove)
	require.NoError(t, err)

	posted, err := env.journal.GetEntry(context.Background(), env.tenantID, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JournalStatusPosted, posted.Status)
	require.NotNil(t, posted.PostedAt)
}

func TestSubmitJournalEntryRejectedByWorkflow(t *testing.T) {
	env := newJournalEnv(t)
	managerID := env.addUser(t, "manager", time.Now())
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:       "journal review",
		EntityType: model.EntityTypeJournalEntry,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "manager", IsRequired: true},
		},
	})

	entry := env.createBalancedEntry(t, "100")
	_, err := env.journal.SubmitEntry(context.Background(), env.tenantID, env.companyID, env.requester, entry.ID)
	require.NoError(t, err)

	managerInbox := env.pendingFor(t, managerID)
	require.Len(t, managerInbox, 1)
	_, err = env.act(env.tenantID, managerInbox[0].ID, managerID, ApprovalActionReject)
	require.NoError(t, err)

	rejected, err := env.journal.GetEntry(context.Background(), env.tenantID, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JournalStatusRejected, rejected.Status)
	assert.Nil(t, rejected.PostedAt)
}

func TestSubmitJournalEntryAutoApprovedBelowThreshold(t *testing.T) {
	env := newJournalEnv(t)
	env.addUser(t, "manager", time.Now())
	env.addDefinition(t, &model.WorkflowDefinition{
		Name:         "journal review",
		EntityType:   model.EntityTypeJournalEntry,
		AutoApproval: true,
		Steps: []model.WorkflowStep{
			{StepOrder: 1, ApproverType: model.ApproverTypeRole, Role: "manager", IsRequired: true, AmountThreshold: decPtr("1000")},
		},
	})

	entry := env.createBalancedEntry(t, "100")
	resp, err := env.journal.SubmitEntry(context.Background(), env.tenantID, env.companyID, env.requester, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JournalStatusPosted, resp.Status)
}
