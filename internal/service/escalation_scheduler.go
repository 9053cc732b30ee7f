package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"erpapi/internal/repository"

	"github.com/rs/zerolog"
)

// EscalationScheduler periodically sweeps for pending approvals whose time
// budget has elapsed and escalates them on behalf of the system. Eligibility
// comes from persisted timestamps, so a restarted process picks up overdue
// approvals on its first tick.
type EscalationScheduler struct {
	approvalRepo repository.ApprovalRepository
	approvals    ApprovalService
	log          zerolog.Logger
}

func NewEscalationScheduler(approvalRepo repository.ApprovalRepository, approvals ApprovalService, log zerolog.Logger) *EscalationScheduler {
	return &EscalationScheduler{
		approvalRepo: approvalRepo,
		approvals:    approvals,
		log:          log,
	}
}

// Run ticks at the given interval until the context is cancelled.
func (s *EscalationScheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", interval).Msg("escalation scheduler started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("escalation scheduler stopped")
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick runs one sweep. Each overdue approval escalates independently; a
// failure on one never blocks the rest. The compare-and-set inside the
// escalation transition makes concurrent or overlapping sweeps harmless:
// the loser sees an invalid transition and moves on.
func (s *EscalationScheduler) Tick(ctx context.Context, now time.Time) {
	overdue, err := s.approvalRepo.ListEscalatable(ctx, now)
	if err != nil {
		s.log.Error().Err(err).Msg("escalation sweep query failed")
		return
	}

	for _, approval := range overdue {
		if approval.Request == nil {
			continue
		}
		reason := fmt.Sprintf("no decision within %d hours", derefHours(approval.EscalationHours))
		err := s.approvals.EscalateExpired(ctx, approval.Request.TenantID, approval.ID, reason)
		switch {
		case err == nil:
			s.log.Info().
				Str("approval_id", approval.ID.String()).
				Str("request_id", approval.RequestID.String()).
				Msg("escalated overdue approval")
		case errors.Is(err, ErrInvalidTransition):
			// Decided or escalated between the sweep query and the CAS.
		case errors.Is(err, ErrNoApproverFound):
			s.log.Warn().Err(err).
				Str("approval_id", approval.ID.String()).
				Msg("overdue approval has no escalation target")
		default:
			s.log.Error().Err(err).
				Str("approval_id", approval.ID.String()).
				Msg("failed to escalate overdue approval")
		}
	}
}

func derefHours(hours *int) int {
	if hours == nil {
		return 0
	}
	return *hours
}
