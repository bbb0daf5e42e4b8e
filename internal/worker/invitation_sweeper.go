package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
	"github.com/aryan0dhankhar/gymdesk/internal/observability/metrics"
)

// DefaultSweepSchedule runs the sweep once an hour
const DefaultSweepSchedule = "@every 1h"

// InvitationSweeper marks pending staff invitations past their expiry as
// expired. It writes through the privileged backend, so it logs and skips a
// run when that backend is unavailable.
type InvitationSweeper struct {
	staff    domain.StaffRepository
	logger   *slog.Logger
	schedule cron.Schedule
	expr     string
	now      func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	started bool
}

// NewInvitationSweeper creates a sweeper for the given cron expression
// ("@every 1h", "0 * * * *")
func NewInvitationSweeper(staff domain.StaffRepository, expr string, logger *slog.Logger) (*InvitationSweeper, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if expr == "" {
		expr = DefaultSweepSchedule
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", expr, err)
	}
	return &InvitationSweeper{
		staff:    staff,
		logger:   logger,
		schedule: schedule,
		expr:     expr,
		now:      time.Now,
	}, nil
}

// Start schedules the sweep. It returns immediately; Stop ends it.
func (w *InvitationSweeper) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.cron = cron.New()
	w.cron.Schedule(w.schedule, cron.FuncJob(func() {
		w.Sweep(ctx)
	}))
	w.cron.Start()
	w.started = true
	w.logger.Info("invitation sweeper started", slog.String("schedule", w.expr))
}

// Stop cancels the schedule and waits for a running sweep to finish
func (w *InvitationSweeper) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.cancel()
	<-w.cron.Stop().Done()
	w.started = false
	w.logger.Info("invitation sweeper stopped")
}

// Sweep expires every pending invitation past its expiry and returns how many
// changed
func (w *InvitationSweeper) Sweep(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	n, err := w.staff.ExpirePending(ctx, w.now())
	switch {
	case errors.Is(err, domain.ErrBackendUnavailable):
		w.logger.Warn("skipping invitation sweep: admin client unavailable")
		return 0
	case err != nil:
		w.logger.Error("invitation sweep failed", slog.String("error", err.Error()))
		return 0
	}

	metrics.AddInvitationsExpired(n)
	if n > 0 {
		w.logger.Info("expired staff invitations", slog.Int("count", n))
	}
	return n
}
