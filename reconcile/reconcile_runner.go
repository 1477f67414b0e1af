package reconcile

import (
	"coilflow/domain"
	"context"
	"errors"
	"fmt"

	"github.com/fundwit/go-commons/types"
	cron "github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const DefaultPageSize = 200

// Source is the read side of the work order store.
type Source interface {
	PageWorkOrders(ctx context.Context, afterID types.ID, limit int) ([]domain.WorkOrder, error)
	LoadWorkOrder(ctx context.Context, id types.ID) (*domain.Aggregate, error)
}

// Report summarizes one reconcile pass.
type Report struct {
	Checked    int
	Violations []error
}

// Runner periodically re-checks the lifecycle invariants of every stored work order.
// It only reports, repairs are left to operators.
type Runner struct {
	source   Source
	pageSize int
	crontab  *cron.Cron
}

func NewRunner(source Source, pageSize int) *Runner {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Runner{source: source, pageSize: pageSize, crontab: cron.New()}
}

// Start schedules full passes, schedule uses the standard cron syntax and descriptors such as "@every 1m".
func (r *Runner) Start(schedule string) error {
	if _, err := r.crontab.AddFunc(schedule, func() {
		if _, err := r.Run(context.Background()); err != nil {
			logrus.Errorf("reconcile: pass aborted: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	r.crontab.Start()
	return nil
}

// Stop stops the scheduler, the returned context is done when a running pass has finished.
func (r *Runner) Stop() context.Context {
	return r.crontab.Stop()
}

// Run checks all work orders once. Work orders that disappear while paging are skipped.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{}
	var after types.ID
	for {
		page, err := r.source.PageWorkOrders(ctx, after, r.pageSize)
		if err != nil {
			logrus.Errorf("reconcile: after = %d, pageSize = %d, err = %v", after, r.pageSize, err)
			return report, err
		}
		if len(page) == 0 {
			break
		}

		for _, wo := range page {
			agg, err := r.source.LoadWorkOrder(ctx, wo.ID)
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				return report, err
			}
			report.Checked++
			if err := domain.CheckInvariants(&agg.WorkOrder, agg.Usages); err != nil {
				report.Violations = append(report.Violations, err)
				logrus.WithFields(logrus.Fields{"workOrderId": wo.ID, "status": agg.WorkOrder.Status}).
					Errorf("reconcile: %v", err)
			}
		}
		after = page[len(page)-1].ID
	}
	logrus.Infof("reconcile: checked %d work orders, %d violations", report.Checked, len(report.Violations))
	return report, nil
}
