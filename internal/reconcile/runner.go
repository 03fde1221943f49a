package reconcile

import (
	"context"
	"time"

	"github.com/safar/go-order-engine/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Runner struct {
	jobs    []Job
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewRunner(jobs []Job, m *metrics.Metrics) *Runner {
	return &Runner{jobs: jobs, metrics: m, now: time.Now}
}

// Run blocks until ctx is cancelled. Each job ticks on its own interval; a
// running iteration is never interrupted, cancellation is only observed
// between iterations.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, job := range r.jobs {
		job := job
		g.Go(func() error {
			r.loop(ctx, job)
			return nil
		})
	}

	return g.Wait()
}

func (r *Runner) loop(ctx context.Context, job Job) {
	log := zap.L().With(zap.String("job", job.Name))
	log.Info("sweep started", zap.Duration("interval", job.Interval))

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("sweep stopped")
			return
		case <-ticker.C:
			r.runOnce(context.WithoutCancel(ctx), job, log)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context, job Job, log *zap.Logger) {
	if r.metrics != nil {
		r.metrics.SweepRuns.WithLabelValues(job.Name).Inc()
	}

	n, err := job.Run(ctx, r.now())
	if err != nil {
		log.Error("sweep iteration failed", zap.Error(err))
		if r.metrics != nil {
			r.metrics.SweepFailures.WithLabelValues(job.Name).Inc()
		}
		return
	}

	if r.metrics != nil && n > 0 {
		r.metrics.SweepProcessed.WithLabelValues(job.Name).Add(float64(n))
	}
}
