package refinery

import (
	"context"
	"time"

	"github.com/openmool/openmool/internal/logging"
	"github.com/panjf2000/ants/v2"
)

// Dispatcher fires pipeline runs on a detached worker pool so the
// upload-completion response never waits on enrichment. Submission is
// non-blocking: when every worker is busy the job is rejected and the
// artifact stays processed=false, recoverable via reprocessing.
type Dispatcher struct {
	pipeline *Pipeline
	pool     *ants.Pool
	timeout  time.Duration
	logger   logging.Logger
}

// NewDispatcher builds a dispatcher with the given pool size. jobTimeout
// bounds one full pipeline run.
func NewDispatcher(pipeline *Pipeline, poolSize int, jobTimeout time.Duration, logger logging.Logger) (*Dispatcher, error) {
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		pipeline: pipeline,
		pool:     pool,
		timeout:  jobTimeout,
		logger:   logger.With("component", "refinery-dispatcher"),
	}, nil
}

// Dispatch enqueues one pipeline run and returns immediately. The run gets
// a fresh detached context so it survives the originating HTTP request.
func (d *Dispatcher) Dispatch(job Job) error {
	err := d.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		d.pipeline.Process(ctx, job)
	})
	if err != nil {
		d.logger.Error(context.Background(), "failed to dispatch enrichment",
			"artifact_id", job.ArtifactID, "err", err)
		return err
	}
	return nil
}

// Close drains the pool, letting in-flight runs finish for up to the given
// grace period.
func (d *Dispatcher) Close(grace time.Duration) {
	if err := d.pool.ReleaseTimeout(grace); err != nil {
		d.logger.Warn(context.Background(), "enrichment pool released with jobs still running", "err", err)
	}
}
