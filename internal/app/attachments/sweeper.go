package attachments

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/talenthive/recruiting_layer/pkg/logger"
)

// Sweeper retries blob deletions that failed inline. Callers enqueue the
// URLs they could not delete; the sweeper drains the queue on a cron
// schedule and re-queues anything that fails again.
type Sweeper struct {
	store    Store
	log      *logger.Logger
	schedule string
	failures prometheus.Counter

	cron *cron.Cron

	mu      sync.Mutex
	pending []string
}

// NewSweeper builds a sweeper over the store. schedule is a cron spec such
// as "@every 5m". failures may be nil.
func NewSweeper(store Store, log *logger.Logger, schedule string, failures prometheus.Counter) *Sweeper {
	if schedule == "" {
		schedule = "@every 5m"
	}
	if log == nil {
		log = logger.NewDefault("attachments")
	}
	return &Sweeper{
		store:    store,
		log:      log.WithField("component", "attachment-sweeper"),
		schedule: schedule,
		failures: failures,
	}
}

func (s *Sweeper) Name() string { return "attachment-sweeper" }

func (s *Sweeper) Start(context.Context) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, func() { s.Sweep(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Sweeper) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Enqueue records URLs whose deletion failed and should be retried.
func (s *Sweeper) Enqueue(urls ...string) {
	if len(urls) == 0 {
		return
	}
	s.mu.Lock()
	s.pending = append(s.pending, urls...)
	s.mu.Unlock()
	if s.failures != nil {
		s.failures.Add(float64(len(urls)))
	}
	s.log.WithField("count", len(urls)).Warn("queued attachment deletions for retry")
}

// Pending reports the number of queued URLs.
func (s *Sweeper) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Sweep drains the queue once, retrying each deletion. URLs that still fail
// go back on the queue for the next pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	var retry []string
	for _, url := range batch {
		if err := s.store.Delete(ctx, url); !Deleted(err) {
			s.log.WithError(err).WithField("url", url).Warn("attachment deletion failed again")
			retry = append(retry, url)
		}
	}
	if len(retry) > 0 {
		s.mu.Lock()
		s.pending = append(s.pending, retry...)
		s.mu.Unlock()
	}
	s.log.WithField("deleted", len(batch)-len(retry)).WithField("requeued", len(retry)).Info("attachment sweep finished")
}
