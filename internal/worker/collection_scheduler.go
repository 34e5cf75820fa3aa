package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/LizBugFree/network-monitor-demo/internal/config"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/logger"
	"github.com/LizBugFree/network-monitor-demo/internal/services"
)

// Scheduled job names
const (
	JobNetwork = "network"
	JobMetrics = "metrics"
)

// NetworkRunner runs one network collection cycle
type NetworkRunner interface {
	Run(ctx context.Context, projectID string) (*services.NetworkCycleResult, error)
}

// MetricsRunner runs one metrics collection cycle
type MetricsRunner interface {
	Run(ctx context.Context, projectID string, durationMinutes int) (*services.MetricsCycleResult, error)
}

// CollectionScheduler triggers both collection cycles on cron schedules.
// A run that is still in progress when its next tick fires is skipped.
type CollectionScheduler struct {
	network   NetworkRunner
	metrics   MetricsRunner
	projectID string
	duration  int
	logger    *logger.Logger

	cron    *cron.Cron
	entries map[string]cron.EntryID
	baseCtx context.Context
	done    chan struct{}
}

// NewCollectionScheduler validates the schedules and registers both jobs.
// An empty schedule disables its job.
func NewCollectionScheduler(
	network NetworkRunner,
	metrics MetricsRunner,
	cfg config.SchedulerConfig,
	projectID string,
	log *logger.Logger,
) (*CollectionScheduler, error) {
	log = log.Component("scheduler")
	cl := cronLogger{log: log}

	s := &CollectionScheduler{
		network:   network,
		metrics:   metrics,
		projectID: projectID,
		duration:  cfg.MetricsDuration,
		logger:    log,
		cron:      cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		entries:   make(map[string]cron.EntryID),
		baseCtx:   context.Background(),
		done:      make(chan struct{}),
	}

	jobs := []struct {
		name     string
		schedule string
		run      func(context.Context) error
	}{
		{JobNetwork, cfg.NetworkSchedule, s.RunNetwork},
		{JobMetrics, cfg.MetricsSchedule, s.RunMetrics},
	}
	for _, j := range jobs {
		if j.schedule == "" {
			log.With("job", j.name).Info("Job disabled: empty schedule")
			continue
		}
		if _, err := cron.ParseStandard(j.schedule); err != nil {
			return nil, fmt.Errorf("invalid %s schedule %q: %w", j.name, j.schedule, err)
		}
		run := j.run
		// Cycles outlive shutdown so a half-written snapshot is never left behind
		id, err := s.cron.AddFunc(j.schedule, func() { _ = run(context.WithoutCancel(s.baseCtx)) })
		if err != nil {
			return nil, fmt.Errorf("failed to schedule %s job: %w", j.name, err)
		}
		s.entries[j.name] = id
	}

	return s, nil
}

// Start runs the scheduler until ctx is cancelled, then waits for
// in-flight cycles to finish. Cancelling ctx stops new runs but does not
// cancel a running cycle. Done is closed when Start returns.
func (s *CollectionScheduler) Start(ctx context.Context) {
	defer close(s.done)
	s.baseCtx = ctx
	s.cron.Start()
	s.logger.WithFields(map[string]interface{}{
		"project_id": s.projectID,
		"next_runs":  s.NextRuns(),
	}).Info("Collection scheduler started")

	<-ctx.Done()

	<-s.cron.Stop().Done()
	s.logger.Info("Collection scheduler stopped")
}

// Done is closed once Start has returned and no cycle is running
func (s *CollectionScheduler) Done() <-chan struct{} {
	return s.done
}

// NextRuns returns the next activation time of each job
func (s *CollectionScheduler) NextRuns() map[string]time.Time {
	next := make(map[string]time.Time, len(s.entries))
	for name, id := range s.entries {
		next[name] = s.cron.Entry(id).Next
	}
	return next
}

// RunNetwork runs one network cycle and logs its outcome
func (s *CollectionScheduler) RunNetwork(ctx context.Context) error {
	if s.projectID == "" {
		s.logger.Warn("Skipping scheduled network collection: no project configured")
		return nil
	}

	start := time.Now()
	res, err := s.network.Run(ctx, s.projectID)
	if err != nil {
		s.logger.With("job", JobNetwork).ErrorWithErr(err, "Scheduled network collection failed")
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"job":            JobNetwork,
		"timestamp":      res.Timestamp,
		"networks":       res.ResourcesCollected.Networks,
		"subnetworks":    res.ResourcesCollected.Subnetworks,
		"firewall_rules": res.ResourcesCollected.FirewallRules,
		"failed_sources": res.FailedSources,
		"duration_ms":    time.Since(start).Milliseconds(),
	}).Info("Scheduled network collection completed")
	return nil
}

// RunMetrics runs one metrics cycle over the configured window and logs its outcome
func (s *CollectionScheduler) RunMetrics(ctx context.Context) error {
	if s.projectID == "" {
		s.logger.Warn("Skipping scheduled metrics collection: no project configured")
		return nil
	}

	start := time.Now()
	res, err := s.metrics.Run(ctx, s.projectID, s.duration)
	if err != nil {
		s.logger.With("job", JobMetrics).ErrorWithErr(err, "Scheduled metrics collection failed")
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"job":            JobMetrics,
		"timestamp":      res.Timestamp,
		"total_metrics":  res.TotalMetricsCollected,
		"failed_sources": res.FailedSources,
		"duration_ms":    time.Since(start).Milliseconds(),
	}).Info("Scheduled metrics collection completed")
	return nil
}

// cronLogger routes cron's own messages through the application logger
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(toFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(toFields(keysAndValues)).ErrorWithErr(err, msg)
}

func toFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
