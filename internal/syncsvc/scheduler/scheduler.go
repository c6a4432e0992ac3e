package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
	log "github.com/sirupsen/logrus"
)

const DefaultInterval = 24 * time.Hour

var (
	ErrAlreadyStarted = errors.New("scheduler already started")
	ErrStopped        = errors.New("scheduler stopped")
)

// Runner is one catalog synchronization pass.
type Runner interface {
	Run(ctx context.Context) (models.SyncReport, error)
}

type State int32

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// ReportHook is called after every completed or failed run.
type ReportHook func(report models.SyncReport, err error)

type Option func(*Scheduler)

func WithReportHook(h ReportHook) Option {
	return func(s *Scheduler) { s.onReport = h }
}

// Scheduler runs the synchronizer once on start, on every interval tick and
// on manual triggers. Runs never overlap: a tick that arrives while a run is
// in progress is dropped.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	onReport ReportHook

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}

	stopCh   chan struct{}
	stopOnce sync.Once
	trigger  chan struct{}
	state    atomic.Int32
}

func New(runner Runner, interval time.Duration, opts ...Option) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Scheduler{
		runner:   runner,
		interval: interval,
		stopCh:   make(chan struct{}),
		trigger:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the background loop. The first run begins immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.stopCh:
		return ErrStopped
	default:
	}
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	log.WithField("interval", s.interval.String()).Info("catalog sync scheduler started")
	go s.loop(ctx)
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	lastFinished := s.runOnce(ctx, "startup")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case tick := <-ticker.C:
			if tick.Before(lastFinished) {
				log.WithField("tick", tick.Format(time.RFC3339)).Info("sync tick arrived during a run, skipped")
				continue
			}
			lastFinished = s.runOnce(ctx, "tick")
		case <-s.trigger:
			lastFinished = s.runOnce(ctx, "manual")
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, reason string) time.Time {
	s.state.Store(int32(Running))
	defer s.state.Store(int32(Idle))

	logger := log.WithField("reason", reason)
	logger.Info("catalog sync run starting")

	report, err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, models.ErrSyncInProgress):
		logger.Info("catalog sync already running, skipped")
	case err != nil:
		logger.WithError(err).Error("catalog sync run failed, retrying on next tick")
	}

	if s.onReport != nil {
		s.onReport(report, err)
	}
	return time.Now()
}

// Trigger requests a run outside the schedule. It reports false when the
// scheduler is not running or a manual run is already queued.
func (s *Scheduler) Trigger() bool {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return false
	}

	select {
	case <-s.stopCh:
		return false
	default:
	}

	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Stop cancels an in-flight run and waits for the loop to exit. Safe to call
// more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)

		s.mu.Lock()
		cancel, done := s.cancel, s.done
		s.mu.Unlock()

		if cancel != nil {
			cancel()
			<-done
		}
		log.Info("catalog sync scheduler stopped")
	})
}

func (s *Scheduler) State() State {
	return State(s.state.Load())
}
