package workers

import (
	"chunk-relay/contract"
	"chunk-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

const DefaultRestartDelay = 200 * time.Millisecond

var _ contract.ISupervisor = (*Supervisor)(nil)

// Supervisor runs every worker in its own goroutine.
// A worker returning nil is finished for good, a worker failing or panicking
// is restarted after restartDelay until the supervisor context is cancelled.
type Supervisor struct {
	mu           sync.Mutex
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	log          *slog.Logger
	workers      []contract.Worker
	restartDelay time.Duration
	restarts     map[string]int
	stopped      bool
}

func NewSupervisor(log *slog.Logger, restartDelay time.Duration) *Supervisor {
	return &Supervisor{
		log:          log,
		restartDelay: restartDelay,
		restarts:     make(map[string]int),
	}
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Run starts the registered workers and blocks until all of them are gone.
// Stop only cancels the workers started by this supervisor, never the parent ctx.
func (s *Supervisor) Run(ctx context.Context) {
	s.Launch(ctx)
	s.Wait()
	s.Stop()
}

// Launch starts the registered workers and returns once every one of them is accounted for by Wait.
// A supervisor stopped before Launch starts nothing.
func (s *Supervisor) Launch(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		s.log.Debug("Supervisor already stopped, workers not started")
		return
	}

	supervisedCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	for _, worker := range s.workers {
		s.Start(supervisedCtx, worker)
	}
}

// Start runs worker under supervision in a dedicated goroutine.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	name := contract.GetWorkerName(worker)

	go func() {
		defer s.wg.Done()

		for {
			if ctx.Err() != nil {
				s.log.Debug("Worker not restarted, supervisor stopping", "worker", name)
				return
			}

			err := s.runOnce(ctx, name, worker)
			if err == nil {
				s.log.Debug("Worker finished", "worker", name)
				return
			}
			if ctx.Err() != nil {
				s.log.Debug("Worker stopped", "worker", name)
				return
			}

			restarts := s.countRestart(name)
			s.log.Warn("Worker crashed, restarting", "worker", name, "restarts", restarts, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.restartDelay):
			}
		}
	}()
}

func (s *Supervisor) runOnce(ctx context.Context, name string, worker contract.Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Worker panicked", "worker", name, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
	}()
	return worker.Run(ctx)
}

func (s *Supervisor) countRestart(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restarts[name]++
	return s.restarts[name]
}

// Restarts reports how many times the named worker was restarted.
func (s *Supervisor) Restarts(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restarts[name]
}

// Stop cancels every supervised worker. Wait blocks until they returned.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Supervisor) Wait() {
	s.wg.Wait()
}
