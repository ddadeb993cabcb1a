package miner

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/screa/bc1q-miner/internal/config"
	"github.com/screa/bc1q-miner/internal/crypto"
	"github.com/screa/bc1q-miner/internal/logger"
	"github.com/screa/bc1q-miner/pkg/progress"
	"github.com/screa/bc1q-miner/pkg/types"
	"github.com/screa/bc1q-miner/pkg/worker"
)

// Miner coordinates the search workers
type Miner struct {
	config  *config.Config
	logger  *logger.Logger
	counter progress.Counter
	stop    progress.StopFlag
	result  atomic.Pointer[types.Result]
	wg      sync.WaitGroup

	newGenerator func() worker.Generator
	announcer    worker.Announcer
	reporter     worker.Reporter
}

// Option customizes a Miner
type Option func(*Miner)

// WithGenerator replaces the candidate source. The factory is called once per worker.
func WithGenerator(factory func() worker.Generator) Option {
	return func(m *Miner) { m.newGenerator = factory }
}

// WithAnnouncer replaces the result sink
func WithAnnouncer(a worker.Announcer) Option {
	return func(m *Miner) { m.announcer = a }
}

// WithReporter replaces the progress reporter given to worker 0
func WithReporter(r worker.Reporter) Option {
	return func(m *Miner) { m.reporter = r }
}

// NewMiner creates a new miner instance
func NewMiner(cfg *config.Config, log *logger.Logger, opts ...Option) *Miner {
	m := &Miner{
		config: cfg,
		logger: log,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.newGenerator == nil {
		m.newGenerator = func() worker.Generator { return crypto.NewGenerator() }
	}
	if m.announcer == nil {
		m.announcer = worker.NewConsoleAnnouncer(os.Stdout)
	}
	return m
}

// Mine validates the configuration, runs the workers and blocks until all of
// them have stopped. It returns the first result found, or nil when stopped
// without a match. Validation errors are returned before any worker starts.
// Worker errors are returned only when no result was found.
func (m *Miner) Mine() (*types.Result, error) {
	if err := m.config.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	prefix := m.config.Prefix()
	workers := m.config.WorkerCount()
	wcfg := &types.WorkerConfig{
		Prefix:         prefix,
		BatchSize:      m.config.BatchSize,
		ReportInterval: m.config.ReportInterval,
	}

	reporter := m.reporter
	if reporter == nil {
		reporter = progress.NewReporter(prefix, m.logger)
	}

	m.logger.Printf("checking prefix %s with %d workers", prefix, workers)

	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		var r worker.Reporter
		if i == 0 {
			r = reporter
		}
		w := worker.NewWorker(i, wcfg, m.newGenerator(), &m.counter, &m.stop, r, m.announcer)

		m.wg.Add(1)
		go func(i int) {
			defer m.wg.Done()
			res, err := w.Run()
			if res != nil {
				m.result.CompareAndSwap(nil, res)
			}
			errs[i] = err
		}(i)
	}

	m.wg.Wait()

	err := errors.Join(errs...)
	res := m.result.Load()
	if res == nil {
		return nil, err
	}

	// A key already announced is the answer; late worker failures are
	// reported but do not turn the run into a failure.
	if err != nil {
		m.logger.Errorf("%v", err)
	}
	res.Duration = time.Since(start)
	return res, nil
}

// Stop raises the shared stop flag; workers exit at their next batch boundary
func (m *Miner) Stop() {
	m.stop.Raise()
}

// Attempts returns the shared counter value
func (m *Miner) Attempts() uint64 {
	return m.counter.Load()
}
