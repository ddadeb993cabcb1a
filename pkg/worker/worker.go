package worker

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/fatih/color"

	"github.com/screa/bc1q-miner/internal/crypto"
	"github.com/screa/bc1q-miner/pkg/progress"
	"github.com/screa/bc1q-miner/pkg/types"
)

// Generator produces one candidate per call
type Generator interface {
	Generate() (types.Candidate, error)
}

// Reporter is invoked by the designated worker with the shared counter value
type Reporter interface {
	Report(count uint64)
}

// Announcer publishes a found key
type Announcer interface {
	Announce(r *types.Result) error
}

// State of the worker loop
type State int

const (
	Running State = iota
	Stopped
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Worker drives the generate -> check -> report cycle for one goroutine
type Worker struct {
	id        int
	config    *types.WorkerConfig
	gen       Generator
	counter   *progress.Counter
	stop      *progress.StopFlag
	reporter  Reporter // nil unless this worker reports
	announcer Announcer

	state State
	local uint64
}

// NewWorker creates a new worker instance. Pass a nil reporter for every
// worker except the one that should print progress.
func NewWorker(id int, config *types.WorkerConfig, gen Generator, counter *progress.Counter,
	stop *progress.StopFlag, reporter Reporter, announcer Announcer) *Worker {
	return &Worker{
		id:        id,
		config:    config,
		gen:       gen,
		counter:   counter,
		stop:      stop,
		reporter:  reporter,
		announcer: announcer,
		state:     Running,
	}
}

// State returns the current loop state
func (w *Worker) State() State {
	return w.state
}

// Iterations returns the number of candidates this worker generated
func (w *Worker) Iterations() uint64 {
	return w.local
}

// Run loops until the stop flag is observed at a batch boundary or this
// worker finds a match. A generator failure raises the stop flag and is
// returned.
func (w *Worker) Run() (*types.Result, error) {
	batch := w.config.BatchSize
	interval := w.config.ReportInterval

	for w.state == Running {
		cand, err := w.gen.Generate()
		if err != nil {
			w.stop.Raise()
			w.state = Stopped
			return nil, fmt.Errorf("worker %d: %w", w.id, err)
		}
		w.local++

		if w.local%batch == 0 {
			if w.stop.Raised() {
				w.state = Stopped
				return nil, nil
			}
			w.counter.Add(batch)
		}

		if w.reporter != nil && w.local%interval == 0 {
			w.reporter.Report(w.counter.Load())
		}

		if strings.HasPrefix(cand.Address, w.config.Prefix) {
			w.state = Stopped
			return w.found(cand)
		}
	}
	return nil, nil
}

// found announces the match and then raises the stop flag. Deduplication of
// near-simultaneous matches is the announcer's concern.
func (w *Worker) found(cand types.Candidate) (*types.Result, error) {
	defer w.stop.Raise()

	wif, err := crypto.EncodeWIF(cand.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("worker %d: %w", w.id, err)
	}

	result := &types.Result{
		PrivateKey: wif,
		Address:    cand.Address,
		WorkerID:   w.id,
		Attempts:   w.counter.Load() + w.local%w.config.BatchSize,
	}
	if w.announcer != nil {
		if err := w.announcer.Announce(result); err != nil {
			return result, fmt.Errorf("announce result: %w", err)
		}
	}
	return result, nil
}

var headerColor = color.New(color.FgGreen, color.Bold)

// ConsoleAnnouncer prints the result block once; later matches from other
// workers are dropped.
type ConsoleAnnouncer struct {
	out     io.Writer
	printed atomic.Bool
}

// NewConsoleAnnouncer creates an announcer writing to out
func NewConsoleAnnouncer(out io.Writer) *ConsoleAnnouncer {
	return &ConsoleAnnouncer{out: out}
}

// Announce writes the header, the WIF key and the address
func (a *ConsoleAnnouncer) Announce(r *types.Result) error {
	if !a.printed.CompareAndSwap(false, true) {
		return nil
	}
	if _, err := headerColor.Fprintln(a.out, "result:"); err != nil {
		return err
	}
	_, err := fmt.Fprintf(a.out, "privkey:\t%s\naddress:\t%s\n", r.PrivateKey, r.Address)
	return err
}
