package miner

import (
	"bytes"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/fatih/color"

	"github.com/screa/bc1q-miner/internal/config"
	"github.com/screa/bc1q-miner/internal/crypto"
	"github.com/screa/bc1q-miner/internal/logger"
	"github.com/screa/bc1q-miner/pkg/types"
	"github.com/screa/bc1q-miner/pkg/worker"
)

var testKey, _ = btcec.PrivKeyFromBytes(bytes.Repeat([]byte{0x02}, 32))

// cyclingGenerator walks every two-character suffix, so any two-character
// target is reached within 1024 calls.
type cyclingGenerator struct {
	n uint64
}

func (g *cyclingGenerator) Generate() (types.Candidate, error) {
	i := g.n
	g.n++
	addr := crypto.RequiredPrefix + string(crypto.Charset[i%32]) + string(crypto.Charset[(i/32)%32]) + "qqqq"
	return types.Candidate{PrivateKey: testKey, Address: addr}, nil
}

// neverGenerator yields addresses that cannot match a bc1q prefix
type neverGenerator struct{}

func (neverGenerator) Generate() (types.Candidate, error) {
	return types.Candidate{PrivateKey: testKey, Address: "tb1qnever"}, nil
}

type failingGenerator struct{ err error }

func (g failingGenerator) Generate() (types.Candidate, error) {
	return types.Candidate{}, g.err
}

func testConfig(suffix string, workers int) *config.Config {
	cfg := config.NewConfig()
	cfg.Suffix = suffix
	cfg.HasSuffix = true
	cfg.Workers = workers
	cfg.BatchSize = 100
	cfg.ReportInterval = 1000
	return cfg
}

func TestNewMiner(t *testing.T) {
	cfg := testConfig("zz", 1)
	miner := NewMiner(cfg, logger.Discard())
	if miner == nil {
		t.Fatal("NewMiner returned nil")
	}
	if miner.config != cfg {
		t.Error("Config not set correctly")
	}
	if miner.newGenerator == nil || miner.announcer == nil {
		t.Error("default generator and announcer should be set")
	}
}

func TestMineFindsSingleResult(t *testing.T) {
	color.NoColor = true

	var out bytes.Buffer
	miner := NewMiner(testConfig("zz", 4), logger.Discard(),
		WithGenerator(func() worker.Generator { return &cyclingGenerator{} }),
		WithAnnouncer(worker.NewConsoleAnnouncer(&out)),
	)

	result, err := miner.Mine()
	if err != nil {
		t.Fatalf("Mine() error: %v", err)
	}
	if result == nil {
		t.Fatal("Mine() returned no result")
	}
	if !strings.HasPrefix(result.Address, "bc1qzz") {
		t.Errorf("Address = %s, want bc1qzz prefix", result.Address)
	}
	if n := strings.Count(out.String(), "result:"); n != 1 {
		t.Errorf("printed %d result blocks, want 1:\n%s", n, out.String())
	}
	if !strings.Contains(out.String(), "address:\t"+result.Address) {
		t.Errorf("printed block does not carry the returned address:\n%s", out.String())
	}
}

func TestMineRejectsInvalidSuffixBeforeSpawning(t *testing.T) {
	var spawned atomic.Int32
	miner := NewMiner(testConfig("!", 4), logger.Discard(),
		WithGenerator(func() worker.Generator {
			spawned.Add(1)
			return neverGenerator{}
		}),
	)

	result, err := miner.Mine()
	var invalid *config.InvalidCharError
	if !errors.As(err, &invalid) || invalid.Char != '!' {
		t.Fatalf("Mine() error = %v, want invalid char '!'", err)
	}
	if result != nil {
		t.Errorf("Mine() result = %+v, want nil", result)
	}
	if spawned.Load() != 0 {
		t.Errorf("%d workers were created for an invalid suffix", spawned.Load())
	}
}

func TestStopBeforeMineEndsAfterOneBatch(t *testing.T) {
	miner := NewMiner(testConfig("zz", 3), logger.Discard(),
		WithGenerator(func() worker.Generator { return neverGenerator{} }),
	)
	miner.Stop()

	result, err := miner.Mine()
	if err != nil || result != nil {
		t.Fatalf("Mine() = %v, %v; want nil, nil", result, err)
	}
	if miner.Attempts() != 0 {
		t.Errorf("Attempts() = %d, want 0", miner.Attempts())
	}
}

func TestMinePropagatesGeneratorFailure(t *testing.T) {
	errEntropy := errors.New("entropy source exhausted")
	miner := NewMiner(testConfig("zz", 2), logger.Discard(),
		WithGenerator(func() worker.Generator { return failingGenerator{err: errEntropy} }),
	)

	if _, err := miner.Mine(); !errors.Is(err, errEntropy) {
		t.Errorf("Mine() error = %v, want %v", err, errEntropy)
	}
}

// matchFirstGenerator matches on its very first call
type matchFirstGenerator struct{}

func (matchFirstGenerator) Generate() (types.Candidate, error) {
	return types.Candidate{PrivateKey: testKey, Address: "bc1qzzfound"}, nil
}

func TestResultWinsOverLateWorkerFailure(t *testing.T) {
	color.NoColor = true
	errEntropy := errors.New("entropy source exhausted")

	var out, diag bytes.Buffer
	var created atomic.Int32
	miner := NewMiner(testConfig("zz", 2), logger.NewWriter(&bytes.Buffer{}, &diag),
		WithGenerator(func() worker.Generator {
			// worker 0 matches, worker 1 fails; both finish their first call
			if created.Add(1) == 1 {
				return matchFirstGenerator{}
			}
			return failingGenerator{err: errEntropy}
		}),
		WithAnnouncer(worker.NewConsoleAnnouncer(&out)),
	)

	result, err := miner.Mine()
	if err != nil {
		t.Fatalf("Mine() error = %v, want nil once a key was announced", err)
	}
	if result == nil || result.Address != "bc1qzzfound" {
		t.Fatalf("Mine() result = %+v, want bc1qzzfound", result)
	}
	if !strings.Contains(diag.String(), errEntropy.Error()) {
		t.Errorf("worker failure should still be reported, diagnostics: %q", diag.String())
	}
	if strings.Count(out.String(), "result:") != 1 {
		t.Errorf("want one result block, got:\n%s", out.String())
	}
}

func TestDesignatedWorkerReportsProgress(t *testing.T) {
	var logs bytes.Buffer
	log := logger.NewWriter(&logs, &logs)
	log.SetFlags(0)

	cfg := testConfig("zz", 1)
	cfg.BatchSize = 64
	cfg.ReportInterval = 128

	// suffix "zz" appears at call 66 of each cycle; delay it past the report interval
	miner := NewMiner(cfg, log,
		WithGenerator(func() worker.Generator { return &cyclingGenerator{n: 67} }),
		WithAnnouncer(worker.NewConsoleAnnouncer(&bytes.Buffer{})),
	)

	if _, err := miner.Mine(); err != nil {
		t.Fatalf("Mine() error: %v", err)
	}

	// the match lands on call 1024, a multiple of the report interval
	if lines := strings.Count(logs.String(), "count: "); lines != 8 {
		t.Fatalf("got %d progress lines, want 8:\n%s", lines, logs.String())
	}
	if !strings.Contains(logs.String(), "count: 1024\t") {
		t.Errorf("last progress line should see the flushed counter:\n%s", logs.String())
	}
	if !strings.Contains(logs.String(), "checking prefix bc1qzz with 1 workers") {
		t.Errorf("missing startup line:\n%s", logs.String())
	}
}
