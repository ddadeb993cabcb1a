package types

import (
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
)

// Candidate is one generated keypair and its derived address
type Candidate struct {
	PrivateKey *btcec.PrivateKey
	Address    string
}

// Result represents a search result
type Result struct {
	PrivateKey string // WIF, compressed mainnet
	Address    string
	WorkerID   int
	Attempts   uint64
	Duration   time.Duration
}

// WorkerConfig contains configuration for individual workers
type WorkerConfig struct {
	// Full target prefix including the fixed "bc1q" segment
	Prefix string

	// Iterations buffered locally before flushing to the shared counter
	// and polling the stop flag.
	BatchSize uint64

	// Iterations between progress lines; must be a multiple of BatchSize
	// so the reporter sees a counter that already includes its own flushes.
	ReportInterval uint64
}
