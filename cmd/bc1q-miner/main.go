package main

import (
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/screa/bc1q-miner/internal/config"
	"github.com/screa/bc1q-miner/internal/crypto"
	logpkg "github.com/screa/bc1q-miner/internal/logger"
	minerpkg "github.com/screa/bc1q-miner/pkg/miner"
	"github.com/screa/bc1q-miner/pkg/worker"
)

const appName = "bc1q-miner"

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var errTooManyArgs = errors.New("too many arguments")

type app struct {
	cfg       *config.Config
	logger    *logpkg.Logger
	stdout    io.Writer
	args      []string
	minerOpts []minerpkg.Option
}

func newApp(stdout io.Writer, logger *logpkg.Logger, opts ...minerpkg.Option) *app {
	return &app{
		cfg:       config.NewConfig(),
		logger:    logger,
		stdout:    stdout,
		minerOpts: opts,
	}
}

func main() {
	os.Exit(newApp(os.Stdout, logpkg.New()).execute(os.Args[1:]))
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName + " <suffix>",
		Short: "Bitcoin bech32 vanity address miner",
		Long: `Searches for a random Bitcoin keypair whose native SegWit (P2WPKH) address
starts with ` + crypto.RequiredPrefix + ` followed by the given suffix. The suffix may only
contain bech32 characters: ` + crypto.Charset + `.`,
		Args:          suffixArg,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runMiner,
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.logger.ErrWriter())
	cmd.SetFlagErrorFunc(a.flagError)
	return cmd
}

// flagError turns a suffix that looks like a flag (e.g. "-zz") into an
// invalid character error; '-' is not in the alphabet.
func (a *app) flagError(cmd *cobra.Command, err error) error {
	for _, arg := range a.args {
		if arg == "--" {
			break
		}
		if invalid := config.NewInvalidCharError(arg); invalid != nil {
			return invalid
		}
	}
	return err
}

func suffixArg(cmd *cobra.Command, args []string) error {
	switch {
	case len(args) == 0:
		return config.ErrNoSuffix
	case len(args) > 1:
		return errTooManyArgs
	}
	return nil
}

func (a *app) execute(args []string) int {
	a.args = args
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		return a.fail(err)
	}
	return exitOK
}

func (a *app) fail(err error) int {
	var invalid *config.InvalidCharError
	switch {
	case errors.Is(err, config.ErrNoSuffix), errors.Is(err, errTooManyArgs):
		a.logger.Errorf("usage: %s <the address prefix to match>", appName)
		return exitUsage
	case errors.As(err, &invalid):
		a.logger.Errorf("%v", invalid)
		return exitUsage
	default:
		a.logger.Errorf("Error: %v", err)
		return exitFailure
	}
}

func (a *app) runMiner(cmd *cobra.Command, args []string) error {
	a.cfg.Suffix = args[0]
	a.cfg.HasSuffix = true

	opts := append([]minerpkg.Option{
		minerpkg.WithAnnouncer(worker.NewConsoleAnnouncer(a.stdout)),
	}, a.minerOpts...)
	miner := minerpkg.NewMiner(a.cfg, a.logger, opts...)

	// Set up signal handling for Ctrl+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-sigChan:
			a.logger.Println("Received interrupt signal. Stopping workers...")
			miner.Stop()
		case <-done:
		}
	}()

	result, err := miner.Mine()
	if err != nil {
		return err
	}
	if result == nil {
		a.logger.Printf("Search stopped after %d attempts.", miner.Attempts())
		return nil
	}

	// Calculate rate safely
	rate := 0.0
	if result.Duration.Seconds() > 0 {
		rate = float64(result.Attempts) / result.Duration.Seconds()
	}
	a.logger.Printf("Attempts: %d", result.Attempts)
	a.logger.Printf("Duration: %v", result.Duration)
	a.logger.Printf("Rate: %.2f keys/sec", rate)
	return nil
}
