package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conduitedeprojet/testrunner/internal/infrastructure/config"
	"github.com/conduitedeprojet/testrunner/internal/sandbox"
)

// exitError ends the process with code without printing anything more
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "harness",
		Short:         "Run JavaScript programs against their tests in the sandbox",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("env", ".env", "Optional dotenv file")
	root.PersistentFlags().Duration("timeout", 0, "Per-run deadline (overrides SANDBOX_TIMEOUT)")
	root.PersistentFlags().Int64("max-iterations", 0, "Loop guard budget (overrides SANDBOX_MAX_ITERATIONS)")
	root.PersistentFlags().Bool("no-color", false, "Disable colored output")

	root.AddCommand(
		runCmd(),
		suiteCmd(),
		watchCmd(),
		remoteCmd(),
	)
	return root
}

// loadConfig reads the environment and applies the persistent flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env")
	cfg, err := config.LoadWithDotenv(envFile)
	if err != nil {
		return nil, err
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.Sandbox.Timeout = timeout
	}
	if n, _ := cmd.Flags().GetInt64("max-iterations"); n > 0 {
		cfg.Sandbox.MaxIterations = n
	}
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		disableColor()
	}
	return cfg, nil
}

func newPool(cfg *config.Config) *sandbox.Pool {
	return sandbox.NewPoolFromConfig(sandbox.Config{
		Limits: sandbox.Limits{
			Timeout:       cfg.Sandbox.Timeout,
			MaxIterations: cfg.Sandbox.MaxIterations,
			MaxCallStack:  cfg.Sandbox.MaxCallStack,
		},
		MaxParallel:    cfg.Sandbox.Parallel,
		AcquireTimeout: cfg.Sandbox.AcquireTimeout,
	})
}
