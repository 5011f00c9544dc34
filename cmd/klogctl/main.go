// Command klogctl inspects a klog ring-buffer file from the command line:
// tail it, filter by time window, or initialize a fresh one.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klogstore/klog/pkg/ringstore"
	"github.com/klogstore/klog/pkg/vfs"
)

var cmd struct {
	Path     string
	MaxBytes int32
}

var rootCmd = &cobra.Command{
	Use:   "klogctl",
	Short: "Inspect a klog ring-buffer log file",
}

var tailCmd = &cobra.Command{
	Use:   "tail [count]",
	Short: "Print the most recent records, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		count := int32(20)
		if len(args) == 1 {
			n, err := parseCount(args[0])
			if err != nil {
				return err
			}
			count = n
		}
		return runTail(cmd.Path, cmd.MaxBytes, count)
	},
}

var sinceCmd = &cobra.Command{
	Use:   "since [duration]",
	Short: "Print records newer than now-duration, newest first (default 1h)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		window := time.Hour
		if len(args) == 1 {
			d, err := time.ParseDuration(args[0])
			if err != nil {
				return fmt.Errorf("invalid duration %q: %w", args[0], err)
			}
			window = d
		}
		cutoff := time.Now().Add(-window).UnixMilli()
		return runSince(cmd.Path, cmd.MaxBytes, cutoff)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create (or verify) the ring-buffer file at --path",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runInit(cmd.Path, cmd.MaxBytes)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cmd.Path, "path", "p", "", "Path to the ring-buffer file (required)")
	rootCmd.PersistentFlags().Int32VarP(&cmd.MaxBytes, "max-bytes", "m", 1<<20, "Ring-buffer file size in bytes")
	rootCmd.MarkPersistentFlagRequired("path")

	rootCmd.AddCommand(tailCmd, sinceCmd, initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.SugaredLogger, error) {
	config := zap.NewDevelopmentConfig()
	config.Development = false
	config.Level.SetLevel(zap.WarnLevel)

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.Sugar(), nil
}

func openStore(path string, maxBytes int32) (*ringstore.RingStore, *zap.SugaredLogger, error) {
	log, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	store, err := ringstore.Open(path, ringstore.DefaultConfig(maxBytes), vfs.Native(), ringstore.WithLogger(log))
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return store, log, nil
}

func runInit(path string, maxBytes int32) error {
	store, log, err := openStore(path, maxBytes)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer store.Close()
	fmt.Printf("initialized %s (%d bytes)\n", path, maxBytes)
	return nil
}

func runTail(path string, maxBytes, count int32) error {
	store, log, err := openStore(path, maxBytes)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer store.Close()

	records, err := store.Tail(count)
	if err != nil {
		return fmt.Errorf("tail: %w", err)
	}
	printRecords(records)
	return nil
}

func runSince(path string, maxBytes int32, cutoffMillis int64) error {
	store, log, err := openStore(path, maxBytes)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer store.Close()

	records, err := store.Since(cutoffMillis, 1<<20)
	if err != nil {
		return fmt.Errorf("since: %w", err)
	}
	printRecords(records)
	return nil
}

func printRecords(records []ringstore.LogRecord) {
	for _, r := range records {
		ts := time.UnixMilli(r.TimestampMillis).Local().Format("2006-01-02 15:04:05.000")
		fmt.Printf("[%s] level=%d %s\n", ts, r.Level, r.Message)
	}
}

func parseCount(arg string) (int32, error) {
	var n int32
	if _, err := fmt.Sscanf(arg, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid count %q: %w", arg, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("count must be positive, got %d", n)
	}
	return n, nil
}
