package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nlpa-go/nlpa/internal/logging"
	"github.com/nlpa-go/nlpa/internal/profiling"
	"github.com/nlpa-go/nlpa/internal/telemetry"
)

var (
	// Global flags
	verbose    bool
	configFile string
	logger     logging.Logger

	// Pprof flags
	pprofEnabled     bool
	pprofMode        string
	pprofDir         string
	pprofProfiles    string
	pprofInterval    string
	pprofCPUDuration string
	pprofCPURate     int
	pprofAddr        string

	pprofCollector    *profiling.Collector
	telemetryShutdown telemetry.ShutdownFunc
)

// rootCmd is both the entry point and the generate command: the spec's
// flat single-dash flag surface reads naturally as shorthand flags on
// one command, the way the original binary takes a flat flag set.
var rootCmd = &cobra.Command{
	Use:   "nlpa",
	Short: "Generate random graphs under the non-linear preferential attachment model",
	Long: `nlpa generates very large random graphs under the Non-Linear Preferential
Attachment (NLPA) model: starting from a seed graph on n0 nodes, it adds
n further nodes one at a time, attaching each to d distinct existing
hosts chosen with probability proportional to w(deg(v)) = deg(v)^e + c.`,
	RunE: runGenerate,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel := logging.LevelInfo
		if verbose {
			logLevel = logging.LevelDebug
		}
		logger = logging.NewDefaultLogger(logLevel, os.Stdout)
		logging.SetGlobalLogger(logger)

		shutdown, err := telemetry.Init(cmd.Context())
		if err != nil {
			logger.Warn("telemetry init failed, continuing without tracing: %v", err)
		} else {
			telemetryShutdown = shutdown
		}

		if pprofEnabled {
			cfg, err := buildPprofConfig()
			if err != nil {
				return err
			}

			collector, err := profiling.NewCollector(cfg)
			if err != nil {
				return err
			}
			if err := collector.Start(); err != nil {
				return err
			}
			pprofCollector = collector
			logger.Info("pprof collection started (mode: %s, dir: %s)", cfg.Mode, cfg.OutputDir)
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if pprofCollector != nil {
			logger.Info("Stopping pprof collection...")
			if err := pprofCollector.Stop(); err != nil {
				logger.Warn("Failed to stop pprof collector: %v", err)
			}
			logger.Info("pprof data saved to: %s", pprofCollector.OutputDir())
		}
		if telemetryShutdown != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := telemetryShutdown(ctx); err != nil {
				logger.Warn("telemetry shutdown failed: %v", err)
			}
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file (defaults: ./config.yaml, ./configs/config.yaml, /etc/nlpa/config.yaml)")

	rootCmd.PersistentFlags().BoolVar(&pprofEnabled, "pprof", false, "Enable pprof performance profiling")
	rootCmd.PersistentFlags().StringVar(&pprofMode, "pprof-mode", "file", "Pprof mode: file (periodic snapshots) or http (on-demand)")
	rootCmd.PersistentFlags().StringVar(&pprofDir, "pprof-dir", "./pprof", "Output directory for pprof data")
	rootCmd.PersistentFlags().StringVar(&pprofProfiles, "pprof-profiles", "cpu,heap,goroutine", "Comma-separated profile types: cpu,heap,goroutine,block,mutex,allocs")
	rootCmd.PersistentFlags().StringVar(&pprofInterval, "pprof-interval", "30s", "Snapshot interval for file mode")
	rootCmd.PersistentFlags().StringVar(&pprofCPUDuration, "pprof-cpu-duration", "10s", "CPU profile duration per snapshot")
	rootCmd.PersistentFlags().IntVar(&pprofCPURate, "pprof-cpu-rate", 100, "CPU profiling rate in Hz (accepted but not applied; the runtime default is used)")
	rootCmd.PersistentFlags().StringVar(&pprofAddr, "pprof-addr", ":6060", "HTTP listen address for http mode")

	registerGenerateFlags(rootCmd)

	binName := BinName()
	rootCmd.Example = `  # Add 100000 nodes with default exponent 1.0 (Barabasi-Albert)
  ` + binName + ` -n 100000

  # Superlinear regime, degree 2, parallel engine with 8 threads
  ` + binName + ` -a par-polypa -n 1000000 -d 2 -e 1.5 -t 8

  # Reproducible run with a fixed seed, emit the degree histogram
  ` + binName + ` -n 10000 -s 42 -r

  # Dump the final degree sequence, zstd-compressed
  ` + binName + ` -n 100000 --degrees-out ./degrees.json.zst --compression zstd

  # Enable pprof CPU/heap profiling during a long run
  ` + binName + ` -n 10000000 -a par-polypa -t 16 --pprof --pprof-profiles cpu,heap`
}

// GetLogger returns the configured logger.
func GetLogger() logging.Logger {
	return logger
}

// BinName returns the base name of the current executable.
func BinName() string {
	return filepath.Base(os.Args[0])
}

func buildPprofConfig() (*profiling.Config, error) {
	cfg := profiling.DefaultConfig()
	cfg.Enabled = true
	cfg.OutputDir = pprofDir

	switch pprofMode {
	case "file":
		cfg.Mode = profiling.ModeFile
	case "http":
		cfg.Mode = profiling.ModeHTTP
	default:
		return nil, fmt.Errorf("invalid pprof mode: %q (valid: file, http)", pprofMode)
	}

	profiles, err := profiling.ParseProfileTypes(pprofProfiles)
	if err != nil {
		return nil, err
	}
	cfg.Profiles = profiles

	interval, err := time.ParseDuration(pprofInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid pprof interval: %w", err)
	}
	cfg.Interval = interval

	cpuDuration, err := time.ParseDuration(pprofCPUDuration)
	if err != nil {
		return nil, fmt.Errorf("invalid pprof CPU duration: %w", err)
	}
	cfg.CPUDuration = cpuDuration
	cfg.CPURate = pprofCPURate

	cfg.Addr = pprofAddr

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
