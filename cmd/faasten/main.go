package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ddaud1/faasten-host/internal/config"
	"github.com/ddaud1/faasten-host/internal/metrics"
	"github.com/ddaud1/faasten-host/internal/obslog"
	"github.com/ddaud1/faasten-host/internal/session"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "faasten [module.wasm]",
	Short: "Run one confidential function-as-a-service invocation",
	Long: `faasten loads a single WASM module, grants it the requested
privilege, and mediates every directory, blob, and invocation syscall
it makes through the information-flow-control monitor before tearing
the session down.`,
	Version: Version,
	Args:    cobra.ExactArgs(1),
	RunE:    runSession,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("faasten version %s\nCommit: %s\n", Version, Commit))

	rootCmd.Flags().String("log-level", "", "Log level (debug, info, warn, error); falls back to FAASTEN_LOG")
	rootCmd.Flags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.Flags().String("data-dir", ".", "Directory for the persistent labeled store")
	rootCmd.Flags().String("blob-dir", ".", "Directory for the content-addressed blob store")
	rootCmd.Flags().String("privilege", "T", "Privilege component granted to this session")
	rootCmd.Flags().String("scheduler-addr", "", "Scheduler address for gate invocation (empty disables gates)")
	rootCmd.Flags().String("metrics-out", "", "Path to dump Prometheus text-format metrics after the run (empty disables)")
	rootCmd.Flags().String("config", "", "Optional YAML file overriding the above")
}

func runSession(cmd *cobra.Command, args []string) error {
	wasmPath := args[0]

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	obslog.Init(obslog.Config{Level: obslog.Level(cfg.LogLevel), JSONOutput: cfg.LogJSON})

	m := metrics.New()
	ctx := context.Background()

	sess, err := session.Open(ctx, cfg, m)
	if err != nil {
		return fmt.Errorf("faasten: %w", err)
	}
	defer sess.Close(ctx)

	result := sess.Run(ctx, wasmPath)

	if cfg.MetricsOutPath != "" {
		if err := m.DumpToFile(cfg.MetricsOutPath); err != nil {
			obslog.Logger.Warn().Err(err).Msg("failed to dump metrics")
		}
	}

	if result.Label != nil {
		obslog.Logger.Info().Str("final_label", result.Label.String()).Msg("session complete")
	}

	if result.Code != 0 {
		return fmt.Errorf("faasten: guest module run failed")
	}
	return nil
}

func buildConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadOverride(cfg, configPath)
	if err != nil {
		return cfg, err
	}

	dataDir, _ := cmd.Flags().GetString("data-dir")
	blobDir, _ := cmd.Flags().GetString("blob-dir")
	privilege, _ := cmd.Flags().GetString("privilege")
	schedulerAddr, _ := cmd.Flags().GetString("scheduler-addr")
	metricsOut, _ := cmd.Flags().GetString("metrics-out")
	logJSON, _ := cmd.Flags().GetBool("log-json")
	logLevel, _ := cmd.Flags().GetString("log-level")

	cfg.DataDir = dataDir
	cfg.BlobBaseDir = blobDir
	cfg.PrivilegeSeed = privilege
	cfg.SchedulerAddr = schedulerAddr
	cfg.MetricsOutPath = metricsOut
	cfg.LogJSON = logJSON

	if logLevel != "" {
		cfg.LogLevel = logLevel
	} else if envLevel, ok := config.EnvLogLevelFallback(); ok {
		cfg.LogLevel = envLevel
	}

	return cfg, nil
}
