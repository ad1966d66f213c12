package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/specwatch/specwatch/internal/compare"
	"github.com/specwatch/specwatch/internal/config"
	"github.com/specwatch/specwatch/internal/monitor"
	"github.com/specwatch/specwatch/internal/notifier"
	"github.com/specwatch/specwatch/internal/oasdiff"
	"github.com/specwatch/specwatch/internal/source"
	"github.com/specwatch/specwatch/internal/store"
	"github.com/specwatch/specwatch/internal/webhook"
)

var (
	logger            *logrus.Logger
	debug             bool
	outputFile        string
	withWebhookServer bool
	useOasdiff        bool
)

var rootCmd = &cobra.Command{
	Use:   "specwatch",
	Short: "Specwatch - API Specification Change Monitor",
	Long: `Specwatch tracks a versioned OpenAPI specification, reports what changed
between revisions and flags backward-incompatible changes.`,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Perform a single comparison cycle, then exit",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load(logger)
		applyLogLevel(cfg)
		m, err := buildMonitor(cfg)
		if err != nil {
			logger.Errorf("Failed to initialize monitor: %v", err)
			os.Exit(1)
		}

		logger.Info("Performing one-time check...")
		if err := m.CheckOnce(cmd.Context()); err != nil {
			logger.Errorf("Check failed: %v", err)
			os.Exit(1)
		}
		logger.Info("Check complete")
	},
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Monitor the specification on a fixed interval",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load(logger)
		applyLogLevel(cfg)
		m, err := buildMonitor(cfg)
		if err != nil {
			logger.Errorf("Failed to initialize monitor: %v", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if withWebhookServer {
			server := webhook.NewServer(logger, cfg.WebhookSecret)
			go func() {
				if err := server.ListenAndServe(cfg.ServerAddr()); err != nil {
					logger.Errorf("Webhook server failed: %v", err)
				}
			}()
		}

		if err := m.Run(ctx); err != nil && err != context.Canceled {
			logger.Errorf("Monitor stopped with error: %v", err)
			os.Exit(1)
		}
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare [previous spec file] [current spec file]",
	Short: "Compare two local specification files",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load(logger)
		applyLogLevel(cfg)

		previous, err := source.LoadFile(args[0])
		if err != nil {
			logger.Errorf("Failed to load previous spec: %v", err)
			os.Exit(1)
		}
		current, err := source.LoadFile(args[1])
		if err != nil {
			logger.Errorf("Failed to load current spec: %v", err)
			os.Exit(1)
		}

		result, err := buildBackend(cfg).Compare(previous, current)
		if err != nil {
			logger.Errorf("Comparison failed: %v", err)
			os.Exit(1)
		}
		if result == nil {
			logger.Info("No changes detected")
			return
		}

		out := os.Stdout
		if outputFile != "" {
			file, err := os.Create(outputFile)
			if err != nil {
				logger.Errorf("Failed to create output file: %v", err)
				os.Exit(1)
			}
			defer file.Close()
			out = file
		}

		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			logger.Errorf("Failed to write comparison result: %v", err)
			os.Exit(1)
		}

		if result.HasBreakingChanges {
			logger.Warn(result.Summary)
			os.Exit(2)
		}
		logger.Info(result.Summary)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook receiver server",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load(logger)
		applyLogLevel(cfg)
		server := webhook.NewServer(logger, cfg.WebhookSecret)
		if err := server.ListenAndServe(cfg.ServerAddr()); err != nil {
			logger.Errorf("Webhook server failed: %v", err)
			os.Exit(1)
		}
	},
}

// applyLogLevel honors the configured log level unless --debug already
// forced debug output.
func applyLogLevel(cfg *config.Config) {
	if debug {
		return
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
}

// buildBackend selects the comparison backend once, at construction. The
// in-process engine and the oasdiff delegation are never mixed per call.
func buildBackend(cfg *config.Config) compare.Backend {
	if useOasdiff || cfg.UseOasdiff {
		logger.Info("Using oasdiff comparison backend")
		return oasdiff.New(logger, cfg.OasdiffPath, cfg.OasdiffTimeout)
	}
	return compare.NewEngine(logger)
}

func buildMonitor(cfg *config.Config) (*monitor.Monitor, error) {
	st, err := store.New(logger, cfg.StorageDir)
	if err != nil {
		return nil, err
	}
	fetcher := source.New(logger, cfg.SpecURL)
	n := notifier.New(logger, cfg.WebhookURL, cfg.WebhookSecret, cfg.SpecURL)
	return monitor.New(logger, fetcher, st, buildBackend(cfg), n, cfg.CheckInterval), nil
}

func init() {
	// Setup logging
	logger = logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Add global flags
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&useOasdiff, "oasdiff", false,
		"Delegate comparison to the external oasdiff tool")

	// Add command flags
	compareCmd.Flags().StringVarP(&outputFile, "output", "o", "",
		"Output file for the comparison result (default: stdout)")
	monitorCmd.Flags().BoolVar(&withWebhookServer, "webhook-server", false,
		"Run the demo webhook receiver alongside the monitor")

	// Add commands
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(serveCmd)

	// Set log level based on debug flag
	cobra.OnInitialize(func() {
		if debug {
			logger.SetLevel(logrus.DebugLevel)
		}
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
