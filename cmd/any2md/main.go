// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the any2md CLI, which batch-converts
// documents (PDF, PowerPoint, Word, plain text) into Markdown and tracks
// processed files in a registry so incremental runs only touch changed
// inputs.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/any2md/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd runs one batch conversion. Subcommands cover watch mode and
// registry maintenance.
var rootCmd = &cobra.Command{
	Use:   "any2md",
	Short: "Convert documents to Markdown, incrementally",
	Long: `any2md scans a source directory for documents (.txt, .md, .markdown,
.ppt, .pptx, .doc, .docx, .pdf) and converts each one to a Markdown file
under the processed directory, mirroring the source tree.

With --incremental, a persisted registry of fingerprints is consulted so
only new or changed files (or files whose output was deleted) are
reconverted. Per-file failures are reported in the summary and never abort
the batch.`,
	SilenceUsage: true,
	RunE:         runBatch,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./any2md.yaml or ~/.config/any2md/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "diagnostic verbosity: debug, info, warn, or error")

	addRunFlags(rootCmd)
}

// addRunFlags registers the conversion flags shared by the root and watch
// commands.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("source-dir", "source", "root directory to scan for documents")
	cmd.Flags().String("processed-dir", "processed", "root directory for Markdown output")
	cmd.Flags().Bool("incremental", false, "skip files whose registry fingerprint is unchanged")
	cmd.Flags().String("backend", string(types.BackendMarkitdown), "conversion backend: markitdown or native")
	cmd.Flags().String("markitdown-image", "", "container image for the markitdown backend")
	cmd.Flags().Bool("frontmatter", false, "prepend a YAML provenance header to each output file")
	cmd.Flags().StringSlice("ignore", nil, "doublestar glob excluded from scanning (repeatable)")
	cmd.Flags().String("registry-backend", string(types.RegistryJSON), "registry persistence: json or sqlite")
	cmd.Flags().String("registry-path", "", "registry file location (default: under the processed directory)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("any2md")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "any2md"))
		}
	}

	viper.SetEnvPrefix("ANY2MD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the leveled diagnostic logger. The level only affects
// log verbosity, never conversion behavior.
func newLogger(cmd *cobra.Command) *log.Logger {
	levelName, _ := cmd.Flags().GetString("log-level")
	level, err := log.ParseLevel(levelName)
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "any2md",
	})
}

// flagOrConfig returns the flag value when set on the command line, falling
// back to the viper key (config file or ANY2MD_* environment).
func flagOrConfig(cmd *cobra.Command, flag, key string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	v, _ := cmd.Flags().GetString(flag)
	return v
}

// buildConfig materializes the full tool configuration from flags, config
// file, and environment. Everything downstream receives this struct
// explicitly.
func buildConfig(cmd *cobra.Command) types.ToolConfig {
	sourceDir := flagOrConfig(cmd, "source-dir", "scan.source_dir")
	processedDir := flagOrConfig(cmd, "processed-dir", "conversion.processed_dir")

	incremental, _ := cmd.Flags().GetBool("incremental")
	if !cmd.Flags().Changed("incremental") && viper.IsSet("conversion.incremental") {
		incremental = viper.GetBool("conversion.incremental")
	}
	frontmatter, _ := cmd.Flags().GetBool("frontmatter")
	if !cmd.Flags().Changed("frontmatter") && viper.IsSet("conversion.frontmatter") {
		frontmatter = viper.GetBool("conversion.frontmatter")
	}

	ignore, _ := cmd.Flags().GetStringSlice("ignore")
	if len(ignore) == 0 && viper.IsSet("scan.ignore_patterns") {
		ignore = viper.GetStringSlice("scan.ignore_patterns")
	}

	debounce := viper.GetDuration("watch.debounce")
	if f := cmd.Flags().Lookup("debounce"); f != nil && cmd.Flags().Changed("debounce") {
		debounce, _ = cmd.Flags().GetDuration("debounce")
	}

	return types.ToolConfig{
		Scan: types.ScanConfig{
			SourceDir:      sourceDir,
			IgnorePatterns: ignore,
			IgnoreFile:     viper.GetString("scan.ignore_file"),
		},
		Conversion: types.ConversionConfig{
			Backend:         types.ConversionBackend(flagOrConfig(cmd, "backend", "conversion.backend")),
			ProcessedDir:    processedDir,
			Incremental:     incremental,
			Frontmatter:     frontmatter,
			MarkitdownImage: flagOrConfig(cmd, "markitdown-image", "conversion.markitdown_image"),
		},
		Registry: types.RegistryConfig{
			Backend: types.RegistryBackend(flagOrConfig(cmd, "registry-backend", "registry.backend")),
			Path:    flagOrConfig(cmd, "registry-path", "registry.path"),
		},
		Watch: types.WatchConfig{
			Debounce: debounce,
		},
	}
}

// ensureDirs verifies the source directory exists and creates the processed
// directory. These are the only fatal setup conditions for a run.
func ensureDirs(cfg types.ToolConfig) error {
	info, err := os.Stat(cfg.Scan.SourceDir)
	if err != nil {
		return fmt.Errorf("source directory %s: %w", cfg.Scan.SourceDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source path %s is not a directory", cfg.Scan.SourceDir)
	}
	if err := os.MkdirAll(cfg.Conversion.ProcessedDir, 0o755); err != nil {
		return fmt.Errorf("creating processed directory: %w", err)
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg := buildConfig(cmd)
	logger := newLogger(cmd)

	if err := ensureDirs(cfg); err != nil {
		return err
	}

	runner, store, err := newRunner(cfg, logger, os.Stdout)
	if err != nil {
		return err
	}
	defer store.Close()

	start := time.Now()
	summary, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	logger.Info("run finished",
		"run", summary.RunID,
		"converted", summary.Converted,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"elapsed", time.Since(start).Round(time.Millisecond))

	// Per-file failures are reported, not fatal: the process still exits 0.
	if summary.HasFailures() {
		logger.Warn("some files failed; they will be retried on the next run", "failed", summary.Failed)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
