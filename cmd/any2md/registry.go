// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/any2md/internal/registry"
	"github.com/pdiddy/any2md/pkg/types"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect and maintain the processed-file registry",
	Long: `Registry manages the persisted record of converted files. Use
subcommands to list entries, export them, or prune entries whose source
files no longer exist. Normal conversion runs never prune.`,
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registry entries",
	RunE:  runRegistryList,
}

var registryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export registry entries as YAML or JSON",
	RunE:  runRegistryExport,
}

var registryPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove entries whose source file no longer exists",
	RunE:  runRegistryPrune,
}

// openStore opens the registry addressed by the shared registry flags,
// without running a batch.
func openStore(cmd *cobra.Command) (registry.Store, error) {
	processedDir := flagOrConfig(cmd, "processed-dir", "conversion.processed_dir")
	cfg := types.RegistryConfig{
		Backend: types.RegistryBackend(flagOrConfig(cmd, "registry-backend", "registry.backend")),
		Path:    flagOrConfig(cmd, "registry-path", "registry.path"),
	}
	return registry.Open(cfg, processedDir, newLogger(cmd))
}

func runRegistryList(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	entries := store.Entries()
	if len(entries) == 0 {
		fmt.Println("Registry is empty.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-50s  %10s  %-20s  %s\n", "Source", "Size", "Processed", "Output")
	for _, e := range entries {
		source := e.SourcePath
		if len(source) > 50 {
			source = "..." + source[len(source)-47:]
		}
		fmt.Fprintf(os.Stdout, "%-50s  %10d  %-20s  %s\n",
			source, e.Fingerprint.Size,
			e.LastProcessedAt.UTC().Format(time.RFC3339), e.OutputPath)
	}
	fmt.Fprintf(os.Stdout, "\n%d entries\n", len(entries))
	return nil
}

func runRegistryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	entries := store.Entries()
	switch format {
	case "yaml", "":
		data, err := yaml.Marshal(entries)
		if err != nil {
			return fmt.Errorf("encoding registry: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
}

func runRegistryPrune(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	pruned := registry.Prune(store)
	if err := store.Save(); err != nil {
		return err
	}

	fmt.Printf("Pruned %d stale entries (%d remain).\n", pruned, store.Len())
	return nil
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	registryCmd.PersistentFlags().String("processed-dir", "processed", "root directory for Markdown output")
	registryCmd.PersistentFlags().String("registry-backend", string(types.RegistryJSON), "registry persistence: json or sqlite")
	registryCmd.PersistentFlags().String("registry-path", "", "registry file location (default: under the processed directory)")

	registryExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	registryCmd.AddCommand(registryListCmd)
	registryCmd.AddCommand(registryExportCmd)
	registryCmd.AddCommand(registryPruneCmd)

	rootCmd.AddCommand(registryCmd)
}
