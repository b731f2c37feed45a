package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"hg-go/internal/app"
	"hg-go/internal/config"
	"hg-go/internal/encryption"
	"hg-go/internal/hg"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an HGApp, unlocking it if stored
// files are encrypted. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "index update").
func newApp(cmd *cobra.Command, operation string) (*app.HGApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	a, err := app.NewHGApp(cmd.Context(), cfg, operation, verbose)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	if a.Encrypted() {
		passphrase, err := readPassphrase("Passphrase: ", false)
		if err == nil {
			err = a.Unlock(passphrase)
		}
		if err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// elapsed wraps err with the time spent since start.
func elapsed(err error, start time.Time) error {
	return fmt.Errorf("%w (after %s)", err, time.Since(start).Truncate(time.Millisecond))
}

var rootCmd = &cobra.Command{
	Use:          "hg",
	Short:        "Media index and catalog tool",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		encrypt, _ := cmd.Flags().GetBool("encrypt")

		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		hostID := uuid.New().String()
		cfg := config.NewConfig(hostID, defaults["base_dir"])

		if encrypt {
			cfg.Encryption.Type = "age"
			passphrase, err := readPassphrase("New passphrase: ", true)
			if err != nil {
				return err
			}
			if err := encryption.NewAgeEncryptor(cfg.Encryption).Setup(passphrase); err != nil {
				return fmt.Errorf("creating keys: %w", err)
			}
		}

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Host ID: %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		if encrypt {
			fmt.Printf("Public key: %s\n", cfg.Encryption.PublicKeyPath)
		}
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Host ID:    %s\n", cfg.HostID)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Storage:    %s\n", cfg.Storage.Type)
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		fmt.Printf("Database:   %s\n", cfg.Database.Name)
		fmt.Printf("Catalog:    %s\n", cfg.Catalog.Name)
		if len(cfg.Indexes) == 0 {
			fmt.Println("\nNo indexes configured.")
			return nil
		}
		fmt.Println("\nIndexes:")
		for _, idx := range cfg.Indexes {
			fmt.Printf("  %-15s %s\n", idx.Name, idx.Base)
		}
		return nil
	},
}

var configIndexAddCmd = &cobra.Command{
	Use:   "add-index NAME [PATH]",
	Short: "Add an indexed directory",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		exclude, _ := cmd.Flags().GetStringSlice("exclude")
		checksum, _ := cmd.Flags().GetBool("checksum")

		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		target := "."
		if len(args) > 1 {
			target = args[1]
		}
		base, err := filepath.Abs(target)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		cfg.Indexes = append(cfg.Indexes, config.IndexConfig{
			Name:     args[0],
			Base:     base,
			Exclude:  exclude,
			Checksum: checksum,
		})
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.WriteToFile(defaults["config_path"], cfg); err != nil {
			return err
		}

		fmt.Printf("Added index %s: %s\n", args[0], base)
		return nil
	},
}

// index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage file indexes",
}

var indexUpdateCmd = &cobra.Command{
	Use:   "update [NAME...]",
	Short: "Rescan indexed directories",
	RunE: func(cmd *cobra.Command, args []string) error {
		checksum, _ := cmd.Flags().GetBool("checksum")
		start := time.Now()

		a, err := newApp(cmd, "index update")
		if err != nil {
			return err
		}
		defer a.Close()

		results, err := a.UpdateIndex(cmd.Context(), args, checksum)
		for _, r := range results {
			fmt.Printf("%-15s +%d ~%d -%d =%d  total %d",
				r.Index, r.Diff.Added, r.Diff.Changed, r.Diff.Removed, r.Diff.Unchanged, r.Total)
			if r.Checksums.Computed > 0 || r.Checksums.Failed > 0 {
				fmt.Printf("  checksums %d (%d failed)", r.Checksums.Computed, r.Checksums.Failed)
			}
			if r.Written {
				fmt.Printf("  journal %s", r.JournalID)
			}
			fmt.Printf("  %s\n", r.Duration.Truncate(time.Millisecond))
		}
		if err != nil {
			return elapsed(err, start)
		}
		return nil
	},
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats NAME",
	Short: "Summarize an index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "index stats")
		if err != nil {
			return err
		}
		defer a.Close()

		stats, types, err := a.IndexStats(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Files:       %d (%d bytes)\n", stats.Files, stats.Bytes)
		fmt.Printf("Directories: %d\n", stats.Dirs)
		fmt.Printf("Symlinks:    %d\n", stats.Symlinks)
		fmt.Printf("Checksums:   %d of %d\n", stats.WithSum, stats.WithSum+stats.WithoutSum)

		names := make([]string, 0, len(types))
		for typ := range types {
			names = append(names, string(typ))
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-10s %d\n", name, types[hg.MediaType(name)])
		}
		return nil
	},
}

var indexTreeCmd = &cobra.Command{
	Use:   "tree NAME",
	Short: "Show the directory tree of an index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		depth, _ := cmd.Flags().GetInt("depth")

		a, err := newApp(cmd, "index tree")
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.IndexTree(args[0], depth)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

var indexJournalsCmd = &cobra.Command{
	Use:   "journals NAME",
	Short: "List the journals of an index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "index journals")
		if err != nil {
			return err
		}
		defer a.Close()

		ids, err := a.ListJournals(args[0])
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Println("No journals.")
			return nil
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

// catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Build and query the media catalog",
}

var catalogBuildCmd = &cobra.Command{
	Use:   "build [INDEX...]",
	Short: "Rebuild the catalog from index snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()

		a, err := newApp(cmd, "catalog build")
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.BuildCatalog(cmd.Context(), args)
		if err != nil {
			return elapsed(err, start)
		}
		fmt.Printf("Catalog built: %d media in %s\n", result.Entries, result.Duration.Truncate(time.Millisecond))
		return nil
	},
}

var catalogQueryCmd = &cobra.Command{
	Use:   "query EXPR",
	Short: "Evaluate a JSONPath expression against the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "catalog query")
		if err != nil {
			return err
		}
		defer a.Close()

		results, err := a.QueryCatalog(args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		for _, r := range results {
			if s, ok := r.(string); ok {
				fmt.Println(s)
				continue
			}
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	},
}

// database command
var databaseCmd = &cobra.Command{
	Use:   "database",
	Short: "Maintain the media database",
}

var databaseUpdateCmd = &cobra.Command{
	Use:   "update [INDEX...]",
	Short: "Merge index journals into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		journal, _ := cmd.Flags().GetString("journal")
		start := time.Now()

		a, err := newApp(cmd, "database update")
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.UpdateDatabase(cmd.Context(), args, journal)
		if errors.Is(err, hg.ErrNoChange) {
			fmt.Println("Nothing to merge.")
			return nil
		}
		if err != nil {
			return elapsed(err, start)
		}

		fmt.Printf("Merged %d journal(s): %d inserted, %d merged, %d deleted, %d total (%s)\n",
			result.Journals, result.Inserted, result.Merged, result.Deleted, result.Total,
			time.Since(start).Truncate(time.Millisecond))
		return nil
	},
}

// preview command
var previewCmd = &cobra.Command{
	Use:   "preview [INDEX...]",
	Short: "Generate missing previews",
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()

		a, err := newApp(cmd, "preview")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.GeneratePreviews(cmd.Context(), args)
		if err != nil {
			return elapsed(err, start)
		}
		fmt.Printf("Generated %d preview(s) in %s\n", n, time.Since(start).Truncate(time.Millisecond))
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "history")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.GetHistory(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt.Valid {
				d := op.FinishedAt.Time.Sub(op.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-15s  %s  %-10s  %-10s  +%d -%d =%d  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Added,
				op.Removed,
				op.Total,
				op.Parameters,
			)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print progress to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().Bool("encrypt", false, "Create an age key pair and encrypt stored files")
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configIndexAddCmd)
	configIndexAddCmd.Flags().StringSliceP("exclude", "e", nil, "Gitignore-style exclude pattern")
	configIndexAddCmd.Flags().Bool("checksum", false, "Compute missing checksums on every update")

	// index subcommands
	indexCmd.AddCommand(indexUpdateCmd)
	indexUpdateCmd.Flags().BoolP("checksum", "c", false, "Compute missing checksums")
	indexCmd.AddCommand(indexStatsCmd)
	indexCmd.AddCommand(indexTreeCmd)
	indexTreeCmd.Flags().IntP("depth", "d", 0, "Maximum depth to show, 0 for all")
	indexCmd.AddCommand(indexJournalsCmd)

	// catalog subcommands
	catalogCmd.AddCommand(catalogBuildCmd)
	catalogCmd.AddCommand(catalogQueryCmd)

	// database subcommands
	databaseCmd.AddCommand(databaseUpdateCmd)
	databaseUpdateCmd.Flags().StringP("journal", "j", "", "Journal id to merge, latest if empty")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(databaseCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
}
