// Command biodatactl drives the admin routes of a running API server: index
// resync, collection checks, test data and exports.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"biodata-platform/internal/adminclient"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	flagServer   = "server"
	flagAdminKey = "admin-key"
	flagTimeout  = "timeout"
	flagAsync    = "async"
	flagCount    = "count"
	flagOutput   = "output"
)

func main() {
	// .env is optional; the API reads the same file.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "biodatactl",
		Short:         "Admin tooling for the biodata API",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	server := os.Getenv("BIODATA_API_URL")
	if server == "" {
		server = "http://localhost:8080"
	}
	root.PersistentFlags().String(flagServer, server, "API base URL (env BIODATA_API_URL)")
	root.PersistentFlags().String(flagAdminKey, os.Getenv("ADMIN_SECRET_KEY"), "Admin key (env ADMIN_SECRET_KEY)")
	root.PersistentFlags().Duration(flagTimeout, 10*time.Minute, "Request timeout")

	root.AddCommand(newSyncCmd(), newCollectionsCmd(), newTestDataCmd(), newExportCmd())
	return root
}

func clientFrom(c *cobra.Command) *adminclient.Client {
	server, _ := c.Flags().GetString(flagServer)
	key, _ := c.Flags().GetString(flagAdminKey)
	timeout, _ := c.Flags().GetDuration(flagTimeout)
	return adminclient.New(server, key, timeout)
}

func newSyncCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "sync",
		Short: "Rebuild the search index from the profile store",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			async, _ := c.Flags().GetBool(flagAsync)
			res, err := clientFrom(c).Sync(c.Context(), async)
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			if res.TaskID != "" {
				fmt.Fprintf(c.OutOrStdout(), "%s (task %s)\n", res.Message, res.TaskID)
				return nil
			}
			fmt.Fprintf(c.OutOrStdout(), "%s: %d/%d indexed", res.Message, res.TotalSynced, res.Total)
			if res.CollectionCreated {
				fmt.Fprint(c.OutOrStdout(), ", collection created")
			}
			fmt.Fprintln(c.OutOrStdout())
			return nil
		},
	}
	c.Flags().Bool(flagAsync, false, "Queue the resync instead of waiting for it")
	return c
}

func newCollectionsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "collections",
		Short: "Inspect or create the search collection",
	}

	c.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List index collections",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cols, err := clientFrom(c).ListCollections(c.Context())
			if err != nil {
				return fmt.Errorf("list collections: %w", err)
			}
			if len(cols) == 0 {
				fmt.Fprintln(c.OutOrStdout(), "no collections")
				return nil
			}
			for _, col := range cols {
				fmt.Fprintf(c.OutOrStdout(), "%s\t%d docs\tsort=%s\n", col.Name, col.NumDocuments, col.DefaultSortingField)
			}
			return nil
		},
	})

	c.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Create the biodata collection if it is missing",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			res, err := clientFrom(c).CreateCollection(c.Context())
			if err != nil {
				return fmt.Errorf("create collection: %w", err)
			}
			fmt.Fprintf(c.OutOrStdout(), "%s: %s (%d docs)\n", res.Message, res.Collection.Name, res.Collection.NumDocuments)
			return nil
		},
	})
	return c
}

func newTestDataCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "test-data",
		Short: "Manage generated test profiles",
	}

	inject := &cobra.Command{
		Use:   "inject",
		Short: "Generate and index test profiles",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			count, _ := c.Flags().GetInt(flagCount)
			res, err := clientFrom(c).InjectTestData(c.Context(), count)
			if err != nil {
				return fmt.Errorf("inject: %w", err)
			}
			fmt.Fprintf(c.OutOrStdout(), "%s (%d indexed)\n", res.Message, res.Data.Indexed)
			return nil
		},
	}
	inject.Flags().IntP(flagCount, "n", 100, "Number of profiles to generate")

	c.AddCommand(inject)

	c.AddCommand(&cobra.Command{
		Use:   "cleanup",
		Short: "Remove every test profile",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			n, err := clientFrom(c).CleanupTestData(c.Context())
			if err != nil {
				return fmt.Errorf("cleanup: %w", err)
			}
			fmt.Fprintf(c.OutOrStdout(), "deleted %d test profiles\n", n)
			return nil
		},
	})

	c.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show real and test profile counts",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			s, err := clientFrom(c).TestDataStats(c.Context())
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			fmt.Fprintf(c.OutOrStdout(), "total=%d real=%d test=%d\n", s.Total, s.Real, s.Test)
			return nil
		},
	})
	return c
}

func newExportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "export",
		Short: "Download every profile as an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			out, err := clientFrom(c).Export(c.Context())
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			path, _ := c.Flags().GetString(flagOutput)
			if path == "" {
				path = out.Filename
			}
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				path = filepath.Join(path, out.Filename)
			}
			if err := os.WriteFile(path, out.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(c.OutOrStdout(), "wrote %d profiles to %s\n", out.RecordCount, path)
			return nil
		},
	}
	c.Flags().StringP(flagOutput, "o", "", "Output file or directory (default: server filename)")
	return c
}
