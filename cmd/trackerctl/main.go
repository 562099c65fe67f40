package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"proposal/frontend/tracker"
	"proposal/infrastructure/config"
	"proposal/infrastructure/session"
	"proposal/infrastructure/sqlite"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "trackerctl",
		Short:         "Maintenance commands for the proposal tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(pruneCmd())
	root.AddCommand(catalogCmd())
	root.AddCommand(reportCmd())
	return root
}

func pruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete expired visitor sessions and their tracker state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg.SQLitePath)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := session.PruneExpired(cmd.Context(), db, time.Now())
			if err != nil {
				return fmt.Errorf("prune sessions: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d expired sessions\n", n)
			return nil
		},
	}
}

func catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the checkpoint catalog outline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			checklist, err := tracker.LoadChecklist(cfg.ChecklistPath)
			if err != nil {
				return err
			}
			printCatalog(cmd.OutOrStdout(), checklist)
			return nil
		},
	}
}

func printCatalog(w io.Writer, c *tracker.Checklist) {
	fmt.Fprintln(w, c.Project.Name)
	fmt.Fprintln(w, strings.Repeat("=", len(c.Project.Name)))
	for _, cp := range c.Checkpoints {
		items := 0
		for _, sub := range cp.SubCheckpoints {
			items += len(sub.Items)
		}
		fmt.Fprintf(w, "\n%d. %s [%s]\n", cp.ID, cp.Title, tracker.StatusLabel(cp.Status))
		fmt.Fprintf(w, "   %s | Rs. %s | %d items\n", cp.Duration, humanize.Comma(cp.Payment), items)
		for _, sub := range cp.SubCheckpoints {
			fmt.Fprintf(w, "   - %s (%d)\n", sub.Title, len(sub.Items))
		}
	}
	fmt.Fprintf(w, "\nTotal: Rs. %s across %d items\n", humanize.Comma(c.TotalPayment()), c.ItemCount())
}

func reportCmd() *cobra.Command {
	var token, out string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the tracker PDF report of a visitor session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			checklist, err := tracker.LoadChecklist(cfg.ChecklistPath)
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg.SQLitePath)
			if err != nil {
				return err
			}
			defer db.Close()

			id := session.Digest(token)
			if _, err := session.Load(cmd.Context(), db, id); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("session not found")
				}
				return fmt.Errorf("load session: %w", err)
			}
			state, err := tracker.LoadState(cmd.Context(), db, id)
			if err != nil {
				return fmt.Errorf("load tracker state: %w", err)
			}
			pdf, err := tracker.RenderReportPDF(checklist, tracker.PaymentFromConfig(cfg), state, time.Now())
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, pdf, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", out, humanize.Bytes(uint64(len(pdf))))
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "session", "", "visitor session cookie value")
	cmd.Flags().StringVarP(&out, "out", "o", "tracker-report.pdf", "output file")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}

func openDB(ctx context.Context, path string) (*sqlite.DB, error) {
	db, err := sqlite.OpenDB(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	migrationsDir, err := resolveMigrationsDir()
	if err != nil {
		// Installed binaries carry the embedded migrations.
		migrationsDir = ""
	}
	if err := sqlite.ApplyMigrations(ctx, db, migrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return db, nil
}

func resolveMigrationsDir() (string, error) {
	candidates := []string{
		filepath.Join("infrastructure", "sqlite", "migrations"),
		filepath.Join("..", "..", "infrastructure", "sqlite", "migrations"),
	}

	if _, file, _, ok := runtime.Caller(0); ok {
		candidates = append(candidates, filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "sqlite", "migrations"))
	}

	tried := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		absPath, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		tried = append(tried, absPath)

		info, err := os.Stat(absPath)
		if err != nil {
			continue
		}
		if info.IsDir() {
			return absPath, nil
		}
	}

	return "", fmt.Errorf("migrations dir not found; tried: %s", strings.Join(tried, ", "))
}
