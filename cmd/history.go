package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/me-e6/pengine/internal/db"
	"github.com/me-e6/pengine/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Review saved answers",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved answers, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		domain, _ := cmd.Flags().GetString("domain")
		limit, _ := cmd.Flags().GetInt("limit")
		if status != "" && !history.Status(status).Valid() {
			return fmt.Errorf("invalid --status %q: must be pending, approved or rejected", status)
		}

		return withHistory(func(store *history.Store) error {
			entries, err := store.List(cmd.Context(), history.Filter{
				Status: history.Status(status),
				Domain: domain,
				Limit:  limit,
			})
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved answers.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tMODE\tCONF\tQUERY")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%s\n",
					e.ID, e.CreatedAt.Local().Format(time.DateTime), e.Status, e.OutputMode, e.Confidence, e.Query)
			}
			return tw.Flush()
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved answer as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(store *history.Store) error {
			entry, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(entry, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		})
	},
}

func reviewCmd(use, short string, status history.Status) *cobra.Command {
	c := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reviewer, _ := cmd.Flags().GetString("by")
			if reviewer == "" {
				reviewer = os.Getenv("USER")
			}
			return withHistory(func(store *history.Store) error {
				if err := store.SetStatus(cmd.Context(), args[0], status, reviewer); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s marked %s\n", args[0], status)
				return nil
			})
		},
	}
	c.Flags().String("by", "", "reviewer name (defaults to $USER)")
	return c
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete saved answers older than a number of days",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		if days < 1 {
			return fmt.Errorf("--days must be at least 1")
		}
		return withHistory(func(store *history.Store) error {
			n, err := store.DeleteBefore(cmd.Context(), time.Now().AddDate(0, 0, -days))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d answers\n", n)
			return nil
		})
	},
}

// withHistory opens the history database for the duration of fn.
func withHistory(fn func(*history.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := db.Open(historyDBPath(cfg))
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer database.Close()
	return fn(history.NewStore(database))
}

func init() {
	historyListCmd.Flags().String("status", "", "only entries with this status")
	historyListCmd.Flags().String("domain", "", "only entries about this domain")
	historyListCmd.Flags().Int("limit", 20, "maximum entries to show")
	historyPruneCmd.Flags().Int("days", 90, "delete answers older than this many days")

	historyCmd.AddCommand(
		historyListCmd,
		historyShowCmd,
		reviewCmd("approve", "Mark a saved answer as approved", history.StatusApproved),
		reviewCmd("reject", "Mark a saved answer as rejected", history.StatusRejected),
		reviewCmd("reset", "Return a saved answer to pending review", history.StatusPending),
		historyPruneCmd,
	)
	rootCmd.AddCommand(historyCmd)
}
