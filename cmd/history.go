package cmd

import (
	"errors"
	"fmt"
	"io"
	"syncwatch/internal/model"

	"github.com/spf13/cobra"
)

var (
	historyN      int
	historyFailed bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded transfers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.DBPath == "" {
			return errors.New("no history database configured, pass --db")
		}

		repo, closeDB, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer closeDB()

		var histories []model.History
		if historyFailed {
			histories, err = repo.GetFailed(historyN)
		} else {
			histories, err = repo.GetRecent(historyN)
		}
		if err != nil {
			return fmt.Errorf("failed to read history: %w", err)
		}

		printHistory(cmd.OutOrStdout(), histories)

		stats, err := repo.GetStats()
		if err != nil {
			return fmt.Errorf("failed to read history stats: %w", err)
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "total %d: %d synced, %d vanished, %d failed\n",
			stats.Total, stats.Success, stats.Vanished, stats.Failed)
		return nil
	},
}

func printHistory(w io.Writer, histories []model.History) {
	if len(histories) == 0 {
		_, _ = fmt.Fprintln(w, "no history yet")
		return
	}

	for _, h := range histories {
		mark := "✓"
		switch h.Status {
		case model.StatusFailed:
			mark = "✗"
		case model.StatusVanished:
			mark = "~"
		}

		_, _ = fmt.Fprintf(w, "%s [%s] %-8s %s\n",
			mark,
			h.SyncedAt.Format("2006-01-02 15:04:05"),
			h.Kind,
			h.Source,
		)
		if h.ErrMsg != "" {
			_, _ = fmt.Fprintf(w, "    exit %d: %s\n", h.ExitCode, h.ErrMsg)
		}
	}
}

func init() {
	historyCmd.Flags().IntVarP(&historyN, "limit", "n", 20, "number of history entries to show")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "only show failed transfers")
	rootCmd.AddCommand(historyCmd)
}
