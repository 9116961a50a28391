package cmd

import (
	"fmt"
	"syncwatch/internal/logger"
	"syncwatch/internal/model"
	"syncwatch/internal/syncer"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncCmd = &cobra.Command{
	Use:   "sync SOURCE DESTINATION",
	Short: "Run one full sync and exit",
	Args:  requirePaths,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		spec, err := cfg.WatchSpec(args[0], args[1])
		if err != nil {
			return err
		}

		log := logger.New(cfg.Level(), nil)
		defer func() { _ = log.Sync() }()

		rsync, err := newTransferer(cfg, log)
		if err != nil {
			return err
		}

		cmd.SilenceUsage = true

		repo, closeDB, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer closeDB()

		result := syncer.NewBaseline(spec, rsync, log).Run(cmd.Context())
		if repo != nil {
			if err := repo.Save(result); err != nil {
				log.Warn("failed to save history", zap.Error(err))
			}
		}

		if result.Status() == model.StatusFailed {
			return result.Err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "done: %s (%s) in %s\n",
			specSummary(spec), result.Status(), result.Duration.Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
