package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syncwatch/internal/config"
	"syncwatch/internal/daemon"
	"syncwatch/internal/db"
	"syncwatch/internal/logger"
	"syncwatch/internal/metrics"
	"syncwatch/internal/model"
	"syncwatch/internal/repository"
	"syncwatch/internal/syncer"
	"syncwatch/internal/transfer"
	"syncwatch/internal/watcher"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var version = "dev"

const shutdownTimeout = 5 * time.Second

// flagKeys maps persistent flag names to config keys.
var flagKeys = map[string]string{
	"log-level":     "log_level",
	"checksum":      "checksum",
	"progress":      "progress",
	"poll":          "poll",
	"poll-interval": "poll_interval",
	"exclude":       "exclude",
	"ignore":        "ignore_list",
	"buffer-size":   "buffer_size",
	"rsync":         "rsync_path",
	"delete":        "delete",
	"strict":        "strict_baseline",
	"db":            "db_path",
	"status-addr":   "status_addr",
}

var rootCmd = &cobra.Command{
	Use:   "syncwatch [flags] SOURCE DESTINATION",
	Short: "Mirror a directory tree and keep it in sync as files change",
	Long: `Copy SOURCE to DESTINATION with rsync, then watch SOURCE and transfer
each changed path as it is reported.

A SOURCE named like a subcommand (sync, status, history, stop, install,
uninstall) runs that subcommand instead; write it as ./sync.`,
	Version: version,
	Args:    requirePaths,
	RunE:    runWatch,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("config", "", "config file (default ~/.syncwatch/config.yaml)")
	f.StringP("log-level", "l", config.Default.LogLevel, "log threshold: DEBUG, INFO, WARN or ERROR")
	f.BoolP("checksum", "c", false, "compare files by checksum instead of size and mtime")
	f.Bool("progress", false, "show transfer progress")
	f.Bool("poll", false, "poll the source tree instead of using native notifications")
	f.Duration("poll-interval", config.Default.PollInterval, "interval between polling scans")
	f.StringP("exclude", "e", "", "regular expression of source paths to ignore")
	f.StringSlice("ignore", nil, "glob of file or directory names to skip, repeatable")
	f.Int("buffer-size", config.Default.BufferSize, "event buffer size")
	f.String("rsync", config.Default.RsyncPath, "rsync program to run")
	f.Bool("delete", false, "delete destination files missing from the source during the full sync")
	f.Bool("strict", false, "exit if the initial full sync fails")
	f.String("db", "", "record transfers in this SQLite database")
	f.String("status-addr", "", "serve status, history and metrics on this address")
}

func requirePaths(cmd *cobra.Command, args []string) error {
	if len(args) < 2 {
		return errors.New("both SOURCE and DESTINATION are required")
	}
	return cobra.ExactArgs(2)(cmd, args)
}

// loadConfig binds the flags of cmd to a fresh viper instance and resolves
// the configuration once.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	file, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	return config.Load(v, file)
}

func newTransferer(cfg *config.Config, log *zap.Logger) (*transfer.Rsync, error) {
	opts := []transfer.Option{transfer.WithProgram(cfg.RsyncPath)}
	if cfg.Progress {
		opts = append(opts, transfer.Stdio())
	}

	rsync := transfer.NewRsync(log, opts...)
	if err := rsync.Available(); err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}

	return rsync, nil
}

func openHistory(cfg *config.Config) (*repository.HistoryRepository, func(), error) {
	if cfg.DBPath == "" {
		return nil, func() {}, nil
	}

	gdb, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}

	return repository.NewHistoryRepository(gdb), func() { _ = db.Close(gdb) }, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	sigCtx, stopSignals := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	reg := prometheus.NewRegistry()
	stats := syncer.NewStats(spec, metrics.New(reg))
	opts := []syncer.Option{syncer.WithStats(stats)}

	repo, closeDB, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	var hist daemon.HistoryLister
	if repo != nil {
		opts = append(opts, syncer.WithRecorder(repo))
		hist = repo
	}

	subscribe := func() (syncer.EventSource, error) {
		src, err := watcher.NewSource(spec, cfg.BufferSize, log)
		if err != nil {
			return nil, err
		}
		return src, nil
	}

	monitor := syncer.NewMonitor(spec, subscribe, syncer.NewPropagator(spec, rsync, log), log, opts...)
	runner := syncer.NewRunner(syncer.NewBaseline(spec, rsync, log), monitor, cfg.StrictBaseline, log)

	if cfg.StatusAddr != "" {
		srv := daemon.NewServer(cfg.StatusAddr, stats, hist, reg, log)
		srv.Start()

		go func() {
			select {
			case <-srv.StopCh():
				log.Info("stop requested via API")
				cancel()
			case <-ctx.Done():
			}
		}()

		defer func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancelShutdown()
			if err := srv.Stop(shutdownCtx); err != nil {
				log.Warn("failed to stop status server", zap.Error(err))
			}
		}()
	}

	log.Info("syncwatch started",
		zap.String("src", spec.SourceRoot),
		zap.String("dst", spec.DestRoot),
		zap.String("mode", spec.Mode()),
		zap.String("version", version))

	err = runner.Run(ctx)
	if err == nil {
		log.Info("syncwatch stopped")
	}
	return err
}

func specSummary(spec model.WatchSpec) string {
	return fmt.Sprintf("%s -> %s", spec.SourceRoot, spec.DestRoot)
}
