package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"syncwatch/internal/autostart"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var installCmd = &cobra.Command{
	Use:   "install SOURCE DESTINATION",
	Short: "Start watching SOURCE on login",
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

		cmd.SilenceUsage = true

		execPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}

		watchArgs, err := forwardedArgs(cmd.Flags())
		if err != nil {
			return err
		}
		watchArgs = append(watchArgs, spec.SourceRoot, spec.DestRoot)

		if err := autostart.New().Install(execPath, watchArgs); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "registered for autostart: %s\n", specSummary(spec))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}

// forwardedArgs renders the flags the user set explicitly so the installed
// service runs with the same settings. Paths are made absolute.
func forwardedArgs(flags *pflag.FlagSet) ([]string, error) {
	var (
		out     []string
		walkErr error
	)

	flags.Visit(func(f *pflag.Flag) {
		if _, ok := flagKeys[f.Name]; !ok && f.Name != "config" {
			return
		}

		if sv, ok := f.Value.(pflag.SliceValue); ok {
			for _, item := range sv.GetSlice() {
				out = append(out, fmt.Sprintf("--%s=%s", f.Name, item))
			}
			return
		}

		value := f.Value.String()
		if (f.Name == "config" || f.Name == "db") && value != "" {
			abs, err := filepath.Abs(value)
			if err != nil {
				walkErr = err
				return
			}
			value = abs
		}

		out = append(out, fmt.Sprintf("--%s=%s", f.Name, value))
	})

	return out, walkErr
}
