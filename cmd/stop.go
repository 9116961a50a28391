package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running watch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		url, err := statusURL(cfg.StatusAddr, "/stop")
		if err != nil {
			return err
		}

		resp, err := httpClient.Post(url, "application/json", nil)
		if err != nil {
			return fmt.Errorf("watch not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		if err := checkResponse(resp); err != nil {
			return err
		}

		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "stopping")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
