package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syncwatch/internal/model"
	"time"

	"github.com/spf13/cobra"
)

var httpClient = &http.Client{Timeout: 5 * time.Second}

// statusURL turns a listen address such as ":9090" into a URL for path.
func statusURL(addr, path string) (string, error) {
	if addr == "" {
		return "", errors.New("no status address configured, pass --status-addr")
	}
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}

	return strings.TrimSuffix(addr, "/") + path, nil
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected response from %s: %s", resp.Request.URL, resp.Status)
	}
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of a running watch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		url, err := statusURL(cfg.StatusAddr, "/status")
		if err != nil {
			return err
		}

		resp, err := httpClient.Get(url)
		if err != nil {
			return fmt.Errorf("watch not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		if err := checkResponse(resp); err != nil {
			return err
		}

		var snap model.MonitorSnapshot
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			return fmt.Errorf("failed to decode status response: %w", err)
		}

		printSnapshot(cmd.OutOrStdout(), snap)
		return nil
	},
}

func printSnapshot(w io.Writer, snap model.MonitorSnapshot) {
	lastSync := "-"
	if snap.LastSync != nil {
		lastSync = snap.LastSync.Format("2006-01-02 15:04:05")
	}

	_, _ = fmt.Fprintf(w, "%-10s %s -> %s (%s)\n", snap.State, snap.Source, snap.Dest, snap.Mode)
	_, _ = fmt.Fprintf(w, "events:    %d received, %d dropped\n", snap.Received, snap.Dropped)
	_, _ = fmt.Fprintf(w, "transfers: %d synced, %d failed, last %s\n", snap.Synced, snap.Failed, lastSync)
	_, _ = fmt.Fprintf(w, "uptime:    %s\n", time.Since(snap.StartedAt).Round(time.Second))
	if snap.BaselineErr != "" {
		_, _ = fmt.Fprintf(w, "full sync failed: %s\n", snap.BaselineErr)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
