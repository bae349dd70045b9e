package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"indicator-dashboard/internal/normalize"
	"indicator-dashboard/internal/tableview"
	"indicator-dashboard/internal/watch"
)

func renderCmd() *cobra.Command {
	var (
		server     string
		timeframes string
	)
	cmd := &cobra.Command{
		Use:   "render SYMBOL",
		Short: "Print the current dashboard for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := parseTimeframes(timeframes); err != nil {
				return err
			}
			table, err := fetchDashboard(server, args[0], timeframes)
			if err != nil {
				return err
			}
			return tableview.Write(cmd.OutOrStdout(), table)
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "dashboard base URL")
	cmd.Flags().StringVar(&timeframes, "timeframes", "", "comma-separated timeframes (default: all with data)")
	return cmd
}

func fetchDashboard(server, symbol, timeframes string) (normalize.Table, error) {
	u := strings.TrimRight(server, "/") + "/api/dashboard/" + url.PathEscape(symbol)
	if timeframes != "" {
		u += "?timeframes=" + url.QueryEscape(timeframes)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(u)
	if err != nil {
		return normalize.Table{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return normalize.Table{}, fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var t normalize.Table
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return normalize.Table{}, fmt.Errorf("decode dashboard: %w", err)
	}
	return t, nil
}

func watchCmd() *cobra.Command {
	var wsURL string
	cmd := &cobra.Command{
		Use:   "watch SYMBOL...",
		Short: "Stream live dashboards over the WebSocket",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := watch.New(watch.Config{URL: wsURL, Symbols: args})
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			tables := make(chan normalize.Table, 8)
			done := make(chan error, 1)
			go func() { done <- w.Start(ctx, tables) }()

			out := cmd.OutOrStdout()
			for {
				select {
				case err := <-done:
					return err
				case t := <-tables:
					fmt.Fprintf(out, "\n── %s ──\n", time.Now().Format("15:04:05"))
					if err := tableview.Write(out, t); err != nil {
						return err
					}
				}
			}
		},
	}
	cmd.Flags().StringVar(&wsURL, "url", "ws://localhost:8080/ws", "gateway WebSocket URL")
	return cmd
}
