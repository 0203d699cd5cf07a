package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/milhonews/milho/internal/smoke"
)

var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Check the live site in a real browser",
	Long: `Load the site in Chrome, confirm posts render, type a query into the
search box and report how many posts stay visible.

Examples:
  milhoctl smoke                       # Configured base URL, no search
  milhoctl smoke -q react              # Search for react
  milhoctl smoke --url http://x:8080   # Another server
  milhoctl smoke --show                # Watch the browser`,
	RunE: runSmoke,
}

func init() {
	rootCmd.AddCommand(smokeCmd)

	smokeCmd.Flags().String("url", "", "page to check (default is the configured base URL)")
	smokeCmd.Flags().StringP("query", "q", "", "text to type into the search box")
	smokeCmd.Flags().Bool("show", false, "run with a visible browser window")
	smokeCmd.Flags().Duration("timeout", smoke.DefaultTimeout, "overall time limit")
}

func runSmoke(cmd *cobra.Command, args []string) error {
	target, _ := cmd.Flags().GetString("url")
	query, _ := cmd.Flags().GetString("query")
	show, _ := cmd.Flags().GetBool("show")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if target == "" {
		target = cfg.Server.BaseURL
	}

	start := time.Now()
	report, err := smoke.Run(cmd.Context(), smoke.Options{
		URL:      target,
		Query:    query,
		Headless: !show,
		Timeout:  timeout,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "URL:      %s\n", target)
	fmt.Fprintf(out, "Posts:    %d\n", report.Before)
	if query != "" {
		fmt.Fprintf(out, "Query:    %q -> %d visible (counter %s)\n", query, report.After, report.Shown)
	}
	fmt.Fprintf(out, "First:    %s\n", report.FirstID)
	fmt.Fprintf(out, "Took:     %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
