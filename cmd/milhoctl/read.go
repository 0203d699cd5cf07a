package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/milhonews/milho/internal/app"
	"github.com/milhonews/milho/internal/digest"
	"github.com/milhonews/milho/internal/logging"
	"github.com/milhonews/milho/internal/upstream"
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Print a section's posts and summary",
	Long: `Fetch a section from the upstream services and print it.

Examples:
  milhoctl read                        # Default section
  milhoctl read --section opensource   # Open source posts
  milhoctl read --query react          # Only posts mentioning react`,
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)

	readCmd.Flags().StringP("section", "s", "", "section to read (default is the first configured)")
	readCmd.Flags().StringP("query", "q", "", "case-insensitive search over text, name and handle")
	readCmd.Flags().Bool("no-color", false, "disable styled output")
}

func runRead(cmd *cobra.Command, args []string) error {
	section, _ := cmd.Flags().GetString("section")
	query, _ := cmd.Flags().GetString("query")
	noColor, _ := cmd.Flags().GetBool("no-color")

	a := app.New(cfg, upstream.New(cfg.Upstream, version))
	if section == "" {
		section = a.DefaultSection().Name
	}

	page, err := a.Load(cmd.Context(), section, query)
	if err != nil {
		return err
	}

	b, err := digest.New(cfg.Server.SiteTitle, cfg.Server.DefaultTheme)
	if err != nil {
		return err
	}

	color := !noColor && logging.IsTerminal(os.Stdout)
	_, err = fmt.Fprint(cmd.OutOrStdout(), b.Terminal(page, a.Sections(), color))
	return err
}
