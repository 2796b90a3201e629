package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <query>",
	Short: "Resolve a title against the catalog and print the result as JSON",
	Long: `Resolve runs the same lookup the bot runs for free text, without
recording anything in the history.

Examples:
  cinemabot resolve "брат"
  cinemabot resolve "во все тяжкие"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	if cfg.Catalog.Token == "" {
		return fmt.Errorf("catalog token is not configured (CATALOG_TOKEN or CATALOG_TOKEN_FILE)")
	}

	res, err := newResolver().Resolve(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
