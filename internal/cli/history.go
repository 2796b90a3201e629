package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/ashureev/cinemabot/internal/bot"
	"github.com/spf13/cobra"
)

var jsonOutput bool

var statsCmd = &cobra.Command{
	Use:   "stats <user-id>",
	Short: "Print a user's per-title lookup counts",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

var historyCmd = &cobra.Command{
	Use:   "history <user-id>",
	Short: "Print a user's lookups, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	statsCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON instead of the chat rendering")
	historyCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON instead of the chat rendering")
}

func runStats(cmd *cobra.Command, args []string) error {
	userID, err := parseUserID(args[0])
	if err != nil {
		return err
	}
	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer closeRepository(repo)

	rows, err := repo.Statistics(cmd.Context(), userID)
	if err != nil {
		return fmt.Errorf("load statistics: %w", err)
	}
	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(rows)
	}
	fmt.Println(bot.StatsText(rows))
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	userID, err := parseUserID(args[0])
	if err != nil {
		return err
	}
	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer closeRepository(repo)

	titles, err := repo.RecentHistory(cmd.Context(), userID)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(titles)
	}
	fmt.Println(bot.HistoryText(titles))
	return nil
}

func parseUserID(raw string) (string, error) {
	if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
		return "", fmt.Errorf("user id must be numeric, got %q", raw)
	}
	return raw, nil
}
