// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/symptomatch/internal/store"
	"github.com/pdiddy/symptomatch/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent diagnoses recorded by the server",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	s, err := store.NewStore(appConfig.KnowledgeBase)
	if err != nil {
		return err
	}
	defer s.Close()

	records, err := s.History(context.Background(), limit)
	if err != nil {
		return err
	}
	return formatHistory(os.Stdout, records, jsonOutput)
}

func formatHistory(w io.Writer, records []types.DiagnosisRecord, jsonOutput bool) error {
	if jsonOutput {
		if records == nil {
			records = []types.DiagnosisRecord{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No diagnoses recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-20s  %-30s  %-25s  %s\n", "Time", "Input", "Best Match", "Match")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, r := range records {
		input := truncate(r.Input, 30)
		best := r.Result.BestMatchDisease
		if best == "" {
			best = "-"
		}
		best = truncate(best, 25)
		fmt.Fprintf(w, "%-20s  %-30s  %-25s  %6.2f%%\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"), input, best, r.Result.BestMatchPercentage)
	}
	return nil
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of diagnoses to show")
	historyCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(historyCmd)
}
