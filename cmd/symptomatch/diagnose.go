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

	"github.com/pdiddy/symptomatch/internal/diagnose"
	"github.com/pdiddy/symptomatch/pkg/types"
)

const noMatchMessage = "No matching symptoms found or prediction failed."

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose [text...]",
	Short: "Diagnose one symptom description",
	Long: `Diagnose recognizes known symptoms in the given text (or stdin when no
text is given) and prints the best-matching disease. With --top it also
lists the best-covered diseases.`,
	RunE: runDiagnose,
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	top, _ := cmd.Flags().GetInt("top")
	showPct, _ := cmd.Flags().GetBool("percentage")

	text := strings.Join(args, " ")
	if text == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("symptom text required: pass it as arguments or on stdin")
	}

	ctx := context.Background()
	kb, err := loadKnowledgeBase(ctx, appConfig.KnowledgeBase)
	if err != nil {
		return err
	}
	d, err := newDiagnoser(ctx, appConfig, kb, top)
	if err != nil {
		return err
	}

	report := d.DiagnoseDetailed(ctx, text)
	if top <= 0 {
		report.Ranking = nil
	}
	return formatDiagnoseOutput(os.Stdout, report, jsonOutput, showPct)
}

func formatDiagnoseOutput(w io.Writer, report diagnose.Report, jsonOutput, showPct bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printResult(w, report.DiagnosisResult, showPct)
	if len(report.Ranking) == 0 {
		return nil
	}

	fmt.Fprintf(w, "\n%-4s  %-40s  %s\n", "Rank", "Disease", "Match")
	fmt.Fprintln(w, strings.Repeat("-", 56))
	for i, r := range report.Ranking {
		fmt.Fprintf(w, "%-4d  %-40s  %6.2f%%\n", i+1, truncate(r.Disease, 40), r.Percentage)
	}
	return nil
}

// printResult writes the result lines shown by diagnose and interactive.
func printResult(w io.Writer, r types.DiagnosisResult, showPct bool) {
	if !r.HasMatch() {
		fmt.Fprintln(w, noMatchMessage)
		return
	}
	if r.ClassifiedDisease != "" {
		fmt.Fprintf(w, "Predicted Disease: %s\n", r.ClassifiedDisease)
	}
	fmt.Fprintf(w, "Best Match Disease: %s\n", r.BestMatchDisease)
	if showPct {
		fmt.Fprintf(w, "Match Percentage: %.2f%%\n", r.BestMatchPercentage)
	}
}

func init() {
	diagnoseCmd.Flags().Bool("json", false, "output the result as JSON")
	diagnoseCmd.Flags().Int("top", 0, "also list the N best-covered diseases")
	diagnoseCmd.Flags().Bool("percentage", false, "print the match percentage")

	rootCmd.AddCommand(diagnoseCmd)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
