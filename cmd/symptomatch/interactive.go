// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/symptomatch/pkg/types"
)

const (
	prompt      = "Enter your symptoms (or type 'exit' to quit): "
	exitMessage = "Exiting the program."
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Diagnose symptom descriptions typed line by line",
	Long: `Interactive reads one symptom description per line and prints the
best-matching disease for each. Type exit to quit.`,
	RunE: runInteractive,
}

func runInteractive(cmd *cobra.Command, args []string) error {
	showPct, _ := cmd.Flags().GetBool("percentage")

	ctx := context.Background()
	kb, err := loadKnowledgeBase(ctx, appConfig.KnowledgeBase)
	if err != nil {
		return err
	}
	d, err := newDiagnoser(ctx, appConfig, kb, 0)
	if err != nil {
		return err
	}

	return repl(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), d, showPct)
}

type diagnoser interface {
	Diagnose(ctx context.Context, sentence string) types.DiagnosisResult
}

// repl prompts for lines from in until exit or EOF. Blank lines prompt
// again.
func repl(ctx context.Context, in io.Reader, out io.Writer, d diagnoser, showPct bool) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, prompt)
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}

		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") {
			fmt.Fprintln(out, exitMessage)
			return nil
		}

		printResult(out, d.Diagnose(ctx, line), showPct)

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func init() {
	interactiveCmd.Flags().Bool("percentage", false, "print the match percentage")

	rootCmd.AddCommand(interactiveCmd)
}
