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

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage the knowledge base (import, export, list, show, search)",
	Long: `Kb manages the local SQLite store of diseases and their known symptoms.
Import a dataset CSV once; later commands build the knowledge base from the
store unless --dataset is given.`,
}

// --- import subcommand ---

var kbImportCmd = &cobra.Command{
	Use:   "import <dataset.csv>...",
	Short: "Import disease/symptom CSV files into the store",
	Long: `Import reads each CSV, normalizes its symptoms, and replaces the rows
previously imported from the same file. Unchanged files are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runKBImport,
}

func runKBImport(cmd *cobra.Command, args []string) error {
	s, err := store.NewStore(appConfig.KnowledgeBase)
	if err != nil {
		return err
	}
	defer s.Close()

	failed := 0
	for _, path := range args {
		if _, err := s.Import(context.Background(), path, appConfig.KnowledgeBase.Columns, os.Stdout); err != nil {
			fmt.Fprintf(os.Stdout, "failed  %s: %v\n", path, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d dataset(s) failed to import", failed)
	}
	return nil
}

// --- export subcommand ---

var kbExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the stored knowledge base to YAML or JSON",
	RunE:  runKBExport,
}

func runKBExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	s, err := store.NewStore(appConfig.KnowledgeBase)
	if err != nil {
		return err
	}
	defer s.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "yaml", "":
		err = s.ExportYAML(context.Background(), w)
	case "json":
		err = s.ExportJSON(context.Background(), w)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(os.Stderr, "Exported to %s\n", output)
	}
	return nil
}

// --- list subcommand ---

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known diseases with their symptom counts",
	RunE:  runKBList,
}

func runKBList(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	kb, err := loadKnowledgeBase(context.Background(), appConfig.KnowledgeBase)
	if err != nil {
		return err
	}
	return formatDiseaseList(os.Stdout, kb.Records(), jsonOutput)
}

func formatDiseaseList(w io.Writer, records []types.DiseaseRecord, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	fmt.Fprintf(w, "%-40s  %s\n", "Disease", "Symptoms")
	fmt.Fprintln(w, strings.Repeat("-", 50))
	total := 0
	for _, r := range records {
		fmt.Fprintf(w, "%-40s  %d\n", r.Disease, len(r.Symptoms))
		total += len(r.Symptoms)
	}
	fmt.Fprintf(w, "\n%d diseases, %d symptom entries\n", len(records), total)
	return nil
}

// --- show subcommand ---

var kbShowCmd = &cobra.Command{
	Use:   "show <disease>",
	Short: "Show the known symptoms of a disease",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runKBShow,
}

func runKBShow(cmd *cobra.Command, args []string) error {
	name := strings.Join(args, " ")

	kb, err := loadKnowledgeBase(context.Background(), appConfig.KnowledgeBase)
	if err != nil {
		return err
	}
	symptoms, ok := kb.Symptoms(name)
	if !ok {
		return fmt.Errorf("disease %q not found", name)
	}

	fmt.Fprintf(os.Stdout, "%s (%d symptoms)\n", name, len(symptoms))
	for _, s := range symptoms {
		fmt.Fprintf(os.Stdout, "  - %s\n", s)
	}
	return nil
}

// --- search subcommand ---

var kbSearchCmd = &cobra.Command{
	Use:   "search <symptom>",
	Short: "Find diseases with a symptom containing the query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runKBSearch,
}

func runKBSearch(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	s, err := store.NewStore(appConfig.KnowledgeBase)
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.FindBySymptom(context.Background(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(os.Stdout, "%s: %s\n", r.Disease, strings.Join(r.Symptoms, ", "))
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

func init() {
	kbExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	kbExportCmd.Flags().StringP("output", "o", "", "write to a file instead of stdout")

	kbListCmd.Flags().Bool("json", false, "output as JSON")

	kbSearchCmd.Flags().Int("limit", 20, "maximum number of diseases (0 = all)")
	kbSearchCmd.Flags().Bool("json", false, "output as JSON")

	kbCmd.AddCommand(kbImportCmd)
	kbCmd.AddCommand(kbExportCmd)
	kbCmd.AddCommand(kbListCmd)
	kbCmd.AddCommand(kbShowCmd)
	kbCmd.AddCommand(kbSearchCmd)

	rootCmd.AddCommand(kbCmd)
}
