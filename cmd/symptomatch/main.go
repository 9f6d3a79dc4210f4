// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the symptomatch CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/symptomatch/internal/secrets"
	"github.com/pdiddy/symptomatch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets secrets.Set

	// appConfig is the merged configuration: defaults, config file,
	// environment, then flags.
	appConfig = types.DefaultConfig()

	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

// rootCmd is the base command for the symptomatch CLI.
var rootCmd = &cobra.Command{
	Use:   "symptomatch",
	Short: "Match free-text symptom descriptions to diseases",
	Long: `symptomatch recognizes known symptoms in a free-text description, asks an
optional external classifier for a disease label, and reports the disease
whose known symptoms are best covered by what was described.

The knowledge base comes from a disease/symptom CSV (--dataset) or from the
local store filled by "symptomatch kb import".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger = newLogger(verbose)
		slog.SetDefault(logger)

		cfg, err := configFromViper(viper.GetViper())
		if err != nil {
			return err
		}
		appConfig = cfg

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := s.Keys()
			sort.Strings(keys)
			logger.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./symptomatch.yaml or ~/.config/symptomatch/symptomatch.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().String("dataset", "", "disease/symptom CSV to build the knowledge base from (default: the local store)")
	rootCmd.PersistentFlags().String("data-dir", "", "directory holding the local store (default: data)")

	viper.BindPFlag("knowledge_base.dataset", rootCmd.PersistentFlags().Lookup("dataset"))
	viper.BindPFlag("knowledge_base.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
}

func initConfig() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("symptomatch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "symptomatch"))
		}
	}

	setConfigDefaults(viper.GetViper(), types.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setConfigDefaults registers every config key so environment variables
// reach Unmarshal, and binds them to SYMPTOMATCH_<SECTION>_<KEY>.
func setConfigDefaults(v *viper.Viper, d types.Config) {
	v.SetEnvPrefix("SYMPTOMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("knowledge_base.dataset", d.KnowledgeBase.Dataset)
	v.SetDefault("knowledge_base.data_dir", d.KnowledgeBase.DataDir)
	v.SetDefault("knowledge_base.columns.disease", d.KnowledgeBase.Columns.Disease)
	v.SetDefault("knowledge_base.columns.symptoms", d.KnowledgeBase.Columns.Symptoms)

	v.SetDefault("classifier.backend", string(d.Classifier.Backend))
	v.SetDefault("classifier.url", d.Classifier.URL)
	v.SetDefault("classifier.image", d.Classifier.Image)
	v.SetDefault("classifier.api_key", d.Classifier.APIKey)
	v.SetDefault("classifier.timeout", d.Classifier.Timeout)
	v.SetDefault("classifier.user_agent", d.Classifier.UserAgent)
	v.SetDefault("classifier.max_retries", d.Classifier.MaxRetries)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.classify_timeout", d.Server.ClassifyTimeout)
	v.SetDefault("server.max_body_bytes", d.Server.MaxBodyBytes)
	v.SetDefault("server.record_history", d.Server.RecordHistory)
}

// configFromViper decodes v over the defaults.
func configFromViper(v *viper.Viper) (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.KnowledgeBase.DataDir == "" {
		cfg.KnowledgeBase.DataDir = types.DefaultConfig().KnowledgeBase.DataDir
	}
	return cfg, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
