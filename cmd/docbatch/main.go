// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the docbatch CLI. Each conversion
// direction is a subcommand; history inspects past jobs.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/docbatch/internal/secrets"
	"github.com/pdiddy/docbatch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds credentials loaded from the secrets directory at startup.
	loadedSecrets map[string]string

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "docbatch",
	Short: "Batch document conversion: images to PDF, PDF to images, PDF merge",
	Long: `docbatch converts batches of documents in one of three directions:
images-to-pdf, pdf-to-images and merge. Items are validated against size
limits, converted strictly in the order given, and bundled into a single
output file. The first failure aborts the batch and nothing is written.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		l, err := newLogger(verbose)
		if err != nil {
			return err
		}
		logger = l

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(afero.NewOsFs(), dir, os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./docbatch.yaml or ~/.config/docbatch/config.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets", "directory of credential files")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging to stderr")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("docbatch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "docbatch"))
		}
	}

	setDefaults(viper.GetViper())

	viper.SetEnvPrefix("DOCBATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so env overrides and UnmarshalKey
// see them.
func setDefaults(v *viper.Viper) {
	defaults := types.DefaultToolConfigs()
	for _, tool := range types.Tools {
		cfg := defaults[tool]
		prefix := "tools." + string(tool) + "."
		v.SetDefault(prefix+"max_item_size", cfg.MaxItemSize)
		v.SetDefault(prefix+"max_aggregate_size", cfg.MaxAggregateSize)
		v.SetDefault(prefix+"warn_aggregate_size", cfg.WarnAggregateSize)
		v.SetDefault(prefix+"output_name", cfg.OutputName)
	}
	v.SetDefault("pdf_to_images.backend", string(types.BackendFitz))
	v.SetDefault("history.dir", ".docbatch")
	v.SetDefault("history.max_results", 20)
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.prefix", "docbatch")
	v.SetDefault("s3.insecure", false)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
