// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/docbatch/internal/history"
	"github.com/pdiddy/docbatch/internal/publish"
	"github.com/pdiddy/docbatch/internal/secrets"
	"github.com/pdiddy/docbatch/pkg/types"
)

var imagesToPDFCmd = &cobra.Command{
	Use:   "images-to-pdf [images...]",
	Short: "Combine JPEG and PNG images into one PDF, one page per image",
	Long: `Images-to-pdf places each image on its own page, in the order given,
and writes a single PDF (converted.pdf by default). Each page is 210 mm
wide with a height that keeps the image aspect ratio.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, types.ToolImagesToPDF, args)
	},
}

var pdfToImagesCmd = &cobra.Command{
	Use:   "pdf-to-images [pdfs...]",
	Short: "Render every page of one or more PDFs to JPEG",
	Long: `Pdf-to-images renders each page at twice its native size and writes
the JPEGs as converted-images.zip (page-1.jpg, page-2.jpg, ...). A batch
that yields a single page is written as converted.jpg instead. With
--name scans.zip the archive is scans.zip and a single page is scans.jpg.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, types.ToolPDFToImages, args)
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge [pdfs...]",
	Short: "Merge PDFs into one document in the order given",
	Long: `Merge concatenates the pages of every input PDF, file by file in the
order given, into merged.pdf.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd, types.ToolMerge, args)
	},
}

func runTool(cmd *cobra.Command, tool types.Tool, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := toolConfig(tool)
	if err != nil {
		return err
	}
	if name, _ := cmd.Flags().GetString("name"); name != "" {
		cfg.OutputName = name
	}

	fs := afero.NewOsFs()
	publisher, err := newPublisher(cmd, fs)
	if err != nil {
		return err
	}

	b := batch{
		fs:        fs,
		out:       cmd.OutOrStdout(),
		log:       logger,
		tool:      tool,
		cfg:       cfg,
		backend:   types.RasterBackend(viper.GetString("pdf_to_images.backend")),
		publisher: publisher,
	}
	if cmd.Flags().Lookup("backend") != nil {
		if v, _ := cmd.Flags().GetString("backend"); v != "" {
			b.backend = types.RasterBackend(v)
		}
	}

	noHistory, _ := cmd.Flags().GetBool("no-history")
	if !noHistory {
		store, err := history.NewStore(historyConfig())
		if err != nil {
			logger.Warn("job history disabled", zap.Error(err))
		} else {
			defer store.Close()
			b.history = history.NewSink(store, logger)
		}
	}

	_, err = b.run(ctx, args)
	return err
}

func toolConfig(tool types.Tool) (types.ToolConfig, error) {
	var cfg types.ToolConfig
	if err := viper.UnmarshalKey("tools."+string(tool), &cfg); err != nil {
		return cfg, fmt.Errorf("reading %s config: %w", tool, err)
	}
	return cfg, nil
}

func historyConfig() types.HistoryConfig {
	return types.HistoryConfig{
		Dir:        viper.GetString("history.dir"),
		MaxResults: viper.GetInt("history.max_results"),
	}
}

func newPublisher(cmd *cobra.Command, fs afero.Fs) (publish.Publisher, error) {
	toS3, _ := cmd.Flags().GetBool("s3")
	if !toS3 {
		dir, _ := cmd.Flags().GetString("out")
		return publish.NewDirPublisher(fs, dir), nil
	}

	var cfg types.S3Config
	if err := viper.UnmarshalKey("s3", &cfg); err != nil {
		return nil, fmt.Errorf("reading s3 config: %w", err)
	}
	cfg, err := withSecretCredentials(cfg, loadedSecrets)
	if err != nil {
		return nil, err
	}
	return publish.NewS3Publisher(cfg)
}

// withSecretCredentials fills the S3 key pair from the secrets directory
// when the config sets neither key.
func withSecretCredentials(cfg types.S3Config, loaded map[string]string) (types.S3Config, error) {
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		return cfg, nil
	}
	creds := secrets.S3(loaded)
	if !creds.Complete() {
		return cfg, fmt.Errorf("s3 credentials are not set: add %s and %s to the secrets directory, or set s3.access_key and s3.secret_key",
			secrets.S3AccessKey, secrets.S3SecretKey)
	}
	cfg.AccessKey, cfg.SecretKey = creds.AccessKey, creds.SecretKey
	return cfg, nil
}

func init() {
	for _, c := range []*cobra.Command{imagesToPDFCmd, pdfToImagesCmd, mergeCmd} {
		c.Flags().String("out", ".", "directory to write the output file to")
		c.Flags().String("name", "", "output filename (default depends on the tool)")
		c.Flags().Bool("s3", false, "upload the output to the configured S3 bucket instead of --out")
		c.Flags().Bool("no-history", false, "do not record the job in the history database")
		rootCmd.AddCommand(c)
	}
	pdfToImagesCmd.Flags().String("backend", "", "raster backend: fitz or poppler (default from config, fitz)")
}
