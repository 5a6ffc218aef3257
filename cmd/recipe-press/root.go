package main

import (
	"github.com/spf13/cobra"
)

// runFlags is the full flag surface of the batch command.
type runFlags struct {
	all        bool
	single     bool
	csvOnly    bool
	imagesOnly bool

	image      string
	startIndex int
	limit      int
	batchSize  int
	ocrMethod  string
	genImages  bool
	force      bool
	verbose    bool
}

func newRootCommand() *cobra.Command {
	var flags runFlags

	rootCmd := &cobra.Command{
		Use:   "recipe-press",
		Short: "Turn scanned recipe cards into publishable digital products",
		Long: `recipe-press walks a directory of scanned recipe card images and produces,
for each card, a product folder with the structured recipe, nutrition label,
marketplace listing copy, social captions, and printable PDF cards. A tracking
file makes reruns idempotent: finished images are skipped, failed ones are
retried.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags)
		},
	}

	f := rootCmd.Flags()
	f.BoolVar(&flags.all, "all", false, "process every pending image in the source directory")
	f.BoolVar(&flags.single, "single", false, "process one image, selected with --image")
	f.BoolVar(&flags.csvOnly, "csv-only", false, "rebuild the master listing files without processing images")
	f.BoolVar(&flags.imagesOnly, "images-only", false, "generate product photos for already-processed recipes")

	f.StringVar(&flags.image, "image", "", "image to process, by name or 1-based index (with --single)")
	f.IntVar(&flags.startIndex, "start-index", 0, "0-based offset into the image list (with --all)")
	f.IntVar(&flags.limit, "limit", 0, "maximum images to process this run (0 = no limit)")
	f.IntVar(&flags.batchSize, "batch-size", 0, "images per group before the long pause (0 = configured default)")
	f.StringVar(&flags.ocrMethod, "ocr-method", "vision-api", "preferred OCR method: tesseract or vision-api")
	f.BoolVar(&flags.genImages, "generate-images", false, "also generate product photos after processing")
	f.BoolVar(&flags.force, "force-reprocess", false, "reprocess images the tracking file already marks done")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	rootCmd.MarkFlagsMutuallyExclusive("all", "single", "csv-only", "images-only")
	rootCmd.MarkFlagsOneRequired("all", "single", "csv-only", "images-only")

	return rootCmd
}
