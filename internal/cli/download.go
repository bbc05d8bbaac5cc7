// internal/cli/download.go
package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/medialoom/loom/internal/downloader"
	"github.com/medialoom/loom/internal/ui"
	headersutil "github.com/medialoom/loom/internal/utils/headers"
)

var (
	downloadFormat  string
	downloadImages  bool
	downloadDir     string
	downloadWorkers int
	downloadHeaders []string
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download <url>",
	Short: "Resolve a media page URL and download the media",
	Long: `Resolves a media page URL and streams the selected format to disk.

Image carousel posts are downloaded with a concurrent worker pool, one file
per image. Video and audio downloads show a progress bar and retry transient
upstream failures automatically.`,
	Example: `  # Download the default format
  loom download https://example.com/watch/abc

  # Pick a specific format by ID
  loom download https://example.com/watch/abc --format=picker-2

  # Download every image of a carousel with 8 workers
  loom download https://example.com/p/xyz --images --concurrency=8

  # Pass extra request headers to the media host
  loom download https://example.com/watch/abc -H "Referer: https://example.com"`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVarP(&downloadFormat, "format", "f", "", "Format ID to download (defaults to the first format)")
	downloadCmd.Flags().BoolVar(&downloadImages, "images", false, "Download all images of an image post")
	downloadCmd.Flags().StringVarP(&downloadDir, "output", "o", "", "Directory to save downloaded files")
	downloadCmd.Flags().IntVarP(&downloadWorkers, "concurrency", "c", 0, "Number of concurrent download workers (1-50)")
	downloadCmd.Flags().StringArrayVarP(&downloadHeaders, "header", "H", nil, "Extra request header (\"Key: Value\"), repeatable")
}

func runDownload(cmd *cobra.Command, args []string) error {
	appCtx := GetApp()
	if appCtx == nil {
		return fmt.Errorf("application not initialized")
	}

	rawURL := args[0]
	result, err := appCtx.Pipeline.Resolve(cmd.Context(), rawURL)
	if err != nil {
		return err
	}

	outputDir := downloadDir
	if outputDir == "" {
		outputDir = appCtx.Config.DownloadDir
	}
	concurrency := downloadWorkers
	if concurrency <= 0 {
		concurrency = appCtx.Config.DownloadConcurrency
	}

	opts := downloader.DownloadOptions{
		OutputDir:    outputDir,
		Headers:      headersutil.ParseHeaders(downloadHeaders),
		ShowProgress: !quiet && !jsonOutput,
	}

	// Carousels are fetched as a batch of images
	if result.IsImagePost || downloadImages {
		if len(result.Images) == 0 {
			return fmt.Errorf("no images in resolved result for %s", rawURL)
		}

		pool := downloader.NewWorkerPool(concurrency, appCtx.Config.HTTPTimeout, appCtx.Config.UserAgent)
		results := pool.DownloadImages(cmd.Context(), result, opts)

		failed := 0
		for _, r := range results {
			if !r.Success {
				failed++
				log.Warn().Str("url", r.URL).Err(r.Error).Msg("Image download failed")
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d image downloads failed", failed, len(results))
		}
		if !quiet {
			fmt.Println(ui.Success(fmt.Sprintf("Downloaded %d images to %s", len(results), outputDir)))
		}
		return nil
	}

	if len(result.Formats) == 0 {
		return fmt.Errorf("no downloadable formats for %s", rawURL)
	}

	format := result.Formats[0]
	if downloadFormat != "" {
		found := false
		for _, f := range result.Formats {
			if f.FormatID == downloadFormat {
				format = f
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("format %q not found (have %d formats, try \"loom resolve\")", downloadFormat, len(result.Formats))
		}
	}

	dl := downloader.NewDownloader(appCtx.Config.HTTPTimeout, appCtx.Config.UserAgent)
	dr := dl.DownloadFormat(cmd.Context(), result, format, opts)
	if !dr.Success {
		return fmt.Errorf("download failed: %w", dr.Error)
	}

	if !quiet {
		fmt.Println(ui.Success("Saved ") + ui.Bold(dr.FilePath))
	}
	return nil
}
