// internal/cli/resolve.go
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/medialoom/loom/internal/classify"
	"github.com/medialoom/loom/internal/ui"
	"github.com/medialoom/loom/internal/utils/output"
	"github.com/medialoom/loom/pkg/models"
)

var (
	resolveBucket string
	resolveOutput string
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <url>",
	Short: "Resolve a media page URL into direct download links",
	Long: `Resolves a media page URL through the external resolution API, falling back
to the local extraction script when the API cannot handle the link.

The result lists every available format with its container, quality and size,
or the image list for carousel posts.`,
	Example: `  # Resolve a video page and print a summary
  loom resolve https://example.com/watch/abc

  # Only show audio formats
  loom resolve https://example.com/watch/abc --bucket=audio

  # Write the full resolution as JSON
  loom resolve https://example.com/watch/abc --output=result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVarP(&resolveBucket, "bucket", "b", "", "Filter formats by kind: video, audio, or image")
	resolveCmd.Flags().StringVarP(&resolveOutput, "output", "o", "", "Write the result to a file (.json, .md, or .csv)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	appCtx := GetApp()
	if appCtx == nil {
		return fmt.Errorf("application not initialized")
	}

	rawURL := args[0]
	log.Debug().Str("url", rawURL).Msg("Resolving URL")

	result, err := appCtx.Pipeline.Resolve(cmd.Context(), rawURL)
	if err != nil {
		return err
	}

	if resolveBucket != "" && !result.IsImagePost {
		bucket := classify.ParseBucket(resolveBucket)
		result.Formats = classify.Filter(result.Formats, bucket)
	}

	if resolveOutput != "" {
		return saveResult(result, resolveOutput)
	}

	if jsonOutput {
		return output.RenderJSON(os.Stdout, result)
	}

	if !quiet {
		fmt.Println(ui.Success("Resolved: ") + ui.Bold(result.Title))
	}
	return output.RenderMarkdown(os.Stdout, result)
}

func saveResult(res *models.MediaResult, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return output.SaveJSON(res, path)
	case ".md", ".markdown":
		return output.SaveMarkdown(res, path)
	case ".csv":
		return output.SaveCSV(res, path)
	default:
		return fmt.Errorf("unsupported output extension %q (use .json, .md or .csv)", filepath.Ext(path))
	}
}
