package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/medialoom/loom/pkg/models"
)

// RenderMarkdown writes a human-readable Markdown summary of a resolved
// result: metadata up top, then a table of formats or the image list.
func RenderMarkdown(w io.Writer, res *models.MediaResult) error {
	var b strings.Builder

	title := res.Title
	if title == "" {
		title = res.SourceURL
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if res.Uploader != "" {
		fmt.Fprintf(&b, "- **Uploader:** %s\n", res.Uploader)
	}
	if res.Duration > 0 {
		fmt.Fprintf(&b, "- **Duration:** %s\n", formatDuration(res.Duration))
	}
	fmt.Fprintf(&b, "- **Source:** %s\n", res.SourceURL)
	fmt.Fprintf(&b, "- **Resolved by:** %s\n", res.Origin)
	if res.Thumbnail != "" {
		fmt.Fprintf(&b, "- **Thumbnail:** %s\n", res.Thumbnail)
	}
	b.WriteString("\n")

	if res.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", res.Description)
	}

	if res.IsImagePost {
		fmt.Fprintf(&b, "## Images (%d)\n\n", len(res.Images))
		for i, img := range res.Images {
			fmt.Fprintf(&b, "%d. %s\n", i+1, img.URL)
		}
	} else if len(res.Formats) > 0 {
		b.WriteString("## Formats\n\n")
		b.WriteString("| ID | Ext | Quality | Size |\n")
		b.WriteString("|----|-----|---------|------|\n")
		for _, f := range res.Formats {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", f.FormatID, f.Ext, f.Quality, formatSize(f.Filesize))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// SaveMarkdown writes the Markdown summary to filepath.
func SaveMarkdown(res *models.MediaResult, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer file.Close()
	return RenderMarkdown(file, res)
}

func formatDuration(seconds float64) string {
	total := int(seconds)
	if total >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func formatSize(bytes int64) string {
	if bytes <= 0 {
		return "unknown"
	}
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
