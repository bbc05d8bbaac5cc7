package external

import (
	"fmt"
	"time"

	"github.com/medialoom/loom/internal/engine"
	urlutil "github.com/medialoom/loom/internal/utils/url"
	"github.com/medialoom/loom/pkg/models"
)

// maxTitleLen is the display cap applied to upstream titles.
const maxTitleLen = 100

// upstreamResponse is the tagged union the external API answers with.
// Status is the discriminant; which other fields are meaningful depends on it.
type upstreamResponse struct {
	Status   string         `json:"status"`
	URL      string         `json:"url,omitempty"`
	Filename string         `json:"filename,omitempty"`
	Text     string         `json:"text,omitempty"`
	Thumb    string         `json:"thumb,omitempty"`
	Audio    string         `json:"audio,omitempty"`
	Picker   []upstreamPick `json:"picker,omitempty"`
	Error    *upstreamError `json:"error,omitempty"`
}

type upstreamPick struct {
	Type   string `json:"type"`
	URL    string `json:"url"`
	Thumb  string `json:"thumb,omitempty"`
	Title  string `json:"title,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type upstreamError struct {
	Code    string `json:"code,omitempty"`
	Context string `json:"context,omitempty"`
}

// normalize maps the three recognized upstream shapes onto a MediaResult.
// Unrecognized discriminants are rejected explicitly rather than coerced.
func normalize(upstream *upstreamResponse, sourceURL string) (*models.MediaResult, error) {
	switch upstream.Status {
	case "redirect", "tunnel":
		return normalizeSingle(upstream, sourceURL), nil
	case "picker":
		return normalizePicker(upstream, sourceURL), nil
	case "error":
		msg := upstream.Text
		if msg == "" && upstream.Error != nil {
			msg = upstream.Error.Code
		}
		if msg == "" {
			msg = "upstream reported an error"
		}
		return nil, engine.NewResolveError(engine.ErrCodeExternalFailed, msg, engine.ErrExternalFailed)
	default:
		return nil, engine.NewResolveError(engine.ErrCodeUnrecognizedShape,
			fmt.Sprintf("unrecognized upstream status %q", upstream.Status), engine.ErrUpstreamShape).
			WithDetail("status", upstream.Status)
	}
}

// normalizeSingle handles the redirect/tunnel shape: exactly one format.
func normalizeSingle(upstream *upstreamResponse, sourceURL string) *models.MediaResult {
	ext := urlutil.ExtFromPath(upstream.Filename, "")
	if ext == "" {
		ext = urlutil.ExtFromPath(upstream.URL, "mp4")
	}

	title := truncateTitle(upstream.Text)
	if title == "" {
		title = upstream.Filename
	}

	return &models.MediaResult{
		Success:   true,
		Title:     title,
		Thumbnail: upstream.Thumb,
		SourceURL: sourceURL,
		Formats: []models.MediaFormat{
			{
				FormatID: "default",
				Ext:      ext,
				Quality:  "HD",
				URL:      upstream.URL,
			},
		},
		Origin:     models.OriginExternal,
		ResolvedAt: time.Now(),
	}
}

// normalizePicker splits picker entries into images (photo-typed) and
// formats (everything else).
func normalizePicker(upstream *upstreamResponse, sourceURL string) *models.MediaResult {
	result := &models.MediaResult{
		Success:    true,
		SourceURL:  sourceURL,
		Thumbnail:  upstream.Thumb,
		Origin:     models.OriginExternal,
		ResolvedAt: time.Now(),
	}

	for i, pick := range upstream.Picker {
		if pick.Type == "photo" {
			result.Images = append(result.Images, models.MediaImage{
				URL:    pick.URL,
				Width:  pick.Width,
				Height: pick.Height,
				Ext:    urlutil.ExtFromPath(pick.URL, "jpg"),
				Title:  pick.Title,
			})
			continue
		}

		quality := pick.Title
		if quality == "" {
			quality = pick.Type
		}
		result.Formats = append(result.Formats, models.MediaFormat{
			FormatID: fmt.Sprintf("picker-%d", i),
			Ext:      urlutil.ExtFromPath(pick.URL, "mp4"),
			Quality:  quality,
			URL:      pick.URL,
			Width:    pick.Width,
			Height:   pick.Height,
		})
	}

	// A background audio track sometimes accompanies photo posts.
	if upstream.Audio != "" {
		result.Formats = append(result.Formats, models.MediaFormat{
			FormatID:   "audio",
			Ext:        urlutil.ExtFromPath(upstream.Audio, "mp3"),
			Quality:    "audio",
			URL:        upstream.Audio,
			AudioCodec: "mp3",
		})
	}

	result.IsImagePost = len(result.Images) > 0

	result.Title = truncateTitle(upstream.Text)
	if result.Title == "" && len(upstream.Picker) > 0 {
		result.Title = truncateTitle(upstream.Picker[0].Title)
	}

	if result.Thumbnail == "" {
		for _, pick := range upstream.Picker {
			if pick.Thumb != "" {
				result.Thumbnail = pick.Thumb
				break
			}
		}
	}

	return result
}

// truncateTitle caps a title at maxTitleLen runes, appending an ellipsis.
func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleLen {
		return title
	}
	return string(runes[:maxTitleLen]) + "..."
}
