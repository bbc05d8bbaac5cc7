// Package classify partitions resolved media formats into presentation
// buckets (video, audio, image).
//
// The predicates sniff loosely-typed upstream fields (extension, codecs,
// quality labels) and are best effort: upstream data is not contractually
// structured, so ambiguous entries can be double-counted or missed. That
// behavior is documented, not patched.
package classify

import (
	"regexp"
	"strings"

	"github.com/medialoom/loom/pkg/models"
)

// Bucket selects which media kind to keep when filtering formats.
type Bucket string

const (
	BucketVideo Bucket = "video"
	BucketAudio Bucket = "audio"
	BucketImage Bucket = "image"
)

var (
	audioExts = map[string]bool{"m4a": true, "mp3": true, "webm": true, "opus": true}
	imageExts = map[string]bool{"jpg": true, "jpeg": true, "png": true, "webp": true, "gif": true}
	videoExts = map[string]bool{"mp4": true, "webm": true, "mkv": true, "mov": true}

	// e.g. "720p", "1080p60"
	resolutionPattern = regexp.MustCompile(`\b\d{3,4}p\d*\b`)
)

// ParseBucket maps a user-supplied string onto a Bucket, defaulting to video.
func ParseBucket(s string) Bucket {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "audio":
		return BucketAudio
	case "image", "images":
		return BucketImage
	default:
		return BucketVideo
	}
}

// Filter returns the subset of formats belonging to the given bucket.
// It is a pure function: same input, same output, no hidden state.
func Filter(formats []models.MediaFormat, bucket Bucket) []models.MediaFormat {
	var out []models.MediaFormat
	for _, f := range formats {
		if Matches(f, bucket) {
			out = append(out, f)
		}
	}
	return out
}

// Matches reports whether a single format belongs to the given bucket.
func Matches(f models.MediaFormat, bucket Bucket) bool {
	switch bucket {
	case BucketAudio:
		return isAudio(f)
	case BucketImage:
		return isImage(f)
	default:
		return isVideo(f)
	}
}

func isAudio(f models.MediaFormat) bool {
	ext := strings.ToLower(f.Ext)
	quality := strings.ToLower(f.Quality)
	id := strings.ToLower(f.FormatID)

	if audioExts[ext] {
		return true
	}
	if f.AudioCodec != "" && f.AudioCodec != "none" && (f.VideoCodec == "" || f.VideoCodec == "none") {
		return true
	}
	if strings.Contains(quality, "audio") || strings.Contains(quality, "kbps") {
		return true
	}
	return strings.Contains(id, "audio")
}

func isImage(f models.MediaFormat) bool {
	ext := strings.ToLower(f.Ext)
	quality := strings.ToLower(f.Quality)

	if imageExts[ext] {
		return true
	}
	return strings.Contains(quality, "image") || strings.Contains(quality, "thumbnail")
}

func isVideo(f models.MediaFormat) bool {
	if audioOnly(f) {
		return false
	}

	if f.VideoCodec != "" && f.VideoCodec != "none" {
		return true
	}
	if videoExts[strings.ToLower(f.Ext)] {
		return true
	}
	return resolutionPattern.MatchString(strings.ToLower(f.Quality))
}

// audioOnly flags formats that carry sound but no picture.
func audioOnly(f models.MediaFormat) bool {
	if f.AudioCodec != "" && f.AudioCodec != "none" && (f.VideoCodec == "" || f.VideoCodec == "none") {
		return true
	}
	quality := strings.ToLower(f.Quality)
	if strings.Contains(quality, "audio") || strings.Contains(quality, "kbps") {
		return true
	}
	return strings.Contains(strings.ToLower(f.FormatID), "audio")
}
