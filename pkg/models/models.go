package models

import "time"

// Origin indicates which resolution path produced a MediaResult.
type Origin string

const (
	OriginExternal Origin = "external"
	OriginInternal Origin = "internal"
)

// MediaFormat represents one downloadable variant of a resolved media item.
type MediaFormat struct {
	FormatID   string `json:"format_id"`
	Ext        string `json:"ext"`
	Quality    string `json:"quality"`
	Filesize   int64  `json:"filesize"` // 0 if unknown
	URL        string `json:"url"`
	VideoCodec string `json:"vcodec,omitempty"`
	AudioCodec string `json:"acodec,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
}

// MediaImage represents one image of an image post (e.g. a carousel entry).
type MediaImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Ext    string `json:"ext,omitempty"`
	Title  string `json:"title,omitempty"`
}

// MediaResult is the unified resolution result handed to callers.
//
// Invariant: if Success is false, Formats and Images are empty and Error
// carries the failure message.
type MediaResult struct {
	Success     bool          `json:"success"`
	Title       string        `json:"title,omitempty"`
	Thumbnail   string        `json:"thumbnail,omitempty"`
	SourceURL   string        `json:"source_url,omitempty"`
	Description string        `json:"description,omitempty"`
	Uploader    string        `json:"uploader,omitempty"`
	Duration    float64       `json:"duration,omitempty"`
	Formats     []MediaFormat `json:"formats,omitempty"`
	Images      []MediaImage  `json:"images,omitempty"`
	IsImagePost bool          `json:"is_image_post"`
	Origin      Origin        `json:"origin,omitempty"`
	Error       string        `json:"error,omitempty"`
	ResolvedAt  time.Time     `json:"resolved_at,omitempty"`
}

// ResolveRequest is the inbound body of POST /api/resolve.
type ResolveRequest struct {
	URL string `json:"url"`
}

// ResolveOptions contains per-request options for the resolution pipeline.
type ResolveOptions struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
}

// Clone returns a deep-enough copy of the result: the struct plus fresh
// Formats and Images slices. Callers may reorder or filter the copy without
// affecting the original.
func (r *MediaResult) Clone() *MediaResult {
	if r == nil {
		return nil
	}
	out := *r
	if r.Formats != nil {
		out.Formats = make([]MediaFormat, len(r.Formats))
		copy(out.Formats, r.Formats)
	}
	if r.Images != nil {
		out.Images = make([]MediaImage, len(r.Images))
		copy(out.Images, r.Images)
	}
	return &out
}

// SizeBytes returns a rough byte size of the result for cache accounting.
func (r *MediaResult) SizeBytes() int64 {
	size := int64(len(r.Title) + len(r.Thumbnail) + len(r.SourceURL) + len(r.Description) + len(r.Error))
	for _, f := range r.Formats {
		size += int64(len(f.FormatID) + len(f.Ext) + len(f.Quality) + len(f.URL) + len(f.VideoCodec) + len(f.AudioCodec) + 32)
	}
	for _, img := range r.Images {
		size += int64(len(img.URL) + len(img.Ext) + len(img.Title) + 16)
	}
	return size + 64
}
