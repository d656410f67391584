package timeline

import "context"

// Media is the resolved view of an externally owned media item.
type Media struct {
	ID        string
	MediaType string // image, video, music, voiceover
	URL       string
	// DurationMs is the intrinsic media length in milliseconds. Zero means
	// the media has no intrinsic length (images).
	DurationMs int64
}

// MediaResolver looks up externally owned media by ID. Implementations live
// outside the engine (object storage, generation pipeline); tests use an
// in-memory map.
type MediaResolver interface {
	ResolveMedia(ctx context.Context, mediaID string) (*Media, error)
}

// MediaResolverFunc adapts a function to the MediaResolver interface.
type MediaResolverFunc func(ctx context.Context, mediaID string) (*Media, error)

func (f MediaResolverFunc) ResolveMedia(ctx context.Context, mediaID string) (*Media, error) {
	return f(ctx, mediaID)
}
