package model

// Drop payload statuses as reported by the generation pipeline. Only
// completed items may be placed on the timeline.
const (
	DropStatusCompleted = "completed"
)

// DropInput carries the generation inputs that produced the media item.
type DropInput struct {
	ImageURL string `json:"image_url,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
}

// DropMetadata carries optional media metadata supplied with the drop.
type DropMetadata struct {
	Duration int64 `json:"duration,omitempty"` // milliseconds
}

// DropItem is the inbound payload for drag-and-drop or click-to-insert
// placement. It mirrors what the generation pipeline hands the editor.
type DropItem struct {
	ID        string        `json:"id"`
	MediaType string        `json:"mediaType"`
	Status    string        `json:"status"`
	Input     *DropInput    `json:"input,omitempty"`
	Metadata  *DropMetadata `json:"metadata,omitempty"`
}

// Prompt returns the generation prompt, if any.
func (d DropItem) PromptText() string {
	if d.Input == nil {
		return ""
	}
	return d.Input.Prompt
}

// ImageURL returns the rendered asset URL, if any.
func (d DropItem) ImageURL() string {
	if d.Input == nil {
		return ""
	}
	return d.Input.ImageURL
}

// MetadataDuration returns the supplied media duration in milliseconds, or 0.
func (d DropItem) MetadataDuration() int64 {
	if d.Metadata == nil {
		return 0
	}
	return d.Metadata.Duration
}
