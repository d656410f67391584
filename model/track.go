package model

import "time"

// TrackType classifies a timeline track. A track's type is fixed at creation
// and decides which media kinds it accepts.
type TrackType string

const (
	TrackTypeVideo     TrackType = "video"
	TrackTypeMusic     TrackType = "music"
	TrackTypeVoiceover TrackType = "voiceover"
)

// Valid reports whether t is one of the known track types.
func (t TrackType) Valid() bool {
	switch t {
	case TrackTypeVideo, TrackTypeMusic, TrackTypeVoiceover:
		return true
	}
	return false
}

// Priority returns the fixed render order for the type: video rows render
// above music, music above voiceover. Lower value means higher on screen.
func (t TrackType) Priority() int {
	switch t {
	case TrackTypeVideo:
		return 0
	case TrackTypeMusic:
		return 1
	case TrackTypeVoiceover:
		return 2
	}
	return 3
}

// DefaultLabel returns the capitalized label used when a track is
// auto-provisioned without an explicit name.
func (t TrackType) DefaultLabel() string {
	switch t {
	case TrackTypeVideo:
		return "Video"
	case TrackTypeMusic:
		return "Music"
	case TrackTypeVoiceover:
		return "Voiceover"
	}
	return "Track"
}

// TrackTypeForMedia maps an inbound media type to the track type it lands on.
// Images and videos share the video track; unknown media types map to nothing.
func TrackTypeForMedia(mediaType string) (TrackType, bool) {
	switch mediaType {
	case "video", "image":
		return TrackTypeVideo, true
	case "music":
		return TrackTypeMusic, true
	case "voiceover":
		return TrackTypeVoiceover, true
	}
	return "", false
}

// Track is one horizontal lane of the timeline.
type Track struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	ProjectID string    `json:"projectId" gorm:"size:36;index;not null"`
	Type      TrackType `json:"type" gorm:"size:20;not null"`
	Label     string    `json:"label" gorm:"size:100;not null"`
	Locked    bool      `json:"locked" gorm:"default:false"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the table name for Track.
func (Track) TableName() string {
	return "timeline_tracks"
}
