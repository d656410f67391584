package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// KeyframeKind tags the payload shape carried by a keyframe.
type KeyframeKind string

const (
	// KeyframeKindVideo is used for image and video clips: the payload keeps a
	// renderable URL next to the media reference.
	KeyframeKindVideo KeyframeKind = "video"
	// KeyframeKindPrompt is used for audio clips (music, voiceover): the
	// payload carries only the generation prompt and the media reference.
	KeyframeKindPrompt KeyframeKind = "prompt"
)

// KeyframeData is the kind-tagged payload of a keyframe. MediaID is a
// non-owning reference to externally managed media.
type KeyframeData struct {
	Kind    KeyframeKind `json:"kind"`
	MediaID string       `json:"mediaId"`
	URL     string       `json:"url,omitempty"`
	Prompt  string       `json:"prompt,omitempty"`
}

// Validate checks the payload against its declared kind.
func (d KeyframeData) Validate() error {
	if d.MediaID == "" {
		return fmt.Errorf("keyframe data missing mediaId")
	}
	switch d.Kind {
	case KeyframeKindVideo:
		if d.URL == "" {
			return fmt.Errorf("video keyframe data missing url")
		}
		return nil
	case KeyframeKindPrompt:
		return nil
	default:
		return fmt.Errorf("unknown keyframe data kind %q", d.Kind)
	}
}

// Scan implements sql.Scanner so GORM can read the JSON column.
func (d *KeyframeData) Scan(value interface{}) error {
	if value == nil {
		*d = KeyframeData{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into KeyframeData", value)
	}
	if len(bytes) == 0 || string(bytes) == "null" {
		*d = KeyframeData{}
		return nil
	}
	return json.Unmarshal(bytes, d)
}

// Value implements driver.Valuer.
func (d KeyframeData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Keyframe is one clip on a track. Timestamp and Duration are absolute
// project milliseconds; the end of the clip is Timestamp+Duration, exclusive.
type Keyframe struct {
	ID        string       `json:"id" gorm:"primaryKey;size:36"`
	TrackID   string       `json:"trackId" gorm:"size:36;index;not null"`
	Timestamp int64        `json:"timestamp" gorm:"not null"`
	Duration  int64        `json:"duration" gorm:"not null"`
	Data      KeyframeData `json:"data" gorm:"type:json"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// TableName returns the table name for Keyframe.
func (Keyframe) TableName() string {
	return "timeline_keyframes"
}

// End returns the exclusive end of the clip in project milliseconds.
func (k *Keyframe) End() int64 {
	return k.Timestamp + k.Duration
}

// Contains reports whether ts falls inside [Timestamp, Timestamp+Duration).
func (k *Keyframe) Contains(ts int64) bool {
	return ts >= k.Timestamp && ts < k.End()
}
