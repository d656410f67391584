package timeline

import (
	"context"
	"errors"
	"fmt"

	"frameline/logger"
	"frameline/model"
)

// DefaultClipDurationMs is used when neither the media nor the drop payload
// carries a usable duration.
const DefaultClipDurationMs int64 = 5000

// Provisioner handles external drop/insert events: it finds or lazily
// creates the track matching the media type and appends a keyframe at the
// insertion point.
type Provisioner struct {
	store           *Store
	media           MediaResolver
	defaultDuration int64
}

// NewProvisioner creates a provisioner over the store. resolver may be nil;
// durations then come from the drop metadata or the default.
func NewProvisioner(store *Store, resolver MediaResolver, defaultDurationMs int64) *Provisioner {
	if defaultDurationMs <= 0 {
		defaultDurationMs = DefaultClipDurationMs
	}
	return &Provisioner{store: store, media: resolver, defaultDuration: defaultDurationMs}
}

// PlaceMedia places one dropped item on the project timeline. Items whose
// status is not completed are skipped as a no-op, returning (nil, nil).
// Placement is all-or-nothing: when the append fails after this call
// created the track, the empty track is deleted again before the error is
// returned.
func (p *Provisioner) PlaceMedia(ctx context.Context, projectID string, item model.DropItem) (*model.Keyframe, error) {
	if item.Status != model.DropStatusCompleted {
		logger.Debug("drop item not eligible for placement",
			logger.String("itemId", item.ID),
			logger.String("status", item.Status))
		return nil, nil
	}
	trackType, ok := model.TrackTypeForMedia(item.MediaType)
	if !ok {
		return nil, &ValidationError{Invariant: "media-type", Detail: fmt.Sprintf("no track type for media type %q", item.MediaType)}
	}

	media := p.resolve(ctx, item.ID)

	track, err := p.store.FindTrack(ctx, projectID, trackType)
	if err != nil {
		return nil, &ProvisioningError{Stage: "find-track", Err: err}
	}
	created := false
	if track == nil {
		track, err = p.store.CreateTrack(ctx, projectID, trackType, trackType.DefaultLabel())
		if err != nil {
			return nil, &ProvisioningError{Stage: "create-track", Err: err}
		}
		created = true
	}

	kf, err := p.store.AppendKeyframe(ctx, track.ID, p.buildData(trackType, item, media), p.pickDuration(trackType, item, media))
	if err != nil {
		// Compensating delete: a placement must not leave an orphaned empty
		// track behind (the underlying store is not transactional).
		if created {
			if rbErr := p.store.DeleteTrack(ctx, track.ID); rbErr != nil {
				logger.Error("failed to roll back auto-provisioned track",
					logger.String("trackId", track.ID),
					logger.ErrorField(rbErr))
			}
		}
		var vErr *ValidationError
		var cErr *CapacityError
		if errors.As(err, &vErr) || errors.As(err, &cErr) {
			return nil, err
		}
		return nil, &ProvisioningError{Stage: "append", Err: err}
	}

	logger.Info("media placed on timeline",
		logger.String("itemId", item.ID),
		logger.String("trackId", track.ID),
		logger.Int64("timestamp", kf.Timestamp),
		logger.Int64("duration", kf.Duration))
	return kf, nil
}

func (p *Provisioner) resolve(ctx context.Context, mediaID string) *Media {
	if p.media == nil || mediaID == "" {
		return nil
	}
	media, err := p.media.ResolveMedia(ctx, mediaID)
	if err != nil {
		logger.Warn("media resolution failed during placement",
			logger.String("mediaId", mediaID),
			logger.ErrorField(err))
		return nil
	}
	return media
}

// pickDuration chooses the clip length: intrinsic media duration for video,
// supplied metadata duration otherwise, then the default.
func (p *Provisioner) pickDuration(trackType model.TrackType, item model.DropItem, media *Media) int64 {
	if trackType == model.TrackTypeVideo && media != nil && media.DurationMs > 0 {
		return media.DurationMs
	}
	if d := item.MetadataDuration(); d > 0 {
		return d
	}
	if media != nil && media.DurationMs > 0 {
		return media.DurationMs
	}
	return p.defaultDuration
}

// buildData assembles the kind-tagged payload: image/video clips keep a
// renderable URL next to the prompt, audio clips carry only the prompt.
func (p *Provisioner) buildData(trackType model.TrackType, item model.DropItem, media *Media) model.KeyframeData {
	if trackType == model.TrackTypeVideo {
		url := item.ImageURL()
		if media != nil && media.URL != "" {
			url = media.URL
		}
		return model.KeyframeData{
			Kind:    model.KeyframeKindVideo,
			MediaID: item.ID,
			URL:     url,
			Prompt:  item.PromptText(),
		}
	}
	return model.KeyframeData{
		Kind:    model.KeyframeKindPrompt,
		MediaID: item.ID,
		Prompt:  item.PromptText(),
	}
}
