package timeline

import (
	"context"
	"fmt"
	"sort"

	"frameline/logger"
	"frameline/model"
	"frameline/repository"

	"github.com/google/uuid"
)

const (
	// DefaultProjectDurationMs is the fixed project length in the current
	// product. The store clamps every time value into [0, projectDuration].
	DefaultProjectDurationMs int64 = 30000
	// MinKeyframeDurationMs is the shortest clip a resize may produce.
	MinKeyframeDurationMs int64 = 1000
)

// Refresher is the cache-invalidation hook called after every committed
// mutation that changes a track's keyframe list. Readers (UI, preview,
// cache) re-fetch on refresh; the store keeps no subscription state itself.
type Refresher interface {
	RefreshKeyframes(ctx context.Context, trackID string)
}

// RefresherFunc adapts a function to the Refresher interface.
type RefresherFunc func(ctx context.Context, trackID string)

func (f RefresherFunc) RefreshKeyframes(ctx context.Context, trackID string) {
	f(ctx, trackID)
}

// ResizeEdge names the clip edge a resize gesture grabs.
type ResizeEdge string

const (
	EdgeLeft  ResizeEdge = "left"
	EdgeRight ResizeEdge = "right"
)

// TrackTimeline is a read snapshot of one track with its ordered keyframes.
type TrackTimeline struct {
	Track     *model.Track
	Keyframes []*model.Keyframe
}

// Store owns the track/keyframe data model. Every mutation validates the
// domain invariants before committing: non-negative bounded times, positive
// durations capped by intrinsic media length, and no overlapping clips on
// one track.
type Store struct {
	tracks    repository.TrackRepository
	keyframes repository.KeyframeRepository
	media     MediaResolver

	projectDuration int64
	minDuration     int64
	refresher       Refresher
}

// NewStore creates a store over the given repositories. resolver may be nil
// when intrinsic media lengths are not available; duration caps then fall
// back to the project duration.
func NewStore(tracks repository.TrackRepository, keyframes repository.KeyframeRepository, resolver MediaResolver, projectDurationMs int64) *Store {
	if projectDurationMs <= 0 {
		projectDurationMs = DefaultProjectDurationMs
	}
	return &Store{
		tracks:          tracks,
		keyframes:       keyframes,
		media:           resolver,
		projectDuration: projectDurationMs,
		minDuration:     MinKeyframeDurationMs,
	}
}

// SetRefresher installs the cache-invalidation hook.
func (s *Store) SetRefresher(r Refresher) {
	s.refresher = r
}

// ProjectDuration returns the fixed project length in milliseconds.
func (s *Store) ProjectDuration() int64 {
	return s.projectDuration
}

func (s *Store) refresh(ctx context.Context, trackID string) {
	if s.refresher != nil {
		s.refresher.RefreshKeyframes(ctx, trackID)
	}
}

// CreateTrack persists a new track. Creation is not deduplicated; callers
// that want one track per type must look up first (the provisioner does).
func (s *Store) CreateTrack(ctx context.Context, projectID string, trackType model.TrackType, label string) (*model.Track, error) {
	if projectID == "" {
		return nil, &ValidationError{Invariant: "project-id", Detail: "projectId must not be empty"}
	}
	if !trackType.Valid() {
		return nil, &ValidationError{Invariant: "track-type", Detail: fmt.Sprintf("unknown track type %q", trackType)}
	}
	if label == "" {
		label = trackType.DefaultLabel()
	}
	track := &model.Track{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Type:      trackType,
		Label:     label,
	}
	if err := s.tracks.Create(ctx, track); err != nil {
		return nil, fmt.Errorf("failed to create track: %w", err)
	}
	logger.Info("track created",
		logger.String("trackId", track.ID),
		logger.String("projectId", projectID),
		logger.String("type", string(trackType)))
	return track, nil
}

// FindTrack returns the first track of the given type in the project, or
// (nil, nil) when none exists.
func (s *Store) FindTrack(ctx context.Context, projectID string, trackType model.TrackType) (*model.Track, error) {
	return s.tracks.FindByProjectAndType(ctx, projectID, trackType)
}

// GetTrack returns the track or ErrTrackNotFound.
func (s *Store) GetTrack(ctx context.Context, id string) (*model.Track, error) {
	track, err := s.tracks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, ErrTrackNotFound
	}
	return track, nil
}

// TracksByProject lists the project's tracks in render priority order:
// video above music above voiceover. The ordering is applied at read time,
// not storage time.
func (s *Store) TracksByProject(ctx context.Context, projectID string) ([]*model.Track, error) {
	tracks, err := s.tracks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tracks, func(i, j int) bool {
		return tracks[i].Type.Priority() < tracks[j].Type.Priority()
	})
	return tracks, nil
}

// DeleteTrack removes a track and all of its keyframes (a track owns its
// keyframes; deletion cascades).
func (s *Store) DeleteTrack(ctx context.Context, id string) error {
	track, err := s.tracks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if track == nil {
		return ErrTrackNotFound
	}
	if err := s.keyframes.DeleteByTrack(ctx, id); err != nil {
		return fmt.Errorf("failed to delete keyframes for track %s: %w", id, err)
	}
	if err := s.tracks.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete track %s: %w", id, err)
	}
	s.refresh(ctx, id)
	return nil
}

// KeyframesByTrack returns the track's keyframes ordered by timestamp
// ascending. This is a restartable read: callers re-query after mutations.
func (s *Store) KeyframesByTrack(ctx context.Context, trackID string) ([]*model.Keyframe, error) {
	return s.keyframes.ListByTrack(ctx, trackID)
}

// GetKeyframe returns the keyframe or ErrKeyframeNotFound.
func (s *Store) GetKeyframe(ctx context.Context, id string) (*model.Keyframe, error) {
	kf, err := s.keyframes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if kf == nil {
		return nil, ErrKeyframeNotFound
	}
	return kf, nil
}

// ProjectTimeline returns a priority-ordered snapshot of every track with
// its keyframes, as consumed by the preview synchronizer.
func (s *Store) ProjectTimeline(ctx context.Context, projectID string) ([]TrackTimeline, error) {
	tracks, err := s.TracksByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]TrackTimeline, 0, len(tracks))
	for _, track := range tracks {
		kfs, err := s.keyframes.ListByTrack(ctx, track.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, TrackTimeline{Track: track, Keyframes: kfs})
	}
	return out, nil
}

// AppendKeyframe places a new keyframe immediately after the last one on
// the track (or at 0 on an empty track). The insertion point reaching the
// project end is a CapacityError; a duration that runs past the end is
// truncated to the remaining room and capped by the media's intrinsic
// length when it has one.
func (s *Store) AppendKeyframe(ctx context.Context, trackID string, data model.KeyframeData, durationMs int64) (*model.Keyframe, error) {
	if durationMs <= 0 {
		return nil, &ValidationError{Invariant: "duration-positive", Detail: fmt.Sprintf("duration %dms must be > 0", durationMs)}
	}
	if err := data.Validate(); err != nil {
		return nil, &ValidationError{Invariant: "data-shape", Detail: err.Error()}
	}
	track, err := s.GetTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if track.Locked {
		return nil, &ValidationError{Invariant: "track-locked", Detail: fmt.Sprintf("track %s is locked", trackID)}
	}

	existing, err := s.keyframes.ListByTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}
	var ts int64
	if n := len(existing); n > 0 {
		ts = existing[n-1].End()
	}
	if ts >= s.projectDuration {
		return nil, &CapacityError{Timestamp: ts, Limit: s.projectDuration}
	}
	if ts+durationMs > s.projectDuration {
		durationMs = s.projectDuration - ts
	}
	if intrinsic := s.intrinsicDuration(ctx, data.MediaID); intrinsic > 0 && durationMs > intrinsic {
		durationMs = intrinsic
	}
	if durationMs <= 0 {
		return nil, &CapacityError{Timestamp: ts, Limit: s.projectDuration}
	}

	kf := &model.Keyframe{
		ID:        uuid.New().String(),
		TrackID:   trackID,
		Timestamp: ts,
		Duration:  durationMs,
		Data:      data,
	}
	if err := s.keyframes.Create(ctx, kf); err != nil {
		return nil, fmt.Errorf("failed to create keyframe: %w", err)
	}
	s.refresh(ctx, trackID)
	logger.Debug("keyframe appended",
		logger.String("keyframeId", kf.ID),
		logger.String("trackId", trackID),
		logger.Int64("timestamp", ts),
		logger.Int64("duration", durationMs))
	return kf, nil
}

// MoveKeyframe sets a new start timestamp for the clip. The request is
// clamped into [0, T-duration], then into the nearest free gap between its
// neighbors; a track with no gap wide enough rejects the move.
func (s *Store) MoveKeyframe(ctx context.Context, id string, newTimestamp int64) error {
	kf, err := s.GetKeyframe(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkUnlocked(ctx, kf.TrackID); err != nil {
		return err
	}

	candidate := clampInt64(newTimestamp, 0, s.projectDuration-kf.Duration)
	others, err := s.siblings(ctx, kf)
	if err != nil {
		return err
	}
	placed, ok := nearestFit(candidate, kf.Duration, others, s.projectDuration)
	if !ok {
		return &ValidationError{
			Invariant: "no-overlap",
			Detail:    fmt.Sprintf("no free gap of %dms on track %s", kf.Duration, kf.TrackID),
		}
	}

	kf.Timestamp = placed
	if err := s.keyframes.Update(ctx, kf); err != nil {
		return fmt.Errorf("failed to move keyframe %s: %w", id, err)
	}
	s.refresh(ctx, kf.TrackID)
	return nil
}

// ResizeKeyframe sets a new duration for the clip. Grabbing the left edge
// keeps the right edge fixed and shifts the start; grabbing the right edge
// keeps the start fixed. The duration is clamped into [minDuration, cap]
// where cap is the smallest of the intrinsic media length, the room up to
// the neighboring clip, and the project bounds.
func (s *Store) ResizeKeyframe(ctx context.Context, id string, edge ResizeEdge, newDuration int64) error {
	if edge != EdgeLeft && edge != EdgeRight {
		return &ValidationError{Invariant: "resize-edge", Detail: fmt.Sprintf("unknown edge %q", edge)}
	}
	kf, err := s.GetKeyframe(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkUnlocked(ctx, kf.TrackID); err != nil {
		return err
	}
	others, err := s.siblings(ctx, kf)
	if err != nil {
		return err
	}

	// Available room on the grabbed side, bounded by the neighbor there.
	var maxDuration int64
	if edge == EdgeRight {
		limit := s.projectDuration
		for _, o := range others {
			if o.Timestamp >= kf.End() && o.Timestamp < limit {
				limit = o.Timestamp
			}
		}
		maxDuration = limit - kf.Timestamp
	} else {
		end := kf.End()
		var floor int64
		for _, o := range others {
			if o.End() <= kf.Timestamp && o.End() > floor {
				floor = o.End()
			}
		}
		maxDuration = end - floor
	}
	if intrinsic := s.intrinsicDuration(ctx, kf.Data.MediaID); intrinsic > 0 && intrinsic < maxDuration {
		maxDuration = intrinsic
	}
	if maxDuration < s.minDuration {
		return &ValidationError{
			Invariant: "duration-min",
			Detail:    fmt.Sprintf("only %dms available, minimum clip length is %dms", maxDuration, s.minDuration),
		}
	}

	newDuration = clampInt64(newDuration, s.minDuration, maxDuration)
	if edge == EdgeLeft {
		kf.Timestamp = kf.End() - newDuration
	}
	kf.Duration = newDuration
	if err := s.keyframes.Update(ctx, kf); err != nil {
		return fmt.Errorf("failed to resize keyframe %s: %w", id, err)
	}
	s.refresh(ctx, kf.TrackID)
	return nil
}

// DeleteKeyframe removes a single keyframe. No cascade beyond the one row.
func (s *Store) DeleteKeyframe(ctx context.Context, id string) error {
	kf, err := s.GetKeyframe(ctx, id)
	if err != nil {
		return err
	}
	if err := s.keyframes.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete keyframe %s: %w", id, err)
	}
	s.refresh(ctx, kf.TrackID)
	return nil
}

func (s *Store) checkUnlocked(ctx context.Context, trackID string) error {
	track, err := s.GetTrack(ctx, trackID)
	if err != nil {
		return err
	}
	if track.Locked {
		return &ValidationError{Invariant: "track-locked", Detail: fmt.Sprintf("track %s is locked", trackID)}
	}
	return nil
}

// siblings returns the other keyframes on kf's track, timestamp ascending.
func (s *Store) siblings(ctx context.Context, kf *model.Keyframe) ([]*model.Keyframe, error) {
	all, err := s.keyframes.ListByTrack(ctx, kf.TrackID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, o := range all {
		if o.ID != kf.ID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Store) intrinsicDuration(ctx context.Context, mediaID string) int64 {
	if s.media == nil || mediaID == "" {
		return 0
	}
	media, err := s.media.ResolveMedia(ctx, mediaID)
	if err != nil || media == nil {
		// Media resolution is best-effort here: without it the duration is
		// still bounded by the project and the neighbors.
		logger.Debug("media resolution failed", logger.String("mediaId", mediaID), logger.ErrorField(err))
		return 0
	}
	return media.DurationMs
}

// nearestFit places a clip of the given duration as close as possible to
// the requested timestamp without overlapping any of the (sorted) others.
// It scans the free gaps, clamps the request into each gap that is wide
// enough, and returns the position with the smallest displacement.
func nearestFit(requested, duration int64, others []*model.Keyframe, total int64) (int64, bool) {
	gapStart := int64(0)
	best := int64(-1)
	bestDist := int64(-1)

	consider := func(gapStart, gapEnd int64) {
		if gapEnd-gapStart < duration {
			return
		}
		pos := clampInt64(requested, gapStart, gapEnd-duration)
		dist := pos - requested
		if dist < 0 {
			dist = -dist
		}
		if best < 0 || dist < bestDist {
			best, bestDist = pos, dist
		}
	}

	for _, o := range others {
		consider(gapStart, o.Timestamp)
		if o.End() > gapStart {
			gapStart = o.End()
		}
	}
	consider(gapStart, total)

	if best < 0 {
		return 0, false
	}
	return best, true
}
