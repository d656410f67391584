package repository

import (
	"context"
	"sort"
	"sync"

	"frameline/model"
)

// In-memory repository implementations. They back the engine when it is
// embedded as a library without a database, and all of the package tests.

// memoryTrackRepository implements TrackRepository with a map.
type memoryTrackRepository struct {
	mu     sync.RWMutex
	tracks map[string]model.Track
	order  []string // insertion order, stands in for created_at ordering
}

// NewMemoryTrackRepository creates an empty in-memory track repository.
func NewMemoryTrackRepository() TrackRepository {
	return &memoryTrackRepository{tracks: make(map[string]model.Track)}
}

func (r *memoryTrackRepository) Create(_ context.Context, track *model.Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracks[track.ID] = *track
	r.order = append(r.order, track.ID)
	return nil
}

func (r *memoryTrackRepository) GetByID(_ context.Context, id string) (*model.Track, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.tracks[id]; ok {
		copied := t
		return &copied, nil
	}
	return nil, nil
}

func (r *memoryTrackRepository) FindByProjectAndType(_ context.Context, projectID string, trackType model.TrackType) (*model.Track, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		t, ok := r.tracks[id]
		if !ok {
			continue
		}
		if t.ProjectID == projectID && t.Type == trackType {
			copied := t
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memoryTrackRepository) ListByProject(_ context.Context, projectID string) ([]*model.Track, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Track
	for _, id := range r.order {
		t, ok := r.tracks[id]
		if !ok || t.ProjectID != projectID {
			continue
		}
		copied := t
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memoryTrackRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tracks, id)
	return nil
}

// memoryKeyframeRepository implements KeyframeRepository with a map.
type memoryKeyframeRepository struct {
	mu        sync.RWMutex
	keyframes map[string]model.Keyframe
}

// NewMemoryKeyframeRepository creates an empty in-memory keyframe repository.
func NewMemoryKeyframeRepository() KeyframeRepository {
	return &memoryKeyframeRepository{keyframes: make(map[string]model.Keyframe)}
}

func (r *memoryKeyframeRepository) Create(_ context.Context, kf *model.Keyframe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keyframes[kf.ID] = *kf
	return nil
}

func (r *memoryKeyframeRepository) GetByID(_ context.Context, id string) (*model.Keyframe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if kf, ok := r.keyframes[id]; ok {
		copied := kf
		return &copied, nil
	}
	return nil, nil
}

func (r *memoryKeyframeRepository) ListByTrack(_ context.Context, trackID string) ([]*model.Keyframe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Keyframe
	for _, kf := range r.keyframes {
		if kf.TrackID != trackID {
			continue
		}
		copied := kf
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

func (r *memoryKeyframeRepository) Update(_ context.Context, kf *model.Keyframe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keyframes[kf.ID] = *kf
	return nil
}

func (r *memoryKeyframeRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keyframes, id)
	return nil
}

func (r *memoryKeyframeRepository) DeleteByTrack(_ context.Context, trackID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, kf := range r.keyframes {
		if kf.TrackID == trackID {
			delete(r.keyframes, id)
		}
	}
	return nil
}
