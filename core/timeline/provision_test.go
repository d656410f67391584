package timeline

import (
	"context"
	"errors"
	"testing"

	"frameline/model"
)

func completedItem(id, mediaType string) model.DropItem {
	return model.DropItem{
		ID:        id,
		MediaType: mediaType,
		Status:    model.DropStatusCompleted,
		Input:     &model.DropInput{ImageURL: "https://media.test/" + id, Prompt: "a quiet valley"},
	}
}

func TestPlaceMedia_ReusesTrack(t *testing.T) {
	env := newTestEnv(nil)
	p := NewProvisioner(env.store, nil, 5000)

	first, err := p.PlaceMedia(context.Background(), "proj-1", completedItem("m-1", "image"))
	if err != nil {
		t.Fatalf("first placement: %v", err)
	}
	second, err := p.PlaceMedia(context.Background(), "proj-1", completedItem("m-2", "video"))
	if err != nil {
		t.Fatalf("second placement: %v", err)
	}

	tracks, err := env.store.TracksByProject(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("TracksByProject() error = %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("got %d tracks, want 1 (image and video share the video track)", len(tracks))
	}
	if tracks[0].Label != "Video" {
		t.Errorf("Label = %q, want Video", tracks[0].Label)
	}
	if first.Timestamp != 0 || second.Timestamp != 5000 {
		t.Errorf("timestamps = %d, %d, want 0, 5000", first.Timestamp, second.Timestamp)
	}
	if first.End() > second.Timestamp {
		t.Errorf("placements overlap: [%d,%d) then [%d,%d)", first.Timestamp, first.End(), second.Timestamp, second.End())
	}
}

func TestPlaceMedia_StatusGate(t *testing.T) {
	env := newTestEnv(nil)
	p := NewProvisioner(env.store, nil, 5000)

	item := completedItem("m-1", "video")
	item.Status = "generating"
	kf, err := p.PlaceMedia(context.Background(), "proj-1", item)
	if err != nil {
		t.Fatalf("PlaceMedia() error = %v, want no-op", err)
	}
	if kf != nil {
		t.Fatalf("PlaceMedia() = %+v, want nil for ineligible item", kf)
	}
	tracks, _ := env.store.TracksByProject(context.Background(), "proj-1")
	if len(tracks) != 0 {
		t.Errorf("got %d tracks, want 0 (no side effects for a skipped item)", len(tracks))
	}
}

func TestPlaceMedia_AudioCarriesPromptOnly(t *testing.T) {
	env := newTestEnv(nil)
	p := NewProvisioner(env.store, nil, 5000)

	item := model.DropItem{
		ID:        "m-voice",
		MediaType: "voiceover",
		Status:    model.DropStatusCompleted,
		Input:     &model.DropInput{Prompt: "narration line one"},
	}
	kf, err := p.PlaceMedia(context.Background(), "proj-1", item)
	if err != nil {
		t.Fatalf("PlaceMedia() error = %v", err)
	}
	if kf.Data.Kind != model.KeyframeKindPrompt {
		t.Errorf("Kind = %s, want prompt", kf.Data.Kind)
	}
	if kf.Data.URL != "" {
		t.Errorf("URL = %q, want empty for audio payloads", kf.Data.URL)
	}
	if kf.Data.Prompt != "narration line one" {
		t.Errorf("Prompt = %q", kf.Data.Prompt)
	}

	tracks, _ := env.store.TracksByProject(context.Background(), "proj-1")
	if len(tracks) != 1 || tracks[0].Type != model.TrackTypeVoiceover {
		t.Fatalf("tracks = %+v, want one voiceover track", tracks)
	}
}

func TestPlaceMedia_VideoUsesIntrinsicDuration(t *testing.T) {
	resolver := fakeResolver{"m-1": {ID: "m-1", MediaType: "video", URL: "https://cdn.test/m-1.mp4", DurationMs: 12000}}
	env := newTestEnv(resolver)
	p := NewProvisioner(env.store, resolver, 5000)

	kf, err := p.PlaceMedia(context.Background(), "proj-1", completedItem("m-1", "video"))
	if err != nil {
		t.Fatalf("PlaceMedia() error = %v", err)
	}
	if kf.Duration != 12000 {
		t.Errorf("Duration = %d, want intrinsic 12000", kf.Duration)
	}
	if kf.Data.URL != "https://cdn.test/m-1.mp4" {
		t.Errorf("URL = %q, want the resolved media URL", kf.Data.URL)
	}
}

func TestPlaceMedia_MetadataDurationFallback(t *testing.T) {
	env := newTestEnv(nil)
	p := NewProvisioner(env.store, nil, 5000)

	item := model.DropItem{
		ID:        "m-music",
		MediaType: "music",
		Status:    model.DropStatusCompleted,
		Input:     &model.DropInput{Prompt: "ambient pads"},
		Metadata:  &model.DropMetadata{Duration: 7000},
	}
	kf, err := p.PlaceMedia(context.Background(), "proj-1", item)
	if err != nil {
		t.Fatalf("PlaceMedia() error = %v", err)
	}
	if kf.Duration != 7000 {
		t.Errorf("Duration = %d, want metadata 7000", kf.Duration)
	}
}

func TestPlaceMedia_DefaultDuration(t *testing.T) {
	env := newTestEnv(nil)
	p := NewProvisioner(env.store, nil, 5000)

	kf, err := p.PlaceMedia(context.Background(), "proj-1", completedItem("m-img", "image"))
	if err != nil {
		t.Fatalf("PlaceMedia() error = %v", err)
	}
	if kf.Duration != 5000 {
		t.Errorf("Duration = %d, want default 5000", kf.Duration)
	}
}

func TestPlaceMedia_UnknownMediaType(t *testing.T) {
	env := newTestEnv(nil)
	p := NewProvisioner(env.store, nil, 5000)

	_, err := p.PlaceMedia(context.Background(), "proj-1", completedItem("m-1", "hologram"))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("PlaceMedia() error = %v, want ValidationError", err)
	}
}

func TestPlaceMedia_RollsBackCreatedTrack(t *testing.T) {
	env := newTestEnv(nil)
	p := NewProvisioner(env.store, nil, 5000)

	// A video item with no usable URL fails payload validation inside the
	// append, after the track was lazily created.
	item := model.DropItem{ID: "m-broken", MediaType: "video", Status: model.DropStatusCompleted}
	_, err := p.PlaceMedia(context.Background(), "proj-1", item)
	if err == nil {
		t.Fatal("PlaceMedia() succeeded, want error")
	}

	tracks, _ := env.store.TracksByProject(context.Background(), "proj-1")
	if len(tracks) != 0 {
		t.Errorf("got %d tracks after failed placement, want 0 (compensating delete)", len(tracks))
	}
}
