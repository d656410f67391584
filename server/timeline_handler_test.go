package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"frameline/cache"
	"frameline/config"
	"frameline/core/auth"
	"frameline/core/timeline"
	"frameline/model"
	"frameline/repository"

	"github.com/gorilla/mux"
)

// newTestRouter wires the API over in-memory repositories, with no Redis
// (nil cache is a pass-through) and no media resolver.
func newTestRouter(t *testing.T, jwtSecret string) (*mux.Router, *timeline.Store) {
	t.Helper()
	cfg := &config.Config{
		ProjectDurationMs: 30000,
		DefaultClipMs:     5000,
		JWTSecret:         jwtSecret,
	}
	store := timeline.NewStore(repository.NewMemoryTrackRepository(), repository.NewMemoryKeyframeRepository(), nil, cfg.ProjectDurationMs)
	playhead := timeline.NewPlaybackPosition(cfg.ProjectDurationMs)
	provisioner := timeline.NewProvisioner(store, nil, cfg.DefaultClipMs)
	handler := NewTimelineHandler(store, provisioner, playhead, (*cache.TimelineCache)(nil), cfg)

	router := mux.NewRouter()
	router.HandleFunc("/healthz", handler.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/timeline/tracks", handler.ListTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/timeline/tracks", handler.AuthMiddleware(handler.CreateTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/timeline/tracks/{id}/keyframes", handler.ListKeyframesHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/timeline/place", handler.AuthMiddleware(handler.PlaceMediaHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/timeline/keyframes/{id}/move", handler.AuthMiddleware(handler.MoveKeyframeHandler)).Methods(http.MethodPatch)
	router.HandleFunc("/api/timeline/keyframes/{id}/resize", handler.AuthMiddleware(handler.ResizeKeyframeHandler)).Methods(http.MethodPatch)
	router.HandleFunc("/api/timeline/keyframes/{id}", handler.AuthMiddleware(handler.DeleteKeyframeHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/timeline/preview", handler.PreviewHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/timeline/playhead", handler.GetPlayheadHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/timeline/seek", handler.SeekHandler).Methods(http.MethodPost)
	return router, store
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

func placeRequest(id, mediaType string) map[string]interface{} {
	return map[string]interface{}{
		"projectId": "proj-1",
		"item": model.DropItem{
			ID:        id,
			MediaType: mediaType,
			Status:    model.DropStatusCompleted,
			Input:     &model.DropInput{ImageURL: "https://media.test/" + id, Prompt: "sunset"},
		},
	}
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t, "")
	rec := doJSON(t, router, http.MethodGet, "/healthz", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestCreateAndListTracks(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rec := doJSON(t, router, http.MethodPost, "/api/timeline/tracks",
		map[string]string{"projectId": "proj-1", "type": "music"}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	rec = doJSON(t, router, http.MethodPost, "/api/timeline/tracks",
		map[string]string{"projectId": "proj-1", "type": "video"}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/timeline/tracks?projectId=proj-1", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var tracks []model.Track
	decodeBody(t, rec, &tracks)
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}
	// Render priority order, not insertion order.
	if tracks[0].Type != model.TrackTypeVideo || tracks[1].Type != model.TrackTypeMusic {
		t.Errorf("order = %s, %s, want video, music", tracks[0].Type, tracks[1].Type)
	}
}

func TestListTracks_RequiresProjectID(t *testing.T) {
	router, _ := newTestRouter(t, "")
	rec := doJSON(t, router, http.MethodGet, "/api/timeline/tracks", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCreateTrack_UnknownType(t *testing.T) {
	router, _ := newTestRouter(t, "")
	rec := doJSON(t, router, http.MethodPost, "/api/timeline/tracks",
		map[string]string{"projectId": "proj-1", "type": "hologram"}, "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestPlaceMediaAndListKeyframes(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rec := doJSON(t, router, http.MethodPost, "/api/timeline/place", placeRequest("m-1", "image"), "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("place status = %d, body %s", rec.Code, rec.Body)
	}
	var kf model.Keyframe
	decodeBody(t, rec, &kf)
	if kf.Timestamp != 0 || kf.Duration != 5000 {
		t.Errorf("placed [%d, dur %d], want [0, dur 5000]", kf.Timestamp, kf.Duration)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/timeline/tracks/"+kf.TrackID+"/keyframes", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var kfs []model.Keyframe
	decodeBody(t, rec, &kfs)
	if len(kfs) != 1 || kfs[0].ID != kf.ID {
		t.Errorf("keyframes = %+v, want the placed one", kfs)
	}
}

func TestPlaceMedia_SkippedItem(t *testing.T) {
	router, _ := newTestRouter(t, "")
	body := placeRequest("m-1", "video")
	body["item"] = model.DropItem{ID: "m-1", MediaType: "video", Status: "generating"}
	rec := doJSON(t, router, http.MethodPost, "/api/timeline/place", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["status"] != "skipped" {
		t.Errorf("status field = %q, want skipped", resp["status"])
	}
}

func TestPlaceMedia_CapacityConflict(t *testing.T) {
	router, _ := newTestRouter(t, "")
	// Six 5000ms clips fill the 30000ms project exactly.
	for i := 0; i < 6; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/timeline/place",
			placeRequest(fmt.Sprintf("m-%d", i), "image"), "")
		if rec.Code != http.StatusCreated {
			t.Fatalf("place %d status = %d, body %s", i, rec.Code, rec.Body)
		}
	}
	rec := doJSON(t, router, http.MethodPost, "/api/timeline/place", placeRequest("m-6", "image"), "")
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestMoveKeyframe(t *testing.T) {
	router, _ := newTestRouter(t, "")
	rec := doJSON(t, router, http.MethodPost, "/api/timeline/place", placeRequest("m-1", "image"), "")
	var kf model.Keyframe
	decodeBody(t, rec, &kf)

	rec = doJSON(t, router, http.MethodPatch, "/api/timeline/keyframes/"+kf.ID+"/move",
		map[string]int64{"timestamp": 12000}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("move status = %d, body %s", rec.Code, rec.Body)
	}
	var moved model.Keyframe
	decodeBody(t, rec, &moved)
	if moved.Timestamp != 12000 {
		t.Errorf("Timestamp = %d, want 12000", moved.Timestamp)
	}
}

func TestMoveKeyframe_NotFound(t *testing.T) {
	router, _ := newTestRouter(t, "")
	rec := doJSON(t, router, http.MethodPatch, "/api/timeline/keyframes/nope/move",
		map[string]int64{"timestamp": 0}, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestResizeKeyframe_Invalid(t *testing.T) {
	router, _ := newTestRouter(t, "")
	rec := doJSON(t, router, http.MethodPost, "/api/timeline/place", placeRequest("m-1", "image"), "")
	var kf model.Keyframe
	decodeBody(t, rec, &kf)

	rec = doJSON(t, router, http.MethodPatch, "/api/timeline/keyframes/"+kf.ID+"/resize",
		map[string]interface{}{"edge": "diagonal", "duration": 4000}, "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422, body %s", rec.Code, rec.Body)
	}
}

func TestDeleteKeyframe(t *testing.T) {
	router, _ := newTestRouter(t, "")
	rec := doJSON(t, router, http.MethodPost, "/api/timeline/place", placeRequest("m-1", "image"), "")
	var kf model.Keyframe
	decodeBody(t, rec, &kf)

	rec = doJSON(t, router, http.MethodDelete, "/api/timeline/keyframes/"+kf.ID, nil, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodDelete, "/api/timeline/keyframes/"+kf.ID, nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestPreview(t *testing.T) {
	router, _ := newTestRouter(t, "")
	doJSON(t, router, http.MethodPost, "/api/timeline/place", placeRequest("m-1", "image"), "")

	rec := doJSON(t, router, http.MethodGet, "/api/timeline/preview?projectId=proj-1&t=2500", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp previewResponse
	decodeBody(t, rec, &resp)
	if resp.Keyframe == nil {
		t.Fatal("Keyframe = nil, want the active clip at t=2500")
	}
	if resp.Timestamp != 2500 {
		t.Errorf("Timestamp = %d, want 2500", resp.Timestamp)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/timeline/preview?projectId=proj-1&t=29000", nil, "")
	decodeBody(t, rec, &resp)
	if resp.Keyframe != nil {
		t.Errorf("Keyframe at empty position = %+v, want null", resp.Keyframe)
	}
}

func TestSeekAndPlayhead(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rec := doJSON(t, router, http.MethodPost, "/api/timeline/seek", map[string]int64{"timestamp": 50000}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("seek status = %d", rec.Code)
	}
	var resp map[string]int64
	decodeBody(t, rec, &resp)
	if resp["timestamp"] != 30000 {
		t.Errorf("seek result = %d, want clamp to 30000", resp["timestamp"])
	}

	rec = doJSON(t, router, http.MethodGet, "/api/timeline/playhead", nil, "")
	decodeBody(t, rec, &resp)
	if resp["timestamp"] != 30000 {
		t.Errorf("playhead = %d, want 30000", resp["timestamp"])
	}
}

func TestAuthMiddleware(t *testing.T) {
	router, _ := newTestRouter(t, "test-secret")
	body := map[string]string{"projectId": "proj-1", "type": "video"}

	rec := doJSON(t, router, http.MethodPost, "/api/timeline/tracks", body, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/timeline/tracks", body, "bogus")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want 401", rec.Code)
	}

	token, err := auth.GenerateToken("test-secret", "user-1", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	rec = doJSON(t, router, http.MethodPost, "/api/timeline/tracks", body, token)
	if rec.Code != http.StatusCreated {
		t.Errorf("valid token status = %d, want 201, body %s", rec.Code, rec.Body)
	}
}
