package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"frameline/cache"
	"frameline/config"
	"frameline/core/auth"
	"frameline/core/timeline"
	"frameline/logger"
	"frameline/model"

	"github.com/gorilla/mux"
)

// TimelineHandler serves the timeline REST API.
type TimelineHandler struct {
	store       *timeline.Store
	provisioner *timeline.Provisioner
	playhead    *timeline.PlaybackPosition
	cache       *cache.TimelineCache
	cfg         *config.Config
}

// NewTimelineHandler creates the handler.
func NewTimelineHandler(
	store *timeline.Store,
	provisioner *timeline.Provisioner,
	playhead *timeline.PlaybackPosition,
	timelineCache *cache.TimelineCache,
	cfg *config.Config,
) *TimelineHandler {
	return &TimelineHandler{
		store:       store,
		provisioner: provisioner,
		playhead:    playhead,
		cache:       timelineCache,
		cfg:         cfg,
	}
}

// AuthMiddleware gates mutating routes on a bearer token issued by the host
// application. With no JWT_SECRET configured the gate is open (local dev).
func (h *TimelineHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.cfg.JWTSecret == "" {
			next(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if header == "" || tokenString == header {
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if _, err := auth.ParseToken(h.cfg.JWTSecret, tokenString); err != nil {
			writeJSONError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next(w, r)
	}
}

// HealthHandler reports liveness.
func (h *TimelineHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListTracksHandler returns the project's tracks in render priority order.
func (h *TimelineHandler) ListTracksHandler(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("projectId")
	if projectID == "" {
		writeJSONError(w, http.StatusBadRequest, "projectId is required")
		return
	}
	tracks, err := h.store.TracksByProject(r.Context(), projectID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

type createTrackRequest struct {
	ProjectID string          `json:"projectId"`
	Type      model.TrackType `json:"type"`
	Label     string          `json:"label"`
}

// CreateTrackHandler creates a track explicitly (normally the provisioner
// creates them lazily).
func (h *TimelineHandler) CreateTrackHandler(w http.ResponseWriter, r *http.Request) {
	var req createTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	track, err := h.store.CreateTrack(r.Context(), req.ProjectID, req.Type, req.Label)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, track)
}

// ListKeyframesHandler returns a track's keyframes, timestamp ascending,
// read through the Redis cache.
func (h *TimelineHandler) ListKeyframesHandler(w http.ResponseWriter, r *http.Request) {
	trackID := mux.Vars(r)["id"]
	if kfs, ok := h.cache.GetKeyframes(r.Context(), trackID); ok {
		writeJSON(w, http.StatusOK, kfs)
		return
	}
	kfs, err := h.store.KeyframesByTrack(r.Context(), trackID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.cache.SetKeyframes(r.Context(), trackID, kfs)
	writeJSON(w, http.StatusOK, kfs)
}

type placeMediaRequest struct {
	ProjectID string         `json:"projectId"`
	Item      model.DropItem `json:"item"`
}

// PlaceMediaHandler runs the auto-provisioner for one dropped item.
func (h *TimelineHandler) PlaceMediaHandler(w http.ResponseWriter, r *http.Request) {
	var req placeMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProjectID == "" {
		writeJSONError(w, http.StatusBadRequest, "projectId is required")
		return
	}
	kf, err := h.provisioner.PlaceMedia(r.Context(), req.ProjectID, req.Item)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if kf == nil {
		// Item not eligible (status gate): a no-op, not an error.
		writeJSON(w, http.StatusOK, map[string]string{"status": "skipped"})
		return
	}
	writeJSON(w, http.StatusCreated, kf)
}

type moveKeyframeRequest struct {
	Timestamp int64 `json:"timestamp"`
}

// MoveKeyframeHandler commits a clip move.
func (h *TimelineHandler) MoveKeyframeHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req moveKeyframeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.store.MoveKeyframe(r.Context(), id, req.Timestamp); err != nil {
		writeDomainError(w, err)
		return
	}
	kf, err := h.store.GetKeyframe(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kf)
}

type resizeKeyframeRequest struct {
	Edge     timeline.ResizeEdge `json:"edge"`
	Duration int64               `json:"duration"`
}

// ResizeKeyframeHandler commits a clip resize.
func (h *TimelineHandler) ResizeKeyframeHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req resizeKeyframeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.store.ResizeKeyframe(r.Context(), id, req.Edge, req.Duration); err != nil {
		writeDomainError(w, err)
		return
	}
	kf, err := h.store.GetKeyframe(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kf)
}

// DeleteKeyframeHandler removes a single keyframe.
func (h *TimelineHandler) DeleteKeyframeHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.store.DeleteKeyframe(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type previewResponse struct {
	Timestamp int64           `json:"timestamp"`
	Track     *model.Track    `json:"track,omitempty"`
	Keyframe  *model.Keyframe `json:"keyframe,omitempty"`
}

// PreviewHandler resolves the active clip for a scrub position.
func (h *TimelineHandler) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("projectId")
	if projectID == "" {
		writeJSONError(w, http.StatusBadRequest, "projectId is required")
		return
	}
	ts := h.playhead.Current()
	if raw := r.URL.Query().Get("t"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "t must be an integer millisecond value")
			return
		}
		ts = parsed
	}
	snapshot, err := h.store.ProjectTimeline(r.Context(), projectID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := previewResponse{Timestamp: ts}
	if hit := timeline.ActiveFrame(ts, snapshot); hit != nil {
		resp.Track = hit.Track
		resp.Keyframe = hit.Keyframe
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPlayheadHandler returns the current scrub position.
func (h *TimelineHandler) GetPlayheadHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{"timestamp": h.playhead.Current()})
}

type seekRequest struct {
	Timestamp int64 `json:"timestamp"`
}

// SeekHandler moves the playhead directly (slider seek).
func (h *TimelineHandler) SeekHandler(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ts := h.playhead.Seek(req.Timestamp)
	writeJSON(w, http.StatusOK, map[string]int64{"timestamp": ts})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var vErr *timeline.ValidationError
	var cErr *timeline.CapacityError
	var pErr *timeline.ProvisioningError
	switch {
	case errors.Is(err, timeline.ErrTrackNotFound), errors.Is(err, timeline.ErrKeyframeNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &vErr):
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &cErr):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.As(err, &pErr):
		writeJSONError(w, http.StatusBadGateway, err.Error())
	default:
		logger.Error("internal error", logger.ErrorField(err))
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}
