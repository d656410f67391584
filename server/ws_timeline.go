package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"frameline/core/timeline"
	"frameline/logger"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait        = 10 * time.Second
	wsPongWait         = 60 * time.Second
	wsPingPeriod       = 50 * time.Second
	wsSnapshotMaxAge   = 1 * time.Second
	wsSendBufferFrames = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsFrame is one push message to a scrubbing client.
type wsFrame struct {
	Type      string `json:"type"` // "playhead"
	Timestamp int64  `json:"timestamp"`
	TrackID   string `json:"trackId,omitempty"`
	Keyframe  string `json:"keyframeId,omitempty"`
	MediaID   string `json:"mediaId,omitempty"`
	URL       string `json:"url,omitempty"`
}

// wsCommand is one inbound client message.
type wsCommand struct {
	Type      string `json:"type"` // "seek"
	Timestamp int64  `json:"timestamp"`
}

// WSHandler pushes live playhead/preview frames to connected editors while
// the playhead is scrubbed, and accepts seek commands.
type WSHandler struct {
	store    *timeline.Store
	playhead *timeline.PlaybackPosition
}

// NewWSHandler creates the websocket handler.
func NewWSHandler(store *timeline.Store, playhead *timeline.PlaybackPosition) *WSHandler {
	return &WSHandler{store: store, playhead: playhead}
}

// ServeTimeline upgrades the connection and streams playhead frames until
// the client goes away.
func (h *WSHandler) ServeTimeline(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("projectId")
	if projectID == "" {
		writeJSONError(w, http.StatusBadRequest, "projectId is required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Playhead changes arrive at pointer-move frequency; a full buffer
	// drops frames rather than stalling the drag (the next frame
	// supersedes anything dropped).
	frames := make(chan int64, wsSendBufferFrames)
	unsubscribe := h.playhead.Subscribe(func(ts int64) {
		select {
		case frames <- ts:
		default:
		}
	})
	defer unsubscribe()

	go h.readLoop(ctx, cancel, conn)

	// The timeline snapshot used to resolve the active clip is re-fetched
	// lazily, never per frame.
	var snapshot []timeline.TrackTimeline
	var snapshotAt time.Time

	// Initial frame so the client renders without waiting for a move.
	if err := h.writeFrame(ctx, conn, projectID, h.playhead.Current(), &snapshot, &snapshotAt); err != nil {
		return
	}

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ts := <-frames:
			if err := h.writeFrame(ctx, conn, projectID, ts, &snapshot, &snapshotAt); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) writeFrame(ctx context.Context, conn *websocket.Conn, projectID string, ts int64, snapshot *[]timeline.TrackTimeline, snapshotAt *time.Time) error {
	if time.Since(*snapshotAt) > wsSnapshotMaxAge {
		fresh, err := h.store.ProjectTimeline(ctx, projectID)
		if err != nil {
			logger.Warn("failed to load timeline snapshot for websocket", logger.ErrorField(err))
		} else {
			*snapshot = fresh
			*snapshotAt = time.Now()
		}
	}

	frame := wsFrame{Type: "playhead", Timestamp: ts}
	if hit := timeline.ActiveFrame(ts, *snapshot); hit != nil {
		frame.TrackID = hit.Track.ID
		frame.Keyframe = hit.Keyframe.ID
		frame.MediaID = hit.Keyframe.Data.MediaID
		frame.URL = hit.Keyframe.Data.URL
	}

	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(frame)
}

func (h *WSHandler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	defer cancel()
	conn.SetReadLimit(1024)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd wsCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			continue
		}
		if cmd.Type == "seek" {
			h.playhead.Seek(cmd.Timestamp)
		}
	}
}
