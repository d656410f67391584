package timeline

import (
	"context"
	"sync"

	"frameline/logger"
	"frameline/model"
)

// DragState names the interaction state machine states.
type DragState int

const (
	StateIdle DragState = iota
	StateDraggingCursor
	StateDraggingClip
	StateResizingClip
)

// CommitStepMs is the grid clip moves and resizes are rounded to when a
// gesture commits. Rounding happens on release only, so the clip follows
// the pointer without jitter during the drag.
const CommitStepMs int64 = 100

// Viewport describes the timeline geometry a gesture is measured against.
// ContainerWidth is the un-zoomed width; pointer coordinates arrive in
// zoomed screen space and are divided back down through the zoom factor.
type Viewport struct {
	ContainerWidth float64
	TimelineLeft   float64
	ZoomPercent    float64
}

// PointerEvent is one sample from the pointer event source.
type PointerEvent struct {
	PointerID int
	X         float64
	ShiftHeld bool
}

// PointerSource abstracts the windowing toolkit: move/release callbacks are
// registered only while a gesture is active and removed on completion.
type PointerSource interface {
	Capture(pointerID int, onMove func(PointerEvent), onRelease func(PointerEvent))
	ReleaseCapture(pointerID int)
}

// DragController owns the pointer-down/move/up sequences for the three
// draggable entities: the playhead cursor, a clip body, and a clip edge.
// Moves update a local candidate value (and, for the cursor, the live
// playhead); only release commits to the store. One gesture is active at a
// time, captured to the pointer that started it.
type DragController struct {
	mu       sync.Mutex
	store    *Store
	snapper  Snapper
	playhead *PlaybackPosition
	source   PointerSource

	state     DragState
	pointerID int
	view      Viewport
	startX    float64

	// clip gesture state
	clipID         string
	edge           ResizeEdge
	startTimestamp int64 // committed value at gesture start
	startDuration  int64
	startLeftPx    float64
	startWidthPx   float64
	intrinsicMs    int64 // 0 = no intrinsic media length

	candidateTimestamp int64
	candidateDuration  int64
}

// NewDragController wires the controller to the store, snapper and
// playhead. source may be nil when the host drives Move/Release directly.
func NewDragController(store *Store, snapper Snapper, playhead *PlaybackPosition, source PointerSource) *DragController {
	return &DragController{
		store:    store,
		snapper:  snapper,
		playhead: playhead,
		source:   source,
	}
}

// State returns the current machine state.
func (c *DragController) State() DragState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Candidate returns the in-gesture optimistic values. Renderers prefer
// these while active is true and fall back to the stored values otherwise.
func (c *DragController) Candidate() (timestamp, duration int64, active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateIdle {
		return 0, 0, false
	}
	return c.candidateTimestamp, c.candidateDuration, true
}

// BeginCursorDrag starts a playhead scrub gesture.
func (c *DragController) BeginCursorDrag(pointerID int, view Viewport) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return ErrDragActive
	}
	c.state = StateDraggingCursor
	c.pointerID = pointerID
	c.view = view
	c.candidateTimestamp = c.playhead.Current()
	c.candidateDuration = 0
	c.capture(pointerID)
	return nil
}

// BeginClipDrag starts moving a clip body. kf is the committed keyframe at
// gesture start.
func (c *DragController) BeginClipDrag(pointerID int, view Viewport, kf *model.Keyframe, startX float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return ErrDragActive
	}
	c.state = StateDraggingClip
	c.beginClip(pointerID, view, kf, startX, 0)
	return nil
}

// BeginResize starts resizing a clip from the given edge. intrinsicMs is
// the media's intrinsic length (0 when it has none, e.g. images); it is
// captured here so pointer moves never touch I/O.
func (c *DragController) BeginResize(pointerID int, view Viewport, kf *model.Keyframe, edge ResizeEdge, startX float64, intrinsicMs int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return ErrDragActive
	}
	if edge != EdgeLeft && edge != EdgeRight {
		return &ValidationError{Invariant: "resize-edge", Detail: string(edge)}
	}
	c.state = StateResizingClip
	c.edge = edge
	c.beginClip(pointerID, view, kf, startX, intrinsicMs)
	return nil
}

func (c *DragController) beginClip(pointerID int, view Viewport, kf *model.Keyframe, startX float64, intrinsicMs int64) {
	total := c.store.ProjectDuration()
	c.pointerID = pointerID
	c.view = view
	c.startX = startX
	c.clipID = kf.ID
	c.startTimestamp = kf.Timestamp
	c.startDuration = kf.Duration
	c.startLeftPx = PercentToPixel(TimeToPercent(kf.Timestamp, total), view.ContainerWidth)
	c.startWidthPx = PercentToPixel(TimeToPercent(kf.Duration, total), view.ContainerWidth)
	c.intrinsicMs = intrinsicMs
	c.candidateTimestamp = kf.Timestamp
	c.candidateDuration = kf.Duration
	c.capture(pointerID)
}

// Move processes one pointer-move sample. Samples from pointers other than
// the capturing one are ignored, as are moves with no active gesture.
func (c *DragController) Move(ev PointerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateIdle || ev.PointerID != c.pointerID {
		return
	}
	switch c.state {
	case StateDraggingCursor:
		c.moveCursor(ev)
	case StateDraggingClip:
		c.moveClip(ev)
	case StateResizingClip:
		c.resizeClip(ev)
	}
}

// moveCursor converts the pointer position to a snapped project timestamp
// and propagates it to the playhead immediately: the preview must follow
// the scrub live, not on release.
func (c *DragController) moveCursor(ev PointerEvent) {
	total := c.store.ProjectDuration()
	local := UnapplyZoom(ev.X-c.view.TimelineLeft, c.view.ZoomPercent)
	percent := clampFloat(local/c.view.ContainerWidth*100, 0, 100)
	percent = c.snapper.Snap(percent, ev.ShiftHeld)
	ts := PercentToTime(percent, total)
	c.candidateTimestamp = ts
	c.playhead.Seek(ts)
}

// moveClip tracks the clip's left edge under the pointer. No snapping
// during the move; the commit rounds to CommitStepMs.
func (c *DragController) moveClip(ev PointerEvent) {
	total := c.store.ProjectDuration()
	delta := UnapplyZoom(ev.X-c.startX, c.view.ZoomPercent)
	left := clampFloat(c.startLeftPx+delta, 0, c.view.ContainerWidth-c.startWidthPx)
	c.candidateTimestamp = PercentToTime(left/c.view.ContainerWidth*100, total)
}

// resizeClip tracks the grabbed edge. The opposite edge stays fixed: a left
// grab moves the start while the end holds.
func (c *DragController) resizeClip(ev PointerEvent) {
	total := c.store.ProjectDuration()
	delta := UnapplyZoom(ev.X-c.startX, c.view.ZoomPercent)
	width := c.startWidthPx + delta
	if c.edge == EdgeLeft {
		width = c.startWidthPx - delta
	}
	width = clampFloat(width, 0, c.view.ContainerWidth)
	dur := PercentToTime(width/c.view.ContainerWidth*100, total)
	maxDur := total
	if c.intrinsicMs > 0 && c.intrinsicMs < maxDur {
		maxDur = c.intrinsicMs
	}
	dur = clampInt64(dur, MinKeyframeDurationMs, maxDur)
	c.candidateDuration = dur
	if c.edge == EdgeLeft {
		c.candidateTimestamp = c.startTimestamp + c.startDuration - dur
	}
}

// Release commits the gesture and returns the machine to Idle. Clip values
// are rounded to CommitStepMs before persisting. A store rejection ends the
// gesture with the committed value untouched and the error surfaced.
func (c *DragController) Release(ctx context.Context, pointerID int) error {
	c.mu.Lock()
	if c.state == StateIdle || pointerID != c.pointerID {
		c.mu.Unlock()
		return nil
	}
	state := c.state
	clipID := c.clipID
	edge := c.edge
	ts := roundToStep(c.candidateTimestamp, CommitStepMs)
	dur := roundToStep(c.candidateDuration, CommitStepMs)
	c.state = StateIdle
	c.clipID = ""
	c.uncapture(pointerID)
	c.mu.Unlock()

	var err error
	switch state {
	case StateDraggingClip:
		err = c.store.MoveKeyframe(ctx, clipID, ts)
	case StateResizingClip:
		err = c.store.ResizeKeyframe(ctx, clipID, edge, dur)
	case StateDraggingCursor:
		// Cursor position already propagated on every move.
	}
	if err != nil {
		logger.Warn("drag commit rejected",
			logger.String("keyframeId", clipID),
			logger.ErrorField(err))
	}
	return err
}

func (c *DragController) capture(pointerID int) {
	if c.source == nil {
		return
	}
	c.source.Capture(pointerID, c.Move, func(ev PointerEvent) {
		// Release errors are already logged; the pointer source has no
		// channel to surface them.
		_ = c.Release(context.Background(), ev.PointerID)
	})
}

func (c *DragController) uncapture(pointerID int) {
	if c.source != nil {
		c.source.ReleaseCapture(pointerID)
	}
}

func roundToStep(v, step int64) int64 {
	if step <= 0 {
		return v
	}
	half := step / 2
	if v >= 0 {
		return (v + half) / step * step
	}
	return -((-v + half) / step * step)
}
