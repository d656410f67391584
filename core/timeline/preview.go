package timeline

import "frameline/model"

// FrameHit is the active clip resolved for a scrub position.
type FrameHit struct {
	Track    *model.Track
	Keyframe *model.Keyframe
}

// ActiveFrame resolves which clip is under the playhead at ts. Tracks are
// checked in the order given (callers pass the priority-ordered snapshot
// from Store.ProjectTimeline) and the first keyframe whose interval
// [timestamp, timestamp+duration) contains ts wins. Returns nil when no
// track has a clip at that instant.
//
// Pure over the snapshot, no I/O: it runs on every scrub-position change,
// so media resolution for the hit is memoized by the caller.
func ActiveFrame(ts int64, tracks []TrackTimeline) *FrameHit {
	for _, tt := range tracks {
		for _, kf := range tt.Keyframes {
			if kf.Contains(ts) {
				return &FrameHit{Track: tt.Track, Keyframe: kf}
			}
		}
	}
	return nil
}
